package ecode

// 错误码定义 0表示成功
const (
	Success = 0

	// 通用错误
	InternalErr    = 10001
	BindErr        = 10002
	RequireAuthErr = 10003
	NotFoundErr    = 10004
	StorageErr     = 10005

	// 信号处理相关
	UnknownExchangeErr = 20001
	InvalidSymbolErr   = 20002
	PriceFetchErr      = 20003
	ValidationErr      = 20004
	NoOpenTradeErr     = 20005
	NoPyramidsErr      = 20006
	MaxPyramidsErr     = 20007
)
