package errors

import (
	"errors"
	"fmt"

	"pyraledger/pkg/errors/ecode"
)

// 带错误码的业务错误，response包通过DecodeErr还原出code和message

type Err struct {
	Code    int    // 错误码
	Kind    string // 机器可读的错误类别，如 UNKNOWN_EXCHANGE
	Message string // 用户可读的提示
	Err     error  // 底层错误
}

func (e *Err) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("code: %d, message: %s, error: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("code: %d, message: %s", e.Code, e.Message)
}

func (e *Err) Unwrap() error {
	return e.Err
}

func New(code int, kind, message string) *Err {
	return &Err{Code: code, Kind: kind, Message: message}
}

func Newf(code int, kind, format string, args ...interface{}) *Err {
	return &Err{Code: code, Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap 包装一个底层错误
func Wrap(err error, code int, message string) *Err {
	return &Err{Code: code, Message: message, Err: err}
}

// DecodeErr 从error中解析出错误码和提示信息
func DecodeErr(err error) (int, string) {
	if err == nil {
		return ecode.Success, "OK"
	}
	var e *Err
	if errors.As(err, &e) {
		return e.Code, e.Message
	}
	return ecode.InternalErr, err.Error()
}

// 错误码到类别的兜底映射，Wrap出来的错误没有显式Kind时用这个
var codeKinds = map[int]string{
	ecode.StorageErr:         "STORAGE_FAILED",
	ecode.UnknownExchangeErr: "UNKNOWN_EXCHANGE",
	ecode.InvalidSymbolErr:   "INVALID_SYMBOL",
	ecode.PriceFetchErr:      "PRICE_FETCH_FAILED",
	ecode.ValidationErr:      "VALIDATION_FAILED",
	ecode.NoOpenTradeErr:     "NO_OPEN_TRADE",
	ecode.NoPyramidsErr:      "NO_PYRAMIDS",
	ecode.MaxPyramidsErr:     "MAX_PYRAMIDS_REACHED",
}

// KindOf 获取错误类别，没有则返回空字符串
func KindOf(err error) string {
	var e *Err
	if errors.As(err, &e) {
		if e.Kind != "" {
			return e.Kind
		}
		return codeKinds[e.Code]
	}
	return ""
}

// IsKind 判断错误是否属于某个类别
func IsKind(err error, kind string) bool {
	return KindOf(err) == kind
}
