package consts

import "time"

const (
	// RequestId 请求id名称
	RequestId = "request_id"

	DateLayout   = "2006-01-02"
	TimeLayout   = "2006-01-02 15:04:05"
	TimeLayoutMs = "2006-01-02 15:04:05.000"
)

const (
	// 交易状态
	TradeStatusOpen   = "open"
	TradeStatusClosed = "closed"

	// settings表里的运行时开关
	SettingPaused       = "paused"
	SettingIgnoredPairs = "ignored_pairs"

	// symbol规则缓存key前缀及过期时间
	SymbolRulePrefix = "Symbol_Rule_list:"
	SymbolRuleExpiry = time.Hour * 24
)

// 查询周期上限
const (
	DefaultPairLimit   = 5
	DefaultTradesLimit = 50
)
