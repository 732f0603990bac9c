package model

/*
TradingView告警的payload，来源于外部数据

	{
	  "timestamp": "2026-01-20T09:30:00Z",
	  "exchange": "KUCOIN",
	  "symbol": "ETH/USDT",
	  "timeframe": "1h",
	  "action": "buy",
	  "order_id": "a1b2c3",
	  "contracts": 0.5,
	  "close": 2301.5,
	  "position_side": "long",
	  "position_qty": 0.5
	}
*/
type Alert struct {
	Timestamp    string  `json:"timestamp"`                                            // 信号源时间
	Exchange     string  `json:"exchange" binding:"required"`                          // 交易所名称，大小写不敏感
	Symbol       string  `json:"symbol" binding:"required"`                            // 交易对，格式不限
	Timeframe    string  `json:"timeframe" binding:"required,timeframe"`               // 周期，原样作为分组key
	Action       string  `json:"action" binding:"required,oneof=buy sell"`             // buy / sell
	OrderID      string  `json:"order_id"`                                             // 幂等去重用
	Contracts    float64 `json:"contracts" binding:"gte=0"`                            // 合约数量
	Close        float64 `json:"close" binding:"required,gt=0"`                        // 参考价格
	PositionSide string  `json:"position_side" binding:"required,oneof=long short flat"`
	PositionQty  float64 `json:"position_qty" binding:"gte=0"`
}

// 信号分类结果
type SignalKind int

const (
	SignalIgnore SignalKind = iota
	SignalEntry
	SignalExit
)

// Kind 判定信号是入场、离场还是忽略，纯函数无副作用
// 只有 buy+long 为入场，sell+flat 为离场，其余一律忽略
func (a *Alert) Kind() SignalKind {
	switch {
	case a.Action == "buy" && a.PositionSide == "long":
		return SignalEntry
	case a.Action == "sell" && a.PositionSide == "flat":
		return SignalExit
	default:
		return SignalIgnore
	}
}

// webhook响应里机器可读的错误类别
const (
	ErrKindUnknownExchange = "UNKNOWN_EXCHANGE"
	ErrKindInvalidSymbol   = "INVALID_SYMBOL"
	ErrKindPriceFetch      = "PRICE_FETCH_FAILED"
	ErrKindValidation      = "VALIDATION_FAILED"
	ErrKindNoOpenTrade     = "NO_OPEN_TRADE"
	ErrKindNoPyramids      = "NO_PYRAMIDS"
	ErrKindMaxPyramids     = "MAX_PYRAMIDS_REACHED"
	ErrKindStorage         = "STORAGE_FAILED"
)

// WebhookResponse webhook端点的响应结构
type WebhookResponse struct {
	Success bool    `json:"success"`
	Message string  `json:"message"`
	TradeID string  `json:"trade_id,omitempty"`
	Price   float64 `json:"price,omitempty"`
	Error   string  `json:"error,omitempty"`
}
