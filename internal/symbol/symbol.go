package symbol

import (
	"fmt"
	"sort"
	"strings"
)

// 各交易所的交易对命名规则不一样：
// Binance/Bybit/MEXC: BTCUSDT（无分隔符）
// OKX/Kucoin: BTC-USDT
// Gate.io: BTC_USDT
// 这里统一解析为 base/quote，并支持按交易所格式化回去

// 拼接型symbol里常见的计价币，按优先级匹配后缀
var quoteCurrencies = []string{
	"USDT", "USDC", "BUSD", "TUSD", "USDP", // 稳定币
	"BTC", "ETH", "BNB", // 主流币
	"EUR", "GBP", "TRY", // 法币
}

// 交易所别名 -> 标准小写id
var exchangeAliases = map[string]string{
	"binance": "binance",
	"bin":     "binance",
	"bybit":   "bybit",
	"okx":     "okx",
	"okex":    "okx",
	"gate":    "gateio",
	"gate.io": "gateio",
	"gateio":  "gateio",
	"kucoin":  "kucoin",
	"mexc":    "mexc",
	"mxc":     "mexc",
}

// 每个交易所的symbol格式
var exchangeFormats = map[string]string{
	"binance": "%s%s",
	"bybit":   "%s%s",
	"okx":     "%s-%s",
	"gateio":  "%s_%s",
	"kucoin":  "%s-%s",
	"mexc":    "%s%s",
}

// Pair 解析出来的交易对
type Pair struct {
	Base  string
	Quote string
}

// Display 展示格式 BASE/QUOTE
func (p Pair) Display() string {
	return p.Base + "/" + p.Quote
}

// FormatFor 按交易所的格式拼出symbol
func (p Pair) FormatFor(exchange string) string {
	ex := NormalizeExchange(exchange)
	format, ok := exchangeFormats[ex]
	if !ok {
		format = "%s%s"
	}
	return fmt.Sprintf(format, p.Base, p.Quote)
}

// NormalizeExchange 交易所名称标准化，未知返回空串
func NormalizeExchange(name string) string {
	return exchangeAliases[strings.ToLower(strings.TrimSpace(name))]
}

// IsValidExchange 是否支持该交易所
func IsValidExchange(name string) bool {
	return NormalizeExchange(name) != ""
}

// SupportedExchanges 支持的交易所列表，按字母序
func SupportedExchanges() []string {
	exchanges := make([]string, 0, len(exchangeFormats))
	for name := range exchangeFormats {
		exchanges = append(exchanges, name)
	}
	sort.Strings(exchanges)
	return exchanges
}

// ParsePair 解析任意格式的symbol
// 支持 BTC/USDT、BTCUSDT、BTC-USDT、BTC_USDT、BINANCE:BTCUSDT 等
func ParsePair(symbol string) (Pair, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return Pair{}, fmt.Errorf("empty symbol")
	}

	// 去掉交易所前缀，如 BINANCE:BTCUSDT
	if idx := strings.Index(symbol, ":"); idx >= 0 {
		symbol = symbol[idx+1:]
	}

	// 先按分隔符拆
	for _, sep := range []string{"/", "-", "_"} {
		if strings.Contains(symbol, sep) {
			parts := strings.SplitN(symbol, sep, 2)
			if len(parts) == 2 && parts[0] != "" && parts[1] != "" {
				return Pair{Base: parts[0], Quote: parts[1]}, nil
			}
		}
	}

	// 无分隔符时按已知计价币后缀拆
	for _, quote := range quoteCurrencies {
		if strings.HasSuffix(symbol, quote) {
			base := strings.TrimSuffix(symbol, quote)
			if base != "" {
				return Pair{Base: base, Quote: quote}, nil
			}
		}
	}

	return Pair{}, fmt.Errorf("cannot parse symbol: %s", symbol)
}
