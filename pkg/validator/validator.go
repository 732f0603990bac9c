package validator

import (
	"regexp"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var once sync.Once

// timeframe形如 1m / 15m / 1h / 4h / 1d / 1w，也兼容TradingView的纯数字（分钟）和 D/W/M
var timeframePattern = regexp.MustCompile(`^([0-9]{1,4}[mhdwMS]?|[DWM])$`)

// LazyInitGinValidator 给gin的binding注册自定义校验规则
func LazyInitGinValidator() {
	once.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterValidation("timeframe", func(fl validator.FieldLevel) bool {
			return timeframePattern.MatchString(fl.Field().String())
		})
	})
}
