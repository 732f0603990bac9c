package service

import (
	"pyraledger/internal/model"
	"pyraledger/internal/model/entity"
	"pyraledger/pkg/utils"
)

// 盈亏与仓位的纯计算，不碰存储和网络

// PositionSize 按投入资金和价格算出base币数量，并按数量精度取整
func PositionSize(capital, price float64, qtyPrecision int) float64 {
	if price <= 0 {
		return 0
	}
	return utils.RoundTo(capital/price, qtyPrecision)
}

// EntryFee 入场手续费，按实际投入计
func EntryFee(capital, feeRate float64) float64 {
	return capital * feeRate
}

// Settlement 一笔交易平仓后的结算汇总
type Settlement struct {
	Legs         []model.PyramidLeg
	GrossPnl     float64
	EntryFees    float64
	ExitFees     float64
	NetPnl       float64
	TotalCapital float64
	NetPnlPct    float64 // 总净盈亏占总投入百分比，总投入为0时为0
}

// Settle 对每个pyramid逐腿结算后汇总
// 离场手续费与入场对称：exitPrice * size * feeRate
func Settle(pyramids []entity.Pyramid, exitPrice, exitFeeRate float64) Settlement {
	var st Settlement
	st.Legs = make([]model.PyramidLeg, 0, len(pyramids))

	for _, p := range pyramids {
		gross := (exitPrice - p.EntryPrice) * p.PositionSize
		exitFee := exitPrice * p.PositionSize * exitFeeRate
		net := gross - p.FeeQuote - exitFee

		pct := 0.0
		if p.CapitalQuote > 0 {
			pct = net / p.CapitalQuote * 100
		}

		st.Legs = append(st.Legs, model.PyramidLeg{
			Index:        p.PyramidIndex,
			EntryPrice:   p.EntryPrice,
			EntryTime:    p.EntryTime,
			Size:         p.PositionSize,
			CapitalQuote: p.CapitalQuote,
			GrossPnl:     gross,
			EntryFee:     p.FeeQuote,
			ExitFee:      exitFee,
			NetPnl:       net,
			PnlPercent:   pct,
		})

		st.GrossPnl += gross
		st.EntryFees += p.FeeQuote
		st.ExitFees += exitFee
		st.NetPnl += net
		st.TotalCapital += p.CapitalQuote
	}

	if st.TotalCapital > 0 {
		st.NetPnlPct = st.NetPnl / st.TotalCapital * 100
	}
	return st
}
