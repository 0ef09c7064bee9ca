package backtest

import (
	"math"

	"github.com/montanaflynn/stats"

	"backtest-systemv1/internal/model"
)

// tradingDaysPerYear annualizes the Sharpe ratio for daily bars.
const tradingDaysPerYear = 252

// Analyze derives the performance metrics for a completed run.
//
// ProfitFactor is defined as exactly 1 when there are no losing trades,
// including runs with zero trades. Callers treat 1 as "not meaningful"
// rather than as an infinite win/loss ratio.
func Analyze(trades []model.Trade, equity []model.EquityPoint, initialCapital, finalCapital float64) model.Metrics {
	m := model.Metrics{
		TotalTrades:  len(trades),
		FinalCapital: finalCapital,
	}

	var winPnL, lossPnL float64
	for _, t := range trades {
		if t.PnL > 0 {
			m.WinningTrades++
			winPnL += t.PnL
		} else {
			m.LosingTrades++
			lossPnL += t.PnL
		}
	}
	if m.TotalTrades > 0 {
		m.WinRate = float64(m.WinningTrades) / float64(m.TotalTrades)
	}

	if initialCapital > 0 {
		m.TotalReturnPct = (finalCapital - initialCapital) / initialCapital * 100
	}

	for _, p := range equity {
		if p.DrawdownPercent > m.MaxDrawdownPct {
			m.MaxDrawdownPct = p.DrawdownPercent
		}
	}

	m.SharpeRatio = sharpe(equity)

	if lossPnL == 0 {
		m.ProfitFactor = 1
	} else {
		m.ProfitFactor = winPnL / math.Abs(lossPnL)
	}
	return m
}

// sharpe computes the annualized Sharpe ratio from per-bar equity returns.
// Zero volatility yields 0, not a division by zero.
func sharpe(equity []model.EquityPoint) float64 {
	if len(equity) < 2 {
		return 0
	}
	returns := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		prev := equity[i-1].Value
		if prev == 0 {
			continue
		}
		returns = append(returns, (equity[i].Value-prev)/prev)
	}
	if len(returns) == 0 {
		return 0
	}

	mean, _ := stats.Mean(returns)
	sd, _ := stats.StandardDeviation(returns)
	if sd == 0 {
		return 0
	}
	return mean / sd * math.Sqrt(tradingDaysPerYear)
}
