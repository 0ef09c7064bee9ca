package backtest

import (
	"testing"
	"time"

	"backtest-systemv1/internal/model"
)

func equityCurve(values ...float64) []model.EquityPoint {
	out := make([]model.EquityPoint, len(values))
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	peak := 0.0
	for i, v := range values {
		if v > peak {
			peak = v
		}
		dd := 0.0
		if peak > 0 {
			dd = (peak - v) / peak * 100
		}
		out[i] = model.EquityPoint{Date: day.AddDate(0, 0, i), Value: v, DrawdownPercent: dd}
	}
	return out
}

func trade(pnl float64) model.Trade {
	return model.Trade{PnL: pnl, Quantity: 1}
}

func TestAnalyze_WinRate(t *testing.T) {
	trades := []model.Trade{trade(100), trade(-50), trade(200), trade(-25)}
	m := Analyze(trades, nil, 10000, 10225)

	if m.WinRate != 0.5 {
		t.Errorf("win rate = %.4f, want 0.5", m.WinRate)
	}
	if m.WinningTrades != 2 || m.LosingTrades != 2 {
		t.Errorf("win/loss split = %d/%d, want 2/2", m.WinningTrades, m.LosingTrades)
	}
}

func TestAnalyze_NoTrades(t *testing.T) {
	m := Analyze(nil, equityCurve(10000, 10000), 10000, 10000)
	if m.WinRate != 0 {
		t.Errorf("win rate with no trades = %.4f, want 0", m.WinRate)
	}
	if m.ProfitFactor != 1 {
		t.Errorf("profit factor with no trades = %v, want 1 (documented default)", m.ProfitFactor)
	}
	if m.TotalReturnPct != 0 {
		t.Errorf("total return = %.4f, want 0", m.TotalReturnPct)
	}
}

func TestAnalyze_ProfitFactor(t *testing.T) {
	trades := []model.Trade{trade(300), trade(-100), trade(-50)}
	m := Analyze(trades, nil, 10000, 10150)
	if m.ProfitFactor != 2 {
		t.Errorf("profit factor = %.4f, want 2", m.ProfitFactor)
	}
}

func TestAnalyze_TotalReturn(t *testing.T) {
	m := Analyze(nil, nil, 10000, 12500)
	if m.TotalReturnPct != 25 {
		t.Errorf("total return = %.4f%%, want 25", m.TotalReturnPct)
	}
}

func TestAnalyze_MaxDrawdown_NonDecreasingCurveIsZero(t *testing.T) {
	m := Analyze(nil, equityCurve(100, 100, 110, 120, 120, 130), 100, 130)
	if m.MaxDrawdownPct != 0 {
		t.Errorf("max drawdown = %.4f, want 0 on non-decreasing curve", m.MaxDrawdownPct)
	}
}

func TestAnalyze_MaxDrawdown(t *testing.T) {
	// Peak 200 then trough 150: drawdown 25%
	m := Analyze(nil, equityCurve(100, 200, 150, 180), 100, 180)
	if m.MaxDrawdownPct != 25 {
		t.Errorf("max drawdown = %.4f, want 25", m.MaxDrawdownPct)
	}
}

func TestSharpe_ZeroVolatility(t *testing.T) {
	if got := sharpe(equityCurve(100, 100, 100, 100)); got != 0 {
		t.Errorf("sharpe on flat curve = %.6f, want 0 (guarded)", got)
	}
}

func TestSharpe_PositiveForSteadyGrowth(t *testing.T) {
	// Non-constant positive returns — mean > 0, stddev > 0
	if got := sharpe(equityCurve(100, 102, 103, 106, 108, 112)); got <= 0 {
		t.Errorf("sharpe = %.6f, want > 0 for growth curve", got)
	}
}
