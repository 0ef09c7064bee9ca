package model

import "time"

// Position is an open long holding inside one simulation run.
// At most one open Position exists per run at any time.
type Position struct {
	EntryDate  time.Time `json:"entry_date"`
	EntryPrice float64   `json:"entry_price"`
	Quantity   float64   `json:"quantity"`
	Open       bool      `json:"open"`
}

// ExitReason records which trigger closed a trade.
type ExitReason string

const (
	ExitStopLoss   ExitReason = "stop_loss"
	ExitTakeProfit ExitReason = "take_profit"
	ExitRule       ExitReason = "rule_exit"
	ExitEndOfData  ExitReason = "end_of_data"
)

// Trade is a closed Position with realized P&L.
type Trade struct {
	EntryDate  time.Time  `json:"entry_date"`
	EntryPrice float64    `json:"entry_price"`
	ExitDate   time.Time  `json:"exit_date"`
	ExitPrice  float64    `json:"exit_price"`
	Quantity   float64    `json:"quantity"`
	PnL        float64    `json:"pnl"`
	PnLPercent float64    `json:"pnl_percent"`
	Reason     ExitReason `json:"reason"`
}

// EquityPoint is one sample of the portfolio value curve.
// Recorded once per bar regardless of position state.
type EquityPoint struct {
	Date            time.Time `json:"date"`
	Value           float64   `json:"value"`
	DrawdownPercent float64   `json:"drawdown_percent"`
}

// Metrics summarizes a completed backtest run.
type Metrics struct {
	TotalTrades    int     `json:"total_trades"`
	WinningTrades  int     `json:"winning_trades"`
	LosingTrades   int     `json:"losing_trades"`
	WinRate        float64 `json:"win_rate"`
	TotalReturnPct float64 `json:"total_return_pct"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
	SharpeRatio    float64 `json:"sharpe_ratio"`
	ProfitFactor   float64 `json:"profit_factor"`
	FinalCapital   float64 `json:"final_capital"`
}

// BacktestResult is the immutable output of one simulation run.
type BacktestResult struct {
	StrategyID      string        `json:"strategy_id"`
	StrategyVersion int           `json:"strategy_version"`
	Symbol          string        `json:"symbol"`
	InitialCapital  float64       `json:"initial_capital"`
	Trades          []Trade       `json:"trades"`
	Equity          []EquityPoint `json:"equity"`
	Metrics         Metrics       `json:"metrics"`
}
