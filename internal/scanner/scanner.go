// Package scanner ranks trading opportunities across a symbol universe.
//
// For each symbol it pulls a bar series from a BarSource collaborator,
// computes the indicator set, and applies an additive heuristic score.
// Per-symbol failures are logged and skipped; one bad symbol never aborts
// the scan of the rest, so results can be partial.
package scanner

import (
	"context"
	"log"
	"sort"

	"github.com/montanaflynn/stats"

	"backtest-systemv1/internal/indicator"
	"backtest-systemv1/internal/metrics"
	"backtest-systemv1/internal/model"
)

// BarSource supplies historical bars for one symbol. Implementations live
// outside this core (SQLite store, broker API client).
type BarSource interface {
	Bars(ctx context.Context, symbol string) ([]model.PriceBar, error)
}

// Opportunity is one ranked scan hit. Confidence is bounded to [0,95] by
// construction of the score table.
type Opportunity struct {
	Symbol     string   `json:"symbol"`
	Price      float64  `json:"price"`
	RSI        float64  `json:"rsi"`
	Confidence float64  `json:"confidence"`
	Reasons    []string `json:"reasons"`
}

// Fixed score contributions. Mutually exclusive branches keep the maximum
// total at 95.
const (
	scoreTrendAligned   = 15 // short SMA above long SMA
	scoreAboveShortSMA  = 10 // close above the short SMA
	scoreRSIOversold    = 20 // RSI < 30
	scoreRSINeutralBull = 10 // RSI in [40,60] with trend up
	scoreMACDPositive   = 15 // MACD line above zero
	scoreNearSupport    = 15 // close at or below the 20th price percentile
	scoreBreakoutZone   = 10 // close at or above the 80th price percentile
	scoreVolumeAnomaly  = 10 // volume 1.5x above its rolling average
	scoreMomentumCont   = 10 // three consecutive rising closes
)

const (
	defaultTopN          = 10
	defaultMinConfidence = 65.0
	minBarsPerSymbol     = 60

	smaShortPeriod  = 10
	smaLongPeriod   = 30
	rsiPeriod       = 14
	avgVolumePeriod = 20
)

// Config holds the scan universe and result shaping parameters.
type Config struct {
	Universe      []string
	TopN          int
	MinConfidence float64
}

// Scanner runs sequential scans over a universe. Metrics are optional.
type Scanner struct {
	src BarSource
	cfg Config
	met *metrics.Metrics
}

// New creates a Scanner. Zero TopN/MinConfidence select defaults.
func New(src BarSource, cfg Config, met *metrics.Metrics) (*Scanner, error) {
	if len(cfg.Universe) == 0 {
		return nil, model.Errorf(model.ErrInvalidParameters, "empty scan universe")
	}
	if cfg.TopN <= 0 {
		cfg.TopN = defaultTopN
	}
	if cfg.MinConfidence <= 0 {
		cfg.MinConfidence = defaultMinConfidence
	}
	return &Scanner{src: src, cfg: cfg, met: met}, nil
}

// Scan evaluates every symbol in the universe and returns the opportunities
// above the confidence floor, sorted by descending confidence and capped to
// TopN. The error return is reserved for a cancelled context; data failures
// only shrink the result.
func (s *Scanner) Scan(ctx context.Context) ([]Opportunity, error) {
	if s.met != nil {
		s.met.ScansTotal.Inc()
	}

	found := make([]Opportunity, 0, len(s.cfg.Universe))
	for _, symbol := range s.cfg.Universe {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		bars, err := s.src.Bars(ctx, symbol)
		if err != nil {
			log.Printf("[scanner] %s: fetch failed, skipping: %v", symbol, err)
			if s.met != nil {
				s.met.ScanSymbolErrors.Inc()
			}
			continue
		}
		if len(bars) < minBarsPerSymbol {
			log.Printf("[scanner] %s: only %d bars (< %d), skipping", symbol, len(bars), minBarsPerSymbol)
			if s.met != nil {
				s.met.ScanSymbolErrors.Inc()
			}
			continue
		}

		opp := s.score(symbol, bars)
		if opp.Confidence > s.cfg.MinConfidence {
			found = append(found, opp)
		}
	}

	// Deterministic order: confidence descending, symbol as tie-break
	sort.Slice(found, func(i, j int) bool {
		if found[i].Confidence != found[j].Confidence {
			return found[i].Confidence > found[j].Confidence
		}
		return found[i].Symbol < found[j].Symbol
	})
	if len(found) > s.cfg.TopN {
		found = found[:s.cfg.TopN]
	}

	if s.met != nil {
		s.met.OpportunitiesFound.Add(float64(len(found)))
	}
	return found, nil
}

// score applies the additive heuristic to one symbol's series. Requires
// len(bars) >= minBarsPerSymbol, which covers every indicator warm-up below.
func (s *Scanner) score(symbol string, bars []model.PriceBar) Opportunity {
	closes := model.Closes(bars)
	volumes := model.Volumes(bars)
	last := len(bars) - 1

	smaShort := indicator.SMA(closes, smaShortPeriod)
	smaLong := indicator.SMA(closes, smaLongPeriod)
	rsi := indicator.RSI(closes, rsiPeriod)
	macd := indicator.MACD(closes, 12, 26, 9).MACD
	avgVol := indicator.SMA(volumes, avgVolumePeriod)

	curClose := closes[last]
	curShort := smaShort[len(smaShort)-1]
	curLong := smaLong[len(smaLong)-1]
	curRSI := rsi[len(rsi)-1]
	curMACD := macd[len(macd)-1]
	curAvgVol := avgVol[len(avgVol)-1]

	opp := Opportunity{Symbol: symbol, Price: curClose, RSI: curRSI}
	add := func(points float64, reason string) {
		opp.Confidence += points
		opp.Reasons = append(opp.Reasons, reason)
	}

	trendUp := curShort > curLong
	if trendUp {
		add(scoreTrendAligned, "trend aligned")
	}
	if curClose > curShort {
		add(scoreAboveShortSMA, "price above short SMA")
	}

	switch {
	case curRSI < 30:
		add(scoreRSIOversold, "rsi oversold")
	case curRSI >= 40 && curRSI <= 60 && trendUp:
		add(scoreRSINeutralBull, "rsi neutral in uptrend")
	}

	if curMACD > 0 {
		add(scoreMACDPositive, "macd positive")
	}

	p20, _ := stats.Percentile(closes, 20)
	p80, _ := stats.Percentile(closes, 80)
	switch {
	case curClose <= p20:
		add(scoreNearSupport, "near support")
	case curClose >= p80:
		add(scoreBreakoutZone, "breakout zone")
	}

	if bars[last].Volume > curAvgVol*1.5 {
		add(scoreVolumeAnomaly, "volume anomaly")
	}

	if closes[last] > closes[last-1] && closes[last-1] > closes[last-2] {
		add(scoreMomentumCont, "momentum continuity")
	}

	return opp
}
