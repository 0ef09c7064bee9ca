package scanner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backtest-systemv1/internal/model"
)

// fakeSource serves canned bar series per symbol and fails on demand.
type fakeSource struct {
	series map[string][]model.PriceBar
	fail   map[string]error
}

func (f *fakeSource) Bars(_ context.Context, symbol string) ([]model.PriceBar, error) {
	if err, ok := f.fail[symbol]; ok {
		return nil, err
	}
	return f.series[symbol], nil
}

func risingBars(n int, lastVolume float64) []model.PriceBar {
	out := make([]model.PriceBar, n)
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := range out {
		c := 100 + float64(i)
		vol := 1000.0
		if i == n-1 {
			vol = lastVolume
		}
		out[i] = model.PriceBar{
			Symbol: "X",
			Date:   day.AddDate(0, 0, i),
			Open:   c, High: c + 0.5, Low: c - 0.5, Close: c,
			Volume: vol,
		}
	}
	return out
}

func fallingBars(n int) []model.PriceBar {
	out := make([]model.PriceBar, n)
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := range out {
		c := 200 - float64(i)
		out[i] = model.PriceBar{
			Symbol: "X",
			Date:   day.AddDate(0, 0, i),
			Open:   c, High: c + 0.5, Low: c - 0.5, Close: c,
			Volume: 1000,
		}
	}
	return out
}

func TestNew_EmptyUniverse(t *testing.T) {
	_, err := New(&fakeSource{}, Config{}, nil)
	assert.ErrorIs(t, err, model.ErrInvalidParameters)
}

func TestScan_RanksRisingSymbolAboveFloor(t *testing.T) {
	// Uptrend, positive MACD, breakout zone, momentum continuity, plus a
	// 2x volume spike: 15+10+15+10+10+10 = 70 > the default floor of 65.
	src := &fakeSource{series: map[string][]model.PriceBar{
		"RISE": risingBars(80, 2000),
		"FALL": fallingBars(80),
	}}
	s, err := New(src, Config{Universe: []string{"RISE", "FALL"}}, nil)
	require.NoError(t, err)

	found, err := s.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, found, 1)

	opp := found[0]
	assert.Equal(t, "RISE", opp.Symbol)
	assert.Equal(t, 70.0, opp.Confidence)
	assert.Contains(t, opp.Reasons, "trend aligned")
	assert.Contains(t, opp.Reasons, "volume anomaly")
	assert.LessOrEqual(t, opp.Confidence, 95.0)
}

func TestScan_SkipsFailingSymbol(t *testing.T) {
	src := &fakeSource{
		series: map[string][]model.PriceBar{"RISE": risingBars(80, 2000)},
		fail:   map[string]error{"BAD": errors.New("api timeout")},
	}
	s, err := New(src, Config{Universe: []string{"BAD", "RISE"}}, nil)
	require.NoError(t, err)

	found, err := s.Scan(context.Background())
	require.NoError(t, err, "one failing symbol must not abort the scan")
	require.Len(t, found, 1)
	assert.Equal(t, "RISE", found[0].Symbol)
}

func TestScan_SkipsShortHistory(t *testing.T) {
	src := &fakeSource{series: map[string][]model.PriceBar{
		"THIN": risingBars(30, 2000),
	}}
	s, err := New(src, Config{Universe: []string{"THIN"}}, nil)
	require.NoError(t, err)

	found, err := s.Scan(context.Background())
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestScan_SortsAndCaps(t *testing.T) {
	// LOW lacks the volume spike, so it scores 10 points under HIGH.
	src := &fakeSource{series: map[string][]model.PriceBar{
		"HIGH": risingBars(80, 2000),
		"LOW":  risingBars(80, 1000),
	}}

	s, err := New(src, Config{Universe: []string{"LOW", "HIGH"}, MinConfidence: 10}, nil)
	require.NoError(t, err)
	found, err := s.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "HIGH", found[0].Symbol)
	assert.Greater(t, found[0].Confidence, found[1].Confidence)

	capped, err := New(src, Config{Universe: []string{"LOW", "HIGH"}, MinConfidence: 10, TopN: 1}, nil)
	require.NoError(t, err)
	found, err = capped.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "HIGH", found[0].Symbol)
}

func TestScan_CancelledContext(t *testing.T) {
	src := &fakeSource{series: map[string][]model.PriceBar{
		"RISE": risingBars(80, 2000),
	}}
	s, err := New(src, Config{Universe: []string{"RISE"}}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Scan(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
