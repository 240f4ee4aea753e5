package mocks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockTickerTicksOnAdvance(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	clk := NewMockClock(start)
	ticker := clk.NewTicker(time.Minute)

	clk.Advance(30 * time.Second)
	assert.Empty(t, ticker.C())

	clk.Advance(30 * time.Second)
	require.Len(t, ticker.C(), 1)
	assert.Equal(t, start.Add(time.Minute), <-ticker.C())

	// Missed periods collapse into a single pending tick
	clk.Advance(5 * time.Minute)
	assert.Len(t, ticker.C(), 1)
	<-ticker.C()

	ticker.Stop()
	assert.Equal(t, 0, clk.Tickers())
	clk.Advance(time.Hour)
	assert.Empty(t, ticker.C())
}
