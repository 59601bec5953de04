package main

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/advisorhq/agentgraph/pkg/advisor"
)

// demoMarketData serves deterministic synthetic quotes so the CLI
// works without a market-data subscription.
type demoMarketData struct{}

func (demoMarketData) Quote(_ context.Context, ticker string) (*advisor.Quote, error) {
	ticker = strings.ToUpper(ticker)
	base := 40.0 + float64(seed(ticker)%200)
	change := math.Mod(float64(seed(ticker)), 7) - 3
	return &advisor.Quote{
		Ticker:    ticker,
		Price:     base,
		Change:    change,
		ChangePct: change / base * 100,
		AsOf:      time.Now().UTC(),
	}, nil
}

func (demoMarketData) News(_ context.Context, ticker string, limit int) ([]advisor.NewsItem, error) {
	headlines := []string{
		"Fed holds rates steady, signals patience on cuts",
		"Tech sector leads broad market rally",
		"Energy names slip as crude retreats",
		"Treasury yields edge lower ahead of jobs report",
		"Small caps outperform on rotation hopes",
	}
	if limit > len(headlines) {
		limit = len(headlines)
	}
	items := make([]advisor.NewsItem, 0, limit)
	for i := 0; i < limit; i++ {
		items = append(items, advisor.NewsItem{
			Ticker:      ticker,
			Headline:    headlines[i],
			Source:      "demo-wire",
			PublishedAt: time.Now().UTC().Add(-time.Duration(i) * time.Hour),
		})
	}
	return items, nil
}

func (demoMarketData) UpcomingEvents(_ context.Context, ticker string) ([]advisor.Event, error) {
	ticker = strings.ToUpper(ticker)
	return []advisor.Event{{
		Ticker: ticker,
		Kind:   "earnings",
		Date:   time.Now().UTC().AddDate(0, 0, int(seed(ticker)%21)+1),
		Note:   fmt.Sprintf("%s reports earnings soon; expect elevated volatility", ticker),
	}}, nil
}

// demoPerformance fabricates plausible attribution numbers keyed by
// user and timeframe.
type demoPerformance struct{}

func (demoPerformance) Analyze(_ context.Context, userID, timeframe string) (*advisor.PerformanceAnalysis, error) {
	s := seed(userID + timeframe)
	total := math.Mod(float64(s), 19) - 4
	bench := math.Mod(float64(s/7), 15) - 3
	return &advisor.PerformanceAnalysis{
		Timeframe:       timeframe,
		TotalReturn:     total,
		BenchmarkReturn: bench,
		Alpha:           total - bench,
		StartValue:      100000,
		EndValue:        100000 * (1 + total/100),
	}, nil
}

func seed(s string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}
