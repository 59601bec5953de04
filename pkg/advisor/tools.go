package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/advisorhq/agentgraph/pkg/tool"
)

// MarketData is the external market-data collaborator backing the
// built-in tools.
type MarketData interface {
	Quote(ctx context.Context, ticker string) (*Quote, error)
	News(ctx context.Context, ticker string, limit int) ([]NewsItem, error)
	UpcomingEvents(ctx context.Context, ticker string) ([]Event, error)
}

// Quote is a point-in-time price for a security.
type Quote struct {
	Ticker    string    `json:"ticker"`
	Price     float64   `json:"price"`
	Change    float64   `json:"change"`
	ChangePct float64   `json:"change_pct"`
	AsOf      time.Time `json:"as_of"`
}

// NewsItem is one market news headline.
type NewsItem struct {
	Ticker      string    `json:"ticker,omitempty"`
	Headline    string    `json:"headline"`
	Source      string    `json:"source,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// Event is an upcoming corporate event relevant to a holding.
type Event struct {
	Ticker string    `json:"ticker"`
	Kind   string    `json:"kind"` // earnings, dividend, split
	Date   time.Time `json:"date"`
	Note   string    `json:"note,omitempty"`
}

type tickerArgs struct {
	Ticker string `json:"ticker"`
}

type newsArgs struct {
	Ticker string `json:"ticker,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

type portfolioArgs struct {
	Focus string `json:"focus,omitempty"`
}

var tickerSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"ticker": {"type": "string", "description": "Stock ticker symbol, e.g. AAPL"}
	},
	"required": ["ticker"]
}`)

var newsSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"ticker": {"type": "string", "description": "Optional ticker to filter news by"},
		"limit": {"type": "integer", "description": "Maximum number of headlines, default 5"}
	}
}`)

var portfolioSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"focus": {"type": "string", "description": "Optional aspect to focus on: allocation, risk, or income"}
	}
}`)

// RegisterBuiltins registers the advisory tool set against the given
// collaborators. The performance service backs analyze_portfolio and
// may be nil, in which case that tool reports the missing capability
// as a normal tool error.
func RegisterBuiltins(reg *tool.Registry, md MarketData, perf PerformanceService) error {
	builtins := []tool.Tool{
		tool.NewFunc("get_stock_price",
			"Get the current price and daily change for a stock ticker.",
			tickerSchema,
			func(ctx context.Context, args json.RawMessage) (any, error) {
				var in tickerArgs
				if err := json.Unmarshal(args, &in); err != nil {
					return nil, fmt.Errorf("invalid arguments: %w", err)
				}
				if in.Ticker == "" {
					return nil, fmt.Errorf("ticker is required")
				}
				return md.Quote(ctx, in.Ticker)
			}),

		tool.NewFunc("get_market_news",
			"Get recent market news headlines, optionally filtered by ticker.",
			newsSchema,
			func(ctx context.Context, args json.RawMessage) (any, error) {
				var in newsArgs
				if err := json.Unmarshal(args, &in); err != nil {
					return nil, fmt.Errorf("invalid arguments: %w", err)
				}
				if in.Limit <= 0 {
					in.Limit = 5
				}
				return md.News(ctx, in.Ticker, in.Limit)
			}),

		tool.NewFunc(eventsToolName,
			"Get upcoming corporate events (earnings, dividends) for a ticker.",
			tickerSchema,
			func(ctx context.Context, args json.RawMessage) (any, error) {
				var in tickerArgs
				if err := json.Unmarshal(args, &in); err != nil {
					return nil, fmt.Errorf("invalid arguments: %w", err)
				}
				if in.Ticker == "" {
					return nil, fmt.Errorf("ticker is required")
				}
				return md.UpcomingEvents(ctx, in.Ticker)
			}),

		tool.NewFunc("analyze_portfolio",
			"Run a year-to-date performance analysis of the user's portfolio.",
			portfolioSchema,
			func(ctx context.Context, args json.RawMessage) (any, error) {
				if perf == nil {
					return nil, fmt.Errorf("portfolio analysis is not available")
				}
				var in portfolioArgs
				if err := json.Unmarshal(args, &in); err != nil {
					return nil, fmt.Errorf("invalid arguments: %w", err)
				}
				userID := userIDFrom(ctx)
				if userID == "" {
					return nil, fmt.Errorf("no user in scope")
				}
				return perf.Analyze(ctx, userID, "YTD")
			}),
	}

	for _, t := range builtins {
		if err := reg.Register(t); err != nil {
			return err
		}
	}
	return nil
}

type userIDKey struct{}

// WithUserID stores the authenticated user on the context so tools
// that operate on the caller's own data can scope themselves.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

func userIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey{}).(string)
	return id
}
