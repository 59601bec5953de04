package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/advisorhq/agentgraph/pkg/graph"
	"github.com/advisorhq/agentgraph/pkg/model"
)

// ErrMissingData is returned by a PerformanceService when the user
// has no recorded history for the requested timeframe. It gets a
// distinct user-facing message from generic service failures.
var ErrMissingData = errors.New("performance data unavailable")

// PerformanceService computes portfolio performance attribution.
// It is an external collaborator; the node only shepherds its output.
type PerformanceService interface {
	Analyze(ctx context.Context, userID, timeframe string) (*PerformanceAnalysis, error)
}

// PerformanceAnalysis is the structured result attached to state by
// the attribution node.
type PerformanceAnalysis struct {
	Timeframe       string  `json:"timeframe"`
	TotalReturn     float64 `json:"total_return"`
	BenchmarkReturn float64 `json:"benchmark_return"`
	Alpha           float64 `json:"alpha"`
	StartValue      float64 `json:"start_value,omitempty"`
	EndValue        float64 `json:"end_value,omitempty"`
	Summary         string  `json:"summary,omitempty"`
}

// timeframePatterns maps message phrasings to canonical timeframes,
// checked in order so more specific phrasings win.
var timeframePatterns = []struct {
	keywords  []string
	timeframe string
}{
	{[]string{"ytd", "year to date", "year-to-date", "this year"}, "YTD"},
	{[]string{"all time", "all-time", "since inception", "inception"}, "ALL"},
	{[]string{"1 year", "one year", "12 months", "twelve months", "past year", "last year"}, "1Y"},
	{[]string{"6 months", "six months", "half year"}, "6M"},
	{[]string{"3 months", "three months", "quarter"}, "3M"},
	{[]string{"1 month", "one month", "30 days", "past month", "last month"}, "1M"},
	{[]string{"1 week", "one week", "7 days", "past week", "last week"}, "1W"},
}

// extractTimeframe matches the message against the timeframe
// vocabulary. Returns ok=false when no horizon is named.
func extractTimeframe(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, p := range timeframePatterns {
		for _, kw := range p.keywords {
			if strings.Contains(lower, kw) {
				return p.timeframe, true
			}
		}
	}
	return "", false
}

// PerformanceAttribution answers performance questions without the
// model: it extracts a timeframe, calls the performance collaborator,
// and terminates the turn with a formatted synthesis. With no
// timeframe in the message it asks the user to pick one instead of
// guessing.
func PerformanceAttribution(svc PerformanceService) graph.NodeFunc[State] {
	return func(ctx graph.Context, state State) graph.Outcome[State] {
		last, _ := state.LastMessage()
		timeframe, ok := extractTimeframe(last.Text())
		if !ok {
			return graph.Continue(state.Append(Message{
				Role: model.RoleAssistant,
				Content: "Which timeframe would you like me to analyze? " +
					"For example: YTD, 1 year, 6 months, 3 months, or all time.",
			}))
		}

		if svc == nil {
			state = state.AppendError("performance_attribution: no performance service configured")
			return graph.Continue(state.Append(Message{
				Role:    model.RoleAssistant,
				Content: apologyMessage,
			}))
		}

		analysis, err := svc.Analyze(ctx, state.UserID, timeframe)
		if err != nil {
			state = state.AppendError(fmt.Sprintf("performance_attribution: %v", err))
			content := apologyMessage
			if errors.Is(err, ErrMissingData) {
				content = fmt.Sprintf("I don't have enough performance history for the %s "+
					"timeframe yet. Once more portfolio activity is recorded I can run "+
					"this analysis for you.", timeframe)
			}
			ctx.Logger().Error("performance analysis failed",
				"timeframe", timeframe, "error", err)
			return graph.Continue(state.Append(Message{
				Role:    model.RoleAssistant,
				Content: content,
			}))
		}

		report := formatAnalysis(analysis)
		state.PerformanceAnalysis = analysis
		state.FinalReport = report
		state.NextAction = "end"
		return graph.Continue(state.Append(Message{
			Role:    model.RoleAssistant,
			Content: report,
		}))
	}
}

func formatAnalysis(a *PerformanceAnalysis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Over the %s timeframe your portfolio returned %.2f%%, versus %.2f%% for the benchmark, for an alpha of %+.2f%%.",
		timeframeLabel(a.Timeframe), a.TotalReturn, a.BenchmarkReturn, a.Alpha)
	if a.StartValue > 0 && a.EndValue > 0 {
		b.WriteString(usd.Sprintf(" The portfolio value moved from $%.2f to $%.2f.",
			a.StartValue, a.EndValue))
	}
	if a.Summary != "" {
		b.WriteString(" ")
		b.WriteString(a.Summary)
	}
	return b.String()
}

func timeframeLabel(tf string) string {
	switch tf {
	case "YTD":
		return "year-to-date"
	case "ALL":
		return "all-time"
	case "1Y":
		return "one-year"
	case "6M":
		return "six-month"
	case "3M":
		return "three-month"
	case "1M":
		return "one-month"
	case "1W":
		return "one-week"
	default:
		return tf
	}
}
