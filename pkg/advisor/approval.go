package advisor

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/advisorhq/agentgraph/pkg/graph"
)

// Phrases that always require approval: irreversible, portfolio-wide
// actions.
var highRiskPhrases = []string{
	"sell all",
	"sell everything",
	"liquidate",
	"close all positions",
	"exit all positions",
	"cash out everything",
}

var rebalancePhrases = []string{
	"rebalance",
	"rebalancing",
	"reallocate",
	"reallocation",
}

var (
	actionRe   = regexp.MustCompile(`(?i)\b(buy|sell|purchase)\b`)
	quantityRe = regexp.MustCompile(`(?i)\b(\d[\d,]*(?:\.\d+)?)\s*(?:shares?|units?)\b`)
	priceRe    = regexp.MustCompile(`(?i)(?:\bat\b|@)\s*\$?\s*(\d[\d,]*(?:\.\d+)?)`)
	tickerRe   = regexp.MustCompile(`\b[A-Z]{1,5}\b`)
)

// tickerStopWords filters the all-caps words the ticker scan would
// otherwise misread. The scan runs over the whole message, so short
// uppercase words are a known hazard of the heuristic; gating itself
// depends only on quantity and price.
var tickerStopWords = map[string]bool{
	"A": true, "I": true, "AT": true, "OF": true, "TO": true,
	"BUY": true, "SELL": true, "USD": true, "ETF": true, "OK": true,
}

// Transaction is a buy/sell order parsed out of free text.
type Transaction struct {
	Action   string
	Ticker   string
	Quantity float64
	Price    float64
}

// Notional returns quantity times unit price.
func (t Transaction) Notional() float64 {
	return t.Quantity * t.Price
}

// ParseTransaction extracts an order from free text. The ticker is a
// best-effort guess and may be empty; callers must not rely on its
// accuracy, only on quantity and price.
func ParseTransaction(text string) (Transaction, bool) {
	action := actionRe.FindString(text)
	if action == "" {
		return Transaction{}, false
	}
	qm := quantityRe.FindStringSubmatch(text)
	pm := priceRe.FindStringSubmatch(text)
	if qm == nil || pm == nil {
		return Transaction{}, false
	}
	qty, err := parseAmount(qm[1])
	if err != nil {
		return Transaction{}, false
	}
	price, err := parseAmount(pm[1])
	if err != nil {
		return Transaction{}, false
	}

	tx := Transaction{
		Action:   strings.ToLower(action),
		Quantity: qty,
		Price:    price,
	}
	for _, candidate := range tickerRe.FindAllString(text, -1) {
		if !tickerStopWords[candidate] {
			tx.Ticker = candidate
			break
		}
	}
	return tx, true
}

func parseAmount(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
}

var usd = message.NewPrinter(language.English)

// classifyApproval decides whether the message needs human approval.
// Categories are checked in order: high-risk phrasing always matches,
// rebalancing matches when configured to, and a parsed transaction
// matches when its notional meets the threshold. Returns the
// human-readable reason for the first match.
func classifyApproval(cfg Config, text string) (string, bool) {
	lower := strings.ToLower(text)

	for _, phrase := range highRiskPhrases {
		if strings.Contains(lower, phrase) {
			return "high-risk action requires approval: " + phrase, true
		}
	}

	if cfg.RebalancingRequiresApproval {
		for _, phrase := range rebalancePhrases {
			if strings.Contains(lower, phrase) {
				return "portfolio rebalancing requires approval", true
			}
		}
	}

	if tx, ok := ParseTransaction(text); ok && tx.Notional() >= cfg.ApprovalThreshold {
		ticker := tx.Ticker
		if ticker == "" {
			ticker = "unspecified security"
		}
		return usd.Sprintf("%s %v shares of %s at $%.2f requires approval (notional $%.2f)",
			tx.Action, tx.Quantity, ticker, tx.Price, tx.Notional()), true
	}

	return "", false
}

// ApprovalGate suspends the turn for human confirmation when the last
// message matches an approval category. When it does not match, the
// turn passes through and ends; this is also how a resumed turn
// completes, since the injected confirmation no longer classifies as
// an approvable action.
func ApprovalGate(cfg Config) graph.NodeFunc[State] {
	return func(ctx graph.Context, state State) graph.Outcome[State] {
		last, ok := state.LastMessage()
		if !ok {
			return graph.Continue(state)
		}
		reason, matched := classifyApproval(cfg, last.Text())
		if !matched {
			state.NextAction = "end"
			return graph.Continue(state)
		}
		ctx.Logger().Info("suspending for approval", "reason", reason)
		return graph.Suspend(state, reason)
	}
}
