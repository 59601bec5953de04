package advisor

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config captures every toggle the graph topology and node behavior
// depend on. It is read once per graph build and passed explicitly,
// so the same process can build differently-configured graphs side
// by side.
type Config struct {
	// ApprovalGateEnabled wires the approval gate into the graph.
	ApprovalGateEnabled bool `envconfig:"APPROVAL_GATE_ENABLED" yaml:"approval_gate_enabled" default:"true"`

	// HITLTestEnabled wires the test-only human-in-the-loop node.
	HITLTestEnabled bool `envconfig:"HITL_TEST_ENABLED" yaml:"hitl_test_enabled" default:"false"`

	// MaxIterations caps the guardrail iteration counter per turn.
	MaxIterations int `envconfig:"MAX_ITERATIONS" yaml:"max_iterations" default:"10"`

	// MaxToolResults caps the number of tool-result messages a turn
	// may accumulate before the guardrail trips.
	MaxToolResults int `envconfig:"MAX_TOOL_RESULTS" yaml:"max_tool_results" default:"15"`

	// MaxSteps is the engine's last-resort step cap. It must stay
	// strictly larger than MaxIterations so that the guardrail, with
	// its better error message, always fires first.
	MaxSteps int `envconfig:"MAX_STEPS" yaml:"max_steps" default:"50"`

	// ApprovalThreshold is the transaction notional at or above which
	// a buy/sell requires human approval.
	ApprovalThreshold float64 `envconfig:"APPROVAL_THRESHOLD" yaml:"approval_threshold" default:"10000"`

	// RebalancingRequiresApproval gates rebalancing requests behind
	// the approval flow.
	RebalancingRequiresApproval bool `envconfig:"REBALANCING_REQUIRES_APPROVAL" yaml:"rebalancing_requires_approval" default:"true"`

	// TokenBudget bounds the reasoning context window.
	TokenBudget int `envconfig:"TOKEN_BUDGET" yaml:"token_budget" default:"20000"`

	// Model names the completion model used by the reasoning node.
	Model string `envconfig:"MODEL" yaml:"model" default:"gpt-4o"`
}

// DefaultConfig returns the configuration with all defaults applied.
func DefaultConfig() Config {
	return Config{
		ApprovalGateEnabled:         true,
		MaxIterations:               10,
		MaxToolResults:              15,
		MaxSteps:                    50,
		ApprovalThreshold:           10000,
		RebalancingRequiresApproval: true,
		TokenBudget:                 20000,
		Model:                       "gpt-4o",
	}
}

// ConfigFromEnv loads configuration from ADVISOR_-prefixed
// environment variables, falling back to defaults.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := envconfig.Process("advisor", &cfg); err != nil {
		return Config{}, fmt.Errorf("load config from env: %w", err)
	}
	return cfg.validate()
}

// ConfigFromFile loads configuration from a YAML file. Fields absent
// from the file keep their defaults.
func ConfigFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}
	return cfg.validate()
}

func (c Config) validate() (Config, error) {
	if c.MaxIterations <= 0 {
		return Config{}, fmt.Errorf("max_iterations must be positive, got %d", c.MaxIterations)
	}
	if c.MaxToolResults <= 0 {
		return Config{}, fmt.Errorf("max_tool_results must be positive, got %d", c.MaxToolResults)
	}
	if c.MaxSteps <= c.MaxIterations {
		return Config{}, fmt.Errorf("max_steps (%d) must exceed max_iterations (%d)", c.MaxSteps, c.MaxIterations)
	}
	if c.ApprovalThreshold < 0 {
		return Config{}, fmt.Errorf("approval_threshold must not be negative, got %v", c.ApprovalThreshold)
	}
	if c.TokenBudget <= 0 {
		return Config{}, fmt.Errorf("token_budget must be positive, got %d", c.TokenBudget)
	}
	return c, nil
}
