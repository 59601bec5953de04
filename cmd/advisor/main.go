// Command advisor is an interactive terminal front end for the
// financial-advisory agent. It reads one message per line, prints the
// turn's report, and prompts for confirmation when a turn suspends
// for approval.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/advisorhq/agentgraph/pkg/advisor"
	"github.com/advisorhq/agentgraph/pkg/graph/checkpoint"
	"github.com/advisorhq/agentgraph/pkg/model"
	"github.com/advisorhq/agentgraph/pkg/tool"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "advisor:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		userID  = flag.String("user", "local", "user identity for thread scoping")
		thread  = flag.String("thread", "", "thread id to continue (empty starts a new thread)")
		dbPath  = flag.String("db", "advisor.db", "sqlite checkpoint database path")
		verbose = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	// Missing .env is fine; real env vars still apply.
	_ = godotenv.Load()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := advisor.ConfigFromEnv()
	if err != nil {
		return err
	}

	store, err := checkpoint.NewSQLiteStore(*dbPath)
	if err != nil {
		return fmt.Errorf("open checkpoint store: %w", err)
	}
	defer store.Close()

	registry := tool.NewRegistry()
	if err := advisor.RegisterBuiltins(registry, demoMarketData{}, demoPerformance{}); err != nil {
		return fmt.Errorf("register tools: %w", err)
	}

	opts := []advisor.OrchestratorOption{
		advisor.WithCheckpointStore(store),
		advisor.WithToolSource(registry),
		advisor.WithPerformance(demoPerformance{}),
		advisor.WithLogger(logger),
	}
	if os.Getenv("OPENAI_API_KEY") != "" {
		client, err := model.NewOpenAI(model.WithDefaultModel(cfg.Model))
		if err != nil {
			return fmt.Errorf("init model client: %w", err)
		}
		opts = append(opts, advisor.WithModelClient(client))
	} else {
		fmt.Fprintln(os.Stderr, "warning: OPENAI_API_KEY not set; reasoning will degrade to apologies")
	}

	orch, err := advisor.NewOrchestrator(cfg, opts...)
	if err != nil {
		return err
	}

	ctx := context.Background()
	scanner := bufio.NewScanner(os.Stdin)
	threadID := *thread

	fmt.Println("advisor ready; type a message, or \"quit\" to exit")
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			return nil
		}

		res, err := orch.Run(ctx, *userID, advisor.RunInput{Message: line}, threadID)
		if err != nil {
			printCallerError(err)
			continue
		}
		threadID = res.ThreadID

		for res.Status == advisor.StatusSuspended {
			fmt.Printf("approval required: %s\n", res.InterruptReason)
			fmt.Print("confirm? [yes/no] ")
			if !scanner.Scan() {
				return scanner.Err()
			}
			answer := strings.TrimSpace(scanner.Text())
			if answer == "" {
				answer = "no"
			}
			res, err = orch.Resume(ctx, *userID, threadID, answer)
			if err != nil {
				printCallerError(err)
				break
			}
		}
		if res == nil {
			continue
		}

		switch res.Status {
		case advisor.StatusCompleted:
			fmt.Println(report(res))
		case advisor.StatusFailed:
			fmt.Printf("turn failed: %v\n", res.Err)
		}
	}
}

func report(res *advisor.RunResult) string {
	if res.State.FinalReport != "" {
		return res.State.FinalReport
	}
	if last, ok := res.State.LastMessage(); ok {
		return last.Text()
	}
	return "(no response)"
}

func printCallerError(err error) {
	switch {
	case errors.Is(err, advisor.ErrForbidden):
		fmt.Println("that thread belongs to a different user")
	case errors.Is(err, advisor.ErrThreadNotFound):
		fmt.Println("thread not found")
	case errors.Is(err, advisor.ErrThreadNotSuspended):
		fmt.Println("thread is not waiting for approval")
	default:
		fmt.Println("error:", err)
	}
}
