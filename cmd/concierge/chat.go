package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"concierge/internal/assistant"
	"concierge/internal/config"
	"concierge/internal/embedding"
	"concierge/internal/graph"
	"concierge/internal/llm"
	"concierge/internal/logging"
	"concierge/internal/retrieval"
	"concierge/internal/session"
	"concierge/internal/tools"
	"concierge/internal/travel"
	"concierge/internal/types"
)

// approvalPrompt is shown whenever a booking mutation awaits the
// user's decision.
const approvalPrompt = "Do you approve of the above actions? Type 'y' to continue; otherwise, explain your requested changes.\n\n"

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))
	replyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	approvalStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	faintStyle    = lipgloss.NewStyle().Faint(true)
)

// runChat wires the full stack and drives the interactive session.
func runChat(ctx context.Context) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	store, err := travel.Open(cfg.Database.TravelPath)
	if err != nil {
		return err
	}
	defer store.Close()

	checkpoints, err := graph.OpenCheckpoints(cfg.Database.CheckpointPath)
	if err != nil {
		return err
	}
	defer checkpoints.Close()

	index, err := buildPolicyIndex(ctx, cfg)
	if err != nil {
		return err
	}

	registry := tools.NewRegistry()
	if err := travel.RegisterAll(registry, store, index); err != nil {
		return err
	}

	client := llm.NewGeminiClient(llm.GeminiConfig{
		APIKey:          cfg.LLM.APIKey,
		BaseURL:         cfg.LLM.BaseURL,
		Model:           cfg.LLM.Model,
		Timeout:         cfg.GetLLMTimeout(),
		MaxOutputTokens: cfg.LLM.MaxOutputTokens,
		Temperature:     cfg.LLM.Temperature,
	})

	engine := graph.New(graph.Config{
		Client:           client,
		Registry:         registry,
		Checkpoints:      checkpoints,
		AssistantOptions: assistantOptions(cfg),
	})

	state, thread, pending, err := restoreOrStart(ctx, checkpoints, store)
	if err != nil {
		return err
	}
	ctx = session.WithConfig(ctx, session.Config{
		PassengerID: cfg.Session.PassengerID,
		ThreadID:    thread,
	})

	fmt.Println(titleStyle.Render("Welcome to the Travel Assistant! Type 'exit' to quit."))
	fmt.Println(faintStyle.Render("thread " + thread))
	logging.Session("Session started: thread=%s passenger=%s", thread, cfg.Session.PassengerID)
	logger.Info("session started",
		zap.String("thread", thread),
		zap.String("passenger", cfg.Session.PassengerID),
		zap.Int("policy_sections", index.Len()))

	reader := bufio.NewReader(os.Stdin)

	// A resumed thread may still be waiting at an approval gate.
	if pending != nil {
		result, err := resolveApproval(ctx, engine, reader, state, pending)
		if err != nil {
			return err
		}
		state = result.State
		printReply(result)
	}

	for {
		fmt.Print("Ask your travel question: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println("Goodbye!")
			return nil
		}
		question := strings.TrimSpace(line)
		if question == "" {
			continue
		}
		if q := strings.ToLower(question); q == "exit" || q == "quit" {
			fmt.Println("Goodbye!")
			return nil
		}

		result, err := engine.Turn(ctx, state, question)
		if err != nil {
			fmt.Println(faintStyle.Render("Something went wrong: " + err.Error()))
			logging.Session("Turn failed: %v", err)
			logger.Warn("turn failed", zap.String("thread", thread), zap.Error(err))
			continue
		}
		for result.Interrupted {
			result, err = resolveApproval(ctx, engine, reader, result.State, result.Pending)
			if err != nil {
				return err
			}
		}
		state = result.State
		printReply(result)
	}
}

// resolveApproval surfaces a pending sensitive call and resumes the
// turn with the user's decision. Only a failed read approves by
// default, so unattended runs are never wedged; a blank line from an
// interactive user is a denial like any other non-"y" input.
func resolveApproval(ctx context.Context, engine *graph.Engine, reader *bufio.Reader, state types.State, pending *graph.Pending) (*graph.TurnResult, error) {
	args, _ := json.Marshal(pending.Call.Args)
	fmt.Println(approvalStyle.Render(fmt.Sprintf("Pending action: %s(%s)", pending.Call.Name, args)))
	fmt.Print(approvalStyle.Render(approvalPrompt))

	line, readErr := reader.ReadString('\n')
	approve, reason := approvalDecision(line, readErr)
	if approve {
		if readErr != nil {
			logger.Warn("approval input unavailable, proceeding",
				zap.String("tool", pending.Call.Name), zap.Error(readErr))
		} else {
			logger.Info("action approved", zap.String("tool", pending.Call.Name))
		}
		return engine.Approve(ctx, state, pending)
	}
	logger.Info("action denied", zap.String("tool", pending.Call.Name))
	return engine.Deny(ctx, state, pending, reason)
}

// approvalDecision interprets one line of approval input. A failed
// read approves so unattended runs are never wedged; any successfully
// read line other than "y", including a blank one, is a denial whose
// text becomes the denial reason.
func approvalDecision(line string, readErr error) (approve bool, reason string) {
	if readErr != nil {
		return true, ""
	}
	input := strings.TrimSpace(line)
	if strings.EqualFold(input, "y") {
		return true, ""
	}
	return false, input
}

func printReply(result *graph.TurnResult) {
	if reply := result.LastReply(); reply != "" {
		fmt.Println(replyStyle.Render(reply))
	}
}

// restoreOrStart loads the requested thread's checkpoint, or begins a
// fresh conversation preloaded with the passenger's ticket summary.
func restoreOrStart(ctx context.Context, checkpoints *graph.CheckpointStore, store *travel.Store) (types.State, string, *graph.Pending, error) {
	if threadID != "" {
		cp, err := checkpoints.Load(ctx, threadID)
		if err != nil && !errors.Is(err, graph.ErrNoCheckpoint) {
			return types.State{}, "", nil, err
		}
		if err == nil {
			logging.Session("Resumed thread %s (%d messages)", threadID, len(cp.State.Messages))
			return cp.State, threadID, cp.Pending, nil
		}
	}

	thread := threadID
	if thread == "" {
		thread = uuid.NewString()
	}
	userInfo, err := store.FetchUserFlightInfo(ctx, cfg.Session.PassengerID)
	if err != nil {
		return types.State{}, "", nil, fmt.Errorf("failed to load passenger info: %w", err)
	}
	return types.State{UserInfo: userInfo}, thread, nil, nil
}

// buildPolicyIndex fetches the policy manual and embeds it once at
// startup.
func buildPolicyIndex(ctx context.Context, cfg *config.Config) (*retrieval.Index, error) {
	engine, err := embedding.NewEngine(cfg.Embedding)
	if err != nil {
		return nil, err
	}
	corpus, err := retrieval.LoadCorpus(ctx, cfg.Retrieval.CorpusSource)
	if err != nil {
		return nil, fmt.Errorf("failed to load policy corpus: %w", err)
	}
	return retrieval.Build(ctx, retrieval.SplitSections(corpus), engine)
}

func assistantOptions(cfg *config.Config) []assistant.Option {
	return []assistant.Option{
		assistant.WithContextWindow(cfg.Session.ContextWindow),
		assistant.WithMaxRetries(cfg.Session.MaxRetries),
		assistant.WithBackoff(cfg.GetBackoff()),
	}
}
