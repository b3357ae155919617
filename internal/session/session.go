// Package session carries per-conversation identity through the call
// tree. The passenger ID and thread ID are set once when a session
// starts and read by the travel tools and the checkpoint store.
package session

import (
	"context"
	"errors"

	"concierge/internal/llm"
)

// Config identifies one conversation.
type Config struct {
	// PassengerID is the signed-in passenger, e.g. "3442 587242".
	// Required by every flight tool.
	PassengerID string

	// ThreadID keys the conversation's checkpoints. A fresh UUID per
	// conversation, or a previous thread's ID to resume it.
	ThreadID string
}

type configKey struct{}

// WithConfig returns a context carrying the session config.
func WithConfig(ctx context.Context, cfg Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext extracts the session config, if present.
func FromContext(ctx context.Context) (Config, bool) {
	cfg, ok := ctx.Value(configKey{}).(Config)
	return cfg, ok
}

// RequirePassengerID returns the signed-in passenger ID or a fatal
// error when no session identity is configured. The error is fatal
// because retrying cannot supply an identity.
func RequirePassengerID(ctx context.Context) (string, error) {
	cfg, ok := FromContext(ctx)
	if !ok || cfg.PassengerID == "" {
		return "", llm.MarkFatal(errors.New("no passenger ID configured"))
	}
	return cfg.PassengerID, nil
}

// RequireIdentity verifies both the passenger ID and the thread ID are
// configured. State-mutating tools must not run without a full session
// identity, and without a thread ID the mutation could not be
// checkpointed or audited.
func RequireIdentity(ctx context.Context) error {
	cfg, ok := FromContext(ctx)
	if !ok || cfg.PassengerID == "" {
		return llm.MarkFatal(errors.New("no passenger ID configured"))
	}
	if cfg.ThreadID == "" {
		return llm.MarkFatal(errors.New("no thread ID configured"))
	}
	return nil
}
