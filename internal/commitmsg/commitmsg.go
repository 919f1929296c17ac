// Package commitmsg runs the full pipeline: select changes, ask the model,
// clean the reply.
package commitmsg

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/rasalas/gitmsg/internal/ai"
	"github.com/rasalas/gitmsg/internal/changes"
	"github.com/rasalas/gitmsg/internal/clean"
	"github.com/rasalas/gitmsg/internal/git"
)

var (
	// ErrCancelled is returned when the caller's context ends the run.
	ErrCancelled = errors.New("generation cancelled")
	// ErrEmptyResult means the model replied with nothing usable.
	ErrEmptyResult = errors.New("model returned an empty commit message")
)

// Result is a successful generation.
type Result struct {
	Message  string
	Raw      string
	Source   changes.Source
	Strategy changes.Strategy
}

// Generator holds everything one generation needs. Request is a template:
// its Prompt is replaced on every call.
type Generator struct {
	Changes git.Provider
	Client  *ai.Client
	Request ai.Request
	Logger  zerolog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the pipeline logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(g *Generator) {
		g.Logger = logger
	}
}

// New returns a Generator. A nil client gets a default one.
func New(provider git.Provider, client *ai.Client, req ai.Request, opts ...Option) *Generator {
	g := &Generator{
		Changes: provider,
		Client:  client,
		Request: req,
		Logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.Client == nil {
		g.Client = ai.NewClient(ai.WithLogger(g.Logger))
	}
	return g
}

// Generate produces a cleaned commit message for the pending changes.
// focused, when set, picks the repository containing that file first.
// onProgress receives streaming partial text and may be nil.
func (g *Generator) Generate(ctx context.Context, focused string, onProgress func(string)) (Result, error) {
	if ctx.Err() != nil {
		return Result{}, ErrCancelled
	}

	sel, err := changes.Select(ctx, g.Changes, focused, g.Logger)
	if err != nil {
		if isCancel(ctx, err) {
			return Result{}, ErrCancelled
		}
		return Result{}, err
	}

	req := g.Request
	req.Prompt = ai.BuildPrompt(sel.Diff)

	raw, err := g.Client.Complete(ctx, req, onProgress)
	if err != nil {
		if isCancel(ctx, err) {
			return Result{}, ErrCancelled
		}
		return Result{}, err
	}

	msg := clean.Message(raw)
	if msg == "" {
		g.Logger.Debug().Str("raw", raw).Msg("cleaned message is empty")
		return Result{}, ErrEmptyResult
	}

	g.Logger.Debug().
		Str("root", sel.Source.Root).
		Stringer("strategy", sel.Strategy).
		Str("message", msg).
		Msg("generated commit message")

	return Result{
		Message:  msg,
		Raw:      raw,
		Source:   sel.Source,
		Strategy: sel.Strategy,
	}, nil
}

func isCancel(ctx context.Context, err error) bool {
	return errors.Is(err, context.Canceled) || (ctx.Err() != nil && errors.Is(err, ctx.Err()))
}
