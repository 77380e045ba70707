package ai

import (
	"context"
	"errors"
	"fmt"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Generator sends a single prompt to one model of a remote text generation service.
type Generator interface {
	Provider() string
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// ModelLister is implemented by generators able to discover their models at runtime.
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// FailureKind tells the caller whether trying another model may help.
type FailureKind int

const (
	// Transient failures (quota, unknown model, server errors, timeouts) are
	// worth retrying with another model.
	Transient FailureKind = iota
	// Permanent failures (bad credential, forbidden) fail every model alike.
	Permanent
)

func (k FailureKind) String() string {
	if k == Permanent {
		return "permanent"
	}
	return "transient"
}

// Failure is the typed error returned by generators.
type Failure struct {
	Provider string
	Model    string
	Kind     FailureKind
	Err      error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s model %q: %s failure: %v", f.Provider, f.Model, f.Kind, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// NewFailure wraps err into a Failure.
func NewFailure(provider, model string, kind FailureKind, err error) *Failure {
	return &Failure{Provider: provider, Model: model, Kind: kind, Err: err}
}

// IsPermanent reports whether err carries a permanent Failure.
func IsPermanent(err error) bool {
	var failure *Failure
	if errors.As(err, &failure) {
		return failure.Kind == Permanent
	}
	return false
}
