package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/candidate"
	"github.com/spigell/resume-screener/internal/dedupe"
)

// Stage is a post-batch step that needs the complete record set.
type Stage interface {
	Name() string
	Apply(ctx context.Context, batch *candidate.Batch) (Step, error)
}

// Step describes the result of executing a stage.
type Step struct {
	Initial int
	Changed int
}

// RunStages executes the stages in order and logs what each one changed.
func RunStages(ctx context.Context, logger *zap.Logger, stages []Stage, batch *candidate.Batch) error {
	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			return err
		}

		info, err := stage.Apply(ctx, batch)
		if err != nil {
			return fmt.Errorf("%s: %w", stage.Name(), err)
		}

		if logger != nil {
			logger.Info("pipeline stage",
				zap.String("name", stage.Name()),
				zap.Int("initial", info.Initial),
				zap.Int("changed", info.Changed),
			)
		}
	}
	return nil
}

type dedupeStage struct {
	logger *zap.Logger
}

// NewDedupeStage relabels records sharing an email.
func NewDedupeStage(logger *zap.Logger) Stage {
	return &dedupeStage{logger: logger}
}

func (s *dedupeStage) Name() string { return "dedupe" }

func (s *dedupeStage) Apply(_ context.Context, batch *candidate.Batch) (Step, error) {
	changed := dedupe.Resolve(batch.Items)
	if s.logger != nil && len(changed) > 0 {
		names := make([]string, 0, len(changed))
		for _, r := range changed {
			names = append(names, r.Filename)
		}
		s.logger.Info("marking duplicate candidates", zap.Strings("filenames", names))
	}
	return Step{Initial: batch.Len(), Changed: len(changed)}, nil
}

type draftsStage struct {
	drafter Drafter
}

// NewDraftsStage re-renders drafts so they follow the final status.
func NewDraftsStage(drafter Drafter) Stage {
	return &draftsStage{drafter: drafter}
}

func (s *draftsStage) Name() string { return "drafts" }

func (s *draftsStage) Apply(_ context.Context, batch *candidate.Batch) (Step, error) {
	changed := 0
	for _, r := range batch.Items {
		draft := s.drafter.Generate(r)
		if draft != r.EmailDraft {
			r.EmailDraft = draft
			changed++
		}
	}
	return Step{Initial: batch.Len(), Changed: changed}, nil
}
