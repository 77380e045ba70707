// Package pipeline drives extraction, scoring and the post-batch stages.
package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/resume-screener/internal/candidate"
	"github.com/spigell/resume-screener/internal/extract"
	"github.com/spigell/resume-screener/internal/scoring"
)

const corruptReason = "Failed to extract text (Corrupt)"

// Extractor turns a file into text.
type Extractor interface {
	Extract(path string) (string, error)
}

// Drafter renders the email draft for a record.
type Drafter interface {
	Generate(r *candidate.Record) string
}

// Progress is reported after every processed file.
type Progress struct {
	Done     int
	Total    int
	Filename string
	Status   candidate.Status
}

type Options struct {
	// Workers bounds how many files are processed at once. Values below 1 mean 1.
	Workers    int
	OnProgress func(Progress)
}

// Processor screens a batch of resume files against one job description.
type Processor struct {
	extractor      Extractor
	scorer         scoring.Scorer
	drafter        Drafter
	jobDescription string
	opts           Options
	logger         *zap.Logger
	stages         []Stage
}

func NewProcessor(extractor Extractor, scorer scoring.Scorer, drafter Drafter, jobDescription string, opts Options, logger *zap.Logger) *Processor {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Processor{
		extractor:      extractor,
		scorer:         scorer,
		drafter:        drafter,
		jobDescription: jobDescription,
		opts:           opts,
		logger:         logger,
		stages:         []Stage{NewDedupeStage(logger), NewDraftsStage(drafter)},
	}
}

// Process returns one record per file in input order. Bad files never abort
// the batch; only cancellation does.
func (p *Processor) Process(ctx context.Context, files []string) (*candidate.Batch, error) {
	records := make([]*candidate.Record, len(files))

	var (
		mu   sync.Mutex
		done int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)

	for i, path := range files {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r := p.processFile(gctx, path)
			records[i] = r

			mu.Lock()
			done++
			progress := Progress{Done: done, Total: len(files), Filename: r.Filename, Status: r.Status}
			if p.opts.OnProgress != nil {
				p.opts.OnProgress(progress)
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	batch := &candidate.Batch{Items: records}
	p.logger.Info("batch scored",
		zap.Int("files", batch.Len()),
		zap.String("scorer", p.scorer.Name()),
	)

	if err := RunStages(ctx, p.logger, p.stages, batch); err != nil {
		return nil, err
	}
	return batch, nil
}

func (p *Processor) processFile(ctx context.Context, path string) *candidate.Record {
	r := candidate.New(filepath.Base(path))
	fallbackName := extract.FallbackName(path)
	log := p.logger.With(zap.String("filename", r.Filename))

	text, err := p.extractor.Extract(path)
	if err != nil {
		r.MarkFailed(reasonFor(err))
		r.CandidateName = fallbackName
		r.EmailDraft = p.drafter.Generate(r)
		log.Warn("text extraction failed", zap.Error(err))
		return r
	}

	r.RawText = text
	fields := extract.ExtractFields(text, fallbackName)
	r.CandidateName = fields.Name
	r.Email = fields.Email
	r.Phone = fields.Phone

	result := p.scorer.Score(ctx, text, p.jobDescription).Clamp()
	r.Score = result.Score
	r.Status = result.Status
	r.Reasoning = result.Reasoning
	r.MatchedKeywords = result.MatchedKeywords
	if r.MatchedKeywords == nil {
		r.MatchedKeywords = []string{}
	}

	r.EmailDraft = p.drafter.Generate(r)

	log.Info("candidate screened",
		zap.String("status", string(r.Status)),
		zap.Float64("score", r.Score),
	)
	return r
}

func reasonFor(err error) string {
	var extractErr *extract.ExtractionError
	if errors.As(err, &extractErr) {
		return extractErr.Reason()
	}
	return corruptReason
}
