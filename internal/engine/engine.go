package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hiregate/hiregate/internal/aggregator"
	"github.com/hiregate/hiregate/internal/decision"
	"github.com/hiregate/hiregate/internal/detector"
	"github.com/hiregate/hiregate/internal/formula"
	"github.com/hiregate/hiregate/internal/models"
)

// Engine runs evaluations against one compiled snapshot. Evaluations are
// stateless and side effect free, so one Engine serves any number of
// concurrent callers.
type Engine struct {
	snap   *Snapshot
	det    *detector.Detector
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*engineConfig)

type engineConfig struct {
	extractor  detector.FactExtractor
	classifier detector.Classifier
	logger     *slog.Logger
}

// WithFactExtractor injects the fact extraction collaborator consumed by
// cross_reference red flags.
func WithFactExtractor(e detector.FactExtractor) Option {
	return func(c *engineConfig) { c.extractor = e }
}

// WithClassifier injects the external classifier consumed by
// pattern_analysis red flags.
func WithClassifier(cl detector.Classifier) Option {
	return func(c *engineConfig) { c.classifier = cl }
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *engineConfig) { c.logger = l }
}

// New builds an engine over a compiled snapshot.
func New(snap *Snapshot, opts ...Option) (*Engine, error) {
	cfg := engineConfig{logger: slog.Default()}
	for _, o := range opts {
		o(&cfg)
	}

	var detOpts []detector.Option
	if cfg.extractor != nil {
		detOpts = append(detOpts, detector.WithFactExtractor(cfg.extractor))
	}
	if cfg.classifier != nil {
		detOpts = append(detOpts, detector.WithClassifier(cfg.classifier))
	}

	det, err := detector.New(snap.Bundle.RedFlags, detOpts...)
	if err != nil {
		return nil, err
	}

	return &Engine{snap: snap, det: det, logger: cfg.logger}, nil
}

// Evaluate runs the full pipeline for one interview: detect red flags,
// aggregate scores, select a decision. The call is single-shot and pure;
// re-evaluation on updated ratings simply reruns the whole pipeline.
//
// On error no partial result is returned: a failed evaluation must stay
// visibly distinct from a low-scoring REJECT.
func (e *Engine) Evaluate(ctx context.Context, input models.EvaluationInput) (*models.EvaluationResult, error) {
	detected, err := e.det.Detect(ctx, input.Transcript)
	if err != nil {
		return nil, fmt.Errorf("detecting red flags: %w", err)
	}

	out, err := e.snap.agg.Aggregate(input.Ratings, detected)
	if err != nil {
		return nil, fmt.Errorf("aggregating scores: %w", err)
	}

	selection, err := e.snap.sel.Select(decision.Env{
		Scores:         out.Scores,
		SeverityCounts: detected.SeverityCounts(),
	}, out.HasAutoRejectTrigger)
	if err != nil {
		return nil, fmt.Errorf("selecting decision: %w", err)
	}

	matches := detected.Matches
	if matches == nil {
		matches = []models.RedFlagMatch{}
	}

	result := &models.EvaluationResult{
		InterviewID:          input.InterviewID,
		Scores:               out.Scores,
		RedFlagMatches:       matches,
		RiskAnnotations:      out.Annotations,
		HasAutoRejectTrigger: out.HasAutoRejectTrigger,
		Decision:             selection.Decision,
		MatchedRulePriority:  selection.Priority,
	}

	e.logger.Debug("evaluation complete",
		slog.String("interview_id", input.InterviewID),
		slog.String("decision", result.Decision),
		slog.Int("overall_score", result.Scores[models.OverallScoreName]),
		slog.Int("red_flag_matches", len(result.RedFlagMatches)),
		slog.Bool("auto_reject", result.HasAutoRejectTrigger),
	)

	return result, nil
}

// Snapshot returns the immutable configuration the engine evaluates against.
func (e *Engine) Snapshot() *Snapshot {
	return e.snap
}

// IsInputError reports whether err stems from invalid evaluation input
// (ratings out of range, duplicate or missing ratings, values missing at
// runtime) rather than from configuration or collaborator failure. Input
// errors are recoverable per request; the host should reject the evaluation
// and surface the offending dimension.
func IsInputError(err error) bool {
	var (
		invalid   *aggregator.InvalidRatingError
		missing   *aggregator.MissingRatingError
		duplicate *aggregator.DuplicateRatingError
		unknown   *formula.UnknownIdentifierError
	)
	return errors.As(err, &invalid) ||
		errors.As(err, &missing) ||
		errors.As(err, &duplicate) ||
		errors.As(err, &unknown)
}
