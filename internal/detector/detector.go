// Package detector scans interview transcripts against configured red flags
// and produces the match set consumed by the score aggregator.
//
// Only phrase_match and cross_reference detection are implemented by the
// deterministic core. pattern_analysis flags describe qualitative behavioral
// heuristics for a human reviewer or an upstream NLU collaborator; the
// detector only surfaces them when an injected Classifier marks an answer
// against the pattern.
package detector

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/hiregate/hiregate/internal/models"
)

// FactExtractor extracts semantic facts (stated durations, counts, names)
// from a single answer. cross_reference flags compare these facts across
// answers; extraction itself is an external collaborator's job.
type FactExtractor interface {
	ExtractFacts(answer models.Answer) ([]models.Fact, error)
}

// Classifier marks answers against a pattern_analysis red flag. The engine
// treats its output as a candidate match and copies the flag's severity.
type Classifier interface {
	Classify(answer models.Answer, flag models.RedFlag) (*Mark, error)
}

// Mark is a positive classification of one answer against one flag.
type Mark struct {
	Pattern    string
	Confidence float64
}

// Result is the complete detection output for one transcript.
type Result struct {
	Matches []models.RedFlagMatch

	// HasAutoRejectTrigger is the logical OR of causes_auto_reject across
	// all matched flags.
	HasAutoRejectTrigger bool
}

// ActiveCodes returns the set of flag codes with at least one match.
func (r *Result) ActiveCodes() map[string]bool {
	active := make(map[string]bool, len(r.Matches))
	for _, m := range r.Matches {
		active[m.Code] = true
	}
	return active
}

// SeverityCounts returns how many matches carry each severity.
func (r *Result) SeverityCounts() map[models.Severity]int {
	counts := map[models.Severity]int{}
	for _, m := range r.Matches {
		counts[m.Severity]++
	}
	return counts
}

// Detector scans transcripts against a fixed set of red flags. A Detector is
// immutable after construction and safe for concurrent use.
type Detector struct {
	flags      []models.RedFlag
	extractor  FactExtractor
	classifier Classifier
}

// Option configures a Detector.
type Option func(*Detector)

// WithFactExtractor injects the collaborator that cross_reference flags
// consume. Without one, cross_reference flags are inert.
func WithFactExtractor(e FactExtractor) Option {
	return func(d *Detector) { d.extractor = e }
}

// WithClassifier injects the collaborator that pattern_analysis flags
// consume. Without one, pattern_analysis flags are inert.
func WithClassifier(c Classifier) Option {
	return func(d *Detector) { d.classifier = c }
}

// crossReferenceParams are the decoded Params of a cross_reference flag.
type crossReferenceParams struct {
	FactKeys []string `mapstructure:"fact_keys"`
}

// New builds a detector over the given flags, validating per-method params.
func New(flags []models.RedFlag, opts ...Option) (*Detector, error) {
	for _, flag := range flags {
		switch flag.DetectionMethod {
		case models.DetectionPhraseMatch:
			if len(flag.TriggerPhrases) == 0 {
				return nil, fmt.Errorf("red flag %s: phrase_match requires trigger_phrases", flag.Code)
			}
		case models.DetectionCrossReference:
			params, err := decodeCrossReferenceParams(flag)
			if err != nil {
				return nil, err
			}
			if len(params.FactKeys) == 0 {
				return nil, fmt.Errorf("red flag %s: cross_reference requires params.fact_keys", flag.Code)
			}
		}
	}

	d := &Detector{flags: flags}
	for _, o := range opts {
		o(d)
	}
	return d, nil
}

func decodeCrossReferenceParams(flag models.RedFlag) (*crossReferenceParams, error) {
	var params crossReferenceParams
	if err := mapstructure.Decode(flag.Params, &params); err != nil {
		return nil, fmt.Errorf("red flag %s: decoding cross_reference params: %w", flag.Code, err)
	}
	return &params, nil
}

// Detect scans the ordered transcript and returns all red flag matches,
// sorted by (flag code, answer id). The scan is a pure transform: it never
// mutates its inputs and holds no state between calls. When the same text
// matches under two different flags both matches are retained; the score
// aggregator resolves double impact by summation, not suppression.
func (d *Detector) Detect(ctx context.Context, answers []models.Answer) (*Result, error) {
	result := &Result{}

	facts, err := d.extractAllFacts(answers)
	if err != nil {
		return nil, err
	}

	for _, flag := range d.flags {
		var matches []models.RedFlagMatch
		switch flag.DetectionMethod {
		case models.DetectionPhraseMatch:
			matches = detectPhrases(flag, answers)
		case models.DetectionCrossReference:
			matches, err = detectCrossReferences(flag, facts)
		case models.DetectionPatternAnalysis:
			matches, err = d.detectPatterns(ctx, flag, answers)
		}
		if err != nil {
			return nil, fmt.Errorf("red flag %s: %w", flag.Code, err)
		}

		if len(matches) > 0 && flag.CausesAutoReject {
			result.HasAutoRejectTrigger = true
		}
		result.Matches = append(result.Matches, matches...)
	}

	// Deterministic order: identical inputs must yield identical output.
	sort.SliceStable(result.Matches, func(i, j int) bool {
		a, b := result.Matches[i], result.Matches[j]
		if a.Code != b.Code {
			return a.Code < b.Code
		}
		return a.AnswerID < b.AnswerID
	})

	return result, nil
}

// detectPhrases matches trigger phrases by case-insensitive substring
// containment. Multiple phrase hits within one answer count as a single
// match per (flag, answer) pair, so verbose answers are not double-penalized.
func detectPhrases(flag models.RedFlag, answers []models.Answer) []models.RedFlagMatch {
	var matches []models.RedFlagMatch
	for _, answer := range answers {
		text := strings.ToLower(answer.Text)
		for _, phrase := range flag.TriggerPhrases {
			if !strings.Contains(text, strings.ToLower(phrase)) {
				continue
			}
			matches = append(matches, models.RedFlagMatch{
				Code:       flag.Code,
				AnswerID:   answer.AnswerID,
				Matched:    phrase,
				Confidence: 1.0,
				Severity:   flag.Severity,
			})
			break
		}
	}
	return matches
}

// answerFact is one extracted fact together with its source answer.
type answerFact struct {
	answerID string
	value    string
}

func (d *Detector) extractAllFacts(answers []models.Answer) (map[string][]answerFact, error) {
	if d.extractor == nil {
		return nil, nil
	}

	facts := map[string][]answerFact{}
	for _, answer := range answers {
		extracted, err := d.extractor.ExtractFacts(answer)
		if err != nil {
			return nil, fmt.Errorf("extracting facts from answer %s: %w", answer.AnswerID, err)
		}
		for _, fact := range extracted {
			facts[fact.Key] = append(facts[fact.Key], answerFact{
				answerID: answer.AnswerID,
				value:    fact.Value,
			})
		}
	}
	return facts, nil
}

// detectCrossReferences matches when the same fact key carries disagreeing
// values in two or more answers. The match is attributed to the answer that
// introduced the disagreement.
func detectCrossReferences(flag models.RedFlag, facts map[string][]answerFact) ([]models.RedFlagMatch, error) {
	if facts == nil {
		return nil, nil
	}

	params, err := decodeCrossReferenceParams(flag)
	if err != nil {
		return nil, err
	}

	var matches []models.RedFlagMatch
	for _, key := range params.FactKeys {
		stated := facts[key]
		for i := 1; i < len(stated); i++ {
			if stated[i].value == stated[0].value {
				continue
			}
			matches = append(matches, models.RedFlagMatch{
				Code:       flag.Code,
				AnswerID:   stated[i].answerID,
				Matched:    fmt.Sprintf("%s: %q vs %q", key, stated[0].value, stated[i].value),
				Confidence: 1.0,
				Severity:   flag.Severity,
			})
			break
		}
	}
	return matches, nil
}

func (d *Detector) detectPatterns(ctx context.Context, flag models.RedFlag, answers []models.Answer) ([]models.RedFlagMatch, error) {
	if d.classifier == nil {
		return nil, nil
	}

	var matches []models.RedFlagMatch
	for _, answer := range answers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		mark, err := d.classifier.Classify(answer, flag)
		if err != nil {
			return nil, fmt.Errorf("classifying answer %s: %w", answer.AnswerID, err)
		}
		if mark == nil {
			continue
		}
		matches = append(matches, models.RedFlagMatch{
			Code:       flag.Code,
			AnswerID:   answer.AnswerID,
			Matched:    mark.Pattern,
			Confidence: mark.Confidence,
			Severity:   flag.Severity,
		})
	}
	return matches, nil
}
