package reporting

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/hiregate/hiregate/internal/engine"
	"github.com/hiregate/hiregate/internal/models"
)

// BatchSummary aggregates the outcomes of one batch evaluation.
type BatchSummary struct {
	Total  int
	Failed int

	// Decisions maps each decision label to how many interviews landed on it.
	Decisions map[string]int

	// FlagCounts maps red flag codes to how many interviews they matched in.
	FlagCounts map[string]int

	OverallMean   float64
	OverallStdDev float64
	AutoRejects   int
}

// Summarize folds batch items into a summary. Failed items count toward
// Total and Failed but contribute no scores.
func Summarize(items []engine.BatchItem) *BatchSummary {
	s := &BatchSummary{
		Total:      len(items),
		Decisions:  map[string]int{},
		FlagCounts: map[string]int{},
	}

	var overalls []float64
	for _, item := range items {
		if item.Err != nil {
			s.Failed++
			continue
		}
		result := item.Result
		s.Decisions[result.Decision]++
		if result.HasAutoRejectTrigger {
			s.AutoRejects++
		}

		seen := map[string]bool{}
		for _, m := range result.RedFlagMatches {
			if !seen[m.Code] {
				s.FlagCounts[m.Code]++
				seen[m.Code] = true
			}
		}
		overalls = append(overalls, float64(result.Scores[models.OverallScoreName]))
	}

	s.OverallMean = mean(overalls)
	s.OverallStdDev = stdDev(overalls)
	return s
}

// WriteSummaryText writes the batch summary as a short readable block.
func WriteSummaryText(w io.Writer, s *BatchSummary) error {
	var b strings.Builder

	evaluated := s.Total - s.Failed
	b.WriteString(fmt.Sprintf("Evaluated %d interview(s)", evaluated))
	if s.Failed > 0 {
		b.WriteString(fmt.Sprintf(", %d failed", s.Failed))
	}
	b.WriteString("\n")

	for _, decision := range sortedStringKeys(s.Decisions) {
		b.WriteString(fmt.Sprintf("  %-8s %d\n", decision, s.Decisions[decision]))
	}

	if evaluated > 0 {
		b.WriteString(fmt.Sprintf("Overall score mean %.1f (stddev %.1f)\n", s.OverallMean, s.OverallStdDev))
	}
	if s.AutoRejects > 0 {
		b.WriteString(fmt.Sprintf("Auto-reject triggers: %d\n", s.AutoRejects))
	}
	for _, code := range sortedStringKeys(s.FlagCounts) {
		b.WriteString(fmt.Sprintf("  flag %s in %d interview(s)\n", code, s.FlagCounts[code]))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	sumSq := 0.0
	for _, v := range values {
		d := v - m
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)))
}

func sortedStringKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
