// Package reporting renders evaluation results and configuration check
// results for human and machine consumers.
package reporting

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/hiregate/hiregate/internal/checks"
	"github.com/hiregate/hiregate/internal/models"
)

// WriteJSON writes the result as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteResultText writes a human-readable evaluation summary: the decision,
// the score table, matched red flags, and the interpretation lines.
func WriteResultText(w io.Writer, result *models.EvaluationResult, bundle *models.ConfigBundle) error {
	var b strings.Builder

	if result.InterviewID != "" {
		b.WriteString(fmt.Sprintf("Interview: %s\n", result.InterviewID))
	}
	b.WriteString(fmt.Sprintf("Decision:  %s (rule priority %d)\n\n", result.Decision, result.MatchedRulePriority))

	writeScoreTable(&b, result, bundle)

	if len(result.RedFlagMatches) > 0 {
		b.WriteString("\nRed Flags:\n")
		for _, m := range result.RedFlagMatches {
			line := fmt.Sprintf("  [%s] %s on answer %s", m.Severity, m.Code, m.AnswerID)
			if m.Matched != "" {
				line += fmt.Sprintf(" (%s)", m.Matched)
			}
			b.WriteString(line + "\n")
		}
	}

	b.WriteString("\n")
	for _, line := range Interpret(result, bundle) {
		b.WriteString(line + "\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeScoreTable(b *strings.Builder, result *models.EvaluationResult, bundle *models.ConfigBundle) {
	type row struct {
		name  string
		value int
		kind  string
	}

	var rows []row
	names := make([]string, 0, len(result.Scores))
	for name := range result.Scores {
		if name != models.OverallScoreName {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	kinds := map[string]models.ScoreType{}
	if bundle != nil {
		kinds = bundle.ScoreNames()
	}

	for _, name := range names {
		kind := "score"
		if kinds[name] == models.ScoreTypeRisk {
			kind = "risk"
		}
		rows = append(rows, row{name: name, value: result.Scores[name], kind: kind})
	}
	rows = append(rows, row{name: models.OverallScoreName, value: result.Scores[models.OverallScoreName], kind: "overall"})

	nameWidth := len("Score")
	for _, r := range rows {
		if w := runewidth.StringWidth(r.name); w > nameWidth {
			nameWidth = w
		}
	}

	b.WriteString(fmt.Sprintf("%s  %5s  %s\n", padRight("Score", nameWidth), "Value", "Kind"))
	for _, r := range rows {
		b.WriteString(fmt.Sprintf("%s  %5d  %s\n", padRight(r.name, nameWidth), r.value, r.kind))
	}
}

// WriteChecksText writes configuration check results as a readable list.
func WriteChecksText(w io.Writer, results []*checks.CheckResult) error {
	var b strings.Builder

	nameWidth := 0
	for _, r := range results {
		if w := runewidth.StringWidth(r.Name); w > nameWidth {
			nameWidth = w
		}
	}

	for _, r := range results {
		icon := "✓"
		if !r.Passed {
			icon = "✗"
		}
		b.WriteString(fmt.Sprintf("%s %s  %s\n", icon, padRight(r.Name, nameWidth), r.Summary))
		for _, detail := range r.Details {
			b.WriteString(fmt.Sprintf("    %s\n", detail))
		}
	}

	if checks.AllPassed(results) {
		b.WriteString("\nConfiguration is deployable.\n")
	} else {
		b.WriteString("\nConfiguration has blocking problems; fix them before deploying.\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// padRight pads s with spaces so its terminal display width reaches width.
func padRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	return s + strings.Repeat(" ", width-sw)
}
