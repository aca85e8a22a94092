package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/hiregate/hiregate/internal/checks"
	"github.com/hiregate/hiregate/internal/reporting"
)

func newCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <bundle.yaml>",
		Short: "Check a configuration bundle before deployment",
		Long: `Check runs every configuration check against a bundle:

  1. Schema          - bundle YAML matches the embedded JSON Schema
  2. Weight sum      - primary rule weights sum to exactly 100
  3. Formulas        - every formula parses and its references resolve
  4. Impact targets  - red flag impacts name scores that exist
  5. Decision rules  - conditions parse and a catch-all rule exists
  6. Phrase hygiene  - no empty or duplicate trigger phrases

Any failing check means the bundle must not be deployed: the engine refuses
partial configuration at load time.`,
		Args:          cobra.ExactArgs(1),
		RunE:          runCheck,
		SilenceErrors: true,
	}
	cmd.Flags().String("format", "", "Output format: text | json (default: text on a terminal, json otherwise)")
	return cmd
}

// checkJSONReport is the machine-readable shape of check results.
type checkJSONReport struct {
	Bundle  string            `json:"bundle"`
	Passed  bool              `json:"passed"`
	Results []checkJSONResult `json:"results"`
}

type checkJSONResult struct {
	Name    string   `json:"name"`
	Passed  bool     `json:"passed"`
	Summary string   `json:"summary"`
	Details []string `json:"details,omitempty"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	if format == "" {
		format = "json"
		if term.IsTerminal(int(os.Stdout.Fd())) {
			format = "text"
		}
	}
	if format != "text" && format != "json" {
		return fmt.Errorf("invalid format %q: must be text or json", format)
	}

	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading bundle: %w", err)
	}

	results := checks.Run(raw, checks.All())
	out := cmd.OutOrStdout()

	if format == "json" {
		report := checkJSONReport{Bundle: args[0], Passed: checks.AllPassed(results)}
		for _, r := range results {
			report.Results = append(report.Results, checkJSONResult{
				Name:    r.Name,
				Passed:  r.Passed,
				Summary: r.Summary,
				Details: r.Details,
			})
		}
		if err := reporting.WriteJSON(out, report); err != nil {
			return err
		}
	} else {
		if err := reporting.WriteChecksText(out, results); err != nil {
			return err
		}
	}

	if !checks.AllPassed(results) {
		return &CheckFailureError{Message: fmt.Sprintf("%s: configuration checks failed", args[0])}
	}
	return nil
}
