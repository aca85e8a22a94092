package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/hiregate/hiregate/internal/engine"
	"github.com/hiregate/hiregate/internal/models"
	"github.com/hiregate/hiregate/internal/reporting"
)

func newEvaluateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate --config bundle.yaml interview.yaml [interview.yaml...]",
		Short: "Evaluate one or more interviews against a configuration bundle",
		Long: `Evaluate runs the full pipeline for each interview file: red flag
detection over the transcript, score aggregation from competency ratings,
and decision selection. Interview files may embed pre-extracted facts and
classifier marks, which serve as the external fact-extraction and
pattern-classification collaborators.

A REJECT decision is a successful evaluation; only configuration or input
errors exit non-zero.`,
		Args:          cobra.MinimumNArgs(1),
		RunE:          runEvaluate,
		SilenceErrors: true,
	}

	cmd.Flags().StringP("config", "c", "", "Path to the configuration bundle (required)")
	cmd.Flags().String("format", "", "Output format: text | json (default: text on a terminal, json otherwise)")
	cmd.Flags().Int("workers", 0, "Concurrent evaluations when multiple interviews are given")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	format, _ := cmd.Flags().GetString("format")
	workers, _ := cmd.Flags().GetInt("workers")

	if format == "" {
		format = "json"
		if term.IsTerminal(int(os.Stdout.Fd())) {
			format = "text"
		}
	}
	if format != "text" && format != "json" {
		return fmt.Errorf("invalid format %q: must be text or json", format)
	}

	snap, err := engine.Load(configPath)
	if err != nil {
		return err
	}

	files := make([]*interviewFile, 0, len(args))
	for _, path := range args {
		file, err := loadInterview(path)
		if err != nil {
			return err
		}
		files = append(files, file)
	}

	eng, err := engine.New(snap,
		engine.WithFactExtractor(newFileFactExtractor(files...)),
		engine.WithClassifier(newFileClassifier(files...)),
	)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if len(files) == 1 {
		result, err := eng.Evaluate(cmd.Context(), files[0].input())
		if err != nil {
			if engine.IsInputError(err) {
				return fmt.Errorf("evaluation rejected: %w", err)
			}
			return err
		}
		if format == "json" {
			return reporting.WriteJSON(out, result)
		}
		return reporting.WriteResultText(out, result, snap.Bundle)
	}

	return evaluateBatch(cmd, eng, files, workers, format)
}

func evaluateBatch(cmd *cobra.Command, eng *engine.Engine, files []*interviewFile, workers int, format string) error {
	inputs := make([]models.EvaluationInput, 0, len(files))
	for _, file := range files {
		inputs = append(inputs, file.input())
	}

	var listeners []engine.ProgressListener
	if format == "text" {
		listeners = append(listeners, func(event engine.ProgressEvent) {
			if event.Type == engine.EventEvaluationComplete {
				status := event.Decision
				if event.Err != nil {
					status = "error: " + event.Err.Error()
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "[%d/%d] %s: %s\n",
					event.Index+1, event.Total, event.InterviewID, status)
			}
		})
	}

	items, err := eng.EvaluateBatch(cmd.Context(), inputs, workers, listeners...)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	var failures int
	for _, item := range items {
		if item.Err != nil {
			failures++
			fmt.Fprintf(cmd.ErrOrStderr(), "interview %s: %v\n", item.InterviewID, item.Err)
			continue
		}
		if format == "json" {
			if err := reporting.WriteJSON(out, item.Result); err != nil {
				return err
			}
			continue
		}
		if err := reporting.WriteResultText(out, item.Result, eng.Snapshot().Bundle); err != nil {
			return err
		}
		fmt.Fprintln(out)
	}

	if format == "text" {
		fmt.Fprintln(out)
		if err := reporting.WriteSummaryText(out, reporting.Summarize(items)); err != nil {
			return err
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d evaluations failed", failures, len(items))
	}
	return nil
}
