package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func runCommand(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	cmd := newRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

type evaluationOutput struct {
	InterviewID string `json:"interview_id"`
	Scores      map[string]int
	Decision    string `json:"decision"`
	AutoReject  bool   `json:"has_auto_reject_trigger"`
	RedFlags    []struct {
		Code     string `json:"code"`
		AnswerID string `json:"answer_id"`
	} `json:"red_flag_matches"`
}

func decodeEvaluation(t *testing.T, out string) evaluationOutput {
	t.Helper()
	var result evaluationOutput
	require.NoError(t, json.Unmarshal([]byte(out), &result))

	var scores struct {
		Scores map[string]int `json:"scores"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &scores))
	result.Scores = scores.Scores
	return result
}

func TestEvaluateCommand(t *testing.T) {
	t.Run("CleanHire", func(t *testing.T) {
		out, _, err := runCommand(t, "evaluate",
			"--config", "testdata/bundle.yaml",
			"--format", "json",
			"testdata/clean.yaml")
		require.NoError(t, err)

		result := decodeEvaluation(t, out)
		require.Equal(t, "int-clean", result.InterviewID)
		require.Equal(t, "HIRE", result.Decision)
		require.Equal(t, 90, result.Scores["overall_score"])
		require.Empty(t, result.RedFlags)
	})

	t.Run("AggressionAutoReject", func(t *testing.T) {
		out, _, err := runCommand(t, "evaluate",
			"--config", "testdata/bundle.yaml",
			"--format", "json",
			"testdata/aggression.yaml")
		require.NoError(t, err)

		result := decodeEvaluation(t, out)
		require.Equal(t, "REJECT", result.Decision)
		require.True(t, result.AutoReject)
		require.Len(t, result.RedFlags, 1)
		require.Equal(t, "RF_AGGRESSION", result.RedFlags[0].Code)
	})

	t.Run("CrossReferenceFromEmbeddedFacts", func(t *testing.T) {
		out, _, err := runCommand(t, "evaluate",
			"--config", "testdata/bundle.yaml",
			"--format", "json",
			"testdata/dishonest.yaml")
		require.NoError(t, err)

		result := decodeEvaluation(t, out)
		require.Equal(t, "REJECT", result.Decision)
		require.False(t, result.AutoReject)
		require.Len(t, result.RedFlags, 1)
		require.Equal(t, "RF_DISHONESTY", result.RedFlags[0].Code)
		require.Equal(t, "a2", result.RedFlags[0].AnswerID)
		require.Equal(t, 40, result.Scores["overall_score"])
	})

	t.Run("ClassifierMarksFromFile", func(t *testing.T) {
		out, _, err := runCommand(t, "evaluate",
			"--config", "testdata/bundle.yaml",
			"--format", "json",
			"testdata/hopper.yaml")
		require.NoError(t, err)

		result := decodeEvaluation(t, out)
		require.Equal(t, "HIRE", result.Decision)
		require.Len(t, result.RedFlags, 1)
		require.Equal(t, "RF_JOB_HOPPING", result.RedFlags[0].Code)
		require.Equal(t, 35, result.Scores["stability_risk"])
	})

	t.Run("BorderlineHold", func(t *testing.T) {
		out, _, err := runCommand(t, "evaluate",
			"--config", "testdata/bundle.yaml",
			"--format", "json",
			"testdata/borderline.yaml")
		require.NoError(t, err)

		result := decodeEvaluation(t, out)
		require.Equal(t, "HOLD", result.Decision)
		require.Equal(t, 68, result.Scores["overall_score"])
	})

	t.Run("TextFormat", func(t *testing.T) {
		out, _, err := runCommand(t, "evaluate",
			"--config", "testdata/bundle.yaml",
			"--format", "text",
			"testdata/clean.yaml")
		require.NoError(t, err)
		require.Contains(t, out, "Decision:  HIRE")
		require.Contains(t, out, "overall_score")
	})

	t.Run("Batch", func(t *testing.T) {
		out, errOut, err := runCommand(t, "evaluate",
			"--config", "testdata/bundle.yaml",
			"--format", "json",
			"--workers", "2",
			"testdata/clean.yaml", "testdata/aggression.yaml")
		require.NoError(t, err)
		require.Empty(t, errOut)

		dec := json.NewDecoder(bytes.NewReader([]byte(out)))
		var decisions []string
		for dec.More() {
			var result struct {
				Decision string `json:"decision"`
			}
			require.NoError(t, dec.Decode(&result))
			decisions = append(decisions, result.Decision)
		}
		require.Equal(t, []string{"HIRE", "REJECT"}, decisions)
	})

	t.Run("MissingConfig", func(t *testing.T) {
		_, _, err := runCommand(t, "evaluate",
			"--config", "testdata/nope.yaml",
			"--format", "json",
			"testdata/clean.yaml")
		require.Error(t, err)
	})

	t.Run("InvalidFormat", func(t *testing.T) {
		_, _, err := runCommand(t, "evaluate",
			"--config", "testdata/bundle.yaml",
			"--format", "xml",
			"testdata/clean.yaml")
		require.ErrorContains(t, err, "invalid format")
	})
}

func TestCheckCommand(t *testing.T) {
	t.Run("ValidBundle", func(t *testing.T) {
		out, _, err := runCommand(t, "check", "--format", "json", "testdata/bundle.yaml")
		require.NoError(t, err)

		var report struct {
			Passed  bool `json:"passed"`
			Results []struct {
				Name   string `json:"name"`
				Passed bool   `json:"passed"`
			} `json:"results"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &report))
		require.True(t, report.Passed)
		require.Len(t, report.Results, 6)
	})

	t.Run("BrokenBundleFailsWithCheckError", func(t *testing.T) {
		raw, err := os.ReadFile("testdata/bundle.yaml")
		require.NoError(t, err)
		broken := strings.Replace(string(raw), "weight_percent: 15", "weight_percent: 14", 1)

		path := filepath.Join(t.TempDir(), "broken.yaml")
		require.NoError(t, os.WriteFile(path, []byte(broken), 0o644))

		_, _, err = runCommand(t, "check", "--format", "json", path)
		require.Error(t, err)

		var checkErr *CheckFailureError
		require.True(t, errors.As(err, &checkErr))
	})

	t.Run("TextOutput", func(t *testing.T) {
		out, _, err := runCommand(t, "check", "--format", "text", "testdata/bundle.yaml")
		require.NoError(t, err)
		require.Contains(t, out, "Configuration is deployable.")
	})
}
