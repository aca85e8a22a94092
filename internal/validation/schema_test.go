package validation

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateBundleFile(t *testing.T) {
	errs, err := ValidateBundleFile("testdata/bundle.yaml")
	require.NoError(t, err)
	require.Empty(t, errs)
}

func TestValidateBundleBytes(t *testing.T) {
	fixture, err := os.ReadFile("testdata/bundle.yaml")
	require.NoError(t, err)

	t.Run("Valid", func(t *testing.T) {
		require.Empty(t, ValidateBundleBytes(fixture))
	})

	t.Run("MissingRequiredSection", func(t *testing.T) {
		raw := strings.Replace(string(fixture), "decision_rules:", "decision_rulez:", 1)
		errs := ValidateBundleBytes([]byte(raw))
		require.NotEmpty(t, errs)
	})

	t.Run("WrongType", func(t *testing.T) {
		raw := strings.Replace(string(fixture), "weight_percent: 15", "weight_percent: fifteen", 1)
		errs := ValidateBundleBytes([]byte(raw))
		require.NotEmpty(t, errs)

		// Violations carry an instance location pointing into scoring_rules.
		require.Contains(t, strings.Join(errs, "\n"), "scoring_rules")
	})

	t.Run("UnknownSeverity", func(t *testing.T) {
		raw := strings.Replace(string(fixture), "severity: critical", "severity: fatal", 1)
		errs := ValidateBundleBytes([]byte(raw))
		require.NotEmpty(t, errs)
	})

	t.Run("MalformedYAML", func(t *testing.T) {
		errs := ValidateBundleBytes([]byte("red_flags: [unclosed"))
		require.Len(t, errs, 1)
		require.Contains(t, errs[0], "YAML parse error")
	})
}
