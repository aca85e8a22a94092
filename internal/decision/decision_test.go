package decision

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hiregate/hiregate/internal/models"
)

var testScoreNames = map[string]models.ScoreType{
	"overall_score":  models.ScoreTypePrimary,
	"integrity_risk": models.ScoreTypeRisk,
}

func TestParseCondition(t *testing.T) {
	t.Run("Comparison", func(t *testing.T) {
		cond, err := parseCondition("overall_score >= 75", testScoreNames)
		require.NoError(t, err)
		require.True(t, cond.eval(Env{Scores: map[string]int{"overall_score": 75}}))
		require.False(t, cond.eval(Env{Scores: map[string]int{"overall_score": 74}}))
	})

	t.Run("AllOperators", func(t *testing.T) {
		cases := []struct {
			source string
			value  int
			want   bool
		}{
			{"overall_score > 50", 51, true},
			{"overall_score > 50", 50, false},
			{"overall_score <= 50", 50, true},
			{"overall_score < 50", 50, false},
			{"overall_score == 50", 50, true},
			{"overall_score != 50", 50, false},
			{"overall_score != 50", 49, true},
		}
		for _, tc := range cases {
			cond, err := parseCondition(tc.source, testScoreNames)
			require.NoError(t, err, tc.source)
			got := cond.eval(Env{Scores: map[string]int{"overall_score": tc.value}})
			require.Equal(t, tc.want, got, "%s with %d", tc.source, tc.value)
		}
	})

	t.Run("SeverityGuard", func(t *testing.T) {
		cond, err := parseCondition("no critical_red_flags", testScoreNames)
		require.NoError(t, err)

		require.True(t, cond.eval(Env{SeverityCounts: map[models.Severity]int{}}))
		require.True(t, cond.eval(Env{SeverityCounts: map[models.Severity]int{
			models.SeverityHigh: 2,
		}}))
		require.False(t, cond.eval(Env{SeverityCounts: map[models.Severity]int{
			models.SeverityCritical: 1,
		}}))
	})

	t.Run("Errors", func(t *testing.T) {
		bad := []string{
			"overall_score >=",
			"overall_score ~ 75",
			"overall_score >= high",
			"unknown_score >= 75",
			"no bogus_red_flags",
			"no red_flags",
			"",
		}
		for _, source := range bad {
			_, err := parseCondition(source, testScoreNames)
			require.Error(t, err, "source %q", source)
		}
	})
}

func testRules() []models.DecisionRule {
	return []models.DecisionRule{
		{Decision: "HIRE", Priority: 1, Conditions: []string{
			"overall_score >= 75", "integrity_risk < 40", "no critical_red_flags",
		}},
		{Decision: "HOLD", Priority: 2, Conditions: []string{
			"overall_score >= 60", "overall_score < 75", "no critical_red_flags",
		}},
		{Decision: "REJECT", Priority: 3},
	}
}

func TestNew(t *testing.T) {
	t.Run("CompilesOrderedRules", func(t *testing.T) {
		s, err := New(testRules(), testScoreNames)
		require.NoError(t, err)
		require.NotNil(t, s)
	})

	t.Run("OrderIndependentInput", func(t *testing.T) {
		rules := testRules()
		reversed := []models.DecisionRule{rules[2], rules[0], rules[1]}

		s, err := New(reversed, testScoreNames)
		require.NoError(t, err)

		sel, err := s.Select(Env{Scores: map[string]int{"overall_score": 90}}, false)
		require.NoError(t, err)
		require.Equal(t, "HIRE", sel.Decision)
	})

	t.Run("RequiresCatchAll", func(t *testing.T) {
		rules := testRules()[:2]
		_, err := New(rules, testScoreNames)
		require.ErrorContains(t, err, "catch-all")
	})

	t.Run("RequiresRules", func(t *testing.T) {
		_, err := New(nil, testScoreNames)
		require.ErrorContains(t, err, "no decision rules")
	})

	t.Run("RejectsBadCondition", func(t *testing.T) {
		rules := []models.DecisionRule{
			{Decision: "HIRE", Priority: 1, Conditions: []string{"overall_score >> 75"}},
			{Decision: "REJECT", Priority: 2},
		}
		_, err := New(rules, testScoreNames)
		require.ErrorContains(t, err, "decision rule HIRE")
	})
}

func TestSelect(t *testing.T) {
	s, err := New(testRules(), testScoreNames)
	require.NoError(t, err)

	env := func(overall, risk int, critical int) Env {
		return Env{
			Scores:         map[string]int{"overall_score": overall, "integrity_risk": risk},
			SeverityCounts: map[models.Severity]int{models.SeverityCritical: critical},
		}
	}

	t.Run("FirstMatchingRuleWins", func(t *testing.T) {
		sel, err := s.Select(env(90, 0, 0), false)
		require.NoError(t, err)
		require.Equal(t, "HIRE", sel.Decision)
		require.Equal(t, 1, sel.Priority)
		require.False(t, sel.AutoReject)
		require.Equal(t, []string{
			"overall_score >= 75", "integrity_risk < 40", "no critical_red_flags",
		}, sel.MatchedConditions)
	})

	t.Run("FallsToNextRule", func(t *testing.T) {
		sel, err := s.Select(env(68, 0, 0), false)
		require.NoError(t, err)
		require.Equal(t, "HOLD", sel.Decision)
		require.Equal(t, 2, sel.Priority)
	})

	t.Run("CatchAllMatchesEverything", func(t *testing.T) {
		sel, err := s.Select(env(10, 0, 0), false)
		require.NoError(t, err)
		require.Equal(t, "REJECT", sel.Decision)
		require.Equal(t, 3, sel.Priority)
	})

	t.Run("CriticalFlagBlocksHireAndHold", func(t *testing.T) {
		sel, err := s.Select(env(90, 0, 1), false)
		require.NoError(t, err)
		require.Equal(t, "REJECT", sel.Decision)
	})

	t.Run("RiskScoreBlocksHire", func(t *testing.T) {
		sel, err := s.Select(env(90, 45, 0), false)
		require.NoError(t, err)
		require.Equal(t, "REJECT", sel.Decision)
	})

	t.Run("AutoRejectOverridesScores", func(t *testing.T) {
		sel, err := s.Select(env(100, 0, 0), true)
		require.NoError(t, err)
		require.Equal(t, RejectDecision, sel.Decision)
		require.True(t, sel.AutoReject)
		require.Equal(t, 3, sel.Priority)
	})

	t.Run("ExactlyOneDecisionAcrossScoreSpace", func(t *testing.T) {
		// The catch-all guarantees selection never falls through, whatever
		// the score map holds.
		for overall := 0; overall <= 100; overall += 5 {
			for risk := 0; risk <= 100; risk += 20 {
				for critical := 0; critical <= 1; critical++ {
					sel, err := s.Select(env(overall, risk, critical), false)
					require.NoError(t, err)
					require.NotEmpty(t, sel.Decision)
				}
			}
		}
	})
}

func TestSelect_AutoRejectWithoutRejectRule(t *testing.T) {
	rules := []models.DecisionRule{
		{Decision: "HIRE", Priority: 1, Conditions: []string{"overall_score >= 75"}},
		{Decision: "DECLINE", Priority: 2},
	}
	s, err := New(rules, testScoreNames)
	require.NoError(t, err)

	sel, err := s.Select(Env{Scores: map[string]int{"overall_score": 90}}, true)
	require.NoError(t, err)
	require.Equal(t, RejectDecision, sel.Decision)
	require.True(t, sel.AutoReject)
	require.Equal(t, -1, sel.Priority)
}
