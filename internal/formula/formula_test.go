package formula

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("Ident", func(t *testing.T) {
		expr, err := Parse("communication")
		require.NoError(t, err)
		require.Equal(t, &Ident{Name: "communication"}, expr)
	})

	t.Run("Scale", func(t *testing.T) {
		expr, err := Parse("communication * 20")
		require.NoError(t, err)
		require.Equal(t, &Scale{Operand: &Ident{Name: "communication"}, Factor: 20}, expr)
	})

	t.Run("ScaleFractional", func(t *testing.T) {
		expr, err := Parse("communication * 12.5")
		require.NoError(t, err)
		require.Equal(t, &Scale{Operand: &Ident{Name: "communication"}, Factor: 12.5}, expr)
	})

	t.Run("Average", func(t *testing.T) {
		expr, err := Parse("average(teamwork, adaptability) * 20")
		require.NoError(t, err)
		require.Equal(t, &Scale{
			Operand: &Average{Names: []string{"teamwork", "adaptability"}},
			Factor:  20,
		}, expr)
	})

	t.Run("FromRedFlags", func(t *testing.T) {
		expr, err := Parse("from_red_flags(RF_AGGRESSION, RF_EGO)")
		require.NoError(t, err)
		require.Equal(t, &FromRedFlags{Codes: []string{"RF_AGGRESSION", "RF_EGO"}}, expr)
	})

	t.Run("WhitespaceInsensitive", func(t *testing.T) {
		a, err := Parse("average( teamwork ,adaptability )*20")
		require.NoError(t, err)
		b, err := Parse("average(teamwork, adaptability) * 20")
		require.NoError(t, err)
		require.Equal(t, b, a)
	})
}

func TestParse_SyntaxErrors(t *testing.T) {
	inputs := []string{
		"",
		"average(",
		"average()",
		"average(a,)",
		"communication *",
		"communication * twenty",
		"median(a, b)",
		"a * 20 trailing",
		"a + b",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			_, err := Parse(input)
			require.Error(t, err)

			var syntaxErr *SyntaxError
			require.ErrorAs(t, err, &syntaxErr)
			require.Equal(t, input, syntaxErr.Formula)
		})
	}
}

func TestEval(t *testing.T) {
	ratings := map[string]int{"communication": 4, "teamwork": 5, "adaptability": 2}

	t.Run("Ident", func(t *testing.T) {
		v, err := (&Ident{Name: "communication"}).Eval(&Context{Ratings: ratings})
		require.NoError(t, err)
		require.Equal(t, 4.0, v)
	})

	t.Run("IdentUnknown", func(t *testing.T) {
		_, err := (&Ident{Name: "charisma"}).Eval(&Context{Ratings: ratings})

		var unknown *UnknownIdentifierError
		require.ErrorAs(t, err, &unknown)
		require.Equal(t, "charisma", unknown.Name)
	})

	t.Run("Scale", func(t *testing.T) {
		expr := &Scale{Operand: &Ident{Name: "communication"}, Factor: 20}
		v, err := expr.Eval(&Context{Ratings: ratings})
		require.NoError(t, err)
		require.Equal(t, 80.0, v)
	})

	t.Run("Average", func(t *testing.T) {
		expr := &Average{Names: []string{"teamwork", "adaptability"}}
		v, err := expr.Eval(&Context{Ratings: ratings})
		require.NoError(t, err)
		require.Equal(t, 3.5, v)
	})

	t.Run("AverageUnknown", func(t *testing.T) {
		expr := &Average{Names: []string{"teamwork", "charisma"}}
		_, err := expr.Eval(&Context{Ratings: ratings})

		var unknown *UnknownIdentifierError
		require.ErrorAs(t, err, &unknown)
	})
}

func TestEval_FromRedFlags(t *testing.T) {
	impacts := map[string]int{"RF_A": 40, "RF_B": -30, "RF_C": 80}
	ctx := &Context{
		RiskImpact: func(code string) (int, bool) {
			v, ok := impacts[code]
			return v, ok
		},
	}

	t.Run("SumsAbsoluteImpacts", func(t *testing.T) {
		expr := &FromRedFlags{Codes: []string{"RF_A", "RF_B"}}
		v, err := expr.Eval(ctx)
		require.NoError(t, err)
		require.Equal(t, 70.0, v)
	})

	t.Run("InactiveFlagsContributeNothing", func(t *testing.T) {
		expr := &FromRedFlags{Codes: []string{"RF_A", "RF_MISSING"}}
		v, err := expr.Eval(ctx)
		require.NoError(t, err)
		require.Equal(t, 40.0, v)
	})

	t.Run("TotalCappedAt100", func(t *testing.T) {
		expr := &FromRedFlags{Codes: []string{"RF_A", "RF_B", "RF_C"}}
		v, err := expr.Eval(ctx)
		require.NoError(t, err)
		require.Equal(t, float64(RiskContributionCap), v)
	})

	t.Run("NilRiskImpactIsZero", func(t *testing.T) {
		expr := &FromRedFlags{Codes: []string{"RF_A"}}
		v, err := expr.Eval(&Context{})
		require.NoError(t, err)
		require.Equal(t, 0.0, v)
	})
}

func TestRefs(t *testing.T) {
	expr, err := Parse("average(teamwork, adaptability) * 20")
	require.NoError(t, err)
	require.Equal(t, []string{"teamwork", "adaptability"}, expr.CompetencyRefs())
	require.Empty(t, expr.FlagRefs())

	expr, err = Parse("from_red_flags(RF_A, RF_B)")
	require.NoError(t, err)
	require.Empty(t, expr.CompetencyRefs())
	require.Equal(t, []string{"RF_A", "RF_B"}, expr.FlagRefs())
}
