package models

// CompetencyRating is one interviewer- or model-assigned score for a
// dimension on a specific interview, integer 1-5 inclusive.
type CompetencyRating struct {
	DimensionCode string `yaml:"dimension" json:"dimension"`
	Value         int    `yaml:"value" json:"value"`
}

// RatingScale bounds for competency ratings.
const (
	RatingMin = 1
	RatingMax = 5
)

// Answer is one transcript entry for an interview.
type Answer struct {
	AnswerID string `yaml:"answer_id" json:"answer_id"`
	Text     string `yaml:"text" json:"text"`
}

// Fact is a semantic fact extracted from an answer by an external
// collaborator, e.g. a stated duration or team size.
type Fact struct {
	Key   string `yaml:"key" json:"key"`
	Value string `yaml:"value" json:"value"`
}

// RedFlagMatch is the runtime result of detecting a red flag against one
// answer. Matches are ephemeral: produced fresh per evaluation.
type RedFlagMatch struct {
	Code       string   `json:"code"`
	AnswerID   string   `json:"answer_id"`
	Matched    string   `json:"matched,omitempty"`
	Confidence float64  `json:"confidence"`
	Severity   Severity `json:"severity"`
}

// RiskLevel annotates a risk score that crossed a configured threshold.
type RiskLevel string

const (
	RiskLevelWarning  RiskLevel = "warning"
	RiskLevelCritical RiskLevel = "critical"
)

// RiskAnnotation records a risk score exceeding its warning or critical
// threshold.
type RiskAnnotation struct {
	Score     string    `json:"score"`
	Level     RiskLevel `json:"level"`
	Value     int       `json:"value"`
	Threshold int       `json:"threshold"`
}

// EvaluationInput is everything the engine consumes for one interview.
type EvaluationInput struct {
	InterviewID string             `yaml:"interview_id" json:"interview_id"`
	Ratings     []CompetencyRating `yaml:"ratings" json:"ratings"`
	Transcript  []Answer           `yaml:"transcript" json:"transcript"`
}

// EvaluationResult is the engine's complete output for one interview.
type EvaluationResult struct {
	InterviewID          string           `json:"interview_id,omitempty"`
	Scores               map[string]int   `json:"scores"`
	RedFlagMatches       []RedFlagMatch   `json:"red_flag_matches"`
	RiskAnnotations      []RiskAnnotation `json:"risk_annotations,omitempty"`
	HasAutoRejectTrigger bool             `json:"has_auto_reject_trigger"`
	Decision             string           `json:"decision"`
	MatchedRulePriority  int              `json:"matched_rule_priority"`
}

// OverallScoreName is the reserved name of the weight-normalized composite
// score in the result score map.
const OverallScoreName = "overall_score"

// HasCriticalMatch reports whether any match in the result carries critical
// severity.
func (r *EvaluationResult) HasCriticalMatch() bool {
	for _, m := range r.RedFlagMatches {
		if m.Severity == SeverityCritical {
			return true
		}
	}
	return false
}
