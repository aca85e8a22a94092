package main

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/hiregate/hiregate/internal/detector"
	"github.com/hiregate/hiregate/internal/models"
)

// interviewFile is the on-disk shape of one interview: ratings, transcript,
// and optionally the outputs of the external collaborators the engine
// consumes through narrow interfaces (pre-extracted facts per answer,
// classifier marks for pattern_analysis flags).
type interviewFile struct {
	InterviewID     string                    `yaml:"interview_id"`
	Ratings         []models.CompetencyRating `yaml:"ratings"`
	Transcript      []transcriptEntry         `yaml:"transcript"`
	ClassifierMarks []classifierMark          `yaml:"classifier_marks,omitempty"`
}

type transcriptEntry struct {
	AnswerID string `yaml:"answer_id"`
	Text     string `yaml:"text"`

	// Facts are pre-extracted semantic facts for cross_reference flags,
	// keyed by fact name.
	Facts map[string]string `yaml:"facts,omitempty"`
}

type classifierMark struct {
	AnswerID   string  `yaml:"answer_id"`
	RedFlag    string  `yaml:"red_flag"`
	Pattern    string  `yaml:"pattern,omitempty"`
	Confidence float64 `yaml:"confidence,omitempty"`
}

func loadInterview(path string) (*interviewFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file interviewFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing interview file %s: %w", path, err)
	}
	return &file, nil
}

func (f *interviewFile) input() models.EvaluationInput {
	input := models.EvaluationInput{
		InterviewID: f.InterviewID,
		Ratings:     f.Ratings,
	}
	for _, entry := range f.Transcript {
		input.Transcript = append(input.Transcript, models.Answer{
			AnswerID: entry.AnswerID,
			Text:     entry.Text,
		})
	}
	return input
}

// fileFactExtractor serves pre-extracted facts from interview files. It
// stands in for the upstream extraction collaborator, which is out of the
// engine's scope.
type fileFactExtractor struct {
	byAnswer map[string]map[string]string
}

var _ detector.FactExtractor = (*fileFactExtractor)(nil)

func newFileFactExtractor(files ...*interviewFile) *fileFactExtractor {
	e := &fileFactExtractor{byAnswer: map[string]map[string]string{}}
	for _, f := range files {
		for _, entry := range f.Transcript {
			if len(entry.Facts) > 0 {
				e.byAnswer[entry.AnswerID] = entry.Facts
			}
		}
	}
	return e
}

func (e *fileFactExtractor) ExtractFacts(answer models.Answer) ([]models.Fact, error) {
	stated := e.byAnswer[answer.AnswerID]
	keys := make([]string, 0, len(stated))
	for k := range stated {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	facts := make([]models.Fact, 0, len(keys))
	for _, k := range keys {
		facts = append(facts, models.Fact{Key: k, Value: stated[k]})
	}
	return facts, nil
}

// fileClassifier serves classifier marks recorded in interview files,
// standing in for the upstream NLU collaborator that pattern_analysis flags
// require.
type fileClassifier struct {
	marks map[string]map[string]classifierMark // answer id -> flag code -> mark
}

var _ detector.Classifier = (*fileClassifier)(nil)

func newFileClassifier(files ...*interviewFile) *fileClassifier {
	c := &fileClassifier{marks: map[string]map[string]classifierMark{}}
	for _, f := range files {
		for _, mark := range f.ClassifierMarks {
			if c.marks[mark.AnswerID] == nil {
				c.marks[mark.AnswerID] = map[string]classifierMark{}
			}
			c.marks[mark.AnswerID][mark.RedFlag] = mark
		}
	}
	return c
}

func (c *fileClassifier) Classify(answer models.Answer, flag models.RedFlag) (*detector.Mark, error) {
	mark, ok := c.marks[answer.AnswerID][flag.Code]
	if !ok {
		return nil, nil
	}

	confidence := mark.Confidence
	if confidence == 0 {
		confidence = 1.0
	}
	return &detector.Mark{Pattern: mark.Pattern, Confidence: confidence}, nil
}
