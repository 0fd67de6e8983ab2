package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"property-evaluation-service/internal/domain"
	"property-evaluation-service/internal/report"
	"property-evaluation-service/internal/scoring"
)

// selection is one line of an answers file.
type selection struct {
	QuestionID string `json:"questionId"`
	AnswerID   string `json:"answerId"`
}

// NewEvaluateCmd scores a set of answers against a question tree offline and prints the report.
func NewEvaluateCmd() *cobra.Command {
	var treePath, answersPath, label string
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Score answers against a property type and print the report",
		RunE: func(cmd *cobra.Command, args []string) error {
			var pt domain.PropertyType
			if err := readJSON(treePath, &pt); err != nil {
				return fmt.Errorf("read tree: %w", err)
			}
			var selections []selection
			if err := readJSON(answersPath, &selections); err != nil {
				return fmt.Errorf("read answers: %w", err)
			}

			result, err := evaluateSelections(pt, selections)
			if err != nil {
				return err
			}
			if label == "" {
				label = pt.Name
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), report.FormatText(result, label, time.Now()))
			return err
		},
	}
	cmd.Flags().StringVar(&treePath, "tree", "", "path to the property type JSON")
	cmd.Flags().StringVar(&answersPath, "answers", "", "path to a JSON array of {questionId, answerId}")
	cmd.Flags().StringVar(&label, "label", "", "label printed in the report header")
	_ = cmd.MarkFlagRequired("tree")
	_ = cmd.MarkFlagRequired("answers")
	return cmd
}

// evaluateSelections resolves selections against the tree, copying weights the way an
// interactive evaluation would. A later selection for the same question wins.
func evaluateSelections(pt domain.PropertyType, selections []selection) (domain.EvaluationResult, error) {
	engine, err := scoring.NewEngine(pt)
	if err != nil {
		return domain.EvaluationResult{}, err
	}
	questions := make(map[string]domain.Question, engine.TotalQuestions())
	for _, q := range pt.Questions() {
		questions[q.ID] = q
	}

	answers := make([]domain.UserAnswer, 0, len(selections))
	position := make(map[string]int, len(selections))
	for _, s := range selections {
		q, ok := questions[s.QuestionID]
		if !ok {
			return domain.EvaluationResult{}, fmt.Errorf("question %q: %w", s.QuestionID, domain.ErrQuestionNotFound)
		}
		choice, ok := q.FindAnswer(s.AnswerID)
		if !ok {
			return domain.EvaluationResult{}, fmt.Errorf("question %q, answer %q: %w", q.ID, s.AnswerID, domain.ErrAnswerNotFound)
		}
		answer := domain.UserAnswer{
			QuestionID:     q.ID,
			AnswerID:       choice.ID,
			AnswerWeight:   choice.Weight,
			QuestionWeight: q.Weight,
		}
		if i, seen := position[q.ID]; seen {
			answers[i] = answer
			continue
		}
		position[q.ID] = len(answers)
		answers = append(answers, answer)
	}
	return engine.Evaluate(answers)
}

func readJSON(path string, dst any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}
