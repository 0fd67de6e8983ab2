// Package scoring computes weighted evaluation scores. All values are returned unrounded.
package scoring

import (
	"fmt"

	"property-evaluation-service/internal/domain"
)

const (
	ExpertThreshold = 80.0
	GoodThreshold   = 60.0
)

// MaxWeightOf returns the highest answer weight of a question.
func MaxWeightOf(q domain.Question) (float64, error) {
	if len(q.Answers) == 0 {
		return 0, fmt.Errorf("question %q: %w", q.ID, domain.ErrInvalidQuestion)
	}
	max := q.Answers[0].Weight
	for _, a := range q.Answers[1:] {
		if a.Weight > max {
			max = a.Weight
		}
	}
	return max, nil
}

// QuestionMaxScore is the achievable ceiling of a question.
func QuestionMaxScore(q domain.Question) (float64, error) {
	w, err := MaxWeightOf(q)
	if err != nil {
		return 0, err
	}
	return w * q.Weight, nil
}

func CategoryMaxScore(c domain.Category) (float64, error) {
	total := 0.0
	for _, q := range c.Questions {
		s, err := QuestionMaxScore(q)
		if err != nil {
			return 0, err
		}
		total += s
	}
	return total, nil
}

// TotalMaxScore is the global denominator of an evaluation.
func TotalMaxScore(categories []domain.Category) (float64, error) {
	total := 0.0
	for _, c := range categories {
		s, err := CategoryMaxScore(c)
		if err != nil {
			return 0, err
		}
		total += s
	}
	return total, nil
}

// ScoreOf sums answerWeight*questionWeight over the answers.
func ScoreOf(answers []domain.UserAnswer) float64 {
	total := 0.0
	for _, a := range answers {
		total += a.AnswerWeight * a.QuestionWeight
	}
	return total
}

// PercentageOf returns score as a percentage of maxScore, or 0 when maxScore is not positive.
func PercentageOf(score, maxScore float64) float64 {
	if maxScore > 0 {
		return score / maxScore * 100
	}
	return 0
}

// CategoryScoreOf scores the answers that belong to the category.
func CategoryScoreOf(c domain.Category, answers []domain.UserAnswer) (domain.CategoryScore, error) {
	maxScore, err := CategoryMaxScore(c)
	if err != nil {
		return domain.CategoryScore{}, err
	}

	inCategory := make(map[string]struct{}, len(c.Questions))
	for _, q := range c.Questions {
		inCategory[q.ID] = struct{}{}
	}
	matched := make([]domain.UserAnswer, 0, len(c.Questions))
	for _, a := range answers {
		if _, ok := inCategory[a.QuestionID]; ok {
			matched = append(matched, a)
		}
	}

	score := ScoreOf(matched)
	return domain.CategoryScore{
		CategoryID:        c.ID,
		CategoryName:      c.Name,
		Score:             score,
		MaxScore:          maxScore,
		Percentage:        PercentageOf(score, maxScore),
		QuestionsAnswered: len(matched),
		TotalQuestions:    len(c.Questions),
	}, nil
}

// Classify maps a percentage to its tier. Lower bounds are inclusive.
func Classify(percentage float64) (domain.Level, domain.Badge) {
	switch {
	case percentage >= ExpertThreshold:
		return domain.LevelExpert, domain.BadgeGold
	case percentage >= GoodThreshold:
		return domain.LevelGood, domain.BadgeSilver
	default:
		return domain.LevelNovice, domain.BadgeBronze
	}
}

// Evaluate scores the answers against the categories.
func Evaluate(categories []domain.Category, answers []domain.UserAnswer) (domain.EvaluationResult, error) {
	maxScore, err := TotalMaxScore(categories)
	if err != nil {
		return domain.EvaluationResult{}, err
	}
	questions := 0
	for _, c := range categories {
		questions += len(c.Questions)
	}
	return evaluate(categories, answers, maxScore, questions)
}

func evaluate(categories []domain.Category, answers []domain.UserAnswer, maxScore float64, questions int) (domain.EvaluationResult, error) {
	categoryScores := make([]domain.CategoryScore, 0, len(categories))
	for _, c := range categories {
		cs, err := CategoryScoreOf(c, answers)
		if err != nil {
			return domain.EvaluationResult{}, err
		}
		categoryScores = append(categoryScores, cs)
	}

	total := ScoreOf(answers)
	percentage := PercentageOf(total, maxScore)
	level, badge := Classify(percentage)
	return domain.EvaluationResult{
		TotalScore:       total,
		MaxPossibleScore: maxScore,
		Percentage:       percentage,
		Level:            level,
		Badge:            badge,
		CompletionRate:   PercentageOf(float64(len(answers)), float64(questions)),
		CategoryScores:   categoryScores,
	}, nil
}
