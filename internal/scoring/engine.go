package scoring

import "property-evaluation-service/internal/domain"

// Engine scores answers for one property type. The tree is validated once and the
// global denominator stays fixed for the lifetime of the engine.
type Engine struct {
	categories []domain.Category
	maxScore   float64
	questions  int
}

// NewEngine validates the tree and precomputes the denominator.
func NewEngine(pt domain.PropertyType) (*Engine, error) {
	maxScore, err := TotalMaxScore(pt.Categories)
	if err != nil {
		return nil, err
	}
	return &Engine{
		categories: pt.Categories,
		maxScore:   maxScore,
		questions:  pt.QuestionCount(),
	}, nil
}

func (e *Engine) MaxPossibleScore() float64 {
	return e.maxScore
}

func (e *Engine) TotalQuestions() int {
	return e.questions
}

func (e *Engine) Evaluate(answers []domain.UserAnswer) (domain.EvaluationResult, error) {
	return evaluate(e.categories, answers, e.maxScore, e.questions)
}
