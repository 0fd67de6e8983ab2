package domain

import "time"

// Answer is one selectable choice of a question. Weight is its quality contribution.
type Answer struct {
	ID     string  `json:"id"`
	Text   string  `json:"text"`
	Weight float64 `json:"weight"`
}

// Question models a weighted multiple-choice question. Every question has at least one answer.
type Question struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Weight  float64  `json:"weight"`
	Answers []Answer `json:"answers"`
}

// FindAnswer returns the answer with the given ID.
func (q Question) FindAnswer(answerID string) (Answer, bool) {
	for _, a := range q.Answers {
		if a.ID == answerID {
			return a, true
		}
	}
	return Answer{}, false
}

// Category groups questions. Names holds localized names keyed by locale.
type Category struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Names     map[string]string `json:"names,omitempty"`
	Questions []Question        `json:"questions"`
}

// DisplayName returns the localized name, falling back to Name.
func (c Category) DisplayName(locale string) string {
	if name, ok := c.Names[locale]; ok && name != "" {
		return name
	}
	return c.Name
}

// PropertyType is the read-only question tree an evaluation runs against.
type PropertyType struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Categories []Category `json:"categories"`
}

// QuestionCount returns the number of questions across all categories.
func (p PropertyType) QuestionCount() int {
	n := 0
	for _, c := range p.Categories {
		n += len(c.Questions)
	}
	return n
}

// Questions flattens the tree in category order.
func (p PropertyType) Questions() []Question {
	out := make([]Question, 0, p.QuestionCount())
	for _, c := range p.Categories {
		out = append(out, c.Questions...)
	}
	return out
}

// UserAnswer is the selection for a question, with weights copied at selection time.
type UserAnswer struct {
	QuestionID     string  `json:"questionId"`
	AnswerID       string  `json:"answerId"`
	AnswerWeight   float64 `json:"answerWeight"`
	QuestionWeight float64 `json:"questionWeight"`
}

// Screen is a state of the evaluation flow.
type Screen string

const (
	ScreenStart        Screen = "start"
	ScreenPropertyInfo Screen = "property-info"
	ScreenQuestions    Screen = "questions"
	ScreenFinal        Screen = "final"
)

// EvaluationSession is the persisted in-progress state. Timestamp is epoch milliseconds.
type EvaluationSession struct {
	Answers       []UserAnswer `json:"answers"`
	QuestionIndex int          `json:"questionIndex"`
	Screen        Screen       `json:"screen"`
	Timestamp     int64        `json:"timestamp"`
}

// PropertyInfo describes the evaluated property. Optional numeric fields are nil when not provided.
type PropertyInfo struct {
	Name             string   `json:"name"`
	Location         string   `json:"location,omitempty"`
	Surface          *float64 `json:"surface,omitempty"`
	Floors           *int     `json:"floors,omitempty"`
	ConstructionYear *int     `json:"constructionYear,omitempty"`
}

// Level is the qualitative tier of an evaluation.
type Level string

const (
	LevelNovice Level = "Novice"
	LevelGood   Level = "Good"
	LevelExpert Level = "Expert"
)

// Badge is the level-specific badge identifier.
type Badge string

const (
	BadgeBronze Badge = "bronze"
	BadgeSilver Badge = "silver"
	BadgeGold   Badge = "gold"
)

// CategoryScore is the per-category breakdown of a result.
type CategoryScore struct {
	CategoryID        string  `json:"categoryId"`
	CategoryName      string  `json:"categoryName"`
	Score             float64 `json:"score"`
	MaxScore          float64 `json:"maxScore"`
	Percentage        float64 `json:"percentage"`
	QuestionsAnswered int     `json:"questionsAnswered"`
	TotalQuestions    int     `json:"totalQuestions"`
}

// EvaluationResult is the terminal output of an evaluation. Values are unrounded.
type EvaluationResult struct {
	TotalScore       float64         `json:"totalScore"`
	MaxPossibleScore float64         `json:"maxPossibleScore"`
	Percentage       float64         `json:"percentage"`
	Level            Level           `json:"level"`
	Badge            Badge           `json:"badge"`
	CompletionRate   float64         `json:"completionRate"`
	CategoryScores   []CategoryScore `json:"categoryScores"`
}

// EvaluationRecord is what gets durably saved once an evaluation completes.
type EvaluationRecord struct {
	ID           string           `json:"id"`
	Scope        string           `json:"scope"`
	PropertyID   string           `json:"propertyId"`
	PropertyType PropertyType     `json:"propertyType"`
	Answers      []UserAnswer     `json:"answers"`
	Result       EvaluationResult `json:"result"`
	PropertyInfo PropertyInfo     `json:"propertyInfo"`
	CompletedAt  time.Time        `json:"completedAt"`
}
