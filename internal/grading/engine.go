package grading

// Q is the minimal view of a question needed for grading.
type Q struct {
	Kind          string // multiple_choice | short_answer
	CorrectAnswer string
}

// Result is the outcome of grading a single response.
type Result struct {
	Correct  bool
	Feedback []string // optional notes
}

// Strategy grades one kind of question.
type Strategy interface {
	Grade(q Q, response string) Result
}

// Grader routes by question kind to the correct Strategy. Grading is pure:
// the same question and response always give the same Result.
type Grader interface {
	Grade(q Q, response string) Result
}

type defaultGrader struct {
	strategies map[string]Strategy
}

func (g *defaultGrader) Grade(q Q, response string) Result {
	s, ok := g.strategies[q.Kind]
	if !ok {
		return Result{Feedback: []string{"no strategy available"}}
	}
	return s.Grade(q, response)
}

// Engine options

type Option func(*config)

type config struct {
	MinOverlap float64 // share of answer words a short answer must contain
}

func WithMinOverlap(f float64) Option { return func(c *config) { c.MinOverlap = f } }

// NewDefaultGrader installs the built-in strategies.
func NewDefaultGrader(opts ...Option) Grader {
	cfg := &config{MinOverlap: 0.5}
	for _, o := range opts {
		o(cfg)
	}
	return &defaultGrader{
		strategies: map[string]Strategy{
			"multiple_choice": exactChoiceStrategy{},
			"short_answer":    wordOverlapStrategy{minOverlap: cfg.MinOverlap},
		},
	}
}

// --- Strategies ---

type exactChoiceStrategy struct{}

func (exactChoiceStrategy) Grade(q Q, response string) Result {
	return Result{Correct: response == q.CorrectAnswer}
}

// wordOverlapStrategy accepts a response containing at least minOverlap of
// the distinct lowercase words of the correct answer. No stemming.
type wordOverlapStrategy struct{ minOverlap float64 }

func (s wordOverlapStrategy) Grade(q Q, response string) Result {
	want := wordSet(q.CorrectAnswer)
	got := wordSet(response)
	hits := overlap(want, got)
	res := Result{Correct: float64(hits) >= float64(len(want))*s.minOverlap}
	if !res.Correct && hits > 0 {
		res.Feedback = append(res.Feedback, "partially matches the expected answer")
	}
	return res
}
