package quiz

import (
	"errors"
	"math/rand/v2"
	"sync"
)

var ErrInvalidCount = errors.New("number of questions must be at least 1")

// Generator builds quizzes from plain text. It is safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New returns a Generator. A zero seed draws a random one, so output differs
// between runs; any other seed makes generation reproducible.
func New(seed uint64) *Generator {
	var src rand.Source
	if seed == 0 {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	} else {
		src = rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	}
	return &Generator{rng: rand.New(src)}
}

// Generate returns a quiz of exactly n questions: max(1, 60%) multiple
// choice and the rest short answer, drawn from distinct facts. When facts
// run out the remainder comes from generic questions over random sentences.
func (g *Generator) Generate(content, title string, n int) (Quiz, error) {
	if n < 1 {
		return Quiz{}, ErrInvalidCount
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	r := g.rng

	processed := Preprocess(content)
	facts := ExtractFacts(processed)

	numMC := max(1, int(float64(n)*0.6))
	numSA := n - numMC

	questions := make([]Question, 0, n)
	for range numMC {
		if len(facts) == 0 {
			break
		}
		var fact string
		fact, facts = takeRandom(r, facts)
		if q, ok := multipleChoice(r, fact, processed); ok {
			questions = append(questions, q)
		}
	}
	for range numSA {
		if len(facts) == 0 {
			break
		}
		var fact string
		fact, facts = takeRandom(r, facts)
		questions = append(questions, shortAnswer(fact))
	}

	for len(questions) < n {
		q, ok := g.fallback(r, processed, len(questions)%2 == 0)
		if !ok {
			q = placeholder(title, processed)
		}
		questions = append(questions, q)
	}

	r.Shuffle(len(questions), func(i, j int) { questions[i], questions[j] = questions[j], questions[i] })

	return Quiz{
		Title:          title,
		SourceMaterial: excerpt(content),
		Questions:      questions[:n],
	}, nil
}

// fallback alternates generic multiple choice and short answer. A sentence
// without alphabetic terms cannot make a multiple-choice item, so that case
// drops to short answer.
func (g *Generator) fallback(r *rand.Rand, content string, preferMC bool) (Question, bool) {
	if preferMC {
		if q, ok := genericMultipleChoice(r, content); ok {
			return q, true
		}
	}
	return genericShortAnswer(r, content)
}

// MultipleChoice builds a fill-in-the-blank question from fact, taking
// distractors from content. ok is false when fact has no usable term.
func (g *Generator) MultipleChoice(fact, content string) (Question, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return multipleChoice(g.rng, fact, content)
}

// ShortAnswer builds a question whose answer is the whole fact.
func (g *Generator) ShortAnswer(fact string) Question {
	return shortAnswer(fact)
}

// Distractors returns k wrong answers for answer drawn from content, padded
// from a fixed pool when content is too sparse.
func (g *Generator) Distractors(answer, content string, k int) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return distractors(g.rng, answer, content, k)
}

func takeRandom(r *rand.Rand, pool []string) (string, []string) {
	i := r.IntN(len(pool))
	picked := pool[i]
	return picked, append(pool[:i:i], pool[i+1:]...)
}
