package quiz

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
	"unicode"

	"github.com/samber/lo"
)

var stopWords = []string{
	"about", "after", "again", "below", "could", "every",
	"first", "found", "great", "house", "large", "learn",
	"never", "other", "place", "plant", "point", "right",
	"small", "sound", "spell", "still", "study", "their",
	"there", "these", "thing", "think", "three", "water",
	"where", "which", "world", "would", "write",
}

var genericDistractors = []string{
	"option", "example", "factor", "element", "component",
	"feature", "aspect", "quality", "property", "attribute",
}

// shortAnswerRule turns a statement into a question. Rules are tried in
// order and the first match wins.
type shortAnswerRule struct {
	pattern  *regexp.Regexp
	template string // %s is the subject
}

var shortAnswerRules = []shortAnswerRule{
	{regexp.MustCompile(`(?is)^(.+) is (.+)$`), "What is %s?"},
	{regexp.MustCompile(`(?is)^(.+) are (.+)$`), "What are %s?"},
	{regexp.MustCompile(`(?is)^(.+) was (.+)$`), "What was %s?"},
	{regexp.MustCompile(`(?is)^(.+) were (.+)$`), "What were %s?"},
	{regexp.MustCompile(`(?is)^(.+) has (.+)$`), "What does %s have?"},
	{regexp.MustCompile(`(?is)^(.+) have (.+)$`), "What do %s have?"},
}

var genericShortAnswerTemplates = []string{
	"Explain what is meant by: '%s'",
	"What is the significance of: '%s'",
	"Summarize the meaning of: '%s'",
	"What concept is described in: '%s'",
	"Describe the importance of: '%s'",
}

// ToQuestion rewrites a statement using the first matching rule, or asks
// for an explanation when none applies.
func ToQuestion(statement string) string {
	statement = strings.TrimSpace(statement)
	for _, rule := range shortAnswerRules {
		if m := rule.pattern.FindStringSubmatch(statement); m != nil {
			return fmt.Sprintf(rule.template, m[1])
		}
	}
	return "Explain the following concept: " + statement
}

// termPunct is stripped from candidate terms so answers match the bare words
// distractors are drawn from.
const termPunct = ",;:()-.!?\"'"

func keyTerms(fact string) []string {
	return lo.FilterMap(strings.Fields(fact), func(w string, _ int) (string, bool) {
		w = strings.Trim(w, termPunct)
		return w, runeLen(w) > 4 && !lo.Contains(stopWords, strings.ToLower(w))
	})
}

func alphaTerms(sentence string) []string {
	return lo.Filter(strings.Fields(sentence), func(w string, _ int) bool {
		return runeLen(w) > 4 && lo.EveryBy([]rune(w), unicode.IsLetter)
	})
}

func multipleChoice(r *rand.Rand, fact, content string) (Question, bool) {
	terms := keyTerms(fact)
	if len(terms) == 0 {
		return Question{}, false
	}
	answer := terms[r.IntN(len(terms))]
	return Question{
		Text:          strings.Replace(fact, answer, Blank, 1),
		Kind:          MultipleChoice,
		CorrectAnswer: answer,
		Options:       options(r, answer, content),
	}, true
}

func shortAnswer(fact string) Question {
	return Question{
		Text:          ToQuestion(fact),
		Kind:          ShortAnswer,
		CorrectAnswer: fact,
	}
}

func genericMultipleChoice(r *rand.Rand, content string) (Question, bool) {
	sentences := Sentences(content)
	if len(sentences) == 0 {
		return Question{}, false
	}
	sentence := sentences[r.IntN(len(sentences))]
	terms := alphaTerms(sentence)
	if len(terms) == 0 {
		return Question{}, false
	}
	answer := terms[r.IntN(len(terms))]
	return Question{
		Text: fmt.Sprintf("Which of the following terms is mentioned in the context of: '%s'?",
			strings.Replace(sentence, answer, Blank, 1)),
		Kind:          MultipleChoice,
		CorrectAnswer: answer,
		Options:       options(r, answer, content),
	}, true
}

func genericShortAnswer(r *rand.Rand, content string) (Question, bool) {
	sentences := Sentences(content)
	if len(sentences) == 0 {
		return Question{}, false
	}
	sentence := sentences[r.IntN(len(sentences))]
	tmpl := genericShortAnswerTemplates[r.IntN(len(genericShortAnswerTemplates))]
	return Question{
		Text:          fmt.Sprintf(tmpl, sentence),
		Kind:          ShortAnswer,
		CorrectAnswer: sentence,
	}, true
}

// placeholder is used only when the material has no usable sentence at all.
func placeholder(title, content string) Question {
	subject := strings.TrimSpace(title)
	if subject == "" {
		subject = "the uploaded material"
	}
	answer := content
	if answer == "" {
		answer = subject
	}
	return Question{
		Text:          fmt.Sprintf("Summarize the main ideas of: '%s'", subject),
		Kind:          ShortAnswer,
		CorrectAnswer: answer,
	}
}

func options(r *rand.Rand, answer, content string) []string {
	opts := append([]string{answer}, distractors(r, answer, content, OptionCount-1)...)
	r.Shuffle(len(opts), func(i, j int) { opts[i], opts[j] = opts[j], opts[i] })
	return opts
}

func distractors(r *rand.Rand, answer, content string, k int) []string {
	lowAnswer := strings.ToLower(answer)
	n := runeLen(answer)
	similar := lo.Uniq(lo.FilterMap(words(content), func(w string, _ int) (string, bool) {
		lw := strings.ToLower(w)
		d := runeLen(w) - n
		return lw, d >= -2 && d <= 2 && lw != lowAnswer && runeLen(w) > 3
	}))
	if len(similar) >= k {
		return sample(r, similar, k)
	}
	out := similar
	for _, i := range r.Perm(len(genericDistractors)) {
		if len(out) == k {
			break
		}
		g := genericDistractors[i]
		if g == lowAnswer || lo.Contains(out, g) {
			continue
		}
		out = append(out, g)
	}
	return out
}

func sample(r *rand.Rand, from []string, k int) []string {
	idx := r.Perm(len(from))[:k]
	return lo.Map(idx, func(i int, _ int) string { return from[i] })
}
