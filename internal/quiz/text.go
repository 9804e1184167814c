package quiz

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/samber/lo"
)

const (
	minFactLen = 20 // fragments must be longer than this after trimming
	factTarget = 10
)

var (
	reSpaces      = regexp.MustCompile(`\s+`)
	reDisallowed  = regexp.MustCompile(`[^\p{L}\p{N}_\s.,;:?!()-]`)
	reSentenceEnd = regexp.MustCompile(`[.!?]`)
	reLinkingVerb = regexp.MustCompile(`(?i)\b(is|are|was|were|has|have|had|can|could|will|would|should|may|might)\b`)
	rePersonal    = regexp.MustCompile(`(?i)\b(i|we|you)\b`)
	reWord        = regexp.MustCompile(`[\p{L}\p{N}_]+`)
)

// Preprocess collapses whitespace and strips everything but word characters
// and basic punctuation.
func Preprocess(content string) string {
	content = reSpaces.ReplaceAllString(content, " ")
	content = reDisallowed.ReplaceAllString(content, "")
	return strings.TrimSpace(content)
}

// Sentences splits on sentence-ending punctuation and keeps trimmed fragments
// longer than 20 characters, in source order.
func Sentences(content string) []string {
	parts := reSentenceEnd.Split(content, -1)
	return lo.FilterMap(parts, func(s string, _ int) (string, bool) {
		s = strings.TrimSpace(s)
		return s, utf8.RuneCountInString(s) > minFactLen
	})
}

// ExtractFacts returns sentences that read like statements of fact. When
// fewer than ten qualify, the longest remaining sentences fill the list up
// to ten.
func ExtractFacts(content string) []string {
	sentences := Sentences(content)
	facts := lo.Filter(sentences, func(s string, _ int) bool { return isStrongFact(s) })
	if len(facts) >= factTarget {
		return facts
	}
	rest := lo.Filter(sentences, func(s string, _ int) bool { return !lo.Contains(facts, s) })
	sort.SliceStable(rest, func(i, j int) bool {
		return utf8.RuneCountInString(rest[i]) > utf8.RuneCountInString(rest[j])
	})
	need := factTarget - len(facts)
	if need > len(rest) {
		need = len(rest)
	}
	return append(facts, rest[:need]...)
}

func isStrongFact(s string) bool {
	return reLinkingVerb.MatchString(s) && !rePersonal.MatchString(s)
}

func words(content string) []string {
	return reWord.FindAllString(content, -1)
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }

// excerpt keeps the first 500 characters of the raw source.
func excerpt(content string) string {
	const max = 500
	if runeLen(content) <= max {
		return content
	}
	return string([]rune(content)[:max]) + "..."
}
