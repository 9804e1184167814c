// Package explain writes a templated, tutor-style walkthrough of extracted
// text.
package explain

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/samber/lo"
)

type Level string

const (
	Simple   Level = "simple"
	Medium   Level = "medium"
	Advanced Level = "advanced"
)

// ParseLevel maps unknown values to Medium.
func ParseLevel(s string) Level {
	switch Level(strings.ToLower(strings.TrimSpace(s))) {
	case Simple:
		return Simple
	case Advanced:
		return Advanced
	default:
		return Medium
	}
}

const (
	maxChars     = 10000
	truncateNote = "(Note: The explanation is based on the first part of the document due to its length.)\n\n"
	emptyMessage = "I don't see any content to explain. Please upload some material first."
)

var (
	reManyNewlines = regexp.MustCompile(`\n{3,}`)
	reManySpaces   = regexp.MustCompile(` {2,}`)
	rePageLine     = regexp.MustCompile(`(?m)^\s*Page \d+\s*$`)
	reChapterLine  = regexp.MustCompile(`(?m)^\s*Chapter \d+\s*$`)
	reSentence     = regexp.MustCompile(`^[^.!?]*[.!?]?`)
)

// Preprocess normalizes whitespace, repairs fi/fl ligatures and drops bare
// "Page N" and "Chapter N" lines.
func Preprocess(text string) string {
	text = reManyNewlines.ReplaceAllString(text, "\n\n")
	text = reManySpaces.ReplaceAllString(text, " ")
	text = strings.NewReplacer("ﬁ", "fi", "ﬂ", "fl").Replace(text)
	text = rePageLine.ReplaceAllString(text, "")
	text = reChapterLine.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// Generate explains text at the given level. filename, when known, hints
// at the subject.
func Generate(text string, level Level, filename string) string {
	processed := Preprocess(text)
	if processed == "" {
		return emptyMessage
	}
	note := ""
	if r := []rune(processed); len(r) > maxChars {
		processed = string(r[:maxChars])
		note = truncateNote
	}
	subject := IdentifySubject(processed, filename)
	paras := paragraphs(processed)

	switch level {
	case Simple:
		return note + simple(paras, subject)
	case Advanced:
		return note + advanced(paras, subject)
	default:
		return note + walkthrough(processed, paras, subject)
	}
}

func paragraphs(text string) []string {
	return lo.FilterMap(strings.Split(text, "\n\n"), func(p string, _ int) (string, bool) {
		p = strings.TrimSpace(p)
		return p, p != ""
	})
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// gist is the first sentence of a paragraph, flattened to one line.
func gist(p string) string {
	p = strings.Join(strings.Fields(p), " ")
	return strings.TrimSpace(clip(reSentence.FindString(p), 160))
}

func walkthrough(text string, paras []string, subject string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Alright, let's dive into this material on %s! I'll break it down for you step-by-step, just like we would in class. Don't worry if it seems tricky at first, we'll figure it out together.\n\n", subject)
	b.WriteString("Based on the text provided, here are the main points I see:\n\n")
	for i, p := range paras[:min(len(paras), 5)] {
		fmt.Fprintf(&b, "**Paragraph %d:** This part discusses '%s...'. The main idea: %s\n", i+1, clip(p, 80), gist(p))
	}
	ex := subjectExamples(subject, text)
	b.WriteString(ex.example)
	b.WriteString(ex.summary)
	b.WriteString("\n\nSo, that's a walkthrough of the key ideas in the material provided! How does that sound? Remember, practice makes perfect. If any part is still unclear, please ask! I'm here to help you understand.")
	return b.String()
}

func simple(paras []string, subject string) string {
	first := ""
	if len(paras) > 0 {
		first = paras[0]
	}
	return fmt.Sprintf("Hi there! Let's look at this %s topic. It's basically saying that... '%s...'. Think of it as one big idea: %s Does that help a bit?",
		subject, clip(first, 100), gist(first))
}

func advanced(paras []string, subject string) string {
	concepts := lo.Map(paras[:min(len(paras), 3)], func(p string, _ int) string { return gist(p) })
	var b strings.Builder
	fmt.Fprintf(&b, "Analyzing this text on %s, we can discern several key principles.", subject)
	lead := []string{" Firstly, the text introduces: ", " This relates to: ", " Furthermore: "}
	for i, c := range concepts {
		b.WriteString(lead[i])
		b.WriteString(c)
	}
	b.WriteString(" A critical perspective might consider how these ideas connect and where their limits lie. Would you like a deeper dive into any specific aspect?")
	return b.String()
}
