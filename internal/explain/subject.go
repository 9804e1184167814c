package explain

import (
	"strings"

	"github.com/samber/lo"
)

type subjectRule struct {
	name     string
	filename []string
	keywords []string
}

// subjects are checked in order; filename hints for every subject win over
// any keyword found in the text.
var subjects = []subjectRule{
	{"mathematics",
		[]string{"ratio", "math", "algebra", "geometry"},
		[]string{"ratio", "equation", "formula", "calculation", "algebra", "geometry", "solve for x", "fraction", "decimal", "percent"}},
	{"history",
		[]string{"history"},
		[]string{"history", "century", "war", "civilization", "ancient", "revolution", "president", "king", "queen"}},
	{"science",
		[]string{"science", "biology", "chemistry", "physics"},
		[]string{"science", "biology", "chemistry", "physics", "experiment", "molecule", "atom", "cell", "energy", "force"}},
	{"literature",
		[]string{"literature", "novel", "poem"},
		[]string{"literature", "novel", "poem", "author", "character", "story", "theme", "metaphor", "symbolism"}},
	{"language",
		[]string{"language", "grammar", "vocabulary"},
		[]string{"grammar", "vocabulary", "language", "verb", "noun", "adjective", "sentence", "paragraph"}},
}

func containsAny(s string, terms []string) bool {
	return lo.SomeBy(terms, func(t string) bool { return strings.Contains(s, t) })
}

// IdentifySubject guesses the subject from the filename, then the text,
// falling back to "general".
func IdentifySubject(text, filename string) string {
	fn := strings.ToLower(filename)
	for _, s := range subjects {
		if containsAny(fn, s.filename) {
			return s.name
		}
	}
	lower := strings.ToLower(text)
	for _, s := range subjects {
		if containsAny(lower, s.keywords) {
			return s.name
		}
	}
	return "general"
}

type examples struct{ example, summary string }

func subjectExamples(subject, text string) examples {
	switch subject {
	case "mathematics":
		if strings.Contains(strings.ToLower(text), "ratio") {
			return examples{
				"\n\n**Let's look at an example related to ratios:** Imagine you have a fruit bowl with 5 apples and 10 oranges. \n" +
					"- The ratio of apples to oranges is 5 to 10, or 5:10, or 5/10. \n" +
					"- We can simplify this! Both 5 and 10 are divisible by 5. So, the simplified ratio is 1:2. This means for every 1 apple, there are 2 oranges.\n" +
					"- What about the ratio of oranges to *total* fruit? There are 10 oranges and 15 total fruits (5 apples + 10 oranges). So the ratio is 10:15. Can we simplify this? Yes! Both are divisible by 5, giving us 2:3. For every 3 pieces of fruit, 2 are oranges.",
				"\n\n**Key Takeaways on Ratios:**\n1. A ratio compares two quantities.\n2. You can write ratios using 'to', a colon (:), or as a fraction.\n3. The order matters! Make sure you match the order asked in the question.\n4. Ratios can often be simplified like fractions by dividing both parts by a common factor.",
			}
		}
		return examples{
			"\n\nFor instance, if we're solving an equation like 2x + 3 = 11, the goal is to find the value of 'x'. We'd isolate 'x' by performing inverse operations: subtract 3 from both sides, then divide by 2, giving x = 4.",
			"\n\nRemember the key steps for this type of math problem: identify what is unknown, apply the same operation to both sides, and check your answer.",
		}
	case "history":
		return examples{
			"\n\nThink about it like this: If we're studying the American Revolution, we'd look at the causes (like taxes), the key people (like George Washington), and the results (like the creation of the USA).",
			"\n\nMain points to remember about this historical period are its causes, the people involved, and what changed afterwards.",
		}
	case "science":
		return examples{
			"\n\nFor example, if we're learning about photosynthesis, plants use sunlight, water, and carbon dioxide to make their own food (sugar) and release oxygen. It's like they're tiny food factories!",
			"\n\nKey scientific ideas here are the processes described and the evidence that supports them.",
		}
	default:
		return examples{
			"\n\nWe can relate this to everyday life: try to connect each point above to something you have seen or done.",
			"\n\nIn short, the text explains the main points listed above.",
		}
	}
}
