package report

import (
	"strings"
	"testing"
	"time"

	"github.com/mind-engage/mindengage-tutor/internal/exam"
)

func entry(id int64, title string, completed int64, score float64, maxScore int) exam.HistoryEntry {
	h := exam.HistoryEntry{AttemptID: id, QuizTitle: title, StartedAt: completed - 60}
	if completed > 0 {
		h.CompletedAt, h.Score, h.MaxScore = &completed, &score, &maxScore
	}
	return h
}

var reportNow = time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)

func TestPrepareBandsAndOrder(t *testing.T) {
	day := int64(86400)
	base := reportNow.Unix() - 10*day
	history := []exam.HistoryEntry{
		entry(1, "Cells", base, 4, 5),
		entry(2, "Atoms", base+2*day, 5, 5),
		entry(3, "", 0, 0, 0), // incomplete
	}
	d := Prepare("ada", history, nil, reportNow)

	if d.Title != "Progress Report for ada" || d.TotalQuizzes != 3 {
		t.Fatalf("header = %q / %d", d.Title, d.TotalQuizzes)
	}
	// (80 + 100 + 0) / 3
	if d.AverageScore != 60 || d.OverallProgress != "Satisfactory" {
		t.Fatalf("average %v progress %q", d.AverageScore, d.OverallProgress)
	}
	if d.QuizResults[0].Title != "Atoms" || d.QuizResults[1].Title != "Cells" {
		t.Fatalf("results not most-recent first: %+v", d.QuizResults)
	}
	last := d.QuizResults[2]
	if last.Date != "Incomplete" || last.Title != "Unnamed Quiz" {
		t.Fatalf("incomplete attempt rendered as %+v", last)
	}
	if d.QuizResults[1].Date != time.Unix(base, 0).UTC().Format(dateLayout) {
		t.Fatalf("date = %q", d.QuizResults[1].Date)
	}
	if len(d.ImprovementAreas) != 1 || !strings.Contains(d.ImprovementAreas[0], "General Knowledge") {
		t.Fatalf("improvement areas = %v", d.ImprovementAreas)
	}
}

func TestProgressLabel(t *testing.T) {
	cases := map[float64]string{100: "Excellent", 80: "Excellent", 79.9: "Good", 70: "Good", 60: "Satisfactory", 59.9: "Needs Improvement", 0: "Needs Improvement"}
	for avg, want := range cases {
		if got := progressLabel(avg); got != want {
			t.Errorf("progressLabel(%v) = %q, want %q", avg, got, want)
		}
	}
}

func TestTrend(t *testing.T) {
	cases := []struct {
		name   string
		scores []float64 // out of 10, in completion order
		want   string
	}{
		{"single", []float64{5}, TrendLimitedData},
		{"big gain", []float64{5, 9}, TrendImprovedSignificantly},
		{"small gain", []float64{5, 5.3}, TrendImproved},
		{"drop", []float64{9, 5}, TrendDeclined},
		{"flat", []float64{7, 7, 7, 7}, TrendConsistent},
		{"slight drop", []float64{7, 6.6}, TrendConsistent},
	}
	for _, tc := range cases {
		var h []exam.HistoryEntry
		for i, s := range tc.scores {
			// reverse input order; trend must sort by completion time
			h = append([]exam.HistoryEntry{entry(int64(i+1), "q", int64(1000+i), s, 10)}, h...)
		}
		if got := trend(h); got != tc.want {
			t.Errorf("%s: trend = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestImprovementAreas(t *testing.T) {
	good := []QuizResult{{Topics: defaultTopic, Percentage: 90}}
	if got := improvementAreas(good, 90); len(got) != 1 || !strings.HasPrefix(got[0], "Continue practicing") {
		t.Fatalf("good = %v", got)
	}
	bad := []QuizResult{{Topics: defaultTopic, Percentage: 20}, {Topics: defaultTopic, Percentage: 40}}
	got := improvementAreas(bad, 30)
	if len(got) != 2 || !strings.HasPrefix(got[1], "Consider reviewing basic concepts") {
		t.Fatalf("bad = %v", got)
	}
}

func TestRenderHTMLEscapes(t *testing.T) {
	d := Prepare("<script>", []exam.HistoryEntry{entry(1, "A & B", 1000, 1, 2)},
		map[int64][]QuestionLine{1: {{Text: "What is 1<2?", UserAnswer: "yes", IsCorrect: true}}}, reportNow)
	out, err := RenderHTML(d)
	if err != nil {
		t.Fatal(err)
	}
	html := string(out)
	if strings.Contains(html, "<script>") {
		t.Fatal("student name not escaped")
	}
	for _, want := range []string{"A &amp; B", "What is 1&lt;2?", "Score: 1/2 (50%)", "low-score", TrendLimitedData} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered report missing %q", want)
		}
	}
}
