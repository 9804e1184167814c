// Package report turns a user's attempt history into HTML or PDF progress
// reports and mails them.
package report

import (
	"math"
	"sort"
	"time"

	"github.com/mind-engage/mindengage-tutor/internal/exam"
	"github.com/samber/lo"
)

const (
	dateLayout   = "January 02, 2006"
	defaultTopic = "General Knowledge"
)

// Trend descriptions, completing "Your scores have ...".
const (
	TrendImprovedSignificantly = "improved significantly"
	TrendImproved              = "shown improvement"
	TrendDeclined              = "declined"
	TrendConsistent            = "remained consistent"
	TrendLimitedData           = "not shown a clear trend yet due to limited data"
)

type QuestionLine struct {
	Text       string `json:"text"`
	UserAnswer string `json:"user_answer"`
	IsCorrect  bool   `json:"is_correct"`
}

type QuizResult struct {
	AttemptID  int64          `json:"attempt_id"`
	Title      string         `json:"title"`
	Date       string         `json:"date"` // "Incomplete" when not submitted
	Score      float64        `json:"score"`
	MaxScore   int            `json:"max_score"`
	Percentage float64        `json:"score_percentage"`
	Topics     string         `json:"topics"`
	Questions  []QuestionLine `json:"questions,omitempty"`

	completedAt int64
}

// Data is everything the report template renders.
type Data struct {
	Title            string       `json:"report_title"`
	StudentName      string       `json:"student_name"`
	Period           string       `json:"report_period"`
	GeneratedOn      string       `json:"generation_date"`
	OverallProgress  string       `json:"overall_progress"`
	TotalQuizzes     int          `json:"total_quizzes"`
	AverageScore     float64      `json:"average_score"`
	QuizResults      []QuizResult `json:"quiz_results"`
	ImprovementAreas []string     `json:"improvement_areas"`
	Trend            string       `json:"trend_description"`
	TrendPeriod      string       `json:"trend_period"`
	Year             int          `json:"current_year"`
}

// Prepare aggregates history into report data. questions maps attempt id to
// per-question lines and may be nil. Incomplete attempts count as 0%.
func Prepare(student string, history []exam.HistoryEntry, questions map[int64][]QuestionLine, now time.Time) Data {
	if student == "" {
		student = "Student"
	}
	d := Data{
		Title:        "Progress Report for " + student,
		StudentName:  student,
		Period:       "Last 30 days",
		GeneratedOn:  now.Format(dateLayout),
		TotalQuizzes: len(history),
		TrendPeriod:  "month",
		Year:         now.Year(),
	}

	if len(history) > 0 {
		sum := lo.SumBy(history, percentage)
		d.AverageScore = round1(sum / float64(len(history)))
	}
	d.OverallProgress = progressLabel(d.AverageScore)

	d.QuizResults = lo.Map(history, func(h exam.HistoryEntry, _ int) QuizResult {
		r := QuizResult{
			AttemptID:  h.AttemptID,
			Title:      lo.Ternary(h.QuizTitle == "", "Unnamed Quiz", h.QuizTitle),
			Date:       "Incomplete",
			Percentage: round1(percentage(h)),
			Topics:     defaultTopic,
			Questions:  questions[h.AttemptID],
		}
		if h.Score != nil {
			r.Score = *h.Score
		}
		if h.MaxScore != nil {
			r.MaxScore = *h.MaxScore
		}
		if h.CompletedAt != nil {
			r.completedAt = *h.CompletedAt
			r.Date = time.Unix(*h.CompletedAt, 0).In(now.Location()).Format(dateLayout)
		}
		return r
	})
	// most recent first; incomplete attempts last
	sort.SliceStable(d.QuizResults, func(i, j int) bool {
		return d.QuizResults[i].completedAt > d.QuizResults[j].completedAt
	})

	d.ImprovementAreas = improvementAreas(d.QuizResults, d.AverageScore)
	d.Trend = trend(history)
	return d
}

func percentage(h exam.HistoryEntry) float64 {
	if h.Score == nil || h.MaxScore == nil || *h.MaxScore <= 0 {
		return 0
	}
	return *h.Score / float64(*h.MaxScore) * 100
}

func progressLabel(avg float64) string {
	switch {
	case avg >= 80:
		return "Excellent"
	case avg >= 70:
		return "Good"
	case avg >= 60:
		return "Satisfactory"
	default:
		return "Needs Improvement"
	}
}

func improvementAreas(results []QuizResult, avg float64) []string {
	low := lo.Uniq(lo.FilterMap(results, func(r QuizResult, _ int) (string, bool) {
		return r.Topics, r.Percentage < 70
	}))
	areas := lo.Map(low, func(topic string, _ int) string {
		return "Focus on improving understanding of " + topic + " concepts."
	})
	if avg < 60 {
		areas = append(areas, "Consider reviewing basic concepts across all topics.")
	}
	if len(areas) == 0 {
		areas = append(areas, "Continue practicing to maintain your excellent progress.")
	}
	return areas
}

// trend compares the average of the older half of attempts (by completion
// time) with the newer half.
func trend(history []exam.HistoryEntry) string {
	if len(history) < 2 {
		return TrendLimitedData
	}
	sorted := append([]exam.HistoryEntry(nil), history...)
	sort.SliceStable(sorted, func(i, j int) bool { return completedAt(sorted[i]) < completedAt(sorted[j]) })

	mid := len(sorted) / 2
	first := lo.SumBy(sorted[:mid], percentage) / float64(mid)
	second := lo.SumBy(sorted[mid:], percentage) / float64(len(sorted)-mid)
	switch {
	case second > first+5:
		return TrendImprovedSignificantly
	case second > first:
		return TrendImproved
	case second < first-5:
		return TrendDeclined
	default:
		return TrendConsistent
	}
}

func completedAt(h exam.HistoryEntry) int64 {
	if h.CompletedAt == nil {
		return math.MinInt64
	}
	return *h.CompletedAt
}

func round1(f float64) float64 { return math.Round(f*10) / 10 }
