package grading

// Band labels drive messaging only; they are never stored.
const (
	BandExcellent   = "excellent"
	BandGood        = "good"
	BandNeedsReview = "needs_review"
)

type Summary struct {
	Correct    int     `json:"correct_count"`
	Total      int     `json:"total_questions"`
	Percentage float64 `json:"percentage"`
	Band       string  `json:"band"`
	Message    string  `json:"message"`
}

// Summarize turns a correct count into a percentage and feedback band.
func Summarize(correct, total int) Summary {
	s := Summary{Correct: correct, Total: total}
	if total > 0 {
		s.Percentage = float64(correct) / float64(total) * 100
	}
	switch {
	case s.Percentage >= 80:
		s.Band = BandExcellent
		s.Message = "Excellent work! You have a strong understanding of this material."
	case s.Percentage >= 60:
		s.Band = BandGood
		s.Message = "Good job! You understand most of the material, but there's room for improvement."
	default:
		s.Band = BandNeedsReview
		s.Message = "You might need to review this material again to improve your understanding."
	}
	return s
}
