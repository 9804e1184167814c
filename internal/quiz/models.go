package quiz

// Kind is the question type as persisted in questions.question_type.
type Kind string

const (
	MultipleChoice Kind = "multiple_choice"
	ShortAnswer    Kind = "short_answer"
)

// Question is one generated item. Options is set only for MultipleChoice and
// then holds exactly four unique strings, one of them CorrectAnswer.
type Question struct {
	Text          string   `json:"question_text"`
	Kind          Kind     `json:"question_type"`
	CorrectAnswer string   `json:"correct_answer,omitempty"`
	Options       []string `json:"options,omitempty"`
}

// Quiz is immutable once generated.
type Quiz struct {
	Title          string     `json:"title"`
	SourceMaterial string     `json:"source_material"`
	Questions      []Question `json:"questions"`
}

// OptionCount is the number of choices a multiple-choice question carries.
const OptionCount = 4

// Blank replaces the answer term in multiple-choice question text.
const Blank = "________"
