package pool

// Language identifies which language-specific pool tree a question came from.
type Language string

const (
	LanguageEN Language = "en"
	LanguageRS Language = "rs"
)

// Question is one multiple-choice entry as stored in a pool file.
// Values are treated as immutable once loaded; code that reorders answers
// must work on a copy.
type Question struct {
	Text    string   `json:"question"`
	Answers []string `json:"answers"`
	Correct string   `json:"correct"`
}

// CorrectIndex returns the position of the correct answer within Answers,
// or -1 if it is missing.
func (q Question) CorrectIndex() int {
	for i, a := range q.Answers {
		if a == q.Correct {
			return i
		}
	}
	return -1
}

// ModulePool holds every question backing one course module in one language.
type ModulePool struct {
	ID        string
	Language  Language
	Questions []Question
}
