package analyze

import "fmt"

// MaxSentenceLen caps the English sentence accepted for analysis.
const MaxSentenceLen = 500

// Analysis is the fixed JSON contract the model must return. All seven
// top-level sections must be present.
type Analysis struct {
	Translation  Translation  `json:"translation"`
	Grammar      []Correction `json:"grammar"`
	Spelling     []Correction `json:"spelling"`
	Vocabulary   []VocabItem  `json:"vocabulary"`
	Alternatives []string     `json:"alternatives"`
	ContextFit   ContextFit   `json:"context_fit"`
	Overall      Overall      `json:"overall"`
}

type Translation struct {
	Suggested string `json:"suggested"`
	Critique  string `json:"critique"`
}

type Correction struct {
	Original  string `json:"original"`
	Corrected string `json:"corrected"`
	Reason    string `json:"reason"`
}

type VocabItem struct {
	Word         string `json:"word"`
	Meaning      string `json:"meaning"`
	PartOfSpeech string `json:"part_of_speech"`
	Example      string `json:"example"`
}

type ContextFit struct {
	Appropriate bool   `json:"appropriate"`
	Comment     string `json:"comment"`
}

type Overall struct {
	Score   int    `json:"score"`
	Summary string `json:"summary"`
}

// ErrorCode classifies analysis failures for HTTP mapping.
type ErrorCode string

const (
	ErrInvalidInput  ErrorCode = "INVALID_INPUT"
	ErrParsing       ErrorCode = "PARSING_ERROR"
	ErrQuotaExceeded ErrorCode = "QUOTA_EXCEEDED"
	ErrNetwork       ErrorCode = "NETWORK_ERROR"
	ErrAPI           ErrorCode = "API_ERROR"
)

// Error is a typed analysis failure.
type Error struct {
	Code ErrorCode
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code ErrorCode, err error) *Error {
	return &Error{Code: code, Err: err}
}

// CodeOf extracts the ErrorCode from an analysis error, defaulting to API_ERROR.
func CodeOf(err error) ErrorCode {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return ErrAPI
}
