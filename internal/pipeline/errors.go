package pipeline

import (
	"errors"
	"fmt"

	"github.com/joseph-ayodele/interview-matrix/internal/common"
)

var (
	ErrEmptyReply     = errors.New("model reply is empty")
	ErrMalformedReply = errors.New("model reply is not valid JSON")
	ErrReplySchema    = errors.New("model reply has an inconsistent schema")
)

// ExtractionError is a model-response failure. It carries the raw reply for diagnosis.
type ExtractionError struct {
	Step string
	Raw  string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v; raw reply:\n%s", e.Step, e.Err, e.Raw)
}

func (e *ExtractionError) Unwrap() []error {
	return []error{common.ErrModelResponse, e.Err}
}
