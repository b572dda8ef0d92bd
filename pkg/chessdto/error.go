package chessdto

// Error codes carried in DomainError.Code.
const (
	CodeBadRequest   = "bad_request"
	CodeMalformed    = "malformed_position"
	CodeOutOfBounds  = "out_of_bounds"
	CodeConflict     = "conflict"
	CodeIllegalMove  = "illegal_move"
	CodeUnauthorized = "unauthorized"
	CodeNotFound     = "not_found"
	CodeInternal     = "internal"
)

type DomainError struct {
	Code      string `json:"code"`
	Message   string `json:"message,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

func (e DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "chessx error"
}
