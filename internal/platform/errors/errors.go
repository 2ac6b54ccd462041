package apperrors

import "errors"

// Code is the structured reason a presentation layer localizes.
type Code string

const (
	CodeInvalidInput        Code = "INVALID_INPUT"
	CodeNotFound            Code = "NOT_FOUND"
	CodeNoBudgetRemaining   Code = "NO_BUDGET_REMAINING"
	CodeOutsideAllowedHours Code = "OUTSIDE_ALLOWED_HOURS"
	CodeSessionActive       Code = "SESSION_ALREADY_ACTIVE"
	CodeBreakActive         Code = "BREAK_ALREADY_ACTIVE"
	CodeBreakLimitExceeded  Code = "BREAK_LIMIT_EXCEEDED"
	CodeInvalidTransition   Code = "INVALID_TRANSITION"
	CodeAnalysisUnavailable Code = "ANALYSIS_UNAVAILABLE"
	CodePersistenceFailure  Code = "PERSISTENCE_FAILURE"
	CodeInternal            Code = "INTERNAL"
)

// Error is a coded sentinel. Compare with errors.Is against the package vars.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

var (
	ErrInvalidInput         = newError(CodeInvalidInput, "invalid input")
	ErrNotFound             = newError(CodeNotFound, "not found")
	ErrNoBudgetRemaining    = newError(CodeNoBudgetRemaining, "no study time remaining today")
	ErrOutsideAllowedHours  = newError(CodeOutsideAllowedHours, "outside allowed study hours")
	ErrSessionAlreadyActive = newError(CodeSessionActive, "active session already exists")
	ErrBreakAlreadyActive   = newError(CodeBreakActive, "a break is already in progress")
	ErrBreakLimitExceeded   = newError(CodeBreakLimitExceeded, "daily break limit reached")
	ErrInvalidTransition    = newError(CodeInvalidTransition, "command not valid for current session state")
	ErrAnalysisUnavailable  = newError(CodeAnalysisUnavailable, "analysis unavailable")
	ErrPersistenceFailure   = newError(CodePersistenceFailure, "persistence failure")
)

var byCode = map[Code]*Error{}

func init() {
	for _, err := range []*Error{
		ErrInvalidInput,
		ErrNotFound,
		ErrNoBudgetRemaining,
		ErrOutsideAllowedHours,
		ErrSessionAlreadyActive,
		ErrBreakAlreadyActive,
		ErrBreakLimitExceeded,
		ErrInvalidTransition,
		ErrAnalysisUnavailable,
		ErrPersistenceFailure,
	} {
		byCode[err.Code] = err
	}
}

// CodeOf returns the code of the first coded error in err's chain.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	return CodeInternal
}

// FromCode returns the sentinel registered for code, or nil.
func FromCode(code Code) error {
	if err, ok := byCode[code]; ok {
		return err
	}
	return nil
}
