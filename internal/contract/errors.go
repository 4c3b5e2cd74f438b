package contract

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownOption is returned when a choice field holds a value outside its option set
	ErrUnknownOption = errors.New("unknown option")

	// ErrRendererMissing is returned when the generator has no template renderer
	ErrRendererMissing = errors.New("template renderer not configured")
)

// Messages shown to the operator
const (
	MsgMissingRequired  = "請檢查「機構名稱」與「第一位學生姓名」是否已填寫。"
	MsgGenerationFailed = "發生錯誤：%s"
	HintTemplateMissing = "請確認範本檔 %s 是否存在。"
)

// Required field names reported by ValidationError
const (
	FieldCompanyName      = "company_name"
	FieldFirstStudentName = "s1_name"
)

// ValidationError reports required fields that were left empty
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: missing required fields: %s", strings.Join(e.Fields, ", "))
}

// TemplateError wraps any failure of the template renderer
type TemplateError struct {
	TemplatePath string
	Err          error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("template %s: %v", e.TemplatePath, e.Err)
}

func (e *TemplateError) Unwrap() error {
	return e.Err
}

// ErrorKind classifies a UserError
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindTemplate   ErrorKind = "template"
)

// UserError carries a message meant for the operator filling in the form.
// Every UserError leaves the form in the collecting state with its data intact.
type UserError struct {
	Kind    ErrorKind
	Message string
	Hint    string
	Err     error
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *UserError) Unwrap() error {
	return e.Err
}

func newValidationUserError(err *ValidationError) *UserError {
	return &UserError{
		Kind:    KindValidation,
		Message: MsgMissingRequired,
		Err:     err,
	}
}

func newTemplateUserError(err *TemplateError) *UserError {
	return &UserError{
		Kind:    KindTemplate,
		Message: fmt.Sprintf(MsgGenerationFailed, err.Err.Error()),
		Hint:    fmt.Sprintf(HintTemplateMissing, err.TemplatePath),
		Err:     err,
	}
}

// GetUserMessage returns the operator-facing message of err.
// Errors that are not UserErrors fall back to their Error string.
func GetUserMessage(err error) string {
	if err == nil {
		return ""
	}
	var userErr *UserError
	if errors.As(err, &userErr) {
		return userErr.Message
	}
	return err.Error()
}
