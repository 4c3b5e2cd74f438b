package models

import "time"

// Generation is the audit record of one contract generation attempt.
// Only metadata is kept; form values and document bytes are never stored.
type Generation struct {
	ID           string    `json:"id"`
	CompanyName  string    `json:"company_name"`
	StudentName  string    `json:"student_name"`
	ContractType string    `json:"contract_type"` // learning, labor
	Outcome      string    `json:"outcome"`       // success, validation_error, template_error
	ErrorMessage string    `json:"error_message,omitempty"`
	FileName     string    `json:"file_name,omitempty"`
	SizeBytes    int64     `json:"size_bytes"`
	ArchivePath  string    `json:"archive_path,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Generation outcome constants
const (
	OutcomeSuccess         = "success"
	OutcomeValidationError = "validation_error"
	OutcomeTemplateError   = "template_error"
)
