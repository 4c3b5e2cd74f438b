package docx

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTemplateNotFound is returned when the template file does not exist
	ErrTemplateNotFound = errors.New("template file not found")

	// ErrInvalidTemplate is returned when the file is not a readable Word document
	ErrInvalidTemplate = errors.New("invalid template structure")
)

// PlaceholderError lists template placeholders that have no value
type PlaceholderError struct {
	Missing []string
}

func (e *PlaceholderError) Error() string {
	return fmt.Sprintf("template placeholders without value: %s", strings.Join(e.Missing, ", "))
}
