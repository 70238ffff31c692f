// Package task defines the to-do item and its validation rules.
package task

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxDescriptionLength is the longest accepted description, in characters,
// after surrounding whitespace is trimmed.
const MaxDescriptionLength = 256

var (
	// ErrEmptyDescription is returned when a trimmed description is empty.
	ErrEmptyDescription = errors.New("description is empty")
	// ErrDescriptionTooLong is returned when a trimmed description exceeds
	// MaxDescriptionLength characters.
	ErrDescriptionTooLong = errors.New("description is too long")
)

// Task represents a single to-do item.
type Task struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// IsZero returns true if the task is empty (has no ID).
func (t *Task) IsZero() bool {
	return t.ID == ""
}

// ValidationError represents a validation error with context.
type ValidationError struct {
	Path string // field the error refers to
	Err  error  // underlying error
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NormalizeDescription trims surrounding whitespace and checks the length
// rules. It returns the trimmed text on success.
func NormalizeDescription(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", &ValidationError{Path: "description", Err: ErrEmptyDescription}
	}
	if n := utf8.RuneCountInString(trimmed); n > MaxDescriptionLength {
		return "", &ValidationError{
			Path: "description",
			Err:  fmt.Errorf("%w: %d characters, max %d", ErrDescriptionTooLong, n, MaxDescriptionLength),
		}
	}
	return trimmed, nil
}

// IDGenerator produces task identifiers.
type IDGenerator func() string

// NewID returns a random identifier for a task.
func NewID() string {
	return uuid.NewString()
}

// New builds an incomplete task. The description must already be normalized.
func New(id, description string) Task {
	return Task{ID: id, Description: description}
}

// Index returns the position of the task with the given id, or -1.
func Index(tasks []Task, id string) int {
	for i := range tasks {
		if tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// DuplicateID returns the first id that appears more than once, or "".
func DuplicateID(tasks []Task) string {
	seen := make(map[string]struct{}, len(tasks))
	for _, t := range tasks {
		if _, ok := seen[t.ID]; ok {
			return t.ID
		}
		seen[t.ID] = struct{}{}
	}
	return ""
}
