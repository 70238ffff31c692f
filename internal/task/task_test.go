package task

import (
	"errors"
	"strings"
	"testing"
)

func TestNormalizeDescription(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{"plain text", "Buy milk", "Buy milk", nil},
		{"trims surrounding whitespace", "  Buy milk \t\n", "Buy milk", nil},
		{"keeps inner whitespace", "Buy  milk", "Buy  milk", nil},
		{"empty", "", "", ErrEmptyDescription},
		{"whitespace only", "   \t ", "", ErrEmptyDescription},
		{"exactly max length", strings.Repeat("a", MaxDescriptionLength), strings.Repeat("a", MaxDescriptionLength), nil},
		{"max length after trim", "  " + strings.Repeat("a", MaxDescriptionLength) + "  ", strings.Repeat("a", MaxDescriptionLength), nil},
		{"one over max length", strings.Repeat("a", MaxDescriptionLength+1), "", ErrDescriptionTooLong},
		{"counts characters not bytes", strings.Repeat("é", MaxDescriptionLength), strings.Repeat("é", MaxDescriptionLength), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeDescription(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("NormalizeDescription() error = %v, want %v", err, tt.wantErr)
				}
				var ve *ValidationError
				if !errors.As(err, &ve) || ve.Path != "description" {
					t.Errorf("expected ValidationError on description, got %#v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeDescription() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("NormalizeDescription() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewID()
		if id == "" {
			t.Fatal("expected non-empty id")
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestNew(t *testing.T) {
	got := New("T1", "Buy milk")
	if got.ID != "T1" || got.Description != "Buy milk" || got.Completed {
		t.Errorf("New() = %+v", got)
	}
	if got.IsZero() {
		t.Error("expected task with id to be non-zero")
	}
	if !(&Task{}).IsZero() {
		t.Error("expected empty task to be zero")
	}
}

func TestIndexAndDuplicateID(t *testing.T) {
	tasks := []Task{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	if got := Index(tasks, "b"); got != 1 {
		t.Errorf("Index(b) = %d, want 1", got)
	}
	if got := Index(tasks, "missing"); got != -1 {
		t.Errorf("Index(missing) = %d, want -1", got)
	}
	if got := DuplicateID(tasks); got != "" {
		t.Errorf("DuplicateID() = %q, want empty", got)
	}
	if got := DuplicateID(append(tasks, Task{ID: "b"})); got != "b" {
		t.Errorf("DuplicateID() = %q, want b", got)
	}
}
