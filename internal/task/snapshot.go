package task

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	// ErrMalformed is returned when a persisted blob is not parseable JSON.
	ErrMalformed = errors.New("persisted data is not valid JSON")
	// ErrCorrupted is returned when a persisted blob parses but does not have
	// the snapshot shape.
	ErrCorrupted = errors.New("persisted data has an unexpected shape")
)

// Snapshot is the persisted form of a task list. Transient UI fields are
// never part of it.
type Snapshot struct {
	Tasks            []Task `json:"tasks_list"`
	HasPersistedData bool   `json:"has_persisted_data"`
}

// CorruptionError lists every shape violation found in a persisted blob.
type CorruptionError struct {
	Errors []error
}

func (e *CorruptionError) Error() string {
	if len(e.Errors) == 0 {
		return ErrCorrupted.Error()
	}
	msgs := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%s: %s", ErrCorrupted, strings.Join(msgs, "; "))
}

// Unwrap returns ErrCorrupted so callers can match with errors.Is.
func (e *CorruptionError) Unwrap() error {
	return ErrCorrupted
}

const snapshotSchemaURL = "nextask://snapshot.schema.json"

const snapshotSchemaDoc = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["tasks_list"],
  "properties": {
    "tasks_list": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "description", "completed"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "description": {"type": "string", "minLength": 1, "maxLength": 256},
          "completed": {"type": "boolean"}
        }
      }
    },
    "has_persisted_data": {"type": "boolean"}
  }
}`

var snapshotSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(snapshotSchemaURL, strings.NewReader(snapshotSchemaDoc)); err != nil {
		return nil, fmt.Errorf("add snapshot schema: %w", err)
	}
	schema, err := compiler.Compile(snapshotSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile snapshot schema: %w", err)
	}
	return schema, nil
})

// EncodeSnapshot serializes a task list with 2-space indentation.
func EncodeSnapshot(tasks []Task, hasPersistedData bool) ([]byte, error) {
	if tasks == nil {
		tasks = []Task{}
	}
	data, err := json.MarshalIndent(Snapshot{Tasks: tasks, HasPersistedData: hasPersistedData}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return append(data, '\n'), nil
}

// DecodeSnapshot parses and validates a persisted blob. Unparseable input
// yields an error wrapping ErrMalformed; input with the wrong shape or with
// duplicate task ids yields a *CorruptionError.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	schema, err := snapshotSchema()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(raw); err != nil {
		return nil, &CorruptionError{Errors: schemaErrors(err)}
	}

	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, &CorruptionError{Errors: []error{err}}
	}
	if dup := DuplicateID(s.Tasks); dup != "" {
		return nil, &CorruptionError{Errors: []error{&ValidationError{
			Path: "tasks_list",
			Err:  fmt.Errorf("duplicate id %q", dup),
		}}}
	}
	var descErrs []error
	for i := range s.Tasks {
		desc, err := NormalizeDescription(s.Tasks[i].Description)
		if err != nil {
			var ve *ValidationError
			if errors.As(err, &ve) {
				err = ve.Err
			}
			descErrs = append(descErrs, &ValidationError{
				Path: fmt.Sprintf("tasks_list[%d].description", i),
				Err:  err,
			})
			continue
		}
		s.Tasks[i].Description = desc
	}
	if len(descErrs) > 0 {
		return nil, &CorruptionError{Errors: descErrs}
	}
	if s.Tasks == nil {
		s.Tasks = []Task{}
	}
	return &s, nil
}

func schemaErrors(err error) []error {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []error{err}
	}
	var out []error
	collectSchemaErrors(&out, ve)
	return out
}

func collectSchemaErrors(out *[]error, err *jsonschema.ValidationError) {
	if err == nil {
		return
	}

	if len(err.Causes) == 0 {
		*out = append(*out, &ValidationError{
			Path: jsonPointerToPath(err.InstanceLocation),
			Err:  errors.New(err.Message),
		})
		return
	}

	for _, cause := range err.Causes {
		collectSchemaErrors(out, cause)
	}
}

func jsonPointerToPath(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "#")
	ptr = strings.TrimPrefix(ptr, "/")
	if ptr == "" {
		return ""
	}

	path := ""
	for _, part := range strings.Split(ptr, "/") {
		part = strings.ReplaceAll(part, "~1", "/")
		part = strings.ReplaceAll(part, "~0", "~")
		if part == "" {
			continue
		}
		if idx, err := strconv.Atoi(part); err == nil {
			path += fmt.Sprintf("[%d]", idx)
			continue
		}
		if path == "" {
			path = part
		} else {
			path += "." + part
		}
	}

	return path
}
