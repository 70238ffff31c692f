package store

import (
	"github.com/nibzard/nextask/internal/task"
)

// AppStatus drives whether the UI shows the task list or an error view.
type AppStatus string

const (
	StatusInitialized             AppStatus = "initialized"
	StatusLocalStorageUnavailable AppStatus = "local_storage_unavailable"
	StatusError                   AppStatus = "error"
)

// User-facing messages.
const (
	MsgEmptyTask          = "Task cannot be empty."
	MsgTaskTooLong        = "Task description is too long (max 256 characters)."
	MsgCorruptedData      = "Corrupted data in local storage."
	MsgStorageUnavailable = "Local storage is unavailable. Your tasks will not be saved."
)

// DefaultStorageKey is the slot key holding the persisted task list.
const DefaultStorageKey = "nextask-storage"

// State is a point-in-time copy of everything the store owns.
type State struct {
	AppStatus            AppStatus
	HasPersistedData     bool
	TaskInputDescription string
	Tasks                []task.Task
	IsLoadingTasks       bool
	ErrorMessage         string
	InputShake           bool
}

// HasError reports whether an error message is active.
func (s State) HasError() bool {
	return s.ErrorMessage != ""
}

// Ready reports whether loading finished and the list can be shown.
func (s State) Ready() bool {
	return !s.IsLoadingTasks && s.AppStatus == StatusInitialized
}

func (s State) clone() State {
	out := s
	out.Tasks = append([]task.Task(nil), s.Tasks...)
	if out.Tasks == nil {
		out.Tasks = []task.Task{}
	}
	return out
}
