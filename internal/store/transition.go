package store

import (
	"github.com/nibzard/nextask/internal/task"
)

// The functions below compute a new task list without touching the input
// slice or any storage. Each returns changed=false when the list is left
// as is.

// appendTask returns tasks with t added at the end.
func appendTask(tasks []task.Task, t task.Task) []task.Task {
	out := make([]task.Task, 0, len(tasks)+1)
	out = append(out, tasks...)
	return append(out, t)
}

// toggleTask flips the completed flag of the task with the given id.
func toggleTask(tasks []task.Task, id string) ([]task.Task, bool) {
	i := task.Index(tasks, id)
	if i < 0 {
		return tasks, false
	}
	out := append([]task.Task(nil), tasks...)
	out[i].Completed = !out[i].Completed
	return out, true
}

// deleteTask removes the task with the given id, keeping the order of the rest.
func deleteTask(tasks []task.Task, id string) ([]task.Task, bool) {
	i := task.Index(tasks, id)
	if i < 0 {
		return tasks, false
	}
	out := make([]task.Task, 0, len(tasks)-1)
	out = append(out, tasks[:i]...)
	return append(out, tasks[i+1:]...), true
}
