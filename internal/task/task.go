// Package task provides the file-processing task type and the thread-safe
// queue that connects the scanner and watcher producers to the worker pool.
package task

import (
	"time"
)

// Kind represents the type of a file-processing task.
type Kind int

const (
	// KindAdd indicates a new file should be indexed.
	KindAdd Kind = iota
	// KindModify indicates an existing file's content changed.
	// Processed identically to KindAdd: the hash-keyed upsert makes them equivalent.
	KindModify
	// KindDelete indicates a file was removed and its index entry should go.
	KindDelete
	// KindMove indicates a file was renamed; PrevPath carries the old location.
	KindMove
)

// String returns a human-readable representation of the task kind.
func (k Kind) String() string {
	switch k {
	case KindAdd:
		return "ADD"
	case KindModify:
		return "MODIFY"
	case KindDelete:
		return "DELETE"
	case KindMove:
		return "MOVE"
	default:
		return "UNKNOWN"
	}
}

// Task represents one unit of indexing work. Immutable once created.
// Produced by the scanner or watcher, consumed exactly once by a worker;
// at-least-once delivery is acceptable because processing is idempotent.
type Task struct {
	// Path is the absolute path of the file the task applies to.
	Path string

	// Kind is the operation to perform.
	Kind Kind

	// PrevPath is the previous path for move tasks. Empty otherwise.
	PrevPath string

	// EnqueuedAt is when the task was created. Used for last-applied-wins
	// resolution when a delete races an add for the same path.
	EnqueuedAt time.Time
}

// NewTask creates a task stamped with the current time.
func NewTask(kind Kind, path string) Task {
	return Task{
		Path:       path,
		Kind:       kind,
		EnqueuedAt: time.Now(),
	}
}

// NewMoveTask creates a move task carrying both old and new paths.
func NewMoveTask(prevPath, newPath string) Task {
	return Task{
		Path:       newPath,
		Kind:       KindMove,
		PrevPath:   prevPath,
		EnqueuedAt: time.Now(),
	}
}
