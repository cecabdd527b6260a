// Package watcher follows the indexed root after the initial scan and
// turns filesystem events into queue tasks. Rapid event bursts are
// debounced per path before tasks are enqueued.
package watcher

import "time"

// Op is a filesystem operation observed on a path.
type Op int

const (
	// OpCreate indicates a new file appeared.
	OpCreate Op = iota
	// OpModify indicates an existing file changed.
	OpModify
	// OpDelete indicates a file was removed.
	OpDelete
	// OpRenamedAway indicates a file left this path. It pairs with an
	// OpCreate on the destination path to form a move; unpaired it
	// degrades to a delete.
	OpRenamedAway
)

func (op Op) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpModify:
		return "MODIFY"
	case OpDelete:
		return "DELETE"
	case OpRenamedAway:
		return "RENAMED_AWAY"
	default:
		return "UNKNOWN"
	}
}

// FileEvent is a single observed filesystem event.
type FileEvent struct {
	// Path is the absolute file path.
	Path string

	// Op is the observed operation.
	Op Op

	// Timestamp is when the event was detected.
	Timestamp time.Time
}
