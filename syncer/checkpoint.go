package syncer

import (
	"fmt"

	"github.com/minios-linux/locsync/document"
	"github.com/minios-linux/locsync/lockfile"
)

// Checkpointer persists the target document. It is called after every
// completed batch and once at the end of a run.
type Checkpointer interface {
	Checkpoint(target *document.Object) error
}

// CheckpointFunc adapts a function to the Checkpointer interface.
type CheckpointFunc func(target *document.Object) error

// Checkpoint calls f(target).
func (f CheckpointFunc) Checkpoint(target *document.Object) error {
	return f(target)
}

// FileCheckpoint writes the target document to Path, and the ledger when
// Lock is set. Unchanged content is not rewritten.
type FileCheckpoint struct {
	Path string
	Lock *lockfile.LockFile

	// Writes counts checkpoints that actually changed the file.
	Writes int
}

// Checkpoint implements Checkpointer.
func (c *FileCheckpoint) Checkpoint(target *document.Object) error {
	written, err := document.WriteFile(c.Path, target)
	if err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	if written {
		c.Writes++
	}
	if c.Lock != nil {
		if err := c.Lock.Save(); err != nil {
			return fmt.Errorf("checkpoint: %w", err)
		}
	}
	return nil
}
