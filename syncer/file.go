package syncer

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/minios-linux/locsync/document"
)

// LoadTarget reads an existing target document. A missing file yields an
// empty document; an unreadable or malformed one also yields an empty
// document and is reported through warn.
func LoadTarget(path string, warn func(format string, args ...any)) *document.Object {
	obj, err := document.ReadFile(path)
	if err == nil {
		return obj
	}
	if !errors.Is(err, os.ErrNotExist) && warn != nil {
		warn("Ignoring unreadable target %s: %v", path, err)
	}
	return document.New()
}

// SyncFile runs Sync for a source file and a target file. The target is
// checkpointed to targetPath unless opts.Checkpoint is already set.
func SyncFile(ctx context.Context, sourcePath, targetPath string, opts Options) (*Result, error) {
	source, err := document.ReadFile(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("loading source: %w", err)
	}
	target := LoadTarget(targetPath, opts.OnWarn)

	if opts.Checkpoint == nil {
		opts.Checkpoint = &FileCheckpoint{Path: targetPath, Lock: opts.Lock}
	}

	_, res, err := Sync(ctx, source, target, opts)
	return res, err
}

// PlanFile runs detection only, without touching the network or disk.
func PlanFile(sourcePath, targetPath string, opts Options) (*Plan, error) {
	source, err := document.ReadFile(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("loading source: %w", err)
	}
	target := LoadTarget(targetPath, opts.OnWarn)
	return NewPlan(source, target, opts.effectiveExemptKeys(), opts.detector()), nil
}
