// Package syncer brings a target localization document up to date with its
// source. It finds the leaves that still need translating, sends them to a
// translate.Translator in bounded batches, merges the answers back by path
// and checkpoints the target after every batch, so an interrupted run
// resumes where it stopped.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/minios-linux/locsync/document"
	"github.com/minios-linux/locsync/lockfile"
	"github.com/minios-linux/locsync/translate"
)

// DefaultMaxAttempts is how many times a failing batch is tried.
const DefaultMaxAttempts = 3

// ErrNoTranslator is returned when Options.Translator is nil.
var ErrNoTranslator = errors.New("no translator configured")

// ---------------------------------------------------------------------------
// Options
// ---------------------------------------------------------------------------

// Options configures a synchronization run for one target language.
type Options struct {
	// Translator performs the remote translation.
	Translator translate.Translator
	// Language is the target language code (e.g. "de").
	Language string
	// LanguageName is the human-readable name passed to the translator.
	LanguageName string
	// BatchSize is how many leaves go into one request (default 20).
	BatchSize int
	// MaxAttempts bounds tries per batch (default 3).
	MaxAttempts int
	// BackOff spaces out batch retries. Nil means exponential backoff.
	BackOff backoff.BackOff
	// Force re-translates every translatable leaf.
	Force bool
	// ExemptKeys are leaf names copied verbatim. Nil means
	// document.DefaultExemptKeys.
	ExemptKeys []string
	// NoPlaceholderCheck accepts translations that lost or gained
	// placeholders.
	NoPlaceholderCheck bool
	// Prune removes target leaves that no longer exist in the source.
	Prune bool
	// Lock enables checksum-based staleness detection.
	Lock *lockfile.LockFile
	// LockTarget is the ledger section of this target document.
	LockTarget string
	// Checkpoint persists the target. Nil keeps everything in memory.
	Checkpoint Checkpointer

	// OnPlan is called once detection is done, before any request.
	OnPlan func(lang string, pending, batches int)
	// OnProgress is called after each batch with translated-so-far counts.
	OnProgress func(lang string, done, total int)
	// OnLog emits informational messages.
	OnLog func(format string, args ...any)
	// OnWarn emits recoverable problems (fallbacks, failed batches).
	OnWarn func(format string, args ...any)
}

func (o *Options) log(format string, args ...any) {
	if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

func (o *Options) warn(format string, args ...any) {
	if o.OnWarn != nil {
		o.OnWarn(format, args...)
	} else if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

func (o *Options) progress(done, total int) {
	if o.OnProgress != nil {
		o.OnProgress(o.Language, done, total)
	}
}

func (o *Options) effectiveBatchSize() int {
	if o.BatchSize > 0 {
		return o.BatchSize
	}
	return DefaultBatchSize
}

func (o *Options) effectiveMaxAttempts() int {
	if o.MaxAttempts > 0 {
		return o.MaxAttempts
	}
	return DefaultMaxAttempts
}

func (o *Options) effectiveBackOff() backoff.BackOff {
	if o.BackOff != nil {
		return o.BackOff
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 2 * time.Second
	b.MaxInterval = 30 * time.Second
	return b
}

func (o *Options) effectiveExemptKeys() []string {
	if o.ExemptKeys != nil {
		return o.ExemptKeys
	}
	return document.DefaultExemptKeys
}

func (o *Options) detector() Detector {
	return Detector{Force: o.Force, Lock: o.Lock, LockTarget: o.LockTarget}
}

// ---------------------------------------------------------------------------
// Result
// ---------------------------------------------------------------------------

// Result summarizes a run.
type Result struct {
	Language string

	Total       int // source leaves
	PassThrough int
	Satisfied   int // translatable leaves already done
	Pending     int
	Stale       int
	Adopted     int
	Pruned      int

	Batches       int
	FailedBatches int
	Translated    int // leaves that received an accepted translation
	Fallback      int // leaves that received the source text instead
}

// Complete reports whether every pending leaf got a real translation.
func (r *Result) Complete() bool {
	return r.FailedBatches == 0 && r.Fallback == 0
}

// ---------------------------------------------------------------------------
// Run controller
// ---------------------------------------------------------------------------

// Sync brings target up to date with source and returns the new target.
// Neither input is modified. A nil target is treated as empty.
//
// Batches run sequentially. A batch that still fails after MaxAttempts is
// skipped and the run continues. Only a failed checkpoint or a cancelled
// context ends the run early; the returned document then holds every
// batch completed so far.
func Sync(ctx context.Context, source, target *document.Object, opts Options) (*document.Object, *Result, error) {
	if opts.Translator == nil {
		return nil, nil, ErrNoTranslator
	}
	if source == nil {
		return nil, nil, document.ErrNotObject
	}

	out := document.New()
	if target != nil {
		out = target.Clone()
	}

	res := &Result{Language: opts.Language}
	if opts.Prune {
		res.Pruned = prune(out, source, opts.effectiveExemptKeys())
		if res.Pruned > 0 {
			opts.log("Pruned %d leaves not present in source", res.Pruned)
		}
	}

	plan := NewPlan(source, out, opts.effectiveExemptKeys(), opts.detector())
	res.Total = plan.Total
	res.PassThrough = plan.PassThrough
	res.Satisfied = plan.Satisfied
	res.Pending = len(plan.Pending)
	res.Stale = plan.Stale
	res.Adopted = plan.Adopted

	applyPlan(out, plan, &opts)

	if plan.Done() {
		opts.log("%s: all %d strings up to date", opts.Language, plan.Total)
		return out, res, finish(out, source, &opts)
	}

	batches := MakeBatches(plan.Pending, opts.effectiveBatchSize())
	res.Batches = len(batches)
	opts.log("%s: %d of %d strings need translation, %d batches", opts.Language, res.Pending, res.Total, len(batches))
	if opts.OnPlan != nil {
		opts.OnPlan(opts.Language, res.Pending, len(batches))
	}

	done := 0
	for _, b := range batches {
		if err := ctx.Err(); err != nil {
			return out, res, err
		}

		translated, fallback, err := executeBatch(ctx, out, b, len(batches), &opts)
		if err != nil {
			if ctx.Err() != nil {
				return out, res, ctx.Err()
			}
			res.FailedBatches++
			opts.warn("Batch %d/%d abandoned after %d attempts: %v", b.Index+1, len(batches), opts.effectiveMaxAttempts(), err)
			continue
		}
		res.Translated += translated
		res.Fallback += fallback

		if err := checkpoint(out, &opts); err != nil {
			return out, res, err
		}
		done += len(b.Leaves)
		opts.progress(done, res.Pending)
	}

	return out, res, finish(out, source, &opts)
}

// applyPlan writes every satisfied leaf into out and reserves a slot,
// filled with the source text, for pending leaves that have no string
// value yet. A batch that is later abandoned leaves those slots as they
// are, and the next run sees them as untranslated.
func applyPlan(out *document.Object, plan *Plan, opts *Options) {
	for _, dec := range plan.Decisions {
		if dec.Satisfied {
			out.SetPath(dec.Leaf.Path, dec.Value)
			if dec.Reason == ReasonAdopted && opts.Lock != nil {
				opts.Lock.Update(opts.LockTarget, lockfile.LeafKey(dec.Leaf.Path), dec.Leaf.Text())
			}
			continue
		}
		if _, ok := dec.Value.(string); !ok {
			out.SetPath(dec.Leaf.Path, dec.Leaf.Text())
		}
	}
}

// executeBatch translates one batch with retries and merges the result
// into out. It returns an error only when every attempt failed.
func executeBatch(ctx context.Context, out *document.Object, b Batch, nBatches int, opts *Options) (translated, fallback int, err error) {
	req := translate.Request{
		Entries:      b.Entries(),
		Language:     opts.Language,
		LanguageName: opts.LanguageName,
	}
	opts.log("Batch %d/%d: %d strings", b.Index+1, nBatches, len(req.Entries))

	attempt := 0
	operation := func() (map[string]string, error) {
		attempt++
		result, err := opts.Translator.Translate(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, backoff.Permanent(ctx.Err())
			}
			return nil, err
		}
		return result, nil
	}
	notify := func(err error, wait time.Duration) {
		opts.warn("Batch %d/%d attempt %d failed: %v (retrying in %v)", b.Index+1, nBatches, attempt, err, wait.Round(time.Millisecond))
	}

	result, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(opts.effectiveBackOff()),
		backoff.WithMaxTries(uint(opts.effectiveMaxAttempts())),
		backoff.WithNotify(notify),
	)
	if err != nil {
		return 0, 0, err
	}

	translated, fallback = merge(out, b, result, opts)
	return translated, fallback, nil
}

// merge writes a translator result back by path. Missing, empty and
// placeholder-breaking values fall back to the source text.
func merge(out *document.Object, b Batch, result map[string]string, opts *Options) (translated, fallback int) {
	keys := b.Keys()
	expected := make(map[string]bool, len(keys))

	for i, leaf := range b.Leaves {
		key := keys[i]
		expected[key] = true
		src := leaf.Text()
		value, ok := result[key]

		var problem string
		switch {
		case !ok:
			problem = "missing from response"
		case strings.TrimSpace(value) == "":
			problem = "empty translation"
		case !opts.NoPlaceholderCheck && !PlaceholdersPreserved(src, value):
			problem = fmt.Sprintf("placeholders changed (%q)", value)
		}

		if problem != "" {
			opts.warn("%s: %s, keeping source text", leaf.Key(), problem)
			out.SetPath(leaf.Path, src)
			if opts.Lock != nil {
				opts.Lock.Forget(opts.LockTarget, lockfile.LeafKey(leaf.Path))
			}
			fallback++
			continue
		}

		out.SetPath(leaf.Path, value)
		if opts.Lock != nil {
			opts.Lock.Update(opts.LockTarget, lockfile.LeafKey(leaf.Path), src)
		}
		translated++
	}

	extra := 0
	for key := range result {
		if !expected[key] {
			extra++
		}
	}
	if extra > 0 {
		opts.warn("Batch %d: ignored %d unexpected keys in response", b.Index+1, extra)
	}
	return translated, fallback
}

func checkpoint(out *document.Object, opts *Options) error {
	if opts.Checkpoint == nil {
		return nil
	}
	return opts.Checkpoint.Checkpoint(out)
}

// finish drops ledger entries for leaves no longer in source and writes
// the final checkpoint.
func finish(out, source *document.Object, opts *Options) error {
	if opts.Lock != nil {
		leaves := document.Flatten(source, opts.effectiveExemptKeys())
		keys := make([]string, len(leaves))
		for i, l := range leaves {
			keys[i] = lockfile.LeafKey(l.Path)
		}
		opts.Lock.Clean(opts.LockTarget, keys)
	}
	return checkpoint(out, opts)
}

// prune deletes target leaves whose path is not a source leaf and returns
// how many were removed.
func prune(target, source *document.Object, exempt []string) int {
	valid := make(map[string]bool)
	for _, l := range document.Flatten(source, exempt) {
		valid[lockfile.LeafKey(l.Path)] = true
	}
	n := 0
	for _, l := range document.Flatten(target, nil) {
		if !valid[lockfile.LeafKey(l.Path)] {
			target.DeletePath(l.Path)
			n++
		}
	}
	return n
}
