package syncer

import (
	"github.com/minios-linux/locsync/document"
	"github.com/minios-linux/locsync/lockfile"
)

// Reason records which detection rule decided a leaf.
type Reason int

const (
	// ReasonPassThrough: exempt or non-translatable leaf, copied.
	ReasonPassThrough Reason = iota
	// ReasonTranslated: target already holds a value different from source.
	ReasonTranslated
	// ReasonUnchanged: target equals source and source needs no translation.
	ReasonUnchanged
	// ReasonCopied: no target value and source needs no translation.
	ReasonCopied
	// ReasonAdopted: like ReasonTranslated, with no ledger record yet.
	ReasonAdopted
	// ReasonMissing: no usable target value.
	ReasonMissing
	// ReasonUntranslated: target still equals the source text.
	ReasonUntranslated
	// ReasonStale: the ledger says the source changed since translation.
	ReasonStale
	// ReasonForced: force mode.
	ReasonForced
)

var reasonNames = [...]string{
	"pass-through", "translated", "unchanged", "copied", "adopted",
	"missing", "untranslated", "stale", "forced",
}

func (r Reason) String() string {
	if int(r) < len(reasonNames) {
		return reasonNames[r]
	}
	return "unknown"
}

// Decision is the Change Detector verdict for one source leaf.
type Decision struct {
	Leaf      document.Leaf
	Satisfied bool
	Reason    Reason
	// Value is written to the target for satisfied leaves. For pending
	// leaves it is the current target value, if any.
	Value    any
	HasValue bool
}

// Detector classifies source leaves against an existing target document.
type Detector struct {
	// Force marks every translatable leaf pending.
	Force bool
	// Lock, when set, turns on checksum-based staleness detection for
	// leaves whose target differs from source.
	Lock *lockfile.LockFile
	// LockTarget is the ledger section for this target document.
	LockTarget string
}

// Classify applies the detection rules in order.
func (d Detector) Classify(leaf document.Leaf, target *document.Object) Decision {
	existing, has := target.Lookup(leaf.Path)

	if leaf.Class == document.PassThrough {
		if has {
			return Decision{Leaf: leaf, Satisfied: true, Reason: ReasonPassThrough, Value: existing, HasValue: true}
		}
		return Decision{Leaf: leaf, Satisfied: true, Reason: ReasonPassThrough, Value: leaf.Value, HasValue: true}
	}

	pending := Decision{Leaf: leaf, Value: existing, HasValue: has}
	if d.Force {
		pending.Reason = ReasonForced
		return pending
	}

	src := leaf.Text()
	current, isString := existing.(string)

	switch {
	case isString && current != "" && current != src:
		if d.Lock == nil {
			return Decision{Leaf: leaf, Satisfied: true, Reason: ReasonTranslated, Value: current, HasValue: true}
		}
		key := lockfile.LeafKey(leaf.Path)
		_, recorded := d.Lock.Lookup(d.LockTarget, key)
		switch {
		case !recorded:
			return Decision{Leaf: leaf, Satisfied: true, Reason: ReasonAdopted, Value: current, HasValue: true}
		case !d.Lock.IsChanged(d.LockTarget, key, src):
			return Decision{Leaf: leaf, Satisfied: true, Reason: ReasonTranslated, Value: current, HasValue: true}
		default:
			pending.Reason = ReasonStale
			return pending
		}

	case isString && current == src && !document.NeedsTranslation(src):
		return Decision{Leaf: leaf, Satisfied: true, Reason: ReasonUnchanged, Value: current, HasValue: true}

	case !has && !document.NeedsTranslation(src):
		return Decision{Leaf: leaf, Satisfied: true, Reason: ReasonCopied, Value: src, HasValue: true}

	case isString && current == src:
		pending.Reason = ReasonUntranslated
		return pending
	}

	pending.Reason = ReasonMissing
	return pending
}

// ---------------------------------------------------------------------------
// Plan
// ---------------------------------------------------------------------------

// Plan is the detection result for a whole document.
type Plan struct {
	Decisions []Decision
	Pending   []document.Leaf

	Total       int // source leaves
	PassThrough int
	Satisfied   int // translatable leaves needing no work
	Stale       int
	Adopted     int
}

// NewPlan flattens source and classifies every leaf against target.
// It has no side effects.
func NewPlan(source, target *document.Object, exempt []string, d Detector) *Plan {
	if target == nil {
		target = document.New()
	}
	leaves := document.Flatten(source, exempt)
	p := &Plan{
		Decisions: make([]Decision, 0, len(leaves)),
		Total:     len(leaves),
	}
	for _, leaf := range leaves {
		dec := d.Classify(leaf, target)
		p.Decisions = append(p.Decisions, dec)

		switch {
		case dec.Reason == ReasonPassThrough:
			p.PassThrough++
		case dec.Satisfied:
			p.Satisfied++
			if dec.Reason == ReasonAdopted {
				p.Adopted++
			}
		default:
			p.Pending = append(p.Pending, leaf)
			if dec.Reason == ReasonStale {
				p.Stale++
			}
		}
	}
	return p
}

// Done reports whether nothing needs translating.
func (p *Plan) Done() bool {
	return len(p.Pending) == 0
}
