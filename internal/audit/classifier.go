package audit

import (
	"reflect"
	"time"
)

// Classify compares an entity's current state against the prior committed
// state captured by its store and produces the before/after snapshots for an
// audit event.
//
// history is the snapshot taken when the row was loaded (see HistoryOf), or
// nil for an entity that never had a committed state. Per-field policy:
//
//   - field present in history with a different value: changed, before
//     carries the prior value
//   - field present with an equal value: unchanged, before == after
//   - field absent from history: treated as newly set, before is nil and
//     the entity counts as changed
//
// Foreign-key relationship columns ride along in both snapshots but are
// only consulted for change detection when no scalar field moved, so a
// mutation expressed purely as "points at a different related row" is still
// detected.
//
// Callers must not classify entities whose identifier is unassigned; new
// entities are deferred to the post-commit stage where their identifier
// exists.
func Classify(entity Tracked, history Snapshot) (before, after Snapshot, changed bool) {
	fields := entity.AuditFields()
	fks := entity.AuditForeignKeys()

	before = make(Snapshot, len(fields)+len(fks)+1)
	after = make(Snapshot, len(fields)+len(fks)+1)

	scalars := make(Snapshot, len(fields)+1)
	for k, v := range fields {
		scalars[k] = v
	}
	scalars["id"] = entity.AuditID()

	for name, current := range scalars {
		after[name] = current
		prior, ok := history[name]
		switch {
		case !ok:
			before[name] = nil
			changed = true
		case !valuesEqual(prior, current):
			before[name] = prior
			changed = true
		default:
			before[name] = prior
		}
	}

	for name, current := range fks {
		after[name] = current
		if prior, ok := history[name]; ok {
			before[name] = prior
		} else {
			before[name] = nil
		}
	}

	if !changed {
		for name, current := range fks {
			prior, ok := history[name]
			if !ok || !valuesEqual(prior, current) {
				changed = true
				break
			}
		}
	}

	return before, after, changed
}

// valuesEqual compares snapshot values. Times compare by instant so a
// timezone normalization round trip is not a change.
func valuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if at, ok := a.(time.Time); ok {
		if bt, ok := b.(time.Time); ok {
			return at.Equal(bt)
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}
