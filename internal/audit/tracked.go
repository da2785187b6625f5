package audit

// Tracked is the capability a persisted entity implements to opt into audit
// event generation. Implementations declare their tracked fields explicitly
// instead of relying on runtime introspection, so the set of audited columns
// is visible at the type definition and checked at compile time.
type Tracked interface {
	// AuditTable is the entity's storage table name.
	AuditTable() string
	// AuditID is the primary identifier, or 0 while unassigned. New
	// entities have no identifier until their insert has run; the recorder
	// refuses to build events for them until it is set.
	AuditID() int64
	// AuditFields returns the current values of the tracked scalar fields.
	AuditFields() Snapshot
	// AuditForeignKeys returns the current values of relationship fields
	// that are backed by a foreign-key column. They are snapshotted along
	// with the scalars but only consulted for change detection when no
	// scalar field moved.
	AuditForeignKeys() Snapshot
}

// HistoryOf captures an entity's current state as the prior-state snapshot
// a store hands to the session when registering a dirty or deleted entity.
// Call it on the loaded row before applying the mutation.
func HistoryOf(e Tracked) Snapshot {
	fields := e.AuditFields()
	fks := e.AuditForeignKeys()
	h := make(Snapshot, len(fields)+len(fks)+1)
	for k, v := range fields {
		h[k] = v
	}
	for k, v := range fks {
		h[k] = v
	}
	h["id"] = e.AuditID()
	return h
}

// NullableInt64 converts an optional foreign-key column to a snapshot value.
func NullableInt64(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}
