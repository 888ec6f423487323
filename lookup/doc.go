// Package lookup builds primary-key filter predicates from field metadata
// and applies them to entity sources.
//
// Callers describe a key as (field name, value) pairs. Each name is resolved
// against the entity's primary-key fields, the value is converted to the
// field's declared type, and the resulting equality tests are combined:
//
//	single key:      Id == 42
//	composite key:   RegionCode == "EU" AND LocalId == 1
//	several keys:    (RegionCode == "EU" AND LocalId == 1) OR (RegionCode == "US" AND LocalId == 9)
//
// Zero params in a single-key build yield query.True, a predicate matching
// everything. Zero groups in a multi-key build yield a nil predicate, which
// FetchMany treats as "return the source unfiltered". Both are deliberate.
//
// All errors are raised while the predicate is built, so malformed input
// fails before the source is touched.
package lookup
