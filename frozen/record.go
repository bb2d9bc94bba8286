package frozen

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/daveshilobod/lithify"
)

// Record is the mode-aware field store behind generated models that
// carry dynamic fields. It is mutable during construction; Seal flips it
// into the behavior its mode demands. Sealing is per instance, never
// shared state.
type Record struct {
	typeName string
	mode     lithify.Mutability
	declared []string
	dynamic  *regexp.Regexp
	fields   map[string]any
	extra    []string // dynamic field names, sorted
	sealed   bool
	hash     uint64
}

// NewRecord creates an unsealed record for the named type with its
// declared fields in declaration order.
func NewRecord(typeName string, mode lithify.Mutability, declared ...string) *Record {
	return &Record{
		typeName: typeName,
		mode:     mode,
		declared: declared,
		fields:   make(map[string]any, len(declared)),
	}
}

// WithDynamicFields allows fields whose names match pattern in addition
// to the declared set. Dynamic fields participate in the freeze pass and
// the hash.
func (r *Record) WithDynamicFields(pattern *regexp.Regexp) *Record {
	r.dynamic = pattern
	return r
}

// Set assigns a field value. After Seal it fails with a FieldFrozenError
// in the frozen modes; a mutable record stays assignable.
func (r *Record) Set(name string, value any) error {
	if r.sealed && r.mode != lithify.Mutable {
		return &FieldFrozenError{Type: r.typeName, Field: name}
	}
	if !r.isDeclared(name) {
		if r.dynamic == nil || !r.dynamic.MatchString(name) {
			return fmt.Errorf("frozen: %s has no field %q", r.typeName, name)
		}
		if _, ok := r.fields[name]; !ok {
			r.extra = append(r.extra, name)
			sort.Strings(r.extra)
		}
	}
	r.fields[name] = value
	return nil
}

// Get returns a field value.
func (r *Record) Get(name string) (any, bool) {
	v, ok := r.fields[name]
	return v, ok
}

// Fields returns the populated field names: declared order first, then
// dynamic fields sorted.
func (r *Record) Fields() []string {
	out := make([]string, 0, len(r.fields))
	for _, name := range r.declared {
		if _, ok := r.fields[name]; ok {
			out = append(out, name)
		}
	}
	return append(out, r.extra...)
}

// Seal marks construction complete. Mutable records are untouched.
// Frozen records reject further assignment. Deep-frozen records
// additionally freeze every container value and become hashable.
func (r *Record) Seal() *Record {
	if r.sealed || r.mode == lithify.Mutable {
		return r
	}
	if r.mode == lithify.DeepFrozen {
		for name, value := range r.fields {
			r.fields[name] = Freeze(value)
		}
		r.hash = hashValue(r)
	}
	r.sealed = true
	return r
}

// Sealed reports whether construction has completed.
func (r *Record) Sealed() bool { return r.sealed }

// Hash returns the structural hash over (field name, frozen value)
// pairs in field order. Zero until a deep-frozen record is sealed.
func (r *Record) Hash() uint64 { return r.hash }

// Equal reports structural equality of two records' frozen fields.
func (r *Record) Equal(other *Record) bool {
	return other != nil && canonString(r) == canonString(other)
}

func (r *Record) String() string { return canonString(r) }

func (r *Record) isDeclared(name string) bool {
	for _, d := range r.declared {
		if d == name {
			return true
		}
	}
	return false
}
