// Package rewrite substitutes compiled alias types into the struct
// declarations produced by the external structural generator. Fields are
// matched by (type, field, slot); anything without a plan entry is left
// exactly as generated.
package rewrite

import (
	"sort"

	"github.com/daveshilobod/lithify"
)

// Slot names the position inside a field's type where the alias applies.
type Slot int

const (
	// SlotSelf is the field's own type, covering the bare and pointer
	// forms.
	SlotSelf Slot = iota
	// SlotElem is the element of a slice-typed field.
	SlotElem
	// SlotKey is the key side of a map-typed field.
	SlotKey
	// SlotValue is the value side of a map-typed field.
	SlotValue
)

var slotNames = [...]string{
	SlotSelf:  "self",
	SlotElem:  "elem",
	SlotKey:   "key",
	SlotValue: "value",
}

func (s Slot) String() string {
	if int(s) < len(slotNames) {
		return slotNames[s]
	}
	return "self"
}

// AliasRef names one compiled alias as the rewriter sees it: where it
// lives, what it is called, and which primitive it replaces.
type AliasRef struct {
	// ImportPath of the alias package; empty when the alias is declared
	// in the same package as the rewritten file.
	ImportPath string
	Name       string
	// Primitive is the alias's underlying type: string, int64, float64
	// or bool. Informational; matching goes by field name, not by the
	// primitive the generator happened to emit.
	Primitive string
}

// Target is one rewrite position: a named struct field and the slot
// within its type.
type Target struct {
	Type  string
	Field string
	Slot  Slot
}

// Plan maps rewrite targets to aliases. It is built once after alias
// compilation and consumed once by the engine; two entries disagreeing on
// the same target fail at build time, not at apply time.
type Plan struct {
	entries map[Target]AliasRef
}

func NewPlan() *Plan {
	return &Plan{entries: make(map[Target]AliasRef)}
}

// Add registers an alias for a target. Registering the same alias twice
// is a no-op; a different alias for the same target is a conflict.
func (p *Plan) Add(t Target, ref AliasRef) error {
	if existing, ok := p.entries[t]; ok {
		if existing == ref {
			return nil
		}
		return lithify.NewRewriteConflictError(t.Type+"."+t.Field, existing.Name, ref.Name)
	}
	p.entries[t] = ref
	return nil
}

// Get returns the alias for a target.
func (p *Plan) Get(t Target) (AliasRef, bool) {
	ref, ok := p.entries[t]
	return ref, ok
}

// Len returns the number of plan entries.
func (p *Plan) Len() int {
	return len(p.entries)
}

// Types returns the struct type names the plan touches, sorted.
func (p *Plan) Types() []string {
	set := make(map[string]bool)
	for t := range p.entries {
		set[t.Type] = true
	}
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Targets returns all targets in deterministic order.
func (p *Plan) Targets() []Target {
	out := make([]Target, 0, len(p.entries))
	for t := range p.entries {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		if out[i].Field != out[j].Field {
			return out[i].Field < out[j].Field
		}
		return out[i].Slot < out[j].Slot
	})
	return out
}
