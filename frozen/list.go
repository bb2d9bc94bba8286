package frozen

// List is a fixed-length immutable sequence. The read interface mirrors
// a slice; every mutation path returns a ContainerFrozenError.
type List struct {
	items []any
}

// ListOf builds an immutable list, deep-freezing every element.
func ListOf(items ...any) *List {
	frozen := make([]any, len(items))
	for i, item := range items {
		frozen[i] = Freeze(item)
	}
	return &List{items: frozen}
}

func (l *List) Len() int { return len(l.items) }

// At returns the element at index i.
func (l *List) At(i int) any { return l.items[i] }

// Values returns a copy of the elements. Mutating the copy does not
// affect the list.
func (l *List) Values() []any {
	out := make([]any, len(l.items))
	copy(out, l.items)
	return out
}

// Range calls fn for each element in order until fn returns false.
func (l *List) Range(fn func(i int, v any) bool) {
	for i, v := range l.items {
		if !fn(i, v) {
			return
		}
	}
}

// Set always fails: lists are frozen at construction.
func (l *List) Set(int, any) error {
	return &ContainerFrozenError{Container: "list", Op: "item assignment"}
}

// Append always fails: lists are frozen at construction.
func (l *List) Append(...any) error {
	return &ContainerFrozenError{Container: "list", Op: "append"}
}

// Equal reports structural equality with another list.
func (l *List) Equal(other *List) bool {
	return other != nil && canonString(l) == canonString(other)
}

// Hash returns the structural hash. Equal lists hash equal.
func (l *List) Hash() uint64 { return hashValue(l) }

func (l *List) String() string { return canonString(l) }
