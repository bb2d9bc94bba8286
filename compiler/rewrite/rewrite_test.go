package rewrite

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const generatedSrc = `package models

// Event is a generated model.
type Event struct {
	Code    string            ` + "`json:\"code\"`" + `
	Ptr     *string           ` + "`json:\"ptr,omitempty\"`" + `
	Tags    []string          ` + "`json:\"tags\"`" + `
	Labels  map[string]string ` + "`json:\"labels\"`" + `
	Index   map[string]int    ` + "`json:\"index\"`" + `
	Note    string            ` + "`json:\"note\"`" + `
	Created int64             ` + "`json:\"created_ns\"`" + `
}
`

func eventPlan(t *testing.T) *Plan {
	t.Helper()
	code := AliasRef{ImportPath: "example.com/models/aliases", Name: "Code", Primitive: "string"}
	nsInt := AliasRef{ImportPath: "example.com/models/aliases", Name: "NsInt", Primitive: "int64"}

	p := NewPlan()
	require.NoError(t, p.Add(Target{Type: "Event", Field: "Code", Slot: SlotSelf}, code))
	require.NoError(t, p.Add(Target{Type: "Event", Field: "Ptr", Slot: SlotSelf}, code))
	require.NoError(t, p.Add(Target{Type: "Event", Field: "Tags", Slot: SlotElem}, code))
	require.NoError(t, p.Add(Target{Type: "Event", Field: "Labels", Slot: SlotValue}, code))
	require.NoError(t, p.Add(Target{Type: "Event", Field: "Index", Slot: SlotKey}, code))
	require.NoError(t, p.Add(Target{Type: "Event", Field: "Created", Slot: SlotSelf}, nsInt))
	return p
}

func writeSource(t *testing.T, name, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestFile(t *testing.T) {
	path := writeSource(t, "event.go", generatedSrc)

	changed, err := File(path, eventPlan(t))
	require.NoError(t, err)
	assert.True(t, changed)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	src := string(data)

	assert.Contains(t, src, `"example.com/models/aliases"`)
	assert.Contains(t, src, "*aliases.Code")
	assert.Contains(t, src, "[]aliases.Code")
	assert.Contains(t, src, "map[string]aliases.Code")
	assert.Contains(t, src, "map[aliases.Code]int")
	assert.Contains(t, src, "aliases.NsInt")
	// Bare self, pointer, slice element, map value and map key.
	assert.Equal(t, 5, strings.Count(src, "aliases.Code"))

	// Untargeted fields keep their primitives.
	assert.Regexp(t, `Note\s+string`, src)

	// Struct tags survive the rewrite.
	assert.Contains(t, src, "`json:\"code\"`")
	assert.Contains(t, src, "`json:\"created_ns\"`")
}

// A generator emits the wire type it saw in the schema, which may differ
// from the alias's underlying type. A string-typed timestamp field still
// gets its integer-backed alias.
func TestFileCrossPrimitive(t *testing.T) {
	src := `package models

type Event struct {
	CreatedNs string ` + "`json:\"created_ns\"`" + `
}
`
	path := writeSource(t, "event.go", src)

	p := NewPlan()
	require.NoError(t, p.Add(
		Target{Type: "Event", Field: "CreatedNs", Slot: SlotSelf},
		AliasRef{ImportPath: "example.com/models/aliases", Name: "NsInt", Primitive: "int64"},
	))

	changed, err := File(path, p)
	require.NoError(t, err)
	assert.True(t, changed)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Regexp(t, `CreatedNs\s+aliases\.NsInt`, string(data))
}

func TestFileIdempotent(t *testing.T) {
	path := writeSource(t, "event.go", generatedSrc)
	plan := eventPlan(t)

	changed, err := File(path, plan)
	require.NoError(t, err)
	require.True(t, changed)
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	changed, err = File(path, plan)
	require.NoError(t, err)
	assert.False(t, changed)
	second, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestFileNoMatches(t *testing.T) {
	src := `package models

type Other struct {
	Name string
}
`
	path := writeSource(t, "other.go", src)

	changed, err := File(path, eventPlan(t))
	require.NoError(t, err)
	assert.False(t, changed)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, src, string(data))
}

func TestFileSamePackageAlias(t *testing.T) {
	src := `package models

type Event struct {
	Code string
}
`
	path := writeSource(t, "event.go", src)

	p := NewPlan()
	require.NoError(t, p.Add(
		Target{Type: "Event", Field: "Code", Slot: SlotSelf},
		AliasRef{Name: "Code", Primitive: "string"},
	))

	changed, err := File(path, p)
	require.NoError(t, err)
	assert.True(t, changed)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Regexp(t, `Code\s+Code`, string(data))
	assert.NotContains(t, string(data), "import")
}

func TestDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "event.go"), []byte(generatedSrc), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.go"), []byte("package models\n\ntype Other struct{ Name string }\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "event_test.go"), []byte(generatedSrc), 0o644))

	modified, err := Dir(dir, eventPlan(t))
	require.NoError(t, err)
	assert.Equal(t, 1, modified)

	// Test files are never rewritten.
	data, err := os.ReadFile(filepath.Join(dir, "event_test.go"))
	require.NoError(t, err)
	assert.Equal(t, generatedSrc, string(data))
}
