package load

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalk(t *testing.T) {
	doc := Schema{
		"title": "User",
		"properties": map[string]any{
			"email": map[string]any{"type": "string"},
			"a/b":   map[string]any{"type": "string"},
		},
		"$defs": map[string]any{
			"Tag": map[string]any{
				"items": map[string]any{"type": "string"},
			},
		},
		"allOf": []any{
			map[string]any{"minLength": float64(1)},
		},
	}

	var pointers []string
	Walk(doc, "", func(_ Schema, pointer string) {
		pointers = append(pointers, pointer)
	})
	sort.Strings(pointers)
	assert.Equal(t, []string{
		"",
		"/$defs/Tag",
		"/$defs/Tag/items",
		"/allOf/0",
		"/properties/a~1b",
		"/properties/email",
	}, pointers)
}

// Sibling members visit in sorted key order; downstream naming depends
// on first-seen order, so the traversal must not follow map iteration.
func TestWalkOrder(t *testing.T) {
	doc := Schema{
		"properties": map[string]any{
			"updated_by": map[string]any{"type": "string"},
			"created_by": map[string]any{"type": "string"},
			"id":         map[string]any{"type": "string"},
		},
		"$defs": map[string]any{
			"b": map[string]any{"type": "string"},
			"a": map[string]any{"type": "string"},
		},
	}

	want := []string{
		"",
		"/properties/created_by",
		"/properties/id",
		"/properties/updated_by",
		"/$defs/a",
		"/$defs/b",
	}
	for i := 0; i < 50; i++ {
		var pointers []string
		Walk(doc, "", func(_ Schema, pointer string) {
			pointers = append(pointers, pointer)
		})
		require.Equal(t, want, pointers)
	}
}

func TestRefs(t *testing.T) {
	doc := Schema{
		"properties": map[string]any{
			"home": map[string]any{"$ref": "./address.json"},
			"work": map[string]any{"$ref": "./address.json#/$defs/Zip"},
		},
		"allOf": []any{
			map[string]any{"$ref": "#/$defs/Base"},
		},
	}
	refs := Refs(doc)
	sort.Strings(refs)
	assert.Equal(t, []string{"#/$defs/Base", "./address.json", "./address.json#/$defs/Zip"}, refs)

	assert.Empty(t, Refs(Schema{"type": "string"}))
}

func TestNormalizeConst(t *testing.T) {
	t.Run("InfersType", func(t *testing.T) {
		doc := Schema{"const": "active"}
		NormalizeConst(doc)
		assert.Equal(t, Schema{"type": "string", "enum": []any{"active"}}, doc)
	})
	t.Run("IntegerConst", func(t *testing.T) {
		doc := Schema{"const": float64(3)}
		NormalizeConst(doc)
		assert.Equal(t, "integer", doc["type"])
		assert.Equal(t, []any{float64(3)}, doc["enum"])
	})
	t.Run("KeepsDeclaredType", func(t *testing.T) {
		doc := Schema{"type": "string", "const": "x"}
		NormalizeConst(doc)
		assert.Equal(t, "string", doc["type"])
	})
	t.Run("MergesIntoEnum", func(t *testing.T) {
		doc := Schema{"enum": []any{"a"}, "const": "b"}
		NormalizeConst(doc)
		assert.ElementsMatch(t, []any{"a", "b"}, doc["enum"].([]any))

		dup := Schema{"enum": []any{"a"}, "const": "a"}
		NormalizeConst(dup)
		assert.Equal(t, []any{"a"}, dup["enum"])
	})
	t.Run("Nested", func(t *testing.T) {
		doc := Schema{
			"properties": map[string]any{
				"kind": map[string]any{"const": "user"},
			},
		}
		NormalizeConst(doc)
		kind := doc["properties"].(map[string]any)["kind"].(map[string]any)
		assert.Equal(t, []any{"user"}, kind["enum"])
		_, hasConst := kind["const"]
		assert.False(t, hasConst)
	})
}

func TestWriteSchemaDeterministic(t *testing.T) {
	dir := t.TempDir()
	doc := Schema{
		"title": "User",
		"properties": map[string]any{
			"b": map[string]any{"type": "string"},
			"a": map[string]any{"type": "integer"},
		},
	}

	first := filepath.Join(dir, "first.json")
	second := filepath.Join(dir, "second.json")
	require.NoError(t, WriteSchema(first, doc))
	require.NoError(t, WriteSchema(second, doc))

	a, err := os.ReadFile(first)
	require.NoError(t, err)
	b, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, byte('\n'), a[len(a)-1])

	got, err := ReadSchema(first)
	require.NoError(t, err)
	assert.Equal(t, doc, got)
}

func TestReadSchemaErrors(t *testing.T) {
	_, err := ReadSchema(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o644))
	_, err = ReadSchema(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.json")
}
