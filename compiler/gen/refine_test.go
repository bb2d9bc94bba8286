package gen

import (
	"path/filepath"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daveshilobod/lithify"
	"github.com/daveshilobod/lithify/compiler/load"
)

const (
	uuidAnyPattern = "^[0-9a-f]{8}-[0-9a-f]{4}-[1-5][0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$"
	uuidV4Pattern  = "^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$"
)

// writeSchemas writes docs into dir and indexes them.
func writeSchemas(t *testing.T, dir string, docs map[string]load.Schema) *load.Index {
	t.Helper()
	var paths []string
	for name, doc := range docs {
		path := filepath.Join(dir, name)
		require.NoError(t, load.WriteSchema(path, doc))
		paths = append(paths, path)
	}
	sort.Strings(paths)
	idx, err := load.LoadIndex(paths, "")
	require.NoError(t, err)
	return idx
}

func TestUUIDVersionSet(t *testing.T) {
	t.Run("SingleDigit", func(t *testing.T) {
		assert.Equal(t, map[byte]bool{'4': true}, uuidVersionSet(uuidV4Pattern))
	})
	t.Run("DigitRange", func(t *testing.T) {
		assert.Equal(t, map[byte]bool{'1': true, '2': true, '3': true, '4': true, '5': true},
			uuidVersionSet(uuidAnyPattern))
	})
	t.Run("DigitList", func(t *testing.T) {
		pattern := "^[0-9a-f]{8}-[0-9a-f]{4}-[47][0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$"
		assert.Equal(t, map[byte]bool{'4': true, '7': true}, uuidVersionSet(pattern))
	})
	t.Run("UnversionedHexClass", func(t *testing.T) {
		pattern := "^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$"
		assert.Nil(t, uuidVersionSet(pattern))
	})
	t.Run("NotAUUID", func(t *testing.T) {
		assert.Nil(t, uuidVersionSet("^[a-z]+$"))
		assert.Nil(t, uuidVersionSet("^\\d{4}-\\d{2}-\\d{2}$"))
	})
}

func TestSpecializeUUIDPattern(t *testing.T) {
	t.Run("SubsetWins", func(t *testing.T) {
		got, err := specializeUUIDPattern([]string{uuidAnyPattern, uuidV4Pattern}, "doc", "/ptr")
		require.NoError(t, err)
		assert.Equal(t, uuidV4Pattern, got)

		got, err = specializeUUIDPattern([]string{uuidV4Pattern, uuidAnyPattern}, "doc", "/ptr")
		require.NoError(t, err)
		assert.Equal(t, uuidV4Pattern, got)
	})
	t.Run("DisjointVersions", func(t *testing.T) {
		v5 := "^[0-9a-f]{8}-[0-9a-f]{4}-5[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$"
		_, err := specializeUUIDPattern([]string{uuidV4Pattern, v5}, "doc", "/ptr")
		require.Error(t, err)
		assert.True(t, lithify.IsIncompatibleRefinement(err))
	})
	t.Run("NonUUIDPatterns", func(t *testing.T) {
		got, err := specializeUUIDPattern([]string{"^a+$", "^b+$"}, "doc", "/ptr")
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestCollapseAllOf(t *testing.T) {
	t.Run("UUIDRefinement", func(t *testing.T) {
		dir := t.TempDir()
		idx := writeSchemas(t, dir, map[string]load.Schema{
			"types.json": {
				"title": "Types",
				"$defs": map[string]any{
					"Uuid": load.Schema{"type": "string", "pattern": uuidAnyPattern},
				},
			},
			"event.json": {
				"title": "Event",
				"type":  "object",
				"properties": map[string]any{
					"id": load.Schema{"allOf": []any{
						load.Schema{"$ref": "lithify:///types.json#/$defs/Uuid"},
						load.Schema{"pattern": uuidV4Pattern},
					}},
				},
			},
		})

		inline, idx, err := CollapseAllOf(dir, idx, "", nil)
		require.NoError(t, err)
		require.Len(t, inline, 1)
		assert.Equal(t, "id", inline[0].Property)
		assert.Equal(t, "Event", inline[0].Parent)
		assert.Equal(t, "#/properties/id", inline[0].Pointer)

		doc, err := load.ReadSchema(filepath.Join(dir, "event.json"))
		require.NoError(t, err)
		id := doc["properties"].(map[string]any)["id"].(map[string]any)
		assert.Nil(t, id["allOf"])
		assert.Equal(t, "string", id["type"])
		assert.Equal(t, uuidV4Pattern, id["pattern"])

		c := Constraints{Pattern: uuidV4Pattern}
		assert.NoError(t, c.Validate(uuid.NewString()))
		assert.Error(t, c.Validate("2fd4e1c6-7a2d-11e1-9b23-0800200c9a66"))

		// A second pass over the collapsed tree is a no-op.
		inline, _, err = CollapseAllOf(dir, idx, "", nil)
		require.NoError(t, err)
		assert.Empty(t, inline)
	})

	t.Run("SharedRefinementNameStable", func(t *testing.T) {
		// Two properties with identical refinements collapse onto one
		// alias. Which property names it is first-seen order, so the
		// traversal order has to hold across runs.
		for i := 0; i < 10; i++ {
			dir := t.TempDir()
			idx := writeSchemas(t, dir, map[string]load.Schema{
				"types.json": {
					"title": "Types",
					"$defs": map[string]any{
						"Uuid": load.Schema{"type": "string", "pattern": uuidAnyPattern},
					},
				},
				"event.json": {
					"title": "Event",
					"type":  "object",
					"properties": map[string]any{
						"updated_by": load.Schema{"allOf": []any{
							load.Schema{"$ref": "lithify:///types.json#/$defs/Uuid"},
							load.Schema{"pattern": uuidV4Pattern},
						}},
						"created_by": load.Schema{"allOf": []any{
							load.Schema{"$ref": "lithify:///types.json#/$defs/Uuid"},
							load.Schema{"pattern": uuidV4Pattern},
						}},
					},
				},
			})

			inline, idx, err := CollapseAllOf(dir, idx, "", nil)
			require.NoError(t, err)
			require.Len(t, inline, 2)
			assert.Equal(t, "created_by", inline[0].Property)
			assert.Equal(t, "updated_by", inline[1].Property)

			s := NewSession(idx)
			require.NoError(t, s.CollectAliases())
			require.NoError(t, s.AddInlineAliases(inline))

			created, ok := s.InlineAliasFor("Event", "created_by")
			require.True(t, ok)
			updated, ok := s.InlineAliasFor("Event", "updated_by")
			require.True(t, ok)
			assert.Same(t, created, updated)
			assert.Equal(t, "EventCreatedBy", created.Name)
		}
	})

	t.Run("BoundsIntersect", func(t *testing.T) {
		dir := t.TempDir()
		idx := writeSchemas(t, dir, map[string]load.Schema{
			"limits.json": {
				"title": "Limits",
				"$defs": map[string]any{
					"Port": load.Schema{"allOf": []any{
						load.Schema{"type": "integer", "minimum": float64(0), "maximum": float64(65535)},
						load.Schema{"minimum": float64(1024)},
					}},
				},
			},
		})

		_, _, err := CollapseAllOf(dir, idx, "", nil)
		require.NoError(t, err)

		doc, err := load.ReadSchema(filepath.Join(dir, "limits.json"))
		require.NoError(t, err)
		port := doc["$defs"].(map[string]any)["Port"].(map[string]any)
		assert.Equal(t, "integer", port["type"])
		assert.Equal(t, float64(1024), port["minimum"])
		assert.Equal(t, float64(65535), port["maximum"])
	})

	t.Run("EnumIntersection", func(t *testing.T) {
		dir := t.TempDir()
		idx := writeSchemas(t, dir, map[string]load.Schema{
			"states.json": {
				"title": "States",
				"$defs": map[string]any{
					"Active": load.Schema{"allOf": []any{
						load.Schema{"type": "string", "enum": []any{"starting", "running", "stopped"}},
						load.Schema{"enum": []any{"running", "stopped", "failed"}},
					}},
				},
			},
		})

		_, _, err := CollapseAllOf(dir, idx, "", nil)
		require.NoError(t, err)

		doc, err := load.ReadSchema(filepath.Join(dir, "states.json"))
		require.NoError(t, err)
		active := doc["$defs"].(map[string]any)["Active"].(map[string]any)
		assert.Equal(t, []any{"running", "stopped"}, active["enum"])
	})

	t.Run("NonUUIDPatternsConjoin", func(t *testing.T) {
		dir := t.TempDir()
		idx := writeSchemas(t, dir, map[string]load.Schema{
			"names.json": {
				"title": "Names",
				"$defs": map[string]any{
					"Slug": load.Schema{"allOf": []any{
						load.Schema{"type": "string", "pattern": "^[a-z0-9-]+$"},
						load.Schema{"pattern": "^.{3,}$"},
					}},
				},
			},
		})

		_, _, err := CollapseAllOf(dir, idx, "", nil)
		require.NoError(t, err)

		doc, err := load.ReadSchema(filepath.Join(dir, "names.json"))
		require.NoError(t, err)
		slug := doc["$defs"].(map[string]any)["Slug"].(map[string]any)
		assert.Equal(t, "^[a-z0-9-]+$", slug["pattern"])
		assert.Equal(t, []any{"^[a-z0-9-]+$", "^.{3,}$"}, slug["x-and-patterns"])
	})

	t.Run("MixedScalarTypes", func(t *testing.T) {
		dir := t.TempDir()
		idx := writeSchemas(t, dir, map[string]load.Schema{
			"bad.json": {
				"title": "Bad",
				"$defs": map[string]any{
					"Broken": load.Schema{"allOf": []any{
						load.Schema{"type": "string", "pattern": "^x$"},
						load.Schema{"type": "integer", "minimum": float64(0)},
					}},
				},
			},
		})

		_, _, err := CollapseAllOf(dir, idx, "", nil)
		require.Error(t, err)
		assert.True(t, lithify.IsIncompatibleRefinement(err))
	})

	t.Run("UnsatisfiableLengths", func(t *testing.T) {
		dir := t.TempDir()
		idx := writeSchemas(t, dir, map[string]load.Schema{
			"bad.json": {
				"title": "Bad",
				"$defs": map[string]any{
					"Broken": load.Schema{"allOf": []any{
						load.Schema{"type": "string", "minLength": float64(5)},
						load.Schema{"maxLength": float64(3)},
					}},
				},
			},
		})

		_, _, err := CollapseAllOf(dir, idx, "", nil)
		require.Error(t, err)
		assert.True(t, lithify.IsIncompatibleRefinement(err))
	})

	t.Run("DanglingRef", func(t *testing.T) {
		dir := t.TempDir()
		idx := writeSchemas(t, dir, map[string]load.Schema{
			"bad.json": {
				"title": "Bad",
				"$defs": map[string]any{
					"Broken": load.Schema{"allOf": []any{
						load.Schema{"$ref": "#/$defs/Missing"},
						load.Schema{"type": "string", "minLength": float64(1)},
					}},
				},
			},
		})

		_, _, err := CollapseAllOf(dir, idx, "", nil)
		require.Error(t, err)
		assert.True(t, lithify.IsUnresolvedReference(err))
	})
}
