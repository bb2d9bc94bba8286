package gen

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/daveshilobod/lithify/compiler/load"
)

func TestClassify(t *testing.T) {
	uuidPattern := "^[0-9a-f]{8}-[0-9a-f]{4}-[1-5][0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$"

	tests := []struct {
		name string
		node load.Schema
		want Shape
	}{
		{"BareString", load.Schema{"type": "string"}, ShapeUnclassified},
		{"BareInteger", load.Schema{"type": "integer"}, ShapeUnclassified},
		{"BareBoolean", load.Schema{"type": "boolean"}, ShapeUnclassified},
		{"PatternString", load.Schema{"type": "string", "pattern": uuidPattern}, ShapeScalarString},
		{"FormatString", load.Schema{"type": "string", "format": "email"}, ShapeScalarString},
		{"LengthString", load.Schema{"type": "string", "minLength": float64(1)}, ShapeScalarString},
		{"BoundedInteger", load.Schema{"type": "integer", "minimum": float64(0)}, ShapeScalarNumber},
		{"BoundedNumber", load.Schema{"type": "number", "multipleOf": 0.5}, ShapeScalarNumber},
		{"Enum", load.Schema{"type": "string", "enum": []any{"a", "b"}}, ShapeEnum},
		{"MixedEnum", load.Schema{"enum": []any{"a", float64(1)}}, ShapeUnclassified},
		{"Refinement", load.Schema{"allOf": []any{
			load.Schema{"$ref": "#/$defs/Base"},
			load.Schema{"pattern": "^x$"},
		}}, ShapeRefinement},
		{"SingleBranchAllOf", load.Schema{"allOf": []any{
			load.Schema{"$ref": "#/$defs/Base"},
		}}, ShapeUnclassified},
		{"ScalarUnion", load.Schema{"oneOf": []any{
			load.Schema{"type": "string", "pattern": "^[0-9a-f]{16}$"},
			load.Schema{"type": "string", "pattern": "^[0-9a-f]{32}$"},
		}}, ShapeScalarUnion},
		{"UnionWithUnconstrainedBranch", load.Schema{"oneOf": []any{
			load.Schema{"type": "string", "pattern": "^[0-9a-f]{16}$"},
			load.Schema{"type": "string"},
		}}, ShapeUnclassified},
		{"UnionMixedKinds", load.Schema{"oneOf": []any{
			load.Schema{"type": "string", "pattern": "^x$"},
			load.Schema{"type": "integer", "minimum": float64(0)},
		}}, ShapeUnclassified},
		{"Object", load.Schema{"type": "object", "properties": map[string]any{}}, ShapeObject},
		{"Map", load.Schema{"type": "object", "additionalProperties": load.Schema{"type": "string"}}, ShapeMap},
		{"ObjectWithBoth", load.Schema{
			"type":                 "object",
			"properties":           map[string]any{},
			"additionalProperties": false,
		}, ShapeObject},
		{"Array", load.Schema{"type": "array", "items": load.Schema{"type": "string"}}, ShapeArray},
		{"PatternProperties", load.Schema{"patternProperties": map[string]any{}}, ShapeObject},
		{"Empty", load.Schema{}, ShapeUnclassified},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.node), "shape of %v", tt.node)
		})
	}
}

func TestClassifyPrecedence(t *testing.T) {
	t.Run("EnumBeatsScalarString", func(t *testing.T) {
		node := load.Schema{"type": "string", "pattern": "^x$", "enum": []any{"x"}}
		assert.Equal(t, ShapeEnum, Classify(node))
	})
	t.Run("RefinementBeatsScalarString", func(t *testing.T) {
		node := load.Schema{
			"type":    "string",
			"pattern": "^x$",
			"allOf": []any{
				load.Schema{"minLength": float64(1)},
				load.Schema{"maxLength": float64(8)},
			},
		}
		assert.Equal(t, ShapeRefinement, Classify(node))
	})
}

func TestShapeAliasable(t *testing.T) {
	aliasable := map[Shape]bool{
		ShapeScalarString: true,
		ShapeScalarNumber: true,
		ShapeEnum:         true,
		ShapeScalarUnion:  true,
	}
	for s := ShapeUnclassified; s <= ShapeMap; s++ {
		assert.Equal(t, aliasable[s], s.Aliasable(), "shape %s", s)
	}
}
