// Package gen compiles classified schema nodes into typed alias
// declarations: it assigns a shape to every node, extracts constraint
// sets, merges allOf refinements, names and bundles the resulting
// aliases, and emits one Go source file per schema-origin bundle.
package gen

import (
	"github.com/daveshilobod/lithify/compiler/load"
)

// Shape is the closed set of classifications a schema node can receive.
// Downstream phases switch exhaustively over it.
type Shape int

const (
	// ShapeUnclassified is the passthrough shape: the node is handed to
	// the external structural generator untouched. Bare unconstrained
	// primitives land here on purpose, an alias with no validation
	// attached carries no value.
	ShapeUnclassified Shape = iota
	ShapeScalarString
	ShapeScalarNumber
	ShapeEnum
	ShapeScalarUnion
	ShapeRefinement
	ShapeObject
	ShapeArray
	ShapeMap
)

var shapeNames = [...]string{
	ShapeUnclassified: "unclassified",
	ShapeScalarString: "scalar_string",
	ShapeScalarNumber: "scalar_number",
	ShapeEnum:         "enum",
	ShapeScalarUnion:  "scalar_union",
	ShapeRefinement:   "refinement",
	ShapeObject:       "object",
	ShapeArray:        "array",
	ShapeMap:          "map",
}

func (s Shape) String() string {
	if int(s) < len(shapeNames) {
		return shapeNames[s]
	}
	return "unclassified"
}

// Aliasable reports whether the shape compiles to a scalar alias.
func (s Shape) Aliasable() bool {
	switch s {
	case ShapeScalarString, ShapeScalarNumber, ShapeEnum, ShapeScalarUnion:
		return true
	}
	return false
}

// structuralKeys disqualify a node from being a scalar.
var structuralKeys = []string{"properties", "items", "oneOf", "anyOf", "allOf"}

func hasStructuralKeys(node load.Schema) bool {
	for _, key := range structuralKeys {
		if _, ok := node[key]; ok {
			return true
		}
	}
	return false
}

var stringConstraintKeys = []string{"pattern", "format", "minLength", "maxLength"}

func isScalarString(node load.Schema) bool {
	if node["type"] != "string" || hasStructuralKeys(node) {
		return false
	}
	for _, key := range stringConstraintKeys {
		if _, ok := node[key]; ok {
			return true
		}
	}
	return false
}

var numberConstraintKeys = []string{"minimum", "maximum", "exclusiveMinimum", "exclusiveMaximum", "multipleOf"}

func isScalarNumber(node load.Schema) bool {
	if t := node["type"]; t != "number" && t != "integer" {
		return false
	}
	if hasStructuralKeys(node) {
		return false
	}
	for _, key := range numberConstraintKeys {
		if _, ok := node[key]; ok {
			return true
		}
	}
	return false
}

func isStringEnum(node load.Schema) bool {
	values, ok := node["enum"].([]any)
	if !ok || len(values) == 0 {
		return false
	}
	for _, v := range values {
		if _, ok := v.(string); !ok {
			return false
		}
	}
	return true
}

// isScalarUnion reports whether the node is a oneOf whose branches are all
// constrained scalar strings. A single branch is not a union; mixed base
// kinds disqualify the whole node.
func isScalarUnion(node load.Schema) bool {
	branches, ok := node["oneOf"].([]any)
	if !ok || len(branches) < 2 {
		return false
	}
	hasPattern := false
	for _, b := range branches {
		m, ok := b.(load.Schema)
		if !ok || !isScalarString(m) {
			return false
		}
		if _, ok := m["pattern"]; ok {
			hasPattern = true
		}
	}
	return hasPattern
}

// isRefinement reports whether the node is an allOf with two or more
// branches. Branch types are validated during the merge, not here.
func isRefinement(node load.Schema) bool {
	branches, ok := node["allOf"].([]any)
	return ok && len(branches) >= 2
}

// Classify assigns exactly one shape to a node. Precedence: enum beats
// refinement beats union beats scalar; structural shapes come last.
func Classify(node load.Schema) Shape {
	switch {
	case isStringEnum(node):
		return ShapeEnum
	case isRefinement(node):
		return ShapeRefinement
	case isScalarUnion(node):
		return ShapeScalarUnion
	case isScalarString(node):
		return ShapeScalarString
	case isScalarNumber(node):
		return ShapeScalarNumber
	}
	switch node["type"] {
	case "object":
		if _, ok := node["additionalProperties"]; ok {
			if _, hasProps := node["properties"]; !hasProps {
				return ShapeMap
			}
		}
		return ShapeObject
	case "array":
		return ShapeArray
	}
	if _, ok := node["patternProperties"]; ok {
		return ShapeObject
	}
	return ShapeUnclassified
}
