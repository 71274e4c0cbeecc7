package jsonschema

import (
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftwatch/jsonshape/ir"
)

func TestEmitInteger(t *testing.T) {
	s := Emit(&ir.Integer{Min: 1, Max: 100})
	assert.Equal(t, openapi3.TypeInteger, s.Type)
	assert.Equal(t, 1.0, *s.Min)
	assert.Equal(t, 100.0, *s.Max)
}

func TestEmitStringEnum(t *testing.T) {
	s := Emit(&ir.String{Enum: []string{"blue", "green", "red"}})
	assert.Equal(t, openapi3.TypeString, s.Type)
	assert.Equal(t, []interface{}{"blue", "green", "red"}, s.Enum)
	assert.Equal(t, "", s.Pattern)
}

func TestEmitStringPatternAndFormat(t *testing.T) {
	s := Emit(&ir.String{Pattern: "^user_.*", FormatURI: true})
	assert.Equal(t, "^user_.*", s.Pattern)
	assert.Equal(t, "uri", s.Format)

	s = Emit(&ir.String{FormatUUID: true})
	assert.Equal(t, "uuid", s.Format)
}

func TestEmitTupleUsesPrefixItems(t *testing.T) {
	s := Emit(&ir.ArrayTuple{
		Elems:    []ir.Ty{&ir.Integer{Min: 1, Max: 5}, &ir.Null{}},
		MinItems: 2,
		MaxItems: 2,
	})
	assert.Equal(t, openapi3.TypeArray, s.Type)
	assert.Equal(t, uint64(2), s.MinItems)
	assert.Equal(t, uint64(2), *s.MaxItems)

	elems, ok := s.Extensions["prefixItems"].([]*openapi3.Schema)
	require.True(t, ok)
	require.Len(t, elems, 2)
	assert.Equal(t, openapi3.TypeInteger, elems[0].Type)
	assert.Equal(t, "null", elems[1].Type)
}

func TestEmitObjectRequired(t *testing.T) {
	s := Emit(&ir.Object{Fields: []ir.Field{
		{Name: "a", Ty: &ir.Integer{Min: 1, Max: 2}, Required: true},
		{Name: "b", Ty: &ir.Nullable{Inner: &ir.String{}}, Required: false},
	}})
	assert.Equal(t, openapi3.TypeObject, s.Type)
	assert.Equal(t, []string{"a"}, s.Required)
	require.NotNil(t, s.Properties["b"])
	assert.True(t, s.Properties["b"].Value.Nullable)
}

func TestEmitOneOf(t *testing.T) {
	s := Emit(&ir.OneOf{Arms: []ir.Ty{&ir.Bool{}, &ir.String{}, &ir.Null{}}})
	require.Len(t, s.OneOf, 3)
	assert.Equal(t, openapi3.TypeBoolean, s.OneOf[0].Value.Type)
	assert.Equal(t, "null", s.OneOf[2].Value.Type)
}

func TestMarshalIndent(t *testing.T) {
	bs, err := MarshalIndent(&ir.ArrayList{
		Item:     &ir.Number{Min: 10, Max: 12},
		MinItems: 3,
		MaxItems: 3,
	})
	assert.Nil(t, err)
	assert.Contains(t, string(bs), `"type": "array"`)
	assert.Contains(t, string(bs), `"maxItems": 3`)
}
