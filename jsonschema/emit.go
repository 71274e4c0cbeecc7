// Package jsonschema renders the typed IR as a JSON-Schema-like debug
// document built from openapi3 schema objects. Tuples use a prefixItems
// extension; nullability uses the openapi nullable flag.
package jsonschema

import (
	"github.com/getkin/kin-openapi/openapi3"
	json "github.com/goccy/go-json"

	"github.com/driftwatch/jsonshape/ir"
)

// Emit renders t as an openapi3 schema tree.
func Emit(t ir.Ty) *openapi3.Schema {
	switch x := t.(type) {
	case *ir.Null:
		return &openapi3.Schema{Type: "null"}

	case *ir.Bool:
		return &openapi3.Schema{Type: openapi3.TypeBoolean}

	case *ir.Integer:
		return &openapi3.Schema{
			Type: openapi3.TypeInteger,
			Min:  openapi3.Float64Ptr(float64(x.Min)),
			Max:  openapi3.Float64Ptr(float64(x.Max)),
		}

	case *ir.Number:
		return &openapi3.Schema{
			Type: openapi3.TypeNumber,
			Min:  openapi3.Float64Ptr(x.Min),
			Max:  openapi3.Float64Ptr(x.Max),
		}

	case *ir.String:
		s := &openapi3.Schema{Type: openapi3.TypeString}
		for _, lit := range x.Enum {
			s.Enum = append(s.Enum, lit)
		}
		if len(x.Enum) == 0 && x.Pattern != "" {
			s.Pattern = x.Pattern
		}
		if x.FormatURI {
			s.Format = "uri"
		} else if x.FormatUUID {
			s.Format = "uuid"
		}
		return s

	case *ir.ArrayList:
		return &openapi3.Schema{
			Type:     openapi3.TypeArray,
			Items:    Emit(x.Item).NewRef(),
			MinItems: uint64(x.MinItems),
			MaxItems: openapi3.Uint64Ptr(uint64(x.MaxItems)),
		}

	case *ir.ArrayTuple:
		elems := make([]*openapi3.Schema, len(x.Elems))
		for i, e := range x.Elems {
			elems[i] = Emit(e)
		}
		return &openapi3.Schema{
			Type:       openapi3.TypeArray,
			MinItems:   uint64(x.MinItems),
			MaxItems:   openapi3.Uint64Ptr(uint64(x.MaxItems)),
			Extensions: map[string]interface{}{"prefixItems": elems},
		}

	case *ir.Object:
		s := &openapi3.Schema{
			Type:       openapi3.TypeObject,
			Properties: make(openapi3.Schemas, len(x.Fields)),
		}
		for _, f := range x.Fields {
			s.Properties[f.Name] = Emit(f.Ty).NewRef()
			if f.Required {
				s.Required = append(s.Required, f.Name)
			}
		}
		return s

	case *ir.OneOf:
		s := &openapi3.Schema{}
		for _, arm := range x.Arms {
			s.OneOf = append(s.OneOf, Emit(arm).NewRef())
		}
		return s

	case *ir.Nullable:
		s := Emit(x.Inner)
		s.Nullable = true
		return s
	}

	panic("should be unreachable")
}

// MarshalIndent renders t straight to pretty JSON.
func MarshalIndent(t ir.Ty) ([]byte, error) {
	return json.MarshalIndent(Emit(t), "", "  ")
}
