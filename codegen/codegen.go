// Package codegen renders the typed IR as strict Go source. Generated types
// reject unknown object fields, enforce tuple arity, and validate string and
// numeric constraints during unmarshaling. The emitted file depends only on
// the standard library so it drops into any module.
package codegen

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/driftwatch/jsonshape/ir"
)

type Options struct {
	Package  string // defaults to "model"
	RootType string // defaults to "Root"
}

type Generator struct {
	opts  Options
	decls []string
	vars  []string
	names map[string]bool

	needJSON bool
	needFmt  bool
	needByte bool
	needRe   bool
	needURI  bool
	needNull bool
	needUUID bool
}

func NewGenerator(opts Options) *Generator {
	if opts.Package == "" {
		opts.Package = "model"
	}
	if opts.RootType == "" {
		opts.RootType = "Root"
	}
	return &Generator{opts: opts, names: map[string]bool{}}
}

// Generate emits one self-contained Go source file for t.
func Generate(t ir.Ty, opts Options) string {
	g := NewGenerator(opts)
	root := g.typeExpr(t, g.opts.RootType)

	// Anchor the root so callers always have a stable entry point, even when
	// the root lowered to a primitive.
	if root != g.opts.RootType {
		g.decls = append([]string{fmt.Sprintf("type %s = %s\n", g.opts.RootType, root)}, g.decls...)
	}

	return g.render()
}

func (g *Generator) render() string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "// Code generated by jsonshape. DO NOT EDIT.\n\n")
	fmt.Fprintf(&b, "package %s\n\n", g.opts.Package)

	var imports []string
	if g.needByte {
		imports = append(imports, `"bytes"`)
	}
	if g.needJSON {
		imports = append(imports, `"encoding/json"`)
	}
	if g.needFmt {
		imports = append(imports, `"fmt"`)
	}
	if g.needURI {
		imports = append(imports, `"net/url"`)
	}
	if g.needRe {
		imports = append(imports, `"regexp"`)
	}
	if len(imports) > 0 {
		sort.Strings(imports)
		fmt.Fprintf(&b, "import (\n")
		for _, im := range imports {
			fmt.Fprintf(&b, "\t%s\n", im)
		}
		fmt.Fprintf(&b, ")\n\n")
	}

	for _, v := range g.vars {
		b.WriteString(v)
	}
	if len(g.vars) > 0 {
		b.WriteString("\n")
	}

	g.emitRuntime(&b)

	for _, d := range g.decls {
		b.WriteString(d)
		b.WriteString("\n")
	}

	return b.String()
}

func (g *Generator) emitRuntime(b *bytes.Buffer) {
	if g.needNull {
		b.WriteString(`// JSONNull accepts only the JSON literal null.
type JSONNull struct{}

func (*JSONNull) UnmarshalJSON(b []byte) error {
	if !bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		return fmt.Errorf("expected null, got %s", string(b))
	}
	return nil
}

`)
	}
	if g.needUUID {
		b.WriteString("var uuidRe = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)\n\n")
	}
	if g.needURI {
		b.WriteString(`func validateURI(s string) error {
	u, err := url.Parse(s)
	if err != nil {
		return err
	}
	if u.Scheme == "" {
		return fmt.Errorf("%q is not an absolute uri", s)
	}
	return nil
}

`)
	}
}

// typeExpr returns the Go type expression for t, declaring named types along
// the way. hint seeds the name of any declaration this node needs.
func (g *Generator) typeExpr(t ir.Ty, hint string) string {
	switch x := t.(type) {
	case *ir.Null:
		g.needNull = true
		g.needByte = true
		g.needFmt = true
		return "JSONNull"

	case *ir.Bool:
		return "bool"

	case *ir.Integer:
		return g.declInteger(x, hint)

	case *ir.Number:
		return g.declNumber(x, hint)

	case *ir.String:
		if len(x.Enum) == 0 && x.Pattern == "" && !x.FormatURI && !x.FormatUUID {
			return "string"
		}
		return g.declString(x, hint)

	case *ir.ArrayList:
		return "[]" + g.typeExpr(x.Item, singular(hint))

	case *ir.ArrayTuple:
		return g.declTuple(x, hint)

	case *ir.Object:
		return g.declObject(x, hint)

	case *ir.OneOf:
		return g.declOneOf(x, hint)

	case *ir.Nullable:
		return "*" + g.typeExpr(x.Inner, hint)
	}

	panic("should be unreachable")
}

func (g *Generator) declInteger(x *ir.Integer, hint string) string {
	name := g.claim(hint)
	g.needJSON = true
	g.needFmt = true

	var b bytes.Buffer
	fmt.Fprintf(&b, "type %s int64\n\n", name)
	fmt.Fprintf(&b, "func (x *%s) UnmarshalJSON(b []byte) error {\n", name)
	fmt.Fprintf(&b, "\tvar v int64\n")
	fmt.Fprintf(&b, "\tif err := json.Unmarshal(b, &v); err != nil {\n\t\treturn err\n\t}\n")
	fmt.Fprintf(&b, "\tif v < %d || v > %d {\n", x.Min, x.Max)
	fmt.Fprintf(&b, "\t\treturn fmt.Errorf(\"%s out of range [%d, %d]: %%d\", v)\n", name, x.Min, x.Max)
	fmt.Fprintf(&b, "\t}\n")
	fmt.Fprintf(&b, "\t*x = %s(v)\n\treturn nil\n}\n", name)
	g.decls = append(g.decls, b.String())
	return name
}

func (g *Generator) declNumber(x *ir.Number, hint string) string {
	name := g.claim(hint)
	g.needJSON = true
	g.needFmt = true

	var b bytes.Buffer
	fmt.Fprintf(&b, "type %s float64\n\n", name)
	fmt.Fprintf(&b, "func (x *%s) UnmarshalJSON(b []byte) error {\n", name)
	fmt.Fprintf(&b, "\tvar v float64\n")
	fmt.Fprintf(&b, "\tif err := json.Unmarshal(b, &v); err != nil {\n\t\treturn err\n\t}\n")
	fmt.Fprintf(&b, "\tif v < %s || v > %s {\n", formatFloat(x.Min), formatFloat(x.Max))
	fmt.Fprintf(&b, "\t\treturn fmt.Errorf(\"%s out of range [%s, %s]: %%v\", v)\n", name, formatFloat(x.Min), formatFloat(x.Max))
	fmt.Fprintf(&b, "\t}\n")
	fmt.Fprintf(&b, "\t*x = %s(v)\n\treturn nil\n}\n", name)
	g.decls = append(g.decls, b.String())
	return name
}

func (g *Generator) declString(x *ir.String, hint string) string {
	name := g.claim(hint)
	g.needJSON = true
	g.needFmt = true

	var b bytes.Buffer
	fmt.Fprintf(&b, "type %s string\n\n", name)

	if len(x.Enum) == 0 && x.Pattern != "" {
		g.needRe = true
		g.vars = append(g.vars, fmt.Sprintf("var %sRe = regexp.MustCompile(%s)\n", lowerFirst(name), strconv.Quote(x.Pattern)))
	}

	fmt.Fprintf(&b, "func (x *%s) UnmarshalJSON(b []byte) error {\n", name)
	fmt.Fprintf(&b, "\tvar s string\n")
	fmt.Fprintf(&b, "\tif err := json.Unmarshal(b, &s); err != nil {\n\t\treturn err\n\t}\n")

	if len(x.Enum) > 0 {
		fmt.Fprintf(&b, "\tswitch s {\n\tcase ")
		for i, lit := range x.Enum {
			if i > 0 {
				fmt.Fprintf(&b, ", ")
			}
			fmt.Fprintf(&b, "%s", strconv.Quote(lit))
		}
		fmt.Fprintf(&b, ":\n\tdefault:\n")
		fmt.Fprintf(&b, "\t\treturn fmt.Errorf(\"invalid %s: %%q\", s)\n\t}\n", name)
	} else if x.Pattern != "" {
		fmt.Fprintf(&b, "\tif !%sRe.MatchString(s) {\n", lowerFirst(name))
		fmt.Fprintf(&b, "\t\treturn fmt.Errorf(\"invalid %s: %%q\", s)\n\t}\n", name)
	}
	if x.FormatURI {
		g.needURI = true
		fmt.Fprintf(&b, "\tif err := validateURI(s); err != nil {\n\t\treturn err\n\t}\n")
	}
	if x.FormatUUID {
		g.needRe = true
		g.needUUID = true
		fmt.Fprintf(&b, "\tif !uuidRe.MatchString(s) {\n")
		fmt.Fprintf(&b, "\t\treturn fmt.Errorf(\"invalid %s: %%q is not a uuid\", s)\n\t}\n", name)
	}

	fmt.Fprintf(&b, "\t*x = %s(s)\n\treturn nil\n}\n", name)
	g.decls = append(g.decls, b.String())
	return name
}

func (g *Generator) declTuple(x *ir.ArrayTuple, hint string) string {
	name := g.claim(hint)
	g.needJSON = true
	g.needFmt = true
	g.needByte = true

	elems := make([]string, len(x.Elems))
	for i, e := range x.Elems {
		elems[i] = g.typeExpr(e, fmt.Sprintf("%sElem%d", name, i))
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "type %s struct {\n", name)
	for i, expr := range elems {
		fmt.Fprintf(&b, "\tE%d %s\n", i, expr)
	}
	fmt.Fprintf(&b, "}\n\n")

	fmt.Fprintf(&b, "func (x *%s) UnmarshalJSON(b []byte) error {\n", name)
	fmt.Fprintf(&b, "\tvar raw []json.RawMessage\n")
	fmt.Fprintf(&b, "\tif err := json.Unmarshal(b, &raw); err != nil {\n\t\treturn err\n\t}\n")
	fmt.Fprintf(&b, "\tif len(raw) < %d || len(raw) > %d {\n", x.MinItems, x.MaxItems)
	fmt.Fprintf(&b, "\t\treturn fmt.Errorf(\"%s expects %d to %d items, got %%d\", len(raw))\n", name, x.MinItems, x.MaxItems)
	fmt.Fprintf(&b, "\t}\n")
	for i, e := range x.Elems {
		fmt.Fprintf(&b, "\tif len(raw) > %d {\n", i)
		if !ir.IsNullish(e) {
			fmt.Fprintf(&b, "\t\tif bytes.Equal(bytes.TrimSpace(raw[%d]), []byte(\"null\")) {\n", i)
			fmt.Fprintf(&b, "\t\t\treturn fmt.Errorf(\"%s item %d must not be null\")\n", name, i)
			fmt.Fprintf(&b, "\t\t}\n")
		}
		fmt.Fprintf(&b, "\t\tif err := json.Unmarshal(raw[%d], &x.E%d); err != nil {\n\t\t\treturn err\n\t\t}\n", i, i)
		fmt.Fprintf(&b, "\t}\n")
	}
	fmt.Fprintf(&b, "\treturn nil\n}\n")
	g.decls = append(g.decls, b.String())
	return name
}

func (g *Generator) declObject(x *ir.Object, hint string) string {
	name := g.claim(hint)
	g.needJSON = true
	g.needFmt = true

	fieldNames := make([]string, len(x.Fields))
	fieldTypes := make([]string, len(x.Fields))
	taken := map[string]bool{}
	for i, f := range x.Fields {
		fn := exportedIdent(f.Name)
		if fn == "" {
			fn = "Field"
		}
		for taken[fn] {
			fn += "X"
		}
		taken[fn] = true
		fieldNames[i] = fn
		fieldTypes[i] = g.typeExpr(f.Ty, name+fn)
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "type %s struct {\n", name)
	for i, f := range x.Fields {
		fmt.Fprintf(&b, "\t%s %s `json:%s`\n", fieldNames[i], fieldTypes[i], strconv.Quote(f.Name))
	}
	fmt.Fprintf(&b, "}\n\n")

	fmt.Fprintf(&b, "func (x *%s) UnmarshalJSON(b []byte) error {\n", name)
	fmt.Fprintf(&b, "\tvar raw map[string]json.RawMessage\n")
	fmt.Fprintf(&b, "\tif err := json.Unmarshal(b, &raw); err != nil {\n\t\treturn err\n\t}\n")
	if len(x.Fields) == 0 {
		fmt.Fprintf(&b, "\tfor k := range raw {\n")
		fmt.Fprintf(&b, "\t\treturn fmt.Errorf(\"%s: unknown field %%q\", k)\n\t}\n", name)
	} else {
		fmt.Fprintf(&b, "\tfor k := range raw {\n\t\tswitch k {\n\t\tcase ")
		for i, f := range x.Fields {
			if i > 0 {
				fmt.Fprintf(&b, ", ")
			}
			fmt.Fprintf(&b, "%s", strconv.Quote(f.Name))
		}
		fmt.Fprintf(&b, ":\n\t\tdefault:\n")
		fmt.Fprintf(&b, "\t\t\treturn fmt.Errorf(\"%s: unknown field %%q\", k)\n\t\t}\n\t}\n", name)
	}

	for i, f := range x.Fields {
		q := strconv.Quote(f.Name)
		if f.Required {
			g.needByte = true
			fmt.Fprintf(&b, "\tv%d, ok := raw[%s]\n", i, q)
			fmt.Fprintf(&b, "\tif !ok || bytes.Equal(bytes.TrimSpace(v%d), []byte(\"null\")) {\n", i)
			fmt.Fprintf(&b, "\t\treturn fmt.Errorf(\"%s: missing required field %s\")\n", name, strings.ReplaceAll(q, `"`, `\"`))
			fmt.Fprintf(&b, "\t}\n")
			fmt.Fprintf(&b, "\tif err := json.Unmarshal(v%d, &x.%s); err != nil {\n\t\treturn err\n\t}\n", i, fieldNames[i])
		} else {
			fmt.Fprintf(&b, "\tif v, ok := raw[%s]; ok {\n", q)
			fmt.Fprintf(&b, "\t\tif err := json.Unmarshal(v, &x.%s); err != nil {\n\t\t\treturn err\n\t\t}\n", fieldNames[i])
			fmt.Fprintf(&b, "\t}\n")
		}
	}
	fmt.Fprintf(&b, "\treturn nil\n}\n")
	g.decls = append(g.decls, b.String())
	return name
}

func (g *Generator) declOneOf(x *ir.OneOf, hint string) string {
	name := g.claim(hint)
	g.needJSON = true
	g.needFmt = true

	armNames := make([]string, len(x.Arms))
	armTypes := make([]string, len(x.Arms))
	for i, arm := range x.Arms {
		armNames[i] = armFieldName(arm)
		armTypes[i] = g.typeExpr(arm, name+armNames[i])
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "// %s holds exactly one of its arms after unmarshaling.\n", name)
	fmt.Fprintf(&b, "type %s struct {\n", name)
	for i := range x.Arms {
		fmt.Fprintf(&b, "\t%s *%s\n", armNames[i], armTypes[i])
	}
	fmt.Fprintf(&b, "}\n\n")

	fmt.Fprintf(&b, "func (x *%s) UnmarshalJSON(b []byte) error {\n", name)
	// handle null up front: scalar arms would silently absorb it
	g.needByte = true
	fmt.Fprintf(&b, "\tif bytes.Equal(bytes.TrimSpace(b), []byte(\"null\")) {\n")
	nullIdx := -1
	for i, arm := range x.Arms {
		if _, isNull := arm.(*ir.Null); isNull {
			nullIdx = i
		}
	}
	if nullIdx >= 0 {
		fmt.Fprintf(&b, "\t\tx.%s = &%s{}\n\t\treturn nil\n\t}\n", armNames[nullIdx], armTypes[nullIdx])
	} else {
		fmt.Fprintf(&b, "\t\treturn fmt.Errorf(\"%s: null is not allowed\")\n\t}\n", name)
	}
	for i, arm := range x.Arms {
		if _, isNull := arm.(*ir.Null); isNull {
			continue
		}
		fmt.Fprintf(&b, "\t{\n\t\tvar v %s\n", armTypes[i])
		fmt.Fprintf(&b, "\t\tif err := json.Unmarshal(b, &v); err == nil {\n")
		fmt.Fprintf(&b, "\t\t\tx.%s = &v\n\t\t\treturn nil\n\t\t}\n\t}\n", armNames[i])
	}
	fmt.Fprintf(&b, "\treturn fmt.Errorf(\"%s: no arm matched %%s\", string(b))\n}\n", name)
	g.decls = append(g.decls, b.String())
	return name
}

func armFieldName(t ir.Ty) string {
	switch t.(type) {
	case *ir.Bool:
		return "Bool"
	case *ir.Integer:
		return "Integer"
	case *ir.Number:
		return "Number"
	case *ir.String:
		return "String"
	case *ir.ArrayList, *ir.ArrayTuple:
		return "Array"
	case *ir.Object:
		return "Object"
	case *ir.Null:
		return "Null"
	}
	return "Value"
}

func (g *Generator) claim(hint string) string {
	name := exportedIdent(hint)
	if name == "" {
		name = "T"
	}
	for g.names[name] {
		name += "X"
	}
	g.names[name] = true
	return name
}

func exportedIdent(s string) string {
	var b strings.Builder
	up := true
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			if up {
				b.WriteRune(r - 'a' + 'A')
			} else {
				b.WriteRune(r)
			}
			up = false
		case r >= 'A' && r <= 'Z':
			if !up {
				b.WriteRune(r)
			} else {
				b.WriteRune(r)
			}
			up = false
		case r >= '0' && r <= '9':
			if b.Len() == 0 {
				b.WriteString("F")
			}
			b.WriteRune(r)
			up = true
		default:
			up = true
		}
	}
	return b.String()
}

func singular(s string) string {
	switch {
	case strings.HasSuffix(s, "ies") && len(s) > 3:
		return s[:len(s)-3] + "y"
	case strings.HasSuffix(s, "s") && len(s) > 1:
		return s[:len(s)-1]
	}
	return s + "Item"
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
