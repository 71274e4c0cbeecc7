// Package driver feeds JSON samples from files, globs or stdin into an
// inference fold. It owns everything the core treats as an external concern:
// discovery, decoding, subnode selection and the optional jq pre-filter.
package driver

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	json "github.com/goccy/go-json"
	"github.com/itchyny/gojq"
	"github.com/valyala/fastjson"

	"github.com/driftwatch/jsonshape/evidence"
)

type Options struct {
	// Inputs are literal paths, glob patterns (doublestar syntax), or "-"
	// for stdin.
	Inputs []string

	// NDJSON treats each input as newline-delimited JSON, one document per
	// non-empty line.
	NDJSON bool

	// JSONPointer selects a subnode in each document, e.g. /data/items/0.
	JSONPointer string

	// JQExpr pre-filters each document; every value the filter yields is
	// observed independently.
	JQExpr string
}

// Collect resolves the inputs and folds every selected value into inf.
func Collect(opts Options, inf *evidence.Inference) error {
	paths, err := ResolveInputs(opts.Inputs)
	if err != nil {
		return err
	}

	var filter *gojq.Code
	if opts.JQExpr != "" {
		filter, err = compileFilter(opts.JQExpr)
		if err != nil {
			return err
		}
	}

	for _, p := range paths {
		src, err := readInput(p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}
		if err := collectSource(opts, filter, inf, p, src); err != nil {
			return err
		}
	}

	return nil
}

// ResolveInputs expands glob patterns and passes literal paths through. A
// pattern that matches nothing is an error rather than a silent no-op.
func ResolveInputs(inputs []string) ([]string, error) {
	var out []string
	for _, raw := range inputs {
		if raw == "-" || !hasGlobChars(raw) {
			out = append(out, raw)
			continue
		}
		matches, err := doublestar.FilepathGlob(raw)
		if err != nil {
			return nil, fmt.Errorf("bad glob %q: %w", raw, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("glob pattern matched no files: %s", raw)
		}
		out = append(out, matches...)
	}
	return out, nil
}

func hasGlobChars(s string) bool {
	return strings.ContainsAny(s, "*?[{")
}

func readInput(p string) ([]byte, error) {
	if p == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(p)
}

func collectSource(opts Options, filter *gojq.Code, inf *evidence.Inference, name string, src []byte) error {
	docs := [][]byte{src}
	if opts.NDJSON {
		docs = splitLines(src)
	}

	var p fastjson.Parser
	for _, doc := range docs {
		v, err := p.ParseBytes(doc)
		if err != nil {
			return fmt.Errorf("parse %s: %w: %s", name, evidence.ErrInputNotJSON, err)
		}
		if opts.JSONPointer != "" {
			v = selectPointer(v, opts.JSONPointer)
			if v == nil {
				// pointer missing in this document; nothing to observe
				continue
			}
		}

		if filter == nil {
			if err := inf.Observe(v); err != nil {
				return fmt.Errorf("observe %s: %w", name, err)
			}
			continue
		}

		if err := applyFilter(filter, inf, name, v); err != nil {
			return err
		}
	}

	return nil
}

func splitLines(src []byte) [][]byte {
	var out [][]byte
	for _, line := range strings.Split(string(src), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, []byte(line))
	}
	return out
}

// selectPointer walks a JSON Pointer (RFC 6901) over v. Array positions are
// decimal tokens, which fastjson's Get handles directly.
func selectPointer(v *fastjson.Value, pointer string) *fastjson.Value {
	if pointer == "" || pointer == "/" {
		return v
	}
	parts := strings.Split(strings.TrimPrefix(pointer, "/"), "/")
	for i, p := range parts {
		p = strings.ReplaceAll(p, "~1", "/")
		parts[i] = strings.ReplaceAll(p, "~0", "~")
	}
	return v.Get(parts...)
}

func compileFilter(expr string) (*gojq.Code, error) {
	q, err := gojq.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("bad jq expression: %w", err)
	}
	code, err := gojq.Compile(q)
	if err != nil {
		return nil, fmt.Errorf("bad jq expression: %w", err)
	}
	return code, nil
}

func applyFilter(filter *gojq.Code, inf *evidence.Inference, name string, v *fastjson.Value) error {
	// jq runs over decoded Go trees, so re-decode the selected subnode.
	var doc any
	dec := json.NewDecoder(strings.NewReader(v.String()))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("decode %s: %w: %s", name, evidence.ErrInputNotJSON, err)
	}

	iter := filter.Run(normalizeNumbers(doc))
	for {
		out, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := out.(error); isErr {
			return fmt.Errorf("jq filter on %s: %w", name, err)
		}
		if err := inf.ObserveAny(out); err != nil {
			return fmt.Errorf("observe %s: %w", name, err)
		}
	}

	return nil
}

// normalizeNumbers rewrites json.Number leaves into the int/float64 forms
// gojq accepts, keeping integers exact along the way.
func normalizeNumbers(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return int(i)
		}
		f, _ := x.Float64()
		return f
	case []any:
		for i := range x {
			x[i] = normalizeNumbers(x[i])
		}
		return x
	case map[string]any:
		for k := range x {
			x[k] = normalizeNumbers(x[k])
		}
		return x
	}
	return v
}
