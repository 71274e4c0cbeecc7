package evidence

import (
	"encoding/json"
	"math"
	"sort"

	"github.com/valyala/fastjson"
)

// ObserveBytes parses one JSON document and maps it to a fresh U.
func ObserveBytes(b []byte) (*U, error) {
	v, err := fastjson.ParseBytes(b)
	if err != nil {
		return nil, notJSON(err.Error())
	}
	return Observe(v)
}

// Observe maps one parsed JSON value to a freshly allocated U.
func Observe(v *fastjson.Value) (*U, error) {
	switch v.Type() {
	case fastjson.TypeNull:
		return &U{Nullable: true}, nil
	case fastjson.TypeTrue, fastjson.TypeFalse:
		return &U{HasBool: true}, nil
	case fastjson.TypeNumber:
		return observeNumber(v)
	case fastjson.TypeString:
		sb, err := v.StringBytes()
		if err != nil {
			return nil, notJSON(err.Error())
		}
		return observeString(string(sb)), nil
	case fastjson.TypeArray:
		vs, err := v.Array()
		if err != nil {
			return nil, notJSON(err.Error())
		}
		return observeArray(vs)
	case fastjson.TypeObject:
		o, err := v.Object()
		if err != nil {
			return nil, notJSON(err.Error())
		}
		return observeObject(o)
	}

	panic("should be unreachable")
}

func observeNumber(v *fastjson.Value) (*U, error) {
	if i, err := v.Int64(); err == nil {
		return observeInt(i), nil
	}
	if u, err := v.Uint64(); err == nil {
		f := float64(u)
		return &U{Num: &NumArm{Lits: []float64{f}, Min: f, Max: f, SawUint: true}}, nil
	}
	f, err := v.Float64()
	if err != nil {
		return nil, notJSON(err.Error())
	}
	return observeFloat(f)
}

func observeInt(i int64) *U {
	f := float64(i)
	return &U{Num: &NumArm{Lits: []float64{f}, Min: f, Max: f, SawInt: true}}
}

func observeFloat(f float64) (*U, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, nonFinite("observed number is NaN or infinite")
	}
	return &U{Num: &NumArm{Lits: []float64{f}, Min: f, Max: f, SawFloat: true}}, nil
}

func observeString(s string) *U {
	return &U{Str: &StrArm{
		Lits:   []string{s},
		LCP:    s,
		IsURI:  looksLikeURI(s),
		IsUUID: looksLikeUUID(s),
	}}
}

func observeArray(vs []*fastjson.Value) (*U, error) {
	arr := &ArrArm{
		Samples: 1,
		LenMin:  len(vs),
		LenMax:  len(vs),
		Item:    Empty(),
		Cols:    make([]*U, len(vs)),
		Present: make([]int, len(vs)),
		NonNull: make([]int, len(vs)),
	}

	for i, el := range vs {
		c, err := Observe(el)
		if err != nil {
			return nil, err
		}
		arr.Item = Join(arr.Item, c)
		arr.Cols[i] = c
		arr.Present[i] = 1
		if el.Type() != fastjson.TypeNull {
			arr.NonNull[i] = 1
		}
	}

	return &U{Arr: arr}, nil
}

func observeObject(o *fastjson.Object) (*U, error) {
	obj := &ObjArm{
		Fields:      make(map[string]*FieldStat),
		SeenObjects: 1,
	}

	var visitErr error
	o.Visit(func(key []byte, v *fastjson.Value) {
		if visitErr != nil {
			return
		}
		ty, err := Observe(v)
		if err != nil {
			visitErr = err
			return
		}
		name := string(key)
		nonNull := 0
		if v.Type() != fastjson.TypeNull {
			nonNull = 1
		}
		obj.Names = append(obj.Names, name)
		obj.Fields[name] = &FieldStat{Ty: ty, PresentIn: 1, NonNullIn: nonNull}
	})
	if visitErr != nil {
		return nil, visitErr
	}

	return &U{Obj: obj}, nil
}

// ObserveAny maps a decoded Go value tree (the form jq filters and the
// standard decoders produce) to a fresh U. Object keys are visited in sorted
// order since Go maps do not preserve document order.
func ObserveAny(v any) (*U, error) {
	switch x := v.(type) {
	case nil:
		return &U{Nullable: true}, nil
	case bool:
		return &U{HasBool: true}, nil
	case int:
		return observeInt(int64(x)), nil
	case int64:
		return observeInt(x), nil
	case uint64:
		f := float64(x)
		if x <= math.MaxInt64 {
			return observeInt(int64(x)), nil
		}
		return &U{Num: &NumArm{Lits: []float64{f}, Min: f, Max: f, SawUint: true}}, nil
	case float64:
		return observeFloat(x)
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return observeInt(i), nil
		}
		f, err := x.Float64()
		if err != nil {
			return nil, notJSON(err.Error())
		}
		return observeFloat(f)
	case string:
		return observeString(x), nil
	case []any:
		return observeAnyArray(x)
	case map[string]any:
		return observeAnyObject(x)
	}

	return nil, notJSON("unsupported value type")
}

func observeAnyArray(vs []any) (*U, error) {
	arr := &ArrArm{
		Samples: 1,
		LenMin:  len(vs),
		LenMax:  len(vs),
		Item:    Empty(),
		Cols:    make([]*U, len(vs)),
		Present: make([]int, len(vs)),
		NonNull: make([]int, len(vs)),
	}

	for i, el := range vs {
		c, err := ObserveAny(el)
		if err != nil {
			return nil, err
		}
		arr.Item = Join(arr.Item, c)
		arr.Cols[i] = c
		arr.Present[i] = 1
		if el != nil {
			arr.NonNull[i] = 1
		}
	}

	return &U{Arr: arr}, nil
}

func observeAnyObject(m map[string]any) (*U, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	obj := &ObjArm{
		Fields:      make(map[string]*FieldStat, len(m)),
		SeenObjects: 1,
	}
	for _, k := range keys {
		ty, err := ObserveAny(m[k])
		if err != nil {
			return nil, err
		}
		nonNull := 0
		if m[k] != nil {
			nonNull = 1
		}
		obj.Names = append(obj.Names, k)
		obj.Fields[k] = &FieldStat{Ty: ty, PresentIn: 1, NonNullIn: nonNull}
	}

	return &U{Obj: obj}, nil
}
