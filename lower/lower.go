// Package lower translates a normalized summary into the typed IR. It reads
// decisions the normalizer already committed; it makes none of its own.
package lower

import (
	"github.com/driftwatch/jsonshape/evidence"
	"github.com/driftwatch/jsonshape/ir"
)

// Lower converts u to its IR type. u must already be normalized.
func Lower(u *evidence.U) ir.Ty {
	if u.IsExactNull() || u.IsBottom() {
		return &ir.Null{}
	}

	// fixed arm-kind order: bool, numeric, string, array, object, null last
	var arms []ir.Ty
	if u.HasBool {
		arms = append(arms, &ir.Bool{})
	}
	if u.Num != nil {
		arms = append(arms, lowerNum(u.Num))
	}
	if u.Str != nil {
		arms = append(arms, lowerStr(u.Str))
	}
	if u.Arr != nil {
		arms = append(arms, lowerArr(u.Arr))
	}
	if u.Obj != nil {
		arms = append(arms, lowerObj(u.Obj))
	}

	if len(arms) == 1 {
		if u.Nullable {
			return ir.WrapNullable(arms[0])
		}
		return arms[0]
	}

	if u.Nullable {
		arms = append(arms, &ir.Null{})
	}
	return simplifyOneOf(arms)
}

// simplifyOneOf collapses OneOf(T, Null) into Nullable(T). Arms arrive in the
// fixed kind order with Null last.
func simplifyOneOf(arms []ir.Ty) ir.Ty {
	n := len(arms)
	if n >= 2 {
		if _, isNull := arms[n-1].(*ir.Null); isNull && n == 2 {
			return ir.WrapNullable(arms[0])
		}
	}
	return &ir.OneOf{Arms: arms}
}

func lowerNum(num *evidence.NumArm) ir.Ty {
	if num.Integer {
		return &ir.Integer{Min: int64(num.Min), Max: int64(num.Max)}
	}
	return &ir.Number{Min: num.Min, Max: num.Max}
}

func lowerStr(str *evidence.StrArm) ir.Ty {
	out := &ir.String{
		Pattern:    str.Pattern,
		FormatURI:  str.IsURI,
		FormatUUID: str.IsUUID,
	}
	if len(str.Lits) > 0 {
		out.Enum = append([]string(nil), str.Lits...)
	}
	return out
}

func lowerArr(arr *evidence.ArrArm) ir.Ty {
	if len(arr.Cols) > 0 {
		return lowerTuple(arr)
	}
	return &ir.ArrayList{
		Item:     Lower(arr.Item),
		MinItems: arr.LenMin,
		MaxItems: arr.LenMax,
	}
}

func lowerTuple(arr *evidence.ArrArm) ir.Ty {
	elems := make([]ir.Ty, len(arr.Cols))
	lastRequired := -1
	for i, c := range arr.Cols {
		required := arr.Present[i] == arr.Samples
		exactNullPad := required && arr.NonNull[i] == 0

		switch {
		case exactNullPad:
			elems[i] = &ir.Null{}
		case arr.Present[i] < arr.Samples:
			elems[i] = ir.WrapNullable(Lower(c))
		default:
			elems[i] = Lower(c)
		}

		if required {
			lastRequired = i
		}
	}

	return &ir.ArrayTuple{
		Elems:    elems,
		MinItems: lastRequired + 1,
		MaxItems: arr.LenMax,
	}
}

func lowerObj(obj *evidence.ObjArm) ir.Ty {
	fields := make([]ir.Field, 0, len(obj.Names))
	for _, name := range obj.Names {
		f := obj.Fields[name]
		required := f.NonNullIn == obj.SeenObjects
		ty := Lower(f.Ty)
		if !required {
			ty = ir.WrapNullable(ty)
		}
		fields = append(fields, ir.Field{Name: name, Ty: ty, Required: required})
	}
	return &ir.Object{Fields: fields}
}
