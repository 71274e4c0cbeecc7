package evidence

import "sort"

// Join computes a ⊔ b as a fresh tree. The operation is commutative,
// associative and idempotent, so folding a sample stream in any order yields
// the same summary, except for object field order (ObjArm.Names), which
// follows first observation.
func Join(a, b *U) *U {
	if a == nil && b == nil {
		return nil
	}
	if a != nil && b == nil {
		return a.Clone()
	}
	if a == nil && b != nil {
		return b.Clone()
	}

	return &U{
		Nullable: a.Nullable || b.Nullable,
		HasBool:  a.HasBool || b.HasBool,
		Num:      joinNum(a.Num, b.Num),
		Str:      joinStr(a.Str, b.Str),
		Arr:      joinArr(a.Arr, b.Arr),
		Obj:      joinObj(a.Obj, b.Obj),
	}
}

func joinNum(a, b *NumArm) *NumArm {
	if a == nil && b == nil {
		return nil
	}
	if a != nil && b == nil {
		return a.clone()
	}
	if a == nil && b != nil {
		return b.clone()
	}

	out := &NumArm{
		Lits:     capNumLits(mergeSortedFloats(a.Lits, b.Lits)),
		Min:      min2(a.Min, b.Min),
		Max:      max2(a.Max, b.Max),
		SawInt:   a.SawInt || b.SawInt,
		SawUint:  a.SawUint || b.SawUint,
		SawFloat: a.SawFloat || b.SawFloat,
	}
	return out
}

// capNumLits enforces MaxNumLits by dropping from the middle of the sorted
// set. The extremes survive so the retained literals still witness the
// interval endpoints.
func capNumLits(lits []float64) []float64 {
	if len(lits) <= MaxNumLits {
		return lits
	}
	lo := MaxNumLits / 2
	hi := MaxNumLits - lo
	out := make([]float64, 0, MaxNumLits)
	out = append(out, lits[:lo]...)
	out = append(out, lits[len(lits)-hi:]...)
	return out
}

func joinStr(a, b *StrArm) *StrArm {
	if a == nil && b == nil {
		return nil
	}
	if a != nil && b == nil {
		return a.clone()
	}
	if a == nil && b != nil {
		return b.clone()
	}

	lits := mergeSortedStrings(a.Lits, b.Lits)
	truncated := a.Truncated || b.Truncated
	if len(lits) > MaxStrLits {
		lits = lits[:MaxStrLits]
		truncated = true
	}

	// The LCP must reflect the retained literals, never the two stored
	// prefixes; capping may have dropped the strings that justified them.
	return &StrArm{
		Lits:      lits,
		Truncated: truncated,
		LCP:       LongestCommonPrefix(lits),
		IsURI:     a.IsURI && b.IsURI,
		IsUUID:    a.IsUUID && b.IsUUID,
	}
}

// missingCol is the implicit pad for the short side of an asymmetric array
// join. It keeps the optional-tail signal alive across joins.
func missingCol() *U {
	return &U{Nullable: true}
}

func joinArr(a, b *ArrArm) *ArrArm {
	if a == nil && b == nil {
		return nil
	}
	if a != nil && b == nil {
		return a.clone()
	}
	if a == nil && b != nil {
		return b.clone()
	}

	out := &ArrArm{
		LenMin:  minInt(a.LenMin, b.LenMin),
		LenMax:  maxInt(a.LenMax, b.LenMax),
		Samples: a.Samples + b.Samples,
		Item:    Join(a.Item, b.Item),
	}
	if out.LenMin > out.LenMax {
		panic("array length bounds crossed")
	}

	n := maxInt(len(a.Cols), len(b.Cols))
	out.Cols = make([]*U, n)
	out.Present = make([]int, n)
	out.NonNull = make([]int, n)
	for i := 0; i < n; i++ {
		ai, bi := missingCol(), missingCol()
		if i < len(a.Cols) {
			ai = a.Cols[i]
		}
		if i < len(b.Cols) {
			bi = b.Cols[i]
		}
		out.Cols[i] = Join(ai, bi)

		if i < len(a.Present) {
			out.Present[i] += a.Present[i]
			out.NonNull[i] += a.NonNull[i]
		}
		if i < len(b.Present) {
			out.Present[i] += b.Present[i]
			out.NonNull[i] += b.NonNull[i]
		}
		if out.NonNull[i] > out.Present[i] || out.Present[i] > out.Samples {
			panic("tuple column counters crossed")
		}
	}

	return out
}

func joinObj(a, b *ObjArm) *ObjArm {
	if a == nil && b == nil {
		return nil
	}
	if a != nil && b == nil {
		return a.clone()
	}
	if a == nil && b != nil {
		return b.clone()
	}

	out := &ObjArm{
		Fields:      make(map[string]*FieldStat, maxInt(len(a.Fields), len(b.Fields))),
		SeenObjects: a.SeenObjects + b.SeenObjects,
	}

	// Keys missing in an observation contribute 0 to present_in already, so a
	// one-sided field is carried over unchanged.
	for _, k := range a.Names {
		fa := a.Fields[k]
		fb, in := b.Fields[k]
		if !in {
			out.Names = append(out.Names, k)
			out.Fields[k] = &FieldStat{Ty: fa.Ty.Clone(), PresentIn: fa.PresentIn, NonNullIn: fa.NonNullIn}
			continue
		}
		out.Names = append(out.Names, k)
		out.Fields[k] = &FieldStat{
			Ty:        Join(fa.Ty, fb.Ty),
			PresentIn: fa.PresentIn + fb.PresentIn,
			NonNullIn: fa.NonNullIn + fb.NonNullIn,
		}
	}
	for _, k := range b.Names {
		if _, in := out.Fields[k]; in {
			continue
		}
		fb := b.Fields[k]
		out.Names = append(out.Names, k)
		out.Fields[k] = &FieldStat{Ty: fb.Ty.Clone(), PresentIn: fb.PresentIn, NonNullIn: fb.NonNullIn}
	}

	return out
}

func mergeSortedFloats(a, b []float64) []float64 {
	out := make([]float64, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	sort.Float64s(out)
	return dedupFloats(out)
}

func dedupFloats(xs []float64) []float64 {
	n := 0
	for i, x := range xs {
		if i == 0 || x != xs[n-1] {
			xs[n] = x
			n++
		}
	}
	return xs[:n]
}

func mergeSortedStrings(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	sort.Strings(out)
	n := 0
	for i, s := range out {
		if i == 0 || s != out[n-1] {
			out[n] = s
			n++
		}
	}
	return out[:n]
}

func min2(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func max2(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
