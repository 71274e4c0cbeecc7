// Package normalize applies the centralized evidence policies to a summary
// tree: integer vs real, enum vs pattern, list vs tuple. It rewrites the tree
// in place; after normalization the tree encodes every shape decision and the
// lowerer reads it without further judgment calls.
package normalize

import (
	"regexp"

	"github.com/driftwatch/jsonshape/evidence"
)

// Policy knobs. Everything evidence-driven is decided against these.
const (
	LCPMinForPattern = 3

	StringEnumMax    = 12
	StringEnumMaxLen = 32

	TupleMinSamples       = 2
	TupleRequiredPresence = 0.9
	TupleNumOverlapMax    = 0.3
)

// Normalize rewrites u top-down. Join must not be applied to a normalized
// tree; normalize once, after folding is done.
func Normalize(u *evidence.U) {
	normalizeNum(u.Num)
	normalizeStr(u.Str)

	if arr := u.Arr; arr != nil {
		if decideTuple(arr) {
			// positional is authoritative
			arr.Item = nil
			for _, c := range arr.Cols {
				Normalize(c)
			}
		} else {
			// pooled is authoritative
			arr.Cols = nil
			arr.Present = nil
			arr.NonNull = nil
			Normalize(arr.Item)
		}
	}

	if obj := u.Obj; obj != nil {
		for _, f := range obj.Fields {
			Normalize(f.Ty)
		}
	}
}

func normalizeNum(num *evidence.NumArm) {
	if num == nil {
		return
	}

	num.Integer = (num.SawInt || num.SawUint) && !num.SawFloat &&
		isIntegral(num.Min) && isIntegral(num.Max)

	// Literals inside the interval carry no extra information unless the
	// interval is a single point the set still witnesses.
	pointEnum := len(num.Lits) <= evidence.MaxNumLits/2 && num.Min == num.Max
	if !pointEnum {
		num.Lits = nil
	}
}

func isIntegral(f float64) bool {
	return f == float64(int64(f))
}

func normalizeStr(str *evidence.StrArm) {
	if str == nil {
		return
	}

	str.LCP = evidence.LongestCommonPrefix(str.Lits)

	keepEnum := !str.Truncated &&
		len(str.Lits) > 0 && len(str.Lits) <= StringEnumMax &&
		allEnumerable(str.Lits)
	if keepEnum {
		return
	}

	str.Lits = nil
	if len(str.LCP) >= LCPMinForPattern {
		str.Pattern = "^" + regexp.QuoteMeta(str.LCP) + ".*"
	}
}

func allEnumerable(lits []string) bool {
	for _, s := range lits {
		if len(s) > StringEnumMaxLen || !looksHumanish(s) {
			return false
		}
	}
	return true
}

// looksHumanish: alphanumeric with limited punctuation. Tokens and opaque
// identifiers fail this and fall through to pattern handling.
func looksHumanish(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case 'a' <= c && c <= 'z':
		case 'A' <= c && c <= 'Z':
		case '0' <= c && c <= '9':
		case c == ' ' || c == '-' || c == '_':
		default:
			return false
		}
	}
	return true
}

// decideTuple returns true only when the positional evidence proves the array
// is a fixed-arity record rather than a variable-length list.
func decideTuple(arr *evidence.ArrArm) bool {
	if arr.Samples < TupleMinSamples || len(arr.Cols) == 0 {
		return false
	}

	if hasExactNullPad(arr) {
		return true
	}
	if hasRequirednessContrast(arr) {
		return true
	}
	if hasKindDivergence(arr) {
		return true
	}
	if hasNumericDivergence(arr) {
		return true
	}
	if hasLCPDivergence(arr) {
		return true
	}

	return false
}

// hasExactNullPad: some column was present in every sample and always null —
// an always-null trailing slot only a positional encoding produces.
func hasExactNullPad(arr *evidence.ArrArm) bool {
	for i := range arr.Cols {
		if arr.Present[i] == arr.Samples && arr.NonNull[i] == 0 {
			return true
		}
	}
	return false
}

// hasRequirednessContrast: an early column is required-like while a later one
// is not, which a homogeneous list cannot explain.
func hasRequirednessContrast(arr *evidence.ArrArm) bool {
	samples := float64(arr.Samples)
	for i := range arr.Cols {
		if float64(arr.Present[i])/samples < TupleRequiredPresence {
			continue
		}
		for j := i + 1; j < len(arr.Cols); j++ {
			if float64(arr.Present[j])/samples < TupleRequiredPresence {
				return true
			}
		}
	}
	return false
}

type kindSig struct {
	hasBool, hasNum, hasStr, hasArr, hasObj bool
}

// Null is deliberately excluded: implicit pads make short-side columns
// nullable, and counting that would turn every ragged list into a tuple.
func kindsOf(u *evidence.U) kindSig {
	return kindSig{
		hasBool: u.HasBool,
		hasNum:  u.Num != nil,
		hasStr:  u.Str != nil,
		hasArr:  u.Arr != nil,
		hasObj:  u.Obj != nil,
	}
}

func (a kindSig) subsetOf(b kindSig) bool {
	return (!a.hasBool || b.hasBool) &&
		(!a.hasNum || b.hasNum) &&
		(!a.hasStr || b.hasStr) &&
		(!a.hasArr || b.hasArr) &&
		(!a.hasObj || b.hasObj)
}

// hasKindDivergence: the pooled hypothesis lost information — some column's
// kind set and the pooled kind set are not mutually subsumed.
func hasKindDivergence(arr *evidence.ArrArm) bool {
	pooled := kindsOf(arr.Item)
	for _, c := range arr.Cols {
		sig := kindsOf(c)
		if !sig.subsetOf(pooled) || !pooled.subsetOf(sig) {
			return true
		}
	}
	return false
}

// hasNumericDivergence: a column's numeric interval barely overlaps the
// pooled one, so pooling smeared distinct per-position ranges together.
func hasNumericDivergence(arr *evidence.ArrArm) bool {
	if arr.Item.Num == nil {
		return false
	}
	pooled := arr.Item.Num
	for _, c := range arr.Cols {
		if c.Num == nil {
			continue
		}
		if intervalOverlap(c.Num.Min, c.Num.Max, pooled.Min, pooled.Max) < TupleNumOverlapMax {
			return true
		}
	}
	return false
}

// intervalOverlap = |intersection| / |union|; zero-length intervals match iff
// equal.
func intervalOverlap(aMin, aMax, bMin, bMax float64) float64 {
	unionLen := max2(aMax, bMax) - min2(aMin, bMin)
	if unionLen == 0 {
		// both are the same point
		return 1
	}
	interLen := min2(aMax, bMax) - max2(aMin, bMin)
	if interLen < 0 {
		interLen = 0
	}
	return interLen / unionLen
}

// hasLCPDivergence: a column prefix and the pooled prefix disagree outright.
func hasLCPDivergence(arr *evidence.ArrArm) bool {
	if arr.Item.Str == nil || arr.Item.Str.LCP == "" {
		return false
	}
	pooled := arr.Item.Str.LCP
	for _, c := range arr.Cols {
		if c.Str == nil || c.Str.LCP == "" {
			continue
		}
		if !isPrefix(c.Str.LCP, pooled) && !isPrefix(pooled, c.Str.LCP) {
			return true
		}
	}
	return false
}

func isPrefix(p, s string) bool {
	return len(p) <= len(s) && s[:len(p)] == p
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
