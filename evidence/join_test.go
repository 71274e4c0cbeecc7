package evidence

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func obs(t *testing.T, doc string) *U {
	u, err := ObserveBytes([]byte(doc))
	require.Nil(t, err)
	return u
}

// Scalar arms are idempotent structurally. Array and object arms carry
// sample counters, so their idempotency is only visible after lowering; the
// lower package covers that.
func TestJoinIdempotentScalars(t *testing.T) {
	docs := []string{`1`, `4.5`, `"a"`, `true`, `null`}
	for _, d := range docs {
		u := obs(t, d)
		assert.Equal(t, u, Join(u, u), d)
	}
}

func TestJoinCommutative(t *testing.T) {
	a := obs(t, `{"x": 1, "y": "a"}`)
	b := obs(t, `{"x": 2.5, "y": null}`)
	assert.Equal(t, Join(a, b), Join(b, a))

	c := obs(t, `[1, "s"]`)
	d := obs(t, `[2]`)
	assert.Equal(t, Join(c, d), Join(d, c))
}

func TestJoinAssociative(t *testing.T) {
	a := obs(t, `[1, "a"]`)
	b := obs(t, `[2, "b"]`)
	c := obs(t, `[3, "c"]`)
	assert.Equal(t, Join(Join(a, b), c), Join(a, Join(b, c)))
}

func TestJoinMonotonic(t *testing.T) {
	u := obs(t, `1`)
	u = Join(u, obs(t, `"s"`))
	u = Join(u, obs(t, `true`))
	u = Join(u, obs(t, `null`))

	assert.NotNil(t, u.Num)
	assert.NotNil(t, u.Str)
	assert.True(t, u.HasBool)
	assert.True(t, u.Nullable)

	// a further observation never removes arms
	u = Join(u, obs(t, `[1]`))
	assert.NotNil(t, u.Num)
	assert.NotNil(t, u.Str)
	assert.True(t, u.HasBool)
	assert.True(t, u.Nullable)
	assert.NotNil(t, u.Arr)
}

func TestJoinNumInterval(t *testing.T) {
	u := Join(obs(t, `3`), obs(t, `-2`))
	assert.Equal(t, -2.0, u.Num.Min)
	assert.Equal(t, 3.0, u.Num.Max)
	assert.Equal(t, []float64{-2, 3}, u.Num.Lits)
	assert.True(t, u.Num.SawInt)
}

func TestJoinNumLitCapKeepsExtremes(t *testing.T) {
	u := Empty()
	for i := 0; i <= 100; i++ {
		u = Join(u, obs(t, fmt.Sprintf("%d", i)))
	}
	require.NotNil(t, u.Num)
	assert.Len(t, u.Num.Lits, MaxNumLits)
	assert.Equal(t, 0.0, u.Num.Lits[0])
	assert.Equal(t, 100.0, u.Num.Lits[len(u.Num.Lits)-1])
	assert.Equal(t, 0.0, u.Num.Min)
	assert.Equal(t, 100.0, u.Num.Max)
}

func TestJoinStrLCPRecomputedFromRetained(t *testing.T) {
	u := Join(obs(t, `"user_a"`), obs(t, `"user_b"`))
	assert.Equal(t, "user_", u.Str.LCP)
	assert.False(t, u.Str.Truncated)

	u = Join(u, obs(t, `"usurper"`))
	assert.Equal(t, "us", u.Str.LCP)
}

func TestJoinStrLitCapTruncates(t *testing.T) {
	u := Empty()
	for i := 0; i < MaxStrLits+4; i++ {
		u = Join(u, obs(t, fmt.Sprintf(`"user_%02d"`, i)))
	}
	assert.Len(t, u.Str.Lits, MaxStrLits)
	assert.True(t, u.Str.Truncated)
	assert.Equal(t, "user_", u.Str.LCP)
}

func TestJoinStrURIFlagAnds(t *testing.T) {
	u := Join(obs(t, `"https://a.example"`), obs(t, `"https://b.example"`))
	assert.True(t, u.Str.IsURI)

	u = Join(u, obs(t, `"plain"`))
	assert.False(t, u.Str.IsURI)
}

func TestJoinArrPadPropagation(t *testing.T) {
	u := Join(obs(t, `[1, 2]`), obs(t, `[3, 4, 5]`))
	arr := u.Arr
	assert.Equal(t, 2, arr.Samples)
	assert.Equal(t, 2, arr.LenMin)
	assert.Equal(t, 3, arr.LenMax)
	assert.Equal(t, []int{2, 2, 1}, arr.Present)
	assert.Equal(t, []int{2, 2, 1}, arr.NonNull)

	// the short side contributes an implicit nullable column
	assert.True(t, arr.Cols[2].Nullable)
	assert.NotNil(t, arr.Cols[2].Num)
}

func TestJoinArrExactNullPadCounts(t *testing.T) {
	u := Join(obs(t, `[1, null]`), obs(t, `[2, null]`))
	arr := u.Arr
	assert.Equal(t, []int{2, 2}, arr.Present)
	assert.Equal(t, []int{2, 0}, arr.NonNull)
	assert.True(t, arr.Cols[1].IsExactNull())
}

func TestJoinObjFieldCounters(t *testing.T) {
	u := Join(obs(t, `{"a": 1, "b": "x"}`), obs(t, `{"a": null}`))
	obj := u.Obj
	assert.Equal(t, 2, obj.SeenObjects)

	a := obj.Fields["a"]
	assert.Equal(t, 2, a.PresentIn)
	assert.Equal(t, 1, a.NonNullIn)

	// absent is not present-and-null
	b := obj.Fields["b"]
	assert.Equal(t, 1, b.PresentIn)
	assert.Equal(t, 1, b.NonNullIn)
}

func TestJoinObjKeepsFirstObservationOrder(t *testing.T) {
	u := Join(obs(t, `{"b": 1, "a": 2}`), obs(t, `{"a": 3, "c": 4}`))
	assert.Equal(t, []string{"b", "a", "c"}, u.Obj.Names)
}

func TestJoinWithBottomIsIdentity(t *testing.T) {
	u := obs(t, `{"a": [1, 2]}`)
	assert.Equal(t, u, Join(Empty(), u))
	assert.Equal(t, u, Join(u, Empty()))
}
