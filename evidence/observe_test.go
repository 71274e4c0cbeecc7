package evidence

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObserveNull(t *testing.T) {
	u, err := ObserveBytes([]byte("null"))
	assert.Nil(t, err)
	assert.True(t, u.Nullable)
	assert.True(t, u.IsExactNull())
}

func TestObserveBool(t *testing.T) {
	u, err := ObserveBytes([]byte("true"))
	assert.Nil(t, err)
	assert.True(t, u.HasBool)
	assert.False(t, u.Nullable)
}

func TestObserveInt(t *testing.T) {
	u, err := ObserveBytes([]byte("42"))
	assert.Nil(t, err)
	assert.NotNil(t, u.Num)
	assert.Equal(t, 42.0, u.Num.Min)
	assert.Equal(t, 42.0, u.Num.Max)
	assert.Equal(t, []float64{42}, u.Num.Lits)
	assert.True(t, u.Num.SawInt)
	assert.False(t, u.Num.SawFloat)
}

func TestObserveBigUint(t *testing.T) {
	u, err := ObserveBytes([]byte("18446744073709551615"))
	assert.Nil(t, err)
	assert.NotNil(t, u.Num)
	assert.True(t, u.Num.SawUint)
	assert.False(t, u.Num.SawInt)
}

func TestObserveFloat(t *testing.T) {
	u, err := ObserveBytes([]byte("4.5"))
	assert.Nil(t, err)
	assert.NotNil(t, u.Num)
	assert.True(t, u.Num.SawFloat)
	assert.Equal(t, 4.5, u.Num.Min)
}

func TestObserveNonFinite(t *testing.T) {
	_, err := ObserveAny(math.NaN())
	assert.ErrorIs(t, err, ErrNonFiniteNumber)

	_, err = ObserveAny(math.Inf(1))
	assert.ErrorIs(t, err, ErrNonFiniteNumber)
}

func TestObserveString(t *testing.T) {
	u, err := ObserveBytes([]byte(`"hello"`))
	assert.Nil(t, err)
	assert.NotNil(t, u.Str)
	assert.Equal(t, []string{"hello"}, u.Str.Lits)
	assert.Equal(t, "hello", u.Str.LCP)
	assert.False(t, u.Str.IsURI)
	assert.False(t, u.Str.IsUUID)
}

func TestObserveURI(t *testing.T) {
	u, err := ObserveBytes([]byte(`"https://example.com/a"`))
	assert.Nil(t, err)
	assert.True(t, u.Str.IsURI)
}

func TestObserveUUID(t *testing.T) {
	u, err := ObserveBytes([]byte(`"c7d0b51e-2a9f-4f6e-bbd8-91c4f0486a1d"`))
	assert.Nil(t, err)
	assert.True(t, u.Str.IsUUID)
}

func TestObserveArray(t *testing.T) {
	u, err := ObserveBytes([]byte(`[1, "x", null]`))
	assert.Nil(t, err)
	arr := u.Arr
	assert.NotNil(t, arr)
	assert.Equal(t, 1, arr.Samples)
	assert.Equal(t, 3, arr.LenMin)
	assert.Equal(t, 3, arr.LenMax)
	assert.Equal(t, []int{1, 1, 1}, arr.Present)
	assert.Equal(t, []int{1, 1, 0}, arr.NonNull)
	assert.NotNil(t, arr.Cols[0].Num)
	assert.NotNil(t, arr.Cols[1].Str)
	assert.True(t, arr.Cols[2].Nullable)

	// pooled item saw every element
	assert.NotNil(t, arr.Item.Num)
	assert.NotNil(t, arr.Item.Str)
	assert.True(t, arr.Item.Nullable)
}

func TestObserveEmptyArray(t *testing.T) {
	u, err := ObserveBytes([]byte(`[]`))
	assert.Nil(t, err)
	assert.Equal(t, 0, u.Arr.LenMin)
	assert.Equal(t, 0, u.Arr.LenMax)
	assert.True(t, u.Arr.Item.IsBottom())
	assert.Empty(t, u.Arr.Cols)
}

func TestObserveObjectOrderAndCounts(t *testing.T) {
	u, err := ObserveBytes([]byte(`{"b": 1, "a": null}`))
	assert.Nil(t, err)
	obj := u.Obj
	assert.NotNil(t, obj)
	assert.Equal(t, 1, obj.SeenObjects)
	assert.Equal(t, []string{"b", "a"}, obj.Names)
	assert.Equal(t, 1, obj.Fields["b"].PresentIn)
	assert.Equal(t, 1, obj.Fields["b"].NonNullIn)
	assert.Equal(t, 1, obj.Fields["a"].PresentIn)
	assert.Equal(t, 0, obj.Fields["a"].NonNullIn)
}

func TestObserveBadJSON(t *testing.T) {
	_, err := ObserveBytes([]byte(`{"a":`))
	assert.ErrorIs(t, err, ErrInputNotJSON)
}

func TestObserveAnyTree(t *testing.T) {
	u, err := ObserveAny(map[string]any{"n": 1, "s": "x", "xs": []any{true, nil}})
	assert.Nil(t, err)
	obj := u.Obj
	assert.NotNil(t, obj)
	// sorted key order for decoded Go trees
	assert.Equal(t, []string{"n", "s", "xs"}, obj.Names)
	assert.True(t, obj.Fields["n"].Ty.Num.SawInt)
	assert.NotNil(t, obj.Fields["s"].Ty.Str)
	arr := obj.Fields["xs"].Ty.Arr
	assert.True(t, arr.Cols[0].HasBool)
	assert.True(t, arr.Cols[1].Nullable)
}
