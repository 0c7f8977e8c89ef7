package snirf

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_Shape(t *testing.T) {
	tests := []struct {
		name  string
		value *Value
		want  string
	}{
		{"scalar", Scalar(3.5), "scalar"},
		{"1D", Float64Array([]uint64{4}, make([]float64, 4)), "[4]"},
		{"2D", Float64Array([]uint64{3, 2}, make([]float64, 6)), "[3 x 2]"},
		{"strings", StringArray("a", "b"), "[2]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.value.Shape())
		})
	}
}

func TestValue_Validate(t *testing.T) {
	tests := []struct {
		name    string
		value   *Value
		wantErr bool
	}{
		{"scalar", Scalar(1), false},
		{"array", Float64Array([]uint64{2, 2}, []float64{1, 2, 3, 4}), false},
		{"strings", StringArray("S1"), false},
		{"scalar without number", &Value{Kind: KindScalar}, true},
		{"array without dims", &Value{Kind: KindArray, Numbers: []float64{1}}, true},
		{"array too short", Float64Array([]uint64{3}, []float64{1}), true},
		{"string count mismatch", &Value{Kind: KindString, Dims: []uint64{2}, Strings: []string{"a"}}, true},
		{"unknown kind", &Value{Kind: Kind(9)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.value.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValue_Equal(t *testing.T) {
	a := Float64Array([]uint64{2}, []float64{1, math.NaN()})
	b := Float64Array([]uint64{2}, []float64{1, math.NaN()})
	assert.True(t, a.Equal(b))

	assert.False(t, a.Equal(Float64Array([]uint64{1, 2}, []float64{1, math.NaN()})))
	assert.False(t, Scalar(1).Equal(Float64Array([]uint64{1}, []float64{1})))
	assert.False(t, Int32Array([]uint64{1}, []int32{1}).Equal(Float64Array([]uint64{1}, []float64{1})))
	assert.True(t, (*Value)(nil).Equal(nil))
	assert.False(t, a.Equal(nil))
}

func TestValue_CloneIsDeep(t *testing.T) {
	orig := StringArray("S1", "S2")
	c := orig.Clone()
	c.Strings[0] = "X"
	c.Dims[0] = 7

	assert.Equal(t, []string{"S1", "S2"}, orig.Strings)
	assert.Equal(t, []uint64{2}, orig.Dims)
	assert.Nil(t, (*Value)(nil).Clone())
}

func TestStringArray_ElemSize(t *testing.T) {
	assert.Equal(t, uint32(3), StringArray("S1", "S10").ElemSize)
	assert.Equal(t, uint32(1), StringArray().ElemSize)
}

func TestKindAndClassNames(t *testing.T) {
	assert.Equal(t, "array", KindArray.String())
	assert.Equal(t, "kind_7", Kind(7).String())
	assert.Equal(t, "integer", ClassInteger.String())
	assert.Equal(t, "class_5", Class(5).String())
}

func TestInt32Array(t *testing.T) {
	v := Int32Array([]uint64{3}, []int32{-1, 0, 2})
	require.NoError(t, v.Validate())
	assert.Equal(t, []float64{-1, 0, 2}, v.Numbers)
	assert.Equal(t, ClassInteger, v.Class)
}
