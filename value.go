package snirf

import (
	"fmt"
	"math"
	"slices"
)

// Kind describes the shape category of a stored value.
type Kind int

const (
	// KindScalar is a single number with an empty dataspace.
	KindScalar Kind = iota
	// KindArray is an N-dimensional numeric array.
	KindArray
	// KindString is one or more fixed-length strings.
	KindString
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindArray:
		return "array"
	case KindString:
		return "string"
	default:
		return fmt.Sprintf("kind_%d", int(k))
	}
}

// Class describes the element type of a stored value.
type Class int

const (
	// ClassFloat is an IEEE floating point element.
	ClassFloat Class = iota
	// ClassInteger is a signed fixed-point element.
	ClassInteger
	// ClassString is a fixed-length string element.
	ClassString
)

// String returns the class name, matching the HDF5 library's datatype names.
func (c Class) String() string {
	switch c {
	case ClassFloat:
		return "float"
	case ClassInteger:
		return "integer"
	case ClassString:
		return "string"
	default:
		return fmt.Sprintf("class_%d", int(c))
	}
}

// Value is the content of one entry in a MetadataStore.
//
// Numeric data is held as float64 in row-major order regardless of the
// on-disk element type; Class and ElemSize record the original type so a
// copy can be written back with the same datatype.
type Value struct {
	Kind     Kind
	Class    Class
	ElemSize uint32   // Element size in bytes (string length for strings).
	Dims     []uint64 // Empty for scalars.
	Numbers  []float64
	Strings  []string
}

// Float64Array returns a float64 array value with the given dimensions.
func Float64Array(dims []uint64, data []float64) *Value {
	return &Value{
		Kind:     KindArray,
		Class:    ClassFloat,
		ElemSize: 8,
		Dims:     slices.Clone(dims),
		Numbers:  slices.Clone(data),
	}
}

// Int32Array returns an int32 array value with the given dimensions.
func Int32Array(dims []uint64, data []int32) *Value {
	nums := make([]float64, len(data))
	for i, v := range data {
		nums[i] = float64(v)
	}
	return &Value{
		Kind:     KindArray,
		Class:    ClassInteger,
		ElemSize: 4,
		Dims:     slices.Clone(dims),
		Numbers:  nums,
	}
}

// Scalar returns a float64 scalar value.
func Scalar(v float64) *Value {
	return &Value{
		Kind:     KindScalar,
		Class:    ClassFloat,
		ElemSize: 8,
		Numbers:  []float64{v},
	}
}

// StringArray returns a 1-D string value. ElemSize is the longest string.
func StringArray(vals ...string) *Value {
	size := 1
	for _, s := range vals {
		size = max(size, len(s))
	}
	return &Value{
		Kind:     KindString,
		Class:    ClassString,
		ElemSize: uint32(size), //nolint:gosec // G115: string length bounded by memory
		Dims:     []uint64{uint64(len(vals))},
		Strings:  slices.Clone(vals),
	}
}

// Shape returns the dimensions as a readable string, e.g. "[3 x 2]".
func (v *Value) Shape() string {
	if v.Kind == KindScalar || len(v.Dims) == 0 {
		return "scalar"
	}
	s := "["
	for i, d := range v.Dims {
		if i > 0 {
			s += " x "
		}
		s += fmt.Sprintf("%d", d)
	}
	return s + "]"
}

// Len returns the number of elements the dimensions describe.
func (v *Value) Len() uint64 {
	if len(v.Dims) == 0 {
		return 1
	}
	n := uint64(1)
	for _, d := range v.Dims {
		n *= d
	}
	return n
}

// Validate checks that the payload agrees with Kind and Dims.
func (v *Value) Validate() error {
	switch v.Kind {
	case KindScalar:
		if len(v.Numbers) != 1 {
			return fmt.Errorf("scalar holds %d numbers", len(v.Numbers))
		}
	case KindArray:
		if len(v.Dims) == 0 {
			return fmt.Errorf("array has no dimensions")
		}
		if uint64(len(v.Numbers)) != v.Len() {
			return fmt.Errorf("array shape %s needs %d elements, got %d", v.Shape(), v.Len(), len(v.Numbers))
		}
	case KindString:
		if uint64(len(v.Strings)) != v.Len() {
			return fmt.Errorf("string shape %s needs %d elements, got %d", v.Shape(), v.Len(), len(v.Strings))
		}
	default:
		return fmt.Errorf("unknown value kind %d", int(v.Kind))
	}
	return nil
}

// Equal reports whether two values have the same kind, class, shape and content.
// NaN elements compare equal to each other.
func (v *Value) Equal(o *Value) bool {
	if v == nil || o == nil {
		return v == o
	}
	if v.Kind != o.Kind || v.Class != o.Class || !slices.Equal(v.Dims, o.Dims) {
		return false
	}
	if !slices.Equal(v.Strings, o.Strings) {
		return false
	}
	return slices.EqualFunc(v.Numbers, o.Numbers, func(a, b float64) bool {
		return a == b || (math.IsNaN(a) && math.IsNaN(b))
	})
}

// Clone returns a deep copy.
func (v *Value) Clone() *Value {
	if v == nil {
		return nil
	}
	c := *v
	c.Dims = slices.Clone(v.Dims)
	c.Numbers = slices.Clone(v.Numbers)
	c.Strings = slices.Clone(v.Strings)
	return &c
}
