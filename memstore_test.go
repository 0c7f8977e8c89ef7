package snirf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStore_GroupsAndKeys(t *testing.T) {
	s := NewMemStore("mem")
	require.NoError(t, s.CreateGroup("nirs"))
	require.NoError(t, s.CreateGroup("/nirs/probe/"))
	require.NoError(t, s.Write("nirs/probe/wavelengths", Float64Array([]uint64{2}, []float64{760, 850})))
	require.NoError(t, s.Write("nirs/probe/detectorPos3D", Float64Array([]uint64{1, 3}, []float64{0, 0, 1})))

	assert.True(t, s.HasGroup(""))
	assert.True(t, s.HasGroup("nirs/probe"))
	assert.False(t, s.HasGroup("nirs/probe/wavelengths"))
	assert.True(t, s.Has("nirs/probe/wavelengths"))
	assert.False(t, s.Has("nirs/probe/wavelengths/x"))

	keys, err := s.Keys("/nirs/probe")
	require.NoError(t, err)
	assert.Equal(t, []string{"detectorPos3D", "wavelengths"}, keys)

	_, err = s.Keys("nirs/data1")
	assert.Error(t, err)
}

func TestMemStore_WriteRules(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		value   *Value
		wantErr string
	}{
		{"missing parent", "nirs/probe/x", Scalar(1), "parent group"},
		{"existing entry", "nirs/existing", Scalar(2), "already exists"},
		{"nil value", "nirs/nil", nil, "nil value"},
		{"invalid shape", "nirs/bad", &Value{Kind: KindArray, Dims: []uint64{3}, Numbers: []float64{1}}, "invalid value"},
		{"root", "", Scalar(1), "invalid path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewMemStore("mem")
			require.NoError(t, s.CreateGroup("nirs"))
			require.NoError(t, s.Write("nirs/existing", Scalar(1)))

			err := s.Write(tt.path, tt.value)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)

			v, rerr := s.Read("nirs/existing")
			require.NoError(t, rerr)
			assert.Equal(t, []float64{1}, v.Numbers)
		})
	}
}

func TestMemStore_ReadReturnsCopy(t *testing.T) {
	s := NewMemStore("mem")
	require.NoError(t, s.CreateGroup("nirs"))
	require.NoError(t, s.Write("nirs/v", Float64Array([]uint64{2}, []float64{1, 2})))

	v, err := s.Read("nirs/v")
	require.NoError(t, err)
	v.Numbers[0] = 99

	again, err := s.Read("nirs/v")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, again.Numbers)

	_, err = s.Read("nirs")
	assert.ErrorContains(t, err, "is a group")
}

func TestMemStore_ViewAndClose(t *testing.T) {
	s := NewMemStore("mem")
	require.NoError(t, s.CreateGroup("nirs"))

	ro := s.View(true)
	assert.False(t, ro.Writable())
	assert.ErrorIs(t, ro.CreateGroup("nirs/probe"), ErrReadOnly)
	assert.ErrorIs(t, ro.Write("nirs/x", Scalar(1)), ErrReadOnly)

	rw := s.View(false)
	require.NoError(t, rw.CreateGroup("nirs/probe"))
	assert.True(t, ro.HasGroup("nirs/probe"), "views share one tree")

	require.NoError(t, rw.Close())
	require.NoError(t, rw.Close())
	assert.False(t, rw.Writable())
	_, err := rw.Keys("nirs")
	assert.ErrorIs(t, err, ErrClosed)

	assert.True(t, s.Writable(), "closing a view leaves the original open")
}
