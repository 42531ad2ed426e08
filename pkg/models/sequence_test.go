package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMirrorIsSymmetric(t *testing.T) {
	half := UniformSequence(0.001, "m", -45, 0, 45, 90)
	full := half.Mirror()

	require.Equal(t, 8, full.Len())
	assert.True(t, full.IsSymmetric())
	assert.False(t, half.IsSymmetric())
	assert.True(t, full.Reverse().Equal(full))
	assert.True(t, full.Half().Equal(half))
}

func TestSymmetryComparesThicknessAndMaterial(t *testing.T) {
	seq := NewStackingSequence(
		NewPly(0, 0.001, "a"),
		NewPly(0, 0.002, "a"),
	)
	assert.False(t, seq.IsSymmetric(), "different thickness must break symmetry")

	seq = NewStackingSequence(
		NewPly(0, 0.001, "a"),
		NewPly(0, 0.001, "b"),
	)
	assert.False(t, seq.IsSymmetric(), "different material must break symmetry")
	assert.Equal(t, []string{"a", "b"}, seq.MaterialIDs())
}

func TestSequenceIsImmutable(t *testing.T) {
	plies := []Ply{NewPly(0, 0.001, "m"), NewPly(90, 0.001, "m")}
	seq := NewStackingSequence(plies...)
	plies[0] = NewPly(45, 0.001, "m")
	assert.Equal(t, Orientation(0), seq.At(0).Orientation)

	out := seq.Plies()
	out[1] = NewPly(45, 0.001, "m")
	assert.Equal(t, Orientation(90), seq.At(1).Orientation)
}

func TestCountOrientation(t *testing.T) {
	seq := UniformSequence(0.001, "m", 45, -45, 0, 0, 90, -45, 45)
	assert.Equal(t, 2, seq.CountOrientation(45))
	assert.Equal(t, 2, seq.CountOrientation(-45))
	assert.Equal(t, 2, seq.CountOrientation(0))
	assert.Equal(t, 1, seq.CountOrientation(90))
	assert.Equal(t, 1, seq.CountOrientation(-90))
	assert.InDelta(t, 0.007, seq.TotalThickness(), 1e-12)
}

func TestParseLayup(t *testing.T) {
	tests := []struct {
		notation string
		want     []Orientation
	}{
		{"[-45/0/45/90]s", []Orientation{-45, 0, 45, 90, 90, 45, 0, -45}},
		{"[0/90]", []Orientation{0, 90}},
		{"[±45/0_2]s", []Orientation{45, -45, 0, 0, 0, 0, -45, 45}},
		{"[+-30]", []Orientation{30, -30}},
	}
	for _, tt := range tests {
		t.Run(tt.notation, func(t *testing.T) {
			seq, err := ParseLayup(tt.notation, 0.001, "m")
			require.NoError(t, err)
			assert.Equal(t, tt.want, seq.Orientations())
		})
	}

	_, err := ParseLayup("[]", 0.001, "m")
	assert.Error(t, err)
	_, err = ParseLayup("[0/x]", 0.001, "m")
	assert.Error(t, err)
	_, err = ParseLayup("[0_0]", 0.001, "m")
	assert.Error(t, err)
}

func TestSequenceString(t *testing.T) {
	seq, err := ParseLayup("[-45/0/45/90]s", 0.001, "m")
	require.NoError(t, err)
	assert.Equal(t, "[-45/0/45/90]s", seq.String())

	seq = UniformSequence(0.001, "m", -45, 0, 45, 90)
	assert.Equal(t, "[-45/0/45/90]", seq.String())
}

func TestSequenceJSON(t *testing.T) {
	seq := UniformSequence(0.001, "m", 0, 90)
	data, err := json.Marshal(seq)
	require.NoError(t, err)

	var decoded StackingSequence
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, decoded.Equal(seq))
}
