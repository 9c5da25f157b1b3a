package tensor

import (
	"testing"

	"github.com/gomlx/exceptions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataType_Properties(t *testing.T) {
	tests := []struct {
		dt     DataType
		size   int
		float  bool
		signed bool
		name   string
	}{
		{Int8, 1, false, true, "int8"},
		{Int32, 4, false, true, "int32"},
		{Int64, 8, false, true, "int64"},
		{Uint8, 1, false, false, "uint8"},
		{Uint32, 4, false, false, "uint32"},
		{Uint64, 8, false, false, "uint64"},
		{Float32, 4, true, true, "float32"},
		{Float64, 8, true, true, "float64"},
	}
	require.Len(t, DataTypes(), len(tests))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.dt.Valid())
			assert.Equal(t, tt.size, tt.dt.Size())
			assert.Equal(t, tt.float, tt.dt.IsFloat())
			assert.Equal(t, !tt.float, tt.dt.IsInteger())
			assert.Equal(t, tt.signed, tt.dt.IsSigned())
			assert.Equal(t, tt.name, tt.dt.String())

			parsed, err := ParseDataType(" " + tt.name + " ")
			require.NoError(t, err)
			assert.Equal(t, tt.dt, parsed)
		})
	}
}

func TestDataType_Invalid(t *testing.T) {
	bad := DataType(100)
	assert.False(t, bad.Valid())
	assert.False(t, bad.IsInteger())
	assert.Equal(t, "unknown", bad.String())
	assert.Panics(t, func() { bad.Size() })
	err := exceptions.TryCatch[error](func() { bad.Size() })
	assert.ErrorContains(t, err, "unknown data type 100")

	_, err = ParseDataType("complex64")
	assert.ErrorIs(t, err, ErrType)
	_, err = bad.MarshalText()
	assert.ErrorIs(t, err, ErrType)
}

func TestDataType_Text(t *testing.T) {
	text, err := Uint32.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "uint32", string(text))

	var dt DataType
	require.NoError(t, dt.UnmarshalText([]byte("FLOAT32")))
	assert.Equal(t, Float32, dt)
}
