package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func TestDescriptionRoundTrip(t *testing.T) {
	tests := []Description{
		{},
		{LeaderName: "Wang"},
		{EmployeeCount: -7},
		{LeaderName: "刘小壮", EmployeeCount: 1 << 40},
	}
	for _, d := range tests {
		data, err := EncodeDescription(d)
		require.NoError(t, err)
		assert.Equal(t, descriptionVersion, data[0])

		got, err := DecodeDescription(data)
		require.NoError(t, err)
		assert.Equal(t, d, got)
	}
}

func TestDecodeDescriptionMalformed(t *testing.T) {
	valid, err := EncodeDescription(Description{LeaderName: "Wang", EmployeeCount: 3})
	require.NoError(t, err)

	unknown, err := msgpack.Marshal(map[string]any{"leaderName": "Wang", "floor": 3})
	require.NoError(t, err)

	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "bad version", data: append([]byte{9}, valid[1:]...)},
		{name: "truncated", data: valid[:len(valid)-2]},
		{name: "trailing bytes", data: append(append([]byte{}, valid...), 0x01)},
		{name: "unknown field", data: append([]byte{descriptionVersion}, unknown...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeDescription(tt.data)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}
