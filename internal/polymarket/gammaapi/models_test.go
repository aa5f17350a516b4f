package gammaapi

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumberUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want float64
	}{
		{"number", `12.5`, 12.5},
		{"quoted number", `"12.5"`, 12.5},
		{"null", `null`, 0},
		{"empty string", `""`, 0},
		{"garbage", `"n/a"`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var n Number
			require.NoError(t, json.Unmarshal([]byte(tt.in), &n))
			assert.InDelta(t, tt.want, n.Float64(), 1e-9)
		})
	}
}

func TestEventCreated(t *testing.T) {
	e := Event{CreatedAt: "2024-01-01", CreationDate: "2023-12-31"}
	assert.Equal(t, "2024-01-01", e.Created())

	e = Event{CreationDate: "2023-12-31"}
	assert.Equal(t, "2023-12-31", e.Created())

	assert.Empty(t, Event{}.Created())
}

func TestDecodeNumberList(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []float64
		ok   bool
	}{
		{"native array", `[0.55, 0.45]`, []float64{0.55, 0.45}, true},
		{"quoted elements", `["0.55", "0.45"]`, []float64{0.55, 0.45}, true},
		{"encoded string", `"[\"0.55\", \"0.45\"]"`, []float64{0.55, 0.45}, true},
		{"empty", ``, nil, false},
		{"not a list", `"yes"`, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DecodeNumberList(json.RawMessage(tt.in))
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				require.Len(t, got, len(tt.want))
				for i := range tt.want {
					assert.InDelta(t, tt.want[i], got[i], 1e-9)
				}
			}
		})
	}
}

func TestDecodeStringList(t *testing.T) {
	got, ok := DecodeStringList(json.RawMessage(`"[\"tok1\", \"tok2\"]"`))
	require.True(t, ok)
	assert.Equal(t, []string{"tok1", "tok2"}, got)

	got, ok = DecodeStringList(json.RawMessage(`["tok1"]`))
	require.True(t, ok)
	assert.Equal(t, []string{"tok1"}, got)

	_, ok = DecodeStringList(nil)
	assert.False(t, ok)
}
