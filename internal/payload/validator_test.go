package payload

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePostingPayload(t *testing.T) {
	t.Run("minimal", func(t *testing.T) {
		p, err := ValidatePostingPayload(json.RawMessage(`{"id":"goe-1","location":"경기 성남시"}`))
		require.NoError(t, err)
		assert.Equal(t, "goe-1", p.ID)
		assert.Equal(t, "경기 성남시", p.Location)
		_, ok := p.Coordinate()
		assert.False(t, ok)
	})

	t.Run("with coordinate and extra fields", func(t *testing.T) {
		raw := `{"id":"goe-2","location":"경기 성남시","latitude":37.42,"longitude":127.13,` +
			`"title":"기간제 교사","posted_at":"2026-03-02T09:00:00Z","pay":{"type":"hourly"}}`
		p, err := ValidatePostingPayload(json.RawMessage(raw))
		require.NoError(t, err)
		c, ok := p.Coordinate()
		require.True(t, ok)
		assert.InDelta(t, 37.42, c.Lat, 1e-9)
		assert.InDelta(t, 127.13, c.Lng, 1e-9)
	})

	t.Run("null coordinate", func(t *testing.T) {
		p, err := ValidatePostingPayload(json.RawMessage(`{"id":"a","location":"","latitude":null,"longitude":null}`))
		require.NoError(t, err)
		_, ok := p.Coordinate()
		assert.False(t, ok)
	})
}

func TestValidatePostingPayload_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantErr string
	}{
		{"empty", ``, "payload is empty"},
		{"not JSON", `{"id":`, "decode payload JSON"},
		{"trailing content", `{"id":"a","location":"x"} {}`, "trailing content"},
		{"missing id", `{"location":"경기"}`, "schema validation failed"},
		{"missing location", `{"id":"a"}`, "schema validation failed"},
		{"location not a string", `{"id":"a","location":42}`, "schema validation failed"},
		{"latitude out of range", `{"id":"a","location":"x","latitude":91,"longitude":127}`, "schema validation failed"},
		{"bad posted_at", `{"id":"a","location":"x","posted_at":"yesterday"}`, "schema validation failed"},
		{"blank id", `{"id":"  ","location":"x"}`, "id must not be blank"},
		{"half coordinate", `{"id":"a","location":"x","latitude":37.4}`, "given together"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidatePostingPayload(json.RawMessage(tt.payload))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
