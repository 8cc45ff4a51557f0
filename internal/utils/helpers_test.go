package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLimitOffset(t *testing.T) {
	tests := []struct {
		name       string
		limit      string
		offset     string
		wantLimit  int
		wantOffset int
		wantErr    bool
	}{
		{name: "defaults", wantLimit: DefaultLimit},
		{name: "explicit", limit: "10", offset: "30", wantLimit: 10, wantOffset: 30},
		{name: "max limit", limit: "100", wantLimit: 100},
		{name: "limit too large", limit: "101", wantErr: true},
		{name: "zero limit", limit: "0", wantErr: true},
		{name: "not a number", limit: "ten", wantErr: true},
		{name: "negative offset", offset: "-1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limit, offset, err := ParseLimitOffset(tt.limit, tt.offset)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLimit, limit)
			assert.Equal(t, tt.wantOffset, offset)
		})
	}
}

func TestSendResponses(t *testing.T) {
	rec := httptest.NewRecorder()
	SendErrorResponse(rec, http.StatusForbidden, "nope")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"nope"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	SendListResponse(rec, []string{"a", "b"})
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(2), body["count"])

	rec = httptest.NewRecorder()
	SendSuccessResponse(rec, http.StatusCreated, map[string]int{"n": 1})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":{"n":1}}`, rec.Body.String())
}
