package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscription_HasActiveSubscription(t *testing.T) {
	tests := []struct {
		name string
		sub  *Subscription
		want bool
	}{
		{name: "nil", sub: nil, want: false},
		{name: "active and flagged", sub: &Subscription{Status: "active", IsActive: true}, want: true},
		{name: "active but not flagged", sub: &Subscription{Status: "active", IsActive: false}, want: false},
		{name: "flagged but lapsed", sub: &Subscription{Status: "lapsed", IsActive: true}, want: false},
		{name: "status is case sensitive", sub: &Subscription{Status: "Active", IsActive: true}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.sub.HasActiveSubscription())
		})
	}
}

func TestSubscription_WireFormat(t *testing.T) {
	var s Subscription
	require.NoError(t, json.Unmarshal([]byte(`{"status":"active","is_active":true}`), &s))
	assert.True(t, s.HasActiveSubscription())
}

func TestLoginPayload_DecodesAPIShape(t *testing.T) {
	var p LoginPayload
	err := json.Unmarshal([]byte(`{"refresh":"r1","user":{"id":"u1"},"subscription":{"status":"active","is_active":true}}`), &p)
	require.NoError(t, err)

	assert.Equal(t, "r1", p.RefreshToken)
	assert.JSONEq(t, `{"id":"u1"}`, string(p.User))
	require.NotNil(t, p.Subscription)
	assert.True(t, p.Subscription.HasActiveSubscription())
}

func TestResultHelpers(t *testing.T) {
	ok := Ok(map[string]int{"n": 1})
	assert.True(t, ok.Success)
	assert.Empty(t, ok.Error)

	fail := Fail("boom")
	assert.False(t, fail.Success)
	assert.Nil(t, fail.Data)
	assert.Equal(t, "boom", fail.Error)
}
