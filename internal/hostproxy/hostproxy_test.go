// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package hostproxy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_Append(t *testing.T) {
	s := NewSession("default")
	s.Append([]byte("hello"))
	s.Append([]byte(", world"))

	assert.Equal(t, "hello, world", string(s.Bytes()))
	assert.Equal(t, "default", s.Server)
}

func TestDNSHostValidator(t *testing.T) {
	v := DNSHostValidator{}

	tests := []struct {
		name string
		want bool
	}{
		{"example.com", true},
		{"sub.example-01.com", true},
		{"", false},
		{"exAMPLE.com", false}, // uppercase is rejected, not normalized
		{"exa mple.com", false},
		{"exa_mple.com", false},
	}
	for _, tt := range tests {
		got, err := v.ValidateHost(tt.name)
		require.NoError(t, err)
		assert.Equalf(t, tt.want, got, "ValidateHost(%q)", tt.name)
	}
}

func TestStaticResolver_FindVirtualServer(t *testing.T) {
	session := NewSession("default")
	r := &StaticResolver{
		Servers:   map[string]string{"example.com": "api"},
		Validator: DNSHostValidator{},
		Session:   session,
	}

	found, err := r.FindVirtualServer("example.com")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "api", session.Server)
}

func TestStaticResolver_NotFound(t *testing.T) {
	r := &StaticResolver{Servers: map[string]string{"example.com": "api"}}

	found, err := r.FindVirtualServer("unknown.example")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStaticResolver_EmptySNI(t *testing.T) {
	r := &StaticResolver{Servers: map[string]string{}}
	found, err := r.FindVirtualServer("")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStaticResolver_RejectedByValidator(t *testing.T) {
	r := &StaticResolver{
		Servers:   map[string]string{"ex ample.com": "api"},
		Validator: DNSHostValidator{},
	}
	found, err := r.FindVirtualServer("ex ample.com")
	require.NoError(t, err)
	assert.Falsef(t, found, "expected validator to reject a malformed SNI before the server lookup runs")
}
