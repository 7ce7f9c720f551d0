package tokens

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromAuthorizationHeader(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer sk-author-abc", "sk-author-abc", true},
		{"bearer sk-author-abc", "sk-author-abc", true},
		{"Bearer ", "", false},
		{"Basic dXNlcjpwYXNz", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := FromAuthorizationHeader(tt.header)
		assert.Equal(t, tt.ok, ok, tt.header)
		assert.Equal(t, tt.want, got, tt.header)
	}
}

func TestParseToken(t *testing.T) {
	secret, ok := ParseToken(Format("sk-author-", "abc"), "sk-author-")
	assert.True(t, ok)
	assert.Equal(t, "abc", secret)

	_, ok = ParseToken("sk-author-", "sk-author-")
	assert.False(t, ok)
	_, ok = ParseToken("sk-proj-abc", "sk-author-")
	assert.False(t, ok)
}

func TestHMAC256Hex(t *testing.T) {
	a := HMAC256Hex("pepper", "secret")
	assert.Len(t, a, 64)
	assert.Equal(t, a, HMAC256Hex("pepper", "secret"))
	assert.NotEqual(t, a, HMAC256Hex("other", "secret"))
}
