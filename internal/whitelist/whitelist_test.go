package whitelist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestIsWhitelisted(t *testing.T) {
	checker := NewChecker([]string{"Example.COM ", "trusted.org"}, zap.NewNop())

	assert.True(t, checker.IsWhitelisted("alice@example.com"))
	assert.True(t, checker.IsWhitelisted("bob@EXAMPLE.COM"))
	assert.True(t, checker.IsWhitelisted("carol@trusted.org"))
	assert.True(t, checker.IsWhitelisted("Alice Smith <alice@example.com>"))

	assert.False(t, checker.IsWhitelisted("mallory@attacker.test"))
	assert.False(t, checker.IsWhitelisted("mallory@example.com.attacker.test"))
	assert.False(t, checker.IsWhitelisted("not-an-address"))
	assert.False(t, checker.IsWhitelisted(""))
}

func TestIsWhitelistedEmptyList(t *testing.T) {
	checker := NewChecker(nil, zap.NewNop())
	assert.False(t, checker.IsWhitelisted("alice@example.com"))
}
