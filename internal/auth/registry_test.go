package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	github := NewOAuthProvider(ProviderConfig{Name: "github", IdentitySource: IdentityFromAPI})
	gitlab := NewOAuthProvider(ProviderConfig{Name: "gitlab", IdentitySource: IdentityFromAPI})

	r := NewRegistry(gitlab, github)

	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []string{"github", "gitlab"}, r.Names())

	p, err := r.Get("github")
	require.NoError(t, err)
	assert.Same(t, github, p)

	p, err = r.Get("myspace")
	assert.Nil(t, p)
	require.ErrorIs(t, err, ErrUnknownProvider)
	assert.Contains(t, err.Error(), "myspace")
}

func TestRegistry_Empty(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.Names())

	_, err := r.Get("google")
	assert.ErrorIs(t, err, ErrUnknownProvider)
}
