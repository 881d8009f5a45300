package cache

import (
	"testing"

	"cache-factory/internal/common/errors"
	"cache-factory/internal/common/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatorRegistry_FallbackWithoutRegistrations(t *testing.T) {
	r := NewCreatorRegistry(logging.Discard())

	for _, req := range []RequestConfig{
		{Name: "a"},
		{Name: "b", Kind: KindLRU},
		{Name: "c", Implementation: "unknown"},
	} {
		res := r.Resolve(req)
		assert.IsType(t, GenericCreator{}, res.Creator)
		assert.True(t, res.Fallback())
	}
	assert.Equal(t, int64(3), r.Fallbacks())
}

func TestCreatorRegistry_RoundTrip(t *testing.T) {
	r := NewCreatorRegistry(logging.Discard())
	c := &recordingCreator{kind: "K", aliases: []string{"X"}}
	require.NoError(t, r.Register(c))

	byKind := r.Resolve(RequestConfig{Name: "a", Kind: "K"})
	assert.Same(t, c, byKind.Creator)
	assert.Equal(t, MatchKind, byKind.Match)

	byAlias := r.Resolve(RequestConfig{Name: "b", Kind: "unrelated", Implementation: "X"})
	assert.Same(t, c, byAlias.Creator)
	assert.Equal(t, MatchAlias, byAlias.Match)

	assert.Equal(t, int64(0), r.Fallbacks())
}

func TestCreatorRegistry_KindWinsOverAlias(t *testing.T) {
	r := NewCreatorRegistry(logging.Discard())
	byKind := &recordingCreator{kind: "K", aliases: []string{}}
	byAlias := &recordingCreator{kind: "other", aliases: []string{"X"}}
	require.NoError(t, r.Register(byKind))
	require.NoError(t, r.Register(byAlias))

	res := r.Resolve(RequestConfig{Name: "a", Kind: "K", Implementation: "X"})
	assert.Same(t, byKind, res.Creator)
}

func TestCreatorRegistry_NilAliasesRejected(t *testing.T) {
	r := NewCreatorRegistry(logging.Discard())

	err := r.Register(&recordingCreator{kind: "K"})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeConfig))
	assert.Empty(t, r.Kinds(), "a rejected creator is not partially registered")

	require.NoError(t, r.Register(&recordingCreator{kind: "K", aliases: []string{}}))
	assert.Equal(t, []string{"K"}, r.Kinds())
	assert.Empty(t, r.Aliases())

	assert.Error(t, r.Register(nil))
}

func TestCreatorRegistry_LastRegistrationWins(t *testing.T) {
	r := NewCreatorRegistry(logging.Discard())
	first := &recordingCreator{kind: "K", aliases: []string{"X"}}
	second := &recordingCreator{kind: "K", aliases: []string{"X"}}

	require.NoError(t, r.Register(first))
	require.NoError(t, r.Register(second))

	assert.Same(t, second, r.Resolve(RequestConfig{Name: "a", Kind: "K"}).Creator)
	assert.Same(t, second, r.Resolve(RequestConfig{Name: "a", Implementation: "X"}).Creator)
}

func TestCreatorRegistry_AddCreatorsStopsAtInvalid(t *testing.T) {
	r := NewCreatorRegistry(logging.Discard())
	good := &recordingCreator{kind: "good", aliases: []string{}}
	bad := &recordingCreator{kind: "bad"}

	err := r.AddCreators(Creators{good, bad})
	require.Error(t, err)
	assert.Equal(t, []string{"good"}, r.Kinds())
}
