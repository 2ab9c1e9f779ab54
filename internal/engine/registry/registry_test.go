package registry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mtgserver/internal/engine/catalog"
	"mtgserver/internal/engine/effect"
	"mtgserver/internal/engine/eventlog"
	"mtgserver/internal/engine/idgen"
	"mtgserver/internal/engine/registry"
	"mtgserver/internal/engine/session"
)

func newExecutor(t *testing.T, id string) *session.Executor {
	t.Helper()
	exec, err := session.CreateGame(context.Background(), id, "standard", 20, 1,
		idgen.UUIDGenerator{}, catalog.NewStatic(nil), eventlog.NewMemoryStore(), effect.NewRegistry(), nil)
	require.NoError(t, err)
	return exec
}

func TestCreateAndFind(t *testing.T) {
	r := registry.New()
	exec := newExecutor(t, "g1")

	require.NoError(t, r.Create(exec))

	found, err := r.Find("g1")
	require.NoError(t, err)
	assert.Same(t, exec, found)
}

func TestCreateRejectsDuplicateGameID(t *testing.T) {
	r := registry.New()
	require.NoError(t, r.Create(newExecutor(t, "g1")))

	err := r.Create(newExecutor(t, "g1"))

	assert.Error(t, err)
}

func TestFindUnknownGameNotFound(t *testing.T) {
	r := registry.New()

	_, err := r.Find("missing")

	assert.Error(t, err)
}

func TestDeleteRemovesGame(t *testing.T) {
	r := registry.New()
	require.NoError(t, r.Create(newExecutor(t, "g1")))

	r.Delete("g1")

	_, err := r.Find("g1")
	assert.Error(t, err)
}

func TestListReturnsAllGameIDs(t *testing.T) {
	r := registry.New()
	require.NoError(t, r.Create(newExecutor(t, "g1")))
	require.NoError(t, r.Create(newExecutor(t, "g2")))

	ids := r.List()

	assert.ElementsMatch(t, []string{"g1", "g2"}, ids)
}
