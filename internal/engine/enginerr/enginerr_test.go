package enginerr_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mtgserver/internal/engine/enginerr"
)

func TestErrorMessageWithoutField(t *testing.T) {
	err := enginerr.New(enginerr.KindNotFound, "game g1 not found")

	assert.Equal(t, "not-found: game g1 not found", err.Error())
}

func TestErrorMessageWithField(t *testing.T) {
	err := enginerr.WithField(enginerr.KindIllegalTarget, "target not on battlefield", "targets[0]")

	assert.Equal(t, "illegal-target: target not on battlefield (targets[0])", err.Error())
}

func TestNewfFormatsMessage(t *testing.T) {
	err := enginerr.Newf(enginerr.KindInsufficientMana, "need %d more %s", 2, "red")

	assert.Equal(t, "insufficient-mana: need 2 more red", err.Error())
}

func TestIsMatchesKind(t *testing.T) {
	err := enginerr.New(enginerr.KindWrongPhase, "not main phase")

	assert.True(t, enginerr.Is(err, enginerr.KindWrongPhase))
	assert.False(t, enginerr.Is(err, enginerr.KindNotFound))
}

func TestIsFalseForNonEnginerrError(t *testing.T) {
	assert.False(t, enginerr.Is(assert.AnError, enginerr.KindNotFound))
}

func TestNotFoundBuildsMessage(t *testing.T) {
	err := enginerr.NotFound("permanent", "perm1")

	assert.Equal(t, enginerr.KindNotFound, err.Kind)
	assert.Equal(t, "not-found: permanent perm1 not found", err.Error())
}
