package resolution_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mtgserver/internal/engine/domain"
	"mtgserver/internal/engine/idgen"
	"mtgserver/internal/engine/resolution"
)

func newManager() (*resolution.Manager, *domain.Game) {
	g := domain.NewGame("g1", "standard", 20, 1)
	return resolution.NewManager(g, &idgen.Sequential{Prefix: "step-"}), g
}

func TestEnqueueAssignsIDAndMandatoryFlag(t *testing.T) {
	m, g := newManager()

	id := m.Enqueue(domain.ResolutionStep{TargetPlayer: "p1"}, resolution.Continuation{})

	assert.NotEmpty(t, id)
	require.Len(t, g.ResolutionQueue, 1)
	assert.True(t, g.ResolutionQueue[0].Mandatory)
}

func TestEnqueueOptionalStepIsNotMandatory(t *testing.T) {
	m, g := newManager()

	m.Enqueue(domain.ResolutionStep{TargetPlayer: "p1"}, resolution.Continuation{Optional: true})

	assert.False(t, g.ResolutionQueue[0].Mandatory)
}

func TestPendingFiltersByTargetPlayer(t *testing.T) {
	m, _ := newManager()
	m.Enqueue(domain.ResolutionStep{TargetPlayer: "p1"}, resolution.Continuation{})
	m.Enqueue(domain.ResolutionStep{TargetPlayer: "p2"}, resolution.Continuation{})

	pending := m.Pending("p1")

	assert.Len(t, pending, 1)
}

func TestSubmitRunsValidateThenSubmit(t *testing.T) {
	m, _ := newManager()
	submitted := false
	id := m.Enqueue(domain.ResolutionStep{TargetPlayer: "p1"}, resolution.Continuation{
		Validate: func(resp resolution.Response) error { return nil },
		Submit: func(resp resolution.Response) error {
			submitted = true
			return nil
		},
	})

	require.NoError(t, m.Submit(id, "p1", resolution.Response{Selections: []string{"x"}}))
	assert.True(t, submitted)
	assert.Equal(t, 0, m.Len())
}

func TestSubmitByWrongPlayerRejected(t *testing.T) {
	m, _ := newManager()
	id := m.Enqueue(domain.ResolutionStep{TargetPlayer: "p1"}, resolution.Continuation{
		Submit: func(resp resolution.Response) error { return nil },
	})

	err := m.Submit(id, "p2", resolution.Response{})

	assert.Error(t, err)
	assert.Equal(t, 1, m.Len())
}

func TestSubmitTwiceSecondFailsWithStepNotFound(t *testing.T) {
	m, _ := newManager()
	id := m.Enqueue(domain.ResolutionStep{TargetPlayer: "p1"}, resolution.Continuation{
		Submit: func(resp resolution.Response) error { return nil },
	})

	require.NoError(t, m.Submit(id, "p1", resolution.Response{}))
	err := m.Submit(id, "p1", resolution.Response{})

	assert.Error(t, err)
}

func TestSubmitLeavesStepPendingOnValidateFailure(t *testing.T) {
	m, _ := newManager()
	id := m.Enqueue(domain.ResolutionStep{TargetPlayer: "p1"}, resolution.Continuation{
		Validate: func(resp resolution.Response) error { return assert.AnError },
		Submit:   func(resp resolution.Response) error { return nil },
	})

	err := m.Submit(id, "p1", resolution.Response{})

	assert.Error(t, err)
	assert.Equal(t, 1, m.Len())
}

func TestMandatoryStepRejectsCancel(t *testing.T) {
	m, _ := newManager()
	id := m.Enqueue(domain.ResolutionStep{TargetPlayer: "p1"}, resolution.Continuation{})

	err := m.Cancel(id, "p1")

	assert.Error(t, err)
}

func TestOptionalStepCancelRunsRollback(t *testing.T) {
	m, _ := newManager()
	rolledBack := false
	id := m.Enqueue(domain.ResolutionStep{TargetPlayer: "p1"}, resolution.Continuation{
		Optional: true,
		Rollback: func() error { rolledBack = true; return nil },
	})

	require.NoError(t, m.Cancel(id, "p1"))

	assert.True(t, rolledBack)
	assert.Equal(t, 0, m.Len())
}

func TestExpireTimeoutsAppliesDefaultForMandatoryStep(t *testing.T) {
	m, g := newManager()
	applied := false
	id := m.Enqueue(domain.ResolutionStep{TargetPlayer: "p1", Timeout: time.Millisecond}, resolution.Continuation{
		Submit: func(resp resolution.Response) error {
			applied = true
			return nil
		},
		DefaultOnTimeout: func() resolution.Response {
			return resolution.Response{Selections: []string{"default"}}
		},
	})
	g.ResolutionQueue[0].CreatedAt = time.Now().Add(-time.Hour)

	m.ExpireTimeouts(time.Now())

	assert.True(t, applied)
	assert.Equal(t, 0, m.Len())
	_ = id
}

func TestExpireTimeoutsCancelsOptionalStep(t *testing.T) {
	m, g := newManager()
	rolledBack := false
	m.Enqueue(domain.ResolutionStep{TargetPlayer: "p1", Timeout: time.Millisecond}, resolution.Continuation{
		Optional: true,
		Rollback: func() error { rolledBack = true; return nil },
	})
	g.ResolutionQueue[0].CreatedAt = time.Now().Add(-time.Hour)

	m.ExpireTimeouts(time.Now())

	assert.True(t, rolledBack)
	assert.Equal(t, 0, m.Len())
}

func TestExpireTimeoutsDropsMandatoryStepWithNoDefault(t *testing.T) {
	m, g := newManager()
	m.Enqueue(domain.ResolutionStep{TargetPlayer: "p1", Timeout: time.Millisecond}, resolution.Continuation{})
	g.ResolutionQueue[0].CreatedAt = time.Now().Add(-time.Hour)

	m.ExpireTimeouts(time.Now())

	assert.Equal(t, 0, m.Len())
}
