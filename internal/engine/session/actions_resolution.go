package session

import (
	"context"

	"mtgserver/internal/engine/enginerr"
	"mtgserver/internal/engine/eventkind"
	"mtgserver/internal/engine/payload"
	"mtgserver/internal/engine/resolution"
)

// SubmitResolutionResponse answers a pending ResolutionStep, running its
// continuation atomically and appending one event on success. On
// failure the step remains pending and no event is appended (spec
// §4.11).
func (e *Executor) SubmitResolutionResponse(ctx context.Context, playerID, stepID string, resp resolution.Response) error {
	if err := e.resolutions.Submit(stepID, playerID, resp); err != nil {
		return err
	}

	if _, err := e.appendEvent(ctx, eventkind.ResolutionSubmitted, payload.ResolutionSubmitted{
		StepID: stepID, PlayerID: playerID, Selections: resp.Selections, Cancelled: resp.Cancelled,
	}); err != nil {
		return enginerr.Newf(enginerr.KindApplyFailed, "resolution step %s applied but could not be logged: %v", stepID, err)
	}

	e.afterMutate()
	e.notify()
	return nil
}

// CancelResolutionStep is sugar for submitting a cancelled response to
// an optional step.
func (e *Executor) CancelResolutionStep(ctx context.Context, playerID, stepID string) error {
	return e.SubmitResolutionResponse(ctx, playerID, stepID, resolution.Response{Cancelled: true})
}
