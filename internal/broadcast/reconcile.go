package broadcast

import (
	"context"
	"fmt"

	"bethel/streamtools/ytscheduler/internal/youtube"
)

// API is the slice of the YouTube client the reconciler needs.
type API interface {
	InsertBroadcast(ctx context.Context, r youtube.BroadcastRequest) (string, error)
	UpdateBroadcast(ctx context.Context, id string, r youtube.BroadcastRequest) error
}

type Result struct {
	VideoID string
	Created bool
	// SoftErr reports an update failure. The id is still valid and later
	// steps (bind, thumbnail) proceed against it.
	SoftErr error
}

// Reconcile updates the existing upcoming broadcast in place when there is
// one, otherwise inserts a new broadcast. Insert failure is the only hard
// error this pipeline has.
func Reconcile(ctx context.Context, api API, upcoming *youtube.Broadcast, req youtube.BroadcastRequest) (Result, error) {
	if upcoming != nil {
		res := Result{VideoID: upcoming.ID}
		if err := api.UpdateBroadcast(ctx, upcoming.ID, req); err != nil {
			res.SoftErr = fmt.Errorf("update broadcast %s: %w", upcoming.ID, err)
		}
		return res, nil
	}

	id, err := api.InsertBroadcast(ctx, req)
	if err != nil {
		return Result{}, fmt.Errorf("insert broadcast: %w", err)
	}
	return Result{VideoID: id, Created: true}, nil
}
