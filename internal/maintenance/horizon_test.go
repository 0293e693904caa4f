package maintenance

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"aquavik/internal/model"
)

type recordingReconciler struct {
	calls []string
	err   map[string]error
}

func (r *recordingReconciler) Reconcile(ctx context.Context, facilityID, fromDate, toDate string) (model.ReconcileResult, error) {
	r.calls = append(r.calls, facilityID)
	if err := r.err[facilityID]; err != nil {
		return model.ReconcileResult{}, err
	}
	return model.ReconcileResult{Created: 1}, nil
}

type staticLister struct {
	ids []string
	err error
}

func (l *staticLister) ListFacilities(ctx context.Context) ([]string, error) {
	return l.ids, l.err
}

func TestRunOnceSweepsAllFacilities(t *testing.T) {
	logger := zerolog.New(io.Discard)
	rec := &recordingReconciler{}
	h := New(rec, &staticLister{ids: []string{"pool-1", "pool-2"}}, 30, "0 3 * * *", &logger)

	h.RunOnce(context.Background())

	assert.Equal(t, []string{"pool-1", "pool-2"}, rec.calls)
}

func TestRunOnceContinuesPastFailures(t *testing.T) {
	logger := zerolog.New(io.Discard)
	rec := &recordingReconciler{err: map[string]error{"pool-1": errors.New("boom")}}
	h := New(rec, &staticLister{ids: []string{"pool-1", "pool-2"}}, 30, "0 3 * * *", &logger)

	h.RunOnce(context.Background())

	assert.Equal(t, []string{"pool-1", "pool-2"}, rec.calls, "a failing facility must not stop the sweep")
}

func TestRunOnceListError(t *testing.T) {
	logger := zerolog.New(io.Discard)
	rec := &recordingReconciler{}
	h := New(rec, &staticLister{err: errors.New("db down")}, 30, "0 3 * * *", &logger)

	h.RunOnce(context.Background())

	assert.Empty(t, rec.calls)
}
