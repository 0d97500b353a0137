package framework

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunnerStopsAllOnFirstExit(t *testing.T) {
	broken := errors.New("broken")
	r := NewRunner()
	r.Go(
		NamedRun("engine", RunFunc(func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})),
		NamedRun("bridge", RunFunc(func(ctx context.Context) error {
			return broken
		})),
	)
	err := r.Wait()
	require.True(t, errors.Is(err, broken))
	require.Contains(t, err.Error(), "bridge")
	require.Error(t, r.Context().Err())
}

func TestRunnerStop(t *testing.T) {
	r := NewRunner()
	r.Go(RunFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))
	r.Stop()
	require.NoError(t, r.Wait())
}

func TestAggregatedError(t *testing.T) {
	first, second := errors.New("first"), errors.New("second")
	var errs AggregatedError
	require.NoError(t, errs.Add(nil).Aggregate())
	errs.Add(first)
	require.Equal(t, "first", errs.Error())
	errs.Add(nil, second)
	require.Equal(t, "multiple errors:\n  first\n  second", errs.Error())
	require.True(t, errs.Has(second))
	require.True(t, errors.Is(errs.Aggregate(), first))
}
