package mixtape

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/mixtape/internal/logger"
)

func TestRunSaga(t *testing.T) {
	t.Parallel()

	noop := func(ctx context.Context) error { return nil }
	failing := func(ctx context.Context) error { return errors.New("boom") }

	t.Run("all steps run in order", func(t *testing.T) {
		var order []string
		record := func(name string) func(ctx context.Context) error {
			return func(ctx context.Context) error {
				order = append(order, name)
				return nil
			}
		}

		err := runSaga(t.Context(), logger.NewNoOpLogger(), []step{
			{name: "first", run: record("first")},
			{name: "second", run: record("second")},
			{name: "third", run: record("third")},
		})

		require.NoError(t, err)
		require.Equal(t, []string{"first", "second", "third"}, order)
	})

	t.Run("failure compensates completed steps in reverse order", func(t *testing.T) {
		var compensated []string
		undo := func(name string) func(ctx context.Context) error {
			return func(ctx context.Context) error {
				compensated = append(compensated, name)
				return nil
			}
		}

		err := runSaga(t.Context(), logger.NewNoOpLogger(), []step{
			{name: "first", run: noop, compensate: undo("first")},
			{name: "second", run: noop, compensate: undo("second")},
			{name: "third", run: failing, compensate: undo("third")},
		})

		require.Error(t, err)
		assert.ErrorContains(t, err, `saga step "third" failed`)
		require.Equal(t, []string{"second", "first"}, compensated,
			"the failed step must not be compensated, the completed ones in reverse")
	})

	t.Run("steps after the failed one never run", func(t *testing.T) {
		ran := false

		err := runSaga(t.Context(), logger.NewNoOpLogger(), []step{
			{name: "first", run: failing},
			{name: "second", run: func(ctx context.Context) error {
				ran = true
				return nil
			}},
		})

		require.Error(t, err)
		require.False(t, ran)
	})

	t.Run("nil compensations are skipped", func(t *testing.T) {
		var compensated []string

		err := runSaga(t.Context(), logger.NewNoOpLogger(), []step{
			{name: "first", run: noop, compensate: func(ctx context.Context) error {
				compensated = append(compensated, "first")
				return nil
			}},
			{name: "second", run: noop},
			{name: "third", run: failing},
		})

		require.Error(t, err)
		require.Equal(t, []string{"first"}, compensated)
	})

	t.Run("compensation failure does not mask the step error", func(t *testing.T) {
		stepErr := errors.New("insert failed")

		err := runSaga(t.Context(), logger.NewNoOpLogger(), []step{
			{name: "first", run: noop, compensate: failing},
			{name: "second", run: func(ctx context.Context) error { return stepErr }},
		})

		require.ErrorIs(t, err, stepErr)
	})
}
