package health_test

import (
	"context"
	"errors"
	"testing"

	"github.com/serroba/paste-go/internal/health"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChecker struct {
	err error
}

func (f *fakeChecker) Ping(_ context.Context) error {
	return f.err
}

func TestHealthCheck(t *testing.T) {
	t.Run("reports ok with no checks", func(t *testing.T) {
		handler := health.NewHandler()

		resp, err := handler.Check(context.Background(), nil)

		require.NoError(t, err)
		assert.Equal(t, "ok", resp.Body.Status)
		assert.Empty(t, resp.Body.Components)
	})

	t.Run("reports ok when all dependencies are healthy", func(t *testing.T) {
		handler := health.NewHandler(
			health.Check{Name: "redis", Checker: &fakeChecker{}},
			health.Check{Name: "postgres", Checker: &fakeChecker{}},
		)

		resp, err := handler.Check(context.Background(), nil)

		require.NoError(t, err)
		assert.Equal(t, "ok", resp.Body.Status)
		assert.Equal(t, "healthy", resp.Body.Components["redis"])
		assert.Equal(t, "healthy", resp.Body.Components["postgres"])
	})

	t.Run("reports degraded when a dependency fails", func(t *testing.T) {
		handler := health.NewHandler(
			health.Check{Name: "redis", Checker: &fakeChecker{err: errors.New("down")}},
			health.Check{Name: "postgres", Checker: &fakeChecker{}},
		)

		resp, err := handler.Check(context.Background(), nil)

		require.NoError(t, err)
		assert.Equal(t, "degraded", resp.Body.Status)
		assert.Equal(t, "unhealthy", resp.Body.Components["redis"])
		assert.Equal(t, "healthy", resp.Body.Components["postgres"])
	})
}
