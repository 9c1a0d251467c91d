package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/jaevor/go-nanoid"
	"github.com/serroba/paste-go/internal/analytics"
	"github.com/serroba/paste-go/internal/clock"
	"github.com/serroba/paste-go/internal/handlers"
	"github.com/serroba/paste-go/internal/messaging"
	"github.com/serroba/paste-go/internal/paste"
	"github.com/serroba/paste-go/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testBaseURL = "http://localhost:8888"

// noopPublish returns a publish function that always succeeds.
func noopPublish[T any]() messaging.Publish[T] {
	return func(_ *T) error { return nil }
}

// errorPublish returns a publish function that always fails.
func errorPublish[T any](err error) messaging.Publish[T] {
	return func(_ *T) error { return err }
}

func newTestEngine(repo paste.Repository) *paste.Engine {
	gen, _ := nanoid.Standard(12)

	return paste.NewEngine(repo, clock.NewSystem(), gen, zap.NewNop())
}

func newTestHandler(repo paste.Repository) *handlers.PasteHandler {
	return handlers.NewPasteHandler(
		newTestEngine(repo),
		testBaseURL,
		noopPublish[analytics.PasteCreatedEvent](),
		noopPublish[analytics.PasteReadEvent](),
		zap.NewNop(),
	)
}

func newTestHandlerWithPublishError(repo paste.Repository) *handlers.PasteHandler {
	return handlers.NewPasteHandler(
		newTestEngine(repo),
		testBaseURL,
		errorPublish[analytics.PasteCreatedEvent](errors.New("publish error")),
		errorPublish[analytics.PasteReadEvent](errors.New("publish error")),
		zap.NewNop(),
	)
}

func int64p(v int64) *int64 {
	return &v
}

func assertStatus(t *testing.T, err error, status int) {
	t.Helper()

	var statusErr huma.StatusError

	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, status, statusErr.GetStatus())
}

func TestCreatePaste(t *testing.T) {
	t.Run("creates paste successfully", func(t *testing.T) {
		handler := newTestHandler(store.NewMemoryStore())

		req := &handlers.CreatePasteRequest{}
		req.Body.Content = "hello world"

		resp, err := handler.CreatePaste(context.Background(), req)

		require.NoError(t, err)
		assert.NotEmpty(t, resp.Body.ID)
		assert.Contains(t, resp.Body.URL, resp.Body.ID)
		assert.Equal(t, resp.Body.URL, resp.Headers.Location)
		assert.Nil(t, resp.Body.ExpiresAt)
		assert.Nil(t, resp.Body.MaxReads)
	})

	t.Run("reports expiry and budget when bounded", func(t *testing.T) {
		handler := newTestHandler(store.NewMemoryStore())

		req := &handlers.CreatePasteRequest{}
		req.Body.Content = "bounded"
		req.Body.TTLSeconds = int64p(3600)
		req.Body.MaxReads = int64p(2)

		resp, err := handler.CreatePaste(context.Background(), req)

		require.NoError(t, err)
		assert.NotNil(t, resp.Body.ExpiresAt)
		require.NotNil(t, resp.Body.MaxReads)
		assert.Equal(t, int64(2), *resp.Body.MaxReads)
	})

	t.Run("returns 400 for invalid parameters", func(t *testing.T) {
		handler := newTestHandler(store.NewMemoryStore())

		req := &handlers.CreatePasteRequest{}
		req.Body.Content = "content"
		req.Body.TTLSeconds = int64p(-5)

		resp, err := handler.CreatePaste(context.Background(), req)

		assert.Nil(t, resp)
		assertStatus(t, err, http.StatusBadRequest)
	})

	t.Run("returns 500 when store fails", func(t *testing.T) {
		handler := newTestHandler(&mockRepo{insertErr: errMock})

		req := &handlers.CreatePasteRequest{}
		req.Body.Content = "content"

		resp, err := handler.CreatePaste(context.Background(), req)

		assert.Nil(t, resp)
		assertStatus(t, err, http.StatusInternalServerError)
	})

	t.Run("succeeds even when publish fails", func(t *testing.T) {
		handler := newTestHandlerWithPublishError(store.NewMemoryStore())

		req := &handlers.CreatePasteRequest{}
		req.Body.Content = "content"

		resp, err := handler.CreatePaste(context.Background(), req)

		// Publish errors are logged, not returned
		require.NoError(t, err)
		assert.NotEmpty(t, resp.Body.ID)
	})
}

func TestReadPaste(t *testing.T) {
	createPaste := func(t *testing.T, handler *handlers.PasteHandler, maxReads *int64) string {
		t.Helper()

		req := &handlers.CreatePasteRequest{}
		req.Body.Content = "the payload"
		req.Body.MaxReads = maxReads

		resp, err := handler.CreatePaste(context.Background(), req)
		require.NoError(t, err)

		return resp.Body.ID
	}

	t.Run("returns content and remaining reads", func(t *testing.T) {
		handler := newTestHandler(store.NewMemoryStore())
		id := createPaste(t, handler, int64p(3))

		resp, err := handler.ReadPaste(context.Background(), &handlers.ReadPasteRequest{ID: id})

		require.NoError(t, err)
		assert.Equal(t, "the payload", resp.Body.Content)
		require.NotNil(t, resp.Body.RemainingReads)
		assert.Equal(t, int64(2), *resp.Body.RemainingReads)
	})

	t.Run("remaining reads is null for unlimited pastes", func(t *testing.T) {
		handler := newTestHandler(store.NewMemoryStore())
		id := createPaste(t, handler, nil)

		resp, err := handler.ReadPaste(context.Background(), &handlers.ReadPasteRequest{ID: id})

		require.NoError(t, err)
		assert.Nil(t, resp.Body.RemainingReads)
	})

	t.Run("returns 404 once the budget is spent", func(t *testing.T) {
		handler := newTestHandler(store.NewMemoryStore())
		id := createPaste(t, handler, int64p(1))

		_, err := handler.ReadPaste(context.Background(), &handlers.ReadPasteRequest{ID: id})
		require.NoError(t, err)

		resp, err := handler.ReadPaste(context.Background(), &handlers.ReadPasteRequest{ID: id})

		assert.Nil(t, resp)
		assertStatus(t, err, http.StatusNotFound)
	})

	t.Run("returns 404 for an unknown id", func(t *testing.T) {
		handler := newTestHandler(store.NewMemoryStore())

		resp, err := handler.ReadPaste(context.Background(), &handlers.ReadPasteRequest{ID: "never-existed"})

		assert.Nil(t, resp)
		assertStatus(t, err, http.StatusNotFound)
	})

	t.Run("returns 404 for a malformed id", func(t *testing.T) {
		handler := newTestHandler(store.NewMemoryStore())

		resp, err := handler.ReadPaste(context.Background(), &handlers.ReadPasteRequest{ID: "not a valid id!"})

		assert.Nil(t, resp)
		assertStatus(t, err, http.StatusNotFound)
	})

	t.Run("returns 500 on store error", func(t *testing.T) {
		handler := newTestHandler(&mockRepo{getErr: errMock})

		resp, err := handler.ReadPaste(context.Background(), &handlers.ReadPasteRequest{ID: "abc123"})

		assert.Nil(t, resp)
		assertStatus(t, err, http.StatusInternalServerError)
	})

	t.Run("succeeds even when publish fails", func(t *testing.T) {
		memStore := store.NewMemoryStore()
		creator := newTestHandler(memStore)
		id := createPaste(t, creator, nil)

		handler := newTestHandlerWithPublishError(memStore)

		resp, err := handler.ReadPaste(context.Background(), &handlers.ReadPasteRequest{ID: id})

		// Publish errors are logged, not returned
		require.NoError(t, err)
		assert.Equal(t, "the payload", resp.Body.Content)
	})
}

func TestContextWithRequestMeta(t *testing.T) {
	t.Run("adds and retrieves request metadata from context", func(t *testing.T) {
		meta := handlers.RequestMeta{
			ClientIP:  "192.168.1.1",
			UserAgent: "TestAgent/1.0",
			Referrer:  "https://referrer.com",
		}
		ctx := handlers.ContextWithRequestMeta(context.Background(), meta)

		retrieved := handlers.RequestMetaFromContext(ctx)
		assert.Equal(t, meta, retrieved)
	})

	t.Run("missing metadata yields zero value", func(t *testing.T) {
		retrieved := handlers.RequestMetaFromContext(context.Background())

		assert.Equal(t, handlers.RequestMeta{}, retrieved)
	})
}
