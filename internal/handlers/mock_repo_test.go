package handlers_test

import (
	"context"
	"errors"

	"github.com/serroba/paste-go/internal/paste"
)

var errMock = errors.New("mock error")

// mockRepo is a test double for paste.Repository that can be configured to
// return errors.
type mockRepo struct {
	insertErr  error
	getErr     error
	consumeErr error
}

func (m *mockRepo) Insert(_ context.Context, _ *paste.Paste) error {
	return m.insertErr
}

func (m *mockRepo) Get(_ context.Context, _ paste.ID) (*paste.Paste, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}

	return &paste.Paste{ID: "abc123", Content: "content"}, nil
}

func (m *mockRepo) ConsumeRead(_ context.Context, _ paste.ID) (*paste.Paste, error) {
	if m.consumeErr != nil {
		return nil, m.consumeErr
	}

	return &paste.Paste{ID: "abc123", Content: "content", ReadsConsumed: 1}, nil
}
