package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/paste-go/internal/analytics"
	"github.com/serroba/paste-go/internal/messaging"
	"github.com/serroba/paste-go/internal/paste"
	"go.uber.org/zap"
)

// unavailableMessage is served for absent, expired, and exhausted pastes
// alike, so a response never reveals whether an id ever existed.
const unavailableMessage = "paste not available"

// PasteHandler handles paste operations.
type PasteHandler struct {
	engine         *paste.Engine
	baseURL        string
	publishCreated messaging.Publish[analytics.PasteCreatedEvent]
	publishRead    messaging.Publish[analytics.PasteReadEvent]
	logger         *zap.Logger
}

// NewPasteHandler creates a new paste handler.
func NewPasteHandler(
	engine *paste.Engine,
	baseURL string,
	publishCreated messaging.Publish[analytics.PasteCreatedEvent],
	publishRead messaging.Publish[analytics.PasteReadEvent],
	logger *zap.Logger,
) *PasteHandler {
	return &PasteHandler{
		engine:         engine,
		baseURL:        baseURL,
		publishCreated: publishCreated,
		publishRead:    publishRead,
		logger:         logger,
	}
}

func (h *PasteHandler) CreatePaste(ctx context.Context, req *CreatePasteRequest) (*CreatePasteResponse, error) {
	created, err := h.engine.Create(ctx, req.Body.Content, req.Body.TTLSeconds, req.Body.MaxReads)
	if err != nil {
		if errors.Is(err, paste.ErrInvalidInput) {
			return nil, huma.Error400BadRequest(err.Error())
		}

		h.logger.Error("failed to create paste", zap.Error(err))

		return nil, huma.Error500InternalServerError("failed to create paste")
	}

	meta := RequestMetaFromContext(ctx)
	event := &analytics.PasteCreatedEvent{
		PasteID:      string(created.ID),
		ContentBytes: len(created.Content),
		TTLSeconds:   req.Body.TTLSeconds,
		MaxReads:     created.MaxReads,
		CreatedAt:    created.CreatedAt,
		ClientIP:     meta.ClientIP,
		UserAgent:    meta.UserAgent,
	}

	if err := h.publishCreated(event); err != nil {
		h.logger.Error("failed to publish paste created event",
			zap.String("pasteId", event.PasteID),
			zap.Error(err),
		)
	}

	pasteURL := fmt.Sprintf("%s/pastes/%s", h.baseURL, created.ID)

	resp := &CreatePasteResponse{}
	resp.Headers.Location = pasteURL
	resp.Body.ID = string(created.ID)
	resp.Body.URL = pasteURL
	resp.Body.ExpiresAt = created.ExpiresAt
	resp.Body.MaxReads = created.MaxReads

	return resp, nil
}

func (h *PasteHandler) ReadPaste(ctx context.Context, req *ReadPasteRequest) (*ReadPasteResponse, error) {
	result, err := h.engine.ConsumeAndRead(ctx, paste.ID(req.ID))
	if err != nil {
		if errors.Is(err, paste.ErrUnavailable) {
			return nil, huma.Error404NotFound(unavailableMessage)
		}

		h.logger.Error("failed to read paste",
			zap.String("pasteId", req.ID),
			zap.Error(err),
		)

		return nil, huma.Error500InternalServerError("failed to read paste")
	}

	meta := RequestMetaFromContext(ctx)
	event := &analytics.PasteReadEvent{
		PasteID:        req.ID,
		RemainingReads: result.RemainingReads,
		ReadAt:         time.Now().UTC(),
		ClientIP:       meta.ClientIP,
		UserAgent:      meta.UserAgent,
		Referrer:       meta.Referrer,
	}

	if err := h.publishRead(event); err != nil {
		h.logger.Error("failed to publish paste read event",
			zap.String("pasteId", event.PasteID),
			zap.Error(err),
		)
	}

	resp := &ReadPasteResponse{}
	resp.Body.Content = result.Content
	resp.Body.RemainingReads = result.RemainingReads

	return resp, nil
}
