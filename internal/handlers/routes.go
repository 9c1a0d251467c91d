package handlers

import (
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/paste-go/internal/ratelimit"
)

// RegisterRoutes registers all paste routes with per-endpoint rate limit configuration.
func RegisterRoutes(api huma.API, pasteHandler *PasteHandler) {
	// POST /pastes - Create paste
	// Uses stricter rate limits for write operations
	huma.Register(api, huma.Operation{
		Method:      http.MethodPost,
		Path:        "/pastes",
		Summary:     "Create paste",
		Description: "Stores a paste with an optional time-to-live and an optional read budget.",
		Tags:        []string{"Pastes"},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{
				Limits: []ratelimit.LimitConfig{
					{Window: time.Minute, Max: 20},      // 20 per minute
					{Window: time.Hour, Max: 200},       // 200 per hour
					{Window: 24 * time.Hour, Max: 1000}, // 1000 per day
				},
			},
		},
	}, pasteHandler.CreatePaste)

	// GET /pastes/{id} - Consume one read
	// Uses relaxed rate limits for read operations
	huma.Register(api, huma.Operation{
		Method:      http.MethodGet,
		Path:        "/pastes/{id}",
		Summary:     "Read paste",
		Description: "Returns the paste content, consuming one read from its budget. " +
			"Expired, exhausted, and unknown pastes all answer 404.",
		Tags: []string{"Pastes"},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{
				Limits: []ratelimit.LimitConfig{
					{Window: time.Minute, Max: 600}, // 600 per minute
				},
			},
		},
	}, pasteHandler.ReadPaste)
}
