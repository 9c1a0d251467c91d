package handlers

import "time"

// CreatePasteRequest is the request body for creating a paste.
type CreatePasteRequest struct {
	Body struct {
		Content    string `doc:"The paste content"                          example:"-----BEGIN SNIPPET-----"      json:"content"    maxLength:"1048576" minLength:"1"`
		TTLSeconds *int64 `doc:"Seconds until the paste expires"            example:"3600"                         json:"ttlSeconds,omitempty" minimum:"1"`
		MaxReads   *int64 `doc:"Number of reads before the paste is burned" example:"1"                            json:"maxReads,omitempty"   minimum:"1"`
	}
}

// CreatePasteResponse is the response for a successfully created paste.
type CreatePasteResponse struct {
	Headers struct {
		Location string `doc:"The paste location" header:"Location"`
	}
	Body struct {
		ID        string     `doc:"The paste id"                          example:"V1StGXR8_Z5j"                        json:"id"`
		URL       string     `doc:"The full paste URL"                    example:"http://localhost:8888/pastes/V1StGXR8_Z5j" json:"url"`
		ExpiresAt *time.Time `doc:"Expiry instant, absent when unbounded" json:"expiresAt,omitempty"`
		MaxReads  *int64     `doc:"Read budget, absent when unlimited"    json:"maxReads,omitempty"`
	}
}

// ReadPasteRequest is the request for reading a paste.
type ReadPasteRequest struct {
	ID string `doc:"The paste id" example:"V1StGXR8_Z5j" maxLength:"64" path:"id"`
}

// ReadPasteResponse is the response for a successfully consumed read.
type ReadPasteResponse struct {
	Body struct {
		Content        string `doc:"The paste content" json:"content"`
		RemainingReads *int64 `doc:"Reads left after this one, null when unlimited" json:"remainingReads"`
	}
}
