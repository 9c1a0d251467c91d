package analytics

import "time"

// Topics for paste analytics events.
const (
	TopicPasteCreated = "paste.created"
	TopicPasteRead    = "paste.read"
)

// PasteCreatedEvent is emitted when a paste is created. It carries sizing
// and bound metadata only; paste content never enters the event stream.
type PasteCreatedEvent struct {
	PasteID      string    `json:"pasteId"`
	ContentBytes int       `json:"contentBytes"`
	TTLSeconds   *int64    `json:"ttlSeconds,omitempty"`
	MaxReads     *int64    `json:"maxReads,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	ClientIP     string    `json:"clientIp"`
	UserAgent    string    `json:"userAgent"`
}

// PasteReadEvent is emitted for each successfully consumed read.
type PasteReadEvent struct {
	PasteID        string    `json:"pasteId"`
	RemainingReads *int64    `json:"remainingReads,omitempty"`
	ReadAt         time.Time `json:"readAt"`
	ClientIP       string    `json:"clientIp"`
	UserAgent      string    `json:"userAgent"`
	Referrer       string    `json:"referrer,omitempty"`
}
