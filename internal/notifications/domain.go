// Package notifications stores the in-app alerts raised by the sale
// workflow and the read/unread state driven by the UI.
package notifications

import "time"

// Notification is one alert row.
type Notification struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Link      string    `json:"link"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// RetentionAge is how long read notifications stick around. The purge
// piggybacks on mark-as-read calls and also runs from the background worker.
const RetentionAge = 30 * 24 * time.Hour
