package entity

import (
	"time"

	"github.com/google/uuid"
)

// Session represents one user's working state for data transfer between layers.
type Session struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	HasCorpus bool      `json:"has_corpus"`
	// Tables lists stored table names in first-registration order.
	Tables []string `json:"tables"`
}
