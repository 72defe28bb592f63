package models

import (
	"time"
)

// Tenant is an isolation boundary. Every document, chunk, conversation and
// vector point belongs to exactly one tenant.
type Tenant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
