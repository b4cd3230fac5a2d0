package model

import "time"

// Record is the header shared by every persisted entity.
type Record struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewRecord(id string, now time.Time) Record {
	return Record{ID: id, CreatedAt: now, UpdatedAt: now}
}
