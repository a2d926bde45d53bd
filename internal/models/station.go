package models

import "time"

// Station is a monitoring station stored in the raw-record database
type Station struct {
	Name        string    `json:"name" db:"name"`
	RecordCount int       `json:"record_count" db:"record_count"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
