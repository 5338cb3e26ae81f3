package models

import (
	"time"
)

// Model is a persisted row with a stable id and a per-table sequence number.
type Model interface {
	ID() string
	Sequence() int
	CreatedAt() time.Time
	UpdatedAt() time.Time
	Validate() error
}

// Lister reads models matching criteria, newest first.
//
// Criteria keys are column names; empty string values are ignored and "limit" caps the result.
type Lister[T Model] interface {
	List(criteria map[string]any) ([]T, error)
}

// Repository is CRUD over one model type. Delete is soft: deleted rows drop out of Get and List.
type Repository[T Model] interface {
	Lister[T]
	Create(model T) error
	Get(id string) (T, error)
	Update(model T) error
	Delete(id string) error
}
