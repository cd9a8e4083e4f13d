package repository

import (
	"context"

	"flightsurety-ledger/internal/domain/entity"
)

// EventRepository defines the interface for the notification log
type EventRepository interface {
	Append(ctx context.Context, events []entity.Event) error
	// ListRecent returns up to limit events, newest first
	ListRecent(ctx context.Context, limit int) ([]entity.Event, error)
}
