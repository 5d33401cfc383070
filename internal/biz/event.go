package biz

import (
	"context"
	"time"
)

//go:generate mockgen -destination=mock/mock_biz.go -package=mock . EventPublisher,SponsorshipCache

// EventType names a sponsorship lifecycle event.
type EventType string

const (
	EventSponsorshipCreated EventType = "sponsorship.created"
	EventSponsorshipUpdated EventType = "sponsorship.updated"
	EventSponsorshipEnded   EventType = "sponsorship.ended"
	EventSponsorshipDeleted EventType = "sponsorship.deleted"
)

// SponsorshipEvent is published after the transaction that caused it commits.
type SponsorshipEvent struct {
	Type          EventType `json:"type"`
	SponsorshipID int64     `json:"sponsorshipId"`
	OrphanID      int64     `json:"orphanId"`
	SponsorID     int64     `json:"sponsorId"`
	Status        Status    `json:"status"`
	OccurredAt    time.Time `json:"occurredAt"`
}

// EventPublisher delivers sponsorship events to other services.
type EventPublisher interface {
	Publish(ctx context.Context, e *SponsorshipEvent) error
}
