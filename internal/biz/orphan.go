package biz

import "context"

// Orphan is the part of an orphan record the sponsorship workflow reads and writes.
//
// IsAvailableForSponsorship is false exactly when CurrentSponsorshipID points
// at an active or paused Sponsorship.
type Orphan struct {
	ID                        int64  `json:"id"`
	Name                      string `json:"name"`
	OrphanageID               int64  `json:"orphanageId"`
	IsAvailableForSponsorship bool   `json:"isAvailableForSponsorship"`
	CurrentSponsorshipID      *int64 `json:"currentSponsorshipId"`
}

// Claimed returns a copy of o held by the given sponsorship.
func (o Orphan) Claimed(sponsorshipID int64) *Orphan {
	o.IsAvailableForSponsorship = false
	o.CurrentSponsorshipID = &sponsorshipID
	return &o
}

// Released returns a copy of o open for a new sponsor.
func (o Orphan) Released() *Orphan {
	o.IsAvailableForSponsorship = true
	o.CurrentSponsorshipID = nil
	return &o
}

// HeldBy reports whether sponsorshipID currently holds the orphan.
func (o *Orphan) HeldBy(sponsorshipID int64) bool {
	return o.CurrentSponsorshipID != nil && *o.CurrentSponsorshipID == sponsorshipID
}

// OrphanRepo is the data access for orphans.
type OrphanRepo interface {
	Save(ctx context.Context, o *Orphan) (*Orphan, error)
	FindByID(ctx context.Context, id int64) (*Orphan, error)
	// FindByIDForUpdate reads the orphan and holds a row lock on it until the
	// surrounding transaction ends. Returns ErrOrphanNotFound when absent.
	FindByIDForUpdate(ctx context.Context, id int64) (*Orphan, error)
	// Update writes the availability fields of o.
	Update(ctx context.Context, o *Orphan) (*Orphan, error)
}
