package biz

import (
	"context"
	"time"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/orphancare/charity-service/internal/metrics"
	"github.com/orphancare/charity-service/pkg/pagination"
)

// Frequency is how often a sponsor pays.
type Frequency string

const (
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
	FrequencyOneTime   Frequency = "one-time"
)

// Valid reports whether f is one of the known frequencies.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyMonthly, FrequencyQuarterly, FrequencyYearly, FrequencyOneTime:
		return true
	}
	return false
}

// Status is the lifecycle state of a sponsorship.
type Status string

const (
	StatusActive Status = "active"
	StatusPaused Status = "paused"
	StatusEnded  Status = "ended"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusPaused, StatusEnded:
		return true
	}
	return false
}

// Sponsorship is a recurring or one-time commitment of a sponsor to an orphan.
type Sponsorship struct {
	ID              int64      `json:"id"`
	SponsorID       int64      `json:"sponsorId"`
	OrphanID        int64      `json:"orphanId"`
	StartDate       time.Time  `json:"startDate"`
	NextPaymentDate *time.Time `json:"nextPaymentDate"`
	EndDate         *time.Time `json:"endDate"`
	Amount          float64    `json:"amount"`
	Frequency       Frequency  `json:"frequency"`
	Status          Status     `json:"status"`
	Notes           string     `json:"notes"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
	Orphan          *Orphan    `json:"orphan,omitempty"`
}

// NextPaymentDate derives the first payment due date from the start date.
// One-time sponsorships have none.
func NextPaymentDate(start time.Time, f Frequency) (*time.Time, error) {
	var next time.Time
	switch f {
	case FrequencyMonthly:
		next = start.AddDate(0, 1, 0)
	case FrequencyQuarterly:
		next = start.AddDate(0, 3, 0)
	case FrequencyYearly:
		next = start.AddDate(1, 0, 0)
	case FrequencyOneTime:
		return nil, nil
	default:
		return nil, ValidationError("invalid frequency %q", f)
	}
	return &next, nil
}

// SponsorshipRepo is the data access for sponsorships.
type SponsorshipRepo interface {
	Create(ctx context.Context, s *Sponsorship) (*Sponsorship, error)
	// FindByID returns ErrSponsorshipNotFound when absent.
	FindByID(ctx context.Context, id int64) (*Sponsorship, error)
	// FindByIDForUpdate locks the sponsorship and its orphan.
	// Returns ErrSponsorshipNotFound when absent.
	FindByIDForUpdate(ctx context.Context, id int64) (*Sponsorship, error)
	// FindOneForUpdate locks the sponsorship owned by sponsorID and its orphan.
	// Returns ErrSponsorshipNotOwned when no row matches both keys.
	FindOneForUpdate(ctx context.Context, id, sponsorID int64) (*Sponsorship, error)
	Update(ctx context.Context, s *Sponsorship) (*Sponsorship, error)
	Delete(ctx context.Context, id int64) error
	// ListActive returns active sponsorships, newest first, and the total count.
	ListActive(ctx context.Context, offset, limit int) ([]*Sponsorship, int64, error)
	CountActive(ctx context.Context) (int64, error)
}

// SponsorshipCache is a read cache in front of SponsorshipRepo.FindByID.
//
// Every Evict starts a new generation of the entry. Set only stores a value
// while the generation returned by the preceding Get is still current, so a
// read that loaded a row before a concurrent write cannot cache it after
// the write's eviction.
type SponsorshipCache interface {
	// Get returns a nil sponsorship on a miss. gen is reported either way.
	Get(ctx context.Context, id int64) (s *Sponsorship, gen int64, err error)
	Set(ctx context.Context, s *Sponsorship, gen int64) error
	Evict(ctx context.Context, id int64) error
}

// CreateSponsorshipRequest is the input of SponsorshipUsecase.Create.
type CreateSponsorshipRequest struct {
	OrphanID  int64
	SponsorID int64
	Frequency Frequency
	Amount    float64
	Notes     string
}

// CreateSponsorshipResult is the output of SponsorshipUsecase.Create.
type CreateSponsorshipResult struct {
	Sponsorship *Sponsorship
	OrphanName  string
}

// UpdateSponsorshipRequest is the input of SponsorshipUsecase.Update.
// Nil fields are left untouched.
type UpdateSponsorshipRequest struct {
	SponsorshipID int64
	RequesterID   int64
	Status        *Status
	Amount        *float64
	Frequency     *Frequency
	EndDate       *time.Time
	Notes         *string
}

func (r *UpdateSponsorshipRequest) validate() error {
	if r.SponsorshipID == 0 {
		return ValidationError("sponsorship ID is required")
	}
	if r.Status != nil && !r.Status.Valid() {
		return ValidationError("invalid status %q", *r.Status)
	}
	if r.Frequency != nil && !r.Frequency.Valid() {
		return ValidationError("invalid frequency %q", *r.Frequency)
	}
	if r.Amount != nil && *r.Amount <= 0 {
		return ValidationError("amount must be greater than zero")
	}
	return nil
}

func (r *UpdateSponsorshipRequest) ends() bool {
	return r.Status != nil && *r.Status == StatusEnded
}

// SponsorshipUsecase keeps a sponsorship and the availability of its orphan
// in step. Both are always written in the same transaction.
type SponsorshipUsecase struct {
	orphans      OrphanRepo
	sponsorships SponsorshipRepo
	tx           Transaction
	cache        SponsorshipCache
	events       EventPublisher
	metrics      *metrics.Metrics
	log          *log.Helper
	now          func() time.Time
}

// NewSponsorshipUsecase creates a new sponsorship usecase.
func NewSponsorshipUsecase(
	orphans OrphanRepo,
	sponsorships SponsorshipRepo,
	tx Transaction,
	cache SponsorshipCache,
	events EventPublisher,
	m *metrics.Metrics,
	logger log.Logger,
) *SponsorshipUsecase {
	return &SponsorshipUsecase{
		orphans:      orphans,
		sponsorships: sponsorships,
		tx:           tx,
		cache:        cache,
		events:       events,
		metrics:      m,
		log:          log.NewHelper(log.With(logger, "module", "biz/sponsorship")),
		now:          time.Now,
	}
}

// Create claims an orphan for a new active sponsorship.
//
// The orphan row is locked first, so concurrent claims on the same orphan
// run one after the other and all but the first see it unavailable.
func (uc *SponsorshipUsecase) Create(ctx context.Context, req *CreateSponsorshipRequest) (*CreateSponsorshipResult, error) {
	if req.OrphanID == 0 || req.Frequency == "" {
		return nil, ValidationError("missing required fields: orphanId and frequency")
	}
	if !req.Frequency.Valid() {
		return nil, ValidationError("invalid frequency %q", req.Frequency)
	}
	if req.Amount <= 0 {
		return nil, ValidationError("amount must be greater than zero")
	}

	var result *CreateSponsorshipResult
	err := uc.tx.InTx(ctx, func(ctx context.Context) error {
		orphan, err := uc.orphans.FindByIDForUpdate(ctx, req.OrphanID)
		if err != nil {
			return err
		}
		if !orphan.IsAvailableForSponsorship {
			return ErrOrphanNotAvailable
		}

		start := uc.now()
		next, err := NextPaymentDate(start, req.Frequency)
		if err != nil {
			return err
		}

		s, err := uc.sponsorships.Create(ctx, &Sponsorship{
			SponsorID:       req.SponsorID,
			OrphanID:        orphan.ID,
			StartDate:       start,
			NextPaymentDate: next,
			Amount:          req.Amount,
			Frequency:       req.Frequency,
			Status:          StatusActive,
			Notes:           req.Notes,
		})
		if err != nil {
			return err
		}

		if _, err := uc.orphans.Update(ctx, orphan.Claimed(s.ID)); err != nil {
			return err
		}

		result = &CreateSponsorshipResult{Sponsorship: s, OrphanName: orphan.Name}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.metrics.SponsorshipCreated()
	uc.publish(ctx, EventSponsorshipCreated, result.Sponsorship)
	uc.log.WithContext(ctx).Infof("sponsorship %d created, sponsor=%d orphan=%d",
		result.Sponsorship.ID, req.SponsorID, req.OrphanID)
	return result, nil
}

// Update changes a sponsorship owned by the requester. Ending it releases
// the orphan for a new sponsor.
func (uc *SponsorshipUsecase) Update(ctx context.Context, req *UpdateSponsorshipRequest) (*Sponsorship, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	var (
		updated *Sponsorship
		ending  bool
	)
	err := uc.tx.InTx(ctx, func(ctx context.Context) error {
		s, err := uc.sponsorships.FindOneForUpdate(ctx, req.SponsorshipID, req.RequesterID)
		if err != nil {
			return err
		}
		if s.Status == StatusEnded && req.Status != nil && *req.Status != StatusEnded {
			return ErrSponsorshipEnded
		}
		// Ending an already ended sponsorship is a plain update.
		ending = req.ends() && s.Status != StatusEnded

		next := *s
		if req.Status != nil {
			next.Status = *req.Status
		}
		if req.Amount != nil {
			next.Amount = *req.Amount
		}
		if req.Frequency != nil {
			next.Frequency = *req.Frequency
		}
		if req.Notes != nil {
			next.Notes = *req.Notes
		}
		if req.EndDate != nil {
			next.EndDate = req.EndDate
		}

		if ending {
			if next.EndDate == nil {
				now := uc.now()
				next.EndDate = &now
			}
			if s.Orphan != nil && s.Orphan.HeldBy(s.ID) {
				released, err := uc.orphans.Update(ctx, s.Orphan.Released())
				if err != nil {
					return err
				}
				next.Orphan = released
			}
		}

		updated, err = uc.sponsorships.Update(ctx, &next)
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.evict(ctx, updated.ID)
	if ending {
		uc.metrics.SponsorshipEnded()
		uc.publish(ctx, EventSponsorshipEnded, updated)
	} else {
		uc.publish(ctx, EventSponsorshipUpdated, updated)
	}
	return updated, nil
}

// Get returns a sponsorship by id, served from the cache when possible.
func (uc *SponsorshipUsecase) Get(ctx context.Context, id int64) (*Sponsorship, error) {
	cached, gen, err := uc.cache.Get(ctx, id)
	if err != nil {
		uc.log.WithContext(ctx).Warnf("read sponsorship %d from cache: %v", id, err)
	} else if cached != nil {
		return cached, nil
	}

	s, err := uc.sponsorships.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := uc.cache.Set(ctx, s, gen); err != nil {
		uc.log.WithContext(ctx).Warnf("cache sponsorship %d: %v", id, err)
	}
	return s, nil
}

// Delete removes a sponsorship owned by the requester and releases its orphan
// if the sponsorship still holds it.
func (uc *SponsorshipUsecase) Delete(ctx context.Context, id, requesterID int64) error {
	var deleted *Sponsorship
	err := uc.tx.InTx(ctx, func(ctx context.Context) error {
		s, err := uc.sponsorships.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if s.SponsorID != requesterID {
			return ErrSponsorshipForbidden
		}
		if s.Orphan != nil && s.Orphan.HeldBy(s.ID) {
			if _, err := uc.orphans.Update(ctx, s.Orphan.Released()); err != nil {
				return err
			}
		}
		if err := uc.sponsorships.Delete(ctx, s.ID); err != nil {
			return err
		}
		deleted = s
		return nil
	})
	if err != nil {
		return err
	}

	uc.evict(ctx, id)
	uc.publish(ctx, EventSponsorshipDeleted, deleted)
	return nil
}

// ListActive returns one page of active sponsorships.
func (uc *SponsorshipUsecase) ListActive(ctx context.Context, page, limit int) (*pagination.Page[*Sponsorship], error) {
	p := pagination.NewParams(page, limit)
	rows, total, err := uc.sponsorships.ListActive(ctx, p.Offset, p.Limit)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrSponsorshipsNotFound
	}
	return pagination.NewPage(rows, total, p), nil
}

// CountActive returns the number of active sponsorships.
func (uc *SponsorshipUsecase) CountActive(ctx context.Context) (int64, error) {
	return uc.sponsorships.CountActive(ctx)
}

func (uc *SponsorshipUsecase) evict(ctx context.Context, id int64) {
	if err := uc.cache.Evict(ctx, id); err != nil {
		uc.log.WithContext(ctx).Warnf("evict sponsorship %d from cache: %v", id, err)
	}
}

// publish runs after commit; a lost event never fails the request.
func (uc *SponsorshipUsecase) publish(ctx context.Context, t EventType, s *Sponsorship) {
	e := &SponsorshipEvent{
		Type:          t,
		SponsorshipID: s.ID,
		OrphanID:      s.OrphanID,
		SponsorID:     s.SponsorID,
		Status:        s.Status,
		OccurredAt:    uc.now(),
	}
	if err := uc.events.Publish(ctx, e); err != nil {
		uc.log.WithContext(ctx).Errorf("publish %s for sponsorship %d: %v", t, s.ID, err)
	}
}
