// Package biztest provides an in-memory store implementing the biz
// repositories and Transaction, for tests of code built on biz.
package biztest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/orphancare/charity-service/internal/biz"
	"github.com/orphancare/charity-service/pkg/txretry"
)

// Store keeps orphans and sponsorships in maps. A transaction holds the
// store lock for its whole life, which orders transactions on one orphan the
// way row locks would. A failed attempt is rolled back.
//
// Repository methods expect to run inside InTx, except for reads made by a
// single goroutine.
type Store struct {
	mu           sync.Mutex
	orphans      map[int64]biz.Orphan
	sponsorships map[int64]biz.Sponsorship
	nextID       int64

	attempts int
	delays   []time.Duration
	// createErrs are returned, in order, by the next sponsorship creates.
	createErrs []error
}

var _ biz.Transaction = (*Store)(nil)

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		orphans:      map[int64]biz.Orphan{},
		sponsorships: map[int64]biz.Sponsorship{},
	}
}

// InTx runs fn under the retry policy of the options. Backoff waits are
// recorded instead of slept.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context) error, opts ...biz.TxOption) error {
	o := biz.NewTxOptions(biz.DefaultTxOptions(), opts...)
	return o.Retry.Do(ctx, func(ctx context.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.attempts++

		orphans := make(map[int64]biz.Orphan, len(s.orphans))
		for k, v := range s.orphans {
			orphans[k] = v
		}
		sponsorships := make(map[int64]biz.Sponsorship, len(s.sponsorships))
		for k, v := range s.sponsorships {
			sponsorships[k] = v
		}
		nextID := s.nextID

		if err := fn(ctx); err != nil {
			s.orphans, s.sponsorships, s.nextID = orphans, sponsorships, nextID
			return err
		}
		return nil
	}, txretry.NoWait(), txretry.OnRetry(func(_ int, d time.Duration, _ error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.delays = append(s.delays, d)
	}))
}

// Orphans returns the orphan repository view of the store.
func (s *Store) Orphans() biz.OrphanRepo { return orphanRepo{s} }

// Sponsorships returns the sponsorship repository view of the store.
func (s *Store) Sponsorships() biz.SponsorshipRepo { return sponsorshipRepo{s} }

// FailCreates makes the next sponsorship creates fail with errs, in order.
func (s *Store) FailCreates(errs ...error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createErrs = append(s.createErrs, errs...)
}

// AddOrphan stores an available orphan and returns its id.
func (s *Store) AddOrphan(name string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.orphans[s.nextID] = biz.Orphan{ID: s.nextID, Name: name, OrphanageID: 1, IsAvailableForSponsorship: true}
	return s.nextID
}

// Orphan returns a copy of the stored orphan.
func (s *Store) Orphan(id int64) (biz.Orphan, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orphans[id]
	return o, ok
}

// Sponsorship returns a copy of the stored sponsorship.
func (s *Store) Sponsorship(id int64) (biz.Sponsorship, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sp, ok := s.sponsorships[id]
	return sp, ok
}

// SponsorshipCount returns the number of stored sponsorships.
func (s *Store) SponsorshipCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sponsorships)
}

// Attempts returns the number of transaction attempts so far.
func (s *Store) Attempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts
}

// Delays returns the recorded backoff waits.
func (s *Store) Delays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

type orphanRepo struct{ *Store }

func (r orphanRepo) Save(_ context.Context, o *biz.Orphan) (*biz.Orphan, error) {
	r.nextID++
	c := *o
	c.ID = r.nextID
	r.orphans[c.ID] = c
	return &c, nil
}

func (r orphanRepo) FindByID(_ context.Context, id int64) (*biz.Orphan, error) {
	o, ok := r.orphans[id]
	if !ok {
		return nil, biz.ErrOrphanNotFound
	}
	return &o, nil
}

func (r orphanRepo) FindByIDForUpdate(ctx context.Context, id int64) (*biz.Orphan, error) {
	return r.FindByID(ctx, id)
}

func (r orphanRepo) Update(_ context.Context, o *biz.Orphan) (*biz.Orphan, error) {
	if _, ok := r.orphans[o.ID]; !ok {
		return nil, biz.ErrOrphanNotFound
	}
	c := *o
	r.orphans[c.ID] = c
	return &c, nil
}

type sponsorshipRepo struct{ *Store }

func (r sponsorshipRepo) Create(_ context.Context, s *biz.Sponsorship) (*biz.Sponsorship, error) {
	if len(r.createErrs) > 0 {
		err := r.createErrs[0]
		r.createErrs = r.createErrs[1:]
		return nil, err
	}
	r.nextID++
	c := *s
	c.ID = r.nextID
	c.Orphan = nil
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	r.sponsorships[c.ID] = c
	return &c, nil
}

func (r sponsorshipRepo) FindByID(_ context.Context, id int64) (*biz.Sponsorship, error) {
	s, ok := r.sponsorships[id]
	if !ok {
		return nil, biz.ErrSponsorshipNotFound
	}
	return r.withOrphan(s), nil
}

func (r sponsorshipRepo) FindByIDForUpdate(ctx context.Context, id int64) (*biz.Sponsorship, error) {
	return r.FindByID(ctx, id)
}

func (r sponsorshipRepo) FindOneForUpdate(_ context.Context, id, sponsorID int64) (*biz.Sponsorship, error) {
	s, ok := r.sponsorships[id]
	if !ok || s.SponsorID != sponsorID {
		return nil, biz.ErrSponsorshipNotOwned
	}
	return r.withOrphan(s), nil
}

func (r sponsorshipRepo) withOrphan(s biz.Sponsorship) *biz.Sponsorship {
	if o, ok := r.orphans[s.OrphanID]; ok {
		s.Orphan = &o
	}
	return &s
}

func (r sponsorshipRepo) Update(_ context.Context, s *biz.Sponsorship) (*biz.Sponsorship, error) {
	if _, ok := r.sponsorships[s.ID]; !ok {
		return nil, biz.ErrSponsorshipNotFound
	}
	c := *s
	c.Orphan = nil
	c.UpdatedAt = time.Now()
	r.sponsorships[c.ID] = c
	out := c
	out.Orphan = s.Orphan
	return &out, nil
}

func (r sponsorshipRepo) Delete(_ context.Context, id int64) error {
	delete(r.sponsorships, id)
	return nil
}

func (r sponsorshipRepo) active() []*biz.Sponsorship {
	var rows []*biz.Sponsorship
	for _, s := range r.sponsorships {
		if s.Status == biz.StatusActive {
			rows = append(rows, r.withOrphan(s))
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID > rows[j].ID })
	return rows
}

func (r sponsorshipRepo) ListActive(_ context.Context, offset, limit int) ([]*biz.Sponsorship, int64, error) {
	rows := r.active()
	total := int64(len(rows))
	if offset >= len(rows) {
		return nil, total, nil
	}
	end := min(offset+limit, len(rows))
	return rows[offset:end], total, nil
}

func (r sponsorshipRepo) CountActive(context.Context) (int64, error) {
	return int64(len(r.active())), nil
}
