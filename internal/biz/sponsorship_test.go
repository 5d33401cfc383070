package biz_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/orphancare/charity-service/internal/biz"
	"github.com/orphancare/charity-service/internal/biz/biztest"
	"github.com/orphancare/charity-service/internal/biz/mock"
	"github.com/orphancare/charity-service/internal/metrics"
	"github.com/orphancare/charity-service/pkg/txretry"
)

type fixture struct {
	store  *biztest.Store
	uc     *biz.SponsorshipUsecase
	cache  *mock.MockSponsorshipCache
	events *mock.MockEventPublisher
	m      *metrics.Metrics
}

func newFixture(t *testing.T) *fixture {
	ctrl := gomock.NewController(t)
	store := biztest.NewStore()
	cache := mock.NewMockSponsorshipCache(ctrl)
	events := mock.NewMockEventPublisher(ctrl)
	m := metrics.New(prometheus.NewRegistry())

	return &fixture{
		store:  store,
		cache:  cache,
		events: events,
		m:      m,
		uc:     biz.NewSponsorshipUsecase(store.Orphans(), store.Sponsorships(), store, cache, events, m, log.DefaultLogger),
	}
}

// quiet accepts any cache and event traffic.
func (f *fixture) quiet() *fixture {
	f.cache.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, int64(0), nil).AnyTimes()
	f.cache.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.cache.EXPECT().Evict(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.events.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	return f
}

func (f *fixture) addOrphan(_ *testing.T, name string) int64 {
	return f.store.AddOrphan(name)
}

func (f *fixture) orphan(t *testing.T, id int64) biz.Orphan {
	t.Helper()
	o, ok := f.store.Orphan(id)
	require.True(t, ok, "orphan %d missing", id)
	return o
}

func (f *fixture) sponsorship(t *testing.T, id int64) biz.Sponsorship {
	t.Helper()
	s, ok := f.store.Sponsorship(id)
	require.True(t, ok, "sponsorship %d missing", id)
	return s
}

func (f *fixture) create(sponsorID, orphanID int64) (*biz.CreateSponsorshipResult, error) {
	return f.uc.Create(context.Background(), &biz.CreateSponsorshipRequest{
		OrphanID:  orphanID,
		SponsorID: sponsorID,
		Frequency: biz.FrequencyMonthly,
		Amount:    50,
	})
}

func ptr[T any](v T) *T { return &v }

func TestNextPaymentDate(t *testing.T) {
	start := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		frequency biz.Frequency
		expected  *time.Time
	}{
		{biz.FrequencyMonthly, ptr(time.Date(2024, 2, 15, 10, 30, 0, 0, time.UTC))},
		{biz.FrequencyQuarterly, ptr(time.Date(2024, 4, 15, 10, 30, 0, 0, time.UTC))},
		{biz.FrequencyYearly, ptr(time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC))},
		{biz.FrequencyOneTime, nil},
	}

	for _, tt := range tests {
		t.Run(string(tt.frequency), func(t *testing.T) {
			next, err := biz.NextPaymentDate(start, tt.frequency)
			require.NoError(t, err)
			require.Equal(t, tt.expected, next)
		})
	}
}

func TestNextPaymentDate_InvalidFrequency(t *testing.T) {
	_, err := biz.NextPaymentDate(time.Now(), "weekly")
	require.True(t, biz.IsValidation(err))
}

func TestSponsorshipUsecase_Create(t *testing.T) {
	f := newFixture(t).quiet()
	orphanID := f.addOrphan(t, "Amina")

	res, err := f.create(7, orphanID)
	require.NoError(t, err)

	s := res.Sponsorship
	assert.Equal(t, "Amina", res.OrphanName)
	assert.Equal(t, biz.StatusActive, s.Status)
	assert.Equal(t, int64(7), s.SponsorID)
	assert.Equal(t, orphanID, s.OrphanID)
	assert.Equal(t, 50.0, s.Amount)
	require.NotNil(t, s.NextPaymentDate)
	assert.Equal(t, s.StartDate.AddDate(0, 1, 0), *s.NextPaymentDate)
	assert.Nil(t, s.EndDate)

	o := f.orphan(t, orphanID)
	assert.False(t, o.IsAvailableForSponsorship)
	require.NotNil(t, o.CurrentSponsorshipID)
	assert.Equal(t, s.ID, *o.CurrentSponsorshipID)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.m.SponsorshipsCreated))
}

func TestSponsorshipUsecase_Create_OneTime(t *testing.T) {
	f := newFixture(t).quiet()
	orphanID := f.addOrphan(t, "Omar")

	res, err := f.uc.Create(context.Background(), &biz.CreateSponsorshipRequest{
		OrphanID:  orphanID,
		SponsorID: 1,
		Frequency: biz.FrequencyOneTime,
		Amount:    300,
		Notes:     "school fees",
	})
	require.NoError(t, err)
	assert.Nil(t, res.Sponsorship.NextPaymentDate)
	assert.Equal(t, "school fees", res.Sponsorship.Notes)
}

func TestSponsorshipUsecase_Create_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  *biz.CreateSponsorshipRequest
	}{
		{"missing orphan", &biz.CreateSponsorshipRequest{Frequency: biz.FrequencyMonthly, Amount: 10}},
		{"missing frequency", &biz.CreateSponsorshipRequest{OrphanID: 1, Amount: 10}},
		{"invalid frequency", &biz.CreateSponsorshipRequest{OrphanID: 1, Frequency: "weekly", Amount: 10}},
		{"zero amount", &biz.CreateSponsorshipRequest{OrphanID: 1, Frequency: biz.FrequencyYearly}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.uc.Create(context.Background(), tt.req)
			require.True(t, biz.IsValidation(err), "got %v", err)
			require.True(t, kerrors.IsBadRequest(err))
			require.Zero(t, f.store.Attempts())
		})
	}
}

func TestSponsorshipUsecase_Create_OrphanNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.create(1, 404)
	require.True(t, kerrors.IsNotFound(err))
	require.Equal(t, 1, f.store.Attempts())
}

func TestSponsorshipUsecase_Create_OrphanUnavailable(t *testing.T) {
	f := newFixture(t).quiet()
	orphanID := f.addOrphan(t, "Amina")

	_, err := f.create(1, orphanID)
	require.NoError(t, err)
	attempts := f.store.Attempts()

	_, err = f.create(2, orphanID)
	require.True(t, kerrors.IsConflict(err))
	require.True(t, errors.Is(err, biz.ErrOrphanNotAvailable))
	require.Equal(t, attempts+1, f.store.Attempts(), "business errors are not retried")
	require.Empty(t, f.store.Delays())
}

func TestSponsorshipUsecase_Create_ConcurrentClaims(t *testing.T) {
	f := newFixture(t).quiet()
	orphanID := f.addOrphan(t, "Amina")

	const donors = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		winners   []int64
		conflicts int
	)
	for i := 1; i <= donors; i++ {
		wg.Add(1)
		go func(sponsorID int64) {
			defer wg.Done()
			res, err := f.create(sponsorID, orphanID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners = append(winners, res.Sponsorship.ID)
			case kerrors.IsConflict(err):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(int64(i))
	}
	wg.Wait()

	require.Len(t, winners, 1)
	require.Equal(t, donors-1, conflicts)

	o := f.orphan(t, orphanID)
	require.False(t, o.IsAvailableForSponsorship)
	require.Equal(t, winners[0], *o.CurrentSponsorshipID)
}

func TestSponsorshipUsecase_Create_RetriesTransientError(t *testing.T) {
	f := newFixture(t).quiet()
	orphanID := f.addOrphan(t, "Amina")
	f.store.FailCreates(
		errors.New("Error 1213 (40001): Deadlock found when trying to get lock; try restarting transaction"),
		errors.New("Error 1205 (HY000): Lock wait timeout exceeded; try restarting transaction"),
	)

	res, err := f.create(1, orphanID)
	require.NoError(t, err)
	require.Equal(t, 3, f.store.Attempts())
	require.Equal(t, []time.Duration{1000 * time.Millisecond, 1500 * time.Millisecond}, f.store.Delays())

	o := f.orphan(t, orphanID)
	require.Equal(t, res.Sponsorship.ID, *o.CurrentSponsorshipID)
	require.Equal(t, 1, f.store.SponsorshipCount())
}

func TestSponsorshipUsecase_Create_TransientErrorExhausted(t *testing.T) {
	f := newFixture(t)
	orphanID := f.addOrphan(t, "Amina")
	deadlock := errors.New("Deadlock found when trying to get lock")
	f.store.FailCreates(deadlock, deadlock, deadlock)

	_, err := f.create(1, orphanID)
	require.Same(t, deadlock, err)
	require.Equal(t, txretry.DefaultMaxAttempts, f.store.Attempts())

	o := f.orphan(t, orphanID)
	require.True(t, o.IsAvailableForSponsorship)
	require.Nil(t, o.CurrentSponsorshipID)
	require.Zero(t, f.store.SponsorshipCount())
}

func TestSponsorshipUsecase_Create_PublishesEvent(t *testing.T) {
	f := newFixture(t)
	orphanID := f.addOrphan(t, "Amina")

	f.events.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, e *biz.SponsorshipEvent) error {
			assert.Equal(t, biz.EventSponsorshipCreated, e.Type)
			assert.Equal(t, orphanID, e.OrphanID)
			assert.Equal(t, int64(3), e.SponsorID)
			assert.Equal(t, biz.StatusActive, e.Status)
			return errors.New("broker down")
		})

	_, err := f.create(3, orphanID)
	require.NoError(t, err, "a failed publish must not fail the request")
}

func TestSponsorshipUsecase_Update_EndReleasesOrphan(t *testing.T) {
	f := newFixture(t).quiet()
	orphanID := f.addOrphan(t, "Amina")
	res, err := f.create(1, orphanID)
	require.NoError(t, err)

	updated, err := f.uc.Update(context.Background(), &biz.UpdateSponsorshipRequest{
		SponsorshipID: res.Sponsorship.ID,
		RequesterID:   1,
		Status:        ptr(biz.StatusEnded),
	})
	require.NoError(t, err)
	assert.Equal(t, biz.StatusEnded, updated.Status)
	require.NotNil(t, updated.EndDate)

	o := f.orphan(t, orphanID)
	assert.True(t, o.IsAvailableForSponsorship)
	assert.Nil(t, o.CurrentSponsorshipID)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.m.SponsorshipsEnded))
}

func TestSponsorshipUsecase_Update_EndKeepsSuppliedEndDate(t *testing.T) {
	f := newFixture(t).quiet()
	res, err := f.create(1, f.addOrphan(t, "Amina"))
	require.NoError(t, err)

	end := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	updated, err := f.uc.Update(context.Background(), &biz.UpdateSponsorshipRequest{
		SponsorshipID: res.Sponsorship.ID,
		RequesterID:   1,
		Status:        ptr(biz.StatusEnded),
		EndDate:       &end,
	})
	require.NoError(t, err)
	require.Equal(t, end, *updated.EndDate)
}

func TestSponsorshipUsecase_Update_FieldsOnly(t *testing.T) {
	f := newFixture(t).quiet()
	orphanID := f.addOrphan(t, "Amina")
	res, err := f.create(1, orphanID)
	require.NoError(t, err)

	updated, err := f.uc.Update(context.Background(), &biz.UpdateSponsorshipRequest{
		SponsorshipID: res.Sponsorship.ID,
		RequesterID:   1,
		Status:        ptr(biz.StatusPaused),
		Amount:        ptr(75.5),
		Frequency:     ptr(biz.FrequencyQuarterly),
		Notes:         ptr("raise"),
	})
	require.NoError(t, err)
	assert.Equal(t, biz.StatusPaused, updated.Status)
	assert.Equal(t, 75.5, updated.Amount)
	assert.Equal(t, biz.FrequencyQuarterly, updated.Frequency)
	assert.Equal(t, "raise", updated.Notes)
	assert.Nil(t, updated.EndDate)
	assert.Equal(t, res.Sponsorship.NextPaymentDate, updated.NextPaymentDate)

	o := f.orphan(t, orphanID)
	assert.False(t, o.IsAvailableForSponsorship)
	assert.Equal(t, res.Sponsorship.ID, *o.CurrentSponsorshipID)
}

func TestSponsorshipUsecase_Update_NotOwner(t *testing.T) {
	f := newFixture(t).quiet()
	orphanID := f.addOrphan(t, "Amina")
	res, err := f.create(1, orphanID)
	require.NoError(t, err)
	before := f.sponsorship(t, res.Sponsorship.ID)

	_, err = f.uc.Update(context.Background(), &biz.UpdateSponsorshipRequest{
		SponsorshipID: res.Sponsorship.ID,
		RequesterID:   2,
		Status:        ptr(biz.StatusEnded),
		Amount:        ptr(1.0),
	})
	require.True(t, kerrors.IsNotFound(err))
	require.False(t, kerrors.IsForbidden(err))

	require.Equal(t, before, f.sponsorship(t, res.Sponsorship.ID))
	require.False(t, f.orphan(t, orphanID).IsAvailableForSponsorship)
}

func TestSponsorshipUsecase_Update_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  *biz.UpdateSponsorshipRequest
	}{
		{"missing id", &biz.UpdateSponsorshipRequest{RequesterID: 1, Status: ptr(biz.StatusEnded)}},
		{"bad status", &biz.UpdateSponsorshipRequest{SponsorshipID: 1, RequesterID: 1, Status: ptr(biz.Status("cancelled"))}},
		{"bad frequency", &biz.UpdateSponsorshipRequest{SponsorshipID: 1, RequesterID: 1, Frequency: ptr(biz.Frequency("daily"))}},
		{"negative amount", &biz.UpdateSponsorshipRequest{SponsorshipID: 1, RequesterID: 1, Amount: ptr(-5.0)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.uc.Update(context.Background(), tt.req)
			require.True(t, biz.IsValidation(err), "got %v", err)
			require.Zero(t, f.store.Attempts())
		})
	}
}

func TestSponsorshipUsecase_Update_EndedCannotReactivate(t *testing.T) {
	f := newFixture(t).quiet()
	orphanID := f.addOrphan(t, "Amina")
	res, err := f.create(1, orphanID)
	require.NoError(t, err)

	_, err = f.uc.Update(context.Background(), &biz.UpdateSponsorshipRequest{
		SponsorshipID: res.Sponsorship.ID, RequesterID: 1, Status: ptr(biz.StatusEnded),
	})
	require.NoError(t, err)

	_, err = f.uc.Update(context.Background(), &biz.UpdateSponsorshipRequest{
		SponsorshipID: res.Sponsorship.ID, RequesterID: 1, Status: ptr(biz.StatusActive),
	})
	require.True(t, errors.Is(err, biz.ErrSponsorshipEnded))
	require.True(t, f.orphan(t, orphanID).IsAvailableForSponsorship)
}

func TestSponsorshipUsecase_Update_EndingStaleSponsorshipKeepsNewClaim(t *testing.T) {
	f := newFixture(t).quiet()
	orphanID := f.addOrphan(t, "Amina")
	first, err := f.create(1, orphanID)
	require.NoError(t, err)
	end := &biz.UpdateSponsorshipRequest{SponsorshipID: first.Sponsorship.ID, RequesterID: 1, Status: ptr(biz.StatusEnded)}
	_, err = f.uc.Update(context.Background(), end)
	require.NoError(t, err)

	second, err := f.create(2, orphanID)
	require.NoError(t, err)

	// ending the old sponsorship again must not free the orphan
	_, err = f.uc.Update(context.Background(), end)
	require.NoError(t, err)

	o := f.orphan(t, orphanID)
	require.False(t, o.IsAvailableForSponsorship)
	require.Equal(t, second.Sponsorship.ID, *o.CurrentSponsorshipID)
}

func TestSponsorshipUsecase_Update_EndingTwiceCountsOnce(t *testing.T) {
	f := newFixture(t)
	f.cache.EXPECT().Evict(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	var (
		mu     sync.Mutex
		events = map[biz.EventType]int{}
	)
	f.events.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, e *biz.SponsorshipEvent) error {
			mu.Lock()
			defer mu.Unlock()
			events[e.Type]++
			return nil
		}).AnyTimes()

	res, err := f.create(1, f.addOrphan(t, "Amina"))
	require.NoError(t, err)
	end := &biz.UpdateSponsorshipRequest{SponsorshipID: res.Sponsorship.ID, RequesterID: 1, Status: ptr(biz.StatusEnded)}

	first, err := f.uc.Update(context.Background(), end)
	require.NoError(t, err)
	require.NotNil(t, first.EndDate)

	again, err := f.uc.Update(context.Background(), end)
	require.NoError(t, err)
	assert.Equal(t, biz.StatusEnded, again.Status)
	assert.Equal(t, *first.EndDate, *again.EndDate)

	assert.Equal(t, 1, events[biz.EventSponsorshipEnded])
	assert.Equal(t, 1, events[biz.EventSponsorshipUpdated])
	assert.Equal(t, 1.0, testutil.ToFloat64(f.m.SponsorshipsEnded))
}

func TestSponsorshipUsecase_EndToEnd(t *testing.T) {
	f := newFixture(t).quiet()
	ctx := context.Background()
	const donorA, donorB = int64(100), int64(200)

	o1 := f.addOrphan(t, "O1")

	resA, err := f.create(donorA, o1)
	require.NoError(t, err)
	require.False(t, f.orphan(t, o1).IsAvailableForSponsorship)

	_, err = f.create(donorB, o1)
	require.True(t, kerrors.IsConflict(err))

	_, err = f.uc.Update(ctx, &biz.UpdateSponsorshipRequest{
		SponsorshipID: resA.Sponsorship.ID,
		RequesterID:   donorA,
		Status:        ptr(biz.StatusEnded),
	})
	require.NoError(t, err)
	require.True(t, f.orphan(t, o1).IsAvailableForSponsorship)

	resB, err := f.create(donorB, o1)
	require.NoError(t, err)
	require.Equal(t, resB.Sponsorship.ID, *f.orphan(t, o1).CurrentSponsorshipID)
}

func TestSponsorshipUsecase_Get(t *testing.T) {
	f := newFixture(t)
	f.events.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	res, err := f.create(1, f.addOrphan(t, "Amina"))
	require.NoError(t, err)
	id := res.Sponsorship.ID

	gomock.InOrder(
		f.cache.EXPECT().Get(gomock.Any(), id).Return(nil, int64(3), nil),
		f.cache.EXPECT().Set(gomock.Any(), gomock.Any(), int64(3)).Return(nil),
		f.cache.EXPECT().Get(gomock.Any(), id).Return(&biz.Sponsorship{ID: id, Notes: "cached"}, int64(3), nil),
	)

	s, err := f.uc.Get(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, id, s.ID)
	require.Empty(t, s.Notes)

	s, err = f.uc.Get(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, "cached", s.Notes)
}

func TestSponsorshipUsecase_Get_CacheErrorFallsBack(t *testing.T) {
	f := newFixture(t)
	f.events.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	res, err := f.create(1, f.addOrphan(t, "Amina"))
	require.NoError(t, err)

	f.cache.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, int64(0), errors.New("redis: connection refused"))
	f.cache.EXPECT().Set(gomock.Any(), gomock.Any(), int64(0)).Return(errors.New("redis: connection refused"))

	s, err := f.uc.Get(context.Background(), res.Sponsorship.ID)
	require.NoError(t, err)
	require.Equal(t, res.Sponsorship.ID, s.ID)
}

func TestSponsorshipUsecase_Get_NotFound(t *testing.T) {
	f := newFixture(t).quiet()

	_, err := f.uc.Get(context.Background(), 99)
	require.True(t, errors.Is(err, biz.ErrSponsorshipNotFound))
}

func TestSponsorshipUsecase_Delete(t *testing.T) {
	f := newFixture(t).quiet()
	orphanID := f.addOrphan(t, "Amina")
	res, err := f.create(1, orphanID)
	require.NoError(t, err)

	err = f.uc.Delete(context.Background(), res.Sponsorship.ID, 2)
	require.True(t, kerrors.IsForbidden(err))

	require.NoError(t, f.uc.Delete(context.Background(), res.Sponsorship.ID, 1))
	require.Zero(t, f.store.SponsorshipCount())

	o := f.orphan(t, orphanID)
	require.True(t, o.IsAvailableForSponsorship)
	require.Nil(t, o.CurrentSponsorshipID)

	err = f.uc.Delete(context.Background(), res.Sponsorship.ID, 1)
	require.True(t, kerrors.IsNotFound(err))
}

func TestSponsorshipUsecase_ListActive(t *testing.T) {
	f := newFixture(t).quiet()

	_, err := f.uc.ListActive(context.Background(), 1, 10)
	require.True(t, kerrors.IsNotFound(err))

	for i := 0; i < 12; i++ {
		_, err := f.create(int64(i+1), f.addOrphan(t, "orphan"))
		require.NoError(t, err)
	}

	page, err := f.uc.ListActive(context.Background(), 2, 50)
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, int64(12), page.TotalItems)
	assert.Equal(t, int64(2), page.TotalPages)
	assert.Equal(t, 2, page.CurrentPage)

	n, err := f.uc.CountActive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)
}
