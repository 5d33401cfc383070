package data

import (
	"context"
	"errors"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/orphancare/charity-service/internal/biz"
)

type sponsorshipRepo struct {
	data    *Data
	orphans biz.OrphanRepo
	log     *log.Helper
}

// NewSponsorshipRepo creates a new sponsorship repository.
func NewSponsorshipRepo(data *Data, orphans biz.OrphanRepo, logger log.Logger) biz.SponsorshipRepo {
	return &sponsorshipRepo{
		data:    data,
		orphans: orphans,
		log:     log.NewHelper(log.With(logger, "module", "data/sponsorship")),
	}
}

func (r *sponsorshipRepo) Create(ctx context.Context, s *biz.Sponsorship) (*biz.Sponsorship, error) {
	m := newSponsorshipModel(s)
	if err := r.data.DB(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return m.toBiz(), nil
}

func (r *sponsorshipRepo) FindByID(ctx context.Context, id int64) (*biz.Sponsorship, error) {
	var m SponsorshipModel
	if err := r.data.DB(ctx).Preload("Orphan").First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, biz.ErrSponsorshipNotFound
		}
		return nil, err
	}
	return m.toBiz(), nil
}

func (r *sponsorshipRepo) FindByIDForUpdate(ctx context.Context, id int64) (*biz.Sponsorship, error) {
	return r.lock(ctx, biz.ErrSponsorshipNotFound, "id = ?", id)
}

func (r *sponsorshipRepo) FindOneForUpdate(ctx context.Context, id, sponsorID int64) (*biz.Sponsorship, error) {
	return r.lock(ctx, biz.ErrSponsorshipNotOwned, "id = ? AND sponsor_id = ?", id, sponsorID)
}

// lock takes a row lock on the sponsorship, then on its orphan.
// Rows are always locked in that order.
func (r *sponsorshipRepo) lock(ctx context.Context, notFound error, query string, args ...any) (*biz.Sponsorship, error) {
	var m SponsorshipModel
	err := r.data.DB(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where(query, args...).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound
		}
		return nil, err
	}

	s := m.toBiz()
	orphan, err := r.orphans.FindByIDForUpdate(ctx, m.OrphanID)
	switch {
	case err == nil:
		s.Orphan = orphan
	case errors.Is(err, biz.ErrOrphanNotFound):
		r.log.WithContext(ctx).Warnf("sponsorship %d references missing orphan %d", m.ID, m.OrphanID)
	default:
		return nil, err
	}
	return s, nil
}

func (r *sponsorshipRepo) Update(ctx context.Context, s *biz.Sponsorship) (*biz.Sponsorship, error) {
	m := newSponsorshipModel(s)
	err := r.data.DB(ctx).Model(m).
		Select("status", "amount", "frequency", "notes", "end_date", "next_payment_date", "updated_at").
		Updates(m).Error
	if err != nil {
		return nil, err
	}
	updated := m.toBiz()
	updated.Orphan = s.Orphan
	return updated, nil
}

func (r *sponsorshipRepo) Delete(ctx context.Context, id int64) error {
	return r.data.DB(ctx).Delete(&SponsorshipModel{}, id).Error
}

func (r *sponsorshipRepo) ListActive(ctx context.Context, offset, limit int) ([]*biz.Sponsorship, int64, error) {
	db := r.data.DB(ctx).Model(&SponsorshipModel{}).
		Where("status = ?", biz.StatusActive).
		Session(&gorm.Session{})

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var models []*SponsorshipModel
	err := db.Preload("Orphan").
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	rows := make([]*biz.Sponsorship, 0, len(models))
	for _, m := range models {
		rows = append(rows, m.toBiz())
	}
	return rows, total, nil
}

func (r *sponsorshipRepo) CountActive(ctx context.Context) (int64, error) {
	var n int64
	err := r.data.DB(ctx).Model(&SponsorshipModel{}).Where("status = ?", biz.StatusActive).Count(&n).Error
	return n, err
}
