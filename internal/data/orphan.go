package data

import (
	"context"
	"errors"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/orphancare/charity-service/internal/biz"
)

type orphanRepo struct {
	data *Data
	log  *log.Helper
}

// NewOrphanRepo creates a new orphan repository.
func NewOrphanRepo(data *Data, logger log.Logger) biz.OrphanRepo {
	return &orphanRepo{
		data: data,
		log:  log.NewHelper(log.With(logger, "module", "data/orphan")),
	}
}

func (r *orphanRepo) Save(ctx context.Context, o *biz.Orphan) (*biz.Orphan, error) {
	m := &OrphanModel{
		Name:                      o.Name,
		OrphanageID:               o.OrphanageID,
		IsAvailableForSponsorship: o.IsAvailableForSponsorship,
		CurrentSponsorshipID:      o.CurrentSponsorshipID,
	}
	if err := r.data.DB(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return m.toBiz(), nil
}

func (r *orphanRepo) FindByID(ctx context.Context, id int64) (*biz.Orphan, error) {
	return r.find(r.data.DB(ctx), id)
}

func (r *orphanRepo) FindByIDForUpdate(ctx context.Context, id int64) (*biz.Orphan, error) {
	return r.find(r.data.DB(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *orphanRepo) find(db *gorm.DB, id int64) (*biz.Orphan, error) {
	var m OrphanModel
	if err := db.First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, biz.ErrOrphanNotFound
		}
		return nil, err
	}
	return m.toBiz(), nil
}

func (r *orphanRepo) Update(ctx context.Context, o *biz.Orphan) (*biz.Orphan, error) {
	err := r.data.DB(ctx).Model(&OrphanModel{ID: o.ID}).Updates(map[string]any{
		"is_available_for_sponsorship": o.IsAvailableForSponsorship,
		"current_sponsorship_id":       o.CurrentSponsorshipID,
	}).Error
	if err != nil {
		return nil, err
	}
	updated := *o
	return &updated, nil
}
