package data

import (
	"time"

	"github.com/orphancare/charity-service/internal/biz"
)

// OrphanModel is the orphans table. Only the columns the sponsorship
// workflow touches are mapped.
type OrphanModel struct {
	ID                        int64  `gorm:"primaryKey;autoIncrement"`
	Name                      string `gorm:"size:255;not null"`
	OrphanageID               int64  `gorm:"index;not null"`
	IsAvailableForSponsorship bool   `gorm:"not null;default:true"`
	CurrentSponsorshipID      *int64 `gorm:"index"`
	CreatedAt                 time.Time
	UpdatedAt                 time.Time
}

func (OrphanModel) TableName() string {
	return "orphans"
}

func (m *OrphanModel) toBiz() *biz.Orphan {
	return &biz.Orphan{
		ID:                        m.ID,
		Name:                      m.Name,
		OrphanageID:               m.OrphanageID,
		IsAvailableForSponsorship: m.IsAvailableForSponsorship,
		CurrentSponsorshipID:      m.CurrentSponsorshipID,
	}
}

// SponsorshipModel is the sponsorships table.
type SponsorshipModel struct {
	ID              int64     `gorm:"primaryKey;autoIncrement"`
	SponsorID       int64     `gorm:"index;not null"`
	OrphanID        int64     `gorm:"index;not null"`
	StartDate       time.Time `gorm:"not null"`
	NextPaymentDate *time.Time
	EndDate         *time.Time
	Amount          float64 `gorm:"type:decimal(10,2);not null"`
	Frequency       string  `gorm:"size:16;not null"`
	Status          string  `gorm:"size:16;not null;default:active;index"`
	Notes           string  `gorm:"type:text"`
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Orphan *OrphanModel `gorm:"foreignKey:OrphanID"`
}

func (SponsorshipModel) TableName() string {
	return "sponsorships"
}

func newSponsorshipModel(s *biz.Sponsorship) *SponsorshipModel {
	return &SponsorshipModel{
		ID:              s.ID,
		SponsorID:       s.SponsorID,
		OrphanID:        s.OrphanID,
		StartDate:       s.StartDate,
		NextPaymentDate: s.NextPaymentDate,
		EndDate:         s.EndDate,
		Amount:          s.Amount,
		Frequency:       string(s.Frequency),
		Status:          string(s.Status),
		Notes:           s.Notes,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

func (m *SponsorshipModel) toBiz() *biz.Sponsorship {
	s := &biz.Sponsorship{
		ID:              m.ID,
		SponsorID:       m.SponsorID,
		OrphanID:        m.OrphanID,
		StartDate:       m.StartDate,
		NextPaymentDate: m.NextPaymentDate,
		EndDate:         m.EndDate,
		Amount:          m.Amount,
		Frequency:       biz.Frequency(m.Frequency),
		Status:          biz.Status(m.Status),
		Notes:           m.Notes,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
	if m.Orphan != nil {
		s.Orphan = m.Orphan.toBiz()
	}
	return s
}

// Models lists every table owned by the service, in creation order.
func Models() []any {
	return []any{&OrphanModel{}, &SponsorshipModel{}}
}
