package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/orphancare/charity-service/internal/biz"
	"github.com/orphancare/charity-service/pkg/auth"
	"github.com/orphancare/charity-service/pkg/pagination"
)

var errUnauthenticated = errors.Unauthorized("UNAUTHENTICATED", "authentication required")

type CreateSponsorshipRequest struct {
	OrphanID  int64         `json:"orphanId"`
	Frequency biz.Frequency `json:"frequency"`
	Amount    float64       `json:"amount"`
	Notes     string        `json:"notes"`
}

type UpdateSponsorshipRequest struct {
	ID            int64          `json:"id"`
	SponsorshipID int64          `json:"sponsorshipId"`
	Status        *biz.Status    `json:"status"`
	Amount        *float64       `json:"amount"`
	Frequency     *biz.Frequency `json:"frequency"`
	EndDate       *time.Time     `json:"endDate"`
	Notes         *string        `json:"notes"`
}

type GetSponsorshipRequest struct {
	ID int64 `json:"id"`
}

type DeleteSponsorshipRequest struct {
	ID int64 `json:"id"`
}

type ListSponsorshipsRequest struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

type SponsorshipReply struct {
	Message     string           `json:"message"`
	Sponsorship *biz.Sponsorship `json:"sponsorship"`
}

type MessageReply struct {
	Message string `json:"message"`
}

// SponsorshipService exposes the sponsorship usecase to the transports.
// The acting user is always taken from the authenticated claims.
type SponsorshipService struct {
	uc  *biz.SponsorshipUsecase
	log *log.Helper
}

func NewSponsorshipService(uc *biz.SponsorshipUsecase, logger log.Logger) *SponsorshipService {
	return &SponsorshipService{
		uc:  uc,
		log: log.NewHelper(log.With(logger, "module", "service/sponsorship")),
	}
}

func (s *SponsorshipService) CreateSponsorship(ctx context.Context, req *CreateSponsorshipRequest) (*SponsorshipReply, error) {
	claims, ok := auth.FromContext(ctx)
	if !ok {
		return nil, errUnauthenticated
	}

	res, err := s.uc.Create(ctx, &biz.CreateSponsorshipRequest{
		OrphanID:  req.OrphanID,
		SponsorID: claims.ID,
		Frequency: req.Frequency,
		Amount:    req.Amount,
		Notes:     req.Notes,
	})
	if err != nil {
		return nil, err
	}
	return &SponsorshipReply{
		Message:     fmt.Sprintf("Sponsorship created successfully for %s", res.OrphanName),
		Sponsorship: res.Sponsorship,
	}, nil
}

// UpdateSponsorship takes the sponsorship id from the body. The body id is
// required and must agree with the path id when one is given.
func (s *SponsorshipService) UpdateSponsorship(ctx context.Context, req *UpdateSponsorshipRequest) (*SponsorshipReply, error) {
	claims, ok := auth.FromContext(ctx)
	if !ok {
		return nil, errUnauthenticated
	}

	id := req.SponsorshipID
	if id == 0 {
		return nil, biz.ValidationError("sponsorship ID is required")
	}
	if req.ID != 0 && id != req.ID {
		return nil, biz.ValidationError("sponsorshipId %d does not match path id %d", id, req.ID)
	}

	updated, err := s.uc.Update(ctx, &biz.UpdateSponsorshipRequest{
		SponsorshipID: id,
		RequesterID:   claims.ID,
		Status:        req.Status,
		Amount:        req.Amount,
		Frequency:     req.Frequency,
		EndDate:       req.EndDate,
		Notes:         req.Notes,
	})
	if err != nil {
		return nil, err
	}
	return &SponsorshipReply{
		Message:     "Sponsorship updated successfully",
		Sponsorship: updated,
	}, nil
}

func (s *SponsorshipService) GetSponsorship(ctx context.Context, req *GetSponsorshipRequest) (*biz.Sponsorship, error) {
	return s.uc.Get(ctx, req.ID)
}

func (s *SponsorshipService) DeleteSponsorship(ctx context.Context, req *DeleteSponsorshipRequest) (*MessageReply, error) {
	claims, ok := auth.FromContext(ctx)
	if !ok {
		return nil, errUnauthenticated
	}
	if err := s.uc.Delete(ctx, req.ID, claims.ID); err != nil {
		return nil, err
	}
	return &MessageReply{Message: "Sponsorship deleted"}, nil
}

func (s *SponsorshipService) ListSponsorships(ctx context.Context, req *ListSponsorshipsRequest) (*pagination.Page[*biz.Sponsorship], error) {
	return s.uc.ListActive(ctx, req.Page, req.Limit)
}
