package service

import (
	"context"

	"github.com/go-kratos/kratos/v2/transport/http"

	"github.com/orphancare/charity-service/internal/biz"
	"github.com/orphancare/charity-service/pkg/pagination"
)

const (
	OperationSponsorshipCreateSponsorship = "/charity.sponsorship.v1.Sponsorship/CreateSponsorship"
	OperationSponsorshipUpdateSponsorship = "/charity.sponsorship.v1.Sponsorship/UpdateSponsorship"
	OperationSponsorshipGetSponsorship    = "/charity.sponsorship.v1.Sponsorship/GetSponsorship"
	OperationSponsorshipDeleteSponsorship = "/charity.sponsorship.v1.Sponsorship/DeleteSponsorship"
	OperationSponsorshipListSponsorships  = "/charity.sponsorship.v1.Sponsorship/ListSponsorships"
)

type SponsorshipHTTPServer interface {
	CreateSponsorship(context.Context, *CreateSponsorshipRequest) (*SponsorshipReply, error)
	UpdateSponsorship(context.Context, *UpdateSponsorshipRequest) (*SponsorshipReply, error)
	GetSponsorship(context.Context, *GetSponsorshipRequest) (*biz.Sponsorship, error)
	DeleteSponsorship(context.Context, *DeleteSponsorshipRequest) (*MessageReply, error)
	ListSponsorships(context.Context, *ListSponsorshipsRequest) (*pagination.Page[*biz.Sponsorship], error)
}

func RegisterSponsorshipHTTPServer(s *http.Server, srv SponsorshipHTTPServer) {
	r := s.Route("/")
	r.POST("/sponsorship", _Sponsorship_CreateSponsorship0_HTTP_Handler(srv))
	r.PUT("/sponsorship/{id}", _Sponsorship_UpdateSponsorship0_HTTP_Handler(srv))
	r.GET("/sponsorship/{id}", _Sponsorship_GetSponsorship0_HTTP_Handler(srv))
	r.DELETE("/sponsorship/{id}", _Sponsorship_DeleteSponsorship0_HTTP_Handler(srv))
	r.GET("/sponsorship", _Sponsorship_ListSponsorships0_HTTP_Handler(srv))
}

func _Sponsorship_CreateSponsorship0_HTTP_Handler(srv SponsorshipHTTPServer) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in CreateSponsorshipRequest
		if err := ctx.Bind(&in); err != nil {
			return err
		}
		http.SetOperation(ctx, OperationSponsorshipCreateSponsorship)
		h := ctx.Middleware(func(ctx context.Context, req any) (any, error) {
			return srv.CreateSponsorship(ctx, req.(*CreateSponsorshipRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(201, out)
	}
}

func _Sponsorship_UpdateSponsorship0_HTTP_Handler(srv SponsorshipHTTPServer) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in UpdateSponsorshipRequest
		if err := ctx.Bind(&in); err != nil {
			return err
		}
		if err := ctx.BindVars(&in); err != nil {
			return err
		}
		http.SetOperation(ctx, OperationSponsorshipUpdateSponsorship)
		h := ctx.Middleware(func(ctx context.Context, req any) (any, error) {
			return srv.UpdateSponsorship(ctx, req.(*UpdateSponsorshipRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	}
}

func _Sponsorship_GetSponsorship0_HTTP_Handler(srv SponsorshipHTTPServer) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in GetSponsorshipRequest
		if err := ctx.BindVars(&in); err != nil {
			return err
		}
		http.SetOperation(ctx, OperationSponsorshipGetSponsorship)
		h := ctx.Middleware(func(ctx context.Context, req any) (any, error) {
			return srv.GetSponsorship(ctx, req.(*GetSponsorshipRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	}
}

func _Sponsorship_DeleteSponsorship0_HTTP_Handler(srv SponsorshipHTTPServer) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in DeleteSponsorshipRequest
		if err := ctx.BindVars(&in); err != nil {
			return err
		}
		http.SetOperation(ctx, OperationSponsorshipDeleteSponsorship)
		h := ctx.Middleware(func(ctx context.Context, req any) (any, error) {
			return srv.DeleteSponsorship(ctx, req.(*DeleteSponsorshipRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	}
}

func _Sponsorship_ListSponsorships0_HTTP_Handler(srv SponsorshipHTTPServer) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in ListSponsorshipsRequest
		if err := ctx.BindQuery(&in); err != nil {
			return err
		}
		http.SetOperation(ctx, OperationSponsorshipListSponsorships)
		h := ctx.Middleware(func(ctx context.Context, req any) (any, error) {
			return srv.ListSponsorships(ctx, req.(*ListSponsorshipsRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	}
}
