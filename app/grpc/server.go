package grpc

import (
	"context"
	"errors"

	"github.com/vibast-solutions/ms-go-donations/app/mapper"
	"github.com/vibast-solutions/ms-go-donations/app/service"
	"github.com/vibast-solutions/ms-go-donations/app/types"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Server struct {
	donations *service.DonationService
}

func NewServer(donations *service.DonationService) *Server {
	return &Server{donations: donations}
}

func (s *Server) Health(_ context.Context, _ *types.HealthRequest) (*types.HealthResponse, error) {
	return &types.HealthResponse{Status: "ok"}, nil
}

func (s *Server) GetDonation(ctx context.Context, req *types.GetDonationRequest) (*types.DonationEnvelopeResponse, error) {
	l := loggerWithContext(ctx)
	if err := req.Validate(); err != nil {
		l.WithError(err).Debug("Get donation validation failed")
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	item, err := s.donations.GetByPaymentID(ctx, req.GetPaymentId())
	if err != nil {
		return nil, toStatus(ctx, err, "Get donation")
	}

	return &types.DonationEnvelopeResponse{Donation: mapper.DonationToResponse(item)}, nil
}

func (s *Server) ListApprovedDonations(ctx context.Context, req *types.ListApprovedDonationsRequest) (*types.ListDonationsResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	items, err := s.donations.ListApprovedBySteamID(ctx, req.GetSteamId(), req.GetLimit())
	if err != nil {
		return nil, toStatus(ctx, err, "List approved donations")
	}

	return &types.ListDonationsResponse{Donations: mapper.DonationsToResponse(items)}, nil
}

func toStatus(ctx context.Context, err error, operation string) error {
	switch {
	case errors.Is(err, service.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, service.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, service.ErrUpstream):
		return status.Error(codes.Unavailable, err.Error())
	default:
		loggerWithContext(ctx).WithError(err).Error(operation + " failed")
		return status.Error(codes.Internal, "internal server error")
	}
}
