package grpc

import (
	"context"

	"github.com/vibast-solutions/ms-go-donations/app/types"
	"google.golang.org/grpc"
)

const serviceName = "donations.DonationsService"

type DonationsServiceServer interface {
	Health(ctx context.Context, req *types.HealthRequest) (*types.HealthResponse, error)
	GetDonation(ctx context.Context, req *types.GetDonationRequest) (*types.DonationEnvelopeResponse, error)
	ListApprovedDonations(ctx context.Context, req *types.ListApprovedDonationsRequest) (*types.ListDonationsResponse, error)
}

var DonationsServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*DonationsServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Health", Handler: healthHandler},
		{MethodName: "GetDonation", Handler: getDonationHandler},
		{MethodName: "ListApprovedDonations", Handler: listApprovedDonationsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "donations.json",
}

func RegisterDonationsServiceServer(registrar grpc.ServiceRegistrar, srv DonationsServiceServer) {
	registrar.RegisterService(&DonationsServiceDesc, srv)
}

func healthHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(types.HealthRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DonationsServiceServer).Health(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/Health"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(DonationsServiceServer).Health(ctx, req.(*types.HealthRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func getDonationHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(types.GetDonationRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DonationsServiceServer).GetDonation(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/GetDonation"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(DonationsServiceServer).GetDonation(ctx, req.(*types.GetDonationRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func listApprovedDonationsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(types.ListApprovedDonationsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DonationsServiceServer).ListApprovedDonations(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/ListApprovedDonations"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(DonationsServiceServer).ListApprovedDonations(ctx, req.(*types.ListApprovedDonationsRequest))
	}
	return interceptor(ctx, in, info, handler)
}
