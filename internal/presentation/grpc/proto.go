package grpc

// proto.go defines the gRPC server interface for imagerisk.v1.RiskService.
// Messages travel with the "json" codec registered in json_codec.go, so the
// request and response types below are plain Go structs.

import (
	"context"

	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// RiskServiceServer is the server API for RiskService.
type RiskServiceServer interface {
	EvaluateRisk(context.Context, *EvaluateRiskRequest) (*EvaluateRiskResponse, error)
	GetImage(context.Context, *GetImageRequest) (*GetImageResponse, error)
	mustEmbedUnimplementedRiskServiceServer()
}

// UnimplementedRiskServiceServer provides forward-compatible default implementations.
type UnimplementedRiskServiceServer struct{}

func (UnimplementedRiskServiceServer) EvaluateRisk(context.Context, *EvaluateRiskRequest) (*EvaluateRiskResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method EvaluateRisk not implemented")
}
func (UnimplementedRiskServiceServer) GetImage(context.Context, *GetImageRequest) (*GetImageResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetImage not implemented")
}
func (UnimplementedRiskServiceServer) mustEmbedUnimplementedRiskServiceServer() {}

// RegisterRiskServiceServer registers the RiskServiceServer with the gRPC server.
func RegisterRiskServiceServer(s grpclib.ServiceRegistrar, srv RiskServiceServer) {
	s.RegisterService(&riskServiceDesc, srv)
}

// RiskServiceName is the fully qualified service name.
const RiskServiceName = "imagerisk.v1.RiskService"

var riskServiceDesc = grpclib.ServiceDesc{
	ServiceName: RiskServiceName,
	HandlerType: (*RiskServiceServer)(nil),
	Methods: []grpclib.MethodDesc{
		{MethodName: "EvaluateRisk", Handler: riskServiceEvaluateRiskHandler},
		{MethodName: "GetImage", Handler: riskServiceGetImageHandler},
	},
	Streams:  []grpclib.StreamDesc{},
	Metadata: "imagerisk/v1/risk.proto",
}

func riskServiceEvaluateRiskHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpclib.UnaryServerInterceptor) (any, error) {
	req := new(EvaluateRiskRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RiskServiceServer).EvaluateRisk(ctx, req)
	}
	info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: "/" + RiskServiceName + "/EvaluateRisk"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RiskServiceServer).EvaluateRisk(ctx, req.(*EvaluateRiskRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func riskServiceGetImageHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpclib.UnaryServerInterceptor) (any, error) {
	req := new(GetImageRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RiskServiceServer).GetImage(ctx, req)
	}
	info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: "/" + RiskServiceName + "/GetImage"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RiskServiceServer).GetImage(ctx, req.(*GetImageRequest))
	}
	return interceptor(ctx, req, info, handler)
}
