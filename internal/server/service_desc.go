package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "matrix.v1.MatrixService"

const (
	MethodCreateSession   = "/" + ServiceName + "/CreateSession"
	MethodIngestDocuments = "/" + ServiceName + "/IngestDocuments"
	MethodRunStep         = "/" + ServiceName + "/RunStep"
	MethodGetTable        = "/" + ServiceName + "/GetTable"
	MethodGetStatus       = "/" + ServiceName + "/GetStatus"
	MethodExportWorkbook  = "/" + ServiceName + "/ExportWorkbook"
	MethodDeleteSession   = "/" + ServiceName + "/DeleteSession"
)

// MatrixServiceServer is the server API for matrix.v1.MatrixService. Messages are
// protobuf well-known types so the service needs no generated code.
type MatrixServiceServer interface {
	CreateSession(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	IngestDocuments(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RunStep(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetTable(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetStatus(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExportWorkbook(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteSession(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
}

// RegisterMatrixServiceServer registers srv on s.
func RegisterMatrixServiceServer(s grpc.ServiceRegistrar, srv MatrixServiceServer) {
	s.RegisterService(&MatrixServiceDesc, srv)
}

// unaryHandler adapts a typed method to grpc.MethodDesc.
func unaryHandler[Req any, Resp any](fullMethod string, newReq func() *Req, call func(MatrixServiceServer, context.Context, *Req) (Resp, error)) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := newReq()
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(MatrixServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(MatrixServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func newStruct() *structpb.Struct { return &structpb.Struct{} }

// MatrixServiceDesc is the grpc.ServiceDesc for matrix.v1.MatrixService.
var MatrixServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MatrixServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "CreateSession",
			Handler: unaryHandler(MethodCreateSession, func() *emptypb.Empty { return &emptypb.Empty{} },
				func(s MatrixServiceServer, ctx context.Context, in *emptypb.Empty) (*structpb.Struct, error) {
					return s.CreateSession(ctx, in)
				}),
		},
		{
			MethodName: "IngestDocuments",
			Handler: unaryHandler(MethodIngestDocuments, newStruct,
				func(s MatrixServiceServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
					return s.IngestDocuments(ctx, in)
				}),
		},
		{
			MethodName: "RunStep",
			Handler: unaryHandler(MethodRunStep, newStruct,
				func(s MatrixServiceServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
					return s.RunStep(ctx, in)
				}),
		},
		{
			MethodName: "GetTable",
			Handler: unaryHandler(MethodGetTable, newStruct,
				func(s MatrixServiceServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
					return s.GetTable(ctx, in)
				}),
		},
		{
			MethodName: "GetStatus",
			Handler: unaryHandler(MethodGetStatus, newStruct,
				func(s MatrixServiceServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
					return s.GetStatus(ctx, in)
				}),
		},
		{
			MethodName: "ExportWorkbook",
			Handler: unaryHandler(MethodExportWorkbook, newStruct,
				func(s MatrixServiceServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
					return s.ExportWorkbook(ctx, in)
				}),
		},
		{
			MethodName: "DeleteSession",
			Handler: unaryHandler(MethodDeleteSession, func() *wrapperspb.StringValue { return &wrapperspb.StringValue{} },
				func(s MatrixServiceServer, ctx context.Context, in *wrapperspb.StringValue) (*emptypb.Empty, error) {
					return s.DeleteSession(ctx, in)
				}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "matrix/v1/matrix.proto",
}

// MatrixServiceClient calls matrix.v1.MatrixService over a connection.
type MatrixServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewMatrixServiceClient(cc grpc.ClientConnInterface) *MatrixServiceClient {
	return &MatrixServiceClient{cc: cc}
}

func (c *MatrixServiceClient) CreateSession(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodCreateSession, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *MatrixServiceClient) call(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *MatrixServiceClient) IngestDocuments(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, MethodIngestDocuments, in, opts...)
}

func (c *MatrixServiceClient) RunStep(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, MethodRunStep, in, opts...)
}

func (c *MatrixServiceClient) GetTable(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, MethodGetTable, in, opts...)
}

func (c *MatrixServiceClient) GetStatus(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, MethodGetStatus, in, opts...)
}

func (c *MatrixServiceClient) ExportWorkbook(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, MethodExportWorkbook, in, opts...)
}

func (c *MatrixServiceClient) DeleteSession(ctx context.Context, sessionID string, opts ...grpc.CallOption) error {
	return c.cc.Invoke(ctx, MethodDeleteSession, wrapperspb.String(sessionID), new(emptypb.Empty), opts...)
}
