package server

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/joseph-ayodele/interview-matrix/internal/common"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "x-request-id"

// UnaryLogging assigns a request id (taken from metadata when present), echoes it in the
// response header and logs one line per call. The session a request targets is put on the
// context for the layers below.
func UnaryLogging(logger *slog.Logger) grpc.UnaryServerInterceptor {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		requestID := ""
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if v := md.Get(RequestIDHeader); len(v) > 0 {
				requestID = v[0]
			}
		}
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx = common.WithRequestID(ctx, requestID)
		_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDHeader, requestID))
		if sid := requestSessionID(req); sid != "" {
			ctx = common.WithSessionID(ctx, sid)
		}
		sessionID := common.SessionIDFromContext(ctx)

		start := time.Now()
		resp, err := handler(ctx, req)
		elapsed := time.Since(start).Milliseconds()
		if err != nil {
			err = common.ToStatus(err)
			logger.Warn("grpc.request.failed",
				"method", info.FullMethod,
				"request_id", requestID,
				"session_id", sessionID,
				"code", status.Code(err).String(),
				"error", err,
				"elapsed_ms", elapsed,
			)
			return nil, err
		}
		logger.Info("grpc.request.ok",
			"method", info.FullMethod,
			"request_id", requestID,
			"session_id", sessionID,
			"elapsed_ms", elapsed,
		)
		return resp, nil
	}
}

func requestSessionID(req interface{}) string {
	switch r := req.(type) {
	case *structpb.Struct:
		return strings.TrimSpace(r.GetFields()["session_id"].GetStringValue())
	case *wrapperspb.StringValue:
		return strings.TrimSpace(r.GetValue())
	}
	return ""
}
