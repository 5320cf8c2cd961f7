package logger

import (
	"context"
	"path"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// NewGrpcUnaryServerInterceptor는 단일 요청/응답 gRPC 메서드에 대한 로깅 인터셉터를 생성합니다.
func NewGrpcUnaryServerInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		startTime := time.Now()
		resp, err := handler(ctx, req)

		code := status.Code(err)
		fields := []zap.Field{
			zap.String("grpc.service", path.Dir(info.FullMethod)[1:]),
			zap.String("grpc.method", path.Base(info.FullMethod)),
			zap.String("grpc.code", code.String()),
			zap.Duration("grpc.duration", time.Since(startTime)),
		}

		switch {
		case code == codes.OK:
			logger.Debug("gRPC 요청 완료", fields...)
		case isTransientCode(code):
			logger.Warn("gRPC 요청 실패", append(fields, zap.Error(err))...)
		default:
			logger.Error("gRPC 요청 오류", append(fields, zap.Error(err))...)
		}

		return resp, err
	}
}

// isTransientCode 재시도로 해소될 수 있는 상태 코드인지 확인합니다.
func isTransientCode(code codes.Code) bool {
	switch code {
	case codes.Canceled, codes.DeadlineExceeded, codes.ResourceExhausted,
		codes.Aborted, codes.Unavailable, codes.DataLoss:
		return true
	}
	return false
}
