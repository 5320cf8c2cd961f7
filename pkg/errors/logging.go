package errors

import (
	"go.uber.org/zap"
)

// LogError는 에러를 구조화된 로그로 기록합니다.
// 4xx 코드는 Warn, 나머지는 Error 레벨이며 재시도 가능 여부를 함께 남깁니다.
func LogError(logger *zap.Logger, err error, msg string, fields ...zap.Field) {
	if err == nil {
		return
	}

	code := CodeOf(err)
	allFields := make([]zap.Field, 0, len(fields)+3)
	allFields = append(allFields,
		zap.Error(err),
		zap.String("error_code", code),
		zap.Bool("retryable", Retryable(code)),
	)
	allFields = append(allFields, fields...)

	if status := ToHTTPStatus(code); status >= 400 && status < 500 {
		logger.Warn(msg, allFields...)
		return
	}
	logger.Error(msg, allFields...)
}
