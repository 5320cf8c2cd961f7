package logger

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	apperrors "github.com/wekeepgrowing/semo-credits/pkg/errors"
)

// 로그에 원문을 남기면 안 되는 헤더
var maskedHeaders = map[string]bool{
	"Authorization":    true,
	"Stripe-Signature": true,
	"X-Signature":      true,
}

// NewEchoRequestLogger는 Echo 서버를 위한 Request Logger를 생성합니다.
// zap을 사용하여 HTTP 요청과 응답을 로깅합니다.
func NewEchoRequestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path == "/health"
		},
		HandleError: true,

		LogLatency:      true,
		LogRemoteIP:     true,
		LogMethod:       true,
		LogURI:          true,
		LogRoutePath:    true,
		LogRequestID:    true,
		LogUserAgent:    true,
		LogStatus:       true,
		LogError:        true,
		LogResponseSize: true,
		LogHeaders:      []string{"Content-Type", "Authorization", "Stripe-Signature", "X-Signature", "X-Request-Id"},

		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("request.remote_ip", v.RemoteIP),
				zap.String("request.method", v.Method),
				zap.String("request.uri", v.URI),
				zap.String("request.route", v.RoutePath),
				zap.String("request.user_agent", v.UserAgent),
				zap.String("request.request_id", v.RequestID),
				zap.Int("response.status", v.Status),
				zap.Duration("response.latency", v.Latency),
				zap.Int64("response.response_size", v.ResponseSize),
			}
			if len(v.Headers) > 0 {
				fields = append(fields, zap.Any("request.headers", maskHeaders(v.Headers)))
			}

			switch {
			case v.Status >= 500:
				logger.Error("Server error", append(fields, zap.Error(v.Error))...)
			case v.Status >= 400:
				logger.Warn("Client error", append(fields, zap.Error(v.Error))...)
			default:
				logger.Info("Request completed", fields...)
			}
			return nil
		},
	})
}

// maskHeaders 민감한 헤더 값은 앞부분만 남기고 가립니다.
func maskHeaders(headers map[string][]string) map[string]string {
	out := make(map[string]string, len(headers))
	for k, values := range headers {
		if len(values) == 0 {
			continue
		}
		val := values[0]
		if maskedHeaders[http.CanonicalHeaderKey(k)] {
			if len(val) > 15 {
				val = val[:10] + "..."
			} else {
				val = "[MASKED]"
			}
		}
		out[k] = val
	}
	return out
}

// WithEchoLogger Echo에 대한 커스텀 에러 핸들러를 설정합니다.
// AppError는 코드에 맞는 상태와 공개 메시지로, 그 외 에러는 500으로 응답합니다.
func WithEchoLogger(e *echo.Echo, logger *zap.Logger) {
	e.HideBanner = true
	e.HidePort = true

	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var (
			status int
			body   interface{}
		)
		if he, ok := err.(*echo.HTTPError); ok {
			status = he.Code
			msg, _ := he.Message.(string)
			if msg == "" {
				msg = http.StatusText(status)
			}
			body = echo.Map{"error": msg, "code": codeForStatus(status)}
		} else {
			status, body = apperrors.ToHTTPBody(err)
		}

		if status >= 500 {
			logger.Error("HTTP error",
				zap.Error(err),
				zap.Int("status", status),
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
			)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			logger.Error("Failed to send error response", zap.Error(err))
		}
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return apperrors.ErrInvalidArgument
	case http.StatusUnauthorized:
		return apperrors.ErrUnauthenticated
	case http.StatusForbidden:
		return apperrors.ErrUnauthorized
	case http.StatusNotFound:
		return apperrors.ErrNotFound
	case http.StatusServiceUnavailable:
		return apperrors.ErrUnavailable
	}
	return strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_"))
}
