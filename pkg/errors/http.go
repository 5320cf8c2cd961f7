package errors

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ToHTTPBody는 에러를 응답 상태 코드와 JSON 본문으로 변환합니다.
// 결제사나 DB의 원본 에러 문구는 본문에 넣지 않습니다.
func ToHTTPBody(err error) (int, echo.Map) {
	var appErr *AppError
	if As(err, &appErr) {
		return ToHTTPStatus(appErr.code), echo.Map{
			"error": appErr.message,
			"code":  appErr.code,
		}
	}

	return http.StatusInternalServerError, echo.Map{
		"error": http.StatusText(http.StatusInternalServerError),
		"code":  ErrInternal,
	}
}
