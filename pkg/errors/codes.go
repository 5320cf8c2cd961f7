package errors

import "net/http"

// 에러 코드
const (
	ErrInternal        = "INTERNAL"
	ErrNotFound        = "NOT_FOUND"
	ErrInvalidArgument = "INVALID_ARGUMENT"
	ErrUnauthenticated = "UNAUTHENTICATED"
	ErrUnauthorized    = "UNAUTHORIZED"
	ErrConflict        = "CONFLICT"
	ErrTimeout         = "TIMEOUT"

	// 결제 연동
	ErrUnavailable   = "UNAVAILABLE"   // 외부 결제사 일시 장애
	ErrUnprocessable = "UNPROCESSABLE" // 재시도해도 성공할 수 없는 요청
	ErrSignature     = "INVALID_SIGNATURE"
)

// codeSpec은 코드별 응답 상태와 재시도 가능 여부입니다
type codeSpec struct {
	status    int
	retryable bool
}

var codeTable = map[string]codeSpec{
	ErrInternal:        {http.StatusInternalServerError, true},
	ErrNotFound:        {http.StatusNotFound, false},
	ErrInvalidArgument: {http.StatusBadRequest, false},
	ErrUnauthenticated: {http.StatusUnauthorized, false},
	ErrUnauthorized:    {http.StatusForbidden, false},
	ErrConflict:        {http.StatusConflict, false},
	ErrTimeout:         {http.StatusGatewayTimeout, true},
	ErrUnavailable:     {http.StatusServiceUnavailable, true},
	ErrUnprocessable:   {http.StatusUnprocessableEntity, false},
	ErrSignature:       {http.StatusBadRequest, false},
}

// ToHTTPStatus는 에러 코드를 HTTP 상태 코드로 변환합니다. 모르는 코드는 500입니다.
func ToHTTPStatus(code string) int {
	if spec, ok := codeTable[code]; ok {
		return spec.status
	}
	return http.StatusInternalServerError
}

// Retryable은 같은 요청을 다시 보내면 성공할 수 있는 코드인지 알려줍니다.
func Retryable(code string) bool {
	if spec, ok := codeTable[code]; ok {
		return spec.retryable
	}
	return true
}
