package errors

import (
	"errors"
	"fmt"
)

var (
	New = errors.New
	As  = errors.As
)

// AppError는 응답 코드와 클라이언트용 메시지를 가진 에러입니다.
// 원인 에러는 로그에만 남고 응답 본문에는 포함되지 않습니다.
type AppError struct {
	code    string
	message string
	err     error
}

func (e *AppError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s", e.message, e.err.Error())
	}
	return e.message
}

func (e *AppError) Code() string {
	return e.code
}

// Message는 클라이언트에 노출해도 되는 메시지만 반환합니다
func (e *AppError) Message() string {
	return e.message
}

func (e *AppError) Unwrap() error {
	return e.err
}

// NewAppError는 새 애플리케이션 에러를 생성합니다
func NewAppError(code string, message string, err error) *AppError {
	return &AppError{
		code:    code,
		message: message,
		err:     err,
	}
}

// Wrap은 체인 안의 코드를 유지한 채 메시지를 덧붙입니다. 코드가 없으면 ErrInternal입니다.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return NewAppError(CodeOf(err), message, err)
}

// CodeOf는 에러 체인에서 AppError 코드를 찾고, 없으면 ErrInternal을 반환합니다
func CodeOf(err error) string {
	var appErr *AppError
	if As(err, &appErr) {
		return appErr.code
	}
	return ErrInternal
}
