package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound           ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden          ErrorCode = "FORBIDDEN"
	ErrCodeBadRequest         ErrorCode = "BAD_REQUEST"
	ErrCodeConflict           ErrorCode = "CONFLICT"
	ErrCodeInternal           ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation         ErrorCode = "VALIDATION_ERROR"
	ErrCodeDatabaseError      ErrorCode = "DATABASE_ERROR"
	ErrCodeInvalidStatus      ErrorCode = "INVALID_STATUS"
	ErrCodeDuplicateReview    ErrorCode = "DUPLICATE_REVIEW"
	ErrCodeNotParticipant     ErrorCode = "NOT_PARTICIPANT"
	ErrCodeConversationClosed ErrorCode = "CONVERSATION_CLOSED"
)

type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

// Internal оборачивает неожиданную ошибку хранилища или внешнего сервиса.
// Текст причины клиенту не отдаётся.
func Internal(err error) *AppError {
	return Wrap(err, ErrCodeInternal, "внутренняя ошибка сервера")
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden, ErrCodeNotParticipant, ErrCodeConversationClosed:
		return http.StatusForbidden
	case ErrCodeBadRequest, ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeConflict, ErrCodeInvalidStatus, ErrCodeDuplicateReview:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// As извлекает AppError из цепочки ошибок.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func hasCode(err error, code ErrorCode) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

func IsNotFound(err error) bool {
	return hasCode(err, ErrCodeNotFound)
}

func IsForbidden(err error) bool {
	return hasCode(err, ErrCodeForbidden)
}

func IsValidation(err error) bool {
	return hasCode(err, ErrCodeValidation)
}

func IsInvalidStatus(err error) bool {
	return hasCode(err, ErrCodeInvalidStatus)
}

func IsDuplicateReview(err error) bool {
	return hasCode(err, ErrCodeDuplicateReview)
}

func IsNotParticipant(err error) bool {
	return hasCode(err, ErrCodeNotParticipant)
}

func IsConversationClosed(err error) bool {
	return hasCode(err, ErrCodeConversationClosed)
}

var (
	ErrOrderNotFound        = New(ErrCodeNotFound, "заказ не найден")
	ErrListingNotFound      = New(ErrCodeNotFound, "объявление не найдено")
	ErrConversationNotFound = New(ErrCodeNotFound, "беседа не найдена")
	ErrUserNotFound         = New(ErrCodeNotFound, "пользователь не найден")
	ErrPayoutNotFound       = New(ErrCodeNotFound, "выплата не найдена")
	ErrComplaintNotFound    = New(ErrCodeNotFound, "жалоба не найдена")
	ErrUnauthorized         = New(ErrCodeUnauthorized, "требуется авторизация")
	ErrForbidden            = New(ErrCodeForbidden, "недостаточно прав")
	ErrInvalidCredentials   = New(ErrCodeUnauthorized, "неверные учетные данные")
	ErrNotParticipant       = New(ErrCodeNotParticipant, "вы не участник этого заказа")
	ErrDuplicateReview      = New(ErrCodeDuplicateReview, "вы уже оставили отзыв на этот заказ")
	ErrConversationClosed   = New(ErrCodeConversationClosed, "беседа закрыта, отправка сообщений недоступна")
)
