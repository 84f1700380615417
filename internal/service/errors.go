package service

import (
	"errors"

	"github.com/ignatzorin/pokemarket-backend/internal/pkg/apperror"
	"github.com/ignatzorin/pokemarket-backend/internal/repository"
)

// repoErrors соответствие ошибок хранилища типизированным ошибкам API.
var repoErrors = []struct {
	err    error
	appErr *apperror.AppError
}{
	{repository.ErrOrderNotFound, apperror.ErrOrderNotFound},
	{repository.ErrListingNotFound, apperror.ErrListingNotFound},
	{repository.ErrUserNotFound, apperror.ErrUserNotFound},
	{repository.ErrPayoutNotFound, apperror.ErrPayoutNotFound},
	{repository.ErrConversationNotFound, apperror.ErrConversationNotFound},
	{repository.ErrComplaintNotFound, apperror.ErrComplaintNotFound},
	{repository.ErrNotificationNotFound, apperror.New(apperror.ErrCodeNotFound, "уведомление не найдено")},
	{repository.ErrCampaignNotFound, apperror.New(apperror.ErrCodeNotFound, "рассылка не найдена")},
	{repository.ErrInvalidOrderStatus, apperror.New(apperror.ErrCodeInvalidStatus, "недопустимый переход статуса заказа")},
	{repository.ErrInvalidConversationStatus, apperror.New(apperror.ErrCodeInvalidStatus, "статус диалога уже изменён")},
	{repository.ErrDuplicateReview, apperror.ErrDuplicateReview},
	{repository.ErrPayoutExists, apperror.New(apperror.ErrCodeConflict, "выплата по заказу уже создана")},
	{repository.ErrPayoutCompleted, apperror.New(apperror.ErrCodeInvalidStatus, "выплата уже проведена")},
	{repository.ErrEmailTaken, apperror.New(apperror.ErrCodeConflict, "email уже зарегистрирован")},
	{repository.ErrUsernameTaken, apperror.New(apperror.ErrCodeConflict, "имя пользователя занято")},
}

// mapRepoError переводит ошибку хранилища в AppError. Неизвестные ошибки скрываются за INTERNAL_ERROR.
func mapRepoError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperror.As(err); ok {
		return err
	}
	for _, m := range repoErrors {
		if errors.Is(err, m.err) {
			return m.appErr
		}
	}
	return apperror.Internal(err)
}

func validationError(message string) error {
	return apperror.New(apperror.ErrCodeValidation, message)
}

// normalizePage приводит limit/offset к допустимым границам.
func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
