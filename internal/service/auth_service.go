package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/ignatzorin/pokemarket-backend/internal/logger"
	"github.com/ignatzorin/pokemarket-backend/internal/models"
	"github.com/ignatzorin/pokemarket-backend/internal/pkg/apperror"
	"github.com/ignatzorin/pokemarket-backend/internal/repository"
	"github.com/ignatzorin/pokemarket-backend/internal/validation"
)

// AuthRepository описывает зависимости AuthService от слоя хранилища.
type AuthRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetPublicProfile(ctx context.Context, id uuid.UUID) (*models.PublicProfile, error)
	UpdateLastLoginAt(ctx context.Context, userID uuid.UUID) error
	List(ctx context.Context, search string, limit, offset int) ([]models.User, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

// AuthService инкапсулирует регистрацию, вход и управление пользователями.
type AuthService struct {
	repo         AuthRepository
	tokenManager *TokenManager
}

// RegisterInput содержит данные пользователя при регистрации.
type RegisterInput struct {
	Email    string
	Password string
	Username string
}

// LoginInput содержит данные для входа.
type LoginInput struct {
	Email    string
	Password string
}

// AuthResult итог регистрации или входа.
type AuthResult struct {
	User        *models.User `json:"user"`
	AccessToken string       `json:"access_token"`
	ExpiresAt   time.Time    `json:"expires_at"`
}

// NewAuthService создаёт сервис аутентификации.
func NewAuthService(repo AuthRepository, tokenManager *TokenManager) *AuthService {
	return &AuthService{
		repo:         repo,
		tokenManager: tokenManager,
	}
}

// Register создаёт нового пользователя с ролью user.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if err := validation.ValidateEmail(email); err != nil {
		return nil, validationError(err.Error())
	}
	username := strings.TrimSpace(in.Username)
	if err := validation.ValidateUsername(username); err != nil {
		return nil, validationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, validationError(err.Error())
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	user := &models.User{
		Email:        email,
		Username:     username,
		PasswordHash: string(passHash),
		Role:         models.RoleUser,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, mapRepoError(err)
	}

	return s.issue(user)
}

// Login проверяет учётные данные и возвращает токен.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrInvalidCredentials
		}
		return nil, mapRepoError(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, apperror.ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, apperror.New(apperror.ErrCodeForbidden, "аккаунт заблокирован")
	}

	if err := s.repo.UpdateLastLoginAt(ctx, user.ID); err != nil {
		// не прерываем вход
		logger.Log.WithFields(logrus.Fields{
			"user_id": user.ID,
			"error":   err.Error(),
		}).Warn("auth service: не удалось обновить last_login_at")
	}

	return s.issue(user)
}

// GetProfile возвращает собственный профиль вместе с репутацией.
func (s *AuthService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return user, nil
}

// GetPublicProfile возвращает профиль, который видят другие пользователи.
func (s *AuthService) GetPublicProfile(ctx context.Context, userID uuid.UUID) (*models.PublicProfile, error) {
	profile, err := s.repo.GetPublicProfile(ctx, userID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return profile, nil
}

// ListUsers список пользователей для админки.
func (s *AuthService) ListUsers(ctx context.Context, search string, limit, offset int) ([]models.User, error) {
	limit, offset = normalizePage(limit, offset)
	users, err := s.repo.List(ctx, strings.TrimSpace(search), limit, offset)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return users, nil
}

// SetUserActive блокирует или разблокирует пользователя. Себя заблокировать нельзя.
func (s *AuthService) SetUserActive(ctx context.Context, adminID, userID uuid.UUID, active bool) error {
	if adminID == userID && !active {
		return apperror.New(apperror.ErrCodeBadRequest, "нельзя заблокировать собственный аккаунт")
	}
	if err := s.repo.SetActive(ctx, userID, active); err != nil {
		return mapRepoError(err)
	}
	logger.Log.WithFields(logrus.Fields{"admin_id": adminID, "user_id": userID, "active": active}).Info("auth service: статус пользователя изменён")
	return nil
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, exp, err := s.tokenManager.Generate(user)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return &AuthResult{User: user, AccessToken: token, ExpiresAt: exp}, nil
}
