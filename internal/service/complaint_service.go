package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/pokemarket-backend/internal/logger"
	"github.com/ignatzorin/pokemarket-backend/internal/models"
	"github.com/ignatzorin/pokemarket-backend/internal/validation"
)

type ComplaintRepository interface {
	Create(ctx context.Context, complaint *models.Complaint, notification *models.AdminNotification) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Complaint, error)
	List(ctx context.Context, status string, limit, offset int) ([]models.Complaint, error)
	Resolve(ctx context.Context, id, adminID uuid.UUID, status string) (*models.Complaint, error)
}

// ComplaintInput жалоба пользователя.
type ComplaintInput struct {
	TargetType  string
	TargetID    uuid.UUID
	Reason      string
	Description *string
}

type ComplaintService struct {
	repo ComplaintRepository
	log  *logrus.Entry
}

func NewComplaintService(repo ComplaintRepository) *ComplaintService {
	return &ComplaintService{repo: repo, log: logger.WithComponent("complaint_service")}
}

// CreateComplaint регистрирует жалобу и уведомление для админки.
func (s *ComplaintService) CreateComplaint(ctx context.Context, reporterID uuid.UUID, in ComplaintInput) (*models.Complaint, error) {
	in.TargetType = strings.ToLower(strings.TrimSpace(in.TargetType))
	in.Reason = strings.TrimSpace(in.Reason)

	if _, ok := models.ValidComplaintTargets[in.TargetType]; !ok {
		return nil, validationError("неизвестный тип объекта жалобы")
	}
	if in.TargetID == uuid.Nil {
		return nil, validationError("не указан объект жалобы")
	}
	if in.TargetType == models.ComplaintTargetUser && in.TargetID == reporterID {
		return nil, validationError("нельзя пожаловаться на самого себя")
	}
	if err := validation.ValidateReason(in.Reason); err != nil {
		return nil, validationError(err.Error())
	}
	if in.Description != nil {
		desc := strings.TrimSpace(*in.Description)
		if err := validation.ValidateLength("описание", desc, 0, validation.MaxListingDescLength); err != nil {
			return nil, validationError(err.Error())
		}
		in.Description = &desc
	}

	complaint := &models.Complaint{
		ReporterID:  reporterID,
		TargetType:  in.TargetType,
		TargetID:    in.TargetID,
		Reason:      in.Reason,
		Description: in.Description,
		Status:      models.ComplaintStatusPending,
	}
	payload, _ := json.Marshal(map[string]interface{}{
		"reporter_id": reporterID,
		"target_type": in.TargetType,
		"target_id":   in.TargetID,
		"reason":      in.Reason,
	})
	notification := &models.AdminNotification{Type: models.AdminNotificationNewComplaint, Payload: payload}

	if err := s.repo.Create(ctx, complaint, notification); err != nil {
		return nil, mapRepoError(err)
	}

	s.log.WithFields(logrus.Fields{"complaint_id": complaint.ID, "reporter_id": reporterID, "target_type": in.TargetType}).Info("жалоба создана")
	return complaint, nil
}

func (s *ComplaintService) ListComplaints(ctx context.Context, status string, limit, offset int) ([]models.Complaint, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if status != "" && status != models.ComplaintStatusPending {
		if _, ok := models.ValidComplaintResolutions[status]; !ok {
			return nil, validationError("неизвестный статус жалобы")
		}
	}
	limit, offset = normalizePage(limit, offset)
	complaints, err := s.repo.List(ctx, status, limit, offset)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return complaints, nil
}

// ResolveComplaint закрывает жалобу решением администратора.
func (s *ComplaintService) ResolveComplaint(ctx context.Context, id, adminID uuid.UUID, status string) (*models.Complaint, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if _, ok := models.ValidComplaintResolutions[status]; !ok {
		return nil, validationError("статус должен быть reviewed, action_taken или dismissed")
	}

	complaint, err := s.repo.Resolve(ctx, id, adminID, status)
	if err != nil {
		return nil, mapRepoError(err)
	}

	s.log.WithFields(logrus.Fields{"complaint_id": id, "admin_id": adminID, "status": status}).Info("жалоба рассмотрена")
	return complaint, nil
}
