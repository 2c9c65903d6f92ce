package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/eddwmvv/projetovereler-sub001/internal/dto"
	"github.com/eddwmvv/projetovereler-sub001/internal/model"
	"github.com/eddwmvv/projetovereler-sub001/internal/repository"
	pkgerrors "github.com/eddwmvv/projetovereler-sub001/pkg/errors"
)

// LifecycleService student phase machine, deactivation and reactivation.
// Every transition writes a PhaseHistory row in the same transaction as the
// student update.
type LifecycleService interface {
	ChangePhase(ctx context.Context, sess Session, studentID string, req *dto.ChangePhaseRequest) (*dto.ChangePhaseResponse, error)
	BatchChangePhase(ctx context.Context, sess Session, req *dto.BatchChangePhaseRequest) (*dto.BatchChangePhaseResponse, error)
	Deactivate(ctx context.Context, sess Session, studentID, reason string) (*dto.StudentResponse, error)
	Reactivate(ctx context.Context, sess Session, studentID string) (*dto.StudentResponse, error)
	History(ctx context.Context, sess Session, studentID string) ([]dto.PhaseHistoryResponse, error)
}

type lifecycleService struct {
	repo       *repository.Repository
	assignment AssignmentService
	inv        reportInvalidator
	logger     *zap.Logger
}

// NewLifecycleService creates a LifecycleService; assignment serves the
// optional frame release of ChangePhase
func NewLifecycleService(repo *repository.Repository, assignment AssignmentService, inv reportInvalidator, logger *zap.Logger) LifecycleService {
	return &lifecycleService{repo: repo, assignment: assignment, inv: inv, logger: logger}
}

// phaseChangeMetadata stored in PhaseHistory.Metadata
type phaseChangeMetadata struct {
	FromPhase  model.Phase       `json:"from_phase"`
	FromStatus model.PhaseStatus `json:"from_status"`
	ToPhase    model.Phase       `json:"to_phase"`
	ToStatus   model.PhaseStatus `json:"to_status"`
}

// ────────────────────── ChangePhase ──────────────────────

func (s *lifecycleService) ChangePhase(ctx context.Context, sess Session, studentID string, req *dto.ChangePhaseRequest) (*dto.ChangePhaseResponse, error) {
	to := model.Phase(req.Phase)
	status := model.PhaseStatus(req.Status)
	if status == "" {
		status = model.PhaseStatusPending
	}
	if !to.Valid() {
		return nil, pkgerrors.NewValidation(pkgerrors.KindInvalidField, "unknown phase", req.Phase)
	}
	if !status.Valid() {
		return nil, pkgerrors.NewValidation(pkgerrors.KindInvalidField, "unknown phase status", req.Status)
	}
	reason := strings.TrimSpace(req.InterruptionReason)
	if status == model.PhaseStatusInterrupted && reason == "" {
		return nil, pkgerrors.NewValidation(pkgerrors.KindInvalidField, "interruption_reason is required when status is interrupted", studentID)
	}
	if status != model.PhaseStatusInterrupted {
		reason = ""
	}

	student, err := loadStudent(ctx, s.repo, sess, studentID, s.logger)
	if err != nil {
		return nil, err
	}
	if !student.IsActive {
		return nil, ErrStudentInactive
	}

	from, fromStatus := student.Phase, student.PhaseStatus
	student.Phase = to
	student.PhaseStatus = status
	student.InterruptionReason = reason
	student.Stamp(sess.UserID)

	history := &model.PhaseHistory{
		StudentID:          student.StudentID,
		Phase:              to,
		Status:             status,
		Notes:              req.Notes,
		InterruptionReason: reason,
		ActorID:            actorRef(sess),
		Metadata: mustJSON(phaseChangeMetadata{
			FromPhase:  from,
			FromStatus: fromStatus,
			ToPhase:    to,
			ToStatus:   status,
		}),
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Student.Update(ctx, student); err != nil {
			return err
		}
		return tx.PhaseHistory.Create(ctx, history)
	})
	if err != nil {
		s.logger.Error("failed to change phase", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("student phase changed",
		zap.String("student_id", studentID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("status", string(status)),
	)
	s.inv.invalidate(ctx)

	resp := &dto.ChangePhaseResponse{
		Student:               *toStudentResponse(student),
		History:               toPhaseHistoryResponse(history),
		FrameReleaseSuggested: model.LeavesFrameWindowBackwards(from, to),
	}

	if req.ReleaseFrame {
		released, err := s.assignment.ReleaseCurrentForStudent(ctx, sess, studentID, "released on phase change to "+string(to))
		if err != nil {
			// the phase change is already committed
			return resp, err
		}
		resp.ReleasedFrame = released
		resp.FrameReleaseSuggested = false
	}
	return resp, nil
}

// ────────────────────── BatchChangePhase ──────────────────────

func (s *lifecycleService) BatchChangePhase(ctx context.Context, sess Session, req *dto.BatchChangePhaseRequest) (*dto.BatchChangePhaseResponse, error) {
	ids := uniqueStrings(req.StudentIDs)
	resp := &dto.BatchChangePhaseResponse{Processed: make([]string, 0, len(ids))}

	for _, id := range ids {
		if _, err := s.ChangePhase(ctx, sess, id, &req.ChangePhaseRequest); err != nil {
			resp.FailedID = id
			s.logger.Warn("batch phase change halted",
				zap.Int("processed", len(resp.Processed)),
				zap.String("failed_id", id),
				zap.Error(err),
			)
			return resp, err
		}
		resp.Processed = append(resp.Processed, id)
	}
	return resp, nil
}

// ────────────────────── Deactivate ──────────────────────

func (s *lifecycleService) Deactivate(ctx context.Context, sess Session, studentID, reason string) (*dto.StudentResponse, error) {
	student, err := loadStudent(ctx, s.repo, sess, studentID, s.logger)
	if err != nil {
		return nil, err
	}
	if !student.IsActive {
		return nil, ErrStudentInactive
	}

	now := time.Now()
	reason = strings.TrimSpace(reason)
	student.IsActive = false
	student.DeactivatedAt = &now
	student.DeactivatedBy = actorRef(sess)
	student.DeactivationReason = reason
	student.Stamp(sess.UserID)

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Student.Update(ctx, student); err != nil {
			return err
		}
		return tx.PhaseHistory.Create(ctx, &model.PhaseHistory{
			StudentID: student.StudentID,
			Phase:     student.Phase,
			Status:    model.PhaseStatusDeactivated,
			Notes:     reason,
			ActorID:   actorRef(sess),
		})
	})
	if err != nil {
		s.logger.Error("failed to deactivate student", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("student deactivated", zap.String("student_id", studentID), zap.String("actor", sess.UserID))
	s.inv.invalidate(ctx)
	return toStudentResponse(student), nil
}

// ────────────────────── Reactivate ──────────────────────

func (s *lifecycleService) Reactivate(ctx context.Context, sess Session, studentID string) (*dto.StudentResponse, error) {
	student, err := loadStudent(ctx, s.repo, sess, studentID, s.logger)
	if err != nil {
		return nil, err
	}
	if student.IsActive {
		return nil, ErrStudentAlreadyActive
	}

	previous := student.Phase
	student.IsActive = true
	student.Phase = model.PhaseScreening
	student.PhaseStatus = model.PhaseStatusPending
	student.InterruptionReason = ""
	student.DeactivatedAt = nil
	student.DeactivatedBy = nil
	student.DeactivationReason = ""
	student.Stamp(sess.UserID)

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Student.Update(ctx, student); err != nil {
			return err
		}
		return tx.PhaseHistory.Create(ctx, &model.PhaseHistory{
			StudentID: student.StudentID,
			Phase:     model.PhaseScreening,
			Status:    model.PhaseStatusReactivated,
			ActorID:   actorRef(sess),
			Metadata: mustJSON(phaseChangeMetadata{
				FromPhase: previous,
				ToPhase:   model.PhaseScreening,
				ToStatus:  model.PhaseStatusPending,
			}),
		})
	})
	if err != nil {
		s.logger.Error("failed to reactivate student", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("student reactivated", zap.String("student_id", studentID), zap.String("actor", sess.UserID))
	s.inv.invalidate(ctx)
	return toStudentResponse(student), nil
}

// ────────────────────── History ──────────────────────

func (s *lifecycleService) History(ctx context.Context, sess Session, studentID string) ([]dto.PhaseHistoryResponse, error) {
	if _, err := loadStudent(ctx, s.repo, sess, studentID, s.logger); err != nil {
		return nil, err
	}
	rows, err := s.repo.PhaseHistory.ListByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error("failed to list phase history", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.PhaseHistoryResponse, 0, len(rows))
	for i := range rows {
		result = append(result, toPhaseHistoryResponse(&rows[i]))
	}
	return result, nil
}

// ── helpers ──

func mustJSON(v interface{}) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(b)
}

func toPhaseHistoryResponse(h *model.PhaseHistory) dto.PhaseHistoryResponse {
	resp := dto.PhaseHistoryResponse{
		ID:                 h.PhaseHistoryID,
		StudentID:          h.StudentID,
		Phase:              string(h.Phase),
		Status:             string(h.Status),
		Notes:              h.Notes,
		InterruptionReason: h.InterruptionReason,
		CreatedAt:          dto.FormatTime(h.CreatedAt),
	}
	if h.ActorID != nil {
		resp.ActorID = *h.ActorID
	}
	return resp
}
