package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eddwmvv/projetovereler-sub001/config"
	"github.com/eddwmvv/projetovereler-sub001/internal/dto"
	"github.com/eddwmvv/projetovereler-sub001/internal/model"
	"github.com/eddwmvv/projetovereler-sub001/internal/repository"
	pkgerrors "github.com/eddwmvv/projetovereler-sub001/pkg/errors"
)

var (
	ErrFrameNotFound     = errors.New("frame not found")
	ErrFrameNotAvailable = errors.New("frame is not available")
	ErrFrameNotInUse     = errors.New("frame is not assigned")
	ErrStudentHasFrame   = errors.New("student already holds a frame")
)

// ────────────────────── numbering check result ──────────────────────

// NumberingCheck outcome of resolving one numbering code: ValidNumbering or
// InvalidNumbering
type NumberingCheck interface {
	Numbering() string
	isNumberingCheck()
}

// ValidNumbering the code resolves to an available frame
type ValidNumbering struct {
	Code  string
	Frame model.Frame
}

// InvalidNumbering the code cannot be assigned
type InvalidNumbering struct {
	Code   string
	Reason string
}

func (v ValidNumbering) Numbering() string   { return v.Code }
func (v InvalidNumbering) Numbering() string { return v.Code }
func (ValidNumbering) isNumberingCheck()     {}
func (InvalidNumbering) isNumberingCheck()   {}

const (
	reasonEmptyNumbering   = "numbering is empty"
	reasonUnknownNumbering = "no frame with this numbering"
)

// AssignmentService binds frames to students and returns them to the pool
type AssignmentService interface {
	Assign(ctx context.Context, sess Session, frameID string, req *dto.AssignFrameRequest) (*dto.AssignmentResponse, error)
	ValidateNumberings(ctx context.Context, codes []string) ([]NumberingCheck, error)
	BatchAssign(ctx context.Context, sess Session, req *dto.BatchAssignRequest) (*dto.BatchAssignResponse, error)
	PlanAutoAssign(ctx context.Context, req *dto.AutoAssignRequest) (*dto.AutoAssignResponse, error)
	Release(ctx context.Context, sess Session, frameID, notes string) (*dto.FrameReleaseResponse, error)
	// ReleaseCurrentForStudent returns nil, nil when the student holds no frame
	ReleaseCurrentForStudent(ctx context.Context, sess Session, studentID, notes string) (*dto.FrameReleaseResponse, error)
	CurrentForStudent(ctx context.Context, sess Session, studentID string) (*dto.FrameResponse, error)
	StudentFrameHistory(ctx context.Context, sess Session, studentID string) ([]dto.FrameHistoryResponse, error)
}

type assignmentService struct {
	cfg    *config.InventoryConfig
	repo   *repository.Repository
	inv    reportInvalidator
	logger *zap.Logger
}

// NewAssignmentService creates an AssignmentService
func NewAssignmentService(cfg *config.InventoryConfig, repo *repository.Repository, inv reportInvalidator, logger *zap.Logger) AssignmentService {
	return &assignmentService{cfg: cfg, repo: repo, inv: inv, logger: logger}
}

// ────────────────────── Assign ──────────────────────

func (s *assignmentService) Assign(ctx context.Context, sess Session, frameID string, req *dto.AssignFrameRequest) (*dto.AssignmentResponse, error) {
	student, err := loadStudent(ctx, s.repo, sess, req.StudentID, s.logger)
	if err != nil {
		return nil, err
	}
	if !student.IsActive {
		return nil, ErrStudentInactive
	}
	held, err := s.repo.Frame.CurrentForStudents(ctx, []string{student.StudentID})
	if err != nil {
		s.logger.Error("failed to load current frame", zap.String("student_id", student.StudentID), zap.Error(err))
		return nil, err
	}
	if _, ok := held[student.StudentID]; ok {
		return nil, ErrStudentHasFrame
	}

	frame, err := s.repo.Frame.GetByID(ctx, frameID)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, ErrFrameNotFound
		}
		s.logger.Error("failed to load frame", zap.String("frame_id", frameID), zap.Error(err))
		return nil, err
	}

	var result dto.AssignmentResponse
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		result, err = s.assignOne(ctx, tx, sess, frame, student.StudentID, req.Notes)
		return err
	})
	if err != nil {
		if !errors.Is(err, ErrFrameNotAvailable) {
			s.logger.Error("failed to assign frame", zap.String("frame_id", frameID), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("frame assigned",
		zap.String("frame_id", frameID),
		zap.String("numbering", frame.Numbering),
		zap.String("student_id", student.StudentID),
	)
	s.inv.invalidate(ctx)
	return &result, nil
}

// assignOne flips the frame to used and appends the history row. The
// conditional update makes a concurrent second assignment lose.
func (s *assignmentService) assignOne(ctx context.Context, tx *repository.Repository, sess Session, frame *model.Frame, studentID, notes string) (dto.AssignmentResponse, error) {
	ok, err := tx.Frame.MarkUsedIfAvailable(ctx, frame.FrameID, sess.UserID)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}
	if !ok {
		return dto.AssignmentResponse{}, ErrFrameNotAvailable
	}

	sid := studentID
	history := &model.FrameHistory{
		FrameID:   frame.FrameID,
		StudentID: &sid,
		Status:    model.FrameHistoryAssigned,
		Notes:     notes,
		ActorID:   actorRef(sess),
	}
	if err := tx.FrameHistory.Create(ctx, history); err != nil {
		return dto.AssignmentResponse{}, err
	}
	frame.Status = model.FrameUsed

	assignedAt := history.CreatedAt
	if assignedAt.IsZero() {
		assignedAt = time.Now()
	}
	return dto.AssignmentResponse{
		FrameID:    frame.FrameID,
		Numbering:  frame.Numbering,
		StudentID:  studentID,
		HistoryID:  history.FrameHistoryID,
		AssignedAt: dto.FormatTime(assignedAt),
	}, nil
}

// ────────────────────── ValidateNumberings ──────────────────────

func (s *assignmentService) ValidateNumberings(ctx context.Context, codes []string) ([]NumberingCheck, error) {
	frames, err := s.repo.Frame.ListByNumberings(ctx, uniqueStrings(codes))
	if err != nil {
		s.logger.Error("failed to resolve numberings", zap.Error(err))
		return nil, err
	}
	byCode := make(map[string]model.Frame, len(frames))
	for _, f := range frames {
		byCode[f.Numbering] = f
	}

	checks := make([]NumberingCheck, 0, len(codes))
	for _, raw := range codes {
		checks = append(checks, checkNumbering(strings.TrimSpace(raw), byCode))
	}
	return checks, nil
}

func checkNumbering(code string, byCode map[string]model.Frame) NumberingCheck {
	if code == "" {
		return InvalidNumbering{Code: code, Reason: reasonEmptyNumbering}
	}
	f, ok := byCode[code]
	if !ok {
		return InvalidNumbering{Code: code, Reason: reasonUnknownNumbering}
	}
	if f.Status != model.FrameAvailable {
		return InvalidNumbering{Code: code, Reason: "frame is " + string(f.Status)}
	}
	return ValidNumbering{Code: code, Frame: f}
}

// NumberingCheckResponses renders checks for clients, keeping their order
func NumberingCheckResponses(checks []NumberingCheck) []dto.NumberingValidationResponse {
	out := make([]dto.NumberingValidationResponse, 0, len(checks))
	for _, check := range checks {
		switch v := check.(type) {
		case ValidNumbering:
			out = append(out, dto.NumberingValidationResponse{Numbering: v.Code, Valid: true, Frame: toFrameResponse(&v.Frame)})
		case InvalidNumbering:
			out = append(out, dto.NumberingValidationResponse{Numbering: v.Code, Reason: v.Reason})
		}
	}
	return out
}

// ────────────────────── BatchAssign ──────────────────────

// BatchAssign validates the whole batch before touching anything: missing
// numbering, then unknown or unavailable codes, then duplicate codes, then
// the students themselves. Each check reports every offending item.
func (s *assignmentService) BatchAssign(ctx context.Context, sess Session, req *dto.BatchAssignRequest) (*dto.BatchAssignResponse, error) {
	items := make([]dto.BatchAssignItem, len(req.Items))
	for i, it := range req.Items {
		items[i] = dto.BatchAssignItem{StudentID: strings.TrimSpace(it.StudentID), Numbering: strings.TrimSpace(it.Numbering)}
	}

	// 1. missing numbering
	var missing []string
	for _, it := range items {
		if it.Numbering == "" {
			missing = append(missing, it.StudentID)
		}
	}
	if len(missing) > 0 {
		return nil, pkgerrors.NewValidation(pkgerrors.KindMissingNumbering, "students without a numbering", missing...)
	}

	// 2. unknown or unavailable codes
	codes := make([]string, 0, len(items))
	for _, it := range items {
		codes = append(codes, it.Numbering)
	}
	frames, err := s.repo.Frame.ListByNumberings(ctx, uniqueStrings(codes))
	if err != nil {
		s.logger.Error("failed to resolve numberings", zap.Error(err))
		return nil, err
	}
	byCode := make(map[string]model.Frame, len(frames))
	for _, f := range frames {
		byCode[f.Numbering] = f
	}
	var invalid []string
	reported := make(map[string]bool)
	for _, code := range codes {
		if _, ok := checkNumbering(code, byCode).(InvalidNumbering); ok && !reported[code] {
			reported[code] = true
			invalid = append(invalid, code)
		}
	}
	if len(invalid) > 0 {
		return nil, pkgerrors.NewValidation(pkgerrors.KindUnknownNumbering, "numberings without an available frame", invalid...)
	}

	// 3. duplicate codes inside the batch
	if dups := duplicates(codes); len(dups) > 0 {
		return nil, pkgerrors.NewValidation(pkgerrors.KindDuplicateNumbering, "numberings used for more than one student", dups...)
	}

	// 4. students
	if err := s.checkBatchStudents(ctx, sess, items); err != nil {
		return nil, err
	}

	atomic := s.cfg != nil && s.cfg.AtomicBatchAssign
	resp := &dto.BatchAssignResponse{Assigned: make([]dto.AssignmentResponse, 0, len(items)), Atomic: atomic}

	run := func(tx *repository.Repository, it dto.BatchAssignItem) (dto.AssignmentResponse, error) {
		frame := byCode[it.Numbering]
		return s.assignOne(ctx, tx, sess, &frame, it.StudentID, req.Notes)
	}

	if atomic {
		pending := make([]dto.AssignmentResponse, 0, len(items))
		err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
			for _, it := range items {
				assigned, err := run(tx, it)
				if err != nil {
					return err
				}
				pending = append(pending, assigned)
			}
			return nil
		})
		if err != nil {
			s.logger.Warn("atomic batch assignment rolled back", zap.Error(err))
			return resp, err
		}
		resp.Assigned = append(resp.Assigned, pending...)
	} else {
		for _, it := range items {
			var assigned dto.AssignmentResponse
			err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
				var err error
				assigned, err = run(tx, it)
				return err
			})
			if err != nil {
				s.logger.Warn("batch assignment halted",
					zap.Int("assigned", len(resp.Assigned)),
					zap.String("numbering", it.Numbering),
					zap.Error(err),
				)
				if len(resp.Assigned) > 0 {
					s.inv.invalidate(ctx)
				}
				return resp, err
			}
			// recorded only once its transaction committed
			resp.Assigned = append(resp.Assigned, assigned)
		}
	}

	s.logger.Info("batch assignment done", zap.Int("assigned", len(resp.Assigned)), zap.Bool("atomic", atomic))
	s.inv.invalidate(ctx)
	return resp, nil
}

// checkBatchStudents rejects unknown, foreign, inactive, repeated students and
// students already holding a frame
func (s *assignmentService) checkBatchStudents(ctx context.Context, sess Session, items []dto.BatchAssignItem) error {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.StudentID)
	}
	students, err := s.repo.Student.ListByIDs(ctx, uniqueStrings(ids))
	if err != nil {
		s.logger.Error("failed to load batch students", zap.Error(err))
		return err
	}
	byID := make(map[string]model.Student, len(students))
	for _, st := range students {
		byID[st.StudentID] = st
	}
	held, err := s.repo.Frame.CurrentForStudents(ctx, uniqueStrings(ids))
	if err != nil {
		s.logger.Error("failed to load current frames", zap.Error(err))
		return err
	}

	var bad []string
	reported := make(map[string]bool)
	for _, id := range ids {
		st, ok := byID[id]
		_, holds := held[id]
		if !ok || !st.IsActive || holds || sess.Authorize(st.CompanyID) != nil {
			if !reported[id] {
				reported[id] = true
				bad = append(bad, id)
			}
		}
	}
	for _, id := range duplicates(ids) {
		if !reported[id] {
			reported[id] = true
			bad = append(bad, id)
		}
	}
	if len(bad) > 0 {
		return pkgerrors.NewValidation(pkgerrors.KindInvalidField,
			"students must exist, be active, appear once and hold no frame", bad...)
	}
	return nil
}

// duplicates values seen more than once, each reported once in first-seen order
func duplicates(values []string) []string {
	count := make(map[string]int, len(values))
	for _, v := range values {
		count[v]++
	}
	var out []string
	for _, v := range values {
		if count[v] > 1 {
			out = append(out, v)
			count[v] = 0
		}
	}
	return out
}

// ────────────────────── PlanAutoAssign ──────────────────────

// PlanAutoAssign pairs items without a numbering with available frames in
// numbering order, skipping codes the batch already names. Nothing is written.
func (s *assignmentService) PlanAutoAssign(ctx context.Context, req *dto.AutoAssignRequest) (*dto.AutoAssignResponse, error) {
	named := make(map[string]bool, len(req.Items))
	for _, it := range req.Items {
		if code := strings.TrimSpace(it.Numbering); code != "" {
			named[code] = true
		}
	}

	available, err := s.repo.Frame.ListAvailable(ctx, 0)
	if err != nil {
		s.logger.Error("failed to list available frames", zap.Error(err))
		return nil, err
	}

	resp := &dto.AutoAssignResponse{Items: make([]dto.BatchAssignItem, 0, len(req.Items))}
	next := 0
	for _, it := range req.Items {
		item := dto.BatchAssignItem{StudentID: it.StudentID, Numbering: strings.TrimSpace(it.Numbering)}
		if item.Numbering == "" {
			for next < len(available) && named[available[next].Numbering] {
				next++
			}
			if next < len(available) {
				item.Numbering = available[next].Numbering
				next++
			} else {
				resp.Unmatched = append(resp.Unmatched, it.StudentID)
			}
		}
		resp.Items = append(resp.Items, item)
	}
	return resp, nil
}

// ────────────────────── Release ──────────────────────

func (s *assignmentService) Release(ctx context.Context, sess Session, frameID, notes string) (*dto.FrameReleaseResponse, error) {
	frame, err := s.repo.Frame.GetByID(ctx, frameID)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, ErrFrameNotFound
		}
		s.logger.Error("failed to load frame", zap.String("frame_id", frameID), zap.Error(err))
		return nil, err
	}
	if frame.Status != model.FrameUsed {
		return nil, ErrFrameNotInUse
	}

	rows, err := s.repo.FrameHistory.ListByFrame(ctx, frameID)
	if err != nil {
		s.logger.Error("failed to load frame history", zap.String("frame_id", frameID), zap.Error(err))
		return nil, err
	}
	var holder string
	if len(rows) > 0 && rows[0].Status == model.FrameHistoryAssigned && rows[0].StudentID != nil {
		holder = *rows[0].StudentID
	}
	if holder != "" {
		if st, err := s.repo.Student.GetByID(ctx, holder); err == nil {
			if err := sess.Authorize(st.CompanyID); err != nil {
				return nil, err
			}
		} else if !pkgerrors.IsNotFound(err) {
			return nil, err
		}
	} else if sess.UserID == "" {
		return nil, pkgerrors.ErrUnauthenticated
	}

	return s.release(ctx, sess, frame, holder, notes)
}

func (s *assignmentService) ReleaseCurrentForStudent(ctx context.Context, sess Session, studentID, notes string) (*dto.FrameReleaseResponse, error) {
	if _, err := loadStudent(ctx, s.repo, sess, studentID, s.logger); err != nil {
		return nil, err
	}
	held, err := s.repo.Frame.CurrentForStudents(ctx, []string{studentID})
	if err != nil {
		s.logger.Error("failed to load current frame", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}
	frame, ok := held[studentID]
	if !ok {
		return nil, nil
	}
	return s.release(ctx, sess, &frame, studentID, notes)
}

func (s *assignmentService) release(ctx context.Context, sess Session, frame *model.Frame, holder, notes string) (*dto.FrameReleaseResponse, error) {
	history := &model.FrameHistory{
		FrameID: frame.FrameID,
		Status:  model.FrameHistoryReleased,
		Notes:   notes,
		ActorID: actorRef(sess),
	}
	if holder != "" {
		h := holder
		history.StudentID = &h
	}

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Frame.SetStatus(ctx, frame.FrameID, model.FrameAvailable, sess.UserID); err != nil {
			return err
		}
		return tx.FrameHistory.Create(ctx, history)
	})
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, ErrFrameNotFound
		}
		s.logger.Error("failed to release frame", zap.String("frame_id", frame.FrameID), zap.Error(err))
		return nil, err
	}
	frame.Status = model.FrameAvailable

	releasedAt := history.CreatedAt
	if releasedAt.IsZero() {
		releasedAt = time.Now()
	}
	s.logger.Info("frame released",
		zap.String("frame_id", frame.FrameID),
		zap.String("numbering", frame.Numbering),
		zap.String("student_id", holder),
	)
	s.inv.invalidate(ctx)

	return &dto.FrameReleaseResponse{
		FrameID:    frame.FrameID,
		Numbering:  frame.Numbering,
		StudentID:  holder,
		ReleasedAt: dto.FormatTime(releasedAt),
	}, nil
}

// ────────────────────── student views ──────────────────────

func (s *assignmentService) CurrentForStudent(ctx context.Context, sess Session, studentID string) (*dto.FrameResponse, error) {
	if _, err := loadStudent(ctx, s.repo, sess, studentID, s.logger); err != nil {
		return nil, err
	}
	held, err := s.repo.Frame.CurrentForStudents(ctx, []string{studentID})
	if err != nil {
		s.logger.Error("failed to load current frame", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}
	frame, ok := held[studentID]
	if !ok {
		return nil, nil
	}
	return toFrameResponse(&frame), nil
}

func (s *assignmentService) StudentFrameHistory(ctx context.Context, sess Session, studentID string) ([]dto.FrameHistoryResponse, error) {
	if _, err := loadStudent(ctx, s.repo, sess, studentID, s.logger); err != nil {
		return nil, err
	}
	rows, err := s.repo.FrameHistory.ListByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error("failed to list frame history", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}
	result := make([]dto.FrameHistoryResponse, 0, len(rows))
	for i := range rows {
		result = append(result, toFrameHistoryResponse(&rows[i]))
	}
	return result, nil
}

func toFrameHistoryResponse(h *model.FrameHistory) dto.FrameHistoryResponse {
	resp := dto.FrameHistoryResponse{
		ID:        h.FrameHistoryID,
		FrameID:   h.FrameID,
		Status:    string(h.Status),
		Notes:     h.Notes,
		CreatedAt: dto.FormatTime(h.CreatedAt),
	}
	if h.Frame != nil {
		resp.Numbering = h.Frame.Numbering
	}
	if h.StudentID != nil {
		resp.StudentID = *h.StudentID
	}
	if h.ActorID != nil {
		resp.ActorID = *h.ActorID
	}
	return resp
}
