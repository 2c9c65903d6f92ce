package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/eddwmvv/projetovereler-sub001/internal/model"
)

// FrameFilter frame list filters
type FrameFilter struct {
	Status      model.FrameStatus
	FrameSizeID string
	Search      string
}

// FrameRepository frame inventory data access
type FrameRepository interface {
	CRUDRepository[model.Frame]
	List(ctx context.Context, f FrameFilter, offset, limit int) ([]model.Frame, int64, error)
	ListByNumberings(ctx context.Context, numberings []string) ([]model.Frame, error)
	// ListAvailable available frames ordered by numbering; limit 0 means all
	ListAvailable(ctx context.Context, limit int) ([]model.Frame, error)
	CreateBatch(ctx context.Context, frames []model.Frame) error
	// NextNumbering draws the next value of the numbering sequence
	NextNumbering(ctx context.Context) (int64, error)
	// MarkUsedIfAvailable flips available → used; false when the frame was not available
	MarkUsedIfAvailable(ctx context.Context, frameID, actorID string) (bool, error)
	SetStatus(ctx context.Context, frameID string, status model.FrameStatus, actorID string) error
	// CurrentForStudents frames currently held, keyed by student id
	CurrentForStudents(ctx context.Context, studentIDs []string) (map[string]model.Frame, error)
}

type frameRepo struct {
	crudRepo[model.Frame]
}

// NewFrameRepo creates a FrameRepository
func NewFrameRepo(db *gorm.DB) FrameRepository {
	return &frameRepo{newCRUDRepo[model.Frame](db, "frame_id", "Size")}
}

func (r *frameRepo) List(ctx context.Context, f FrameFilter, offset, limit int) ([]model.Frame, int64, error) {
	var frames []model.Frame
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Frame{})
	if f.Status != "" {
		db = db.Where("status = ?", f.Status)
	}
	if f.FrameSizeID != "" {
		db = db.Where("frame_size_id = ?", f.FrameSizeID)
	}
	if f.Search != "" {
		db = db.Where("numbering LIKE ?", likePattern(f.Search))
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := paginate(db.Preload("Size").Order("numbering ASC"), offset, limit).Find(&frames).Error
	return frames, total, err
}

func (r *frameRepo) ListByNumberings(ctx context.Context, numberings []string) ([]model.Frame, error) {
	var frames []model.Frame
	if len(numberings) == 0 {
		return frames, nil
	}
	err := r.db.WithContext(ctx).Preload("Size").Where("numbering IN ?", numberings).Find(&frames).Error
	return frames, err
}

func (r *frameRepo) ListAvailable(ctx context.Context, limit int) ([]model.Frame, error) {
	var frames []model.Frame
	db := r.db.WithContext(ctx).Where("status = ?", model.FrameAvailable).Order("numbering ASC")
	if limit > 0 {
		db = db.Limit(limit)
	}
	err := db.Find(&frames).Error
	return frames, err
}

func (r *frameRepo) CreateBatch(ctx context.Context, frames []model.Frame) error {
	if len(frames) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).CreateInBatches(frames, 200).Error
}

func (r *frameRepo) NextNumbering(ctx context.Context) (int64, error) {
	var next int64
	err := r.db.WithContext(ctx).Raw("SELECT nextval('frame_numbering_seq')").Scan(&next).Error
	return next, err
}

func (r *frameRepo) MarkUsedIfAvailable(ctx context.Context, frameID, actorID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Frame{}).
		Where("frame_id = ? AND status = ?", frameID, model.FrameAvailable).
		Updates(map[string]interface{}{
			"status":     model.FrameUsed,
			"updated_by": nullableID(actorID),
			"updated_at": gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *frameRepo) SetStatus(ctx context.Context, frameID string, status model.FrameStatus, actorID string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Frame{}).
		Where("frame_id = ?", frameID).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_by": nullableID(actorID),
			"updated_at": gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// heldFrame frame joined with the student of its open assignment
type heldFrame struct {
	model.Frame
	HolderID string `gorm:"column:holder_id"`
}

// CurrentForStudents a student holds a frame when the latest history row of a
// used frame is an assignment to that student.
func (r *frameRepo) CurrentForStudents(ctx context.Context, studentIDs []string) (map[string]model.Frame, error) {
	held := make(map[string]model.Frame, len(studentIDs))
	if len(studentIDs) == 0 {
		return held, nil
	}

	var rows []heldFrame
	err := r.db.WithContext(ctx).Raw(`
		SELECT f.*, h.student_id AS holder_id
		FROM frame_histories h
		JOIN frames f ON f.frame_id = h.frame_id
		WHERE h.student_id IN ?
		  AND h.status = ?
		  AND f.status = ?
		  AND NOT EXISTS (
		      SELECT 1 FROM frame_histories later
		      WHERE later.frame_id = h.frame_id
		        AND (later.created_at, later.frame_history_id) > (h.created_at, h.frame_history_id)
		  )
		ORDER BY h.created_at DESC`,
		studentIDs, model.FrameHistoryAssigned, model.FrameUsed,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		if _, seen := held[row.HolderID]; !seen {
			held[row.HolderID] = row.Frame
		}
	}
	return held, nil
}

// ────────────────────── FrameSize ──────────────────────

// FrameSizeRepository size reference data access
type FrameSizeRepository interface {
	CRUDRepository[model.FrameSize]
	List(ctx context.Context) ([]model.FrameSize, error)
	ListByNames(ctx context.Context, names []string) ([]model.FrameSize, error)
}

type frameSizeRepo struct {
	crudRepo[model.FrameSize]
}

// NewFrameSizeRepo creates a FrameSizeRepository
func NewFrameSizeRepo(db *gorm.DB) FrameSizeRepository {
	return &frameSizeRepo{newCRUDRepo[model.FrameSize](db, "frame_size_id")}
}

func (r *frameSizeRepo) List(ctx context.Context) ([]model.FrameSize, error) {
	var sizes []model.FrameSize
	err := r.db.WithContext(ctx).Order("name ASC").Find(&sizes).Error
	return sizes, err
}

func (r *frameSizeRepo) ListByNames(ctx context.Context, names []string) ([]model.FrameSize, error) {
	var sizes []model.FrameSize
	if len(names) == 0 {
		return sizes, nil
	}
	err := r.db.WithContext(ctx).Where("name IN ?", names).Find(&sizes).Error
	return sizes, err
}

// ────────────────────── FrameHistory ──────────────────────

// FrameHistoryRepository append-only frame assignment log
type FrameHistoryRepository interface {
	Create(ctx context.Context, h *model.FrameHistory) error
	ListByFrame(ctx context.Context, frameID string) ([]model.FrameHistory, error)
	ListByStudent(ctx context.Context, studentID string) ([]model.FrameHistory, error)
}

type frameHistoryRepo struct {
	db *gorm.DB
}

// NewFrameHistoryRepo creates a FrameHistoryRepository
func NewFrameHistoryRepo(db *gorm.DB) FrameHistoryRepository {
	return &frameHistoryRepo{db: db}
}

func (r *frameHistoryRepo) Create(ctx context.Context, h *model.FrameHistory) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(h).Error
}

func (r *frameHistoryRepo) ListByFrame(ctx context.Context, frameID string) ([]model.FrameHistory, error) {
	var rows []model.FrameHistory
	err := r.db.WithContext(ctx).
		Where("frame_id = ?", frameID).
		Order("created_at DESC, frame_history_id DESC").
		Find(&rows).Error
	return rows, err
}

func (r *frameHistoryRepo) ListByStudent(ctx context.Context, studentID string) ([]model.FrameHistory, error) {
	var rows []model.FrameHistory
	err := r.db.WithContext(ctx).
		Preload("Frame").
		Where("student_id = ?", studentID).
		Order("created_at DESC, frame_history_id DESC").
		Find(&rows).Error
	return rows, err
}

func nullableID(id string) interface{} {
	if id == "" {
		return nil
	}
	return id
}
