package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CRUDRepository data access shared by every registry entity
type CRUDRepository[T any] interface {
	Create(ctx context.Context, entity *T) error
	GetByID(ctx context.Context, id string) (*T, error)
	Update(ctx context.Context, entity *T) error
	Delete(ctx context.Context, id string) error
}

// crudRepo CRUDRepository on gorm; pk is the primary key column
type crudRepo[T any] struct {
	db       *gorm.DB
	pk       string
	preloads []string
}

func newCRUDRepo[T any](db *gorm.DB, pk string, preloads ...string) crudRepo[T] {
	return crudRepo[T]{db: db, pk: pk, preloads: preloads}
}

// Create inserts the row only; association links are written by the owning repository
func (r crudRepo[T]) Create(ctx context.Context, entity *T) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(entity).Error
}

func (r crudRepo[T]) GetByID(ctx context.Context, id string) (*T, error) {
	var entity T
	db := r.db.WithContext(ctx)
	for _, p := range r.preloads {
		db = db.Preload(p)
	}
	if err := db.Where(r.pk+" = ?", id).First(&entity).Error; err != nil {
		return nil, err
	}
	return &entity, nil
}

func (r crudRepo[T]) Update(ctx context.Context, entity *T) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(entity).Error
}

// Delete hard-deletes; dependents are removed by the store's cascades
func (r crudRepo[T]) Delete(ctx context.Context, id string) error {
	var entity T
	result := r.db.WithContext(ctx).Where(r.pk+" = ?", id).Delete(&entity)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func paginate(db *gorm.DB, offset, limit int) *gorm.DB {
	if limit > 0 {
		db = db.Offset(offset).Limit(limit)
	}
	return db
}

func likePattern(s string) string {
	return "%" + s + "%"
}
