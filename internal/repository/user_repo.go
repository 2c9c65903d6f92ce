package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/eddwmvv/projetovereler-sub001/internal/model"
)

// UserRepository user, profile and role data access
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	CreateProfile(ctx context.Context, profile *model.Profile) error
	AddRole(ctx context.Context, role *model.UserRole) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	TouchSignIn(ctx context.Context, id string, at time.Time) error
	CountByRole(ctx context.Context, role string) (int64, error)
}

// userRepo UserRepository on gorm
type userRepo struct {
	db *gorm.DB
}

// NewUserRepo creates a UserRepository
func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(user).Error
}

func (r *userRepo) CreateProfile(ctx context.Context, profile *model.Profile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}

func (r *userRepo) AddRole(ctx context.Context, role *model.UserRole) error {
	return r.db.WithContext(ctx).Create(role).Error
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Preload("Profile").
		Preload("Roles").
		Where("user_id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Preload("Profile").
		Preload("Roles").
		Where("LOWER(email) = LOWER(?)", email).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) TouchSignIn(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("user_id = ?", id).
		Update("last_sign_in_at", at).Error
}

func (r *userRepo) CountByRole(ctx context.Context, role string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.UserRole{}).Where("role = ?", role).Count(&n).Error
	return n, err
}
