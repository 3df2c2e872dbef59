package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/webdiner/webdiner/app/models"
	"github.com/webdiner/webdiner/app/services"
)

// UserRepository handles database operations for User.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

var _ services.UserStore = (*UserRepository)(nil)

// FindByEmployeeCode looks up a user by their employee code.
func (r *UserRepository) FindByEmployeeCode(ctx context.Context, code string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("employee_code = ?", code).Take(&user).Error
	return found(&user, err, "find user by employee code")
}

// FindAnyByEmployeeCode is FindByEmployeeCode including soft-deleted rows,
// which still hold their code in the unique index.
func (r *UserRepository) FindAnyByEmployeeCode(ctx context.Context, code string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Unscoped().Where("employee_code = ?", code).Take(&user).Error
	return found(&user, err, "find user by employee code")
}

// FindByID looks up a user by primary key.
func (r *UserRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Take(&user, id).Error
	return found(&user, err, "find user")
}

// Create persists a new user record.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("repositories: create user: %w", err)
	}
	return nil
}

// Save persists changes to an existing user.
func (r *UserRepository) Save(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return fmt.Errorf("repositories: save user: %w", err)
	}
	return nil
}

// Delete soft-deletes the user.
func (r *UserRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.User{}, id).Error; err != nil {
		return fmt.Errorf("repositories: delete user %d: %w", id, err)
	}
	return nil
}

// List returns all users ordered by employee code.
func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).Order("employee_code").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("repositories: list users: %w", err)
	}
	return users, nil
}
