package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/webdiner/webdiner/app/models"
	"github.com/webdiner/webdiner/app/services"
)

// DirectoryRepository reads employees and departments for reports.
type DirectoryRepository struct {
	db *gorm.DB
}

func NewDirectoryRepository(db *gorm.DB) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

var _ services.Directory = (*DirectoryRepository)(nil)

func (r *DirectoryRepository) ActiveEmployees(ctx context.Context) ([]models.User, error) {
	var rows []models.User
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("employee_code").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("repositories: active employees: %w", err)
	}
	return rows, nil
}

// Employee returns the user with id, active or not.
func (r *DirectoryRepository) Employee(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).Take(&u, id).Error
	return found(&u, err, "find employee")
}

func (r *DirectoryRepository) EmployeesByID(ctx context.Context, ids []uint) (map[uint]models.User, error) {
	out := make(map[uint]models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("repositories: employees by id: %w", err)
	}
	for _, u := range rows {
		out[u.ID] = u
	}
	return out, nil
}

func (r *DirectoryRepository) DepartmentNames(ctx context.Context) (map[uint]string, error) {
	var rows []models.Department
	if err := r.db.WithContext(ctx).Select("id", "name").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("repositories: departments: %w", err)
	}
	out := make(map[uint]string, len(rows))
	for _, d := range rows {
		out[d.ID] = d.Name
	}
	return out, nil
}
