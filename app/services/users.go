package services

import (
	"context"
	"fmt"

	"github.com/webdiner/webdiner/app/models"
	"github.com/webdiner/webdiner/pkg/auth"
	"github.com/webdiner/webdiner/pkg/database"
	"github.com/webdiner/webdiner/pkg/logger"
)

// NewUser is the input for creating an account.
type NewUser struct {
	EmployeeCode     string      `json:"employee_id" validate:"required,alpha_dash,max=50"`
	Name             string      `json:"name" validate:"required,max=100"`
	Extension        string      `json:"extension" validate:"max=20"`
	Email            string      `json:"email" validate:"nullable,email"`
	Password         string      `json:"password" validate:"required,min=6"`
	Role             models.Role `json:"role" validate:"nullable,in=user,admin,sysadmin"`
	DepartmentID     *uint       `json:"department_id"`
	Title            string      `json:"title" validate:"max=50"`
	IsDepartmentHead bool        `json:"is_department_head"`
}

// UserPatch changes only the fields that are set.
type UserPatch struct {
	Name             *string      `json:"name" validate:"nullable,max=100"`
	Extension        *string      `json:"extension" validate:"nullable,max=20"`
	Email            *string      `json:"email" validate:"nullable,email"`
	Password         *string      `json:"password" validate:"nullable,min=6"`
	Role             *models.Role `json:"role" validate:"nullable,in=user,admin,sysadmin"`
	IsActive         *bool        `json:"is_active"`
	DepartmentID     *uint        `json:"department_id"`
	Title            *string      `json:"title" validate:"nullable,max=50"`
	IsDepartmentHead *bool        `json:"is_department_head"`
}

// UserService manages accounts under the role hierarchy.
type UserService struct {
	users UserStore
	gate  Gate
}

func NewUserService(users UserStore) *UserService {
	return &UserService{users: users}
}

// Principal loads the caller's current role and active flag.
func (s *UserService) Principal(ctx context.Context, id uint) (models.Principal, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return models.Principal{}, err
	}
	return u.Principal(), nil
}

func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, storageErr(err)
	}
	if u == nil {
		return nil, fmt.Errorf("%w: user %d", ErrNotFound, id)
	}
	return u, nil
}

func (s *UserService) List(ctx context.Context, actor models.Principal) ([]models.User, error) {
	if err := s.gate.RequireAdmin(actor); err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, storageErr(err)
	}
	return users, nil
}

func (s *UserService) Create(ctx context.Context, actor models.Principal, in NewUser) (*models.User, error) {
	role := in.Role
	if role == "" {
		role = models.RoleUser
	}
	if err := s.gate.CanCreate(actor, role); err != nil {
		return nil, err
	}
	existing, err := s.users.FindAnyByEmployeeCode(ctx, in.EmployeeCode)
	if err != nil {
		return nil, storageErr(err)
	}
	if existing != nil {
		if existing.DeletedAt.Valid {
			return nil, fmt.Errorf("%w: employee id %s belongs to a deleted account (user %d)", ErrConflict, in.EmployeeCode, existing.ID)
		}
		return nil, fmt.Errorf("%w: employee id %s", ErrConflict, in.EmployeeCode)
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	u := &models.User{
		EmployeeCode:     in.EmployeeCode,
		Name:             in.Name,
		Extension:        in.Extension,
		Email:            in.Email,
		Password:         hash,
		IsActive:         true,
		Role:             role,
		DepartmentID:     in.DepartmentID,
		Title:            in.Title,
		IsDepartmentHead: in.IsDepartmentHead,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: employee id %s", ErrConflict, in.EmployeeCode)
		}
		return nil, storageErr(err)
	}
	logger.WithCtx(ctx).Info("user created", "user_id", u.ID, "role", string(u.Role), "by", actor.ID)
	return u, nil
}

func (s *UserService) Update(ctx context.Context, actor models.Principal, id uint, patch UserPatch) (*models.User, error) {
	target, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.gate.CanUpdate(actor, *target, patch.Role, patch.Password != nil); err != nil {
		return nil, err
	}

	if patch.Name != nil {
		target.Name = *patch.Name
	}
	if patch.Extension != nil {
		target.Extension = *patch.Extension
	}
	if patch.Email != nil {
		target.Email = *patch.Email
	}
	if patch.Role != nil {
		target.Role = *patch.Role
	}
	if patch.IsActive != nil {
		target.IsActive = *patch.IsActive
	}
	if patch.DepartmentID != nil {
		target.DepartmentID = patch.DepartmentID
	}
	if patch.Title != nil {
		target.Title = *patch.Title
	}
	if patch.IsDepartmentHead != nil {
		target.IsDepartmentHead = *patch.IsDepartmentHead
	}
	if patch.Password != nil {
		hash, err := auth.HashPassword(*patch.Password)
		if err != nil {
			return nil, err
		}
		target.Password = hash
	}

	if err := s.users.Save(ctx, target); err != nil {
		return nil, storageErr(err)
	}
	return target, nil
}

func (s *UserService) Delete(ctx context.Context, actor models.Principal, id uint) error {
	target, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.gate.CanDelete(actor, *target); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return storageErr(err)
	}
	logger.WithCtx(ctx).Info("user deleted", "user_id", id, "by", actor.ID)
	return nil
}

// ResetPassword sets targetID's password without knowing the old one.
func (s *UserService) ResetPassword(ctx context.Context, actor models.Principal, targetID uint, password string) error {
	if err := s.gate.CanResetCredential(actor, targetID); err != nil {
		return err
	}
	target, err := s.Get(ctx, targetID)
	if err != nil {
		return err
	}
	return s.setPassword(ctx, target, password)
}

// ChangePassword replaces the caller's own password after checking the
// current one.
func (s *UserService) ChangePassword(ctx context.Context, self models.Principal, current, password string) error {
	u, err := s.Get(ctx, self.ID)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(u.Password, current) {
		return fmt.Errorf("%w: current password is wrong", ErrInvalidCredentials)
	}
	return s.setPassword(ctx, u, password)
}

func (s *UserService) setPassword(ctx context.Context, u *models.User, password string) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	u.Password = hash
	if err := s.users.Save(ctx, u); err != nil {
		return storageErr(err)
	}
	return nil
}
