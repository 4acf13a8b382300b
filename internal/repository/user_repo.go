package repository

import (
	"context"

	"github.com/KobaKhit/rebelzapp/internal/models"
	"gorm.io/gorm"
)

type UserRepository interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	HasPermission(ctx context.Context, userID uint, permission string) (bool, error)
	HasRole(ctx context.Context, userID uint, role string) (bool, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Preload("Roles").First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// HasPermission checks the user's roles for a named capability. The admin
// role implicitly holds every permission.
func (r *userRepository) HasPermission(ctx context.Context, userID uint, permission string) (bool, error) {
	if ok, err := r.HasRole(ctx, userID, models.RoleAdmin); err != nil || ok {
		return ok, err
	}

	var count int64
	err := r.db.WithContext(ctx).
		Table("permissions").
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Joins("JOIN user_roles ON user_roles.role_id = role_permissions.role_id").
		Where("user_roles.user_id = ? AND permissions.name = ?", userID, permission).
		Count(&count).Error
	return count > 0, err
}

func (r *userRepository) HasRole(ctx context.Context, userID uint, role string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("roles").
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ? AND roles.name = ?", userID, role).
		Count(&count).Error
	return count > 0, err
}
