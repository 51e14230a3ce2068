package repository

import (
	"context"
	"time"

	"example.com/backstage/services/inventory/internal/models"
)

func (r *repo) CreateUser(ctx context.Context, user *models.User) error {
	gormDB, err := r.conn(ctx)
	if err != nil {
		return err
	}
	return translateError(gormDB.Create(user).Error)
}

func (r *repo) UpdateUser(ctx context.Context, user *models.User) error {
	gormDB, err := r.conn(ctx)
	if err != nil {
		return err
	}
	return translateError(gormDB.Save(user).Error)
}

func (r *repo) FindUserByID(ctx context.Context, id uint) (*models.User, error) {
	return r.findUser(ctx, "id = ?", id)
}

func (r *repo) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findUser(ctx, "email = ?", email)
}

func (r *repo) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findUser(ctx, "username = ?", username)
}

func (r *repo) findUser(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	gormDB, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := gormDB.Where(query, arg).First(&user).Error; err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

func (r *repo) ListUsers(ctx context.Context) ([]*models.User, error) {
	gormDB, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}

	var users []*models.User
	if err := gormDB.Order("username").Find(&users).Error; err != nil {
		return nil, translateError(err)
	}
	return users, nil
}

func (r *repo) ListUsersWithPasswordBefore(ctx context.Context, changedBefore time.Time) ([]*models.User, error) {
	gormDB, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}

	var users []*models.User
	err = gormDB.
		Where("is_active = ?", true).
		Where("last_password_change < ?", changedBefore).
		Order("last_password_change").
		Find(&users).Error
	if err != nil {
		return nil, translateError(err)
	}
	return users, nil
}
