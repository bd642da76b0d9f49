package db

import (
	"context"

	"github.com/RoyceAzure/lab/pizzabot/internal/domain/model"
)

type UserRepo struct {
	dbDao *DbDao
}

func NewUserRepo(dbDao *DbDao) *UserRepo {
	return &UserRepo{dbDao: dbDao}
}

// Create - 創建用戶
func (s *UserRepo) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	if err := s.dbDao.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// Read - 根據ID查詢用戶
func (s *UserRepo) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	if err := s.dbDao.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &user, nil
}

// Read - 查詢所有用戶
func (s *UserRepo) GetAllUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := s.dbDao.WithContext(ctx).Order("created_at, id").Find(&users).Error
	return users, err
}

func (s *UserRepo) GetAdmins(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := s.dbDao.WithContext(ctx).Where("is_admin = ?", true).Order("id").Find(&users).Error
	return users, err
}

// Update - 更新用戶
func (s *UserRepo) UpdateUser(ctx context.Context, user *model.User) error {
	return s.dbDao.WithContext(ctx).Save(user).Error
}

func (s *UserRepo) SetAdmin(ctx context.Context, id int64, isAdmin bool) error {
	res := s.dbDao.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("is_admin", isAdmin)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
