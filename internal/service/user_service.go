package service

import (
	"context"
	"errors"

	"github.com/RoyceAzure/lab/pizzabot/internal/domain/model"
	"github.com/RoyceAzure/lab/pizzabot/internal/infra/repository/db"
	"github.com/rs/zerolog"
)

// Profile 聊天平台上的使用者資訊
type Profile struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
}

type IUserService interface {
	Register(ctx context.Context, profile Profile) (*model.User, error)
	GetUser(ctx context.Context, id int64) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	ListAdmins(ctx context.Context) ([]model.User, error)
	IsAdmin(ctx context.Context, id int64) (bool, error)
	IsSuperAdmin(id int64) bool
	AddAdmin(ctx context.Context, id int64) (*model.User, error)
	CanDismiss(actorID, targetID int64) bool
	DismissAdmin(ctx context.Context, actorID, targetID int64) error
}

type UserService struct {
	userRepo     db.IUserRepository
	superAdminID int64
	logger       *zerolog.Logger
}

func NewUserService(userRepo db.IUserRepository, superAdminID int64, logger *zerolog.Logger) *UserService {
	return &UserService{userRepo: userRepo, superAdminID: superAdminID, logger: logger}
}

/*
第一次接觸時建立使用者, 之後名稱有變動才更新
super admin 一律設為 admin
*/
func (s *UserService) Register(ctx context.Context, profile Profile) (*model.User, error) {
	user, err := s.userRepo.GetUserByID(ctx, profile.ID)
	if errors.Is(err, db.ErrNotFound) {
		user = &model.User{
			ID:        profile.ID,
			Username:  profile.Username,
			FirstName: profile.FirstName,
			LastName:  profile.LastName,
			IsAdmin:   s.IsSuperAdmin(profile.ID),
		}
		if _, err := s.userRepo.CreateUser(ctx, user); err != nil {
			return nil, err
		}
		s.logger.Info().Int64("user_id", user.ID).Msg("user registered")
		return user, nil
	}
	if err != nil {
		return nil, err
	}

	dirty := false
	if user.NameChanged(profile.Username, profile.FirstName, profile.LastName) {
		user.Username = profile.Username
		user.FirstName = profile.FirstName
		user.LastName = profile.LastName
		dirty = true
	}
	if s.IsSuperAdmin(user.ID) && !user.IsAdmin {
		user.IsAdmin = true
		dirty = true
	}
	if dirty {
		if err := s.userRepo.UpdateUser(ctx, user); err != nil {
			return nil, err
		}
	}
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.userRepo.GetUserByID(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

func (s *UserService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.userRepo.GetAllUsers(ctx)
}

func (s *UserService) ListAdmins(ctx context.Context) ([]model.User, error) {
	return s.userRepo.GetAdmins(ctx)
}

func (s *UserService) IsAdmin(ctx context.Context, id int64) (bool, error) {
	if s.IsSuperAdmin(id) {
		return true, nil
	}
	user, err := s.GetUser(ctx, id)
	if errors.Is(err, ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return user.IsAdmin, nil
}

func (s *UserService) IsSuperAdmin(id int64) bool {
	return s.superAdminID != 0 && s.superAdminID == id
}

// AddAdmin 使用者必須存在且尚未是 admin
func (s *UserService) AddAdmin(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.IsAdmin {
		return user, ErrAlreadyAdmin
	}
	if err := s.userRepo.SetAdmin(ctx, id, true); err != nil {
		return nil, err
	}
	user.IsAdmin = true
	return user, nil
}

// CanDismiss super admin 可以撤任何人, 其他 admin 只能撤自己
func (s *UserService) CanDismiss(actorID, targetID int64) bool {
	if s.IsSuperAdmin(targetID) {
		return false
	}
	return s.IsSuperAdmin(actorID) || actorID == targetID
}

func (s *UserService) DismissAdmin(ctx context.Context, actorID, targetID int64) error {
	if s.IsSuperAdmin(targetID) {
		return ErrSuperAdmin
	}
	if !s.CanDismiss(actorID, targetID) {
		return ErrForbidden
	}
	user, err := s.GetUser(ctx, targetID)
	if err != nil {
		return err
	}
	if !user.IsAdmin {
		return ErrNotAdmin
	}
	return s.userRepo.SetAdmin(ctx, targetID, false)
}
