package service

import (
	"fmt"

	"github.com/m-hollow/NoirDB/internal/logging"
	"github.com/m-hollow/NoirDB/internal/model"
	"github.com/m-hollow/NoirDB/internal/repository"
	"github.com/rs/zerolog"
)

// RegisterInput 注册表单
type RegisterInput struct {
	Email           string `json:"email" form:"email" validate:"required,email,max=254"`
	Username        string `json:"username" form:"username" validate:"required,min=2,max=150"`
	Password        string `json:"password" form:"password" validate:"required,min=6,max=72"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password" validate:"required,eqfield=Password"`
}

// PasswordInput 修改密码表单
type PasswordInput struct {
	OldPassword string `json:"old_password" form:"old_password" validate:"required"`
	NewPassword string `json:"new_password" form:"new_password" validate:"required,min=6,max=72"`
}

// AccountService 注册、登录与账号管理
type AccountService struct {
	repos *repository.Repositories
	log   zerolog.Logger
}

// NewAccountService 创建账号服务
func NewAccountService(repos *repository.Repositories) *AccountService {
	return &AccountService{repos: repos, log: logging.Component("account")}
}

// Register 注册新用户
func (s *AccountService) Register(in RegisterInput) (*model.User, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	existing, err := s.repos.User.FindByEmail(in.Email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("email %s: %w", in.Email, ErrDuplicate)
	}

	user, err := s.repos.User.Create(in.Email, in.Username, in.Password)
	if err != nil {
		if repository.IsDuplicate(err) {
			return nil, fmt.Errorf("user %s: %w", in.Username, ErrDuplicate)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info().Int("user_id", user.ID).Msg("user registered")
	return user, nil
}

// Login 邮箱密码登录，已关闭的账号无法登录
func (s *AccountService) Login(email, password string) (*model.User, error) {
	user, err := s.repos.User.FindByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil || !user.IsActive || !s.repos.User.CheckPassword(user, password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// ChangePassword 修改密码
func (s *AccountService) ChangePassword(userID int, in PasswordInput) error {
	if err := validateInput(in); err != nil {
		return err
	}
	user, err := s.repos.User.FindByID(userID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	if !user.IsActive {
		return fmt.Errorf("user %d closed: %w", userID, ErrForbidden)
	}
	if !s.repos.User.CheckPassword(user, in.OldPassword) {
		return ErrInvalidCredentials
	}
	return s.repos.User.UpdatePassword(userID, in.NewPassword)
}

// CloseAccount 关闭自己的账号
func (s *AccountService) CloseAccount(actorID, userID int) error {
	if actorID != userID {
		return fmt.Errorf("close account %d: %w", userID, ErrForbidden)
	}
	user, err := s.repos.User.FindByID(userID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	if err := s.repos.User.Deactivate(userID); err != nil {
		return fmt.Errorf("deactivate user %d: %w", userID, err)
	}

	s.log.Info().Int("user_id", userID).Msg("account closed")
	return nil
}

// requireActiveUser 已关闭的账号不能再写入数据
func requireActiveUser(repos *repository.Repositories, userID int) error {
	user, err := repos.User.FindByID(userID)
	if err != nil {
		return fmt.Errorf("load user %d: %w", userID, err)
	}
	if user == nil || !user.IsActive {
		return fmt.Errorf("user %d closed: %w", userID, ErrForbidden)
	}
	return nil
}
