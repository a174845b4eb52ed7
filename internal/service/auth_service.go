package service

import (
	"talentgate_backend/internal/config"
	"talentgate_backend/internal/model"
	"talentgate_backend/internal/repository"
	"talentgate_backend/internal/util"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthService 招聘方账号注册与登录（候选人不走这里，只持一次性准入码）
type AuthService struct {
	Users  *repository.UserRepository
	Config *config.Config
}

func NewAuthService(users *repository.UserRepository, cfg *config.Config) *AuthService {
	return &AuthService{Users: users, Config: cfg}
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Company  string `json:"company"`
}

func (s *AuthService) Register(req RegisterRequest) (*model.User, error) {
	if _, err := s.Users.FindByEmail(req.Email); err == nil {
		return nil, util.ErrEmailRegistered
	} else if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hashed),
		Role:     model.Recruiter,
		Company:  req.Company,
	}
	if err := s.Users.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

func (s *AuthService) Login(req LoginRequest) (*LoginResponse, error) {
	user, err := s.Users.FindByEmail(req.Email)
	if err != nil {
		return nil, util.ErrWrongPassword
	}
	if user.Disabled {
		return nil, util.ErrWrongPassword
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, util.ErrWrongPassword
	}

	token, err := util.GenerateJWT(user, s.Config.JWT.Secret, s.Config.JWT.ExpireTime)
	if err != nil {
		return nil, err
	}

	_ = s.Users.UpdateLastLogin(user.ID)
	return &LoginResponse{Token: token, User: user}, nil
}
