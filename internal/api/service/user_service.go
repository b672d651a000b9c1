package service

import (
	"errors"
	"modgraph"
	"modgraph/internal/api/handler/mapper"
	"modgraph/internal/api/handler/request"
	"modgraph/internal/api/handler/response"
	"modgraph/internal/api/models"
	"modgraph/internal/api/repo"
	"modgraph/pkg"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken         = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInactiveAccount    = errors.New("account is inactive")
	ErrUserNotFound       = errors.New("user not found")
)

// UserStore is the persistence the user service needs
type UserStore interface {
	FindByEmail(email string) (models.User, error)
	FindByID(id uint) (models.User, error)
	Create(user *models.User) error
	Update(user *models.User) error
	ExistsByEmail(email string) (bool, error)
}

type UserService struct {
	userRepo UserStore
	config   modgraph.AppConfig
	logger   zerolog.Logger
}

func NewUserService() *UserService {
	return NewUserServiceWithStore(repo.NewUserRepository(), modgraph.GetConfig(), modgraph.Logger)
}

func NewUserServiceWithStore(store UserStore, cfg modgraph.AppConfig, logger zerolog.Logger) *UserService {
	if cfg.JWT.Expiration <= 0 {
		cfg.JWT.Expiration = 60
	}
	if cfg.JWT.RefreshExpiration <= 0 {
		cfg.JWT.RefreshExpiration = 30
	}
	return &UserService{
		userRepo: store,
		config:   cfg,
		logger:   logger,
	}
}

func (slf *UserService) Register(registerDTO request.RegisterDTO) (*response.AuthResponseDTO, error) {
	email := strings.ToLower(strings.TrimSpace(registerDTO.Email))
	exists, err := slf.userRepo.ExistsByEmail(email)
	if err != nil {
		slf.logger.Error().Err(err).Msg("Error checking if user exists")
		return nil, err
	}
	if exists {
		return nil, ErrEmailTaken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(registerDTO.Password), bcrypt.DefaultCost)
	if err != nil {
		slf.logger.Error().Err(err).Msg("Error hashing password")
		return nil, err
	}

	user := models.User{
		Email:       email,
		Password:    string(hashedPassword),
		DisplayName: registerDTO.DisplayName,
		Role:        models.RoleUser,
		Active:      true,
	}
	if err = slf.userRepo.Create(&user); err != nil {
		slf.logger.Error().Err(err).Msg("Error creating user")
		return nil, err
	}

	slf.logger.Info().Uint("userId", user.ID).Msg("User registered successfully")
	return slf.issueTokens(&user)
}

func (slf *UserService) Login(loginDTO request.LoginDTO) (*response.AuthResponseDTO, error) {
	user, err := slf.userRepo.FindByEmail(strings.ToLower(strings.TrimSpace(loginDTO.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		slf.logger.Error().Err(err).Msg("Error finding user by email")
		return nil, err
	}

	if !user.Active {
		return nil, ErrInactiveAccount
	}
	if err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(loginDTO.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	slf.logger.Info().Uint("userId", user.ID).Msg("User logged in successfully")
	return slf.issueTokens(&user)
}

func (slf *UserService) RefreshToken(refreshToken string) (*response.AuthResponseDTO, error) {
	claims, err := pkg.ValidateRefreshToken(refreshToken, slf.config.JWT.Secret)
	if err != nil {
		slf.logger.Debug().Err(err).Msg("Invalid refresh token")
		return nil, errors.New("invalid or expired refresh token")
	}

	user, err := slf.userRepo.FindByID(claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !user.Active {
		return nil, ErrInactiveAccount
	}
	if user.RefreshToken != refreshToken {
		slf.logger.Warn().Uint("userId", user.ID).Msg("Refresh token mismatch")
		return nil, errors.New("invalid refresh token")
	}

	return slf.issueTokens(&user)
}

func (slf *UserService) GetByID(id uint) (response.UserResponseDTO, error) {
	user, err := slf.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.UserResponseDTO{}, ErrUserNotFound
		}
		slf.logger.Error().Err(err).Uint("userId", id).Msg("Error finding user by ID")
		return response.UserResponseDTO{}, err
	}
	return mapper.UserToResponse(user), nil
}

// issueTokens signs a new token pair and stores the refresh token, which
// invalidates the previous one.
func (slf *UserService) issueTokens(user *models.User) (*response.AuthResponseDTO, error) {
	token, err := pkg.GenerateToken(user.ID, user.Email, string(user.Role), slf.config.JWT.Secret, slf.config.JWT.Expiration)
	if err != nil {
		slf.logger.Error().Err(err).Msg("Error generating token")
		return nil, err
	}
	refreshToken, err := pkg.GenerateRefreshToken(user.ID, slf.config.JWT.Secret, slf.config.JWT.RefreshExpiration)
	if err != nil {
		slf.logger.Error().Err(err).Msg("Error generating refresh token")
		return nil, err
	}

	user.RefreshToken = refreshToken
	if err = slf.userRepo.Update(user); err != nil {
		slf.logger.Error().Err(err).Msg("Error updating user with refresh token")
		return nil, err
	}

	return &response.AuthResponseDTO{
		Token:        token,
		RefreshToken: refreshToken,
		User:         mapper.UserToResponse(*user),
	}, nil
}
