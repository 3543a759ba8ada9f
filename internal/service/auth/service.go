package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/serviceloop/marketplace-api/internal/email"
	"github.com/serviceloop/marketplace-api/internal/model"
	"github.com/serviceloop/marketplace-api/internal/repository"
	"github.com/serviceloop/marketplace-api/pkg/auth"
	apperrors "github.com/serviceloop/marketplace-api/pkg/errors"
	"github.com/serviceloop/marketplace-api/pkg/logger"
	"github.com/serviceloop/marketplace-api/pkg/security"
)

type Service struct {
	userRepo     repository.UserRepository
	providerRepo repository.ProviderRepository
	jwtSvc       auth.JWTService
	hasher       security.PasswordHasher
	emailSvc     email.Service
	logger       *logger.Logger
}

func NewService(
	userRepo repository.UserRepository,
	providerRepo repository.ProviderRepository,
	jwtSvc auth.JWTService,
	hasher security.PasswordHasher,
	emailSvc email.Service,
	log *logger.Logger,
) *Service {
	return &Service{
		userRepo:     userRepo,
		providerRepo: providerRepo,
		jwtSvc:       jwtSvc,
		hasher:       hasher,
		emailSvc:     emailSvc,
		logger:       log,
	}
}

// Register creates an account. Provider registrations create the dependent
// provider profile in the same transaction; nothing survives a partial
// failure.
func (s *Service) Register(ctx context.Context, req *model.CreateUserRequest) (*model.User, error) {
	if req.Role == model.RoleProvider && req.Provider == nil {
		return nil, apperrors.Validation("provider", "provider registration requires a provider profile")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperrors.Validation("password", "password must be at least 8 characters")
	}

	user := &model.User{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		Phone:        req.Phone,
		Role:         req.Role,
		Status:       model.UserStatusActive,
	}

	if req.Role == model.RoleProvider {
		provider := &model.Provider{
			ServiceID:     req.Provider.ServiceID,
			HourlyRate:    req.Provider.HourlyRate,
			AvailableDays: model.WeekdaySet(req.Provider.AvailableDays),
			Bio:           req.Provider.Bio,
			Status:        model.ProviderStatusActive,
		}
		err = s.userRepo.CreateProviderAccount(ctx, user, provider)
	} else {
		err = s.userRepo.Create(ctx, user)
	}
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, apperrors.Validation("email", "email already registered")
	}
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to register user: %w", err))
	}

	// Fire and forget: a failed welcome email never fails registration.
	go func() {
		if err := s.emailSvc.SendWelcome(context.Background(), user.Email, user.Name); err != nil {
			s.logger.Warn("welcome email not delivered", "email", user.Email)
		}
	}()

	return user, nil
}

func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperrors.Unauthorized(errors.New("invalid credentials"))
	}

	if user.Status == model.UserStatusSuspended {
		return nil, apperrors.Forbidden("account is suspended")
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		return nil, apperrors.Unauthorized(errors.New("invalid credentials"))
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.userRepo.Update(ctx, user); err != nil {
		s.logger.Warn("failed to record login timestamp", "user_id", user.ID)
	}

	return s.issueTokens(ctx, user)
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (*model.TokenResponse, error) {
	claims, err := s.jwtSvc.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperrors.Unauthorized(fmt.Errorf("invalid refresh token: %w", err))
	}

	user, err := s.userRepo.Get(ctx, claims.UserID)
	if err != nil {
		return nil, apperrors.Unauthorized(errors.New("user no longer exists"))
	}

	return s.issueTokens(ctx, user)
}

// ValidateToken resolves a bearer token into the acting identity.
func (s *Service) ValidateToken(_ context.Context, token string) (*model.Actor, error) {
	claims, err := s.jwtSvc.ValidateToken(token)
	if err != nil {
		return nil, apperrors.Unauthorized(err)
	}
	return &model.Actor{
		ID:         claims.UserID,
		Role:       claims.Role,
		ProviderID: claims.ProviderID,
	}, nil
}

func (s *Service) issueTokens(ctx context.Context, user *model.User) (*model.TokenResponse, error) {
	providerID := uuid.Nil
	if user.Role == model.RoleProvider {
		provider, err := s.providerRepo.GetByUserID(ctx, user.ID)
		if err != nil {
			return nil, apperrors.Internal(fmt.Errorf("failed to resolve provider profile: %w", err))
		}
		providerID = provider.ID
	}

	access, err := s.jwtSvc.GenerateAccessToken(user, providerID)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to generate access token: %w", err))
	}
	refresh, err := s.jwtSvc.GenerateRefreshToken(user)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to generate refresh token: %w", err))
	}

	return &model.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}
