package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/segyhp/fiducialend/internal/domain"
	"github.com/segyhp/fiducialend/internal/repository"
	customError "github.com/segyhp/fiducialend/pkg/errors"
)

type ProfileService struct {
	ProfileRepo repository.ProfileRepository
	now         func() time.Time
}

func NewProfileService(repo repository.ProfileRepository) *ProfileService {
	return &ProfileService{ProfileRepo: repo, now: utcNow}
}

func (s *ProfileService) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	profile, err := s.ProfileRepo.Get(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, customError.WrapNotFound("Profile", userID)
	}
	if err != nil {
		return nil, persistenceError("failed to load profile", err, "user_id", userID)
	}
	return profile, nil
}

// Save creates or replaces userID's profile.
func (s *ProfileService) Save(ctx context.Context, userID string, request *domain.ProfileRequest) (*domain.Profile, error) {
	if request.MonthlyIncome.IsNegative() {
		return nil, customError.WrapValidation("Monthly income cannot be negative")
	}

	profile := &domain.Profile{
		UserID:           userID,
		FullName:         request.FullName,
		Email:            request.Email,
		PhoneNumber:      request.PhoneNumber,
		NationalID:       request.NationalID,
		EmploymentStatus: request.EmploymentStatus,
		EmployerName:     request.EmployerName,
		MonthlyIncome:    request.MonthlyIncome,
		FinancialGoals:   request.FinancialGoals,
		UpdatedAt:        s.now(),
	}
	if err := s.ProfileRepo.Upsert(ctx, profile); err != nil {
		return nil, persistenceError("failed to save profile", err, "user_id", userID)
	}
	return profile, nil
}
