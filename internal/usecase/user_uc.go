package usecase

import (
	"context"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"saas-starter/internal/domain"
	"saas-starter/internal/domain/model"
	"saas-starter/internal/domain/ports/repository"
)

// UpdateUserParams carries the PATCHable profile fields; nil means "leave
// unchanged".
type UpdateUserParams struct {
	FullName  *string
	AvatarURL *string
}

type UserUseCase interface {
	// Get returns a profile; callers can only read their own.
	Get(ctx context.Context, callerID, userID string) (*model.User, error)
	Update(ctx context.Context, callerID, userID string, params UpdateUserParams) (*model.User, error)
}

// Compile-time check
var _ UserUseCase = (*userUC)(nil)

type userUC struct {
	users repository.UserRepository
	log   *zerolog.Logger
}

func NewUserUseCase(users repository.UserRepository, logger *zerolog.Logger) *userUC {
	return &userUC{users: users, log: logger}
}

func (uc *userUC) Get(ctx context.Context, callerID, userID string) (*model.User, error) {
	if callerID != userID {
		return nil, domain.ErrForbidden
	}
	return uc.users.FindByID(ctx, nil, userID)
}

func (uc *userUC) Update(ctx context.Context, callerID, userID string, params UpdateUserParams) (*model.User, error) {
	if callerID != userID {
		return nil, domain.ErrForbidden
	}
	if err := validateUpdate(params); err != nil {
		return nil, err
	}

	u, err := uc.users.FindByID(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	if params.FullName != nil {
		u.FullName = params.FullName
	}
	if params.AvatarURL != nil {
		u.AvatarURL = params.AvatarURL
	}
	if err := uc.users.Save(ctx, nil, u); err != nil {
		return nil, err
	}
	return u, nil
}

// validateUpdate surfaces the first violation only, matching the API's
// error contract.
func validateUpdate(params UpdateUserParams) error {
	if params.FullName != nil && len(strings.TrimSpace(*params.FullName)) < 2 {
		return domain.NewValidationError("full_name must be at least 2 characters")
	}
	if params.AvatarURL != nil {
		parsed, err := url.Parse(*params.AvatarURL)
		if err != nil || !parsed.IsAbs() || parsed.Host == "" {
			return domain.NewValidationError("avatar_url must be a valid absolute URL")
		}
	}
	return nil
}
