package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hyperbolichq/loyalty-api/internal/apperror"
	"github.com/hyperbolichq/loyalty-api/internal/auth"
	"github.com/hyperbolichq/loyalty-api/internal/model"
	"github.com/hyperbolichq/loyalty-api/internal/repository"
)

// StaffService authenticates store staff. Staff accounts use email and
// password; they are provisioned at startup or by an existing operator,
// never self-service.
type StaffService struct {
	staff     repository.StaffRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewStaffService(
	staff repository.StaffRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *StaffService {
	return &StaffService{
		staff:     staff,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// StaffLoginResult bundles the account and its issued token so the
// handler can set the cookie and respond in one step.
type StaffLoginResult struct {
	Staff *model.StaffAccount
	Token string
}

// Login verifies credentials and issues a staff token. A wrong email and
// a wrong password both return the same unauthenticated error, so the
// response does not reveal which accounts exist.
func (s *StaffService) Login(ctx context.Context, email, password string) (*StaffLoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperror.ValidationFailed("email", "email and password are required")
	}

	account, err := s.staff.GetStaffByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthenticated("invalid email or password")
		}
		return nil, err
	}

	if err := s.passwords.Verify(account.PasswordHash, password); err != nil {
		return nil, apperror.Unauthenticated("invalid email or password")
	}

	token, err := s.tokens.Generate(account.ID, auth.AudienceStaff, auth.StaffTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("service/staff: generating token for %s: %w", account.ID, err)
	}

	s.logger.Info("staff login", slog.String("staffID", account.ID))

	return &StaffLoginResult{Staff: account, Token: token}, nil
}

// EnsureAccount creates a staff account if the email is not yet taken.
// Called at startup to provision the bootstrap operator from environment
// configuration; an existing account is left untouched.
func (s *StaffService) EnsureAccount(ctx context.Context, email, name, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return apperror.ValidationFailed("email", "email and password are required")
	}

	if _, err := s.staff.GetStaffByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return err
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return err
	}

	account := &model.StaffAccount{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
	}
	if err := s.staff.CreateStaff(ctx, account); err != nil {
		// A concurrent boot may have created it first.
		if errors.Is(err, apperror.ErrConflict) {
			return nil
		}
		return err
	}

	s.logger.Info("staff account provisioned", slog.String("email", email))
	return nil
}

// GetByID loads one staff account.
func (s *StaffService) GetByID(ctx context.Context, id string) (*model.StaffAccount, error) {
	return s.staff.GetStaffByID(ctx, id)
}
