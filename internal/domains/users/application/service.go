package application

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	usertypes "github.com/Apurer/auto-loan-origination/internal/domains/users/application/types"
	"github.com/Apurer/auto-loan-origination/internal/domains/users/domain"
	"github.com/Apurer/auto-loan-origination/internal/domains/users/ports"
	"github.com/Apurer/auto-loan-origination/internal/shared/authz"
)

// Service exposes user bounded context use cases.
type Service struct {
	repo     ports.Repository
	issuer   ports.TokenIssuer
	sessions ports.SessionStore
	cleaner  ports.OwnedDataCleaner
	cost     int
	now      func() time.Time
	logger   *slog.Logger
	// dummyHash keeps unknown-email logins as slow as wrong-password ones.
	dummyHash []byte
}

// Option customises the service.
type Option func(*Service)

// WithSessionStore records issued tokens so logout and deletion revoke them.
func WithSessionStore(store ports.SessionStore) Option {
	return func(s *Service) { s.sessions = store }
}

// WithOwnedDataCleaner removes a deleted user's applications.
func WithOwnedDataCleaner(cleaner ports.OwnedDataCleaner) Option {
	return func(s *Service) { s.cleaner = cleaner }
}

// WithPasswordCost overrides the bcrypt cost.
func WithPasswordCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

// WithClock overrides the time source used for session checks.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger used for best-effort cleanup failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService wires the users service.
func NewService(repo ports.Repository, issuer ports.TokenIssuer, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		issuer: issuer,
		cost:   bcrypt.DefaultCost,
		now:    time.Now,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("placeholder-password"), s.cost)
	return s
}

// Register creates a customer account.
func (s *Service) Register(ctx context.Context, input usertypes.RegisterInput) (*usertypes.UserProjection, error) {
	user, err := domain.NewCustomer(input.Email, input.PhoneNumber, input.FirstName, input.LastName, input.Password, s.cost)
	if err != nil {
		return nil, mapError(err)
	}
	created, err := s.repo.Insert(ctx, user)
	if err != nil {
		return nil, mapError(err)
	}
	return created, nil
}

// Authenticate checks credentials and issues a token.
func (s *Service) Authenticate(ctx context.Context, credentials usertypes.Credentials) (*authz.Token, error) {
	if s.issuer == nil {
		return nil, errors.New("token issuer not configured")
	}
	found, err := s.repo.GetByEmail(ctx, domain.NormalizeEmail(credentials.Email))
	if errors.Is(err, ports.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(credentials.Password))
		return nil, mapError(ErrInvalidCredentials)
	}
	if err != nil {
		return nil, err
	}
	user := found.Entity
	if !user.CheckPassword(credentials.Password) {
		return nil, mapError(ErrInvalidCredentials)
	}
	token, err := s.issuer.Issue(user.Actor())
	if err != nil {
		return nil, err
	}
	if s.sessions != nil {
		session := domain.Session{TokenID: token.ID, UserID: user.ID, ExpiresAt: token.ExpiresAt}
		if err := s.sessions.Save(ctx, session); err != nil {
			return nil, err
		}
	}
	return &token, nil
}

// Logout revokes the token the actor is using.
func (s *Service) Logout(ctx context.Context, actor authz.Actor, tokenID string) error {
	if err := authz.RequireAuthenticated(actor); err != nil {
		return err
	}
	if s.sessions == nil || tokenID == "" {
		return nil
	}
	return s.sessions.Revoke(ctx, tokenID)
}

// SessionActive reports whether a token has not been revoked. Without a
// session store every signed token is accepted.
func (s *Service) SessionActive(ctx context.Context, tokenID string) (bool, error) {
	if s.sessions == nil {
		return true, nil
	}
	return s.sessions.Active(ctx, tokenID, s.now())
}

// Get returns a user the actor may see.
func (s *Service) Get(ctx context.Context, actor authz.Actor, id usertypes.UserIdentifier) (*usertypes.UserProjection, error) {
	if err := authz.AuthorizeViewUser(actor, id.ID); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id.ID)
}

// List returns every user. Reviewers only.
func (s *Service) List(ctx context.Context, actor authz.Actor) ([]*usertypes.UserProjection, error) {
	if err := authz.AuthorizeListUsers(actor); err != nil {
		return nil, err
	}
	return s.repo.List(ctx)
}

// Delete removes a user together with their applications and sessions.
func (s *Service) Delete(ctx context.Context, actor authz.Actor, id usertypes.UserIdentifier) error {
	if err := authz.RequireReviewer(actor); err != nil {
		return err
	}
	target, err := s.repo.GetByID(ctx, id.ID)
	if err != nil {
		return err
	}
	if err := authz.AuthorizeDeleteUser(actor, target.Entity.ID, target.Entity.Role); err != nil {
		return err
	}
	// The account goes first: a failed delete leaves the user and their applications intact.
	if err := s.repo.Delete(ctx, id.ID); err != nil {
		return err
	}
	if s.sessions != nil {
		if err := s.sessions.RevokeUser(ctx, id.ID); err != nil {
			s.logger.WarnContext(ctx, "revoke sessions of deleted user failed",
				slog.Int64("user_id", id.ID), slog.String("error", err.Error()))
		}
	}
	if s.cleaner != nil {
		if err := s.cleaner.DeleteApplicationsOwnedBy(ctx, id.ID); err != nil {
			s.logger.ErrorContext(ctx, "cleanup of deleted user's applications failed, rerun to retry",
				slog.Int64("owner_id", id.ID), slog.String("error", err.Error()))
		}
	}
	return nil
}

// AssignRole changes a user's role and revokes their sessions so the new role
// takes effect on the next login.
func (s *Service) AssignRole(ctx context.Context, input usertypes.AssignRoleInput) (*usertypes.UserProjection, error) {
	role, err := authz.ParseRole(input.Role)
	if err != nil {
		return nil, mapError(err)
	}
	updated, err := s.repo.UpdateRole(ctx, input.ID, role)
	if err != nil {
		return nil, err
	}
	if s.sessions != nil {
		if err := s.sessions.RevokeUser(ctx, input.ID); err != nil {
			return nil, err
		}
	}
	return updated, nil
}

var _ ports.Service = (*Service)(nil)
