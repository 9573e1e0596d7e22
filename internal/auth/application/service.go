package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmehra2102/storefront-core/internal/auth"
	"github.com/dmehra2102/storefront-core/internal/auth/domain"
	"github.com/dmehra2102/storefront-core/internal/shared"
	"github.com/dmehra2102/storefront-core/pkg/uow"
)

// View is the cached account read model. It never carries the password hash.
type View struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	EmailVerified bool      `json:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt"`
}

func ToView(c *domain.Credential) View {
	return View{
		ID:            c.ID().String(),
		Email:         c.Email(),
		EmailVerified: c.EmailVerified(),
		CreatedAt:     c.CreatedAt(),
	}
}

type Service struct {
	log    *slog.Logger
	repo   Repository
	reader Reader
	uow    *uow.UnitOfWork
	tokens Tokens
}

func NewService(log *slog.Logger, repo Repository, reader Reader, u *uow.UnitOfWork, tokens Tokens) *Service {
	return &Service{log: log, repo: repo, reader: reader, uow: u, tokens: tokens}
}

type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (View, error) {
	return uow.Run(ctx, s.uow, func(ctx context.Context) (View, error) {
		c, err := domain.Register(in.Email, in.Password, in.FullName)
		if err != nil {
			return View{}, err
		}
		taken, err := s.repo.ExistsByEmail(ctx, c.Email())
		if err != nil {
			return View{}, err
		}
		if taken {
			return View{}, shared.Conflict(domain.CodeEmailTaken, "email %s is already registered", c.Email())
		}
		if err := s.repo.Create(ctx, c, in.FullName); err != nil {
			return View{}, err
		}
		s.log.Info("user registered", "user_id", c.ID().String())
		return ToView(c), nil
	})
}

// Login never says whether the email exists.
func (s *Service) Login(ctx context.Context, email, password string) (Token, error) {
	c, err := s.repo.FindByEmail(ctx, email)
	if shared.IsKind(err, shared.KindNotFound) || shared.IsKind(err, shared.KindValidation) {
		return Token{}, shared.NewError(shared.KindUnauthorized, domain.CodeWrongPassword, "invalid email or password")
	}
	if err != nil {
		return Token{}, err
	}
	if err := c.Authenticate(password); err != nil {
		return Token{}, err
	}
	return s.tokens.Issue(auth.Principal{UserID: c.ID().String(), Email: c.Email(), EmailVerified: c.EmailVerified()})
}

// Authenticate verifies an access token and checks the account still exists.
func (s *Service) Authenticate(ctx context.Context, raw string) (auth.Principal, error) {
	p, err := s.tokens.Verify(raw)
	if err != nil {
		return auth.Principal{}, err
	}
	v, err := s.reader.ByID(ctx, p.UserID)
	if shared.IsKind(err, shared.KindNotFound) {
		return auth.Principal{}, shared.NewError(shared.KindUnauthorized, auth.CodeNotAuthenticated, "account no longer exists")
	}
	if err != nil {
		return auth.Principal{}, err
	}
	return auth.Principal{UserID: v.ID, Email: v.Email, EmailVerified: v.EmailVerified}, nil
}

func (s *Service) Me(ctx context.Context) (View, error) {
	id, err := auth.UserID(ctx)
	if err != nil {
		return View{}, err
	}
	return s.reader.ByID(ctx, id)
}

func (s *Service) mutate(ctx context.Context, rawID string, fn func(c *domain.Credential) error) (View, error) {
	id, err := shared.ParseID[domain.Credential]("user id", rawID)
	if err != nil {
		return View{}, err
	}
	return uow.Run(ctx, s.uow, func(ctx context.Context) (View, error) {
		c, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return View{}, err
		}
		if err := fn(c); err != nil {
			return View{}, err
		}
		if err := s.repo.Save(ctx, c); err != nil {
			return View{}, err
		}
		return ToView(c), nil
	})
}

func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	_, err := s.mutate(ctx, userID, func(c *domain.Credential) error { return c.ChangePassword(current, next) })
	return err
}

func (s *Service) VerifyEmail(ctx context.Context, userID string) (View, error) {
	return s.mutate(ctx, userID, func(c *domain.Credential) error {
		c.VerifyEmail()
		return nil
	})
}
