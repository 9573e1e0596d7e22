package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmehra2102/storefront-core/internal/shared"
	"github.com/dmehra2102/storefront-core/internal/user/domain"
	"github.com/dmehra2102/storefront-core/pkg/uow"
)

type View struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func ToView(u *domain.User) View {
	return View{
		ID:        u.ID().String(),
		Email:     u.Email(),
		FullName:  u.FullName(),
		Phone:     u.Phone(),
		CreatedAt: u.CreatedAt(),
		UpdatedAt: u.UpdatedAt(),
	}
}

type Service struct {
	log    *slog.Logger
	repo   Repository
	reader Reader
	uow    *uow.UnitOfWork
}

func NewService(log *slog.Logger, repo Repository, reader Reader, u *uow.UnitOfWork) *Service {
	return &Service{log: log, repo: repo, reader: reader, uow: u}
}

func (s *Service) Get(ctx context.Context, id string) (View, error) {
	return s.reader.ByID(ctx, id)
}

func (s *Service) GetByEmail(ctx context.Context, email string) (View, error) {
	return s.reader.ByEmail(ctx, email)
}

func (s *Service) mutate(ctx context.Context, rawID string, fn func(ctx context.Context, u *domain.User) error) (View, error) {
	id, err := shared.ParseID[domain.User]("user id", rawID)
	if err != nil {
		return View{}, err
	}
	return uow.Run(ctx, s.uow, func(ctx context.Context) (View, error) {
		u, err := s.repo.FindForUpdate(ctx, id)
		if err != nil {
			return View{}, err
		}
		if err := fn(ctx, u); err != nil {
			return View{}, err
		}
		if err := s.repo.Save(ctx, u); err != nil {
			return View{}, err
		}
		return ToView(u), nil
	})
}

func (s *Service) UpdateProfile(ctx context.Context, id, fullName, phone string) (View, error) {
	return s.mutate(ctx, id, func(_ context.Context, u *domain.User) error {
		return u.UpdateProfile(fullName, phone)
	})
}

func (s *Service) ChangeEmail(ctx context.Context, id, email string) (View, error) {
	return s.mutate(ctx, id, func(ctx context.Context, u *domain.User) error {
		normalized, err := shared.NormalizeEmail(email)
		if err != nil {
			return err
		}
		if normalized == u.Email() {
			return nil
		}
		other, err := s.repo.FindByEmail(ctx, normalized)
		switch {
		case err == nil && other.ID() != u.ID():
			return shared.Conflict(domain.CodeEmailTaken, "email %s is already registered", normalized)
		case err != nil && !shared.IsKind(err, shared.KindNotFound):
			return err
		}
		return u.ChangeEmail(normalized)
	})
}

func (s *Service) Delete(ctx context.Context, rawID string) error {
	id, err := shared.ParseID[domain.User]("user id", rawID)
	if err != nil {
		return err
	}
	return s.uow.WithTransaction(ctx, func(ctx context.Context) error {
		u, err := s.repo.FindForUpdate(ctx, id)
		if err != nil {
			return err
		}
		u.MarkDeleted()
		if err := s.repo.Delete(ctx, u); err != nil {
			return err
		}
		s.log.Info("user deleted", "user_id", rawID)
		return nil
	})
}
