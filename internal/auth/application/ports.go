package application

import (
	"context"
	"time"

	"github.com/dmehra2102/storefront-core/internal/auth"
	"github.com/dmehra2102/storefront-core/internal/auth/domain"
)

type Repository interface {
	FindByID(ctx context.Context, id domain.CredentialID) (*domain.Credential, error)
	FindByEmail(ctx context.Context, email string) (*domain.Credential, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// Create inserts the account row; fullName seeds the profile columns.
	Create(ctx context.Context, c *domain.Credential, fullName string) error
	Save(ctx context.Context, c *domain.Credential) error
}

// Reader serves the account read model, usually through a cache.
type Reader interface {
	ByID(ctx context.Context, id string) (View, error)
	ByEmail(ctx context.Context, email string) (View, error)
}

type Token struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

type Tokens interface {
	Issue(p auth.Principal) (Token, error)
	Verify(raw string) (auth.Principal, error)
}
