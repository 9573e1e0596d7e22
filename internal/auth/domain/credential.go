package domain

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dmehra2102/storefront-core/internal/shared"
)

const AggregateType = "auth_user"

const (
	EventUserRegistered  = "UserRegistered"
	EventPasswordChanged = "CredentialPasswordChanged"
	EventEmailVerified   = "CredentialEmailVerified"
)

const (
	CodeInvalidCredential  = "INVALID_CREDENTIAL"
	CodeWeakPassword       = "WEAK_PASSWORD"
	CodeWrongPassword      = "WRONG_PASSWORD"
	CodeCredentialNotFound = "CREDENTIAL_NOT_FOUND"
	CodeEmailTaken         = "EMAIL_ALREADY_REGISTERED"
)

const minPasswordLength = 8

type CredentialID = shared.ID[Credential]

// PasswordHash is a bcrypt digest.
type PasswordHash string

func HashPassword(plain string) (PasswordHash, error) {
	if len(plain) < minPasswordLength {
		return "", shared.Validation(CodeWeakPassword, "password must be at least %d characters", minPasswordLength)
	}
	raw, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", shared.Validation(CodeWeakPassword, "password is too long")
		}
		return "", err
	}
	return PasswordHash(raw), nil
}

func (h PasswordHash) Matches(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(h), []byte(plain)) == nil
}

// Credential is the authentication view of an account row.
type Credential struct {
	shared.AggregateRoot

	id            CredentialID
	email         string
	passwordHash  PasswordHash
	emailVerified bool
	createdAt     time.Time
	updatedAt     time.Time
}

func Register(email, password, fullName string) (*Credential, error) {
	normalized, err := shared.NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	c := &Credential{
		id:           shared.NewID[Credential](),
		email:        normalized,
		passwordHash: hash,
		createdAt:    now,
		updatedAt:    now,
	}
	c.Record(c.event(EventUserRegistered, map[string]any{
		"email":    normalized,
		"fullName": strings.TrimSpace(fullName),
	}))
	return c, nil
}

type ReconstructParams struct {
	ID            CredentialID
	Email         string
	PasswordHash  PasswordHash
	EmailVerified bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func Reconstruct(p ReconstructParams) (*Credential, error) {
	email, err := shared.NormalizeEmail(p.Email)
	if err != nil {
		return nil, err
	}
	if p.ID.IsZero() || p.PasswordHash == "" {
		return nil, shared.Validation(CodeInvalidCredential, "credential id and password hash are required")
	}
	return &Credential{
		id:            p.ID,
		email:         email,
		passwordHash:  p.PasswordHash,
		emailVerified: p.EmailVerified,
		createdAt:     p.CreatedAt,
		updatedAt:     p.UpdatedAt,
	}, nil
}

func (c *Credential) event(name string, payload map[string]any) shared.Event {
	payload["userId"] = c.id.String()
	return shared.NewEvent(name, AggregateType, c.id.String(), payload)
}

func (c *Credential) ChangePassword(current, next string) error {
	if !c.passwordHash.Matches(current) {
		return shared.NewError(shared.KindUnauthorized, CodeWrongPassword, "current password does not match")
	}
	hash, err := HashPassword(next)
	if err != nil {
		return err
	}
	c.passwordHash = hash
	c.updatedAt = time.Now().UTC()
	c.Record(c.event(EventPasswordChanged, map[string]any{"email": c.email}))
	return nil
}

// VerifyEmail is idempotent.
func (c *Credential) VerifyEmail() {
	if c.emailVerified {
		return
	}
	c.emailVerified = true
	c.updatedAt = time.Now().UTC()
	c.Record(c.event(EventEmailVerified, map[string]any{"email": c.email}))
}

func (c *Credential) Authenticate(password string) error {
	if !c.passwordHash.Matches(password) {
		return shared.NewError(shared.KindUnauthorized, CodeWrongPassword, "invalid email or password")
	}
	return nil
}

func (c *Credential) ID() CredentialID           { return c.id }
func (c *Credential) Email() string              { return c.email }
func (c *Credential) PasswordHash() PasswordHash { return c.passwordHash }
func (c *Credential) EmailVerified() bool        { return c.emailVerified }
func (c *Credential) CreatedAt() time.Time       { return c.createdAt }
func (c *Credential) UpdatedAt() time.Time       { return c.updatedAt }
