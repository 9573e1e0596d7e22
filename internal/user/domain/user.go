package domain

import (
	"strings"
	"time"

	"github.com/dmehra2102/storefront-core/internal/shared"
)

const AggregateType = "user"

const (
	EventUserProfileUpdated = "UserProfileUpdated"
	EventUserEmailChanged   = "UserEmailChanged"
	EventUserDeleted        = "UserDeleted"
)

const (
	CodeInvalidUser  = "INVALID_USER"
	CodeUserNotFound = "USER_NOT_FOUND"
	CodeEmailTaken   = "EMAIL_ALREADY_REGISTERED"
)

type UserID = shared.ID[User]

// User is the profile view of an account. The row is created by the auth
// context at registration; this context only edits it.
type User struct {
	shared.AggregateRoot

	id        UserID
	email     string
	fullName  string
	phone     string
	createdAt time.Time
	updatedAt time.Time
}

type ReconstructParams struct {
	ID        UserID
	Email     string
	FullName  string
	Phone     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func Reconstruct(p ReconstructParams) (*User, error) {
	email, err := shared.NormalizeEmail(p.Email)
	if err != nil {
		return nil, err
	}
	if p.ID.IsZero() {
		return nil, shared.Validation(CodeInvalidUser, "user id is required")
	}
	return &User{
		id:        p.ID,
		email:     email,
		fullName:  strings.TrimSpace(p.FullName),
		phone:     strings.TrimSpace(p.Phone),
		createdAt: p.CreatedAt,
		updatedAt: p.UpdatedAt,
	}, nil
}

func (u *User) event(name string, payload map[string]any) shared.Event {
	payload["userId"] = u.id.String()
	return shared.NewEvent(name, AggregateType, u.id.String(), payload)
}

func (u *User) UpdateProfile(fullName, phone string) error {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return shared.Validation(CodeInvalidUser, "full name is required")
	}
	u.fullName = fullName
	u.phone = strings.TrimSpace(phone)
	u.updatedAt = time.Now().UTC()
	u.Record(u.event(EventUserProfileUpdated, map[string]any{
		"email":    u.email,
		"fullName": u.fullName,
	}))
	return nil
}

// ChangeEmail records both addresses so caches keyed by either can be dropped.
func (u *User) ChangeEmail(raw string) error {
	email, err := shared.NormalizeEmail(raw)
	if err != nil {
		return err
	}
	if email == u.email {
		return nil
	}
	previous := u.email
	u.email = email
	u.updatedAt = time.Now().UTC()
	u.Record(u.event(EventUserEmailChanged, map[string]any{
		"email":         email,
		"previousEmail": previous,
	}))
	return nil
}

// MarkDeleted records the deletion; the repository removes the row.
func (u *User) MarkDeleted() {
	u.Record(u.event(EventUserDeleted, map[string]any{"email": u.email}))
}

func (u *User) ID() UserID           { return u.id }
func (u *User) Email() string        { return u.email }
func (u *User) FullName() string     { return u.fullName }
func (u *User) Phone() string        { return u.phone }
func (u *User) CreatedAt() time.Time { return u.createdAt }
func (u *User) UpdatedAt() time.Time { return u.updatedAt }
