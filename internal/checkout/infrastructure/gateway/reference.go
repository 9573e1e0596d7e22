// Package gateway holds payment gateway adapters for checkout.
package gateway

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmehra2102/storefront-core/internal/checkout/application"
	"github.com/dmehra2102/storefront-core/internal/shared"
)

// Reference issues provider references locally and leaves settlement to the
// gateway's notifications. It suits gateways that accept a merchant chosen
// order reference, and tests.
type Reference struct {
	provider string
	ttl      time.Duration
	now      func() time.Time
}

func NewReference(provider string, ttl time.Duration) *Reference {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Reference{provider: strings.ToUpper(strings.TrimSpace(provider)), ttl: ttl, now: time.Now}
}

var _ application.Gateway = (*Reference)(nil)

func (g *Reference) Provider() string { return g.provider }

func (g *Reference) CreateCharge(_ context.Context, orderID string, _ shared.Money) (application.Charge, error) {
	return application.Charge{
		ProviderRef: orderID + "-" + uuid.NewString()[:8],
		ExpiresAt:   g.now().UTC().Add(g.ttl),
	}, nil
}
