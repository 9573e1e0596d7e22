package cacheinvalidation

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmehra2102/storefront-core/internal/shared"
	"github.com/dmehra2102/storefront-core/pkg/cache"
	"github.com/dmehra2102/storefront-core/pkg/metrics"
)

const DefaultListVersionTTL = 24 * time.Hour

// EmailLookup resolves the current email of a user from the source of truth.
type EmailLookup interface {
	EmailByUserID(ctx context.Context, userID string) (string, error)
}

// Service is the one place that knows every cache naming scheme for a
// physical row. Callers hand it an entity id and whatever secondary keys they
// already have.
type Service struct {
	log            *slog.Logger
	cache          cache.Cache
	lookup         EmailLookup
	metrics        *metrics.Metrics
	listVersionTTL time.Duration
}

func NewService(log *slog.Logger, c cache.Cache, lookup EmailLookup, m *metrics.Metrics, listVersionTTL time.Duration) *Service {
	if m == nil {
		m = metrics.NewNop()
	}
	if listVersionTTL <= 0 {
		listVersionTTL = DefaultListVersionTTL
	}
	return &Service{log: log, cache: c, lookup: lookup, metrics: m, listVersionTTL: listVersionTTL}
}

// InvalidateUser drops every users and auth:user entry for the row and bumps
// both list versions. When no email is supplied it tries to resolve one; a
// failed lookup narrows the invalidation to the id keys instead of failing.
func (s *Service) InvalidateUser(ctx context.Context, userID string, emails ...string) error {
	known := normalizeEmails(emails)
	if len(known) == 0 {
		known = s.enrichEmail(ctx, userID)
	}

	keys := make([]string, 0, len(userPrefixes)*(1+len(known)))
	for _, prefix := range userPrefixes {
		keys = append(keys, IDKey(prefix, userID))
		for _, email := range known {
			keys = append(keys, EmailKey(prefix, email))
		}
	}
	return s.run(ctx, "user", keys, userPrefixes)
}

func (s *Service) InvalidateProduct(ctx context.Context, productID, sku string) error {
	keys := []string{IDKey(ProductsPrefix, productID)}
	if sku = strings.TrimSpace(sku); sku != "" {
		keys = append(keys, SecondaryKey(ProductsPrefix, "sku", sku))
	}
	return s.run(ctx, "product", keys, []string{ProductsPrefix})
}

func (s *Service) InvalidateDiscount(ctx context.Context, discountID, code string) error {
	keys := []string{IDKey(DiscountsPrefix, discountID)}
	if code = strings.ToUpper(strings.TrimSpace(code)); code != "" {
		keys = append(keys, SecondaryKey(DiscountsPrefix, "code", code))
	}
	return s.run(ctx, "discount", keys, []string{DiscountsPrefix})
}

// ListVersion returns the current list version for prefix, zero when unset.
func (s *Service) ListVersion(ctx context.Context, prefix string) (int64, error) {
	raw, ok, err := s.cache.Get(ctx, ListVersionKey(prefix))
	if err != nil || !ok {
		return 0, err
	}
	n, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, nil
	}
	return n, nil
}

func (s *Service) enrichEmail(ctx context.Context, userID string) []string {
	if s.lookup == nil {
		return nil
	}
	email, err := s.lookup.EmailByUserID(ctx, userID)
	switch {
	case err != nil && shared.IsKind(err, shared.KindNotFound):
		s.metrics.EnrichmentLookups.WithLabelValues("not_found").Inc()
		return nil
	case err != nil:
		s.metrics.EnrichmentLookups.WithLabelValues("failed").Inc()
		s.log.Warn("email lookup failed, invalidating by id only", "user_id", userID, "err", err)
		return nil
	}
	s.metrics.EnrichmentLookups.WithLabelValues("resolved").Inc()
	return normalizeEmails([]string{email})
}

func (s *Service) run(ctx context.Context, entity string, keys, listPrefixes []string) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, key := range keys {
		g.Go(func() error { return s.cache.Del(gctx, key) })
	}
	for _, prefix := range listPrefixes {
		g.Go(func() error {
			_, err := s.cache.Incr(gctx, ListVersionKey(prefix), s.listVersionTTL)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		s.metrics.Invalidations.WithLabelValues(entity, "failed").Inc()
		return err
	}
	s.metrics.Invalidations.WithLabelValues(entity, "ok").Inc()
	s.log.Debug("cache invalidated", "entity", entity, "keys", keys)
	return nil
}

func normalizeEmails(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, raw := range in {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		email, err := shared.NormalizeEmail(raw)
		if err != nil {
			email = strings.ToLower(strings.TrimSpace(raw))
		}
		if _, dup := seen[email]; dup {
			continue
		}
		seen[email] = struct{}{}
		out = append(out, email)
	}
	return out
}
