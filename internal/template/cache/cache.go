package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"notaria/internal/template/models"
	"notaria/pkg/domain"
)

const templateKeyPrefix = "notaria:template:"

var (
	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notaria_template_cache_lookups_total",
		Help: "Template cache lookups by result (hit, miss, error)",
	}, []string{"result"})
)

// Source loads templates from the system of record.
type Source interface {
	GetTemplate(ctx context.Context, id domain.TemplateID) (*models.Template, error)
}

// RedisCache is a read-through template cache. Concurrent misses for the same
// template collapse into one Source lookup. Redis failures degrade to the Source.
type RedisCache struct {
	client *redis.Client
	source Source
	ttl    time.Duration
	logger *slog.Logger
	group  singleflight.Group
}

type Option func(*RedisCache)

func WithLogger(logger *slog.Logger) Option {
	return func(c *RedisCache) {
		c.logger = logger
	}
}

func WithTTL(ttl time.Duration) Option {
	return func(c *RedisCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func New(client *redis.Client, source Source, opts ...Option) *RedisCache {
	c := &RedisCache{
		client: client,
		source: source,
		ttl:    5 * time.Minute,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

func (c *RedisCache) GetTemplate(ctx context.Context, id domain.TemplateID) (*models.Template, error) {
	key := templateKeyPrefix + id.String()

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var t models.Template
		if jsonErr := json.Unmarshal(raw, &t); jsonErr == nil {
			cacheLookups.WithLabelValues("hit").Inc()
			return &t, nil
		}
		c.logger.WarnContext(ctx, "discarding undecodable cached template", "template_id", id.String())
		cacheLookups.WithLabelValues("error").Inc()
	case errors.Is(err, redis.Nil):
		cacheLookups.WithLabelValues("miss").Inc()
	default:
		c.logger.WarnContext(ctx, "template cache read failed", "template_id", id.String(), "error", err)
		cacheLookups.WithLabelValues("error").Inc()
	}

	// The flight is shared, so one caller's cancellation must not fail the others.
	loadCtx := context.WithoutCancel(ctx)
	v, err, _ := c.group.Do(key, func() (any, error) {
		t, loadErr := c.source.GetTemplate(loadCtx, id)
		if loadErr != nil {
			return nil, loadErr
		}
		c.store(loadCtx, key, t)
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	// Callers of a shared flight each get their own copy.
	t := *v.(*models.Template)
	t.RequiredFields = append([]string(nil), t.RequiredFields...)
	return &t, nil
}

// Invalidate drops a cached template.
func (c *RedisCache) Invalidate(ctx context.Context, id domain.TemplateID) error {
	return c.client.Del(ctx, templateKeyPrefix+id.String()).Err()
}

func (c *RedisCache) store(ctx context.Context, key string, t *models.Template) {
	payload, err := json.Marshal(t)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "template cache write failed", "key", key, "error", err)
	}
}
