package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Leganyst/scheduling-core/internal/calendar"
	"github.com/Leganyst/scheduling-core/internal/events"
	"github.com/Leganyst/scheduling-core/internal/tenant"
)

// SlotCache хранит готовые ответы. Инвалидация: через поколение компании:
// ключи старого поколения просто перестают читаться.
type SlotCache interface {
	Get(ctx context.Context, key string) ([]string, bool, error)
	Set(ctx context.Context, key string, slots []string, ttl time.Duration) error
	Generation(ctx context.Context, companyID uuid.UUID) (int64, error)
	Invalidate(ctx context.Context, companyID uuid.UUID) error
}

// Таблицы, от которых зависит ответ движка.
var invalidatingTopics = []events.Topic{
	events.TopicAppointments,
	events.TopicWeeklyAvailability,
	events.TopicAvailabilityBlocks,
	events.TopicServices,
	events.TopicProfessionals,
}

// CacheKey: ключ ответа для (компания, поколение, специалист, услуга, дата).
func CacheKey(companyID uuid.UUID, generation int64, q Query) string {
	service := "-"
	if q.ServiceID != nil {
		service = q.ServiceID.String()
	}
	return fmt.Sprintf("slots:%s:%d:%s:%s:%s",
		companyID, generation, q.ProfessionalID, service, q.Date.Format(calendar.DateLayout))
}

// CachedEngine: кэш поверх Engine. Ответы на ближайшие дни зависят от часов,
// поэтому живут не дольше nearTTL.
type CachedEngine struct {
	engine  SlotSource
	cache   SlotCache
	ttl     time.Duration
	nearTTL time.Duration
	near    time.Duration
	now     func() time.Time
	logger  *zap.Logger

	unsubscribe []func()
}

type CacheOptions struct {
	TTL     time.Duration
	NearTTL time.Duration
	// Насколько вперёд от сегодняшней даты ответ считается "ближним".
	NearWindow time.Duration
	Now        func() time.Time
	Logger     *zap.Logger
}

func NewCachedEngine(engine SlotSource, cache SlotCache, bus events.Bus, opts CacheOptions) *CachedEngine {
	if opts.TTL <= 0 {
		opts.TTL = 10 * time.Minute
	}
	if opts.NearTTL <= 0 || opts.NearTTL > opts.TTL {
		opts.NearTTL = time.Minute
	}
	if opts.NearWindow <= 0 {
		opts.NearWindow = 24 * time.Hour
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	c := &CachedEngine{
		engine:  engine,
		cache:   cache,
		ttl:     opts.TTL,
		nearTTL: opts.NearTTL,
		near:    opts.NearWindow,
		now:     opts.Now,
		logger:  opts.Logger,
	}
	if bus != nil {
		for _, topic := range invalidatingTopics {
			c.unsubscribe = append(c.unsubscribe, bus.Subscribe(topic, c.onChange))
		}
	}
	return c
}

// Close отписывает кэш от шины.
func (c *CachedEngine) Close() {
	for _, u := range c.unsubscribe {
		u()
	}
	c.unsubscribe = nil
}

func (c *CachedEngine) onChange(ctx context.Context, e events.Event) {
	if e.CompanyID == uuid.Nil {
		return
	}
	if err := c.cache.Invalidate(ctx, e.CompanyID); err != nil {
		c.logger.Warn("slot cache invalidate failed",
			zap.String("company_id", e.CompanyID.String()),
			zap.String("topic", string(e.Topic)),
			zap.Error(err))
	}
}

func (c *CachedEngine) ComputeSlots(ctx context.Context, professionalID, serviceID, date string) ([]string, error) {
	return computeStrings(ctx, c, professionalID, serviceID, date)
}

// Slots отдаёт ответ из кэша; ошибки кэша не ломают запрос, а ведут к движку.
func (c *CachedEngine) Slots(ctx context.Context, q Query) ([]calendar.TimeOfDay, error) {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return nil, err
	}
	q.Date = calendar.DateOnly(q.Date)

	gen, err := c.cache.Generation(ctx, companyID)
	if err != nil {
		c.logger.Warn("slot cache unavailable", zap.Error(err))
		return c.engine.Slots(ctx, q)
	}
	key := CacheKey(companyID, gen, q)

	if cached, ok, err := c.cache.Get(ctx, key); err != nil {
		c.logger.Warn("slot cache get failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		if slots, ok := parseCached(cached); ok {
			return slots, nil
		}
	}

	slots, err := c.engine.Slots(ctx, q)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, key, Format(slots), c.ttlFor(q.Date)); err != nil {
		c.logger.Warn("slot cache set failed", zap.String("key", key), zap.Error(err))
	}
	return slots, nil
}

func (c *CachedEngine) ttlFor(date time.Time) time.Duration {
	today := calendar.DateOnly(c.now().UTC())
	if date.Before(today.Add(c.near + 24*time.Hour)) {
		return c.nearTTL
	}
	return c.ttl
}

func parseCached(values []string) ([]calendar.TimeOfDay, bool) {
	out := make([]calendar.TimeOfDay, 0, len(values))
	for _, v := range values {
		t, err := calendar.ParseTimeOfDay(v)
		if err != nil {
			return nil, false
		}
		out = append(out, t)
	}
	return out, true
}
