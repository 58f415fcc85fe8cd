// Package events: подписки "тема → обработчик", не привязанные к транспорту.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Topic string

// Темы совпадают с таблицами, изменения которых интересны подписчикам.
const (
	TopicAppointments       Topic = "appointments"
	TopicWeeklyAvailability Topic = "weekly_availability"
	TopicAvailabilityBlocks Topic = "availability_blocks"
	TopicServices           Topic = "services"
	TopicProfessionals      Topic = "professionals"
	TopicNotifications      Topic = "notifications"
)

type Action string

const (
	ActionInsert Action = "insert"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

type Event struct {
	Topic     Topic
	Action    Action
	CompanyID uuid.UUID
	RecordID  uuid.UUID
	// Payload: изменённая запись (например, *model.Appointment); может быть nil.
	Payload any
	At      time.Time
}

type Handler func(ctx context.Context, e Event)

type Bus interface {
	Publish(ctx context.Context, e Event)
	// Subscribe возвращает функцию отписки.
	Subscribe(topic Topic, h Handler) (unsubscribe func())
}

// MemoryBus: синхронная доставка внутри процесса.
// Паника обработчика логируется и не мешает остальным подписчикам.
type MemoryBus struct {
	mu     sync.RWMutex
	subs   map[Topic]map[uint64]Handler
	nextID uint64
	logger *zap.Logger
}

func NewMemoryBus(logger *zap.Logger) *MemoryBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryBus{
		subs:   make(map[Topic]map[uint64]Handler),
		logger: logger,
	}
}

func (b *MemoryBus) Subscribe(topic Topic, h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[uint64]Handler)
	}
	b.subs[topic][id] = h

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs[topic], id)
		})
	}
}

func (b *MemoryBus) Publish(ctx context.Context, e Event) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}

	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[e.Topic]))
	for _, h := range b.subs[e.Topic] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		b.deliver(ctx, h, e)
	}
}

func (b *MemoryBus) deliver(ctx context.Context, h Handler, e Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panic",
				zap.String("topic", string(e.Topic)),
				zap.Any("recover", r))
		}
	}()
	h(ctx, e)
}
