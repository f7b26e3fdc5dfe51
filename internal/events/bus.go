package events

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/stroyhub-backend/internal/logger"
)

// Kind тип изменяемой сущности.
type Kind string

const (
	KindRequest       Kind = "request"
	KindProjectUpdate Kind = "project_update"
	KindConversation  Kind = "conversation"
	KindMessage       Kind = "message"
	KindNotification  Kind = "notification"
	KindProperty      Kind = "property"
)

// Change описывает одно изменение в хранилище. Recipients — пользователи,
// которым изменение адресовано; пустой список означает "всем подписчикам".
type Change struct {
	Kind       Kind          `json:"kind"`
	Action     string        `json:"action"`
	EntityID   uuid.UUID     `json:"entity_id"`
	Recipients []uuid.UUID   `json:"-"`
	Payload    interface{}   `json:"payload,omitempty"`
	At         time.Time     `json:"at"`
}

// Subscription — подписка на ленту изменений. Владелец обязан вызвать
// Unsubscribe при завершении работы: забытая подписка продолжает получать
// события всё время жизни процесса.
type Subscription struct {
	id     uuid.UUID
	bus    *Bus
	ch     chan Change
	kinds  map[Kind]struct{}
	userID uuid.UUID
	once   sync.Once
}

// Events возвращает канал событий подписки. Порядок событий гарантирован
// только внутри одной подписки.
func (s *Subscription) Events() <-chan Change {
	return s.ch
}

// Unsubscribe снимает подписку и закрывает канал событий.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.bus.remove(s.id)
		close(s.ch)
	})
}

// Bus — внутрипроцессная шина изменений хранилища. Репозитории публикуют
// события после успешной записи, потребители (WebSocket hub) подписываются.
type Bus struct {
	mu     sync.RWMutex
	subs   map[uuid.UUID]*Subscription
	buffer int
}

// NewBus создаёт шину с заданным размером буфера на подписку.
func NewBus(buffer int) *Bus {
	if buffer <= 0 {
		buffer = 64
	}
	return &Bus{
		subs:   make(map[uuid.UUID]*Subscription),
		buffer: buffer,
	}
}

// Subscribe регистрирует подписку. kinds пустой — все типы событий;
// userID == uuid.Nil — события всех пользователей.
func (b *Bus) Subscribe(userID uuid.UUID, kinds ...Kind) *Subscription {
	sub := &Subscription{
		id:     uuid.New(),
		bus:    b,
		ch:     make(chan Change, b.buffer),
		userID: userID,
	}
	if len(kinds) > 0 {
		sub.kinds = make(map[Kind]struct{}, len(kinds))
		for _, k := range kinds {
			sub.kinds[k] = struct{}{}
		}
	}

	b.mu.Lock()
	b.subs[sub.id] = sub
	b.mu.Unlock()

	return sub
}

// Publish рассылает изменение всем подходящим подпискам. Отправка
// неблокирующая: переполненный буфер подписки означает потерю события
// для этой подписки (лента изменений — не журнал с гарантией доставки).
func (b *Bus) Publish(change Change) {
	if change.At.IsZero() {
		change.At = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subs {
		if !sub.matches(change) {
			continue
		}
		select {
		case sub.ch <- change:
		default:
			if logger.Log != nil {
				logger.Log.WithField("kind", change.Kind).
					Warn("events: буфер подписки переполнен, событие пропущено")
			}
		}
	}
}

// SubscriberCount возвращает число активных подписок.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (b *Bus) remove(id uuid.UUID) {
	b.mu.Lock()
	delete(b.subs, id)
	b.mu.Unlock()
}

func (s *Subscription) matches(change Change) bool {
	if s.kinds != nil {
		if _, ok := s.kinds[change.Kind]; !ok {
			return false
		}
	}
	if s.userID == uuid.Nil || len(change.Recipients) == 0 {
		return true
	}
	for _, r := range change.Recipients {
		if r == s.userID {
			return true
		}
	}
	return false
}
