package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"github.com/ignatzorin/stroyhub-backend/internal/events"
	"github.com/ignatzorin/stroyhub-backend/internal/logger"
)

// Hub управляет WebSocket подключениями и транслирует им ленту изменений.
type Hub struct {
	mu         sync.RWMutex
	clients    map[uuid.UUID]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	bus        *events.Bus
}

// NewHub создаёт хаб поверх шины изменений.
func NewHub(bus *events.Bus) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		bus:        bus,
	}
}

// Run запускает главный цикл хаба. Хаб держит одну подписку на все события
// шины и сам раскладывает их по подключённым пользователям.
func (h *Hub) Run(ctx context.Context) {
	sub := h.bus.Subscribe(uuid.Nil)
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case change, ok := <-sub.Events():
			if !ok {
				return
			}
			h.dispatch(change)
		}
	}
}

// Register добавляет клиента.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister удаляет клиента.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// ConnectedUsers возвращает число пользователей с активными подключениями.
func (h *Hub) ConnectedUsers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) dispatch(change events.Change) {
	// Контракт WebSocket API: "type" — вид сущности и действие,
	// "data" — само изменение.
	raw, err := json.Marshal(map[string]interface{}{
		"type": string(change.Kind) + "." + change.Action,
		"data": change,
	})
	if err != nil {
		logger.Log.WithError(err).Error("ws: не удалось сериализовать событие")
		return
	}

	if len(change.Recipients) == 0 {
		h.mu.RLock()
		for userID := range h.clients {
			h.sendLocked(userID, raw)
		}
		h.mu.RUnlock()
		return
	}

	h.mu.RLock()
	for _, userID := range change.Recipients {
		h.sendLocked(userID, raw)
	}
	h.mu.RUnlock()
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.userID]; !ok {
		h.clients[client.userID] = make(map[*Client]struct{})
	}
	h.clients[client.userID][client] = struct{}{}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[client.userID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.clients, client.userID)
		}
	}
}

// sendLocked рассылает payload всем подключениям пользователя.
// Вызывается под h.mu.RLock.
func (h *Hub) sendLocked(userID uuid.UUID, payload []byte) {
	for client := range h.clients[userID] {
		select {
		case client.send <- payload:
		default:
			// Медленный клиент: закрываем соединение вне цикла рассылки.
			go client.Close()
		}
	}
}
