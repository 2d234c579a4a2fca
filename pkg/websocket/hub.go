package websocket

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

type directMessage struct {
	userID uint64
	data   []byte
}

// Hub владеет картой клиентов. Карту читает и меняет только горутина Run.
type Hub struct {
	clients    map[uint64]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	direct     chan directMessage
	logger     *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[uint64]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		direct:     make(chan directMessage, 256),
		logger:     logger,
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for _, set := range h.clients {
				for c := range set {
					close(c.Send)
				}
			}
			h.clients = make(map[uint64]map[*Client]struct{})
			return
		case client := <-h.register:
			set, ok := h.clients[client.UserID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.UserID] = set
			}
			set[client] = struct{}{}
			h.logger.Debug("Клиент зарегистрирован", zap.Uint64("userID", client.UserID))
		case client := <-h.unregister:
			h.remove(client)
		case msg := <-h.direct:
			for client := range h.clients[msg.userID] {
				select {
				case client.Send <- msg.data:
				default:
					// клиент не успевает читать
					h.remove(client)
				}
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	set, ok := h.clients[client.UserID]
	if !ok {
		return
	}
	if _, ok := set[client]; !ok {
		return
	}
	delete(set, client)
	close(client.Send)
	if len(set) == 0 {
		delete(h.clients, client.UserID)
	}
	h.logger.Debug("Клиент отсоединен", zap.Uint64("userID", client.UserID))
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

// SendMessageToUser ставит сообщение в очередь хаба и не блокируется.
// Если очередь переполнена, сообщение отбрасывается: уведомление уже сохранено в БД.
func (h *Hub) SendMessageToUser(userID uint64, payload interface{}, messageType string) error {
	data, err := json.Marshal(Envelope{
		Type:      messageType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	select {
	case h.direct <- directMessage{userID: userID, data: data}:
	default:
		h.logger.Warn("Очередь WebSocket переполнена, сообщение отброшено", zap.Uint64("userID", userID))
	}
	return nil
}
