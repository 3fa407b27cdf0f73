package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/theblitlabs/vecstake/internal/config"
	"github.com/theblitlabs/vecstake/internal/session"
	"github.com/theblitlabs/vecstake/internal/telemetry"
	"github.com/theblitlabs/vecstake/pkg/logger"
)

const clientBuffer = 64

// UpdateSource is the part of the session controller the notifier listens to.
type UpdateSource interface {
	Subscribe(ch chan<- session.Update) event.Subscription
}

type client struct {
	conn *websocket.Conn
	send chan WSMessage
}

// Notifier pushes session, balance, action and toast messages to every
// connected websocket client.
type Notifier struct {
	dashboard  Dashboard
	deployment config.Deployment
	cfg        config.WebsocketConfig
	toastTTL   time.Duration
	upgrader   websocket.Upgrader
	now        func() time.Time
	log        zerolog.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
}

func NewNotifier(dashboard Dashboard, cfg config.ServerConfig) *Notifier {
	ws := cfg.Websocket
	if ws.WriteWait <= 0 {
		ws.WriteWait = 10 * time.Second
	}
	if ws.PongWait <= 0 {
		ws.PongWait = 60 * time.Second
	}
	if ws.MaxMessageSize <= 0 {
		ws.MaxMessageSize = 512
	}
	ttl := cfg.ToastTTL
	if ttl <= 0 {
		ttl = 3 * time.Second
	}

	return &Notifier{
		dashboard:  dashboard,
		deployment: dashboard.Deployment(),
		cfg:        ws,
		toastTTL:   ttl,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		now:     time.Now,
		log:     logger.WithComponent("websocket"),
		clients: make(map[*client]struct{}),
	}
}

// Run relays controller updates to clients until ctx is done.
func (n *Notifier) Run(ctx context.Context, source UpdateSource) {
	updates := make(chan session.Update, 64)
	sub := source.Subscribe(updates)
	defer sub.Unsubscribe()

	for {
		select {
		case u := <-updates:
			n.relay(u)
		case err := <-sub.Err():
			if err != nil {
				n.log.Error().Err(err).Msg("Update subscription failed")
			}
			return
		case <-ctx.Done():
			n.closeAll()
			return
		}
	}
}

func (n *Notifier) relay(u session.Update) {
	switch u.Kind {
	case session.UpdateSession:
		n.Broadcast(WSMessage{Type: MessageSession, Payload: NewSessionView(u.Session, n.deployment)})
	case session.UpdateBalances:
		n.Broadcast(WSMessage{Type: MessageBalances, Payload: NewBalancesView(u.Balances, n.deployment)})
	case session.UpdateAction:
		n.Broadcast(WSMessage{Type: MessageAction, Payload: NewActionEvent(u.Transition, n.deployment)})
		if u.Transition.Notice != "" {
			n.Toast(u.Transition.Notice, string(u.Transition.Level))
		}
	}
}

// Toast broadcasts a notification that expires after the configured TTL.
func (n *Notifier) Toast(message, level string) Toast {
	t := Toast{
		ID:        uuid.New().String(),
		Message:   message,
		Level:     level,
		ExpiresAt: n.now().Add(n.toastTTL),
	}
	n.Broadcast(WSMessage{Type: MessageToast, Payload: t})
	return t
}

// Broadcast queues msg for every client. Clients that cannot keep up are
// dropped.
func (n *Notifier) Broadcast(msg WSMessage) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for c := range n.clients {
		select {
		case c.send <- msg:
		default:
			n.log.Warn().Str("remote", c.conn.RemoteAddr().String()).Msg("Slow client dropped")
			n.removeLocked(c)
		}
	}
}

func (n *Notifier) Clients() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.clients)
}

// ServeWS upgrades the request and sends the current state before any update.
func (n *Notifier) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := n.upgrader.Upgrade(w, r, nil)
	if err != nil {
		n.log.Debug().Err(err).Msg("Upgrade failed")
		return
	}

	c := &client{conn: conn, send: make(chan WSMessage, clientBuffer)}
	c.send <- WSMessage{Type: MessageSession, Payload: NewSessionView(n.dashboard.Session(), n.deployment)}
	c.send <- WSMessage{Type: MessageBalances, Payload: NewBalancesView(n.dashboard.Balances(), n.deployment)}
	for _, s := range n.dashboard.Actions() {
		c.send <- WSMessage{Type: MessageAction, Payload: NewActionView(s)}
	}

	n.mu.Lock()
	n.clients[c] = struct{}{}
	n.mu.Unlock()

	telemetry.RecordWebsocketConnection(1)
	n.log.Debug().Str("remote", conn.RemoteAddr().String()).Msg("Client connected")

	go n.writePump(c)
	n.readPump(c)
}

func (n *Notifier) readPump(c *client) {
	defer n.remove(c)

	c.conn.SetReadLimit(n.cfg.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(n.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(n.cfg.PongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				n.log.Debug().Err(err).Msg("Connection closed")
			}
			return
		}
	}
}

func (n *Notifier) writePump(c *client) {
	ticker := time.NewTicker(n.cfg.PongWait * 9 / 10)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(n.cfg.WriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				n.log.Debug().Err(err).Str("type", msg.Type).Msg("Message send failed")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(n.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (n *Notifier) remove(c *client) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.removeLocked(c)
}

func (n *Notifier) removeLocked(c *client) {
	if _, ok := n.clients[c]; !ok {
		return
	}
	delete(n.clients, c)
	close(c.send)
	telemetry.RecordWebsocketConnection(-1)
}

func (n *Notifier) closeAll() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for c := range n.clients {
		n.removeLocked(c)
	}
}
