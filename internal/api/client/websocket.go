package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/theblitlabs/vecstake/pkg/logger"
)

// Message is a dashboard push message with its payload left encoded.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Handler receives every message read from the dashboard.
type Handler interface {
	HandleMessage(msg Message)
}

type HandlerFunc func(msg Message)

func (f HandlerFunc) HandleMessage(msg Message) {
	f(msg)
}

// WebSocketClient follows the dashboard websocket.
type WebSocketClient struct {
	conn     *websocket.Conn
	url      string
	token    string
	handler  Handler
	stopOnce sync.Once
	done     chan struct{}
	log      zerolog.Logger
}

// NewWebSocketClient creates a client for url. token, when set, is sent as a
// bearer token.
func NewWebSocketClient(url, token string, handler Handler) *WebSocketClient {
	return &WebSocketClient{
		url:     url,
		token:   token,
		handler: handler,
		done:    make(chan struct{}),
		log:     logger.WithComponent("websocket"),
	}
}

func (w *WebSocketClient) Connect() error {
	w.log.Info().Str("url", w.url).Msg("Connecting")

	header := http.Header{}
	if w.token != "" {
		header.Set("Authorization", "Bearer "+w.token)
	}

	conn, _, err := websocket.DefaultDialer.Dial(w.url, header)
	if err != nil {
		w.log.Error().Err(err).Str("url", w.url).Msg("Connection failed")
		return fmt.Errorf("websocket connection failed: %w", err)
	}

	w.log.Debug().Str("url", w.url).Msg("Connected")
	w.conn = conn
	return nil
}

// Start reads messages in the background until Stop or the server closes the
// connection.
func (w *WebSocketClient) Start() {
	go w.listen()
}

// Done is closed once the read loop has ended.
func (w *WebSocketClient) Done() <-chan struct{} {
	return w.done
}

func (w *WebSocketClient) Stop() {
	w.stopOnce.Do(func() {
		if w.conn == nil {
			return
		}
		if err := w.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")); err != nil {
			w.log.Debug().Err(err).Str("url", w.url).Msg("Close message failed")
		}
		w.conn.Close()
		w.log.Debug().Str("url", w.url).Msg("Connection closed")
	})
}

func (w *WebSocketClient) listen() {
	defer close(w.done)

	for {
		var msg Message
		if err := w.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				w.log.Warn().Err(err).Str("url", w.url).Msg("Unexpected close")
			}
			return
		}
		w.handler.HandleMessage(msg)
	}
}
