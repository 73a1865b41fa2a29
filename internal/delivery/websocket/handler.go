package websocket

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/herberelias/cripto-signals/internal/domain"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler streams the open signal list to each connected client on a
// fixed interval.
type Handler struct {
	signals  domain.SignalRepository
	interval time.Duration
	log      zerolog.Logger
}

func NewHandler(signals domain.SignalRepository, interval time.Duration, log zerolog.Logger) *Handler {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Handler{
		signals:  signals,
		interval: interval,
		log:      log.With().Str("component", "websocket").Logger(),
	}
}

func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	h.log.Debug().Str("remote", r.RemoteAddr).Msg("client connected")

	if err := h.push(r, conn); err != nil {
		return
	}

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if err := h.push(r, conn); err != nil {
				h.log.Debug().Err(err).Msg("client disconnected")
				return
			}
		}
	}
}

func (h *Handler) push(r *http.Request, conn *websocket.Conn) error {
	signals, err := h.signals.GetActiveSignals(r.Context())
	if err != nil {
		h.log.Warn().Err(err).Msg("active signal lookup failed")
		return nil
	}
	return conn.WriteJSON(signals)
}
