package handlers

import (
	"context"
	"net/http"
	"strings"

	"voctnow/services/realtime"
	"voctnow/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ConnectionRegistry tracks the live channel of each client and practitioner.
type ConnectionRegistry interface {
	RegisterClient(id string, ch realtime.Channel)
	RegisterProvider(id string, ch realtime.Channel)
	ReleaseClient(id string, ch realtime.Channel) bool
	ReleaseProvider(id string, ch realtime.Channel) bool
}

// ProviderMessageHandler consumes frames sent by a practitioner.
type ProviderMessageHandler interface {
	HandleProviderMessage(ctx context.Context, providerID string, raw []byte)
}

type RealtimeHandler struct {
	Registry ConnectionRegistry
	Inbound  ProviderMessageHandler
	upgrader websocket.Upgrader
}

// NewRealtimeHandler accepts upgrades from the listed origins. An empty list
// accepts any origin.
func NewRealtimeHandler(registry ConnectionRegistry, inbound ProviderMessageHandler, allowedOrigins []string) *RealtimeHandler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[strings.TrimRight(o, "/")] = struct{}{}
	}
	return &RealtimeHandler{
		Registry: registry,
		Inbound:  inbound,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || len(allowed) == 0 {
					return true
				}
				_, ok := allowed[strings.TrimRight(origin, "/")]
				return ok
			},
		},
	}
}

// ClientSocket handles GET /ws/user/:id. Clients only receive; inbound frames
// are discarded.
func (h *RealtimeHandler) ClientSocket(c *gin.Context) {
	id := c.Param("id")
	ch, ok := h.upgrade(c, id)
	if !ok {
		return
	}
	h.Registry.RegisterClient(id, ch)
	defer func() {
		h.Registry.ReleaseClient(id, ch)
		_ = ch.Close()
	}()

	if err := ch.ReadLoop(func([]byte) {}); err != nil {
		getLogger(c).Debug("client channel closed", zap.String("userId", id), zap.Error(err))
	}
}

// ProviderSocket handles GET /ws/physio/:id. Frames are routed to the
// assignment engine.
func (h *RealtimeHandler) ProviderSocket(c *gin.Context) {
	id := c.Param("id")
	ch, ok := h.upgrade(c, id)
	if !ok {
		return
	}
	h.Registry.RegisterProvider(id, ch)
	defer func() {
		h.Registry.ReleaseProvider(id, ch)
		_ = ch.Close()
	}()

	// A response must finish even if the socket drops mid-transition.
	ctx := context.WithoutCancel(c.Request.Context())
	err := ch.ReadLoop(func(raw []byte) {
		if h.Inbound != nil {
			h.Inbound.HandleProviderMessage(ctx, id, raw)
		}
	})
	if err != nil {
		getLogger(c).Debug("practitioner channel closed", zap.String("providerId", id), zap.Error(err))
	}
}

func (h *RealtimeHandler) upgrade(c *gin.Context, id string) (*realtime.WSChannel, bool) {
	if strings.TrimSpace(id) == "" {
		utils.JSONError(c, http.StatusBadRequest, "Missing id", "connection id is required")
		return nil, false
	}
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		getLogger(c).Warn("websocket upgrade failed", zap.String("id", id), zap.Error(err))
		return nil, false
	}
	return realtime.NewWSChannel(conn), true
}
