package realtime

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/Ikaze-Murugo/murugo-v2-sub000/internal/infra/config"
	"github.com/Ikaze-Murugo/murugo-v2-sub000/internal/infra/security"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second
	maxMsgSize = 4096
)

// Client is one authenticated websocket connection bound to a user for its
// whole lifetime. The token is checked once at the handshake; there is no
// re-validation after admission.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string
	send   chan []byte
	done   chan struct{}

	closeOnce    sync.Once
	writeTimeout time.Duration
}

// UserID returns the identity the connection was admitted with.
func (c *Client) UserID() string {
	return c.userID
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMsgSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var frame Frame
		if err := json.Unmarshal(raw, &frame); err != nil {
			continue
		}
		c.hub.dispatch(c, frame)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case payload := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Gateway upgrades authenticated HTTP requests to websocket connections.
type Gateway struct {
	hub      *Hub
	tokens   *security.TokenService
	upgrader websocket.Upgrader
	cfg      config.RealtimeSettings
	logger   *zap.Logger
}

// NewGateway constructs a Gateway around the hub.
func NewGateway(hub *Hub, tokens *security.TokenService, cfg config.RealtimeSettings, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SendQueueSize <= 0 {
		cfg.SendQueueSize = 64
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}

	return &Gateway{
		hub:    hub,
		tokens: tokens,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		cfg:    cfg,
		logger: logger,
	}
}

// Handle serves GET /ws?token=<access>. The access token is verified before
// the upgrade; a bad token terminates the handshake with 401 and the client
// must reconnect with a fresh one.
func (g *Gateway) Handle(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"status":  "error",
			"message": "missing access token",
		})
		return
	}

	claims, err := g.tokens.Verify(token, security.TokenKindAccess)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"status":  "error",
			"message": "invalid or expired access token",
		})
		return
	}

	conn, err := g.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		return
	}

	client := &Client{
		hub:          g.hub,
		conn:         conn,
		userID:       claims.UserID,
		send:         make(chan []byte, g.cfg.SendQueueSize),
		done:         make(chan struct{}),
		writeTimeout: g.cfg.WriteTimeout,
	}

	g.hub.register(client)
	g.logger.Debug("realtime connection admitted", zap.String("user_id", client.userID))

	go client.writePump()
	go client.readPump()
}

// NewConnectionGauge builds and registers the active connection gauge.
func NewConnectionGauge(reg prometheus.Registerer) (prometheus.Gauge, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "murugo",
		Subsystem: "realtime",
		Name:      "active_connections",
		Help:      "Current number of connected realtime clients.",
	})

	if err := reg.Register(gauge); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := already.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("existing gauge has unexpected type %T", already.ExistingCollector)
		}
		return nil, fmt.Errorf("register connection gauge: %w", err)
	}

	return gauge, nil
}
