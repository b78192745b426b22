package websocket

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/HSouheill/marketplace_backend/middleware"
	"github.com/HSouheill/marketplace_backend/models"
	"github.com/HSouheill/marketplace_backend/services"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// CommissionStream is the subscription surface of the commission ledger.
type CommissionStream interface {
	SubscribeToAdminCommissionBalance(ctx context.Context, adminID string, cb func(balance float64)) (services.Unsubscribe, error)
	SubscribeToAdminCommissionTransactions(ctx context.Context, adminID string, cb func(txns []models.CommissionTransaction), limit int) (services.Unsubscribe, error)
}

// Handler upgrades authenticated requests and bridges commission subscriptions onto them.
type Handler struct {
	hub         *Hub
	commissions CommissionStream
	logger      *logrus.Logger
	upgrader    websocket.Upgrader
}

// NewHandler builds a Handler. checkOrigin may be nil to accept any origin.
func NewHandler(hub *Hub, commissions CommissionStream, logger *logrus.Logger, checkOrigin func(r *http.Request) bool) *Handler {
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}
	return &Handler{
		hub:         hub,
		commissions: commissions,
		logger:      logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

// ServeCommission streams the admin's balance and latest transactions until the client
// disconnects. The admin id comes from the authenticated context.
func (h *Handler) ServeCommission(c echo.Context) error {
	adminID := middleware.GetUserIDFromToken(c)
	if adminID == "" {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication required",
		})
	}
	limit := 10
	if n, err := strconv.Atoi(c.QueryParam("limit")); err == nil && n > 0 && n <= 100 {
		limit = n
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		h.logger.WithError(err).WithField("adminId", adminID).Warn("websocket upgrade failed")
		return nil
	}

	client := newClient(adminID, conn)
	if !h.hub.add(client) {
		conn.Close()
		return nil
	}
	go client.writePump()

	client.enqueue(Message{
		Type:    MessageTypeConnected,
		Message: "WebSocket connection established",
		UserID:  adminID,
	})

	// The subscriptions live as long as the connection, not the HTTP request.
	ctx, cancel := context.WithCancel(context.Background())
	unsubs := make([]services.Unsubscribe, 0, 2)

	unsubBalance, err := h.commissions.SubscribeToAdminCommissionBalance(ctx, adminID, func(balance float64) {
		client.enqueue(Message{
			Type: MessageTypeCommissionBalance,
			Data: map[string]interface{}{"adminId": adminID, "balance": balance},
		})
	})
	if err == nil {
		unsubs = append(unsubs, unsubBalance)
	} else {
		h.logger.WithError(err).WithField("adminId", adminID).Error("balance subscription failed")
	}

	unsubTxns, err := h.commissions.SubscribeToAdminCommissionTransactions(ctx, adminID, func(txns []models.CommissionTransaction) {
		client.enqueue(Message{
			Type: MessageTypeCommissionTransactions,
			Data: txns,
		})
	}, limit)
	if err == nil {
		unsubs = append(unsubs, unsubTxns)
	} else {
		h.logger.WithError(err).WithField("adminId", adminID).Error("transactions subscription failed")
	}

	go func() {
		defer func() {
			for _, unsub := range unsubs {
				unsub()
			}
			cancel()
			h.hub.remove(client)
		}()

		conn.SetReadLimit(512)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		// Clients send nothing meaningful; reading surfaces the disconnect.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	return nil
}
