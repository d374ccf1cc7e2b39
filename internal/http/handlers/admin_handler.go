// README: Admin handlers for reviewing and moving orders through their lifecycle.
package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"sewaalat/internal/http/middleware"
	"sewaalat/internal/modules/order"
)

type AdminOrderService interface {
	ListAll(ctx context.Context) ([]order.Order, error)
	UpdateStatus(ctx context.Context, cmd order.UpdateStatusCommand) (*order.Order, error)
}

type AdminHandler struct {
	orders AdminOrderService
	logger *slog.Logger
}

func NewAdminHandler(svc AdminOrderService, logger *slog.Logger) *AdminHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminHandler{orders: svc, logger: logger}
}

// ListTransactions handles GET /api/admin/transactions.
func (h *AdminHandler) ListTransactions(c *gin.Context) {
	orders, err := h.orders.ListAll(c.Request.Context())
	if err != nil {
		writeOrderError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, orders)
}

type updateStatusReq struct {
	Status string `json:"status"`
}

// UpdateTransaction handles PUT /api/admin/transactions/:order_id.
func (h *AdminHandler) UpdateTransaction(c *gin.Context) {
	var req updateStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	status, err := order.ParseStatus(req.Status)
	if err != nil {
		writeOrderError(c, err)
		return
	}

	o, err := h.orders.UpdateStatus(c.Request.Context(), order.UpdateStatusCommand{
		Code:    c.Param("order_id"),
		Status:  status,
		ActorID: middleware.CallerUID(c),
	})
	if err != nil {
		writeOrderError(c, err)
		return
	}
	h.logger.Info("order status updated", "order_id", o.Code, "status", o.Status, "admin", middleware.CallerUID(c))
	writeJSON(c, http.StatusOK, gin.H{"success": true, "order": o})
}
