// README: Order handlers for checkout, listings, invoices, extensions and documents.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"sewaalat/internal/http/middleware"
	"sewaalat/internal/modules/location"
	"sewaalat/internal/modules/order"
	"sewaalat/internal/types"
)

type OrderService interface {
	Checkout(ctx context.Context, cmd order.CheckoutCommand) (*order.Order, error)
	GetByCode(ctx context.Context, code string, caller order.Caller) (*order.Order, error)
	ListByUser(ctx context.Context, userID string, caller order.Caller) ([]order.Order, error)
	Extend(ctx context.Context, cmd order.ExtendCommand) (*order.Order, error)
	AttachDocument(ctx context.Context, code string, caller order.Caller, filename string) (*order.Order, error)
}

// DocumentStore persists uploaded payment documents.
type DocumentStore interface {
	Save(ctx context.Context, fh *multipart.FileHeader) (string, error)
	Remove(name string) error
}

type OrderHandler struct {
	order  OrderService
	docs   DocumentStore
	logger *slog.Logger
}

func NewOrderHandler(svc OrderService, docs DocumentStore, logger *slog.Logger) *OrderHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderHandler{order: svc, docs: docs, logger: logger}
}

type checkoutReq struct {
	UserID         flexString `json:"user_id" form:"user_id"`
	ProductID      flexString `json:"product_id" form:"product_id"`
	TotalRentalFee flexString `json:"total_rental_fee" form:"total_rental_fee"`
	DownPayment    flexString `json:"down_payment" form:"down_payment"`
	DeliveryFee    flexString `json:"delivery_fee" form:"delivery_fee"`
	StartDate      string     `json:"start_date" form:"start_date"`
	EndDate        string     `json:"end_date" form:"end_date"`
	VendorLat      flexString `json:"vendor_lat" form:"vendor_lat"`
	VendorLng      flexString `json:"vendor_lng" form:"vendor_lng"`
	ProjectLat     flexString `json:"project_lat" form:"project_lat"`
	ProjectLng     flexString `json:"project_lng" form:"project_lng"`
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

func (h *OrderHandler) bindCheckout(c *gin.Context) (checkoutReq, *multipart.FileHeader, error) {
	var req checkoutReq
	if !isMultipart(c) {
		err := c.ShouldBindJSON(&req)
		return req, nil, err
	}
	field := func(name string) flexString {
		return flexString(strings.TrimSpace(c.PostForm(name)))
	}
	req = checkoutReq{
		UserID:         field("user_id"),
		ProductID:      field("product_id"),
		TotalRentalFee: field("total_rental_fee"),
		DownPayment:    field("down_payment"),
		DeliveryFee:    field("delivery_fee"),
		StartDate:      c.PostForm("start_date"),
		EndDate:        c.PostForm("end_date"),
		VendorLat:      field("vendor_lat"),
		VendorLng:      field("vendor_lng"),
		ProjectLat:     field("project_lat"),
		ProjectLng:     field("project_lng"),
	}
	fh, err := c.FormFile("document")
	if errors.Is(err, http.ErrMissingFile) {
		return req, nil, nil
	}
	return req, fh, err
}

// tripPoints returns nil points when no coordinates were sent at all.
func tripPoints(req checkoutReq) (*types.Point, *types.Point, error) {
	if req.VendorLat == "" && req.VendorLng == "" && req.ProjectLat == "" && req.ProjectLng == "" {
		return nil, nil, nil
	}
	vendor, err := location.ParsePoint("vendor", req.VendorLat.String(), req.VendorLng.String())
	if err != nil {
		return nil, nil, err
	}
	project, err := location.ParsePoint("project", req.ProjectLat.String(), req.ProjectLng.String())
	if err != nil {
		return nil, nil, err
	}
	return &vendor, &project, nil
}

// Checkout handles POST /api/checkout as JSON or multipart with an optional
// "document" file.
func (h *OrderHandler) Checkout(c *gin.Context) {
	req, fh, err := h.bindCheckout(c)
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}

	uid := middleware.CallerUID(c)
	who := caller(uid, middleware.CallerRole(c))
	userID := req.UserID.String()
	if userID == "" {
		userID = uid
	}
	if userID != uid && !who.Admin {
		writeError(c, http.StatusForbidden, "forbidden", "user_id does not match the signed-in user")
		return
	}

	cmd := order.CheckoutCommand{
		UserID:    userID,
		ProductID: req.ProductID.String(),
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	}
	total, _, err := parseMoney("total_rental_fee", req.TotalRentalFee)
	if err != nil {
		writeError(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	cmd.TotalRentalFee = total
	dp, hasDP, err := parseMoney("down_payment", req.DownPayment)
	if err != nil {
		writeError(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if hasDP {
		cmd.DownPayment = &dp
	}
	if cmd.DeliveryFee, _, err = parseMoney("delivery_fee", req.DeliveryFee); err != nil {
		writeError(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if cmd.Vendor, cmd.Project, err = tripPoints(req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_coordinate", err.Error())
		return
	}

	if fh != nil {
		name, err := h.docs.Save(c.Request.Context(), fh)
		if err != nil {
			writeUploadError(c, err)
			return
		}
		cmd.Document = name
	}

	o, err := h.order.Checkout(c.Request.Context(), cmd)
	if err != nil {
		if cmd.Document != "" {
			if rmErr := h.docs.Remove(cmd.Document); rmErr != nil {
				h.logger.Warn("remove orphan document", "document", cmd.Document, "err", rmErr)
			}
		}
		writeOrderError(c, err)
		return
	}
	h.logger.Info("order created", "order_id", o.Code, "user_id", o.UserID, "status", o.Status)
	writeJSON(c, http.StatusCreated, gin.H{
		"success": true,
		"orderId": o.Code,
		"message": "order created",
		"order":   o,
	})
}

// MyOrders handles GET /api/my-orders/:user_id.
func (h *OrderHandler) MyOrders(c *gin.Context) {
	orders, err := h.order.ListByUser(c.Request.Context(), c.Param("user_id"),
		caller(middleware.CallerUID(c), middleware.CallerRole(c)))
	if err != nil {
		writeOrderError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, orders)
}

// Invoice handles GET /api/invoices/:order_id.
func (h *OrderHandler) Invoice(c *gin.Context) {
	o, err := h.order.GetByCode(c.Request.Context(), c.Param("order_id"),
		caller(middleware.CallerUID(c), middleware.CallerRole(c)))
	if err != nil {
		writeOrderError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"success": true, "order": o})
}

type extendReq struct {
	Days          flexString `json:"days"`
	AdditionalFee flexString `json:"additional_fee"`
}

// Extend handles POST /api/orders/:order_id/extend.
func (h *OrderHandler) Extend(c *gin.Context) {
	var req extendReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	days, err := strconv.Atoi(req.Days.String())
	if err != nil {
		writeError(c, http.StatusBadRequest, "bad_request", "days must be a whole number")
		return
	}
	fee, _, err := parseMoney("additional_fee", req.AdditionalFee)
	if err != nil {
		writeError(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	o, err := h.order.Extend(c.Request.Context(), order.ExtendCommand{
		Code:          c.Param("order_id"),
		Caller:        caller(middleware.CallerUID(c), middleware.CallerRole(c)),
		Days:          days,
		AdditionalFee: fee,
	})
	if err != nil {
		writeOrderError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"success": true, "order": o})
}

// AttachDocument handles POST /api/orders/:order_id/document.
func (h *OrderHandler) AttachDocument(c *gin.Context) {
	fh, err := c.FormFile("document")
	if err != nil {
		writeError(c, http.StatusBadRequest, "empty_document", "document file is required")
		return
	}
	name, err := h.docs.Save(c.Request.Context(), fh)
	if err != nil {
		writeUploadError(c, err)
		return
	}

	o, err := h.order.AttachDocument(c.Request.Context(), c.Param("order_id"),
		caller(middleware.CallerUID(c), middleware.CallerRole(c)), name)
	if err != nil {
		if rmErr := h.docs.Remove(name); rmErr != nil {
			h.logger.Warn("remove orphan document", "document", name, "err", rmErr)
		}
		writeOrderError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"success": true, "order": o})
}
