// README: Mobilization fee quote handler.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"sewaalat/internal/modules/location"
	"sewaalat/internal/modules/pricing"
	"sewaalat/internal/types"
)

type Quoter interface {
	QuoteTrip(req pricing.TripRequest) pricing.MobilizationQuote
}

// Locator resolves a project address to coordinates.
type Locator interface {
	Resolve(ctx context.Context, address string) (types.Point, error)
}

type MobilizationHandler struct {
	quoter  Quoter
	locator Locator
}

func NewMobilizationHandler(quoter Quoter, locator Locator) *MobilizationHandler {
	return &MobilizationHandler{quoter: quoter, locator: locator}
}

type mobilizationReq struct {
	ProductID      flexString `json:"product_id"`
	VendorLat      flexString `json:"vendor_lat"`
	VendorLng      flexString `json:"vendor_lng"`
	ProjectLat     flexString `json:"project_lat"`
	ProjectLng     flexString `json:"project_lng"`
	ProjectAddress string     `json:"project_address"`
}

// Calculate handles POST /api/calculate-mobilization.
func (h *MobilizationHandler) Calculate(c *gin.Context) {
	var req mobilizationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_json", "invalid json")
		return
	}

	vendor, err := location.ParsePoint("vendor", req.VendorLat.String(), req.VendorLng.String())
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid_coordinate", err.Error())
		return
	}

	project, ok := h.resolveProject(c, req)
	if !ok {
		return
	}

	q := h.quoter.QuoteTrip(pricing.TripRequest{
		Category: req.ProductID.String(),
		Vendor:   vendor,
		Project:  project,
	})
	writeJSON(c, http.StatusOK, gin.H{
		"success":          true,
		"distance_km":      q.DistanceKm,
		"mobilization_fee": q.Fee.Amount,
	})
}

func (h *MobilizationHandler) resolveProject(c *gin.Context, req mobilizationReq) (types.Point, bool) {
	address := strings.TrimSpace(req.ProjectAddress)
	if address == "" || req.ProjectLat != "" || req.ProjectLng != "" {
		p, err := location.ParsePoint("project", req.ProjectLat.String(), req.ProjectLng.String())
		if err != nil {
			writeError(c, http.StatusBadRequest, "invalid_coordinate", err.Error())
			return types.Point{}, false
		}
		return p, true
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	p, err := h.locator.Resolve(ctx, address)
	switch {
	case err == nil:
		return p, true
	case errors.Is(err, location.ErrGeocoderDisabled):
		writeError(c, http.StatusServiceUnavailable, "geocoding_unavailable", err.Error())
	case errors.Is(err, location.ErrAddressNotFound):
		writeError(c, http.StatusUnprocessableEntity, "address_not_found", err.Error())
	case errors.Is(err, location.ErrInvalidCoordinate):
		writeError(c, http.StatusBadGateway, "geocoding_failed", err.Error())
	default:
		writeError(c, http.StatusBadGateway, "geocoding_failed", "geocoding failed")
	}
	return types.Point{}, false
}
