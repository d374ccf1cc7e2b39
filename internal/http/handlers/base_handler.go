// README: Base handler utilities (JSON helpers, flexible request fields, error mapping).
package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"sewaalat/internal/modules/order"
	"sewaalat/internal/modules/upload"
	"sewaalat/internal/modules/user"
)

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, code, msg string) {
	writeJSON(c, status, errorResponse{Error: msg, Code: code})
}

func writeOrderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, order.ErrUnknownStatus):
		writeError(c, http.StatusBadRequest, "unknown_status", err.Error())
	case errors.Is(err, order.ErrBadRequest):
		writeError(c, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, order.ErrNotFound):
		writeError(c, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, order.ErrForbidden):
		writeError(c, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, order.ErrInvalidState):
		writeError(c, http.StatusConflict, "invalid_state", err.Error())
	case errors.Is(err, order.ErrConflict):
		writeError(c, http.StatusConflict, "conflict", err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal", "internal error")
	}
}

func writeUploadError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, upload.ErrUnsupportedType):
		writeError(c, http.StatusUnsupportedMediaType, "unsupported_document", "document must be pdf, jpg, jpeg or png")
	case errors.Is(err, upload.ErrTooLarge):
		writeError(c, http.StatusRequestEntityTooLarge, "document_too_large", err.Error())
	case errors.Is(err, upload.ErrEmptyFile):
		writeError(c, http.StatusBadRequest, "empty_document", err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal", "internal error")
	}
}

var errNotScalar = errors.New("expected a string, number or boolean")

// flexString accepts a JSON string, number or boolean and keeps its text.
// Numbers are written in canonical decimal form, so 1.0 and 1e0 both read
// as "1". null decodes to "".
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = ""
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(strings.TrimSpace(s))
	case '{', '[':
		return errNotScalar
	case 't', 'f':
		var v bool
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*f = flexString(strconv.FormatBool(v))
	default:
		d, err := decimal.NewFromString(string(b))
		if err != nil {
			return err
		}
		*f = flexString(d.String())
	}
	return nil
}

func (f flexString) String() string {
	return string(f)
}

// parseMoney parses an optional non-empty decimal field.
func parseMoney(field string, raw flexString) (decimal.Decimal, bool, error) {
	if raw == "" {
		return decimal.Decimal{}, false, nil
	}
	d, err := decimal.NewFromString(raw.String())
	if err != nil {
		return decimal.Decimal{}, false, errors.New(field + " must be a number")
	}
	return d, true, nil
}

// caller builds the order.Caller for the authenticated request.
func caller(uid, role string) order.Caller {
	return order.Caller{ID: uid, Admin: role == user.RoleAdmin}
}
