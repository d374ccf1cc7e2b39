// README: Rental equipment catalog entries.
package catalog

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("product not found")

type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	PricePerDay decimal.Decimal `json:"price_per_day"`
	ImageURL    string          `json:"image_url"`
	Stock       int             `json:"stock"`
	CreatedAt   time.Time       `json:"created_at"`
}
