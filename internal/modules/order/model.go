// README: Rental order aggregate, status machine and date helpers.
package order

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusNone                 Status = ""
	StatusPending              Status = "pending"
	StatusAwaitingVerification Status = "awaiting_verification"
	StatusVerified             Status = "verified"
	StatusRejected             Status = "rejected"
	StatusExtended             Status = "extended"
	StatusCompleted            Status = "completed"
)

// legacyStatus maps spellings written by older clients and admin tools.
var legacyStatus = map[string]Status{
	"50%_paid":    StatusAwaitingVerification,
	"paid_verify": StatusAwaitingVerification,
	"paid":        StatusVerified,
	"done":        StatusCompleted,
}

// ParseStatus accepts canonical names and legacy spellings, case-insensitively.
func ParseStatus(s string) (Status, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	switch st := Status(key); st {
	case StatusPending, StatusAwaitingVerification, StatusVerified,
		StatusRejected, StatusExtended, StatusCompleted:
		return st, nil
	}
	if st, ok := legacyStatus[key]; ok {
		return st, nil
	}
	return StatusNone, fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

// AllowedTransitions represents the order state flow as code. Rejected and
// completed orders are terminal.
var AllowedTransitions = map[Status][]Status{
	StatusPending:              {StatusAwaitingVerification, StatusRejected},
	StatusAwaitingVerification: {StatusVerified, StatusRejected},
	StatusVerified:             {StatusExtended, StatusCompleted},
	StatusExtended:             {StatusExtended, StatusCompleted},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

func (s Status) Terminal() bool {
	_, ok := AllowedTransitions[s]
	return !ok
}

// Date is a calendar day without time of day, encoded as YYYY-MM-DD.
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrBadRequest, s)
	}
	return Date{t}, nil
}

func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func (d Date) AddDays(n int) Date {
	return NewDate(d.AddDate(0, 0, n))
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

type Order struct {
	Code             string          `json:"order_id"`
	UserID           string          `json:"user_id"`
	Username         string          `json:"username,omitempty"`
	ProductID        string          `json:"product_id"`
	TotalRentalFee   decimal.Decimal `json:"total_rental_fee"`
	DownPayment      decimal.Decimal `json:"down_payment"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
	DeliveryFee      decimal.Decimal `json:"delivery_fee"`
	DistanceKm       int64           `json:"distance_km"`
	StartDate        Date            `json:"start_date"`
	EndDate          Date            `json:"end_date"`
	Document         string          `json:"document,omitempty"`
	Status           Status          `json:"status"`
	StatusVersion    int64           `json:"status_version"`
	ExtensionCount   int             `json:"extension_count"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

type Event struct {
	ID         int64
	OrderCode  string
	FromStatus Status
	ToStatus   Status
	ActorType  string
	ActorID    string
	CreatedAt  time.Time
}

// Extension is the change applied to an order when its rental is extended.
type Extension struct {
	NewEndDate    Date
	AdditionalFee decimal.Decimal
}

const (
	ActorUser  = "user"
	ActorAdmin = "admin"
)
