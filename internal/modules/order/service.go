// README: Order service implements checkout, state transitions and extensions.
package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"

	"github.com/shopspring/decimal"

	"sewaalat/internal/clock"
	"sewaalat/internal/modules/pricing"
	"sewaalat/internal/types"
)

var (
	ErrInvalidState  = errors.New("invalid state transition")
	ErrNotFound      = errors.New("order not found")
	ErrConflict      = errors.New("order state conflict")
	ErrBadRequest    = errors.New("bad request")
	ErrForbidden     = errors.New("order belongs to another user")
	ErrUnknownStatus = errors.New("unknown order status")
	ErrDuplicateCode = errors.New("duplicate order code")
)

const (
	maxExtensionDays = 365
	codeAttempts     = 3
	moneyScale       = 2
)

// moneyLimit is the first amount that no longer fits NUMERIC(14,2).
var moneyLimit = decimal.New(1, 12)

// money rounds an amount to whole cents and rejects values the money
// columns cannot hold.
func money(field string, d decimal.Decimal) (decimal.Decimal, error) {
	d = d.Round(moneyScale)
	if d.Abs().Cmp(moneyLimit) >= 0 {
		return decimal.Decimal{}, fmt.Errorf("%w: %s is too large", ErrBadRequest, field)
	}
	return d, nil
}

type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByCode(ctx context.Context, code string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	ListAll(ctx context.Context) ([]Order, error)
	UpdateStatus(ctx context.Context, code string, from, to Status, version int64) (bool, error)
	ApplyExtension(ctx context.Context, code string, from Status, version int64, ext Extension) (bool, error)
	AttachDocument(ctx context.Context, code string, version int64, filename string) (bool, error)
	AppendEvent(ctx context.Context, e *Event) error
}

// Quoter prices the delivery of equipment to the project site.
type Quoter interface {
	QuoteTrip(req pricing.TripRequest) pricing.MobilizationQuote
}

type Service struct {
	repo   Repository
	quoter Quoter
	clock  clock.Clock
	logger *slog.Logger
}

func NewService(repo Repository, quoter Quoter, clk clock.Clock, logger *slog.Logger) *Service {
	if clk == nil {
		clk = clock.NewSystem()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, quoter: quoter, clock: clk, logger: logger}
}

// recordEvent appends to the audit trail. The transition is already
// committed, so a failed append is logged instead of returned.
func (s *Service) recordEvent(ctx context.Context, e *Event) {
	if err := s.repo.AppendEvent(ctx, e); err != nil {
		s.logger.Error("append order event failed",
			"order_id", e.OrderCode, "from", e.FromStatus, "to", e.ToStatus, "err", err)
	}
}

// Caller identifies who is acting on an order.
type Caller struct {
	ID    string
	Admin bool
}

func (c Caller) owns(o *Order) bool {
	return c.Admin || (c.ID != "" && c.ID == o.UserID)
}

type CheckoutCommand struct {
	UserID         string
	ProductID      string
	TotalRentalFee decimal.Decimal
	// DownPayment defaults to half of TotalRentalFee when nil.
	DownPayment *decimal.Decimal
	DeliveryFee decimal.Decimal
	StartDate   string
	EndDate     string
	// Vendor and Project, when both set, make the delivery fee server-computed.
	Vendor   *types.Point
	Project  *types.Point
	Document string
}

type UpdateStatusCommand struct {
	Code    string
	Status  Status
	ActorID string
}

type ExtendCommand struct {
	Code          string
	Caller        Caller
	Days          int
	AdditionalFee decimal.Decimal
}

func (s *Service) Checkout(ctx context.Context, cmd CheckoutCommand) (*Order, error) {
	cmd.UserID = strings.TrimSpace(cmd.UserID)
	if cmd.UserID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrBadRequest)
	}
	total, err := money("total_rental_fee", cmd.TotalRentalFee)
	if err != nil {
		return nil, err
	}
	if !total.IsPositive() {
		return nil, fmt.Errorf("%w: total_rental_fee must be positive", ErrBadRequest)
	}
	start, err := ParseDate(cmd.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := ParseDate(cmd.EndDate)
	if err != nil {
		return nil, err
	}
	if end.Before(start.Time) {
		return nil, fmt.Errorf("%w: end_date is before start_date", ErrBadRequest)
	}

	down := total.Div(decimal.NewFromInt(2)).Round(0)
	if cmd.DownPayment != nil {
		if down, err = money("down_payment", *cmd.DownPayment); err != nil {
			return nil, err
		}
	}
	if down.IsNegative() || down.GreaterThan(total) {
		return nil, fmt.Errorf("%w: down_payment must be between 0 and total_rental_fee", ErrBadRequest)
	}

	fee, err := money("delivery_fee", cmd.DeliveryFee)
	if err != nil {
		return nil, err
	}
	var distance int64
	if cmd.Vendor != nil && cmd.Project != nil && s.quoter != nil {
		q := s.quoter.QuoteTrip(pricing.TripRequest{
			Category: strings.TrimSpace(cmd.ProductID),
			Vendor:   *cmd.Vendor,
			Project:  *cmd.Project,
		})
		fee = decimal.NewFromInt(q.Fee.Amount)
		distance = q.DistanceKm
	}
	if fee.IsNegative() {
		return nil, fmt.Errorf("%w: delivery_fee must not be negative", ErrBadRequest)
	}

	status := StatusPending
	if cmd.Document != "" {
		status = StatusAwaitingVerification
	}

	now := s.clock.Now()
	o := &Order{
		UserID:           cmd.UserID,
		ProductID:        strings.TrimSpace(cmd.ProductID),
		TotalRentalFee:   total,
		DownPayment:      down,
		RemainingBalance: total.Sub(down),
		DeliveryFee:      fee,
		DistanceKm:       distance,
		StartDate:        start,
		EndDate:          end,
		Document:         cmd.Document,
		Status:           status,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	for attempt := 0; ; attempt++ {
		o.Code = newCode(now.UnixMilli())
		err = s.repo.Create(ctx, o)
		if err == nil {
			break
		}
		if !errors.Is(err, ErrDuplicateCode) || attempt+1 >= codeAttempts {
			return nil, err
		}
	}

	s.recordEvent(ctx, &Event{
		OrderCode:  o.Code,
		FromStatus: StatusNone,
		ToStatus:   status,
		ActorType:  ActorUser,
		ActorID:    cmd.UserID,
		CreatedAt:  now,
	})
	return o, nil
}

func (s *Service) GetByCode(ctx context.Context, code string, caller Caller) (*Order, error) {
	o, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !caller.owns(o) {
		return nil, ErrForbidden
	}
	return o, nil
}

// ListByUser returns the user's orders, newest first.
func (s *Service) ListByUser(ctx context.Context, userID string, caller Caller) ([]Order, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrBadRequest)
	}
	if !caller.Admin && caller.ID != userID {
		return nil, ErrForbidden
	}
	return s.repo.ListByUser(ctx, userID)
}

// ListAll returns every order with the owner's username, newest first.
func (s *Service) ListAll(ctx context.Context) ([]Order, error) {
	return s.repo.ListAll(ctx)
}

func (s *Service) UpdateStatus(ctx context.Context, cmd UpdateStatusCommand) (*Order, error) {
	o, err := s.repo.GetByCode(ctx, cmd.Code)
	if err != nil {
		return nil, err
	}
	if !CanTransition(o.Status, cmd.Status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidState, o.Status, cmd.Status)
	}
	ok, err := s.repo.UpdateStatus(ctx, o.Code, o.Status, cmd.Status, o.StatusVersion)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}

	now := s.clock.Now()
	s.recordEvent(ctx, &Event{
		OrderCode:  o.Code,
		FromStatus: o.Status,
		ToStatus:   cmd.Status,
		ActorType:  ActorAdmin,
		ActorID:    cmd.ActorID,
		CreatedAt:  now,
	})
	o.Status = cmd.Status
	o.StatusVersion++
	o.UpdatedAt = now
	return o, nil
}

func (s *Service) Extend(ctx context.Context, cmd ExtendCommand) (*Order, error) {
	if cmd.Days < 1 || cmd.Days > maxExtensionDays {
		return nil, fmt.Errorf("%w: days must be between 1 and %d", ErrBadRequest, maxExtensionDays)
	}
	fee, err := money("additional_fee", cmd.AdditionalFee)
	if err != nil {
		return nil, err
	}
	if fee.IsNegative() {
		return nil, fmt.Errorf("%w: additional_fee must not be negative", ErrBadRequest)
	}
	o, err := s.repo.GetByCode(ctx, cmd.Code)
	if err != nil {
		return nil, err
	}
	if !cmd.Caller.owns(o) {
		return nil, ErrForbidden
	}
	if !CanTransition(o.Status, StatusExtended) {
		return nil, fmt.Errorf("%w: %s orders cannot be extended", ErrInvalidState, o.Status)
	}

	if _, err := money("total_rental_fee", o.TotalRentalFee.Add(fee)); err != nil {
		return nil, err
	}

	ext := Extension{
		NewEndDate:    o.EndDate.AddDays(cmd.Days),
		AdditionalFee: fee,
	}
	ok, err := s.repo.ApplyExtension(ctx, o.Code, o.Status, o.StatusVersion, ext)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}

	actor := ActorUser
	if cmd.Caller.Admin && cmd.Caller.ID != o.UserID {
		actor = ActorAdmin
	}
	s.recordEvent(ctx, &Event{
		OrderCode:  o.Code,
		FromStatus: o.Status,
		ToStatus:   StatusExtended,
		ActorType:  actor,
		ActorID:    cmd.Caller.ID,
		CreatedAt:  s.clock.Now(),
	})
	return s.repo.GetByCode(ctx, o.Code)
}

// AttachDocument records the payment proof for a pending order and moves it
// to awaiting_verification.
func (s *Service) AttachDocument(ctx context.Context, code string, caller Caller, filename string) (*Order, error) {
	if filename == "" {
		return nil, fmt.Errorf("%w: document is required", ErrBadRequest)
	}
	o, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !caller.owns(o) {
		return nil, ErrForbidden
	}
	if !CanTransition(o.Status, StatusAwaitingVerification) {
		return nil, fmt.Errorf("%w: %s orders do not accept documents", ErrInvalidState, o.Status)
	}
	ok, err := s.repo.AttachDocument(ctx, o.Code, o.StatusVersion, filename)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}

	now := s.clock.Now()
	s.recordEvent(ctx, &Event{
		OrderCode:  o.Code,
		FromStatus: o.Status,
		ToStatus:   StatusAwaitingVerification,
		ActorType:  ActorUser,
		ActorID:    caller.ID,
		CreatedAt:  now,
	})
	o.Document = filename
	o.Status = StatusAwaitingVerification
	o.StatusVersion++
	o.UpdatedAt = now
	return o, nil
}

// newCode builds "TRX-<unix millis><3 digits>".
func newCode(millis int64) string {
	return fmt.Sprintf("TRX-%d%03d", millis, rand.IntN(1000))
}
