package order

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"sewaalat/internal/clock"
	"sewaalat/internal/modules/pricing"
	"sewaalat/internal/testutil"
)

func setupTestStore(t *testing.T) (*Store, *pgxpool.Pool) {
	t.Helper()
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateOrders(t, ctx, pool)
	return NewStore(pool), pool
}

func TestStore_FlowAgainstPostgres(t *testing.T) {
	store, pool := setupTestStore(t)
	ctx := context.Background()
	svc := NewService(store, pricing.NewService(nil), clock.NewSystem(), nil)

	var userID int64
	if err := pool.QueryRow(ctx,
		`INSERT INTO users (username, password_hash, role) VALUES ('store_flow_user', '\x00', 'user')
		 ON CONFLICT (username) DO UPDATE SET role = 'user' RETURNING id`,
	).Scan(&userID); err != nil {
		t.Fatalf("insert user: %v", err)
	}
	uid := itoa(userID)

	o, err := svc.Checkout(ctx, CheckoutCommand{
		UserID:         uid,
		ProductID:      "1",
		TotalRentalFee: dec("9000000.50"),
		DeliveryFee:    dec("2500000"),
		StartDate:      "2026-04-01",
		EndDate:        "2026-04-05",
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	got, err := store.GetByCode(ctx, o.Code)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Username != "store_flow_user" {
		t.Errorf("username = %q", got.Username)
	}
	if !got.TotalRentalFee.Equal(dec("9000000.5")) || !got.DownPayment.Equal(o.DownPayment) {
		t.Errorf("money round trip: total=%s dp=%s", got.TotalRentalFee, got.DownPayment)
	}
	if got.StartDate.String() != "2026-04-01" || got.EndDate.String() != "2026-04-05" {
		t.Errorf("dates = %s..%s", got.StartDate, got.EndDate)
	}

	if _, err := svc.AttachDocument(ctx, o.Code, Caller{ID: uid}, "proof.png"); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, UpdateStatusCommand{Code: o.Code, Status: StatusVerified, ActorID: "1"}); err != nil {
		t.Fatalf("verify: %v", err)
	}
	ext, err := svc.Extend(ctx, ExtendCommand{Code: o.Code, Caller: Caller{ID: uid}, Days: 2, AdditionalFee: dec("1000000")})
	if err != nil {
		t.Fatalf("extend: %v", err)
	}
	if ext.EndDate.String() != "2026-04-07" || !ext.TotalRentalFee.Equal(dec("10000000.5")) || ext.ExtensionCount != 1 {
		t.Errorf("after extend: %+v", ext)
	}
	if ext.Document != "proof.png" || ext.Status != StatusExtended || ext.StatusVersion != 3 {
		t.Errorf("after extend: document=%q status=%s version=%d", ext.Document, ext.Status, ext.StatusVersion)
	}

	var events int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM order_events WHERE order_id = $1`, o.Code).Scan(&events); err != nil {
		t.Fatalf("count events: %v", err)
	}
	if events != 4 {
		t.Errorf("events = %d, want 4", events)
	}

	mine, err := store.ListByUser(ctx, uid)
	if err != nil || len(mine) != 1 {
		t.Fatalf("ListByUser = %d orders, %v", len(mine), err)
	}

	if _, err := svc.Checkout(ctx, CheckoutCommand{UserID: "999999", TotalRentalFee: dec("1"), StartDate: "2026-04-01", EndDate: "2026-04-01"}); err != nil {
		t.Fatalf("orphan checkout: %v", err)
	}
	all, err := store.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(all) != 2 || all[0].Username != "deleted user" {
		t.Fatalf("ListAll = %+v", all)
	}

	if _, err := store.GetByCode(ctx, "TRX-missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_DuplicateCode(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()
	start, _ := ParseDate("2026-05-01")
	o := &Order{
		Code: "TRX-dup", UserID: "1", TotalRentalFee: dec("10"), DownPayment: dec("5"),
		RemainingBalance: dec("5"), StartDate: start, EndDate: start, Status: StatusPending,
	}
	if err := store.Create(ctx, o); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Create(ctx, o); !errors.Is(err, ErrDuplicateCode) {
		t.Fatalf("expected ErrDuplicateCode, got %v", err)
	}
}

func TestStore_ConcurrentVerify(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()
	svc := NewService(store, nil, nil, nil)

	o, err := svc.Checkout(ctx, CheckoutCommand{
		UserID: "42", TotalRentalFee: dec("100"), StartDate: "2026-05-01", EndDate: "2026-05-02", Document: "p.pdf",
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	const attempts = 6
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	start := make(chan struct{})
	for i := 0; i < attempts; i++ {
		to := StatusVerified
		if i%2 == 1 {
			to = StatusRejected
		}
		wg.Add(1)
		go func(to Status) {
			defer wg.Done()
			<-start
			_, err := svc.UpdateStatus(ctx, UpdateStatusCommand{Code: o.Code, Status: to})
			errs <- err
		}(to)
	}
	close(start)
	wg.Wait()
	close(errs)

	if success := collect(t, errs); success != 1 {
		t.Fatalf("expected exactly 1 success, got %d", success)
	}
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
