package order

import (
	"context"
	"sort"
	"sync"
)

// memRepo is an in-memory Repository with the same conditional-write
// semantics as Store.
type memRepo struct {
	mu        sync.Mutex
	orders    map[string]*Order
	events    []Event
	usernames map[string]string
	createErr error
	eventErr  error
}

func newMemRepo() *memRepo {
	return &memRepo{orders: map[string]*Order{}, usernames: map[string]string{}}
}

func (r *memRepo) Create(_ context.Context, o *Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		err := r.createErr
		r.createErr = nil
		return err
	}
	if _, ok := r.orders[o.Code]; ok {
		return ErrDuplicateCode
	}
	cp := *o
	r.orders[o.Code] = &cp
	return nil
}

func (r *memRepo) withUsername(o Order) Order {
	o.Username = r.usernames[o.UserID]
	if o.Username == "" {
		o.Username = "deleted user"
	}
	return o
}

func (r *memRepo) GetByCode(_ context.Context, code string) (*Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[code]
	if !ok {
		return nil, ErrNotFound
	}
	cp := r.withUsername(*o)
	return &cp, nil
}

func (r *memRepo) list(keep func(*Order) bool) []Order {
	out := []Order{}
	for _, o := range r.orders {
		if keep(o) {
			out = append(out, r.withUsername(*o))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Code > out[j].Code
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (r *memRepo) ListByUser(_ context.Context, userID string) ([]Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.list(func(o *Order) bool { return o.UserID == userID }), nil
}

func (r *memRepo) ListAll(_ context.Context) ([]Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.list(func(*Order) bool { return true }), nil
}

func (r *memRepo) UpdateStatus(_ context.Context, code string, from, to Status, version int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[code]
	if !ok || o.Status != from || o.StatusVersion != version {
		return false, nil
	}
	o.Status = to
	o.StatusVersion++
	return true, nil
}

func (r *memRepo) ApplyExtension(_ context.Context, code string, from Status, version int64, ext Extension) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[code]
	if !ok || o.Status != from || o.StatusVersion != version {
		return false, nil
	}
	o.Status = StatusExtended
	o.StatusVersion++
	o.EndDate = ext.NewEndDate
	o.TotalRentalFee = o.TotalRentalFee.Add(ext.AdditionalFee)
	o.RemainingBalance = o.RemainingBalance.Add(ext.AdditionalFee)
	o.ExtensionCount++
	return true, nil
}

func (r *memRepo) AttachDocument(_ context.Context, code string, version int64, filename string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[code]
	if !ok || o.Status != StatusPending || o.StatusVersion != version {
		return false, nil
	}
	o.Document = filename
	o.Status = StatusAwaitingVerification
	o.StatusVersion++
	return true, nil
}

func (r *memRepo) AppendEvent(_ context.Context, e *Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.eventErr != nil {
		return r.eventErr
	}
	r.events = append(r.events, *e)
	return nil
}

func (r *memRepo) eventsFor(code string) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if e.OrderCode == code {
			out = append(out, e)
		}
	}
	return out
}
