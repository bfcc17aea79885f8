package commands_test

import (
	"context"
	"sync"

	"separation/internal/core/application/usecases/commands"
	"separation/internal/core/domain/model/kernel"
	"separation/internal/core/domain/model/order"
	"separation/internal/core/ports"
	"separation/internal/pkg/errs"
)

// memStore is an in-memory order store with the same conditional-write rules
// as the postgres repository. Every read returns a private copy, so concurrent
// handlers never share aggregates.
type memStore struct {
	mu     sync.Mutex
	orders map[kernel.UUID]*order.Order
}

var _ commands.OrderUoWFactory = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{orders: map[kernel.UUID]*order.Order{}}
}

func (s *memStore) Create() commands.OrderUoW {
	return memUoW{repo: &memRepo{store: s}}
}

func (s *memStore) snapshot(id kernel.UUID) *order.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil
	}
	return cloneOrder(o, nil, nil)
}

type memUoW struct {
	repo *memRepo
}

func (memUoW) Begin(context.Context) error { return nil }
func (memUoW) Commit(context.Context) error { return nil }
func (memUoW) Rollback(context.Context) error { return nil }

func (u memUoW) OrderRepository() ports.OrderRepository { return u.repo }

type memRepo struct {
	store *memStore
}

func (r *memRepo) Add(ctx context.Context, aggregate *order.Order) error {
	if err := ctx.Err(); err != nil {
		return errs.NewStorageUnavailableError("add order", err)
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, o := range r.store.orders {
		if o.ExternalReference() == aggregate.ExternalReference() {
			return ports.ErrDuplicateExternalReference
		}
	}
	r.store.orders[aggregate.ID()] = cloneOrder(aggregate, nil, nil)
	return nil
}

func (r *memRepo) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, errs.NewStorageUnavailableError("get order", err)
	}
	o := r.store.snapshot(id)
	if o == nil {
		return nil, errs.NewObjectNotFoundError("order_id", id)
	}
	return o, nil
}

func (r *memRepo) GetLine(ctx context.Context, orderID, lineID kernel.UUID) (*order.LineItem, error) {
	o, err := r.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return o.Line(lineID)
}

func (r *memRepo) UpdateLine(
	ctx context.Context,
	line *order.LineItem,
	expectedState order.LineState,
	expectedVersion int64,
) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, errs.NewStorageUnavailableError("update line", err)
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.orders[line.OrderID()]
	if !ok || stored.IsFinalized() {
		return false, nil
	}
	current, err := stored.Line(line.ID())
	if err != nil {
		return false, nil
	}
	if current.State() != expectedState || current.Version() != expectedVersion {
		return false, nil
	}
	r.store.orders[stored.ID()] = cloneOrder(stored, line, nil)
	return true, nil
}

func (r *memRepo) Finalize(ctx context.Context, aggregate *order.Order) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, errs.NewStorageUnavailableError("finalize order", err)
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.orders[aggregate.ID()]
	if !ok || stored.IsFinalized() || !stored.Progress().IsComplete() {
		return false, nil
	}
	r.store.orders[stored.ID()] = cloneOrder(stored, nil, aggregate)
	return true, nil
}

func (r *memRepo) UpdateShipping(ctx context.Context, aggregate *order.Order) error {
	if err := ctx.Err(); err != nil {
		return errs.NewStorageUnavailableError("update shipping", err)
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.orders[aggregate.ID()]
	if !ok {
		return errs.NewObjectNotFoundError("order_id", aggregate.ID())
	}
	if stored.IsFinalized() {
		return order.ErrAlreadyFinalized
	}
	next := cloneOrder(stored, nil, nil)
	if err := next.ChangeShipping(aggregate.Logistics(), aggregate.Packaging()); err != nil {
		return err
	}
	r.store.orders[stored.ID()] = next
	return nil
}

func (r *memRepo) Progress(ctx context.Context, id kernel.UUID) (order.Progress, error) {
	o, err := r.Get(ctx, id)
	if err != nil {
		return order.Progress{}, err
	}
	return o.Progress(), nil
}

// cloneOrder deep-copies o. A non-nil replace takes the place of the line with
// the same id; a non-nil finalized contributes its status and stamp.
func cloneOrder(o *order.Order, replace *order.LineItem, finalized *order.Order) *order.Order {
	lines := make([]*order.LineItem, 0, len(o.Lines()))
	for _, l := range o.Lines() {
		if replace != nil && l.ID().IsEqual(replace.ID()) {
			l = replace
		}
		lines = append(lines, cloneLine(l))
	}

	src := o
	if finalized != nil {
		src = finalized
	}
	c, err := order.RestoreOrder(order.RestoreOrderParams{
		ID:                o.ID(),
		ExternalReference: o.ExternalReference(),
		Client:            o.Client(),
		Salesperson:       o.Salesperson(),
		Notes:             o.Notes(),
		Logistics:         o.Logistics(),
		Packaging:         o.Packaging(),
		Status:            src.Status(),
		StartedAt:         o.StartedAt(),
		FinalizedAt:       src.FinalizedAt(),
		FinalizedBy:       src.FinalizedBy(),
		Lines:             lines,
	})
	if err != nil {
		panic(err)
	}
	return c
}

func cloneLine(l *order.LineItem) *order.LineItem {
	c, err := order.RestoreLineItem(order.RestoreLineItemParams{
		ID:                    l.ID(),
		OrderID:               l.OrderID(),
		Position:              l.Position(),
		Spec:                  l.Spec(),
		State:                 l.State(),
		Separated:             l.Separated(),
		PurchaseRequested:     l.PurchaseRequested(),
		PurchaseConfirmed:     l.PurchaseConfirmed(),
		SubstituteDescription: l.SubstituteDescription(),
		Version:               l.Version(),
	})
	if err != nil {
		panic(err)
	}
	return c
}
