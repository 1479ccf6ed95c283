package ledger

import (
	"context"
	"fmt"
	"strings"

	"fincal/internal/core"
	"fincal/internal/events"
	"fincal/internal/log"
)

// Operations returns a copy of the operations selected by f.
func (s *Store) Operations(f Filter) []core.Operation {
	var out []core.Operation
	s.read(func(d *core.Document) { out = f.Apply(d.Operations) })
	return out
}

// Operation returns the operation with the given id.
func (s *Store) Operation(id string) (core.Operation, error) {
	var (
		op    core.Operation
		found bool
	)
	s.read(func(d *core.Document) {
		if i := d.Index(id); i >= 0 {
			op, found = d.Operations[i], true
		}
	})
	if !found {
		return core.Operation{}, fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}
	return op, nil
}

// OperationsOn returns the operations recorded on day.
func (s *Store) OperationsOn(day core.Date) []core.Operation {
	return s.collect(func(d core.Date) bool { return d.Equal(day.Time) })
}

// OperationsInMonth returns the operations of a zero-based month.
func (s *Store) OperationsInMonth(year, month0 int) []core.Operation {
	return s.collect(func(d core.Date) bool { return d.InMonth(year, month0) })
}

// collect returns the operations whose parsed date satisfies keep.
func (s *Store) collect(keep func(core.Date) bool) []core.Operation {
	out := []core.Operation{}
	s.read(func(d *core.Document) {
		for _, op := range d.Operations {
			if day, err := core.ParseDate(op.Date); err == nil && keep(day) {
				out = append(out, op)
			}
		}
	})
	return out
}

// AddOperation validates op and appends it. An empty id is replaced by a
// generated one and the date is stored in its zero padded form.
func (s *Store) AddOperation(ctx context.Context, op core.Operation) (core.Operation, error) {
	op.ID = strings.TrimSpace(op.ID)
	if op.ID == "" {
		op.ID = s.newID()
	}
	op.Category = strings.TrimSpace(op.Category)
	if err := core.ValidateOperation(op); err != nil {
		return core.Operation{}, err
	}
	op.Date = canonicalDate(op.Date)

	err := s.mutate(ctx, log.OpCreate, func(d *core.Document) ([]events.Event, error) {
		if d.Index(op.ID) >= 0 {
			return nil, fmt.Errorf("%w: %s", core.ErrDuplicateID, op.ID)
		}
		d.Operations = append(d.Operations, op)
		return []events.Event{{Name: events.OperationAdded, Payload: op}}, nil
	})
	if err != nil {
		return core.Operation{}, err
	}

	s.logger.InfoContext(ctx, "operation added",
		log.NewFields().WithOperation(log.OpCreate).
			WithLedgerOperation(op.ID, op.Date, op.Type.String(), op.Category, op.Amount).ToSlice()...)
	return op, nil
}

// UpdateOperation merges patch into the operation with the given id. The
// result is validated as a whole and the id never changes.
func (s *Store) UpdateOperation(ctx context.Context, id string, patch core.OperationPatch) (core.Operation, error) {
	var updated core.Operation
	err := s.mutate(ctx, log.OpUpdate, func(d *core.Document) ([]events.Event, error) {
		i := d.Index(id)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", core.ErrNotFound, id)
		}
		next := d.Operations[i].Apply(patch)
		next.Category = strings.TrimSpace(next.Category)
		if err := core.ValidateOperation(next); err != nil {
			return nil, err
		}
		next.Date = canonicalDate(next.Date)
		d.Operations[i] = next
		updated = next
		return []events.Event{{Name: events.OperationUpdated, Payload: next}}, nil
	})
	if err != nil {
		return core.Operation{}, err
	}
	s.logger.InfoContext(ctx, "operation updated", log.FieldOperationID, id)
	return updated, nil
}

// DeleteOperation removes the operation with the given id.
func (s *Store) DeleteOperation(ctx context.Context, id string) error {
	err := s.mutate(ctx, log.OpDelete, func(d *core.Document) ([]events.Event, error) {
		i := d.Index(id)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", core.ErrNotFound, id)
		}
		deleted := d.Operations[i]
		d.Operations = append(d.Operations[:i], d.Operations[i+1:]...)
		return []events.Event{{Name: events.OperationDeleted, Payload: deleted}}, nil
	})
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "operation deleted", log.FieldOperationID, id)
	return nil
}

// ClearOperations removes every operation and returns how many there were.
func (s *Store) ClearOperations(ctx context.Context) (int, error) {
	var n int
	err := s.mutate(ctx, log.OpDelete, func(d *core.Document) ([]events.Event, error) {
		n = len(d.Operations)
		d.Operations = []core.Operation{}
		return []events.Event{{Name: events.OperationsCleared, Payload: n}}, nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Duplicate pairs an operation with an earlier one sharing its date, type,
// category and amount.
type Duplicate struct {
	Original  core.Operation `json:"original"`
	Duplicate core.Operation `json:"duplicate"`
}

// Duplicates lists likely double entries in insertion order.
func (s *Store) Duplicates() []Duplicate {
	type key struct {
		date     string
		kind     core.Kind
		category string
		amount   float64
	}
	var out []Duplicate
	s.read(func(d *core.Document) {
		seen := make(map[key]core.Operation, len(d.Operations))
		for _, op := range d.Operations {
			k := key{canonicalDate(op.Date), op.Type, op.Category, op.Amount}
			if first, ok := seen[k]; ok {
				out = append(out, Duplicate{Original: first, Duplicate: op})
				continue
			}
			seen[k] = op
		}
	})
	return out
}

// canonicalDate zero pads a valid dd.mm.yy date and leaves anything else.
func canonicalDate(s string) string {
	d, err := core.ParseDate(s)
	if err != nil {
		return s
	}
	return d.String()
}
