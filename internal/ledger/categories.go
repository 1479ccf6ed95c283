package ledger

import (
	"context"
	"fmt"
	"slices"

	"fincal/internal/core"
	"fincal/internal/events"
	"fincal/internal/log"
)

// Categories returns a copy of both category lists.
func (s *Store) Categories() core.CategorySet {
	var out core.CategorySet
	s.read(func(d *core.Document) { out = d.Settings.Categories.Clone() })
	return out
}

// CategoriesOf returns a copy of the list for kind.
func (s *Store) CategoriesOf(kind core.Kind) []string {
	return append([]string{}, s.Categories().Of(kind)...)
}

func checkKind(kind core.Kind) error {
	if !kind.Valid() {
		return &core.ValidationError{Rule: core.ErrInvalidType, Reason: fmt.Sprintf("type %q must be income or expense", kind)}
	}
	return nil
}

// AddCategory appends a trimmed, non-empty name unique within kind.
func (s *Store) AddCategory(ctx context.Context, kind core.Kind, name string) error {
	if err := checkKind(kind); err != nil {
		return err
	}
	name, err := core.ValidateCategoryName(name)
	if err != nil {
		return err
	}
	err = s.mutate(ctx, log.OpCreate, func(d *core.Document) ([]events.Event, error) {
		cats := d.Settings.Categories
		if cats.Has(kind, name) {
			return nil, fmt.Errorf("%w: %s %q", core.ErrCategoryExists, kind, name)
		}
		d.Settings.Categories = cats.With(kind, append(cats.Of(kind), name))
		return []events.Event{{
			Name:    events.CategoryAdded,
			Payload: events.CategoryChange{Kind: kind.String(), Name: name},
		}}, nil
	})
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "category added", log.FieldKind, kind.String(), log.FieldCategory, name)
	return nil
}

// RemoveCategory drops name from kind together with every operation of that
// kind and category. It returns the number of operations removed.
func (s *Store) RemoveCategory(ctx context.Context, kind core.Kind, name string) (int, error) {
	if err := checkKind(kind); err != nil {
		return 0, err
	}
	var removed int
	err := s.mutate(ctx, log.OpDelete, func(d *core.Document) ([]events.Event, error) {
		cats := d.Settings.Categories
		idx := slices.Index(cats.Of(kind), name)
		if idx < 0 {
			return nil, fmt.Errorf("%w: %s %q", core.ErrCategoryNotFound, kind, name)
		}
		kept := d.Operations[:0]
		for _, op := range d.Operations {
			if op.Type == kind && op.Category == name {
				removed++
				continue
			}
			kept = append(kept, op)
		}
		d.Operations = kept
		d.Settings.Categories = cats.With(kind, slices.Delete(cats.Of(kind), idx, idx+1))
		return []events.Event{{
			Name:    events.CategoryRemoved,
			Payload: events.CategoryChange{Kind: kind.String(), Name: name, Affected: removed},
		}}, nil
	})
	if err != nil {
		return 0, err
	}
	s.logger.InfoContext(ctx, "category removed",
		log.FieldKind, kind.String(), log.FieldCategory, name, log.FieldCount, removed)
	return removed, nil
}

// RenameCategory renames oldName in place and rewrites the operations that
// use it. It returns the number of operations rewritten.
func (s *Store) RenameCategory(ctx context.Context, kind core.Kind, oldName, newName string) (int, error) {
	if err := checkKind(kind); err != nil {
		return 0, err
	}
	newName, err := core.ValidateCategoryName(newName)
	if err != nil {
		return 0, err
	}
	var rewritten int
	err = s.mutate(ctx, log.OpUpdate, func(d *core.Document) ([]events.Event, error) {
		cats := d.Settings.Categories
		idx := slices.Index(cats.Of(kind), oldName)
		if idx < 0 {
			return nil, fmt.Errorf("%w: %s %q", core.ErrCategoryNotFound, kind, oldName)
		}
		if cats.Has(kind, newName) {
			return nil, fmt.Errorf("%w: %s %q", core.ErrCategoryExists, kind, newName)
		}
		rewritten = renameIn(d.Operations, kind, oldName, newName)
		names := cats.Of(kind)
		names[idx] = newName
		d.Settings.Categories = cats.With(kind, names)
		return []events.Event{{
			Name:    events.CategoryRenamed,
			Payload: events.CategoryChange{Kind: kind.String(), Name: oldName, NewName: newName, Affected: rewritten},
		}}, nil
	})
	if err != nil {
		return 0, err
	}
	s.logger.InfoContext(ctx, "category renamed",
		log.FieldKind, kind.String(), log.FieldCategory, oldName, "new_name", newName, log.FieldCount, rewritten)
	return rewritten, nil
}

// MergeCategories moves every operation of source onto target and drops
// source. Both must exist and differ. It emits CategoryMerged.
func (s *Store) MergeCategories(ctx context.Context, kind core.Kind, source, target string) (int, error) {
	if err := checkKind(kind); err != nil {
		return 0, err
	}
	if source == target {
		return 0, &core.ValidationError{Rule: core.ErrSameCategory, Reason: "cannot merge a category into itself"}
	}
	var moved int
	err := s.mutate(ctx, log.OpUpdate, func(d *core.Document) ([]events.Event, error) {
		cats := d.Settings.Categories
		idx := slices.Index(cats.Of(kind), source)
		if idx < 0 {
			return nil, fmt.Errorf("%w: %s %q", core.ErrCategoryNotFound, kind, source)
		}
		if !cats.Has(kind, target) {
			return nil, fmt.Errorf("%w: %s %q", core.ErrCategoryNotFound, kind, target)
		}
		moved = renameIn(d.Operations, kind, source, target)
		d.Settings.Categories = cats.With(kind, slices.Delete(cats.Of(kind), idx, idx+1))
		return []events.Event{{
			Name:    events.CategoryMerged,
			Payload: events.CategoryChange{Kind: kind.String(), Name: source, NewName: target, Affected: moved},
		}}, nil
	})
	if err != nil {
		return 0, err
	}
	return moved, nil
}

// ImportCategories adds every name of set missing from the current lists.
func (s *Store) ImportCategories(ctx context.Context, set core.CategorySet) error {
	return s.replaceCategories(ctx, func(cur core.CategorySet) core.CategorySet {
		return cur.Union(trimmedSet(set))
	})
}

// ResetCategories restores the built-in lists. Operations are kept.
func (s *Store) ResetCategories(ctx context.Context) error {
	return s.replaceCategories(ctx, func(core.CategorySet) core.CategorySet {
		return core.DefaultCategories()
	})
}

func (s *Store) replaceCategories(ctx context.Context, fn func(core.CategorySet) core.CategorySet) error {
	return s.mutate(ctx, log.OpUpdate, func(d *core.Document) ([]events.Event, error) {
		d.Settings.Categories = fn(d.Settings.Categories.Clone())
		return []events.Event{
			{Name: events.CategoriesChanged, Payload: d.Settings.Categories.Clone()},
			{Name: events.SettingsChanged, Payload: d.Settings.Clone()},
		}, nil
	})
}

func renameIn(ops []core.Operation, kind core.Kind, from, to string) int {
	n := 0
	for i := range ops {
		if ops[i].Type == kind && ops[i].Category == from {
			ops[i].Category = to
			n++
		}
	}
	return n
}

// trimmedSet drops blank names and duplicates while keeping order.
func trimmedSet(in core.CategorySet) core.CategorySet {
	out := core.CategorySet{Income: []string{}, Expense: []string{}}
	for _, k := range core.Kinds() {
		var names []string
		for _, n := range in.Of(k) {
			n, err := core.ValidateCategoryName(n)
			if err != nil || slices.Contains(names, n) {
				continue
			}
			names = append(names, n)
		}
		out = out.With(k, append([]string{}, names...))
	}
	return out
}
