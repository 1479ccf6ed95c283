package ledger

import (
	"context"
	"strings"

	"fincal/internal/core"
	"fincal/internal/events"
	"fincal/internal/log"
)

// Settings returns a copy of the current settings.
func (s *Store) Settings() core.Settings {
	var out core.Settings
	s.read(func(d *core.Document) { out = d.Settings.Clone() })
	return out
}

// UpdateSettings shallow-merges patch into the settings. Replacing the
// categories this way does not touch operations.
func (s *Store) UpdateSettings(ctx context.Context, patch core.SettingsPatch) (core.Settings, error) {
	if patch.Currency != nil && strings.TrimSpace(*patch.Currency) == "" {
		return core.Settings{}, &core.ValidationError{Rule: core.ErrMissingFields, Reason: "currency cannot be empty"}
	}
	if patch.Categories != nil {
		set := trimmedSet(*patch.Categories)
		patch.Categories = &set
	}
	var updated core.Settings
	err := s.mutate(ctx, log.OpUpdate, func(d *core.Document) ([]events.Event, error) {
		d.Settings = d.Settings.Apply(patch)
		updated = d.Settings.Clone()
		evs := []events.Event{{Name: events.SettingsChanged, Payload: updated}}
		if patch.Categories != nil {
			evs = append(evs, events.Event{Name: events.CategoriesChanged, Payload: updated.Categories.Clone()})
		}
		return evs, nil
	})
	if err != nil {
		return core.Settings{}, err
	}
	return updated, nil
}

// ToggleDarkMode flips the dark mode flag and returns the new value.
func (s *Store) ToggleDarkMode(ctx context.Context) (bool, error) {
	var on bool
	err := s.mutate(ctx, log.OpUpdate, func(d *core.Document) ([]events.Event, error) {
		d.Settings.DarkMode = !d.Settings.DarkMode
		on = d.Settings.DarkMode
		return []events.Event{{Name: events.SettingsChanged, Payload: d.Settings.Clone()}}, nil
	})
	return on, err
}
