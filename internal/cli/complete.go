package cli

import (
	"context"
	"slices"

	"fincal/internal/report"

	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// Completion returns the shell completion tree of the fincal command.
// Category names are read from the ledger when a completion asks for them.
func Completion(ctx context.Context, env *Env) *complete.Command {
	kinds := predict.Set{"expense", "income"}
	categories := complete.PredictFunc(func(string) []string {
		store, err := env.Store(ctx)
		if err != nil {
			return nil
		}
		set := store.Categories()
		names := append(slices.Clone(set.Expense), set.Income...)
		slices.Sort(names)
		return slices.Compact(names)
	})
	formats := predict.Set{"markdown", "html", "json"}
	intervals := predict.Set{"day", "week", "month", "year"}
	jsonFiles := predict.Files("*.json")

	filter := map[string]complete.Predictor{
		"from": predict.Something, "to": predict.Something,
		"t": kinds, "c": categories, "q": predict.Something,
		"min": predict.Something, "max": predict.Something,
		"sort": predict.Set{"date", "amount", "category"},
		"desc": predict.Nothing, "n": predict.Something, "json": predict.Nothing,
	}
	fields := map[string]complete.Predictor{
		"t": kinds, "d": predict.Something, "c": categories,
		"a": predict.Something, "m": predict.Something,
	}
	month := map[string]complete.Predictor{"year": predict.Something, "month": predict.Something}

	return &complete.Command{
		Flags: map[string]complete.Predictor{
			"plain": predict.Nothing,
			"width": predict.Something,
			"env":   predict.Files("*"),
		},
		Sub: map[string]*complete.Command{
			"add":        {Flags: fields},
			"edit":       {Flags: fields},
			"rm":         {},
			"ls":         {Flags: filter},
			"day":        {},
			"duplicates": {},
			"month":      {Flags: month},
			"year":       {Flags: map[string]complete.Predictor{"year": predict.Something}},
			"report": {
				Flags: map[string]complete.Predictor{
					"year": predict.Something, "month": predict.Something, "t": kinds,
					"from": predict.Something, "to": predict.Something, "interval": intervals,
					"n": predict.Something, "format": formats, "o": predict.Files("*"),
				},
				Args: predict.Set(report.Kinds),
			},
			"category": {
				Flags: map[string]complete.Predictor{"t": kinds},
				Args:  predict.Or(predict.Set(categoryActions), categories),
			},
			"settings": {
				Flags: map[string]complete.Predictor{
					"currency": predict.Something, "date-format": predict.Something,
					"dark": predict.Set{"true", "false"}, "toggle-dark": predict.Nothing,
				},
			},
			"export": {
				Flags: map[string]complete.Predictor{"format": predict.Set{"json", "csv"}, "o": predict.Files("*")},
			},
			"import": {
				Flags: map[string]complete.Predictor{"mode": predict.Set{"replace", "merge"}},
				Args:  jsonFiles,
			},
			"backup": {
				Flags: map[string]complete.Predictor{"dir": predict.Dirs("*"), "info": predict.Nothing},
			},
			"restore": {Args: jsonFiles},
			"help":    {},
		},
	}
}
