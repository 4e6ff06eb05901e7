// Package catalog lists every report table the dashboard loads and where
// each one is read from.
package catalog

import (
	"sort"

	"github.com/rotisserie/eris"

	"github.com/jalad-shrimali/opsdash/attainment"
	"github.com/jalad-shrimali/opsdash/executives"
	"github.com/jalad-shrimali/opsdash/fdp"
	"github.com/jalad-shrimali/opsdash/reliability"
	"github.com/jalad-shrimali/opsdash/rsps"
	"github.com/jalad-shrimali/opsdash/snapshot"
)

// ErrUnknownTable is returned for an override naming a table that is not
// in the catalog.
var ErrUnknownTable = eris.New("catalog: unknown table")

// Overrides replaces the alias list of a field: table -> field -> aliases.
type Overrides map[string]map[string][]string

// Tables returns the built-in table definitions in load order.
func Tables() []snapshot.Table {
	return []snapshot.Table{
		{Name: attainment.Table, Endpoint: attainment.Endpoint, Schema: attainment.Schema},

		{Name: fdp.TablePendency, Endpoint: fdp.Endpoint, Sheet: fdp.SheetPendency, Schema: fdp.PendencySchema},
		{Name: fdp.TableDayStart, Endpoint: fdp.Endpoint, Sheet: fdp.SheetDayStart, Schema: fdp.DayStartSchema},
		{Name: fdp.TablePromises, Endpoint: fdp.Endpoint, Sheet: fdp.SheetPromises, Schema: fdp.PromisesSchema},

		{Name: rsps.TablePendency, Endpoint: rsps.Endpoint, Sheet: rsps.SheetPendency, Schema: rsps.PendencySchema},
		{Name: rsps.TableDayStart, Endpoint: rsps.Endpoint, Sheet: rsps.SheetDayStart, Schema: rsps.DayStartSchema},
		{Name: rsps.TablePromises, Endpoint: rsps.Endpoint, Sheet: rsps.SheetPromises, Schema: rsps.PromisesSchema},

		{Name: reliability.Table, Endpoint: reliability.Endpoint, Schema: reliability.Schema},

		{Name: executives.TablePendency, Endpoint: executives.Endpoint, Sheet: executives.SheetPendency, Schema: executives.PendencySchema},
		{Name: executives.TableDayStart, Endpoint: executives.Endpoint, Sheet: executives.SheetDayStart, Schema: executives.DayStartSchema},
		{Name: executives.TablePromises, Endpoint: executives.Endpoint, Sheet: executives.SheetPromises, Schema: executives.PromisesSchema},
		{Name: executives.TableReliability, Endpoint: executives.Endpoint, Sheet: executives.SheetReliability, Schema: executives.ReliabilitySchema},
	}
}

// WithOverrides returns Tables with the alias overrides applied. Unknown
// tables or fields are an error.
func WithOverrides(o Overrides) ([]snapshot.Table, error) {
	tables := Tables()
	byName := make(map[string]int, len(tables))
	for i, t := range tables {
		byName[t.Name] = i
	}

	names := make([]string, 0, len(o))
	for n := range o {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, name := range names {
		i, ok := byName[name]
		if !ok {
			return nil, eris.Wrapf(ErrUnknownTable, "%q", name)
		}
		schema := tables[i].Schema
		for field, aliases := range o[name] {
			var err error
			if schema, err = schema.WithAliases(field, aliases...); err != nil {
				return nil, eris.Wrapf(err, "table %q", name)
			}
		}
		tables[i].Schema = schema
	}
	return tables, nil
}

// Find returns the definition of one table.
func Find(tables []snapshot.Table, name string) (snapshot.Table, bool) {
	for _, t := range tables {
		if t.Name == name {
			return t, true
		}
	}
	return snapshot.Table{}, false
}
