package handlers

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/jalad-shrimali/opsdash/sheet"
)

// maxRangeDays caps a requested date range.
const maxRangeDays = 366

// list reads a repeatable parameter whose values may also be comma lists.
func list(q url.Values, key string) []string {
	var out []string
	for _, v := range q[key] {
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func date(q url.Values, key string) (string, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return "", nil
	}
	d, ok := sheet.ParseDate(raw)
	if !ok {
		return "", eris.Wrapf(errBadQuery, "%s: invalid date %q", key, raw)
	}
	return d, nil
}

// selection reads the filter parameters shared by every endpoint:
// date, zone, gm, hour, hour_token, start and end.
func selection(q url.Values) (sheet.FilterSpec, error) {
	var (
		spec sheet.FilterSpec
		err  error
	)
	if spec.Date, err = date(q, "date"); err != nil {
		return spec, err
	}
	spec.Zones = list(q, "zone")
	spec.GM = strings.TrimSpace(q.Get("gm"))
	spec.Hour = strings.TrimSpace(q.Get("hour"))

	if raw := q.Get("hour_token"); raw != "" {
		h, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return spec, eris.Wrapf(errBadQuery, "hour_token: %q", raw)
		}
		spec.HourToken = &h
	}

	start, err := date(q, "start")
	if err != nil {
		return spec, err
	}
	end, err := date(q, "end")
	if err != nil {
		return spec, err
	}
	switch {
	case start == "" && end == "":
	case start == "" || end == "":
		return spec, eris.Wrap(errBadQuery, "start and end go together")
	case end < start:
		return spec, eris.Wrapf(errBadQuery, "range %s..%s is reversed", start, end)
	case len(sheet.Days(start, end)) > maxRangeDays:
		return spec, eris.Wrapf(errBadQuery, "range longer than %d days", maxRangeDays)
	default:
		spec.DateRange = &sheet.DateRange{Start: start, End: end}
	}
	return spec, nil
}

// metricSpec reads sum=a,b, ratio=name:num/den (repeatable) and
// series=field or series=num/den. Every field must be numeric in schema.
func metricSpec(q url.Values, schema sheet.Schema, rng *sheet.DateRange) (sheet.MetricSpec, error) {
	numeric := func(f string) error {
		fd, ok := schema.Field(f)
		if !ok || fd.Kind != sheet.KindNumber {
			return eris.Wrapf(errBadQuery, "%q is not a numeric field of %s", f, schema.Name)
		}
		return nil
	}

	var spec sheet.MetricSpec
	for _, f := range list(q, "sum") {
		if err := numeric(f); err != nil {
			return spec, err
		}
		spec.Sums = append(spec.Sums, f)
	}

	for _, raw := range list(q, "ratio") {
		name, expr, ok := strings.Cut(raw, ":")
		num, den, ok2 := strings.Cut(expr, "/")
		if !ok || !ok2 || name == "" {
			return spec, eris.Wrapf(errBadQuery, "ratio %q, want name:num/den", raw)
		}
		for _, f := range []string{num, den} {
			if err := numeric(f); err != nil {
				return spec, err
			}
		}
		spec.Ratios = append(spec.Ratios, sheet.RatioSpec{Name: name, Numerator: num, Denominator: den})
	}

	if raw := strings.TrimSpace(q.Get("series")); raw != "" {
		if rng == nil {
			return spec, eris.Wrap(errBadQuery, "series needs start and end")
		}
		var m sheet.Measure
		if num, den, ok := strings.Cut(raw, "/"); ok {
			for _, f := range []string{num, den} {
				if err := numeric(f); err != nil {
					return spec, err
				}
			}
			m = sheet.RatioOf(num, den)
		} else {
			if err := numeric(raw); err != nil {
				return spec, err
			}
			m = sheet.Sum(raw)
		}
		spec.Series = &sheet.SeriesSpec{Start: rng.Start, End: rng.End, Measure: m}
	}
	return spec, nil
}

// latestDate is the newest record date, the default report date.
func latestDate(records []sheet.Record) string {
	latest := ""
	for _, r := range records {
		if r.Date > latest {
			latest = r.Date
		}
	}
	return latest
}
