package sheet

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// SumField adds up a numeric field. An empty slice sums to 0.
func SumField(records []Record, field string) float64 {
	total := 0.0
	for _, r := range records {
		total += r.Number(field)
	}
	return finite(total)
}

// Ratio is num as a percentage of den; 0 whenever den is not positive.
func Ratio(num, den float64) float64 {
	if den <= 0 {
		return 0
	}
	return finite(num / den * 100)
}

// Measure reduces a record set to one number.
type Measure func([]Record) float64

// Sum measures the total of a numeric field.
func Sum(field string) Measure {
	return func(rs []Record) float64 { return SumField(rs, field) }
}

// RatioOf measures one summed field as a percentage of another.
func RatioOf(num, den string) Measure {
	return func(rs []Record) float64 { return Ratio(SumField(rs, num), SumField(rs, den)) }
}

/* ──────────── day buckets ──────────── */

// Point is one day of a series.
type Point struct {
	Date  string  `json:"date"`
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// MaxDays is the longest range Days will list.
const MaxDays = 100 * 366

// Days lists every canonical date in [start, end]. A malformed or reversed
// range, or one longer than MaxDays, yields an empty list.
func Days(start, end string) []string {
	from, ok1 := day(start)
	to, ok2 := day(end)
	if !ok1 || !ok2 || to.Before(from) {
		return []string{}
	}
	if to.Sub(from).Hours()/24 >= MaxDays {
		return []string{}
	}
	out := []string{}
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		out = append(out, FormatCanonical(d))
	}
	return out
}

// TrailingDays lists the n days ending at end, oldest first.
func TrailingDays(end string, n int) []string {
	to, ok := day(end)
	if !ok || n < 1 {
		return []string{}
	}
	return Days(FormatCanonical(to.AddDate(0, 0, -(n-1))), end)
}

// BucketByDay evaluates m once per day of [start, end] over the records of
// that day. Days without records still get a bucket. Ranges that Days
// rejects, including those over MaxDays, give an empty series.
func BucketByDay(records []Record, start, end string, m Measure) []Point {
	days := Days(start, end)
	byDay := lo.GroupBy(records, func(r Record) string { return r.Date })
	out := make([]Point, 0, len(days))
	for _, d := range days {
		out = append(out, Point{Date: d, Label: DayLabel(d), Value: m(byDay[d])})
	}
	return out
}

/* ──────────── hour buckets ──────────── */

// ExtractHourToken parses the leading integer of the first whitespace
// separated token: "14", "14 IST" and "14:00" all give 14.
func ExtractHourToken(raw string) (int, bool) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return 0, false
	}
	tok := fields[0]
	end := 0
	if end < len(tok) && (tok[end] == '-' || tok[end] == '+') {
		end++
	}
	digits := end
	for end < len(tok) && tok[end] >= '0' && tok[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(tok[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// HourPoint is one hour-of-day bucket.
type HourPoint struct {
	Hour  int     `json:"hour"`
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// HourLabel renders an hour token for a chart axis.
func HourLabel(h int) string { return fmt.Sprintf("%d:00", h) }

// BucketByHour groups records by hour token, ascending, and evaluates m for
// each group. Records without a token are skipped.
func BucketByHour(records []Record, m Measure) []HourPoint {
	tokened := lo.Filter(records, func(r Record, _ int) bool {
		_, ok := ExtractHourToken(r.Hour())
		return ok
	})
	groups := lo.GroupBy(tokened, func(r Record) int {
		h, _ := ExtractHourToken(r.Hour())
		return h
	})
	hours := lo.Keys(groups)
	sort.Ints(hours)
	out := make([]HourPoint, 0, len(hours))
	for _, h := range hours {
		out = append(out, HourPoint{Hour: h, Label: HourLabel(h), Value: m(groups[h])})
	}
	return out
}

/* ──────────── aggregate ──────────── */

type RatioSpec struct {
	Name        string `json:"name"`
	Numerator   string `json:"numerator"`
	Denominator string `json:"denominator"`
}

// SeriesSpec asks for a day series over [Start, End].
type SeriesSpec struct {
	Start   string
	End     string
	Measure Measure
}

// MetricSpec names the sums, ratios and optional series to compute.
type MetricSpec struct {
	Sums   []string
	Ratios []RatioSpec
	Series *SeriesSpec
}

type Result struct {
	Metrics map[string]float64 `json:"metrics"`
	Series  []Point            `json:"series,omitempty"`
}

// Aggregate computes every metric of spec over records. Sums are keyed by
// field name, ratios by their own name.
func Aggregate(records []Record, spec MetricSpec) Result {
	res := Result{Metrics: make(map[string]float64, len(spec.Sums)+len(spec.Ratios))}
	for _, f := range spec.Sums {
		res.Metrics[f] = SumField(records, f)
	}
	for _, r := range spec.Ratios {
		res.Metrics[r.Name] = Ratio(SumField(records, r.Numerator), SumField(records, r.Denominator))
	}
	if s := spec.Series; s != nil && s.Measure != nil {
		res.Series = BucketByDay(records, s.Start, s.End, s.Measure)
	}
	return res
}
