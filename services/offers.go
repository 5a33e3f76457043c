package services

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"routefinder/graph"
)

// offer is one undecoded entry of a search response. Vendors disagree on
// field names, so each quote field is read by trying a list of extractors
// in priority order; the first one that yields a value wins.
type offer map[string]any

type extractor[T any] struct {
	name string
	get  func(offer) (T, bool)
}

func firstMatch[T any](o offer, xs []extractor[T]) (T, string, bool) {
	for _, x := range xs {
		if v, ok := x.get(o); ok {
			return v, x.name, true
		}
	}
	var zero T
	return zero, "", false
}

var priceExtractors = []extractor[float64]{
	{"price.amount", func(o offer) (float64, bool) { return toFloat(o.path("price", "amount")) }},
	{"price.grandTotal", func(o offer) (float64, bool) { return toFloat(o.path("price", "grandTotal")) }},
	{"price.total", func(o offer) (float64, bool) { return toFloat(o.path("price", "total")) }},
	{"price", func(o offer) (float64, bool) { return toFloat(o["price"]) }},
	{"totalPrice", func(o offer) (float64, bool) { return toFloat(o["totalPrice"]) }},
	{"cost", func(o offer) (float64, bool) { return toFloat(o["cost"]) }},
}

var airlineExtractors = []extractor[string]{
	{"airline", func(o offer) (string, bool) { return toName(o["airline"]) }},
	{"carrier", func(o offer) (string, bool) { return toName(o["carrier"]) }},
	{"airlines[0]", func(o offer) (string, bool) { return toName(index(o["airlines"], 0)) }},
	{"operatingCarrier", func(o offer) (string, bool) { return toName(o["operatingCarrier"]) }},
	{"validatingAirlineCodes[0]", func(o offer) (string, bool) { return toName(index(o["validatingAirlineCodes"], 0)) }},
	{"segments[0].carrierCode", func(o offer) (string, bool) { return toName(o.segment(0)["carrierCode"]) }},
}

var departureExtractors = []extractor[string]{
	{"departure.time", func(o offer) (string, bool) { return clockTime(o.path("departure", "time")) }},
	{"departure.at", func(o offer) (string, bool) { return clockTime(o.path("departure", "at")) }},
	{"departureTime", func(o offer) (string, bool) { return clockTime(o["departureTime"]) }},
	{"departure_time", func(o offer) (string, bool) { return clockTime(o["departure_time"]) }},
	{"segments[0].departure.at", func(o offer) (string, bool) { return clockTime(o.segment(0).path("departure", "at")) }},
}

var arrivalExtractors = []extractor[string]{
	{"arrival.time", func(o offer) (string, bool) { return clockTime(o.path("arrival", "time")) }},
	{"arrival.at", func(o offer) (string, bool) { return clockTime(o.path("arrival", "at")) }},
	{"arrivalTime", func(o offer) (string, bool) { return clockTime(o["arrivalTime"]) }},
	{"arrival_time", func(o offer) (string, bool) { return clockTime(o["arrival_time"]) }},
	{"segments[-1].arrival.at", func(o offer) (string, bool) { return clockTime(o.segment(-1).path("arrival", "at")) }},
}

var dateExtractors = []extractor[time.Time]{
	{"departure.date", func(o offer) (time.Time, bool) { return calendarDate(o.path("departure", "date")) }},
	{"departure.at", func(o offer) (time.Time, bool) { return calendarDate(o.path("departure", "at")) }},
	{"date", func(o offer) (time.Time, bool) { return calendarDate(o["date"]) }},
}

var durationExtractors = []extractor[int]{
	{"duration", func(o offer) (int, bool) { return toMinutes(o["duration"]) }},
	{"travelTime", func(o offer) (int, bool) { return toMinutes(o["travelTime"]) }},
	{"durationMinutes", func(o offer) (int, bool) { return toMinutes(o["durationMinutes"]) }},
	{"duration_minutes", func(o offer) (int, bool) { return toMinutes(o["duration_minutes"]) }},
	{"itineraries[0].duration", func(o offer) (int, bool) { return toMinutes(asOffer(index(o["itineraries"], 0))["duration"]) }},
}

var stopsExtractors = []extractor[int]{
	{"stops", func(o offer) (int, bool) { return toCount(o["stops"]) }},
	{"stopCount", func(o offer) (int, bool) { return toCount(o["stopCount"]) }},
	{"segments", func(o offer) (int, bool) {
		segs, ok := o.segments()
		if !ok || len(segs) == 0 {
			return 0, false
		}
		return len(segs) - 1, true
	}},
	{"layovers", func(o offer) (int, bool) {
		l, ok := o["layovers"].([]any)
		return len(l), ok
	}},
}

var aircraftExtractors = []extractor[string]{
	{"aircraft", func(o offer) (string, bool) { return toName(o["aircraft"]) }},
	{"equipmentType", func(o offer) (string, bool) { return toName(o["equipmentType"]) }},
	{"segments[0].aircraft.code", func(o offer) (string, bool) { return toName(o.segment(0).path("aircraft", "code")) }},
}

// offerListExtractors locate the offer array inside a response envelope.
var offerListExtractors = []extractor[[]any]{
	{"data.flights", listAt("data", "flights")},
	{"data", listAt("data")},
	{"flights", listAt("flights")},
	{"itineraries", listAt("itineraries")},
}

func listAt(keys ...string) func(offer) ([]any, bool) {
	return func(o offer) ([]any, bool) {
		l, ok := o.path(keys...).([]any)
		return l, ok
	}
}

// ParseOffers decodes a search response body and returns the offer with the
// strictly lowest valid price. Offers without a positive parseable price are
// skipped. ErrNotFound is returned when no offer survives.
func ParseOffers(body []byte, date time.Time) (graph.FlightQuote, error) {
	var envelope offer
	if err := json.Unmarshal(body, &envelope); err != nil {
		return graph.FlightQuote{}, fmt.Errorf("%w: decode search response: %v", ErrTransient, err)
	}
	list, _, ok := firstMatch(envelope, offerListExtractors)
	if !ok || len(list) == 0 {
		return graph.FlightQuote{}, ErrNotFound
	}

	var (
		best  graph.FlightQuote
		found bool
	)
	for _, raw := range list {
		o := asOffer(raw)
		if o == nil {
			continue
		}
		price, _, ok := firstMatch(o, priceExtractors)
		if !ok || !(price > 0) {
			continue
		}
		if found && price >= best.Price {
			continue
		}
		best = quoteFromOffer(o, price, date)
		found = true
	}
	if !found {
		return graph.FlightQuote{}, ErrNotFound
	}
	return best, nil
}

func quoteFromOffer(o offer, price float64, date time.Time) graph.FlightQuote {
	q := graph.FlightQuote{
		Price:         price,
		Currency:      graph.Currency,
		Airline:       "Unknown Airline",
		Date:          date,
		DepartureTime: graph.UnknownTime,
		ArrivalTime:   graph.UnknownTime,
		Source:        graph.SourceLive,
	}
	if v, _, ok := firstMatch(o, airlineExtractors); ok {
		q.Airline = AirlineName(v)
	}
	if v, _, ok := firstMatch(o, dateExtractors); ok {
		q.Date = v
	}
	if v, _, ok := firstMatch(o, departureExtractors); ok {
		q.DepartureTime = v
	}
	if v, _, ok := firstMatch(o, arrivalExtractors); ok {
		q.ArrivalTime = v
	}
	if v, _, ok := firstMatch(o, durationExtractors); ok {
		q.DurationMinutes = &v
	}
	if v, _, ok := firstMatch(o, stopsExtractors); ok {
		q.Stops = v
	}
	if v, _, ok := firstMatch(o, aircraftExtractors); ok {
		q.Aircraft = &v
	}
	return q
}

// ─── Field helpers ────────────────────────────────────────────────────────────

func asOffer(v any) offer {
	m, _ := v.(map[string]any)
	return m
}

func (o offer) path(keys ...string) any {
	var cur any = map[string]any(o)
	for _, k := range keys {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[k]
	}
	return cur
}

func (o offer) segments() ([]any, bool) {
	segs, ok := o["segments"].([]any)
	return segs, ok
}

// segment returns segment i, counting from the end when i is negative.
func (o offer) segment(i int) offer {
	segs, _ := o.segments()
	if i < 0 {
		i += len(segs)
	}
	return asOffer(index(segs, i))
}

func index(v any, i int) any {
	l, ok := v.([]any)
	if !ok || i < 0 || i >= len(l) {
		return nil
	}
	return l[i]
}

// toFloat accepts finite numbers only; ParseFloat also reads "Inf" and "NaN".
func toFloat(v any) (float64, bool) {
	var (
		f   float64
		err error
	)
	switch t := v.(type) {
	case float64:
		f = t
	case json.Number:
		f, err = t.Float64()
	case string:
		f, err = strconv.ParseFloat(strings.TrimSpace(t), 64)
	default:
		return 0, false
	}
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

func toCount(v any) (int, bool) {
	if l, ok := v.([]any); ok {
		return len(l), true
	}
	f, ok := toFloat(v)
	if !ok || f < 0 {
		return 0, false
	}
	return int(f), true
}

func toName(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		return s, s != ""
	case map[string]any:
		for _, k := range []string{"name", "displayName", "code"} {
			if s, ok := toName(t[k]); ok {
				return s, true
			}
		}
	}
	return "", false
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"15:04:05",
	"15:04",
}

// clockTime reduces a timestamp or time-of-day to local "HH:MM".
func clockTime(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04"), true
		}
	}
	return "", false
}

func calendarDate(v any) (time.Time, bool) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	s = strings.TrimSpace(s)
	if len(s) < len("2006-01-02") {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", s[:10])
	return t, err == nil
}

var (
	isoDurationRE   = regexp.MustCompile(`^P(?:(\d+)D)?T?(?:(\d+)H)?(?:(\d+)M)?$`)
	humanDurationRE = regexp.MustCompile(`^(?:(\d+)\s*h)?\s*(?:(\d+)\s*m(?:in)?)?$`)
)

// toMinutes accepts minutes as a number, ISO-8601 ("PT5H30M") or "5h 30m".
func toMinutes(v any) (int, bool) {
	if f, ok := toFloat(v); ok {
		if f <= 0 {
			return 0, false
		}
		return int(f), true
	}
	s, ok := v.(string)
	if !ok {
		return 0, false
	}
	s = strings.TrimSpace(s)
	if m := isoDurationRE.FindStringSubmatch(strings.ToUpper(s)); m != nil {
		return sumDuration(atoi(m[1])*24, m[2], m[3])
	}
	if m := humanDurationRE.FindStringSubmatch(strings.ToLower(s)); m != nil {
		return sumDuration(0, m[1], m[2])
	}
	return 0, false
}

func sumDuration(extraHours int, hours, minutes string) (int, bool) {
	total := (extraHours+atoi(hours))*60 + atoi(minutes)
	return total, total > 0
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// FormatDuration renders minutes as "5h 30m", like the search results page.
func FormatDuration(minutes int) string {
	h := minutes / 60
	m := minutes % 60
	switch {
	case h == 0:
		return fmt.Sprintf("%dm", m)
	case m == 0:
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}
