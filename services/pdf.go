package services

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"routefinder/graph"
)

type PDFData struct {
	TravelerName string
	Origin       string
	Destination  string
	// Places maps IATA codes to "Name, City" for display. Optional.
	Places    map[string]string
	Legs      []graph.RouteEdge
	TotalCost float64
	Direct    bool
	Generated time.Time
}

// Estimated reports whether any leg price was generated rather than quoted.
func (d PDFData) Estimated() bool {
	for _, leg := range d.Legs {
		if leg.Quote.Source == graph.SourceEstimated {
			return true
		}
	}
	return false
}

func (d PDFData) place(code string) string {
	if p, ok := d.Places[code]; ok && p != "" {
		return fmt.Sprintf("%s (%s)", p, code)
	}
	return code
}

// GeneratePDFBytes renders an itinerary and returns raw bytes (no filesystem needed)
func GeneratePDFBytes(data PDFData) ([]byte, error) {
	if len(data.Legs) == 0 {
		return nil, fmt.Errorf("itinerary has no legs")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	// ── Header Bar ───────────────────────────────────────────
	pdf.SetFillColor(13, 24, 37)
	pdf.Rect(0, 0, 210, 28, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetXY(20, 8)
	pdf.CellFormat(100, 10, "RouteFinder", "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(212, 168, 67)
	pdf.SetXY(20, 18)
	pdf.CellFormat(170, 6, "Cheapest Route Itinerary", "", 1, "L", false, 0, "")

	pdf.SetY(35)

	// ── Disclaimer ───────────────────────────────────────────
	pdf.SetFillColor(255, 248, 225)
	pdf.SetDrawColor(212, 168, 67)
	pdf.SetTextColor(130, 90, 20)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetLineWidth(0.4)
	y := pdf.GetY()
	pdf.Rect(20, y, 170, 12, "FD")
	pdf.SetXY(23, y+2)
	disclaimer := "This is NOT a booking confirmation. Prices are one-way economy quotes and subject to change."
	if data.Estimated() {
		disclaimer = "ESTIMATED PRICES: some legs were not quoted live. This is NOT a booking confirmation. Verify all prices before booking."
	}
	pdf.MultiCell(164, 4, disclaimer, "", "C", false)

	pdf.SetTextColor(0, 0, 0)
	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.2)
	pdf.Ln(6)

	sectionHeader := func(title string) {
		pdf.SetFillColor(13, 24, 37)
		pdf.SetTextColor(255, 255, 255)
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(170, 8, "  "+tr(title), "", 1, "L", true, 0, "")
		pdf.SetTextColor(0, 0, 0)
		pdf.Ln(2)
	}

	row := func(label, value string) {
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(100, 100, 100)
		pdf.CellFormat(55, 7, tr(label), "", 0, "L", false, 0, "")
		pdf.SetTextColor(20, 20, 20)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(115, 7, tr(value), "", 1, "L", false, 0, "")
	}

	// ── Traveler Info ─────────────────────────────────────────
	sectionHeader("Traveler Information")
	name := data.TravelerName
	if name == "" {
		name = "Guest Traveler"
	}
	generated := data.Generated
	if generated.IsZero() {
		generated = time.Now()
	}
	row("Name", name)
	row("Generated", generated.UTC().Format("02 Jan 2006, 15:04 UTC"))
	pdf.Ln(4)

	// ── Route Overview ────────────────────────────────────────
	sectionHeader("Route Overview")
	codes := make([]string, 0, len(data.Legs)+1)
	codes = append(codes, data.Legs[0].Origin)
	for _, leg := range data.Legs {
		codes = append(codes, leg.Destination)
	}
	row("From", data.place(data.Origin))
	row("To", data.place(data.Destination))
	row("Route", strings.Join(codes, " -> "))
	kind := "Direct"
	if !data.Direct {
		kind = fmt.Sprintf("%d connection(s)", len(data.Legs)-1)
	}
	row("Type", kind)
	row("Departure", data.Legs[0].Quote.Date.Format("02 Jan 2006 (Mon)"))
	pdf.Ln(4)

	// ── Legs ──────────────────────────────────────────────────
	for i, leg := range data.Legs {
		q := leg.Quote
		sectionHeader(fmt.Sprintf("Leg %d: %s -> %s", i+1, leg.Origin, leg.Destination))
		row("Airline", q.Airline)
		row("Times", formatFlightLeg(q))
		stops := "Nonstop"
		if q.Stops > 0 {
			stops = fmt.Sprintf("%d stop(s)", q.Stops)
		}
		row("Stops", stops)
		if q.Aircraft != nil {
			row("Aircraft", *q.Aircraft)
		}
		price := fmt.Sprintf("$%.0f %s", q.Price, q.Currency)
		if q.Source == graph.SourceEstimated {
			price += " (estimated)"
		}
		row("Price", price)
		pdf.Ln(2)
	}
	pdf.Ln(2)

	// ── Cost Summary ──────────────────────────────────────────
	pdf.SetFillColor(212, 168, 67)
	pdf.SetTextColor(13, 24, 37)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(55, 9, "TOTAL", "", 0, "L", true, 0, "")
	pdf.CellFormat(115, 9, fmt.Sprintf("$%.0f %s", data.TotalCost, graph.Currency), "", 1, "L", true, 0, "")
	pdf.SetTextColor(0, 0, 0)

	// ── Footer ────────────────────────────────────────────────
	pdf.SetY(-22)
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.3)
	pdf.Line(20, pdf.GetY(), 190, pdf.GetY())
	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(150, 150, 150)
	pdf.CellFormat(0, 8,
		"Generated by RouteFinder - Not a booking confirmation - Prices subject to change",
		"", 0, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("PDF output failed: %w", err)
	}
	return buf.Bytes(), nil
}

func formatFlightLeg(q graph.FlightQuote) string {
	if q.DepartureTime == graph.UnknownTime && q.ArrivalTime == graph.UnknownTime {
		return "N/A"
	}
	result := fmt.Sprintf("%s -> %s", q.DepartureTime, q.ArrivalTime)
	if q.DurationMinutes != nil {
		result += fmt.Sprintf(" (%s)", FormatDuration(*q.DurationMinutes))
	}
	return result
}
