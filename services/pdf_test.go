package services

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"routefinder/graph"
)

func TestGeneratePDFBytes(t *testing.T) {
	mins := 335
	legs := []graph.RouteEdge{
		{Origin: "JFK", Destination: "LHR", Quote: graph.FlightQuote{
			Price: 420, Currency: graph.Currency, Airline: "British Airways", Date: searchDate,
			DepartureTime: "08:30", ArrivalTime: "20:45", DurationMinutes: &mins, Source: graph.SourceLive,
		}},
		{Origin: "LHR", Destination: "CDG", Quote: graph.FlightQuote{
			Price: 80, Currency: graph.Currency, Airline: "Air France", Date: searchDate,
			DepartureTime: graph.UnknownTime, ArrivalTime: graph.UnknownTime, Source: graph.SourceEstimated,
		}},
	}
	data := PDFData{
		TravelerName: "Ada Lovelace",
		Origin:       "JFK",
		Destination:  "CDG",
		Places:       map[string]string{"JFK": "John F Kennedy International Airport, New York"},
		Legs:         legs,
		TotalCost:    500,
	}
	assert.True(t, data.Estimated())

	b, err := GeneratePDFBytes(data)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, []byte("%PDF")))

	_, err = GeneratePDFBytes(PDFData{Origin: "JFK", Destination: "CDG"})
	assert.Error(t, err)
}
