package services

import "strings"

var airlineNames = map[string]string{
	"AA": "American Airlines",
	"AC": "Air Canada",
	"AF": "Air France",
	"AS": "Alaska Airlines",
	"AZ": "ITA Airways",
	"B6": "JetBlue Airways",
	"BA": "British Airways",
	"CX": "Cathay Pacific",
	"DL": "Delta Air Lines",
	"EK": "Emirates",
	"ET": "Ethiopian Airlines",
	"EY": "Etihad Airways",
	"F9": "Frontier Airlines",
	"FR": "Ryanair",
	"FZ": "FlyDubai",
	"HA": "Hawaiian Airlines",
	"IB": "Iberia",
	"JL": "Japan Airlines",
	"KE": "Korean Air",
	"KL": "KLM Royal Dutch Airlines",
	"LH": "Lufthansa",
	"LX": "Swiss International Air Lines",
	"NH": "ANA All Nippon Airways",
	"NK": "Spirit Airlines",
	"OS": "Austrian Airlines",
	"QF": "Qantas",
	"QR": "Qatar Airways",
	"SQ": "Singapore Airlines",
	"TK": "Turkish Airlines",
	"U2": "EasyJet",
	"UA": "United Airlines",
	"W6": "Wizz Air",
	"WN": "Southwest Airlines",
	"WS": "WestJet",
}

// AirlineName expands a two-character IATA carrier code. Anything else,
// including codes it does not know, is returned unchanged.
func AirlineName(v string) string {
	v = strings.TrimSpace(v)
	if len(v) != 2 {
		return v
	}
	if name, ok := airlineNames[strings.ToUpper(v)]; ok {
		return name
	}
	return v
}
