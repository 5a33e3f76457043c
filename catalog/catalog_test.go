package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `"id","ident","type","name","latitude_deg","longitude_deg","elevation_ft","continent","iso_country","iso_region","municipality","scheduled_service","gps_code","iata_code"
3622,"KJFK","large_airport","John F Kennedy International Airport",40.639447,-73.779317,13,"NA","US","US-NY","New York","yes","KJFK","JFK"
3484,"KLAX","large_airport","Los Angeles International Airport",33.942501,-118.407997,125,"NA","US","US-CA","Los Angeles","yes","KLAX","lax "
2434,"EGLL","large_airport","London Heathrow Airport",51.4706,-0.461941,83,"EU","GB","GB-ENG","London","yes","EGLL","LHR"
1,"00A","heliport","Total RF Heliport",40.070985,-74.933689,11,"NA","US","US-PA","Bensalem","no","K00A",""
2,"XXXX","small_airport","Closed Field",10,10,0,"NA","US","US-PA","Nowhere","no","XXXX","XXX"
`

func TestLoadCSV_FiltersAndNormalizes(t *testing.T) {
	cat, err := LoadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	assert.Equal(t, []string{"JFK", "LAX", "LHR"}, cat.Codes())

	lax, ok := cat.Lookup(" lax")
	require.True(t, ok)
	assert.Equal(t, "LAX", lax.IATA)
	assert.Equal(t, "Los Angeles", lax.Municipality)
	assert.InDelta(t, 33.942501, lax.Latitude, 1e-9)
	assert.Equal(t, "GB", cat.Country("LHR"))
	assert.Equal(t, "", cat.Country("XXX"))
}

func TestLoadCSV_Errors(t *testing.T) {
	_, err := LoadCSV(strings.NewReader("name,iata_code\nFoo,FOO\n"))
	assert.ErrorIs(t, err, ErrMissingColumn)

	header := strings.SplitN(sampleCSV, "\n", 2)[0] + "\n"
	_, err = LoadCSV(strings.NewReader(header))
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = LoadFile("does-not-exist.csv")
	assert.Error(t, err)
}

func TestStatsAndLimit(t *testing.T) {
	cat, err := LoadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	s := cat.Stats()
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 3, s.ByType["large_airport"])
	assert.Equal(t, 2, s.ByCountry["US"])

	assert.Equal(t, []string{"JFK", "LAX"}, cat.Limit(2).Codes())
	assert.Len(t, cat.Limit(0), 3)
}

func TestValidIATA(t *testing.T) {
	assert.True(t, ValidIATA("jfk"))
	assert.True(t, ValidIATA(" LHR "))
	assert.False(t, ValidIATA("JF"))
	assert.False(t, ValidIATA("J1K"))
	assert.False(t, ValidIATA(""))
}
