package domain

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testOriginTime = time.Date(2017, time.August, 27, 11, 20, 5, 250000000, time.UTC)

func arrival(phase, station string, offset time.Duration) Arrival {
	return Arrival{
		ID:    phase + "-" + station,
		Phase: phase,
		Pick: &Pick{
			Time:     testOriginTime.Add(offset),
			Waveform: WaveformID{Network: "AU", Station: station, Channel: "BHZ"},
		},
	}
}

func mixedOrigin() Origin {
	return Origin{
		ID:   "origin-1",
		Time: testOriginTime,
		Arrivals: []Arrival{
			arrival("P", "ARMA", 30*time.Second),
			arrival("Pn", "CTAO", 35*time.Second),
			arrival("S", "ARMA", 55*time.Second),
			arrival("p", "MUN", 40*time.Second),
			arrival("Pg", "ARMA", 31*time.Second),
			arrival("Sn", "CTAO", 60*time.Second),
			arrival("P", "XXXX", 45*time.Second),
			arrival("s", "MUN", 70*time.Second),
			arrival("Sg", "ARMA", 56*time.Second),
			arrival("P", "CTAO", 36*time.Second),
			{ID: "dangling", Phase: "P"},
		},
	}
}

func testStations() *StationTable {
	return NewStationTable(
		Station{Code: "ARMA", Latitude: -30.4198, Longitude: 151.6283, Elevation: 960},
		Station{Code: "CTAO", Latitude: -20.0882, Longitude: 146.2545, Elevation: 357},
		Station{Code: "MUN", Latitude: -31.9798, Longitude: 116.2081, Elevation: 250.5},
	)
}

func ids(arrs []Arrival) []string {
	out := make([]string, 0, len(arrs))
	for _, a := range arrs {
		out = append(out, a.ID)
	}
	return out
}

func TestSelectArrivals_WaveTypes(t *testing.T) {
	cases := []struct {
		waveType string
		wantP    []string
		wantS    []string
	}{
		{waveType: "P S", wantP: []string{"P-ARMA", "P-CTAO"}, wantS: []string{"S-ARMA"}},
		{waveType: "p s", wantP: []string{"p-MUN"}, wantS: []string{"s-MUN"}},
		{waveType: "Pn Sn", wantP: []string{"Pn-CTAO"}, wantS: []string{"Sn-CTAO"}},
		{waveType: "Pg Sg", wantP: []string{"Pg-ARMA"}, wantS: []string{"Sg-ARMA"}},
	}

	origin := mixedOrigin()
	stations := testStations()

	for _, tc := range cases {
		t.Run(tc.waveType, func(t *testing.T) {
			wt, err := ParseWaveType(tc.waveType)
			require.NoError(t, err)

			sel := SelectArrivals(origin, stations, wt)

			if diff := cmp.Diff(tc.wantP, ids(sel.P)); diff != "" {
				t.Errorf("P arrivals (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tc.wantS, ids(sel.S)); diff != "" {
				t.Errorf("S arrivals (-want +got):\n%s", diff)
			}
			assert.Equal(t, 1, sel.Unresolved)
			assert.Equal(t, len(origin.Arrivals), sel.Total()+sel.Unresolved+sel.Unmatched+sel.OtherPhase)
		})
	}
}

func TestSelectArrivals_UnmatchedStationIsSkipped(t *testing.T) {
	wt := WaveType{P: "P", S: "S"}
	sel := SelectArrivals(mixedOrigin(), testStations(), wt)

	assert.Equal(t, 1, sel.Unmatched)
	for _, a := range sel.P {
		assert.NotEqual(t, "XXXX", a.Pick.Waveform.Station)
	}
}

func TestSelectArrivals_DoesNotMutateOrigin(t *testing.T) {
	origin := mixedOrigin()
	before := mixedOrigin()

	sel := SelectArrivals(origin, testStations(), WaveType{P: "P", S: "S"})
	require.NotEmpty(t, sel.P)

	assert.Equal(t, before, origin)
}

func TestSelectArrivals_EmptyOrigin(t *testing.T) {
	sel := SelectArrivals(Origin{}, testStations(), WaveType{P: "P", S: "S"})
	assert.Zero(t, sel.Total())
}

func TestMatchPairs(t *testing.T) {
	origin := Origin{
		Time: testOriginTime,
		Arrivals: []Arrival{
			arrival("P", "CTAO", 36*time.Second),
			arrival("P", "ARMA", 30*time.Second),
			arrival("S", "ARMA", 55*time.Second),
			arrival("P", "ARMA", 32*time.Second), // second P on the same channel is ignored
			arrival("S", "MUN", 70*time.Second),  // no P on this channel
			arrival("S", "CTAO", 20*time.Second), // precedes its P
		},
	}

	pairs := MatchPairs(origin, testStations(), WaveType{P: "P", S: "S"})

	require.Len(t, pairs, 1)
	assert.Equal(t, WaveformID{Network: "AU", Station: "ARMA", Channel: "BHZ"}, pairs[0].Waveform)
	assert.Equal(t, testOriginTime.Add(30*time.Second), pairs[0].P.Pick.Time)
	assert.Equal(t, testOriginTime.Add(55*time.Second), pairs[0].S.Pick.Time)
}

func TestParseWaveType(t *testing.T) {
	wt, err := ParseWaveType("  Pn\tSn ")
	require.NoError(t, err)
	assert.Equal(t, WaveType{P: "Pn", S: "Sn"}, wt)
	assert.Equal(t, "Pn Sn", wt.String())

	for _, bad := range []string{"", "P", "P S Pn", "P P"} {
		_, err := ParseWaveType(bad)
		assert.ErrorIs(t, err, ErrInvalidWaveType, bad)
	}
}
