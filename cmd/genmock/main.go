// Command genmock generates a reproducible synthetic station list and
// earthquake catalog for exercising the clustering tools. Travel times follow
// great-circle distance at fixed crustal velocities, and a share of arrivals
// is deliberately unresolvable (no pick, unknown station, other phase labels).
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -stations-out data/mock/stations.csv \
//	  -catalog-out data/mock/catalog.json \
//	  -events 200 -stations 40 -seed 7
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/seismic-cluster-etl/internal/adapter/catalog"
	"github.com/couchcryptid/seismic-cluster-etl/internal/domain"
)

const (
	earthRadiusKm = 6371.0
	vpKmPerSec    = 6.0
	vsKmPerSec    = 3.5
	maxDepthKm    = 700.0
	network       = "XX"
)

var baseTime = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// phasePairs are the label pairs arrivals are drawn from.
var phasePairs = [][2]string{{"P", "S"}, {"Pn", "Sn"}, {"Pg", "Sg"}}

type params struct {
	events   int
	stations int
	seed     uint64
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("genmock", flag.ContinueOnError)
	stationsOut := fs.String("stations-out", "", "output path for the station list CSV")
	catalogOut := fs.String("catalog-out", "", "output path for the catalog JSON")
	var p params
	fs.IntVar(&p.events, "events", 100, "number of events")
	fs.IntVar(&p.stations, "stations", 30, "number of stations")
	fs.Uint64Var(&p.seed, "seed", 1, "random seed")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *stationsOut == "" || *catalogOut == "" {
		fs.Usage()
		return fmt.Errorf("missing required flags: -stations-out, -catalog-out")
	}
	if p.events < 0 || p.stations <= 0 {
		return fmt.Errorf("need a positive station count and a non-negative event count")
	}

	// Fixed clock so origin times are reproducible.
	domain.SetClock(clockwork.NewFakeClockAt(baseTime))
	defer domain.SetClock(nil)

	stations, events := generate(p)

	if err := writeFile(*stationsOut, func(w io.Writer) error { return writeStations(w, stations) }); err != nil {
		return fmt.Errorf("write stations: %w", err)
	}
	log.Printf("wrote %d stations to %s", len(stations), *stationsOut)

	if err := writeFile(*catalogOut, func(w io.Writer) error { return catalog.Encode(w, events) }); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}
	log.Printf("wrote %d events to %s", len(events), *catalogOut)
	return nil
}

// generate builds stations and events deterministically from p.seed.
func generate(p params) ([]domain.Station, []domain.Event) {
	rng := rand.New(rand.NewPCG(p.seed, p.seed^0x9e3779b97f4a7c15))

	stations := make([]domain.Station, p.stations)
	for i := range stations {
		stations[i] = domain.Station{
			Code:      fmt.Sprintf("S%03d", i+1),
			Latitude:  round(rng.Float64()*180-90, 4),
			Longitude: round(rng.Float64()*360-180, 4),
			Elevation: round(rng.Float64()*3000, 1),
		}
	}

	start := domain.Now()
	events := make([]domain.Event, p.events)
	for i := range events {
		origin := domain.Origin{
			ID:        fmt.Sprintf("o%d", i+1),
			Time:      start.Add(time.Duration(i) * 17 * time.Minute).Add(time.Duration(rng.IntN(1000)) * time.Millisecond),
			Latitude:  round(rng.Float64()*180-90, 3),
			Longitude: round(rng.Float64()*360-180, 3),
			DepthKm:   round(rng.Float64()*maxDepthKm, 1),
		}
		origin.Arrivals = arrivals(rng, origin, stations)
		events[i] = domain.Event{
			ID:                fmt.Sprintf("evt-%d", i+1),
			PreferredOriginID: origin.ID,
			Origins:           []domain.Origin{origin},
		}
	}
	return stations, events
}

// arrivals picks a P and S arrival at a random subset of stations, then mixes
// in an unresolved arrival and one at an unknown station.
func arrivals(rng *rand.Rand, origin domain.Origin, stations []domain.Station) []domain.Arrival {
	pair := phasePairs[rng.IntN(len(phasePairs))]
	var out []domain.Arrival
	for _, st := range stations {
		if rng.Float64() > 0.3 {
			continue
		}
		dist := distanceKm(origin.Latitude, origin.Longitude, st.Latitude, st.Longitude)
		hypo := math.Hypot(dist, origin.DepthKm)
		out = append(out,
			arrival(len(out), pair[0], origin.Time, hypo/vpKmPerSec, st.Code, "BHZ"),
			arrival(len(out)+1, pair[1], origin.Time, hypo/vsKmPerSec, st.Code, "BHN"),
		)
	}
	if rng.Float64() < 0.2 {
		out = append(out, domain.Arrival{ID: fmt.Sprintf("a%d", len(out)), Phase: pair[0]})
	}
	if rng.Float64() < 0.2 {
		out = append(out, arrival(len(out), pair[1], origin.Time, 60, "ZZZZ", "BHN"))
	}
	return out
}

func arrival(n int, phase string, origin time.Time, travelSec float64, station, channel string) domain.Arrival {
	t := origin.Add(time.Duration(travelSec * float64(time.Second))).Truncate(time.Microsecond)
	return domain.Arrival{
		ID:    fmt.Sprintf("a%d", n),
		Phase: phase,
		Pick: &domain.Pick{
			ID:       fmt.Sprintf("pk-%s-%s-%d", station, phase, n),
			Time:     t,
			Waveform: domain.WaveformID{Network: network, Station: station, Channel: channel},
		},
	}
}

// distanceKm is the haversine great-circle distance.
func distanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(a)))
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func writeStations(w io.Writer, stations []domain.Station) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"code", "latitude", "longitude", "elevation"}); err != nil {
		return err
	}
	for _, st := range stations {
		rec := []string{
			st.Code,
			strconv.FormatFloat(st.Latitude, 'f', -1, 64),
			strconv.FormatFloat(st.Longitude, 'f', -1, 64),
			strconv.FormatFloat(st.Elevation, 'f', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return write(f)
}
