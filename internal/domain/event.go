package domain

import (
	"math"
	"time"
)

// WaveformID identifies the channel a pick was made on. It is comparable and
// used directly as a map key.
type WaveformID struct {
	Network  string `json:"network"`
	Station  string `json:"station"`
	Channel  string `json:"channel"`
	Location string `json:"location,omitempty"`
}

// Pick is a timed phase detection on a single channel.
type Pick struct {
	ID       string     `json:"id,omitempty"`
	Time     time.Time  `json:"time"`
	Waveform WaveformID `json:"waveform"`
}

// Arrival associates a pick with an origin under a phase label.
// Pick is nil when the catalog reference could not be resolved.
type Arrival struct {
	ID    string `json:"id,omitempty"`
	Phase string `json:"phase"`
	Pick  *Pick  `json:"pick,omitempty"`
}

// StationCode returns the station code of the referenced pick, or false when
// the arrival has no pick.
func (a Arrival) StationCode() (string, bool) {
	if a.Pick == nil {
		return "", false
	}
	return a.Pick.Waveform.Station, true
}

// Origin is a hypocenter estimate together with its associated arrivals.
// Depth is stored in kilometers as catalogs report it.
type Origin struct {
	ID        string    `json:"id,omitempty"`
	Time      time.Time `json:"time"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	DepthKm   float64   `json:"depth_km"`
	Arrivals  []Arrival `json:"arrivals,omitempty"`
}

// DepthMeters returns the origin depth in meters, the unit used for gridding.
// The result is rounded to the millimetre so decimal kilometre depths convert
// exactly: 8.075 km is 8075 m, not 8074.999999999999.
func (o Origin) DepthMeters() float64 {
	return math.Round(o.DepthKm*1e6) / 1e3
}

// Event is a catalog entry. Only its preferred origin is used for clustering.
type Event struct {
	ID                string   `json:"id"`
	PreferredOriginID string   `json:"preferred_origin_id,omitempty"`
	Origins           []Origin `json:"origins"`
}

// PreferredOrigin returns the origin named by PreferredOriginID. The boolean
// is false when no preference is set or it names no origin.
func (e Event) PreferredOrigin() (Origin, bool) {
	if e.PreferredOriginID == "" {
		return Origin{}, false
	}
	for i := range e.Origins {
		if e.Origins[i].ID == e.PreferredOriginID {
			return e.Origins[i], true
		}
	}
	return Origin{}, false
}

// ResolveOrigin is PreferredOrigin, except that with soleFallback an event
// that sets no preference and carries exactly one origin resolves to it.
func (e Event) ResolveOrigin(soleFallback bool) (Origin, bool) {
	if soleFallback && e.PreferredOriginID == "" && len(e.Origins) == 1 {
		return e.Origins[0], true
	}
	return e.PreferredOrigin()
}
