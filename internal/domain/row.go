package domain

import (
	"strconv"
	"time"
)

// TimeLayout is the ISO 8601 form used for times in output files.
const TimeLayout = "2006-01-02T15:04:05.000000Z"

// RowHeader names the OutputRow columns in Record order. Phase files are
// written without it.
var RowHeader = []string{
	"station", "station_lat", "station_lon",
	"pick_time", "origin_time",
	"event_lat", "event_lon", "event_depth_m",
	"grid_index", "depth_bin",
}

// OutputRow is one qualifying arrival joined with its station and the event's
// preferred origin.
type OutputRow struct {
	EventID     string    `json:"event_id"`
	Phase       string    `json:"phase"`
	Station     string    `json:"station"`
	StationLat  float64   `json:"station_lat"`
	StationLon  float64   `json:"station_lon"`
	PickTime    time.Time `json:"pick_time"`
	OriginTime  time.Time `json:"origin_time"`
	EventLat    float64   `json:"event_lat"`
	EventLon    float64   `json:"event_lon"`
	EventDepthM float64   `json:"event_depth_m"`
	GridIndex   int64     `json:"grid_index"`
	DepthBin    int64     `json:"depth_bin"`
}

// NewOutputRow joins an arrival with its station and origin. The arrival must
// carry a pick.
func NewOutputRow(eventID string, arr Arrival, st Station, origin Origin, gridIndex int64, cell Cell) OutputRow {
	return OutputRow{
		EventID:     eventID,
		Phase:       arr.Phase,
		Station:     st.Code,
		StationLat:  st.Latitude,
		StationLon:  st.Longitude,
		PickTime:    arr.Pick.Time,
		OriginTime:  origin.Time,
		EventLat:    origin.Latitude,
		EventLon:    origin.Longitude,
		EventDepthM: origin.DepthMeters(),
		GridIndex:   gridIndex,
		DepthBin:    cell.Depth,
	}
}

// Record renders the row in the fixed CSV column order of RowHeader.
func (r OutputRow) Record() []string {
	return []string{
		r.Station,
		FormatFloat(r.StationLat),
		FormatFloat(r.StationLon),
		FormatTime(r.PickTime),
		FormatTime(r.OriginTime),
		FormatFloat(r.EventLat),
		FormatFloat(r.EventLon),
		FormatFloat(r.EventDepthM),
		strconv.FormatInt(r.GridIndex, 10),
		strconv.FormatInt(r.DepthBin, 10),
	}
}

// FormatFloat renders v in the shortest decimal form that round-trips.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatTime renders t in UTC with microsecond precision.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}
