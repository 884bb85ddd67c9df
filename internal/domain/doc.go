// Package domain models seismic catalog data and the arrival clustering rules
// applied to it.
//
// # Inputs
//
// Station metadata comes from a comma-separated station list: one station per
// row with code, latitude, longitude and elevation (meters), optionally
// followed by further columns that are ignored. See [ReadStations].
//
// Events arrive already parsed by a catalog adapter. Each [Event] carries one
// or more origins; only the preferred origin is used. An origin lists its
// phase arrivals, and every arrival references the pick that timed it on a
// particular network/station/channel.
//
// # Phase pairs
//
// A wave type is a pair of phase labels such as "P S", "Pn Sn" or "Pg Sg".
// The first label selects P-type arrivals, the second S-type arrivals.
// Matching is exact and case-sensitive, so "p s" only selects arrivals
// labelled "p" and "s". See [ParseWaveType] and [SelectArrivals].
//
// # Grid
//
// Origins are bucketed onto a fixed 3D grid: NX equal longitude bins over
// -180..180, NY equal latitude bins over -90..90, and depth bins of DZ meters
// from the surface down. The three bin numbers are flattened row-major:
//
//	index = depth_bin*NX*NY + lat_bin*NX + lon_bin
//
// Coordinates outside the grid are rejected unless the grid is configured to
// clamp them. See [Grid].
//
// # Output
//
// Each qualifying arrival becomes an [OutputRow]; its CSV form is fixed at ten
// columns and formatted deterministically so repeated runs are byte-identical.
package domain
