package domain

// Selection is the outcome of filtering one origin's arrivals. P and S keep
// catalog order. The counters explain what was dropped and why.
type Selection struct {
	P []Arrival
	S []Arrival

	Unresolved int // arrival without a pick
	Unmatched  int // pick station not in the station table
	OtherPhase int // phase label matches neither side of the wave type
}

// Total returns the number of selected arrivals.
func (s Selection) Total() int { return len(s.P) + len(s.S) }

// SelectArrivals partitions origin's arrivals into P-type and S-type lists.
// Arrivals whose station is missing from stations, whose pick is missing, or
// whose phase matches neither label are skipped without error.
func SelectArrivals(origin Origin, stations *StationTable, wt WaveType) Selection {
	var sel Selection
	for _, arr := range origin.Arrivals {
		code, ok := arr.StationCode()
		if !ok {
			sel.Unresolved++
			continue
		}
		if _, ok := stations.Lookup(code); !ok {
			sel.Unmatched++
			continue
		}
		switch wt.Classify(arr.Phase) {
		case "P":
			sel.P = append(sel.P, arr)
		case "S":
			sel.S = append(sel.S, arr)
		default:
			sel.OtherPhase++
		}
	}
	return sel
}

// PhasePair is a P-type and S-type arrival recorded on the same channel.
type PhasePair struct {
	Waveform WaveformID
	P        Arrival
	S        Arrival
}

// MatchPairs pairs the first P-type arrival on each channel with the first
// S-type arrival on that channel that is picked after it. Pairs are returned
// in order of the P arrival's catalog position. Channels lacking either phase
// produce no pair.
func MatchPairs(origin Origin, stations *StationTable, wt WaveType) []PhasePair {
	sel := SelectArrivals(origin, stations, wt)

	firstP := make(map[WaveformID]Arrival, len(sel.P))
	var order []WaveformID
	for _, arr := range sel.P {
		id := arr.Pick.Waveform
		if _, seen := firstP[id]; seen {
			continue
		}
		firstP[id] = arr
		order = append(order, id)
	}

	firstS := make(map[WaveformID]Arrival, len(sel.S))
	for _, arr := range sel.S {
		id := arr.Pick.Waveform
		p, ok := firstP[id]
		if !ok || !arr.Pick.Time.After(p.Pick.Time) {
			continue
		}
		if _, seen := firstS[id]; !seen {
			firstS[id] = arr
		}
	}

	pairs := make([]PhasePair, 0, len(firstS))
	for _, id := range order {
		s, ok := firstS[id]
		if !ok {
			continue
		}
		pairs = append(pairs, PhasePair{Waveform: id, P: firstP[id], S: s})
	}
	return pairs
}
