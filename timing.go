package main

import (
	"fmt"
	"math"
)

// Row grid resolution shared by every simfile measure
const (
	RowsPerMeasure  = 192
	RowsPerBeat     = 48
	BeatsPerMeasure = RowsPerMeasure / RowsPerBeat
)

const defaultBPM = 120.0

// tolerance used when checking that a beat sits on a row
const rowEpsilon = 1e-6

// RowOf returns the absolute row of line i of measure m when the measure's
// lines are spaced stride rows apart.
func RowOf(measure, line, stride int) int {
	return measure*RowsPerMeasure + line*stride
}

// BeatOf converts an absolute row into a beat position in quarter notes
func BeatOf(row int) float64 {
	return float64(row) / RowsPerBeat
}

// RowOfBeat converts a beat into its absolute row. ok is false when the beat
// doesn't land on a whole row and so can't be written to a row grid.
func RowOfBeat(beat float64) (row int, ok bool) {
	exact := beat * RowsPerBeat
	rounded := math.Round(exact)
	if math.Abs(exact-rounded) > rowEpsilon {
		return int(rounded), false
	}
	return int(rounded), true
}

// MeasureOfBeat returns the zero-based measure containing beat
func MeasureOfBeat(beat float64) int {
	if beat < 0 {
		return 0
	}
	return int(math.Floor(beat / BeatsPerMeasure))
}

// TimingPoint is a tempo change starting at StartBeat
type TimingPoint struct {
	StartBeat float64 `json:"startBeat"`
	BPM       float64 `json:"bpm"`
}

func (tp TimingPoint) String() string {
	return fmt.Sprintf("Timing Point: %g BPM at beat %g", tp.BPM, tp.StartBeat)
}

// BPMAtBeat returns the tempo in effect at beat. Timing points are expected
// in increasing StartBeat order, as they appear in #BPMS.
func BPMAtBeat(points []TimingPoint, beat float64) float64 {
	if len(points) == 0 {
		return defaultBPM
	}

	bpm := points[0].BPM
	for _, tp := range points {
		if tp.StartBeat <= beat {
			bpm = tp.BPM
		} else {
			break
		}
	}
	return bpm
}

// SecondsAtBeat converts a beat into seconds from the start of the audio,
// walking each tempo segment. offset is the simfile #OFFSET, which is the
// time of beat 0 negated.
func SecondsAtBeat(points []TimingPoint, offset, beat float64) float64 {
	if len(points) == 0 {
		return beat*60.0/defaultBPM - offset
	}

	seconds := -offset
	for i, tp := range points {
		segStart := tp.StartBeat
		if i == 0 {
			// the first tempo also covers any beats before it
			segStart = math.Min(segStart, 0)
		}
		if beat <= segStart {
			break
		}

		segEnd := beat
		if i+1 < len(points) && points[i+1].StartBeat < beat {
			segEnd = points[i+1].StartBeat
		}

		if tp.BPM > 0 {
			seconds += (segEnd - segStart) * 60.0 / tp.BPM
		}
	}
	return seconds
}
