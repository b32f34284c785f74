package main

import (
	"fmt"
	"strings"
)

// Measure summarizes one 4 beat measure of a difficulty
type Measure struct {
	Index     int     `json:"index"`
	StartBeat float64 `json:"startBeat"`
	StartTime float64 `json:"startTime"` // seconds from the start of the audio
	EndTime   float64 `json:"endTime"`
	BPM       float64 `json:"bpm"` // tempo at the start of the measure
	NoteCount int     `json:"noteCount"`
	Snap      Snap    `json:"snap"`
}

// Timeline is the measure by measure layout of one difficulty
type Timeline struct {
	Difficulty string    `json:"difficulty"`
	Measures   []Measure `json:"measures"`
}

// ExtractTimeline lays out the measures of diff against the simfile's tempo
// changes and offset
func ExtractTimeline(sf *SimFile, diff *Difficulty) (*Timeline, error) {
	if diff == nil {
		return nil, fmt.Errorf("difficulty is nil")
	}

	grouped, err := groupByMeasure(diff.Notes, diff.LaneCount(), diff.Measures)
	if err != nil {
		return nil, fmt.Errorf("failed to group notes by measure: %w", err)
	}

	timeline := &Timeline{
		Difficulty: diff.Name,
		Measures:   make([]Measure, 0, len(grouped)),
	}

	for _, mr := range grouped {
		startBeat := BeatOf(mr.index * RowsPerMeasure)
		endBeat := startBeat + BeatsPerMeasure

		noteCount := 0
		for _, notes := range mr.rows {
			noteCount += len(notes)
		}

		timeline.Measures = append(timeline.Measures, Measure{
			Index:     mr.index,
			StartBeat: startBeat,
			StartTime: SecondsAtBeat(sf.TimingPoints, sf.Metadata.Offset, startBeat),
			EndTime:   SecondsAtBeat(sf.TimingPoints, sf.Metadata.Offset, endBeat),
			BPM:       BPMAtBeat(sf.TimingPoints, startBeat),
			NoteCount: noteCount,
			Snap:      InferSnap(mr.relativeRows()),
		})
	}

	return timeline, nil
}

// GetMeasureAtBeat finds the measure that contains the given beat
func (t *Timeline) GetMeasureAtBeat(beat float64) *Measure {
	for i := range t.Measures {
		start := t.Measures[i].StartBeat
		if beat >= start && beat < start+BeatsPerMeasure {
			return &t.Measures[i]
		}
	}
	return nil
}

// GetTotalDuration returns the end of the last measure in seconds
func (t *Timeline) GetTotalDuration() float64 {
	if len(t.Measures) == 0 {
		return 0
	}
	return t.Measures[len(t.Measures)-1].EndTime
}

func (t *Timeline) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Timeline: %s, %d measures\n", t.Difficulty, len(t.Measures)))

	for _, measure := range t.Measures {
		sb.WriteString(fmt.Sprintf("Measure %d: beat %g, %.1f BPM, %.3fs-%.3fs, %d notes, %s snap\n",
			measure.Index+1,
			measure.StartBeat,
			measure.BPM,
			measure.StartTime,
			measure.EndTime,
			measure.NoteCount,
			measure.Snap,
		))
	}

	return sb.String()
}
