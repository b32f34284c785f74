package main

import (
	"fmt"
	"sort"
)

// measureDecoder turns the row lines of a difficulty into notes one measure
// at a time. Lines arrive as a stream, so it keeps the index of the measure
// being filled and the lines collected for it so far.
type measureDecoder struct {
	diff    *Difficulty
	measure int
	lines   []string
}

func newMeasureDecoder(diff *Difficulty) *measureDecoder {
	return &measureDecoder{diff: diff}
}

// addLine queues a row line for the current measure
func (d *measureDecoder) addLine(line string) {
	d.lines = append(d.lines, line)
}

// pending reports whether lines are waiting for a flush
func (d *measureDecoder) pending() bool {
	return len(d.lines) > 0
}

// flush decodes the queued lines as one measure, appends the notes to the
// difficulty and moves on to the next measure.
func (d *measureDecoder) flush() error {
	notes, err := decodeMeasure(d.lines, d.measure)
	if err != nil {
		return fmt.Errorf("measure %d: %w", d.measure, err)
	}

	if len(d.lines) > 0 && d.diff.Lanes == 0 {
		d.diff.Lanes = len(d.lines[0])
	} else if len(d.lines) > 0 && len(d.lines[0]) != d.diff.Lanes {
		return fmt.Errorf("measure %d: rows are %d wide, difficulty has %d lanes: %w",
			d.measure, len(d.lines[0]), d.diff.Lanes, ErrNonUniformMeasure)
	}

	d.diff.Notes = append(d.diff.Notes, notes...)
	d.lines = d.lines[:0]
	d.measure++
	d.diff.Measures = d.measure
	return nil
}

// decodeMeasure reads the lines of measure m. The lines split the measure's
// 192 rows evenly, so their count has to divide 192. An empty line list is
// an empty measure.
func decodeMeasure(lines []string, m int) ([]Note, error) {
	if len(lines) == 0 {
		return nil, nil
	}

	if RowsPerMeasure%len(lines) != 0 {
		return nil, fmt.Errorf("%d lines do not divide %d rows: %w", len(lines), RowsPerMeasure, ErrNonUniformMeasure)
	}
	stride := RowsPerMeasure / len(lines)
	width := len(lines[0])

	var notes []Note
	for i, line := range lines {
		if len(line) != width {
			return nil, fmt.Errorf("line %d is %d wide, expected %d: %w", i, len(line), width, ErrNonUniformMeasure)
		}

		beat := BeatOf(RowOf(m, i, stride))
		for lane := 0; lane < len(line); lane++ {
			kind := noteKindFromChar(line[lane])
			if kind == Empty {
				continue
			}
			notes = append(notes, Note{Beat: beat, Lane: lane, Kind: kind})
		}
	}

	return notes, nil
}

// measureRows holds the notes of one measure keyed by absolute row
type measureRows struct {
	index int
	rows  map[int][]Note
}

// relativeRows returns the occupied rows relative to the measure start
func (mr measureRows) relativeRows() []int {
	start := mr.index * RowsPerMeasure
	rows := make([]int, 0, len(mr.rows))
	for row := range mr.rows {
		rows = append(rows, row-start)
	}
	sort.Ints(rows)
	return rows
}

// groupByMeasure buckets notes into measures. The result has at least
// minMeasures entries so trailing empty measures survive a round trip.
func groupByMeasure(notes []Note, lanes, minMeasures int) ([]measureRows, error) {
	if len(notes) == 0 {
		return nil, ErrEmptyDifficulty
	}

	lastMeasure := minMeasures - 1
	byRow := make(map[int][]Note)
	for _, note := range notes {
		row, ok := RowOfBeat(note.Beat)
		if !ok || row < 0 {
			return nil, fmt.Errorf("%s: %w", note, ErrUnrepresentableBeat)
		}
		if note.Lane < 0 || note.Lane >= lanes {
			return nil, fmt.Errorf("%s with %d lanes: %w", note, lanes, ErrLaneOutOfRange)
		}
		byRow[row] = append(byRow[row], note)
		if m := row / RowsPerMeasure; m > lastMeasure {
			lastMeasure = m
		}
	}

	measures := make([]measureRows, lastMeasure+1)
	for i := range measures {
		measures[i] = measureRows{index: i, rows: make(map[int][]Note)}
	}
	for row, rowNotes := range byRow {
		m := row / RowsPerMeasure
		measures[m].rows[row] = rowNotes
	}

	return measures, nil
}

// encodeMeasure writes one measure as row lines, stepping stride rows at a
// time from the first row of the measure to its last.
func encodeMeasure(mr measureRows, lanes, stride int) []string {
	start := mr.index * RowsPerMeasure
	end := start + RowsPerMeasure - 1

	lines := make([]string, 0, RowsPerMeasure/stride)
	for row := start; row <= end; row += stride {
		buf := make([]byte, lanes)
		for i := range buf {
			buf[i] = Empty.char()
		}
		for _, note := range mr.rows[row] {
			buf[note.Lane] = note.Kind.char()
		}
		lines = append(lines, string(buf))
	}
	return lines
}

// encodeDifficulty renders every measure of diff, each one at the snap its
// notes need.
func encodeDifficulty(diff *Difficulty) ([][]string, error) {
	lanes := diff.LaneCount()
	measures, err := groupByMeasure(diff.Notes, lanes, diff.Measures)
	if err != nil {
		return nil, err
	}

	encoded := make([][]string, 0, len(measures))
	for _, mr := range measures {
		snap := InferSnap(mr.relativeRows())
		encoded = append(encoded, encodeMeasure(mr, lanes, snap.Stride()))
	}
	return encoded, nil
}
