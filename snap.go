package main

import "fmt"

// Snap is the number of grid divisions per beat a measure needs so that all
// of its notes land on a row
type Snap int

const (
	SnapQuarter      Snap = 1
	SnapEighth       Snap = 2
	SnapTwelfth      Snap = 3
	SnapSixteenth    Snap = 4
	SnapTwentyFourth Snap = 6
	SnapThirtySecond Snap = 8
	SnapFortyEighth  Snap = 12
	SnapSixtyFourth  Snap = 16
	SnapNinetySixth  Snap = 24
	Snap192nd        Snap = 48
)

// snaps ordered coarsest to finest, with the row divisor that identifies each
var snapTable = []struct {
	divisor int
	snap    Snap
}{
	{48, SnapQuarter},
	{24, SnapEighth},
	{16, SnapTwelfth},
	{12, SnapSixteenth},
	{8, SnapTwentyFourth},
	{6, SnapThirtySecond},
	{4, SnapFortyEighth},
	{3, SnapSixtyFourth},
	{2, SnapNinetySixth},
	{1, Snap192nd},
}

var snapNames = map[Snap]string{
	SnapQuarter:      "4th",
	SnapEighth:       "8th",
	SnapTwelfth:      "12th",
	SnapSixteenth:    "16th",
	SnapTwentyFourth: "24th",
	SnapThirtySecond: "32nd",
	SnapFortyEighth:  "48th",
	SnapSixtyFourth:  "64th",
	SnapNinetySixth:  "96th",
	Snap192nd:        "192nd",
}

func (s Snap) String() string {
	if name, ok := snapNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Snap(%d)", int(s))
}

// Stride is the row spacing between two lines of a measure at this snap
func (s Snap) Stride() int {
	if s <= 0 {
		return 1
	}
	return (RowsPerBeat + int(s)/2) / int(s)
}

// LinesPerMeasure is how many text rows a measure takes at this snap
func (s Snap) LinesPerMeasure() int {
	return RowsPerMeasure / s.Stride()
}

// ClassifyRow returns the coarsest snap whose grid contains row
func ClassifyRow(row int) Snap {
	if row < 0 {
		row = -row
	}
	for _, entry := range snapTable {
		if row%entry.divisor == 0 {
			return entry.snap
		}
	}
	return Snap192nd
}

// InferSnap finds the snap needed to write the given rows of one measure
// without moving any of them. An empty measure is a quarter snap.
func InferSnap(rows []int) Snap {
	maxSnap := SnapQuarter
	var hasThirds, hasThirtySecond, hasTripletFamily bool

	for _, row := range rows {
		snap := ClassifyRow(row)
		if snap > maxSnap {
			maxSnap = snap
		}

		switch snap {
		case SnapTwelfth, SnapTwentyFourth:
			hasThirds = true
			hasTripletFamily = true
		case SnapFortyEighth:
			hasTripletFamily = true
		case SnapThirtySecond:
			hasThirtySecond = true
		}
	}

	// triplets mixed with straight divisions need the common 48th grid
	if hasThirds && maxSnap < SnapThirtySecond {
		maxSnap = SnapFortyEighth
	}

	// 32nds share no grid with triplet divisions short of the full 192nd
	if hasThirtySecond && hasTripletFamily {
		maxSnap = Snap192nd
	}

	return widenToFit(maxSnap, rows)
}

// widenToFit moves snap to the first snap at or finer than it whose stride
// divides every row. The two rules above cover the common pairs; this
// catches the rest (e.g. 64ths with 48ths).
func widenToFit(snap Snap, rows []int) Snap {
	for _, entry := range snapTable {
		if entry.snap < snap {
			continue
		}
		if allOnGrid(rows, entry.snap.Stride()) {
			return entry.snap
		}
	}
	return Snap192nd
}

func allOnGrid(rows []int, stride int) bool {
	for _, row := range rows {
		if row%stride != 0 {
			return false
		}
	}
	return true
}
