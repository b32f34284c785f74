package main

import (
	"fmt"
	"strings"
)

// NoteKind is what occupies a lane at a row
type NoteKind uint8

const (
	Empty NoteKind = iota
	Tap
	HoldHead
	HoldTail
	Mine
	Fake
)

var noteKindNames = map[NoteKind]string{
	Empty:    "empty",
	Tap:      "tap",
	HoldHead: "holdHead",
	HoldTail: "holdTail",
	Mine:     "mine",
	Fake:     "fake",
}

func (k NoteKind) String() string {
	if name, ok := noteKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("NoteKind(%d)", uint8(k))
}

func (k NoteKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *NoteKind) UnmarshalText(text []byte) error {
	for kind, name := range noteKindNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown note kind %q", string(text))
}

// noteKindFromChar maps a row-grid character to a note kind. Characters the
// grid doesn't define (keysounds, lifts, ...) read as Empty.
func noteKindFromChar(c byte) NoteKind {
	switch c {
	case '1':
		return Tap
	case '2':
		return HoldHead
	case '3':
		return HoldTail
	case 'M', 'm':
		return Mine
	case 'F', 'f':
		return Fake
	default:
		return Empty
	}
}

// char is the inverse of noteKindFromChar
func (k NoteKind) char() byte {
	switch k {
	case Tap:
		return '1'
	case HoldHead:
		return '2'
	case HoldTail:
		return '3'
	case Mine:
		return 'M'
	case Fake:
		return 'F'
	default:
		return '0'
	}
}

// Note is a single object on the playfield
type Note struct {
	Beat float64  `json:"beat"` // quarter notes from the start of the song
	Lane int      `json:"lane"`
	Kind NoteKind `json:"kind"`
}

func (n Note) String() string {
	return fmt.Sprintf("Note: %s at beat %g on lane %d", n.Kind, n.Beat, n.Lane)
}

// lanes per steps type, used when a difficulty has no decoded rows to
// measure its width from
var stepsTypeLanes = map[string]int{
	"dance-single":     4,
	"dance-double":     8,
	"dance-couple":     8,
	"dance-solo":       6,
	"dance-threepanel": 3,
	"pump-single":      5,
	"pump-halfdouble":  6,
	"pump-double":      10,
	"pump-couple":      10,
}

const defaultLanes = 4

// Difficulty is one #NOTES block of a simfile
type Difficulty struct {
	StepsType string `json:"stepsType"`
	Author    string `json:"author"`
	Name      string `json:"name"` // difficulty class, e.g. Challenge
	Meter     int    `json:"meter"`
	Radar     string `json:"radar,omitempty"`

	// Lanes is the row width. Zero means derive it from StepsType.
	Lanes int `json:"lanes"`
	// Measures is how many measures were decoded, including empty ones
	Measures int `json:"measures"`

	Notes []Note `json:"notes"`
}

// LaneCount returns the row width used when encoding this difficulty
func (d *Difficulty) LaneCount() int {
	if d.Lanes > 0 {
		return d.Lanes
	}
	if lanes, ok := stepsTypeLanes[strings.ToLower(d.StepsType)]; ok {
		return lanes
	}
	return defaultLanes
}

// Counts tallies the notes of the difficulty by kind
func (d *Difficulty) Counts() map[NoteKind]int {
	counts := make(map[NoteKind]int)
	for _, note := range d.Notes {
		counts[note.Kind]++
	}
	return counts
}

func (d *Difficulty) String() string {
	return fmt.Sprintf("Difficulty: %s (%s %d) by %s. %d notes.", d.Name, d.StepsType, d.Meter, d.Author, len(d.Notes))
}
