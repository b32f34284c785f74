package main

import (
	"fmt"
	"io"
	"log"
	"sort"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

const gmDrumChannel uint8 = 9 // default percussion channel in GM

// one tick per row, so the MIDI grid is exactly the simfile grid
const ticksPerQuarter = RowsPerBeat

const hitDurationTicks uint32 = ticksPerQuarter / 4 // a 16th note
const hitVelocity uint8 = 100

// MidiEvent represents a MIDI event with absolute timing
type MidiEvent struct {
	Time    uint32
	Message smf.Message
}

// TrackInfo contains information needed to create a MIDI track
type TrackInfo struct {
	Name   string
	Events []MidiEvent
}

// GeneralMidiExporter builds a General MIDI preview of simfile difficulties,
// one percussion track per difficulty
type GeneralMidiExporter struct {
	smf    *smf.SMF
	tracks []TrackInfo
	tempo  bool
}

func NewGeneralMidiExporter() *GeneralMidiExporter {
	s := smf.NewSMF1()
	s.TimeFormat = smf.MetricTicks(ticksPerQuarter)
	return &GeneralMidiExporter{smf: s}
}

// SetupTimingTrack writes the simfile's tempo changes as the conductor track
func (e *GeneralMidiExporter) SetupTimingTrack(sf *SimFile) error {
	if sf == nil {
		return fmt.Errorf("simfile is nil")
	}

	var events []MidiEvent
	events = append(events, MidiEvent{Time: 0, Message: smf.Message(smf.MetaTrackSequenceName("Tempo"))})
	events = append(events, MidiEvent{Time: 0, Message: smf.Message(smf.MetaTimeSig(BeatsPerMeasure, 4, 24, 8))})

	for _, tp := range sf.TimingPoints {
		if tp.BPM <= 0 {
			log.Printf("Warning: skipping tempo %g at beat %g, MIDI can't express it", tp.BPM, tp.StartBeat)
			continue
		}
		tick, err := tickOfBeat(tp.StartBeat)
		if err != nil {
			return fmt.Errorf("tempo change: %w", err)
		}
		events = append(events, MidiEvent{Time: tick, Message: smf.Message(smf.MetaTempo(tp.BPM))})
	}

	if len(sf.TimingPoints) == 0 {
		log.Println("Warning: No tempo events found, using default 120 BPM")
		events = append(events, MidiEvent{Time: 0, Message: smf.Message(smf.MetaTempo(defaultBPM))})
	}

	e.smf.Add(buildTrack(events))
	e.tempo = true
	return nil
}

// AddDifficultyTrack voices every note of diff on the percussion channel.
// Taps are short hits, holds sound from head to tail, mines and fakes are
// left out since a player never hits them.
func (e *GeneralMidiExporter) AddDifficultyTrack(diff *Difficulty) error {
	if diff == nil {
		return fmt.Errorf("difficulty is nil")
	}
	if len(diff.Notes) == 0 {
		return ErrEmptyDifficulty
	}

	notes := make([]Note, len(diff.Notes))
	copy(notes, diff.Notes)
	sort.SliceStable(notes, func(i, j int) bool {
		return notes[i].Beat < notes[j].Beat
	})

	var events []MidiEvent
	openHolds := make(map[int]uint32)
	skipped := 0

	for _, note := range notes {
		tick, err := tickOfBeat(note.Beat)
		if err != nil {
			return err
		}
		key := voiceForLane(note.Lane).Key

		switch note.Kind {
		case Tap:
			events = append(events,
				MidiEvent{Time: tick, Message: smf.Message(midi.NoteOn(gmDrumChannel, key, hitVelocity))},
				MidiEvent{Time: tick + hitDurationTicks, Message: smf.Message(midi.NoteOff(gmDrumChannel, key))},
			)
		case HoldHead:
			events = append(events, MidiEvent{Time: tick, Message: smf.Message(midi.NoteOn(gmDrumChannel, key, hitVelocity))})
			openHolds[note.Lane] = tick
		case HoldTail:
			if _, open := openHolds[note.Lane]; !open {
				log.Printf("Warning: hold tail at beat %g on lane %d has no head", note.Beat, note.Lane)
				continue
			}
			events = append(events, MidiEvent{Time: tick, Message: smf.Message(midi.NoteOff(gmDrumChannel, key))})
			delete(openHolds, note.Lane)
		default:
			skipped++
		}
	}

	for lane, start := range openHolds {
		log.Printf("Warning: hold on lane %d starting at tick %d never ends", lane, start)
		key := voiceForLane(lane).Key
		events = append(events, MidiEvent{Time: start + hitDurationTicks, Message: smf.Message(midi.NoteOff(gmDrumChannel, key))})
	}

	if len(events) == 0 {
		return fmt.Errorf("no playable notes in %s", diff.Name)
	}

	if skipped > 0 {
		log.Printf("Skipped %d mines and fakes in %s", skipped, diff.Name)
	}

	name := diff.Name
	if name == "" {
		name = diff.StepsType
	}
	e.tracks = append(e.tracks, TrackInfo{Name: name, Events: events})
	return nil
}

// WriteTo finalizes the MIDI file and writes it to the provided writer
func (e *GeneralMidiExporter) WriteTo(writer io.Writer) (int64, error) {
	if len(e.tracks) == 0 {
		return 0, fmt.Errorf("no tracks to export")
	}
	if !e.tempo {
		return 0, fmt.Errorf("timing track not set up")
	}

	for _, info := range e.tracks {
		events := append([]MidiEvent{{Time: 0, Message: smf.Message(smf.MetaTrackSequenceName(info.Name))}}, info.Events...)
		e.smf.Add(buildTrack(events))
	}
	e.tracks = nil

	n, err := e.smf.WriteTo(writer)
	if err != nil {
		return n, fmt.Errorf("error writing MIDI file: %w", err)
	}

	return n, nil
}

// ExportDifficultyToMidi renders one difficulty of sf as a MIDI file
func ExportDifficultyToMidi(w io.Writer, sf *SimFile, diff *Difficulty) error {
	exporter := NewGeneralMidiExporter()
	if err := exporter.SetupTimingTrack(sf); err != nil {
		return err
	}
	if err := exporter.AddDifficultyTrack(diff); err != nil {
		return err
	}
	_, err := exporter.WriteTo(w)
	return err
}

func tickOfBeat(beat float64) (uint32, error) {
	row, ok := RowOfBeat(beat)
	if !ok || row < 0 {
		return 0, fmt.Errorf("beat %g: %w", beat, ErrUnrepresentableBeat)
	}
	return uint32(row), nil
}

// buildTrack orders events by time and converts them to delta times.
// At equal times note-offs go first so a retriggered key isn't cut short.
func buildTrack(events []MidiEvent) smf.Track {
	sorted := make([]MidiEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Time != sorted[j].Time {
			return sorted[i].Time < sorted[j].Time
		}
		var ch, key, vel uint8
		return sorted[i].Message.GetNoteOff(&ch, &key, &vel) && !sorted[j].Message.GetNoteOff(&ch, &key, &vel)
	})

	track := smf.Track{}
	var lastTime uint32
	for _, event := range sorted {
		track = append(track, smf.Event{Delta: event.Time - lastTime, Message: event.Message})
		lastTime = event.Time
	}

	track = append(track, smf.Event{Delta: 0, Message: smf.EOT})
	return track
}
