package main

import (
	"fmt"
	"log"
	"math"
	"sort"

	"gitlab.com/gomidi/midi/v2/smf"
)

// ImportOptions picks the drum track to read and names the new difficulty
type ImportOptions struct {
	Track     string // track name, empty picks the first track with drum hits
	StepsType string
	Name      string // difficulty name, defaults to the track name
	Meter     int
}

// drumHit is a percussion note read from a MIDI track, in ticks
type drumHit struct {
	Start uint32
	End   uint32
	Key   uint8
}

// ImportMidiSimFile builds a one difficulty simfile from a General MIDI drum
// track. Keys map back to lanes through the same voices the exporter uses,
// and a hit longer than a 16th becomes a hold.
func ImportMidiSimFile(midiFile *smf.SMF, opts ImportOptions) (*SimFile, error) {
	tf, ok := midiFile.TimeFormat.(smf.MetricTicks)
	if !ok {
		return nil, fmt.Errorf("unsupported MIDI time format %v", midiFile.TimeFormat)
	}
	resolution := uint32(tf.Resolution())

	track, trackName, err := findDrumTrack(midiFile, opts.Track)
	if err != nil {
		return nil, err
	}

	diff := &Difficulty{
		StepsType: opts.StepsType,
		Name:      opts.Name,
		Meter:     opts.Meter,
	}
	if diff.StepsType == "" {
		diff.StepsType = "dance-single"
	}
	if diff.Name == "" {
		diff.Name = trackName
	}
	diff.Lanes = diff.LaneCount()

	laneOfKey := make(map[uint8]int)
	for lane := diff.Lanes - 1; lane >= 0; lane-- {
		laneOfKey[voiceForLane(lane).Key] = lane
	}

	quantized, unmapped, dropped := 0, 0, 0
	toRow := func(tick uint32) int {
		rows := float64(tick) * RowsPerBeat / float64(resolution)
		if rows != math.Round(rows) {
			quantized++
		}
		return int(math.Round(rows))
	}

	var hits []laneHit
	for _, hit := range extractDrumHits(track) {
		lane, ok := laneOfKey[hit.Key]
		if !ok {
			unmapped++
			continue
		}
		lh := laneHit{Lane: lane, Start: toRow(hit.Start)}
		if hit.End-hit.Start > resolution/4 {
			lh.Held = true
			lh.End = toRow(hit.End)
		}
		hits = append(hits, lh)
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Start < hits[j].Start
	})

	// a row holds at most one note per lane, and a hold ends before the
	// next hit on its lane
	taken := make(map[[2]int]bool)
	for i, hit := range hits {
		if taken[[2]int{hit.Start, hit.Lane}] {
			dropped++
			continue
		}
		taken[[2]int{hit.Start, hit.Lane}] = true

		end := hit.End
		if next, ok := nextStartOnLane(hits, i); ok && end >= next {
			end = next - 1
		}

		if hit.Held && end > hit.Start {
			diff.Notes = append(diff.Notes,
				Note{Beat: BeatOf(hit.Start), Lane: hit.Lane, Kind: HoldHead},
				Note{Beat: BeatOf(end), Lane: hit.Lane, Kind: HoldTail},
			)
		} else {
			diff.Notes = append(diff.Notes, Note{Beat: BeatOf(hit.Start), Lane: hit.Lane, Kind: Tap})
		}
	}

	if unmapped > 0 {
		log.Printf("Warning: skipped %d hits on keys with no lane in %s", unmapped, diff.StepsType)
	}
	if quantized > 0 {
		log.Printf("Warning: moved %d hits to the nearest 1/48 beat", quantized)
	}
	if dropped > 0 {
		log.Printf("Warning: dropped %d hits landing on a row and lane already taken", dropped)
	}
	if len(diff.Notes) == 0 {
		return nil, fmt.Errorf("track %q: %w", trackName, ErrEmptyDifficulty)
	}

	sort.SliceStable(diff.Notes, func(i, j int) bool {
		if diff.Notes[i].Beat != diff.Notes[j].Beat {
			return diff.Notes[i].Beat < diff.Notes[j].Beat
		}
		return diff.Notes[i].Lane < diff.Notes[j].Lane
	})
	diff.Measures = MeasureOfBeat(diff.Notes[len(diff.Notes)-1].Beat) + 1

	sf := &SimFile{
		Metadata:     Metadata{Title: trackName},
		TimingPoints: extractTimingPoints(midiFile, resolution),
		Difficulties: []*Difficulty{diff},
	}
	if len(sf.TimingPoints) == 0 {
		sf.TimingPoints = []TimingPoint{{StartBeat: 0, BPM: defaultBPM}}
	}
	return sf, nil
}

// laneHit is a drum hit placed on a lane, in rows
type laneHit struct {
	Lane  int
	Start int
	End   int
	Held  bool
}

// nextStartOnLane returns the first row after hits[i] where its lane is hit
// again. hits must be sorted by Start.
func nextStartOnLane(hits []laneHit, i int) (int, bool) {
	for _, next := range hits[i+1:] {
		if next.Lane == hits[i].Lane && next.Start > hits[i].Start {
			return next.Start, true
		}
	}
	return 0, false
}

func getTrackName(track smf.Track) string {
	for _, event := range track {
		var trackName string
		if event.Message.GetMetaTrackName(&trackName) {
			return trackName
		}
	}
	return ""
}

func hasDrumHits(track smf.Track) bool {
	for _, event := range track {
		var ch, key, vel uint8
		if event.Message.GetNoteOn(&ch, &key, &vel) && vel > 0 && ch == gmDrumChannel {
			return true
		}
	}
	return false
}

func findDrumTrack(midiFile *smf.SMF, name string) (smf.Track, string, error) {
	for _, track := range midiFile.Tracks {
		trackName := getTrackName(track)
		if name != "" && trackName == name {
			return track, trackName, nil
		}
		if name == "" && hasDrumHits(track) {
			return track, trackName, nil
		}
	}

	if name != "" {
		return nil, "", fmt.Errorf("no %q track found", name)
	}
	return nil, "", fmt.Errorf("no track with notes on the drum channel found")
}

// extractDrumHits pairs note ons with their note offs on the drum channel.
// A note on with velocity 0 counts as a note off.
func extractDrumHits(track smf.Track) []drumHit {
	var hits []drumHit
	open := make(map[uint8]int)
	var currentTime uint32

	for _, event := range track {
		currentTime += event.Delta
		msg := event.Message

		var ch, key, vel uint8
		if msg.GetNoteOn(&ch, &key, &vel) && vel > 0 {
			if ch != gmDrumChannel {
				continue
			}
			if i, ok := open[key]; ok {
				hits[i].End = currentTime
			}
			open[key] = len(hits)
			hits = append(hits, drumHit{Start: currentTime, End: currentTime, Key: key})
		} else if msg.GetNoteOff(&ch, &key, &vel) || (msg.GetNoteOn(&ch, &key, &vel) && vel == 0) {
			if ch != gmDrumChannel {
				continue
			}
			if i, ok := open[key]; ok {
				hits[i].End = currentTime
				delete(open, key)
			}
		}
	}

	return hits
}

// extractTimingPoints reads every tempo change of the file as beats
func extractTimingPoints(midiFile *smf.SMF, resolution uint32) []TimingPoint {
	var points []TimingPoint
	for _, track := range midiFile.Tracks {
		var currentTime uint32
		for _, event := range track {
			currentTime += event.Delta
			var bpm float64
			if event.Message.GetMetaTempo(&bpm) {
				points = append(points, TimingPoint{
					StartBeat: float64(currentTime) / float64(resolution),
					BPM:       bpm,
				})
			}
		}
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].StartBeat < points[j].StartBeat
	})
	return points
}
