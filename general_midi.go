package main

// General MIDI percussion keys used to voice lanes
// Reference: https://computermusicresource.com/GM.Percussion.KeyMap.html
const (
	BassDrum1     uint8 = 36 // C1
	AcousticSnare uint8 = 38 // D1
	ClosedHiHat   uint8 = 42 // F#1
	LowTom        uint8 = 45 // A1
	OpenHiHat     uint8 = 46 // Bb1
	HiMidTom      uint8 = 48 // C2
	CrashCymbal1  uint8 = 49 // C#2
	HighTom       uint8 = 50 // D2
	RideCymbal1   uint8 = 51 // Eb2
	Cowbell       uint8 = 56 // Ab2
)

type laneVoice struct {
	Key  uint8
	Name string
}

// The first four follow a dance pad: left, down, up, right. Doubles reuse
// the table from lane 4 on, wider layouts wrap around.
var laneVoices = []laneVoice{
	{BassDrum1, "Bass Drum 1"},
	{AcousticSnare, "Acoustic Snare"},
	{ClosedHiHat, "Closed Hi Hat"},
	{CrashCymbal1, "Crash Cymbal 1"},
	{LowTom, "Low Tom"},
	{HiMidTom, "Hi Mid Tom"},
	{HighTom, "High Tom"},
	{RideCymbal1, "Ride Cymbal 1"},
	{OpenHiHat, "Open Hi-Hat"},
	{Cowbell, "Cowbell"},
}

func voiceForLane(lane int) laneVoice {
	if lane < 0 {
		lane = -lane
	}
	return laneVoices[lane%len(laneVoices)]
}
