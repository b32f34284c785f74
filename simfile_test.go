package main

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

// Test constants with sample simfile data
const validSimFileData = `#TITLE:Test Song;
#SUBTITLE:Extended Mix;
#ARTIST:Test Artist;
#TITLETRANSLIT:;
#SUBTITLETRANSLIT:;
#ARTISTTRANSLIT:;
#GENRE:Trance;
#CREDIT:Tester;
#BANNER:bn.png;
#BACKGROUND:bg.png;
#CDTITLE:cd.png;
#MUSIC:song.ogg;
#OFFSET:-0.009;
#SAMPLESTART:30.500;
#SAMPLELENGTH:12.000;
#SELECTABLE:YES;
#BPMS:0.000=120.000
,8.000=240.000;
#STOPS:;

//---------------dance-single - Tester----------------
#NOTES:
     dance-single:
     Tester:
     Challenge:
     10:
     0.1,0.2,0.3,0.4,0.5:
1000
0000
0010
0000
,  // measure 2
1000
0100
0010
0001
0000
0000
0000
0000
,
2000
0000
3000
0000
;
//---------------dance-single - Tester----------------
#NOTES:
     dance-single:
     Tester:
     Easy:
     3:
     0,0,0,0,0:
M000
0000
0000
000F
;
`

const minimalSimFileData = `#TITLE:Minimal;
#OFFSET:0;
#BPMS:0=150;
#NOTES:
     dance-double:
     :
     Hard:
     7:
     :
10000001
00000000
;
`

const simFileWithBOM = "\ufeff#TITLE:BOM Song;\n#BPMS:0=120;\n//\n#NOTES:dance-single:me:Beginner:1::\n1000\n;\n"

const doubleMeasureSeparatorData = `#TITLE:Gaps;
#BPMS:0=120;
//
#NOTES:
     dance-single:
     :
     Medium:
     5:
     :
1000
,
,
0100
;
`

func TestParseValidSimFile(t *testing.T) {
	sf, err := ParseSimFile(strings.NewReader(validSimFileData))
	if err != nil {
		t.Fatalf("Failed to parse valid simfile: %v", err)
	}

	md := sf.Metadata
	if md.Title != "Test Song" {
		t.Errorf("Expected Title 'Test Song', got '%s'", md.Title)
	}
	if md.Subtitle != "Extended Mix" {
		t.Errorf("Expected Subtitle 'Extended Mix', got '%s'", md.Subtitle)
	}
	if md.Artist != "Test Artist" {
		t.Errorf("Expected Artist 'Test Artist', got '%s'", md.Artist)
	}
	if md.Genre != "Trance" {
		t.Errorf("Expected Genre 'Trance', got '%s'", md.Genre)
	}
	if md.Music != "song.ogg" {
		t.Errorf("Expected Music 'song.ogg', got '%s'", md.Music)
	}
	if md.Offset != -0.009 {
		t.Errorf("Expected Offset -0.009, got %v", md.Offset)
	}
	if md.SampleStart != 30.5 {
		t.Errorf("Expected SampleStart 30.5, got %v", md.SampleStart)
	}
	if md.SampleLength != 12 {
		t.Errorf("Expected SampleLength 12, got %v", md.SampleLength)
	}
}

func TestParseMultiLineBPMs(t *testing.T) {
	sf, err := ParseSimFile(strings.NewReader(validSimFileData))
	if err != nil {
		t.Fatalf("Failed to parse simfile: %v", err)
	}

	expected := []TimingPoint{{StartBeat: 0, BPM: 120}, {StartBeat: 8, BPM: 240}}
	if !reflect.DeepEqual(sf.TimingPoints, expected) {
		t.Errorf("Expected timing points %v, got %v", expected, sf.TimingPoints)
	}
}

func TestParseUnsupportedKeysAreWarnings(t *testing.T) {
	sf, err := ParseSimFile(strings.NewReader(validSimFileData))
	if err != nil {
		t.Fatalf("Failed to parse simfile: %v", err)
	}

	if len(sf.Warnings) != 3 {
		t.Fatalf("Expected 3 warnings, got %d: %v", len(sf.Warnings), sf.Warnings)
	}
	for i, key := range []string{"CDTITLE", "SELECTABLE", "STOPS"} {
		if !strings.Contains(sf.Warnings[i], "#"+key) {
			t.Errorf("Expected warning %d to mention #%s, got %q", i, key, sf.Warnings[i])
		}
	}
}

func TestParseDifficulties(t *testing.T) {
	sf, err := ParseSimFile(strings.NewReader(validSimFileData))
	if err != nil {
		t.Fatalf("Failed to parse simfile: %v", err)
	}

	if len(sf.Difficulties) != 2 {
		t.Fatalf("Expected 2 difficulties, got %d", len(sf.Difficulties))
	}

	challenge := sf.Difficulties[0]
	if challenge.StepsType != "dance-single" {
		t.Errorf("Expected StepsType 'dance-single', got '%s'", challenge.StepsType)
	}
	if challenge.Author != "Tester" {
		t.Errorf("Expected Author 'Tester', got '%s'", challenge.Author)
	}
	if challenge.Name != "Challenge" {
		t.Errorf("Expected Name 'Challenge', got '%s'", challenge.Name)
	}
	if challenge.Meter != 10 {
		t.Errorf("Expected Meter 10, got %d", challenge.Meter)
	}
	if challenge.Radar != "0.1,0.2,0.3,0.4,0.5" {
		t.Errorf("Expected Radar '0.1,0.2,0.3,0.4,0.5', got '%s'", challenge.Radar)
	}
	if challenge.Measures != 3 {
		t.Errorf("Expected 3 measures, got %d", challenge.Measures)
	}
	if challenge.Lanes != 4 {
		t.Errorf("Expected 4 lanes, got %d", challenge.Lanes)
	}

	expected := []Note{
		{Beat: 0, Lane: 0, Kind: Tap},
		{Beat: 2, Lane: 2, Kind: Tap},
		{Beat: 4, Lane: 0, Kind: Tap},
		{Beat: 4.5, Lane: 1, Kind: Tap},
		{Beat: 5, Lane: 2, Kind: Tap},
		{Beat: 5.5, Lane: 3, Kind: Tap},
		{Beat: 8, Lane: 0, Kind: HoldHead},
		{Beat: 10, Lane: 0, Kind: HoldTail},
	}
	if !reflect.DeepEqual(challenge.Notes, expected) {
		t.Errorf("Expected notes %v, got %v", expected, challenge.Notes)
	}

	easy := sf.Difficulties[1]
	if easy.Name != "Easy" || easy.Meter != 3 {
		t.Errorf("Expected Easy 3, got %s %d", easy.Name, easy.Meter)
	}
	expectedEasy := []Note{
		{Beat: 0, Lane: 0, Kind: Mine},
		{Beat: 3, Lane: 3, Kind: Fake},
	}
	if !reflect.DeepEqual(easy.Notes, expectedEasy) {
		t.Errorf("Expected notes %v, got %v", expectedEasy, easy.Notes)
	}
}

func TestParseNotesWithoutCommentLine(t *testing.T) {
	sf, err := ParseSimFile(strings.NewReader(minimalSimFileData))
	if err != nil {
		t.Fatalf("Failed to parse minimal simfile: %v", err)
	}

	if len(sf.Difficulties) != 1 {
		t.Fatalf("Expected 1 difficulty, got %d", len(sf.Difficulties))
	}

	diff := sf.Difficulties[0]
	if diff.Author != "" {
		t.Errorf("Expected empty Author, got '%s'", diff.Author)
	}
	if diff.Lanes != 8 || diff.LaneCount() != 8 {
		t.Errorf("Expected 8 lanes, got %d", diff.Lanes)
	}
	if len(diff.Notes) != 2 || diff.Notes[1].Lane != 7 {
		t.Errorf("Expected notes on lanes 0 and 7, got %v", diff.Notes)
	}
}

func TestParseBOMSimFile(t *testing.T) {
	sf, err := ParseSimFile(strings.NewReader(simFileWithBOM))
	if err != nil {
		t.Fatalf("Failed to parse simfile with BOM: %v", err)
	}

	if sf.Metadata.Title != "BOM Song" {
		t.Errorf("Expected Title 'BOM Song', got '%s'", sf.Metadata.Title)
	}
	if len(sf.Difficulties) != 1 || sf.Difficulties[0].Name != "Beginner" {
		t.Fatalf("Expected one Beginner difficulty from a single line #NOTES header, got %v", sf.Difficulties)
	}
	if len(sf.Difficulties[0].Notes) != 1 {
		t.Errorf("Expected 1 note, got %d", len(sf.Difficulties[0].Notes))
	}
}

func TestParseEmptyMeasuresAdvanceBeats(t *testing.T) {
	sf, err := ParseSimFile(strings.NewReader(doubleMeasureSeparatorData))
	if err != nil {
		t.Fatalf("Failed to parse simfile: %v", err)
	}

	diff := sf.Difficulties[0]
	if diff.Measures != 3 {
		t.Errorf("Expected 3 measures, got %d", diff.Measures)
	}
	if len(diff.Notes) != 2 || diff.Notes[1].Beat != 8 {
		t.Errorf("Expected the second note at beat 8, got %v", diff.Notes)
	}
}

func TestParseEmptySimFile(t *testing.T) {
	_, err := ParseSimFile(strings.NewReader(""))
	if err == nil {
		t.Error("Expected error for empty simfile, but parsing succeeded")
	}
}

func TestParseMalformedFields(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"offset not a number", "#OFFSET:abc;\n", ErrMalformedField},
		{"offset comma decimal", "#OFFSET:-0,009;\n", ErrMalformedField},
		{"missing colon", "#TITLE;\n", ErrMalformedField},
		{"title missing semicolon", "#TITLE:foo\n#ARTIST:bar;\n", ErrMalformedField},
		{"bpm missing equals", "#BPMS:0=120,4;\n", ErrMalformedField},
		{"bpm not a number", "#BPMS:0=fast;\n", ErrMalformedField},
		{"meter not a number", "#NOTES:\ndance-single:\n:\nHard:\nten:\n:\n1000\n;\n", ErrMalformedField},
		{"notes header cut short", "#NOTES:\ndance-single:\nme:\n", ErrMalformedField},
		{"five line measure", "#NOTES:\ndance-single:\n:\nHard:\n1:\n:\n1000\n0000\n0000\n0000\n0000\n;\n", ErrNonUniformMeasure},
		{"ragged measure", "#NOTES:\ndance-single:\n:\nHard:\n1:\n:\n1000\n000\n;\n", ErrNonUniformMeasure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSimFile(strings.NewReader(tt.data))
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestParseUnterminatedBPMsFollowedByField(t *testing.T) {
	data := "#BPMS:0=120\n,16=60\n#TITLE:After;\n"
	sf, err := ParseSimFile(strings.NewReader(data))
	if err != nil {
		t.Fatalf("Failed to parse simfile: %v", err)
	}

	if len(sf.TimingPoints) != 2 || sf.TimingPoints[1].BPM != 60 {
		t.Errorf("Expected two timing points, got %v", sf.TimingPoints)
	}
	if sf.Metadata.Title != "After" {
		t.Errorf("Expected Title 'After', got '%s'", sf.Metadata.Title)
	}
}

func TestParseUnclosedDifficultyWarns(t *testing.T) {
	data := "#TITLE:x;\n//\n#NOTES:\ndance-single:\n:\nHard:\n1:\n:\n1000\n0000\n"
	sf, err := ParseSimFile(strings.NewReader(data))
	if err != nil {
		t.Fatalf("Failed to parse simfile: %v", err)
	}

	if len(sf.Difficulties) != 1 || len(sf.Difficulties[0].Notes) != 1 {
		t.Fatalf("Expected the unclosed difficulty to be kept, got %v", sf.Difficulties)
	}
	if len(sf.Warnings) != 1 {
		t.Errorf("Expected 1 warning, got %v", sf.Warnings)
	}
}

func TestDifficultyLookup(t *testing.T) {
	sf, err := ParseSimFile(strings.NewReader(validSimFileData))
	if err != nil {
		t.Fatalf("Failed to parse simfile: %v", err)
	}

	if diff, ok := sf.Difficulty("easy"); !ok || diff.Meter != 3 {
		t.Errorf("Expected to find Easy by case insensitive name")
	}
	if diff, ok := sf.Difficulty(""); !ok || diff.Name != "Challenge" {
		t.Errorf("Expected the first difficulty for an empty name")
	}
	if _, ok := sf.Difficulty("Edit"); ok {
		t.Errorf("Expected no Edit difficulty")
	}
}

func TestSimFileString(t *testing.T) {
	sf, err := ParseSimFile(strings.NewReader(validSimFileData))
	if err != nil {
		t.Fatalf("Failed to parse simfile: %v", err)
	}

	out := sf.String()
	for _, want := range []string{
		"Song: Test Song by Test Artist",
		"Offset: -0.009",
		"Timing Points: 2",
		"Difficulties: 2",
		"Difficulty: Challenge (dance-single 10) by Tester. 8 notes.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected String() to contain %q, got:\n%s", want, out)
		}
	}
}
