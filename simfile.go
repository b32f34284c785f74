package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// SimFile is a parsed StepMania .sm file
type SimFile struct {
	Metadata     Metadata      `json:"metadata"`
	TimingPoints []TimingPoint `json:"timingPoints"`
	Difficulties []*Difficulty `json:"difficulties"`
	// Warnings lists lines that were skipped while parsing, such as
	// metadata keys this reader doesn't support
	Warnings []string `json:"warnings,omitempty"`
	Filename string   `json:"filename,omitempty"`
}

type Metadata struct {
	Title            string  `json:"title,omitempty"`
	TitleTranslit    string  `json:"titleTranslit,omitempty"`
	Subtitle         string  `json:"subtitle,omitempty"`
	SubtitleTranslit string  `json:"subtitleTranslit,omitempty"`
	Artist           string  `json:"artist,omitempty"`
	ArtistTranslit   string  `json:"artistTranslit,omitempty"`
	Genre            string  `json:"genre,omitempty"`
	Credit           string  `json:"credit,omitempty"`
	Banner           string  `json:"banner,omitempty"`
	Background       string  `json:"background,omitempty"`
	Music            string  `json:"music,omitempty"`
	Offset           float64 `json:"offset"`
	SampleStart      float64 `json:"sampleStart"`
	SampleLength     float64 `json:"sampleLength"`
}

func OpenSimFile(filename string) (*SimFile, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("error opening simfile: %w", err)
	}
	defer file.Close()

	sf, err := ParseSimFile(file)
	if err != nil {
		return nil, fmt.Errorf("error parsing simfile: %w", err)
	}

	sf.Filename = filename
	return sf, nil
}

// ParseSimFile reads a whole simfile. Metadata and tempo are read first, up
// to the first comment line or #NOTES marker, then every difficulty block.
func ParseSimFile(reader io.Reader) (*SimFile, error) {
	lines, err := readLines(reader)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, errors.New("simfile is empty")
	}

	sf := &SimFile{}

	next, err := sf.parseMetadata(lines)
	if err != nil {
		return nil, err
	}

	p := &difficultyParser{sf: sf}
	for i := next; i < len(lines); i++ {
		if err := p.feed(lines[i], i+1); err != nil {
			return nil, fmt.Errorf("error parsing line %d: %w", i+1, err)
		}
	}
	if err := p.finish(len(lines)); err != nil {
		return nil, err
	}

	return sf, nil
}

func readLines(reader io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []string
	for scanner.Scan() {
		line := scanner.Text()
		if len(lines) == 0 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		lines = append(lines, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading simfile: %w", err)
	}
	return lines, nil
}

func (sf *SimFile) warnf(format string, args ...any) {
	sf.Warnings = append(sf.Warnings, fmt.Sprintf(format, args...))
}

// parseMetadata reads #KEY:value; fields and returns the index of the first
// line belonging to the notes section. A field can span lines until its ';'.
func (sf *SimFile) parseMetadata(lines []string) (int, error) {
	var field []string
	fieldLine := 0

	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if field != nil {
			if !strings.HasPrefix(line, "#") && !strings.HasPrefix(line, "//") {
				field = append(field, line)
				if strings.Contains(line, ";") {
					if err := sf.applyField(strings.Join(field, "\n"), fieldLine); err != nil {
						return 0, err
					}
					field = nil
				}
				continue
			}

			// the field ended without its ';'
			if err := sf.applyUnterminated(strings.Join(field, "\n"), fieldLine); err != nil {
				return 0, err
			}
			field = nil
		}

		if strings.HasPrefix(line, "//") {
			return i + 1, nil
		}

		if strings.HasPrefix(strings.ToUpper(line), "#NOTES") {
			return i, nil
		}

		if !strings.HasPrefix(line, "#") {
			sf.warnf("line %d: unexpected line in metadata: %s", i+1, line)
			continue
		}

		if strings.Contains(line, ";") {
			if err := sf.applyField(line, i+1); err != nil {
				return 0, err
			}
			continue
		}

		field = []string{line}
		fieldLine = i + 1
	}

	if field != nil {
		if err := sf.applyUnterminated(strings.Join(field, "\n"), fieldLine); err != nil {
			return 0, err
		}
	}

	return len(lines), nil
}

// splitField splits "#KEY:value;" into its key and value
func splitField(text string, lineNo int) (string, string, error) {
	body := strings.TrimPrefix(text, "#")
	if semi := strings.LastIndex(body, ";"); semi >= 0 {
		body = body[:semi]
	}

	colon := strings.Index(body, ":")
	if colon < 0 {
		return "", "", fmt.Errorf("line %d: missing ':' in %q: %w", lineNo, text, ErrMalformedField)
	}

	key := strings.ToUpper(strings.TrimSpace(body[:colon]))
	value := strings.TrimSpace(body[colon+1:])
	return key, value, nil
}

// applyUnterminated handles a field that ran into the next field without a
// ';'. Tempo lists are commonly written that way, anything else is an error.
func (sf *SimFile) applyUnterminated(text string, lineNo int) error {
	key, _, err := splitField(text, lineNo)
	if err != nil {
		return err
	}
	if key != "BPMS" {
		return fmt.Errorf("line %d: field #%s is missing ';': %w", lineNo, key, ErrMalformedField)
	}
	return sf.applyField(text, lineNo)
}

func (sf *SimFile) applyField(text string, lineNo int) error {
	key, value, err := splitField(text, lineNo)
	if err != nil {
		return err
	}

	md := &sf.Metadata
	switch key {
	case "TITLE":
		md.Title = value
	case "TITLETRANSLIT":
		md.TitleTranslit = value
	case "SUBTITLE":
		md.Subtitle = value
	case "SUBTITLETRANSLIT":
		md.SubtitleTranslit = value
	case "ARTIST":
		md.Artist = value
	case "ARTISTTRANSLIT":
		md.ArtistTranslit = value
	case "GENRE":
		md.Genre = value
	case "CREDIT":
		md.Credit = value
	case "BANNER":
		md.Banner = value
	case "BACKGROUND":
		md.Background = value
	case "MUSIC":
		md.Music = value
	case "OFFSET":
		if md.Offset, err = parseDecimal(key, value, lineNo); err != nil {
			return err
		}
	case "SAMPLESTART":
		if value != "" {
			if md.SampleStart, err = parseDecimal(key, value, lineNo); err != nil {
				return err
			}
		}
	case "SAMPLELENGTH":
		if value != "" {
			if md.SampleLength, err = parseDecimal(key, value, lineNo); err != nil {
				return err
			}
		}
	case "BPMS":
		points, err := parseTimingPoints(value, lineNo)
		if err != nil {
			return err
		}
		sf.TimingPoints = points
	default:
		sf.warnf("line %d: #%s is not supported", lineNo, key)
	}

	return nil
}

// parseDecimal parses a number with '.' as the decimal separator regardless
// of locale
func parseDecimal(key, value string, lineNo int) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, fmt.Errorf("line %d: invalid #%s value %q: %w", lineNo, key, value, errors.Join(ErrMalformedField, err))
	}
	return v, nil
}

// parseTimingPoints parses "beat=bpm,beat=bpm" lists. Entries may also be
// separated by line breaks.
func parseTimingPoints(value string, lineNo int) ([]TimingPoint, error) {
	entries := strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == '\n'
	})

	points := make([]TimingPoint, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("line %d: tempo %q is missing '=': %w", lineNo, entry, ErrMalformedField)
		}

		beat, err := parseDecimal("BPMS", parts[0], lineNo)
		if err != nil {
			return nil, err
		}
		bpm, err := parseDecimal("BPMS", parts[1], lineNo)
		if err != nil {
			return nil, err
		}

		points = append(points, TimingPoint{StartBeat: beat, BPM: bpm})
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].StartBeat < points[j].StartBeat
	})

	return points, nil
}

type parseState int

const (
	seekingNotes parseState = iota
	readingFields
	readingMeasures
)

// number of colon terminated fields after #NOTES:
const notesFieldCount = 5

// difficultyParser reads #NOTES blocks: the header fields first, then
// measure rows until the closing ';'
type difficultyParser struct {
	sf      *SimFile
	state   parseState
	diff    *Difficulty
	decoder *measureDecoder
	fields  []string
	partial strings.Builder
}

func (p *difficultyParser) feed(raw string, lineNo int) error {
	line := raw
	if idx := strings.Index(line, "//"); idx >= 0 {
		line = line[:idx]
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	if strings.HasPrefix(strings.ToUpper(line), "#NOTES") {
		if p.state != seekingNotes {
			p.sf.warnf("line %d: #NOTES before the previous difficulty was closed with ';'", lineNo)
			if err := p.closeDifficulty(); err != nil {
				return err
			}
		}
		return p.startDifficulty(line[len("#NOTES"):])
	}

	switch p.state {
	case readingFields:
		return p.readFields(line)
	case readingMeasures:
		return p.readMeasureLine(line)
	default:
		p.sf.warnf("line %d: unexpected line outside of #NOTES: %s", lineNo, line)
		return nil
	}
}

func (p *difficultyParser) startDifficulty(rest string) error {
	rest = strings.TrimSpace(rest)
	if !strings.HasPrefix(rest, ":") {
		return fmt.Errorf("#NOTES must be followed by ':': %w", ErrMalformedField)
	}

	p.diff = &Difficulty{}
	p.decoder = newMeasureDecoder(p.diff)
	p.fields = p.fields[:0]
	p.partial.Reset()
	p.state = readingFields

	rest = strings.TrimSpace(rest[1:])
	if rest == "" {
		return nil
	}
	return p.readFields(rest)
}

// readFields collects the colon terminated header fields. Anything left on
// the line after the last field is measure data.
func (p *difficultyParser) readFields(line string) error {
	for len(p.fields) < notesFieldCount {
		colon := strings.Index(line, ":")
		if colon < 0 {
			p.partial.WriteString(line)
			return nil
		}

		p.partial.WriteString(line[:colon])
		p.fields = append(p.fields, strings.TrimSpace(p.partial.String()))
		p.partial.Reset()
		line = line[colon+1:]
	}

	if err := p.applyFields(); err != nil {
		return err
	}
	p.state = readingMeasures

	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	return p.readMeasureLine(line)
}

func (p *difficultyParser) applyFields() error {
	p.diff.StepsType = p.fields[0]
	p.diff.Author = p.fields[1]
	p.diff.Name = p.fields[2]
	p.diff.Radar = p.fields[4]

	if p.fields[3] != "" {
		meter, err := strconv.Atoi(p.fields[3])
		if err != nil {
			return fmt.Errorf("invalid meter %q: %w", p.fields[3], errors.Join(ErrMalformedField, err))
		}
		p.diff.Meter = meter
	}
	return nil
}

// readMeasureLine handles a row, a ',' measure separator or the ';' that
// ends the difficulty. The separator may trail a row on the same line.
func (p *difficultyParser) readMeasureLine(line string) error {
	row := line
	var terminator byte
	if last := line[len(line)-1]; last == ',' || last == ';' {
		terminator = last
		row = strings.TrimSpace(line[:len(line)-1])
	}

	if row != "" {
		p.decoder.addLine(row)
	}

	switch terminator {
	case ',':
		return p.decoder.flush()
	case ';':
		return p.closeDifficulty()
	}
	return nil
}

func (p *difficultyParser) closeDifficulty() error {
	if p.state == readingFields {
		return fmt.Errorf("#NOTES has %d of %d fields: %w", len(p.fields), notesFieldCount, ErrMalformedField)
	}

	if p.decoder.pending() {
		if err := p.decoder.flush(); err != nil {
			return err
		}
	}

	p.sf.Difficulties = append(p.sf.Difficulties, p.diff)
	p.diff = nil
	p.decoder = nil
	p.state = seekingNotes
	return nil
}

func (p *difficultyParser) finish(lastLine int) error {
	if p.state == seekingNotes {
		return nil
	}
	if p.state == readingMeasures {
		p.sf.warnf("line %d: difficulty %q not closed with ';'", lastLine, p.diff.Name)
	}
	return p.closeDifficulty()
}

// Difficulty finds a difficulty by name, case insensitive. An empty name
// returns the first difficulty.
func (sf *SimFile) Difficulty(name string) (*Difficulty, bool) {
	for _, diff := range sf.Difficulties {
		if name == "" || strings.EqualFold(diff.Name, name) {
			return diff, true
		}
	}
	return nil, false
}

func (sf *SimFile) displayTitle() string {
	if sf.Metadata.TitleTranslit != "" {
		return sf.Metadata.TitleTranslit
	}
	return sf.Metadata.Title
}

func (sf *SimFile) displayArtist() string {
	if sf.Metadata.ArtistTranslit != "" {
		return sf.Metadata.ArtistTranslit
	}
	return sf.Metadata.Artist
}

func (sf *SimFile) String() string {
	var sb strings.Builder

	if sf.Filename != "" {
		sb.WriteString(fmt.Sprintf("Simfile: %s\n", sf.Filename))
	}
	sb.WriteString(fmt.Sprintf("Song: %s by %s\n", sf.displayTitle(), sf.displayArtist()))
	if sf.Metadata.Subtitle != "" {
		sb.WriteString(fmt.Sprintf("Subtitle: %s\n", sf.Metadata.Subtitle))
	}
	if sf.Metadata.Genre != "" {
		sb.WriteString(fmt.Sprintf("Genre: %s\n", sf.Metadata.Genre))
	}
	sb.WriteString(fmt.Sprintf("Offset: %s\n", formatDecimal(sf.Metadata.Offset)))
	sb.WriteString(fmt.Sprintf("Timing Points: %d\n", len(sf.TimingPoints)))
	sb.WriteString(fmt.Sprintf("Difficulties: %d\n", len(sf.Difficulties)))
	for _, diff := range sf.Difficulties {
		sb.WriteString(fmt.Sprintf("  %s\n", diff))
	}

	return sb.String()
}
