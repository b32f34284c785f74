package main

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// WriteTo serializes the simfile. The whole file is rendered before anything
// is written, so an encoding error leaves w untouched.
func (sf *SimFile) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	if err := sf.render(&buf); err != nil {
		return 0, err
	}
	return buf.WriteTo(w)
}

// SaveSimFile writes the simfile to filename, replacing it
func (sf *SimFile) SaveSimFile(filename string) error {
	var buf bytes.Buffer
	if err := sf.render(&buf); err != nil {
		return fmt.Errorf("error encoding simfile: %w", err)
	}

	if err := os.WriteFile(filename, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("error writing simfile: %w", err)
	}
	return nil
}

func (sf *SimFile) render(buf *bytes.Buffer) error {
	w := bufio.NewWriter(buf)
	md := sf.Metadata

	writeField(w, "TITLE", md.Title)
	writeField(w, "SUBTITLE", md.Subtitle)
	writeField(w, "ARTIST", md.Artist)
	writeField(w, "TITLETRANSLIT", md.TitleTranslit)
	writeField(w, "SUBTITLETRANSLIT", md.SubtitleTranslit)
	writeField(w, "ARTISTTRANSLIT", md.ArtistTranslit)
	writeField(w, "GENRE", md.Genre)
	writeField(w, "CREDIT", md.Credit)
	writeField(w, "BANNER", md.Banner)
	writeField(w, "BACKGROUND", md.Background)
	writeField(w, "MUSIC", md.Music)
	writeField(w, "OFFSET", formatDecimal(md.Offset))
	writeField(w, "SAMPLESTART", formatDecimal(md.SampleStart))
	writeField(w, "SAMPLELENGTH", formatDecimal(md.SampleLength))
	writeField(w, "BPMS", formatTimingPoints(sf.TimingPoints))

	for i, diff := range sf.Difficulties {
		if err := writeDifficulty(w, diff); err != nil {
			return fmt.Errorf("difficulty %d (%s): %w", i, diff.Name, err)
		}
	}

	return w.Flush()
}

func writeField(w *bufio.Writer, key, value string) {
	fmt.Fprintf(w, "#%s:%s;\n", key, value)
}

func writeDifficulty(w *bufio.Writer, diff *Difficulty) error {
	measures, err := encodeDifficulty(diff)
	if err != nil {
		return err
	}

	stepsType := diff.StepsType
	if stepsType == "" {
		stepsType = "dance-single"
	}

	fmt.Fprintf(w, "\n//---------------%s - %s----------------\n", stepsType, diff.Author)
	w.WriteString("#NOTES:\n")
	fmt.Fprintf(w, "     %s:\n", stepsType)
	fmt.Fprintf(w, "     %s:\n", diff.Author)
	fmt.Fprintf(w, "     %s:\n", diff.Name)
	fmt.Fprintf(w, "     %d:\n", diff.Meter)
	fmt.Fprintf(w, "     %s:\n", diff.Radar)

	for i, lines := range measures {
		if i > 0 {
			w.WriteString(",\n")
		}
		for _, line := range lines {
			w.WriteString(line)
			w.WriteByte('\n')
		}
	}
	w.WriteString(";\n")

	return nil
}

// formatDecimal writes v with at least three decimals, more if needed to
// keep it exact
func formatDecimal(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	dot := strings.IndexByte(s, '.')
	if dot < 0 {
		return s + ".000"
	}
	if decimals := len(s) - dot - 1; decimals < 3 {
		s += strings.Repeat("0", 3-decimals)
	}
	return s
}

func formatTimingPoints(points []TimingPoint) string {
	pairs := make([]string, 0, len(points))
	for _, tp := range points {
		pairs = append(pairs, formatDecimal(tp.StartBeat)+"="+formatDecimal(tp.BPM))
	}
	return strings.Join(pairs, ",")
}
