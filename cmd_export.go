package main

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var (
	exportDifficulty string
	exportOutput     string
)

func init() {
	exportMidiCmd.Flags().StringVarP(&exportDifficulty, "difficulty", "d", "", "Difficulty name (defaults to the first one)")
	exportMidiCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output path (defaults to <file>.<difficulty>.mid)")
	rootCmd.AddCommand(exportMidiCmd)
}

var exportMidiCmd = &cobra.Command{
	Use:   "export-midi <file>",
	Short: "Export a difficulty as a General MIDI drum preview",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sf, err := loadSimFile(args[0])
		if err != nil {
			return err
		}

		diff, err := findDifficulty(sf, exportDifficulty)
		if err != nil {
			return err
		}

		output := exportOutput
		if output == "" {
			base := strings.TrimSuffix(args[0], filepath.Ext(args[0]))
			output = fmt.Sprintf("%s.%s.mid", base, strings.ToLower(diff.Name))
		}

		if err := saveDifficultyMidi(output, sf, diff); err != nil {
			return err
		}

		log.Printf("Exported %s (%d notes) to %s", diff.Name, len(diff.Notes), output)
		return nil
	},
}

// saveDifficultyMidi renders diff to memory first so a failed export leaves
// no file behind
func saveDifficultyMidi(filename string, sf *SimFile, diff *Difficulty) error {
	var buf bytes.Buffer
	if err := ExportDifficultyToMidi(&buf, sf, diff); err != nil {
		return fmt.Errorf("error exporting %s: %w", diff.Name, err)
	}

	if err := os.WriteFile(filename, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("error writing MIDI file: %w", err)
	}
	return nil
}
