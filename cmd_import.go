package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gitlab.com/gomidi/midi/v2/smf"
)

var (
	importOptions ImportOptions
	importOutput  string
)

func init() {
	importMidiCmd.Flags().StringVar(&importOptions.Track, "track", "", "MIDI track name (defaults to the first track with drum hits)")
	importMidiCmd.Flags().StringVar(&importOptions.StepsType, "steps-type", "dance-single", "Steps type of the new difficulty")
	importMidiCmd.Flags().StringVar(&importOptions.Name, "name", "", "Difficulty name (defaults to the track name)")
	importMidiCmd.Flags().IntVar(&importOptions.Meter, "meter", 1, "Difficulty meter")
	importMidiCmd.Flags().StringVarP(&importOutput, "output", "o", "", "Output path (defaults to <file>.sm)")
	rootCmd.AddCommand(importMidiCmd)
}

var importMidiCmd = &cobra.Command{
	Use:   "import-midi <file>",
	Short: "Build a simfile from a General MIDI drum track",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("error opening MIDI file: %w", err)
		}
		defer file.Close()

		midiFile, err := smf.ReadFrom(file)
		if err != nil {
			return fmt.Errorf("error reading MIDI file: %w", err)
		}

		sf, err := ImportMidiSimFile(midiFile, importOptions)
		if err != nil {
			return err
		}

		output := importOutput
		if output == "" {
			output = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ".sm"
		}

		if err := sf.SaveSimFile(output); err != nil {
			return err
		}

		diff := sf.Difficulties[0]
		log.Printf("Imported %s (%d notes over %d measures) to %s", diff.Name, len(diff.Notes), diff.Measures, output)
		return nil
	},
}
