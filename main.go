package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "smtool",
	Short: "Inspect, requantize and convert StepMania simfiles",
	Long: `smtool reads StepMania .sm simfiles, reports their tempo and measure
layout, rewrites note data at the coarsest lossless snap per measure and
exports difficulties as General MIDI previews.`,
	SilenceUsage: true,
}

func main() {
	cobra.CheckErr(rootCmd.Execute())
}

// loadSimFile opens filename and logs any lines the parser skipped
func loadSimFile(filename string) (*SimFile, error) {
	sf, err := OpenSimFile(filename)
	if err != nil {
		return nil, err
	}

	for _, warning := range sf.Warnings {
		log.Printf("Warning: %s", warning)
	}
	return sf, nil
}

func findDifficulty(sf *SimFile, name string) (*Difficulty, error) {
	diff, ok := sf.Difficulty(name)
	if !ok {
		if name == "" {
			return nil, fmt.Errorf("%s has no difficulties", sf.Filename)
		}
		return nil, fmt.Errorf("difficulty %q not found in %s", name, sf.Filename)
	}
	return diff, nil
}
