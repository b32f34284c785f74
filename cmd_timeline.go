package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	timelineDifficulty string
	timelineJSON       bool
)

func init() {
	timelineCmd.Flags().StringVarP(&timelineDifficulty, "difficulty", "d", "", "Difficulty name (defaults to the first one)")
	timelineCmd.Flags().BoolVar(&timelineJSON, "json", false, "Output the timeline as JSON")
	rootCmd.AddCommand(timelineCmd)
}

var timelineCmd = &cobra.Command{
	Use:   "timeline <file>",
	Short: "Print the measure timeline of a difficulty",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sf, err := loadSimFile(args[0])
		if err != nil {
			return err
		}

		diff, err := findDifficulty(sf, timelineDifficulty)
		if err != nil {
			return err
		}

		timeline, err := ExtractTimeline(sf, diff)
		if err != nil {
			return fmt.Errorf("error extracting timeline: %w", err)
		}

		if timelineJSON {
			jsonData, err := json.MarshalIndent(timeline, "", "  ")
			if err != nil {
				return fmt.Errorf("error marshaling to JSON: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(jsonData))
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Timeline for: %s\n", args[0])
		fmt.Fprint(cmd.OutOrStdout(), timeline.String())
		fmt.Fprintf(cmd.OutOrStdout(), "Total: %.3fs\n", timeline.GetTotalDuration())
		return nil
	},
}
