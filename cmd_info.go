package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var infoJSON bool

func init() {
	infoCmd.Flags().BoolVar(&infoJSON, "json", false, "Output the parsed simfile as JSON")
	rootCmd.AddCommand(infoCmd)
}

var infoCmd = &cobra.Command{
	Use:   "info <file>",
	Short: "Print simfile metadata and difficulties",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sf, err := loadSimFile(args[0])
		if err != nil {
			return err
		}

		if infoJSON {
			jsonData, err := json.MarshalIndent(sf, "", "  ")
			if err != nil {
				return fmt.Errorf("error marshaling to JSON: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(jsonData))
			return nil
		}

		fmt.Fprint(cmd.OutOrStdout(), sf.String())
		for _, tp := range sf.TimingPoints {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", tp)
		}
		for _, diff := range sf.Difficulties {
			counts := diff.Counts()
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d taps, %d holds, %d mines, %d fakes over %d measures\n",
				diff.Name, counts[Tap], counts[HoldHead], counts[Mine], counts[Fake], diff.Measures)
		}
		return nil
	},
}
