package main

import (
	"log"

	"github.com/spf13/cobra"
)

var (
	rewriteOutput  string
	rewriteInPlace bool
)

func init() {
	rewriteCmd.Flags().StringVarP(&rewriteOutput, "output", "o", "", "Write to this file instead of stdout")
	rewriteCmd.Flags().BoolVar(&rewriteInPlace, "in-place", false, "Overwrite the input file")
	rootCmd.AddCommand(rewriteCmd)
}

var rewriteCmd = &cobra.Command{
	Use:   "rewrite <file>",
	Short: "Rewrite a simfile with every measure at its coarsest lossless snap",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sf, err := loadSimFile(args[0])
		if err != nil {
			return err
		}

		output := rewriteOutput
		if rewriteInPlace {
			output = args[0]
		}

		if output == "" {
			_, err := sf.WriteTo(cmd.OutOrStdout())
			return err
		}

		if err := sf.SaveSimFile(output); err != nil {
			return err
		}
		log.Printf("Wrote %d difficulties to %s", len(sf.Difficulties), output)
		return nil
	},
}
