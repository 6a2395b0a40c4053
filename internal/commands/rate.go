package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRateCommand() *cobra.Command {
	var indicative bool

	cmd := &cobra.Command{
		Use:   "rate <from> <to>",
		Short: "Resolve the exchange rate between two currencies",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}
			defer e.close()

			resolve := e.rates.Resolve
			if indicative {
				resolve = e.rates.Indicative
			}

			rate, err := resolve(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}

			fmt.Printf("1 %s = %s %s\n", args[0], rate, args[1])
			return nil
		},
	}

	cmd.Flags().BoolVar(&indicative, "indicative", false, "allow the fallback reference table (display only)")

	return cmd
}
