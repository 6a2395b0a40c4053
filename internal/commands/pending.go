package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPendingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List pending money movements awaiting approval",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}
			defer e.close()

			records, err := e.journal.ListPending(cmd.Context())
			if err != nil {
				return err
			}

			if len(records) == 0 {
				fmt.Println("no pending records")
				return nil
			}

			for _, r := range records {
				route := string(r.SourceWallet)
				if r.DestinationWallet != r.SourceWallet {
					route += " -> " + string(r.DestinationWallet)
				}
				fmt.Printf("%s  %s  %-14s  %s  %s  [%s]\n",
					formatTime(r.CreatedAt),
					r.ID,
					r.Type,
					formatAmount(r.Amount, r.FromCurrency),
					r.ReferenceNumber,
					route,
				)
			}

			return nil
		},
	}
}
