package commands

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/sangmo-land/BBinance-sub000/internal/convert"
)

func newTradeCommand() *cobra.Command {
	var feePercent string
	var spendIsQuote bool

	cmd := &cobra.Command{
		Use:   "trade <spend-amount> <spend-currency> <receive-currency>",
		Short: "Quote a trade: gross, fee and net proceeds at the current rate",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			spend, err := decimal.NewFromString(args[0])
			if err != nil {
				return fmt.Errorf("invalid spend amount %q: %w", args[0], err)
			}
			fee, err := decimal.NewFromString(feePercent)
			if err != nil {
				return fmt.Errorf("invalid fee percent %q: %w", feePercent, err)
			}

			e, err := newEnv()
			if err != nil {
				return err
			}
			defer e.close()

			spendCur, receiveCur := args[1], args[2]

			var rate decimal.Decimal
			if spendIsQuote {
				rate, err = e.rates.Resolve(cmd.Context(), receiveCur, spendCur)
			} else {
				rate, err = e.rates.Resolve(cmd.Context(), spendCur, receiveCur)
			}
			if err != nil {
				return err
			}

			result, err := convert.ComputeTrade(convert.TradeInput{
				SpendAmount:          spend,
				Rate:                 rate,
				FeePercent:           fee,
				SpendIsQuoteCurrency: spendIsQuote,
			})
			if err != nil {
				return err
			}

			fmt.Printf("spend: %s\n", formatAmount(spend, spendCur))
			fmt.Printf("rate:  %s\n", rate)
			fmt.Printf("gross: %s\n", formatAmount(result.GrossReceive, receiveCur))
			fmt.Printf("fee:   %s\n", formatAmount(result.FeeAmount, receiveCur))
			fmt.Printf("net:   %s\n", formatAmount(result.NetReceive, receiveCur))
			return nil
		},
	}

	cmd.Flags().StringVar(&feePercent, "fee-percent", "0.1", "platform fee percent")
	cmd.Flags().BoolVar(&spendIsQuote, "spend-is-quote", false, "spend amount is in the quote currency of the pair")

	return cmd
}
