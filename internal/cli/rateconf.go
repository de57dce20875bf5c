package cli

import (
	"github.com/spf13/cobra"
)

// NewRateConfCmd создаёт группу команд для rate confirmations.
func NewRateConfCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rateconf",
		Short: "Manage rate confirmations",
	}

	cmd.AddCommand(
		newRateConfListCmd(clientFn, outputFn),
		newRateConfShowCmd(clientFn, outputFn),
		newRateConfSendCmd(clientFn, outputFn),
		newRateConfVoidCmd(clientFn, outputFn),
	)

	return cmd
}

var rateConfHeaders = []string{"ID", "NUMBER", "RATE", "STATUS", "SIGNER", "CREATED"}

func rateConfRow(rc RateConfResponse) []string {
	return []string{rc.ID, rc.Number, rc.Rate, rc.Status, rc.SignerName, rc.CreatedAt}
}

func newRateConfListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List rate confirmations",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			rcs, err := client.ListRateConfs(status)
			if err != nil {
				return err
			}

			rows := make([][]string, len(rcs))
			for i, rc := range rcs {
				rows[i] = rateConfRow(rc)
			}

			out.Print(rateConfHeaders, rows, rcs)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status (DRAFT, SENT, SIGNED, DECLINED, VOID)")

	return cmd
}

func newRateConfShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show rate confirmation details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			rc, err := client.GetRateConf(args[0])
			if err != nil {
				return err
			}

			out.Print(rateConfHeaders, [][]string{rateConfRow(*rc)}, rc)
			return nil
		},
	}
}

func newRateConfSendCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "send ID",
		Short: "Send a draft rate confirmation for signature",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			rc, err := client.SendRateConf(args[0])
			if err != nil {
				return err
			}

			out.Successf("Rate confirmation sent: %s", rc.Number)
			out.Print(rateConfHeaders, [][]string{rateConfRow(*rc)}, rc)
			return nil
		},
	}
}

func newRateConfVoidCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "void ID",
		Short: "Void a rate confirmation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			rc, err := client.VoidRateConf(args[0])
			if err != nil {
				return err
			}

			out.Successf("Rate confirmation voided: %s", rc.Number)
			out.Print(rateConfHeaders, [][]string{rateConfRow(*rc)}, rc)
			return nil
		},
	}
}
