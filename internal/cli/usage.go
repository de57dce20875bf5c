package cli

import (
	"strconv"

	"github.com/spf13/cobra"
)

// NewUsageCmd создаёт группу команд для просмотра usage.
func NewUsageCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Inspect usage and billing periods",
	}

	cmd.AddCommand(
		newUsageShowCmd(clientFn, outputFn),
		newUsagePeriodsCmd(clientFn, outputFn),
	)

	return cmd
}

func newUsageShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var estimate int

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show current period usage and admission projection",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			decision, err := client.GetUsage(estimate)
			if err != nil {
				return err
			}

			headers := []string{"USED", "INCLUDED", "PENDING", "PROJECTED", "OVERAGE", "CHARGE", "ALLOWED"}
			rows := [][]string{{
				strconv.Itoa(decision.UsedMinutes),
				strconv.Itoa(decision.IncludedMinutes),
				strconv.Itoa(decision.PendingMinutes),
				strconv.Itoa(decision.ProjectedUsedMinutes),
				strconv.Itoa(decision.ProjectedOverageMinutes),
				decision.ProjectedCharge,
				strconv.FormatBool(decision.Allowed),
			}}

			out.Print(headers, rows, decision)

			if !decision.Allowed {
				out.Error(decision.Reason)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&estimate, "estimate", 0, "Estimate minutes of a hypothetical new call")

	return cmd
}

func newUsagePeriodsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "periods",
		Short: "List monthly billing periods",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			periods, err := client.ListPeriods()
			if err != nil {
				return err
			}

			headers := []string{"MONTH", "USED", "INCLUDED", "OVERAGE", "CHARGE", "STATUS"}
			rows := make([][]string, len(periods))
			for i, p := range periods {
				rows[i] = []string{
					p.Month,
					strconv.Itoa(p.UsedMinutes),
					strconv.Itoa(p.IncludedMinutes),
					strconv.Itoa(p.OverageMinutes),
					p.OverageCharge,
					p.Status,
				}
			}

			out.Print(headers, rows, periods)
			return nil
		},
	}
}
