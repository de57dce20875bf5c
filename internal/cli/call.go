package cli

import (
	"strconv"

	"github.com/spf13/cobra"
)

// NewCallCmd создаёт группу команд для работы со звонками.
func NewCallCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call",
		Short: "Inspect recorded calls",
	}

	cmd.AddCommand(
		newCallListCmd(clientFn, outputFn),
		newCallShowCmd(clientFn, outputFn),
		newCallReprocessCmd(clientFn, outputFn),
	)

	return cmd
}

func callRow(c CallResponse) []string {
	return []string{
		c.ID,
		c.Direction,
		c.FromNumber,
		c.ToNumber,
		strconv.Itoa(c.BillableMinutes),
		c.Status,
		c.CreatedAt,
	}
}

var callHeaders = []string{"ID", "DIRECTION", "FROM", "TO", "MINUTES", "STATUS", "CREATED"}

func newCallListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var status string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded calls",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			calls, err := client.ListCalls(ListCallsOpts{Status: status, Limit: limit})
			if err != nil {
				return err
			}

			rows := make([][]string, len(calls))
			for i, c := range calls {
				rows[i] = callRow(c)
			}

			out.Print(callHeaders, rows, calls)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status (RECORDED, COMPLETED, FAILED, REJECTED, ...)")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of calls")

	return cmd
}

func newCallShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show call details with transcript and extracted fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			call, err := client.GetCall(args[0])
			if err != nil {
				return err
			}

			out.Print(callHeaders, [][]string{callRow(call.CallResponse)}, call)

			if call.Transcript != nil {
				out.Success("")
				out.Success("Transcript (" + call.Transcript.Model + "):")
				out.Success(call.Transcript.Text)
			}
			if call.Extraction != nil {
				out.Success("")
				out.Successf("Extracted fields (confidence %.2f):", call.Extraction.Confidence)
				for k, v := range call.Extraction.Fields {
					out.Successf("  %s: %v", k, v)
				}
			}

			return nil
		},
	}
}

func newCallReprocessCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "reprocess ID",
		Short: "Re-queue a failed call for processing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			call, err := client.ReprocessCall(args[0])
			if err != nil {
				return err
			}

			out.Successf("Call queued for reprocessing: %s", call.ID)
			out.Print(callHeaders, [][]string{callRow(*call)}, call)
			return nil
		},
	}
}
