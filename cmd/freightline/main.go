// Freightline CLI — инструмент командной строки для управления
// calls, usage и rate confirmations через HTTP API.
//
// Использование:
//
//	freightline [--api-url URL] [--token TOKEN] [--json] <command> <subcommand> [flags]
//
// Команды:
//
//	call      Управление звонками
//	usage     Usage и биллинговые периоды
//	rateconf  Управление rate confirmations
//
// Токен можно передать флагом --token или переменной окружения
// FREIGHTLINE_TOKEN.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/Freightline/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var apiURL string
	var token string
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "freightline",
		Short:         "Freightline CLI — freight broker call intelligence tool",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "http://localhost:8080", "API server URL")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "API bearer token (default: FREIGHTLINE_TOKEN env)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	clientFn := func() *cli.Client {
		t := token
		if t == "" {
			t = os.Getenv("FREIGHTLINE_TOKEN")
		}
		return cli.NewClient(apiURL, t)
	}
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewCallCmd(clientFn, outputFn),
		cli.NewUsageCmd(clientFn, outputFn),
		cli.NewRateConfCmd(clientFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
