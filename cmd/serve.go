package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/counterdeskhq/counterdesk/datagen"
	"github.com/counterdeskhq/counterdesk/server"
)

var (
	port         int
	seed         int64
	persons      int
	transactions int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the demo back-office API",
	Long: `Start a local API serving generated persons and transactions with
the same pagination envelope and token endpoint as the production
backend. Demo logins: admin/admin123, manager/manager123, user/user123.`,
	Example: `  counterdesk serve
  counterdesk serve --port 9711 --seed 7
  counterdesk serve --persons 500 --transactions 2000`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVarP(&port, "port", "p", 9711, "Port to listen on")
	serveCmd.Flags().Int64Var(&seed, "seed", 42, "Seed for the generated dataset")
	serveCmd.Flags().IntVar(&persons, "persons", 120, "Number of persons to generate")
	serveCmd.Flags().IntVar(&transactions, "transactions", 350, "Number of transactions to generate")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := GetLogger()

	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}

	data := datagen.Generate(datagen.Options{
		Persons:      persons,
		Transactions: transactions,
		Seed:         seed,
	})

	logger.Info("dataset generated",
		"persons", len(data.Persons),
		"transactions", len(data.Transactions),
		"seed", seed)

	srv := server.New(server.Options{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Data:         data,
		Logger:       logger,
	})

	return srv.Run(fmt.Sprintf(":%d", port))
}
