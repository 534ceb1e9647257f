package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/prathamsaiya01/apna-adda-1/internal/config"
	"github.com/prathamsaiya01/apna-adda-1/internal/database"
)

var commandCmd = &cobra.Command{
	Use:   "command [name]",
	Short: "Run one-time command (migrate, migrate-create)",
	RunE:  runCommand,
}

func init() {
	rootCmd.AddCommand(commandCmd)
}

func runCommand(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		fmt.Println("available: migrate, migrate-create")
		return nil
	}
	switch name := args[0]; name {
	case "migrate":
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		if !cfg.UseDatabase() {
			return fmt.Errorf("migrate: DB_HOST not set")
		}
		return database.MigrateUp(cfg.DatabaseURL())
	case "migrate-create":
		migrationName := ""
		if len(args) > 1 {
			migrationName = args[1]
		} else {
			fmt.Print("Enter migration name: ")
			_, _ = fmt.Scanln(&migrationName)
		}
		if migrationName == "" {
			log.Fatal("migration name required")
		}
		return database.CreateMigration(migrationName)
	default:
		return fmt.Errorf("unknown command: %s", name)
	}
}
