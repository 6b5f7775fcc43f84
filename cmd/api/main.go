// @title           TaskHub API
// @version         1.0
// @description     Collaborative task management with role-based editing and WebSocket notifications.
// @host            localhost:8080
// @BasePath        /api/v1
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	_ "taskhub/docs"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:          "taskhub",
		Short:        "TaskHub - collaborative task API with live notifications",
		Version:      Version,
		SilenceUsage: true,
		RunE:         runServe,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(createUserCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
