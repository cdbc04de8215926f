package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/IGORVINICIUSDEASSIS/realh-sub000/internal/auth"
	"github.com/IGORVINICIUSDEASSIS/realh-sub000/internal/config"
)

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "realhctl",
		Short: "Administrative commands for the realh dashboard",
	}

	var usersPath string
	reset := &cobra.Command{
		Use:   "reset-admin-password <new-password>",
		Short: "Reset the admin password in the user store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := usersPath
			if path == "" {
				cfg, err := config.LoadConfig()
				if err != nil {
					return err
				}
				path = cfg.Auth.UsersPath
			}
			if err := auth.ResetAdminPassword(path, args[0]); err != nil {
				return err
			}
			fmt.Println("admin password reset")
			return nil
		},
	}
	reset.Flags().StringVar(&usersPath, "users", "", "path to the user store (default from config.toml)")

	root.AddCommand(reset)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
