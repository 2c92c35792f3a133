package main

import (
	"fmt"

	"cafe-order/logger"
	"cafe-order/services"

	"github.com/spf13/cobra"
)

func adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage dashboard admin accounts",
	}
	cmd.AddCommand(adminAddCmd())
	cmd.AddCommand(adminRemoveCmd())
	return cmd
}

func adminAddCmd() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "add [username]",
		Short: "Create an admin; a random password is printed when --password is omitted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			st, closeStore, err := openStore(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer closeStore()

			generated := password == ""
			if generated {
				if password, err = services.GeneratePassword(12); err != nil {
					return err
				}
			}
			auth := services.NewAuthService(st, cfg.Auth.JWTSecret, services.AuthOptions{Log: logger.WithComponent(log, "auth")})
			u, err := auth.CreateAdmin(cmd.Context(), args[0], password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin %q created\n", u.Username)
			if generated {
				fmt.Fprintf(cmd.OutOrStdout(), "password: %s\n", password)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "password for the new admin")
	return cmd
}

func adminRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove [username]",
		Short: "Delete an admin; their tokens stop working immediately",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			st, closeStore, err := openStore(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer closeStore()

			auth := services.NewAuthService(st, cfg.Auth.JWTSecret, services.AuthOptions{Log: logger.WithComponent(log, "auth")})
			if err := auth.RemoveAdmin(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin %q removed\n", args[0])
			return nil
		},
	}
}
