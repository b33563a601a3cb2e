package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func newRegisterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register <email> <password>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := credentials{Email: args[0], Password: args[1]}
			if err := client.Post("/user/create", req, nil); err != nil {
				return err
			}
			fmt.Println("Account created. Log in to get a token.")
			return nil
		},
	}
}

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <email> <password>",
		Short: "Log in and store the auth token",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := credentials{Email: args[0], Password: args[1]}
			var resp struct {
				Token string `json:"token"`
			}
			if err := client.Post("/user/login", req, &resp); err != nil {
				return err
			}
			if err := cfg.SaveToken(resp.Token); err != nil {
				return fmt.Errorf("logged in but failed to save token: %w", err)
			}
			fmt.Printf("Logged in. Token saved to %s\n", cfg.TokenFile)
			return nil
		},
	}
}
