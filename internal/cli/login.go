package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Log in to The Old Reader",
		Long:  "Authenticate with The Old Reader and store the resulting token.",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, password, err := promptCredentials()
			if err != nil {
				return err
			}

			client := newClient()
			if err := client.Login(cmd.Context(), email, password); err != nil {
				return fmt.Errorf("login failed: %w", err)
			}

			fmt.Println("Logged in.")
			return nil
		},
	}
}

// promptCredentials reads the email from stdin and the password with
// echo disabled.
func promptCredentials() (string, string, error) {
	fmt.Print("Email: ")
	reader := bufio.NewReader(os.Stdin)
	email, err := reader.ReadString('\n')
	if err != nil {
		return "", "", fmt.Errorf("failed to read email: %w", err)
	}
	email = strings.TrimSpace(email)

	fmt.Print("Password: ")
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", "", fmt.Errorf("failed to read password: %w", err)
	}
	return email, strings.TrimSpace(string(password)), nil
}
