package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"photoflow/internal/credentials"
)

var (
	clientIDFlag     string
	clientSecretFlag string
	refreshTokenFlag string
)

// NewLoginCmd creates the login subcommand.
func NewLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store OAuth credentials for the account",
		Long: `Stores the OAuth client id, client secret and refresh token on disk,
encrypted, so later commands can mint access tokens without prompting.
Values not passed as flags are read interactively; secrets are read
without echo.`,
		RunE: runLogin,
	}

	cmd.Flags().StringVar(&clientIDFlag, "client-id", "", "OAuth client id")
	cmd.Flags().StringVar(&clientSecretFlag, "client-secret", "", "OAuth client secret")
	cmd.Flags().StringVar(&refreshTokenFlag, "refresh-token", "", "OAuth refresh token")

	return cmd
}

func runLogin(cmd *cobra.Command, args []string) error {
	a, err := GetApp()
	if err != nil {
		return err
	}

	clientID := clientIDFlag
	if clientID == "" {
		if clientID, err = promptLine("Client ID: "); err != nil {
			return err
		}
	}
	clientSecret := clientSecretFlag
	if clientSecret == "" {
		if clientSecret, err = promptSecret("Client secret: "); err != nil {
			return err
		}
	}
	refreshToken := refreshTokenFlag
	if refreshToken == "" {
		if refreshToken, err = promptSecret("Refresh token: "); err != nil {
			return err
		}
	}

	if err := a.Creds.Save(credentials.Credentials{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RefreshToken: refreshToken,
	}); err != nil {
		return err
	}

	fmt.Println("Credentials stored.")
	return nil
}

// NewLogoutCmd creates the logout subcommand.
func NewLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := GetApp()
			if err != nil {
				return err
			}
			if err := a.Creds.Logout(); err != nil {
				return err
			}
			fmt.Println("Logged out.")
			return nil
		},
	}
}

func promptLine(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func promptSecret(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		// Piped input falls back to a plain read.
		return promptLine(prompt)
	}
	fmt.Fprint(os.Stderr, prompt)
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading secret: %w", err)
	}
	secret := strings.TrimSpace(string(raw))
	if secret == "" {
		return "", errors.New("empty value")
	}
	return secret, nil
}
