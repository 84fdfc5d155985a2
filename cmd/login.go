package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/counterdeskhq/counterdesk/engine"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in from the terminal and persist the session",
	Long: `Exchange a username and password for an access token without
launching the full UI. The session is persisted, so a subsequent
counterdesk run starts already authenticated.`,
	Example: `  counterdesk login
  counterdesk login --api https://apidev.example.com/v1`,
	RunE: runLogin,
}

func init() {
	rootCmd.AddCommand(loginCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	logger := GetLogger()

	fmt.Print("Username: ")
	reader := bufio.NewReader(os.Stdin)
	username, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("failed to read username: %w", err)
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("username is required")
	}

	fmt.Print("Password: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	store, err := openSessionStore()
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}

	client := newAPIClient(logger)
	session := engine.NewSession(store, client, engine.SessionOptions{Logger: logger})
	defer session.Close()

	if err := session.Login(cmd.Context(), username, string(password)); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	state := session.State()
	fmt.Printf("Logged in as %s (roles: %s)\n", state.Username, strings.Join(state.Roles, ", "))
	return nil
}
