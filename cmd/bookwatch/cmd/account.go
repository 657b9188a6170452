package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/donaldgifford/bookwatch/internal/auth"
)

type signFunc func(ctx context.Context, email, password string) (*auth.Session, error)

func signUpCmd() *cobra.Command {
	return credentialsCmd("signup", "Create an account",
		`  bookwatch signup --email reader@example.com --save`,
		func(ctx context.Context, email, password string) (*auth.Session, error) {
			return newClient().SignUp(ctx, email, password)
		})
}

func signInCmd() *cobra.Command {
	return credentialsCmd("signin", "Sign in and start watching followed books",
		`  bookwatch signin --email reader@example.com --save
  BW_PASSWORD=... bookwatch signin --email reader@example.com --output json`,
		func(ctx context.Context, email, password string) (*auth.Session, error) {
			return newClient().SignIn(ctx, email, password)
		})
}

func credentialsCmd(use, short, example string, sign signFunc) *cobra.Command {
	var (
		email string
		save  bool
	)

	cmd := &cobra.Command{
		Use:     use,
		Short:   short,
		Example: example,
		RunE: func(_ *cobra.Command, _ []string) error {
			if email == "" {
				return fmt.Errorf("--email is required")
			}
			password, err := readPassword()
			if err != nil {
				return err
			}

			sess, err := sign(context.Background(), email, password)
			if err != nil {
				return err
			}

			if save {
				if err := saveToken(sess.Token); err != nil {
					return err
				}
			}

			if jsonOutput() {
				return outputJSON(sess)
			}
			fmt.Printf("Signed in as %s (%s).\n", sess.User.Email, sess.User.UID)
			if !save {
				fmt.Printf("export BW_TOKEN=%s\n", sess.Token)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email address")
	cmd.Flags().BoolVar(&save, "save", false, "store the token in the client config file")

	return cmd
}

func signOutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Revoke the current token",
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := newClient().SignOut(context.Background()); err != nil {
				return err
			}
			if viper.InConfig("token") {
				if err := saveToken(""); err != nil {
					return err
				}
			}
			fmt.Println("Signed out.")
			return nil
		},
	}
}

// readPassword takes the password from BW_PASSWORD, or reads the first
// line of stdin.
func readPassword() (string, error) {
	if p := viper.GetString("password"); p != "" {
		return p, nil
	}
	fmt.Fprint(os.Stderr, "Password: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func saveToken(token string) error {
	viper.Set("token", token)

	path := viper.ConfigFileUsed()
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("locating home directory: %w", err)
		}
		path = filepath.Join(home, ".bookwatch.yaml")
	}
	if err := viper.WriteConfigAs(path); err != nil {
		return fmt.Errorf("saving token to %s: %w", path, err)
	}
	return nil
}
