package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/corpdrive/server/internal/cli/api"
	"github.com/corpdrive/server/internal/cli/config"
	"github.com/corpdrive/server/internal/cli/output"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	flagToken         string
	flagPasswordStdin bool
)

var registerCmd = &cobra.Command{
	Use:   "register <company-name>",
	Short: "Create a company account and sign in",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return authenticate("/auth/register", args[0])
	},
}

var loginCmd = &cobra.Command{
	Use:   "login [company-name]",
	Short: "Sign in to your company drive",
	Long: `Sign in with the company name and password, or store an existing
session token.

  corpdrive login Acme                       Prompt for the password
  echo "$PW" | corpdrive login Acme --password-stdin
  corpdrive login --token eyJhbGciOi...      Use a token you already have`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagToken != "" {
			return loginWithToken(flagToken)
		}
		if len(args) == 0 {
			return fmt.Errorf("company name is required unless --token is given")
		}
		return authenticate("/auth/login", args[0])
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove stored credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Clear(); err != nil {
			return fmt.Errorf("clearing config: %w", err)
		}
		fmt.Println("Logged out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the company you are signed in as",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}

		var resp api.Response[api.Company]
		if err := apiClient.Get("/auth/me", nil, &resp); err != nil {
			return fmt.Errorf("fetching company: %w", err)
		}

		if flagJSON {
			output.JSON(resp.Data)
			return nil
		}
		output.CompanyInfo(resp.Data)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{registerCmd, loginCmd} {
		c.Flags().BoolVar(&flagPasswordStdin, "password-stdin", false, "Read the password from stdin")
	}
	loginCmd.Flags().StringVar(&flagToken, "token", "", "Session token to store instead of signing in")
	rootCmd.AddCommand(registerCmd, loginCmd, logoutCmd, whoamiCmd)
}

// authenticate posts credentials to path and stores the returned token.
func authenticate(path, companyName string) error {
	password, err := readPassword(os.Stdin, flagPasswordStdin)
	if err != nil {
		return err
	}

	var resp api.Response[api.AuthResponse]
	body := map[string]string{"companyName": companyName, "password": password}
	if err := apiClient.Post(path, body, &resp); err != nil {
		return err
	}

	cfg.Token = resp.Data.Token
	cfg.CompanyName = resp.Data.Company.CompanyName
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("Signed in as %s\n", resp.Data.Company.CompanyName)
	return nil
}

func loginWithToken(token string) error {
	client := api.NewClient(cfg.ServerURL, token)
	var resp api.Response[api.Company]
	if err := client.Get("/auth/me", nil, &resp); err != nil {
		var apiErr *api.APIError
		if errors.As(err, &apiErr) && apiErr.Status == 401 {
			return fmt.Errorf("invalid token: server returned 401")
		}
		return fmt.Errorf("validating token: %w", err)
	}

	cfg.Token = token
	cfg.CompanyName = resp.Data.CompanyName
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("Signed in as %s\n", resp.Data.CompanyName)
	return nil
}

// readPassword reads one line from in when fromStdin is set, otherwise
// prompts on the terminal with echo disabled.
func readPassword(in *os.File, fromStdin bool) (string, error) {
	if fromStdin {
		return readPasswordLine(in)
	}

	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("no terminal available for the password prompt (use --password-stdin)")
	}
	fmt.Fprint(os.Stderr, "Password: ")
	password, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(password), nil
}

func readPasswordLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", fmt.Errorf("empty password on stdin")
	}
	return password, nil
}
