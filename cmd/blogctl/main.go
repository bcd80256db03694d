// Command blogctl is an operator tool for the blog service. It generates token
// secrets and drives the account endpoints from a terminal.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/aussiebroadwan/blog/pkg/blogsdk"
	"github.com/aussiebroadwan/blog/pkg/cryptox"
	"golang.org/x/term"
)

const usage = `usage: blogctl <command> [flags]

commands:
  secret     print a random value suitable for BLOG_TOKEN_SECRET
  register   create an account (password is read from the terminal)
  login      exchange credentials for tokens and print them as JSON
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

type cli struct {
	in     *bufio.Reader
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	c := &cli{in: bufio.NewReader(stdin), stdin: stdin, stdout: stdout, stderr: stderr}

	var err error
	switch args[0] {
	case "secret":
		err = c.secret(args[1:])
	case "register":
		err = c.register(ctx, args[1:])
	case "login":
		err = c.login(ctx, args[1:])
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return 2
	}

	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "blogctl %s: %v\n", args[0], err)
		return 1
	}
	return 0
}

func (c *cli) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	return fs
}

func (c *cli) secret(args []string) error {
	fs := c.flags("secret")
	size := fs.Int("bytes", cryptox.TokenSize256, "number of random bytes")
	if err := fs.Parse(args); err != nil {
		return err
	}

	token, err := cryptox.GenerateToken(*size)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, token)
	return nil
}

func (c *cli) register(ctx context.Context, args []string) error {
	fs := c.flags("register")
	server := fs.String("server", envOr("BLOG_SERVER", "http://localhost:8080"), "base URL of the blog API")
	username := fs.String("username", "", "account username")
	email := fs.String("email", "", "account email")
	fullName := fs.String("fullname", "", "display name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" || *email == "" {
		return errors.New("-username and -email are required")
	}

	password, err := c.password("Password: ")
	if err != nil {
		return err
	}

	profile, err := blogsdk.NewClient(*server).Register(ctx, blogsdk.RegisterRequest{
		Username: *username,
		Email:    *email,
		Password: password,
		FullName: *fullName,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "registered %s (id %d)\n", profile.Username, profile.ID)
	return nil
}

type loginOutput struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresAt    string `json:"expires_at"`
}

func (c *cli) login(ctx context.Context, args []string) error {
	fs := c.flags("login")
	server := fs.String("server", envOr("BLOG_SERVER", "http://localhost:8080"), "base URL of the blog API")
	username := fs.String("username", "", "account username")
	otp := fs.String("otp", "", "current TOTP code, for accounts with two-factor enabled")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" {
		return errors.New("-username is required")
	}

	password, err := c.password("Password: ")
	if err != nil {
		return err
	}

	session, err := blogsdk.NewClient(*server).Login(ctx, *username, password, *otp)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(c.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(loginOutput{
		AccessToken:  session.AccessToken(),
		RefreshToken: session.RefreshToken(),
		ExpiresAt:    session.ExpiresAt().UTC().Format(time.RFC3339),
	})
}

// password reads without echo from a terminal, or a single line otherwise so
// the tool can be scripted.
func (c *cli) password(prompt string) (string, error) {
	if f, ok := c.stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(c.stderr, prompt)
		pw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(c.stderr)
		if err != nil {
			return "", err
		}
		return string(pw), nil
	}

	line, err := c.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read password: %w", err)
	}
	pw := strings.TrimRight(line, "\r\n")
	if pw == "" {
		return "", errors.New("empty password")
	}
	return pw, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
