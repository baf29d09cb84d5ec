// Command devtoken signs a bearer token with the configured JWT_SECRET so a
// local server can be exercised without the identity provider.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"backend-gravelatlas/internal/auth"
	"backend-gravelatlas/internal/config"
)

var errNoUser = errors.New("-user is required")

func main() {
	if err := run(os.Args[1:], config.Load(), os.Stdout); err != nil {
		log.Fatalf("devtoken: %v", err)
	}
}

func run(args []string, cfg config.Config, out io.Writer) error {
	fs := flag.NewFlagSet("devtoken", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	user := fs.String("user", "", "user id placed in the user_id claim")
	name := fs.String("name", "", "display name")
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*user) == "" {
		return errNoUser
	}
	if *ttl <= 0 {
		return fmt.Errorf("-ttl must be positive, got %v", *ttl)
	}

	token, err := auth.SignToken(cfg.JWTSecret, *user, *name, *ttl)
	if err != nil {
		return fmt.Errorf("sign token: %w", err)
	}
	_, err = fmt.Fprintln(out, token)
	return err
}
