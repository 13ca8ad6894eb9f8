// token mints HS256 access tokens for local development and smoke tests.
// In production tokens come from the identity provider; this tool signs
// with the same JWT_SECRET so the server accepts them.
//
//	token --user 42 --role BUYER --ttl 2h
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/iliyamo/event-seat-ticketing/internal/utils"
)

var roles = []string{utils.RoleBuyer, utils.RoleFinance, utils.RoleGateOfficer, utils.RoleAdmin}

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	_ = godotenv.Load()

	var (
		userID uint64
		role   string
		ttl    time.Duration
		secret string
	)
	fs := pflag.NewFlagSet("token", pflag.ContinueOnError)
	fs.Uint64VarP(&userID, "user", "u", 0, "user ID to put in the sub claim")
	fs.StringVarP(&role, "role", "r", utils.RoleBuyer, "role claim: "+strings.Join(roles, ", "))
	fs.DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	fs.StringVar(&secret, "secret", os.Getenv("JWT_SECRET"), "signing secret (default $JWT_SECRET)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if userID == 0 {
		return errors.New("--user is required")
	}
	if secret == "" {
		return errors.New("no secret: set JWT_SECRET or pass --secret")
	}
	role = strings.ToUpper(role)
	valid := false
	for _, r := range roles {
		valid = valid || r == role
	}
	if !valid {
		return fmt.Errorf("unknown role %q", role)
	}

	tok, err := utils.NewAccessToken(secret, userID, role, ttl)
	if err != nil {
		return err
	}
	fmt.Println(tok.Token)
	fmt.Fprintf(os.Stderr, "expires %s\n", tok.Exp.Format(time.RFC3339))
	return nil
}
