// devtoken mints an access token for local development and smoke tests.
// Production tokens come from the identity provider; this tool signs with
// the same JWT_SECRET the server verifies against.
//
//	devtoken --id 7 --role ADMIN --name "Jane Doe"
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/iliyamo/room-booking/internal/model"
	"github.com/iliyamo/room-booking/internal/utils"
)

func main() {
	_ = godotenv.Load()
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if err == pflag.ErrHelp {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	var (
		id     uint64
		role   string
		level  int
		name   string
		ttl    int
		secret string
	)
	fs := pflag.NewFlagSet("devtoken", pflag.ContinueOnError)
	fs.SetOutput(out)
	fs.Uint64Var(&id, "id", 0, "user id placed in the sub claim (required)")
	fs.StringVar(&role, "role", model.RoleEmployee, "role claim: ADMIN, MANAGER or EMPLOYEE")
	fs.IntVar(&level, "level", 0, "permission level claim")
	fs.StringVar(&name, "name", "", "display name claim")
	fs.IntVar(&ttl, "ttl", 60, "lifetime in minutes")
	fs.StringVar(&secret, "secret", os.Getenv("JWT_SECRET"), "signing secret (default $JWT_SECRET)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if id == 0 {
		return fmt.Errorf("--id is required")
	}
	if ttl <= 0 {
		return fmt.Errorf("--ttl must be positive")
	}

	tok, err := utils.NewAccessToken(secret, model.Actor{
		ID:    id,
		Role:  strings.ToUpper(role),
		Level: level,
		Name:  name,
	}, ttl)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, tok.Token)
	return err
}
