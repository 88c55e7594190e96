package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"insight_gateway/internal/auth"
	"insight_gateway/internal/config"
)

// mint-token issues an admin JWT for one of the allow-listed emails. Tokens
// are minted out-of-band; the gateway itself has no login endpoint.
func main() {
	email := flag.String("email", "", "admin email to embed in the token")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if *email == "" || !strings.Contains(*email, "@") {
		fmt.Fprintln(os.Stderr, "ERROR: -email must be a valid address")
		os.Exit(1)
	}

	if !auth.IsAllowedAdmin(*email, cfg.AdminEmails) {
		fmt.Fprintf(os.Stderr, "ERROR: %s is not in ADMIN_EMAILS; the gateway would reject this token\n", *email)
		os.Exit(1)
	}

	token, exp, err := auth.GenerateAdminJWT(*email, cfg.JWTSecret, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Failed to sign token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires at %s\n", time.Unix(exp, 0).UTC().Format(time.RFC3339))
}
