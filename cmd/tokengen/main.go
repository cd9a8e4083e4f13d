// Command tokengen mints a bearer token for a ledger caller using the
// service's JWT_SECRET.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"flightsurety-ledger/internal/domain/entity"
	"flightsurety-ledger/internal/infrastructure/auth"

	"github.com/joho/godotenv"
)

func main() {
	callerFlag := flag.String("caller", "", "caller identity (0x-prefixed, 20 bytes)")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime, 0 for no expiry")
	flag.Parse()

	godotenv.Load()

	caller := entity.ParseIdentity(*callerFlag)
	if caller.IsZero() {
		fmt.Fprintln(os.Stderr, "a non-zero -caller is required")
		os.Exit(2)
	}

	issuer := os.Getenv("JWT_ISSUER")
	if issuer == "" {
		issuer = "flightsurety-ledger"
	}

	tokens, err := auth.NewTokenService(os.Getenv("JWT_SECRET"), issuer, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to create token service:", err)
		os.Exit(1)
	}

	token, err := tokens.Generate(caller)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to generate token:", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
