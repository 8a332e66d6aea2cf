// Command mint creates HS256 session tokens with the same claim shape
// the storefront backend issues, for local testing of the route guard.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func main() {
	secret := flag.String("secret", "", "HMAC signing secret (required)")
	subject := flag.String("sub", "user-1", "subject claim")
	role := flag.String("role", "customer", "role claim")
	expDuration := flag.String("exp", "24h", "expiration duration (negative mints an already-expired token)")
	flag.Parse()

	if *secret == "" {
		fmt.Fprintln(os.Stderr, "error: -secret is required")
		os.Exit(1)
	}

	duration, err := time.ParseDuration(*expDuration)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: invalid expiration: %v\n", err)
		os.Exit(1)
	}

	claims := jwt.MapClaims{
		"sub":  *subject,
		"role": *role,
		"exp":  time.Now().Add(duration).Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(*secret))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: signing token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(signed)
}
