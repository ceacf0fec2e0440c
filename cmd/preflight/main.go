package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/gfdev10/modelpulse/internal/catalogue"
)

// Preflight reports which provider credentials are configured before the
// service starts. Providers without keys still show up on the dashboard;
// their probes just report missing-credential.
func main() {
	_ = godotenv.Load()

	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	cat, err := catalogue.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "✖ catalogue:", err)
		os.Exit(1)
	}

	configured := 0
	for _, p := range cat.Providers() {
		if strings.TrimSpace(os.Getenv(p.KeyEnv)) != "" {
			ok(fmt.Sprintf("%-12s %s is set", p.ID, p.KeyEnv))
			configured++
		} else {
			warn(fmt.Sprintf("%-12s %s is empty, probes will report missing-credential", p.ID, p.KeyEnv))
		}
	}

	if addr := strings.TrimSpace(os.Getenv("API_ADDR")); addr != "" {
		ok("API_ADDR=" + addr)
	} else {
		warn("API_ADDR empty; the app default will be used")
	}

	fmt.Printf("%d/%d providers configured\n", configured, len(cat.Providers()))
	if configured == 0 {
		warn("no provider keys at all; every probe will be a missing-credential no-op")
	}
	ok("preflight done")
}
