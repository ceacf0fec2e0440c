package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"
)

// One-shot latency check against a running modelpulse API:
//
//	modelpulse-cli -provider groq -model llama-3.3-70b-versatile
func main() {
	api := os.Getenv("API_BASE")
	if api == "" {
		api = "http://localhost:8080"
	}

	provider := flag.String("provider", "", "provider id (see GET /api/providers)")
	model := flag.String("model", "", "model id")
	flag.Parse()

	if *provider == "" || *model == "" {
		fmt.Fprintln(os.Stderr, "usage: cli -provider <id> -model <id>")
		os.Exit(2)
	}

	body, _ := json.Marshal(map[string]string{"provider": *provider, "model": *model})
	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Post(api+"/api/probe", "application/json", bytes.NewReader(body))
	if err != nil {
		fmt.Fprintln(os.Stderr, "error contacting API:", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintln(os.Stderr, "API returned status:", resp.Status)
		os.Exit(1)
	}

	var out struct {
		Key     string `json:"key"`
		Outcome struct {
			Status    string  `json:"status"`
			LatencyMS float64 `json:"latency_ms"`
			Message   string  `json:"message"`
		} `json:"outcome"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		fmt.Fprintln(os.Stderr, "decode response:", err)
		os.Exit(1)
	}

	switch out.Outcome.Status {
	case "success":
		fmt.Printf("%s  OK  %.0f ms\n", out.Key, out.Outcome.LatencyMS)
	default:
		fmt.Printf("%s  %s  %s\n", out.Key, out.Outcome.Status, out.Outcome.Message)
		os.Exit(1)
	}
}
