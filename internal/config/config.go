package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Addr          string        // API bind address, e.g. "127.0.0.1:8080"
	LogDir        string        // logs directory
	KeysFile      string        // optional JSON file of provider API keys
	ProbeTimeout  time.Duration // per-probe time budget
	CycleInterval time.Duration // wall-clock gap between monitoring cycles
	HistoryLimit  int           // pings kept per target for verdicts
	RatePerMin    int           // API rate limit (0 disables)
	RateBurst     int
	SlackWebhook  string // optional up/down alert webhook
}

func FromEnv() Config {
	addr := os.Getenv("API_ADDR")
	if addr == "" {
		addr = "127.0.0.1:8080"
	}

	logDir := os.Getenv("LOG_DIR")
	if logDir == "" {
		logDir = "logs"
	}

	probeTimeout := 10 * time.Second
	if v := os.Getenv("PROBE_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			probeTimeout = time.Duration(ms) * time.Millisecond
		}
	}

	cycleInterval := 30 * time.Second
	if v := os.Getenv("CYCLE_INTERVAL_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			cycleInterval = time.Duration(ms) * time.Millisecond
		}
	}

	historyLimit := 20
	if v := os.Getenv("HISTORY_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			historyLimit = n
		}
	}

	ratePerMin := 240
	if v := os.Getenv("RATE_PER_MIN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			ratePerMin = n
		}
	}
	rateBurst := 60
	if v := os.Getenv("RATE_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			rateBurst = n
		}
	}

	return Config{
		Addr:          addr,
		LogDir:        logDir,
		KeysFile:      os.Getenv("KEYS_FILE"),
		ProbeTimeout:  probeTimeout,
		CycleInterval: cycleInterval,
		HistoryLimit:  historyLimit,
		RatePerMin:    ratePerMin,
		RateBurst:     rateBurst,
		SlackWebhook:  os.Getenv("SLACK_WEBHOOK"),
	}
}
