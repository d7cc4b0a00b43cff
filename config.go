package main

import (
	"bufio"
	"os"
	"strconv"
	"strings"
)

const (
	defaultPort       = 7249
	defaultPolicyPort = 843
)

type config struct {
	IP   string // bind address, empty = all interfaces
	Port int
	MOTD string // pre-wrapped chat line, empty if unset

	LogFile     string
	MetricsPort int // 0 disables the metrics endpoint
	PolicyPort  int // 0 disables the policy listener
	Debug       bool
}

func defaultConfig() config {
	return config{
		Port:       defaultPort,
		PolicyPort: defaultPolicyPort,
	}
}

// loadConfig reads the key = value file at path. A // starts a trailing
// comment, unknown keys and malformed numbers are ignored, and a missing
// file leaves every default in place.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()

	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if i := strings.Index(line, "//"); i >= 0 {
			line = line[:i]
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)

		switch key {
		case "ip":
			cfg.IP = value
		case "port":
			if n, err := strconv.Atoi(value); err == nil {
				cfg.Port = n
			}
		case "motd":
			cfg.MOTD = motdLine(value)
		case "log_file":
			cfg.LogFile = value
		case "metrics_port":
			if n, err := strconv.Atoi(value); err == nil {
				cfg.MetricsPort = n
			}
		case "policy_port":
			if n, err := strconv.Atoi(value); err == nil {
				cfg.PolicyPort = n
			}
		case "debug":
			cfg.Debug = value == "true"
		}
	}
	return cfg, sc.Err()
}

// motdLine wraps the message of the day into the chat format replayed to
// lobby joiners, attributed to connection 0.
func motdLine(motd string) string {
	return "^0" + sep + "&#0;" + sep + motd + "\n"
}
