package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything the server needs from the environment so main
// stays lean. Absent optional values disable the corresponding signal or sink,
// never the whole service.
type Config struct {
	Addr    string
	BaseURL string

	PostgresDSN string
	RedisURL    string

	// Policy knobs.
	MinAccountAgeDays   int
	AltAccountThreshold int

	// Anonymizer detector.
	ExitRelayURL     string
	ExitRelayTTL     time.Duration
	ASNDatabasePath  string
	ReputationAPIURL string
	ReputationAPIKey string

	// Admin surface: shared HS256 key the chat collaborator signs service
	// tokens with.
	AdminSigningKey string

	// Chat-platform collaborator endpoint for role grants, moderation and
	// profile lookups.
	GatewayURL   string
	GatewayToken string

	// Optional audit bus. Empty brokers keep audit on the database store.
	AuditBrokers []string
	AuditTopic   string
}

// Defaults mirror the policy the service shipped with: six months minimum
// account age and zero tolerance for address reuse.
const (
	DefaultMinAccountAgeDays   = 180
	DefaultAltAccountThreshold = 1
	DefaultExitRelayURL        = "https://check.torproject.org/exit-addresses"
	DefaultReputationAPIURL    = "http://v2.api.iphub.info/ip"
	DefaultExitRelayTTL        = time.Hour
)

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	cfg := Config{
		Addr:                envOr("GATEKEEPER_ADDR", ":8080"),
		BaseURL:             envOr("BASE_URL", "http://localhost:8080"),
		PostgresDSN:         os.Getenv("POSTGRES_DSN"),
		RedisURL:            os.Getenv("REDIS_URL"),
		MinAccountAgeDays:   envInt("MIN_ACCOUNT_AGE_DAYS", DefaultMinAccountAgeDays),
		AltAccountThreshold: envInt("MAX_ACCOUNTS_PER_ADDRESS", DefaultAltAccountThreshold),
		ExitRelayURL:        envOr("EXIT_RELAY_URL", DefaultExitRelayURL),
		ExitRelayTTL:        envDuration("EXIT_RELAY_TTL", DefaultExitRelayTTL),
		ASNDatabasePath:     os.Getenv("ASN_DB_PATH"),
		ReputationAPIURL:    envOr("REPUTATION_API_URL", DefaultReputationAPIURL),
		ReputationAPIKey:    os.Getenv("REPUTATION_API_KEY"),
		AdminSigningKey:     os.Getenv("ADMIN_SIGNING_KEY"),
		GatewayURL:          os.Getenv("GATEWAY_URL"),
		GatewayToken:        os.Getenv("GATEWAY_TOKEN"),
		AuditTopic:          envOr("AUDIT_TOPIC", "gatekeeper.audit"),
	}
	if brokers := os.Getenv("AUDIT_BROKERS"); brokers != "" {
		cfg.AuditBrokers = splitAndTrim(brokers)
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func splitAndTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
