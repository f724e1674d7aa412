package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode     Mode
	HTTPAddr string

	DBDriver string // sqlite|postgres|memory
	DBDSN    string

	BlobBasePath string

	AuthHMACSecret  string
	EnableLocalAuth bool

	// Seeded on startup when no user with this email exists.
	AdminEmail    string
	AdminPassHash string // bcrypt

	CORSOrigins []string

	// Empty means certificates are rendered as plain text in process.
	CertRendererURL     string
	CertRendererTimeout time.Duration

	PassingScoreDefault int
}

// Load reads an optional .env file (path from ENV_FILE, default ".env") and
// then builds the config from the environment. Real environment variables
// win over the file.
func Load() Config {
	file := envOr("ENV_FILE", ".env")
	if err := godotenv.Load(file); err != nil && !os.IsNotExist(err) {
		log.Printf("warn: reading %s: %v", file, err)
	}
	return FromEnv()
}

func FromEnv() Config {
	mode := Mode(os.Getenv("MODE"))
	if mode == "" {
		mode = ModeOffline
	}
	defOrigins := "http://localhost:3000,http://localhost:5173"
	if mode == ModeOnline {
		defOrigins = ""
	}
	return Config{
		Mode:                mode,
		HTTPAddr:            envOr("HTTP_ADDR", ":8080"),
		DBDriver:            envOr("DB_DRIVER", "sqlite"),
		DBDSN:               envOr("DB_DSN", ""),
		BlobBasePath:        envOr("BLOB_BASE_PATH", "./data"),
		AuthHMACSecret:      envOr("AUTH_HMAC_SECRET", "dev-secret-change-me"),
		EnableLocalAuth:     envBool("ENABLE_LOCAL_AUTH", true),
		AdminEmail:          envOr("ADMIN_EMAIL", "admin@localhost"),
		AdminPassHash:       os.Getenv("ADMIN_PASS_HASH"),
		CORSOrigins:         csvOr("CORS_ORIGINS", defOrigins),
		CertRendererURL:     os.Getenv("CERT_RENDERER_URL"),
		CertRendererTimeout: envDuration("CERT_RENDERER_TIMEOUT", 10*time.Second),
		PassingScoreDefault: envInt("PASSING_SCORE_DEFAULT", 50),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}

func envInt(k string, def int) int {
	n, err := strconv.Atoi(os.Getenv(k))
	if err != nil {
		return def
	}
	return n
}

func envDuration(k string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(k))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
