package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	// Mode selects where the terminal client reads tests: the backend, or
	// OfflineFile.
	Mode     Mode
	HTTPAddr string

	DBDriver string
	DBDSN    string

	AuthSecret      string
	TokenTTL        time.Duration
	EnableLocalAuth bool

	CORSOrigins []string

	// client side: where the terminal client finds the backend
	APIBaseURL      string
	APITokenURL     string
	APIClientID     string
	APIClientSecret string
	APITimeout      time.Duration

	OfflineFile string

	FocusHighlight time.Duration
	NavigateDelay  time.Duration

	// result forwarding; disabled when ForwardURL is empty
	ForwardURL          string
	ForwardTokenURL     string
	ForwardClientID     string
	ForwardClientSecret string
	ForwardInterval     time.Duration
}

// FromEnv reads configuration from the environment, after loading a .env
// file when one exists (path from ENV_FILE, default ".env").
func FromEnv() Config {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			log.Printf("config: load %s: %v", envFile, err)
		}
	}

	v := viper.New()
	v.SetDefault("MODE", string(ModeOnline))
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DB_DSN", "")
	v.SetDefault("AUTH_HMAC_SECRET", "supersecret-dev-key")
	v.SetDefault("TOKEN_TTL", 8*time.Hour)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("API_BASE_URL", "http://localhost:8080")
	v.SetDefault("API_TIMEOUT", 15*time.Second)
	v.SetDefault("FOCUS_HIGHLIGHT", 1500*time.Millisecond)
	v.SetDefault("NAVIGATE_DELAY", 1500*time.Millisecond)
	v.SetDefault("ENABLE_LOCAL_AUTH", true)
	v.SetDefault("FORWARD_INTERVAL", 30*time.Second)
	v.AutomaticEnv()

	mode := Mode(v.GetString("MODE"))
	if mode != ModeOffline {
		mode = ModeOnline
	}

	return Config{
		Mode:            mode,
		HTTPAddr:        v.GetString("HTTP_ADDR"),
		DBDriver:        v.GetString("DB_DRIVER"),
		DBDSN:           v.GetString("DB_DSN"),
		AuthSecret:      v.GetString("AUTH_HMAC_SECRET"),
		TokenTTL:        v.GetDuration("TOKEN_TTL"),
		EnableLocalAuth: v.GetBool("ENABLE_LOCAL_AUTH"),
		CORSOrigins:     csv(v.GetString("CORS_ORIGINS")),
		APIBaseURL:      v.GetString("API_BASE_URL"),
		APITokenURL:     v.GetString("API_TOKEN_URL"),
		APIClientID:     v.GetString("API_CLIENT_ID"),
		APIClientSecret: v.GetString("API_CLIENT_SECRET"),
		APITimeout:      v.GetDuration("API_TIMEOUT"),
		OfflineFile:     v.GetString("OFFLINE_FILE"),
		FocusHighlight:  v.GetDuration("FOCUS_HIGHLIGHT"),
		NavigateDelay:   v.GetDuration("NAVIGATE_DELAY"),

		ForwardURL:          v.GetString("FORWARD_URL"),
		ForwardTokenURL:     v.GetString("FORWARD_TOKEN_URL"),
		ForwardClientID:     v.GetString("FORWARD_CLIENT_ID"),
		ForwardClientSecret: v.GetString("FORWARD_CLIENT_SECRET"),
		ForwardInterval:     v.GetDuration("FORWARD_INTERVAL"),
	}
}

func csv(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
