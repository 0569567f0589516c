package settings

import (
	"bufio"
	"fmt"
	"log"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"
)

var Settings *AppSettings

func NewSettings() *AppSettings {
	settings := AppSettings{
		SessionExpires:    time.Duration(30 * 24 * time.Hour),
		Domain:            getEnvOrDefault("SIMPLEDEPLOY_DOMAIN", "localhost"),
		Port:              getEnvOrDefault("SIMPLEDEPLOY_PORT", ":8080"),
		Database:          getEnvOrDefault("SIMPLEDEPLOY_DB_URL", "file:.///db.sqlite"),
		FrontendURL:       getEnvOrDefault("SIMPLEDEPLOY_FRONTEND_URL", "http://localhost:5173"),
		GiteaURL:          os.Getenv("GITEA_URL"),
		GiteaClientID:     os.Getenv("GITEA_CLIENT_ID"),
		GiteaClientSecret: os.Getenv("GITEA_CLIENT_SECRET"),
		GiteaRedirectURI:  os.Getenv("GITEA_REDIRECT_URI"),
	}
	if !strings.HasPrefix(settings.Port, ":") {
		settings.Port = ":" + settings.Port
	}
	return &settings
}

func getEnvOrDefault(key, defaultValue string) string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	return value
}

type AppSettings struct {
	Title             string
	Database          string
	Domain            string
	Port              string
	FrontendURL       string
	GiteaURL          string
	GiteaClientID     string
	GiteaClientSecret string
	GiteaRedirectURI  string
	SessionExpires    time.Duration
}

func (as *AppSettings) BaseURL() string {
	if as.Domain == "localhost" {
		return fmt.Sprintf("http://%s%s", as.Domain, as.Port)
	} else {
		return fmt.Sprintf("https://%s", as.Domain)
	}
}

// UsesPostgres reports whether the configured database URL points at a
// Postgres server instead of the default local SQLite file.
func (as *AppSettings) UsesPostgres() bool {
	return strings.HasPrefix(as.Database, "postgres://") ||
		strings.HasPrefix(as.Database, "postgresql://")
}

func (as *AppSettings) SQLiteDbString(readonly bool) string {
	params := make(url.Values)
	params.Add("_journal_mode", "WAL")
	params.Add("_busy_timeout", "5000")
	params.Add("_synchronous", "NORMAL")
	params.Add("_cache_size", "-20000")
	params.Add("_foreign_keys", "ON")
	if readonly {
		params.Add("mode", "ro")
	} else {
		params.Add("_txlock", "IMMEDIATE")
		params.Add("mode", "rwc")
	}

	return as.Database + "?" + params.Encode()
}

func ReadDotenv(path string) {
	re := regexp.MustCompile(`^[^0-9][A-Z0-9_]+=.+$`)
	f, err := os.Open(path)
	if err != nil {
		log.Fatal("err opening dotenv: ", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) > 0 && line[0] != '#' && re.Match(line) {
			split := strings.Split(string(line), "=")
			name := strings.TrimSpace(split[0])
			value := strings.TrimSpace(split[1])
			value = strings.Trim(value, `"`)
			os.Setenv(name, value)
		}
	}
}
