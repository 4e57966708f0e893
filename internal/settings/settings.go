package settings

import (
	"bufio"
	"fmt"
	"log"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
)

var Settings *AppSettings

type AppSettings struct {
	SQLiteDatabase string
	Port           string
	LLMAPIKey      string
	LLMBaseURL     string
	LLMModel       string
	AppBaseURL     string
	PollBatchSize  int64
}

func NewSettings() *AppSettings {
	settings := AppSettings{
		SQLiteDatabase: getEnvOrDefault("REPORTPIPE_DB_PATH", "file:.///db.sqlite"),
		Port:           getEnvOrDefault("REPORTPIPE_PORT", ":8080"),
		LLMAPIKey:      mustGetEnv("REPORTPIPE_LLM_API_KEY"),
		LLMBaseURL:     getEnvOrDefault("REPORTPIPE_LLM_BASE_URL", "https://api.anthropic.com"),
		LLMModel:       getEnvOrDefault("REPORTPIPE_LLM_MODEL", "claude-sonnet-4-5"),
		AppBaseURL:     mustGetEnv("REPORTPIPE_APP_BASE_URL"),
		PollBatchSize:  getEnvInt64OrDefault("REPORTPIPE_POLL_BATCH_SIZE", 10),
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

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		log.Fatalf("environment variable %s must be an integer, got %q", key, value)
	}
	return n
}

func mustGetEnv(key string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		log.Fatalf("required environment variable %s is not set", key)
	}
	return value
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

	return as.SQLiteDatabase + "?" + params.Encode()
}

func ReadDotenv(path string) {
	re := regexp.MustCompile(`^[^0-9][A-Z0-9_]+=.+$`)
	f, err := os.Open(path)
	if err != nil {
		return
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

func (as *AppSettings) BaseURL() string {
	return fmt.Sprintf("http://localhost%s", as.Port)
}
