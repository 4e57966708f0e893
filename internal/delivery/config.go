// Package delivery fans generated reports out to the configured
// channels: email, webhook and telegram. One channel's failure never
// affects another's.
package delivery

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"

	"github.com/hvirtan/reportpipe/internal/store"
)

type EmailConfig struct {
	SMTPHost string `json:"smtpHost"`
	SMTPPort int    `json:"smtpPort"`
	// Secure selects implicit TLS (SMTPS, typically port 465) instead
	// of a plaintext dial.
	Secure   bool     `json:"secure"`
	Username string   `json:"username"`
	Password string   `json:"password"`
	From     string   `json:"from"`
	To       []string `json:"to"`
}

type WebhookConfig struct {
	URL     string            `json:"url"`
	Method  string            `json:"method"`
	Headers map[string]string `json:"headers"`
}

type TelegramConfig struct {
	BotToken string `json:"botToken"`
	ChatID   string `json:"chatId"`
}

var envRefRe = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// resolveEnvRefs substitutes ${VAR} references in a config blob with
// environment values, so secrets like bot tokens and SMTP passwords
// never have to live in the database.
func resolveEnvRefs(configJSON string) string {
	return envRefRe.ReplaceAllStringFunc(configJSON, func(ref string) string {
		name := envRefRe.FindStringSubmatch(ref)[1]
		if value, ok := os.LookupEnv(name); ok {
			return value
		}
		return ref
	})
}

func parseConfig[T any](channel store.Channel, configJSON string) (T, error) {
	var conf T
	if err := json.Unmarshal([]byte(resolveEnvRefs(configJSON)), &conf); err != nil {
		return conf, fmt.Errorf("invalid %s config: %w", channel, err)
	}
	return conf, nil
}
