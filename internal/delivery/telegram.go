package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/hvirtan/reportpipe/internal/store"
)

const (
	telegramAPIBase = "https://api.telegram.org"
	// Telegram rejects messages over 4096 characters.
	telegramMessageLimit = 4096
	truncationMarker     = "..."
)

type TelegramSender struct {
	http    *http.Client
	baseURL string
}

func NewTelegramSender(client *http.Client) *TelegramSender {
	return &TelegramSender{http: client, baseURL: telegramAPIBase}
}

// sendMessageRequest carries no parse_mode: the summary is sent as
// plain text, since agent output can contain stray markup characters
// that Telegram's markdown parser rejects outright.
type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

func (s *TelegramSender) Send(
	ctx context.Context,
	rep *store.Report,
	pipelineName, configJSON string,
) error {
	conf, err := parseConfig[TelegramConfig](store.ChannelTelegram, configJSON)
	if err != nil {
		return err
	}
	if conf.BotToken == "" || conf.ChatID == "" {
		return errors.New("telegram config requires botToken and chatId")
	}

	body, err := json.Marshal(sendMessageRequest{
		ChatID: conf.ChatID,
		Text:   buildChatText(rep),
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.baseURL, conf.BotToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("sending telegram message: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
		return fmt.Errorf("telegram returned %d: %s", res.StatusCode, string(detail))
	}
	return nil
}

type chatSummary struct {
	Pipeline string `json:"pipeline"`
	Sections []struct {
		Agent   string `json:"agent"`
		Content string `json:"content"`
	} `json:"sections"`
}

var htmlTagRe = regexp.MustCompile(`<[^>]*>`)

// buildChatText assembles a plain-text summary from the report's JSON
// summary sections and truncates it to the transport's message limit.
// A truncated message is exactly the limit long and ends with the
// marker.
func buildChatText(rep *store.Report) string {
	var summary chatSummary
	text := rep.Title + "\n"
	if err := json.Unmarshal([]byte(rep.ContentJSON), &summary); err == nil {
		var sb strings.Builder
		sb.WriteString(text)
		for _, section := range summary.Sections {
			sb.WriteString("\n" + section.Agent + "\n")
			sb.WriteString(cleanChatContent(section.Content))
			sb.WriteByte('\n')
		}
		text = sb.String()
	}

	runes := []rune(text)
	if len(runes) > telegramMessageLimit {
		keep := telegramMessageLimit - len(truncationMarker)
		text = string(runes[:keep]) + truncationMarker
	}
	return text
}

func cleanChatContent(content string) string {
	content = htmlTagRe.ReplaceAllString(content, "")
	content = strings.ReplaceAll(content, "**", "")
	return strings.TrimSpace(content)
}
