package notifications

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultTelegramAPI = "https://api.telegram.org"
	// Telegram caps a message at 4096 characters.
	telegramChunkRunes = 3900
)

type telegramTransport struct {
	endpoint string
	chatID   string
	client   *http.Client
}

func newTelegram(baseURL, token, chatID string, timeout time.Duration) *telegramTransport {
	return &telegramTransport{
		endpoint: fmt.Sprintf("%s/bot%s/sendMessage", baseURL, token),
		chatID:   chatID,
		client:   &http.Client{Timeout: timeout},
	}
}

func (t *telegramTransport) name() string { return "telegram" }

func (t *telegramTransport) send(ctx context.Context, msg message) error {
	text := msg.body
	if msg.title != "" {
		text = msg.title + "\n" + msg.body
	}
	for _, chunk := range chunkRunes(text, telegramChunkRunes) {
		if err := t.post(ctx, chunk); err != nil {
			return err
		}
	}
	return nil
}

func (t *telegramTransport) post(ctx context.Context, text string) error {
	form := url.Values{}
	form.Set("chat_id", t.chatID)
	form.Set("text", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build telegram request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		// The request URL embeds the bot token.
		return fmt.Errorf("send telegram notification: %w", redactURLError(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("telegram returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func redactURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}

// chunkRunes splits s into pieces of at most n runes.
func chunkRunes(s string, n int) []string {
	runes := []rune(s)
	if len(runes) <= n {
		return []string{s}
	}
	chunks := make([]string, 0, len(runes)/n+1)
	for start := 0; start < len(runes); start += n {
		end := min(start+n, len(runes))
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
