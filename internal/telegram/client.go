package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

const defaultAPIURL = "https://api.telegram.org"

type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type Chat struct {
	ID int64 `json:"id"`
}

type Message struct {
	MessageID int64  `json:"message_id"`
	From      *User  `json:"from"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text"`
}

type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message"`
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

// Client talks to the Telegram Bot API over plain HTTPS.
type Client struct {
	token   string
	baseURL string
	client  *http.Client
	logger  *logrus.Logger
}

// NewClient creates a Bot API client. The HTTP timeout leaves room for
// long polling requests of pollTimeout.
func NewClient(token string, pollTimeout time.Duration, logger *logrus.Logger) *Client {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Client{
		token:   token,
		baseURL: defaultAPIURL,
		client: &http.Client{
			Timeout: pollTimeout + 10*time.Second,
		},
		logger: logger,
	}
}

// GetUpdates long-polls for updates newer than offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	payload := map[string]interface{}{
		"offset":          offset,
		"timeout":         int(timeout.Seconds()),
		"allowed_updates": []string{"message"},
	}

	var updates []Update
	if err := c.call(ctx, "getUpdates", payload, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// SendMessage sends text to a chat, optionally formatted as HTML.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, html bool) error {
	payload := map[string]interface{}{
		"chat_id": chatID,
		"text":    text,
	}
	if html {
		payload["parse_mode"] = "HTML"
	}
	return c.call(ctx, "sendMessage", payload, nil)
}

// SendDocument uploads the file at path to a chat.
func (c *Client) SendDocument(ctx context.Context, chatID int64, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open document: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("chat_id", strconv.FormatInt(chatID, 10)); err != nil {
		return fmt.Errorf("failed to build document request: %w", err)
	}
	part, err := writer.CreateFormFile("document", filepath.Base(path))
	if err != nil {
		return fmt.Errorf("failed to build document request: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to build document request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL("sendDocument"), &body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return c.do("sendDocument", req, nil)
}

func (c *Client) call(ctx context.Context, method string, payload interface{}, result interface{}) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL(method), bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.WithField("method", method).Debug("Calling Telegram API")
	return c.do(method, req, result)
}

func (c *Client) do(method string, req *http.Request, result interface{}) error {
	resp, err := c.client.Do(req)
	if err != nil {
		// url.Error carries the request URL, which embeds the token
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return fmt.Errorf("failed to reach Telegram API (%s): %w", method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read Telegram API response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return statusError(resp.StatusCode, body)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return fmt.Errorf("failed to decode Telegram API response: %w", err)
	}
	if !apiResp.OK {
		return fmt.Errorf("Telegram API error %d: %s", apiResp.ErrorCode, apiResp.Description)
	}

	if result != nil && len(apiResp.Result) > 0 {
		if err := json.Unmarshal(apiResp.Result, result); err != nil {
			return fmt.Errorf("failed to decode Telegram API result: %w", err)
		}
	}
	return nil
}

func (c *Client) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
}

func statusError(status int, body []byte) error {
	switch status {
	case http.StatusUnauthorized:
		return errors.New("invalid bot token - please check your token from @BotFather")
	case http.StatusBadRequest:
		return fmt.Errorf("invalid chat ID or message format: %s", string(body))
	case http.StatusForbidden:
		return errors.New("bot was blocked by the user or chat")
	case http.StatusNotFound:
		return errors.New("bot not found - please check your token from @BotFather")
	default:
		return fmt.Errorf("Telegram API error (status %d): %s", status, string(body))
	}
}
