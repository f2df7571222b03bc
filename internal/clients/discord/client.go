// Package discord содержит REST-клиент Discord для личных сообщений
// и управления ролями участников сервера.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrDMDisabled возвращается, если пользователь закрыл личные сообщения.
	ErrDMDisabled = errors.New("discord direct messages disabled")
	// ErrDisabled возвращается, если бот не настроен.
	ErrDisabled = errors.New("discord client disabled")
)

// codeCannotSendToUser код ошибки Discord "Cannot send messages to this user".
const codeCannotSendToUser = 50007

// APIError ошибка, которую вернул Discord.
type APIError struct {
	Status  int    `json:"-"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("discord api: status %d, code %d: %s", e.Status, e.Code, e.Message)
}

// Client ходит в Discord REST API от имени бота.
type Client struct {
	token      string
	guildID    string
	apiURL     string
	httpClient *http.Client
}

// NewClient создаёт клиент. Пустой token отключает клиент.
func NewClient(token, guildID, apiURL string) *Client {
	return &Client{
		token:      token,
		guildID:    guildID,
		apiURL:     strings.TrimRight(apiURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Enabled сообщает, настроен ли бот.
func (c *Client) Enabled() bool {
	return c.token != ""
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if !c.Enabled() {
		return ErrDisabled
	}

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bot "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		if apiErr.Code == codeCannotSendToUser {
			return fmt.Errorf("%w: %w", ErrDMDisabled, apiErr)
		}
		return apiErr
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// SendDirectMessage открывает личный канал с пользователем и пишет в него.
func (c *Client) SendDirectMessage(ctx context.Context, userID, content string) error {
	const op = "discord.SendDirectMessage"

	var channel struct {
		ID string `json:"id"`
	}
	err := c.do(ctx, http.MethodPost, "/users/@me/channels", map[string]string{"recipient_id": userID}, &channel)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = c.do(ctx, http.MethodPost, "/channels/"+channel.ID+"/messages", map[string]string{"content": content}, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// AddRole выдаёт участнику роль на сервере.
func (c *Client) AddRole(ctx context.Context, userID, roleID string) error {
	const op = "discord.AddRole"
	if err := c.do(ctx, http.MethodPut, c.rolePath(userID, roleID), nil, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// RemoveRole снимает с участника роль.
func (c *Client) RemoveRole(ctx context.Context, userID, roleID string) error {
	const op = "discord.RemoveRole"
	if err := c.do(ctx, http.MethodDelete, c.rolePath(userID, roleID), nil, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (c *Client) rolePath(userID, roleID string) string {
	return "/guilds/" + c.guildID + "/members/" + userID + "/roles/" + roleID
}
