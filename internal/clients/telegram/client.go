// Package telegram отправляет сообщения через Telegram Bot API
// с ограничением частоты исходящих запросов.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"
)

// ErrDisabled возвращается, если токен бота не задан.
var ErrDisabled = errors.New("telegram client disabled")

// Действия в callback-данных кнопок входа в админку.
const (
	ActionApprove = "approve"
	ActionDeny    = "deny"

	loginPrefix = "login:"
)

// Client обёртка над tgbotapi.BotAPI.
type Client struct {
	api     *tgbotapi.BotAPI
	limiter *rate.Limiter
}

// New создаёт клиент. Пустой token даёт выключенный клиент.
func New(token string, rateLimit float64) (*Client, error) {
	return NewWithEndpoint(token, tgbotapi.APIEndpoint, &http.Client{}, rateLimit)
}

// NewWithEndpoint создаёт клиент с нестандартным адресом Bot API.
// endpoint в формате tgbotapi: "https://host/bot%s/%s".
func NewWithEndpoint(token, endpoint string, httpClient *http.Client, rateLimit float64) (*Client, error) {
	const op = "telegram.New"
	limit := rate.Inf
	if rateLimit > 0 {
		limit = rate.Limit(rateLimit)
	}
	c := &Client{limiter: rate.NewLimiter(limit, 1)}
	if token == "" {
		return c, nil
	}

	api, err := tgbotapi.NewBotAPIWithClient(token, endpoint, httpClient)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	c.api = api
	return c, nil
}

// Enabled сообщает, настроен ли бот.
func (c *Client) Enabled() bool {
	return c.api != nil
}

// Username возвращает имя бота.
func (c *Client) Username() string {
	if c.api == nil {
		return ""
	}
	return c.api.Self.UserName
}

func (c *Client) send(ctx context.Context, msg tgbotapi.Chattable) error {
	if c.api == nil {
		return ErrDisabled
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := c.api.Request(msg)
	return err
}

// SendMessage отправляет текстовое сообщение.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	const op = "telegram.SendMessage"
	if err := c.send(ctx, tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SendLoginPrompt присылает админу запрос на вход с кнопками подтверждения.
func (c *Client) SendLoginPrompt(ctx context.Context, chatID int64, requestID string) error {
	const op = "telegram.SendLoginPrompt"
	msg := tgbotapi.NewMessage(chatID, "Запрос на вход в админку. Подтвердить?")
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Подтвердить", LoginCallbackData(ActionApprove, requestID)),
			tgbotapi.NewInlineKeyboardButtonData("❌ Отклонить", LoginCallbackData(ActionDeny, requestID)),
		),
	)
	if err := c.send(ctx, msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// AnswerCallback отвечает на нажатие кнопки.
func (c *Client) AnswerCallback(ctx context.Context, callbackID, text string) error {
	const op = "telegram.AnswerCallback"
	if err := c.send(ctx, tgbotapi.NewCallback(callbackID, text)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// EditMessage заменяет текст сообщения и убирает клавиатуру.
func (c *Client) EditMessage(ctx context.Context, chatID int64, messageID int, text string) error {
	const op = "telegram.EditMessage"
	if err := c.send(ctx, tgbotapi.NewEditMessageText(chatID, messageID, text)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SetWebhook регистрирует адрес вебхука с секретным токеном.
func (c *Client) SetWebhook(url, secret string) error {
	const op = "telegram.SetWebhook"
	if c.api == nil {
		return fmt.Errorf("%s: %w", op, ErrDisabled)
	}
	params := tgbotapi.Params{"url": url}
	if secret != "" {
		params["secret_token"] = secret
	}
	if _, err := c.api.MakeRequest("setWebhook", params); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// LoginCallbackData собирает callback-данные вида login:<action>:<id>.
func LoginCallbackData(action, requestID string) string {
	return loginPrefix + action + ":" + requestID
}

// ParseLoginCallback разбирает callback-данные кнопки входа.
func ParseLoginCallback(data string) (action, requestID string, ok bool) {
	rest, found := strings.CutPrefix(data, loginPrefix)
	if !found {
		return "", "", false
	}
	action, requestID, found = strings.Cut(rest, ":")
	if !found || requestID == "" {
		return "", "", false
	}
	if action != ActionApprove && action != ActionDeny {
		return "", "", false
	}
	return action, requestID, true
}
