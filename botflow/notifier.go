package botflow

import (
	"context"
	"fmt"

	"github.com/m3rciful/diaglink/core/telegram/keyboard"

	tele "gopkg.in/telebot.v4"
)

// chatRecipient adapts a stored chat id (text) to the telebot send API.
type chatRecipient string

func (r chatRecipient) Recipient() string { return string(r) }

// Notifier delivers the completion notice to a chat: a group-invite button
// always, a payment button when configured. It satisfies tokens.Gateway.
type Notifier struct {
	bot       *tele.Bot
	inviteURL string
	payURL    string
}

// NewNotifier builds a notifier on top of an assembled bot.
func NewNotifier(bot *tele.Bot, inviteURL, payURL string) *Notifier {
	return &Notifier{bot: bot, inviteURL: inviteURL, payURL: payURL}
}

// SendCompletion sends the "diagnostic finished" message synchronously so
// the caller observes delivery failure.
func (n *Notifier) SendCompletion(_ context.Context, chatID, clientName string) error {
	if clientName == "" {
		clientName = textDoneFallback
	}

	rows := [][]keyboard.InlineBtn{
		{{Text: textGroupBtn, URL: n.inviteURL}},
	}
	if n.payURL != "" {
		rows = append(rows, []keyboard.InlineBtn{{Text: textPayBtn, URL: n.payURL}})
	}

	text := fmt.Sprintf(textCompletedFmt, clientName)
	_, err := n.bot.Send(chatRecipient(chatID), text, &tele.SendOptions{
		ReplyMarkup: keyboard.InlineButtonsRows(rows...),
	})
	if err != nil {
		return fmt.Errorf("botflow: completion notice to chat %s: %w", chatID, err)
	}
	return nil
}
