package botflow

import (
	"context"
	"strconv"

	tg "github.com/m3rciful/diaglink/core/telegram"
	tghelpers "github.com/m3rciful/diaglink/core/telegram/helpers"
	"github.com/m3rciful/diaglink/core/telegram/keyboard"
	"github.com/m3rciful/diaglink/core/telegram/router"

	tele "gopkg.in/telebot.v4"
)

// Issuer is the slice of the token service the chat flow needs.
type Issuer interface {
	Issue(ctx context.Context, chatID, source, campaign string) (string, error)
}

// NewRegistry wires the diagnostic flow: the /start command with its
// plain-text aliases, the generic prompt fallback, and the start_diag
// invitation callback.
func NewRegistry(svc Issuer) *tg.Registry {
	reg := tg.NewRegistry()

	reg.RegisterCommand("/start", tg.Command{
		Handler:     greet,
		Description: startDescription,
		Aliases:     []string{"start", "Start", "начать", "Начать"},
	})
	reg.SetTextFallback(prompt)
	_ = reg.RegisterCallback(callbackStartDiag, issueLink(svc))

	return reg
}

// Routes assembles the handler set the bot is built with.
func Routes(reg *tg.Registry) []tg.Route {
	routes := router.CommandRoutes(reg)
	routes = append(routes, router.TextRoutes(reg, router.TextOptions{})...)
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))
	return routes
}

func greet(c tele.Context) error {
	return tghelpers.SendKeyboard(c, textGreeting, keyboard.SingleCallback(textStartBtn, callbackStartDiag))
}

func prompt(c tele.Context) error {
	return tghelpers.SendKeyboard(c, textPrompt, keyboard.SingleCallback(textStartBtn, callbackStartDiag))
}

func issueLink(svc Issuer) tele.HandlerFunc {
	return func(c tele.Context) error {
		chat := c.Chat()
		if chat == nil {
			// Nothing to reply to; acknowledge and drop.
			return nil
		}

		ctx := tghelpers.BuildContext(c)
		link, err := svc.Issue(ctx, strconv.FormatInt(chat.ID, 10), "tg", "")
		if err != nil {
			return err
		}

		return tghelpers.SendKeyboard(c, textLinkSent, keyboard.SingleURL(textOpenBtn, link))
	}
}
