package telegram

import (
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/diaglink/core/config"
	tghelpers "github.com/m3rciful/diaglink/core/telegram/helpers"
	"github.com/m3rciful/diaglink/core/telegram/middleware"
	tgsender "github.com/m3rciful/diaglink/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

// Middleware describes a global bot middleware to be registered via bot.Use.
type Middleware struct {
	Name string
	Use  func(next tele.HandlerFunc) tele.HandlerFunc
}

// Route declares a single bot handler bound to an arbitrary endpoint.
// Endpoint values are passed directly to tele.Bot.Handle.
type Route struct {
	Endpoint any
	Handler  tele.HandlerFunc
}

// Options configures the webhook-driven bot assembly.
type Options struct {
	Token    string
	Registry *Registry

	// Offline skips the getMe probe; used by tests.
	Offline bool
	// URL overrides the Bot API base address. Empty means api.telegram.org.
	URL string

	DispatcherOptions tgsender.Options
	Dispatcher        *tgsender.Dispatcher

	Middlewares []Middleware
	Routes      []Route
}

// Bot wraps a tele.Bot fed exclusively through ProcessUpdate. There is no
// poller: Telegram delivers updates to the HTTP layer, which hands each
// decoded update to Feed.
type Bot struct {
	bot        *tele.Bot
	registry   *Registry
	dispatcher *tgsender.Dispatcher
	ownsDisp   bool
}

// New assembles the bot, wires middlewares and routes, and starts the
// outbound dispatcher. Handlers run synchronously inside Feed so that the
// webhook endpoint observes panics through the recover middleware; the
// actual Telegram sends go through the async dispatcher.
func New(opts Options) (*Bot, error) {
	reg := opts.Registry
	if reg == nil {
		reg = NewRegistry()
	}

	settings := tele.Settings{
		URL:         opts.URL,
		Token:       opts.Token,
		Client:      BuildHTTPClient(),
		Offline:     opts.Offline,
		Synchronous: true,
	}

	bot, err := tele.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("telegram: bot initialization failed: %w", err)
	}

	dispatcher := opts.Dispatcher
	ownsDisp := dispatcher == nil
	if dispatcher == nil {
		dispatcher = tgsender.NewDispatcher(opts.DispatcherOptions)
	}
	tghelpers.SetDispatcher(dispatcher)

	for _, mw := range opts.Middlewares {
		if mw.Use == nil {
			continue
		}
		bot.Use(mw.Use)
	}

	for _, route := range opts.Routes {
		if route.Endpoint == nil || route.Handler == nil {
			continue
		}
		bot.Handle(route.Endpoint, route.Handler)
	}

	if !opts.Offline {
		InitBotCommands(bot, reg)
	}

	return &Bot{
		bot:        bot,
		registry:   reg,
		dispatcher: dispatcher,
		ownsDisp:   ownsDisp,
	}, nil
}

// Feed routes a single decoded update through the handler chain.
func (b *Bot) Feed(u tele.Update) {
	b.bot.ProcessUpdate(u)
}

// Telebot exposes the underlying bot for direct API calls.
func (b *Bot) Telebot() *tele.Bot {
	return b.bot
}

// Registry returns the command/callback registry the bot was built with.
func (b *Bot) Registry() *Registry {
	return b.registry
}

// Dispatcher returns the outbound send dispatcher.
func (b *Bot) Dispatcher() *tgsender.Dispatcher {
	return b.dispatcher
}

// Close drains the dispatcher and detaches it from the send helpers.
func (b *Bot) Close() {
	if b.ownsDisp && b.dispatcher != nil {
		b.dispatcher.Close()
	}
	tghelpers.SetDispatcher(nil)
}

// DefaultMiddlewares builds the shared middleware chain for the bot.
func DefaultMiddlewares(cfg *coreconfig.Config, onLimited func(tele.Context) error) []Middleware {
	mws := []Middleware{
		{Name: "recover", Use: middleware.RecoverMiddleware},
	}

	if cfg != nil {
		interval := time.Duration(cfg.RateLimit.IntervalMS) * time.Millisecond
		if interval > 0 {
			ex := make(map[string]struct{}, len(cfg.RateLimit.ExcludeUpdates))
			for _, t := range cfg.RateLimit.ExcludeUpdates {
				ex[strings.ToLower(t)] = struct{}{}
			}
			opts := middleware.RateLimitOptions{
				Interval: interval,
				Exclude:  ex,
			}
			if onLimited != nil {
				opts.OnLimited = onLimited
			}
			mws = append(mws, Middleware{
				Name: "rate_limit",
				Use:  middleware.RateLimitMiddleware(opts),
			})
		}
	}

	mws = append(mws,
		Middleware{Name: "logger", Use: middleware.LoggerMiddleware},
		Middleware{Name: "metrics", Use: middleware.MessageMetricsMiddleware},
	)

	return mws
}
