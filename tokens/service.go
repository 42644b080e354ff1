package tokens

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/m3rciful/diaglink/core/logger"
)

// Complete outcomes. Soft business failures are values, not errors; only
// store or gateway trouble comes back as an error.
type CompleteOutcome string

const (
	OutcomeOK            CompleteOutcome = "ok"
	OutcomeTokenNotFound CompleteOutcome = "token_not_found"
	OutcomeChatIDMissing CompleteOutcome = "tg_chat_id_missing"
)

const (
	defaultSource     = "tg"
	defaultClientName = "Клиент"
)

// Gateway delivers the completion notice to a chat.
type Gateway interface {
	SendCompletion(ctx context.Context, chatID, clientName string) error
}

// Service owns the link-token lifecycle: issue, lookup, complete.
type Service struct {
	store   Store
	gateway Gateway
	appURL  string

	now      func() time.Time
	newToken func() (string, error)
}

// NewService builds the token service. appURL is the public base the
// issued links point at, already validated and trimmed by config.
func NewService(store Store, gateway Gateway, appURL string) *Service {
	return &Service{
		store:    store,
		gateway:  gateway,
		appURL:   appURL,
		now:      time.Now,
		newToken: NewToken,
	}
}

// SetGateway attaches the completion notifier. The gateway is built on top
// of the bot, which itself depends on this service for issuance, so it is
// wired in a second phase before serving starts.
func (s *Service) SetGateway(gw Gateway) {
	s.gateway = gw
}

// Issue creates a fresh token bound to chatID and returns the personal
// link embedding it. Empty source defaults to "tg".
func (s *Service) Issue(ctx context.Context, chatID, source, campaign string) (string, error) {
	if chatID == "" {
		return "", ErrChatIDRequired
	}
	if source == "" {
		source = defaultSource
	}

	token, err := s.newToken()
	if err != nil {
		return "", err
	}

	row := LinkToken{
		Token:     token,
		ChatID:    chatID,
		Source:    source,
		Campaign:  campaign,
		Status:    StatusIssued,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.Insert(ctx, row); err != nil {
		return "", err
	}

	logger.Info(ctx, "service.tokens", "token.issued",
		slog.String("token", logger.Sanitize(token)),
		slog.String("chat_id", chatID),
		slog.String("source", source),
	)
	return s.appURL + "/?t=" + token, nil
}

// Lookup returns the most recent record for the token, or ErrTokenNotFound.
func (s *Service) Lookup(ctx context.Context, token string) (LinkToken, error) {
	return s.store.FindByToken(ctx, token)
}

// Complete marks the token used and notifies the owning chat. The status
// flip is a compare-and-set, so repeated or racing calls settle on exactly
// one transition and exactly one notification.
func (s *Service) Complete(ctx context.Context, token, sessionID, clientName string) (CompleteOutcome, error) {
	if clientName == "" {
		clientName = defaultClientName
	}

	row, err := s.store.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return OutcomeTokenNotFound, nil
		}
		return "", err
	}
	if row.ChatID == "" {
		return OutcomeChatIDMissing, nil
	}

	transitioned, err := s.store.CompleteIfIssued(ctx, token, sessionID, s.now().UTC())
	if err != nil {
		return "", err
	}
	if !transitioned {
		// Already completed: no-op success, no second notification.
		logger.Info(ctx, "service.tokens", "token.complete.repeat",
			slog.String("token", logger.Sanitize(token)),
		)
		return OutcomeOK, nil
	}

	if err := s.gateway.SendCompletion(ctx, row.ChatID, clientName); err != nil {
		// The row is already completed in the store and is not rolled back;
		// the user never saw the notice. Log the divergence and surface the
		// failure to the caller.
		logger.Error(ctx, "service.tokens", "token.complete.notify_diverged",
			slog.String("token", logger.Sanitize(token)),
			slog.String("chat_id", row.ChatID),
			slog.String("err", err.Error()),
		)
		return "", fmt.Errorf("tokens: completion notice: %w", err)
	}

	logger.Info(ctx, "service.tokens", "token.completed",
		slog.String("token", logger.Sanitize(token)),
		slog.String("session_id", sessionID),
	)
	return OutcomeOK, nil
}
