package tokens

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type fakeStore struct {
	insertFn   func(ctx context.Context, t LinkToken) error
	findFn     func(ctx context.Context, token string) (LinkToken, error)
	completeFn func(ctx context.Context, token, sessionID string, completedAt time.Time) (bool, error)
}

func (s *fakeStore) Insert(ctx context.Context, t LinkToken) error {
	return s.insertFn(ctx, t)
}

func (s *fakeStore) FindByToken(ctx context.Context, token string) (LinkToken, error) {
	return s.findFn(ctx, token)
}

func (s *fakeStore) CompleteIfIssued(ctx context.Context, token, sessionID string, completedAt time.Time) (bool, error) {
	return s.completeFn(ctx, token, sessionID, completedAt)
}

type fakeGateway struct {
	sends   int
	lastTo  string
	lastFor string
	err     error
}

func (g *fakeGateway) SendCompletion(_ context.Context, chatID, clientName string) error {
	g.sends++
	g.lastTo = chatID
	g.lastFor = clientName
	return g.err
}

func newTestService(store Store, gw Gateway) *Service {
	svc := NewService(store, gw, "https://diag.example.com")
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestIssueInsertsAndBuildsLink(t *testing.T) {
	var inserted LinkToken
	store := &fakeStore{
		insertFn: func(_ context.Context, row LinkToken) error {
			inserted = row
			return nil
		},
	}
	svc := newTestService(store, &fakeGateway{})

	url, err := svc.Issue(context.Background(), "123", "", "spring")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if !strings.HasPrefix(url, "https://diag.example.com/?t=") {
		t.Fatalf("url = %q, want app-url prefix", url)
	}
	token := strings.TrimPrefix(url, "https://diag.example.com/?t=")
	if token != inserted.Token {
		t.Fatalf("url token %q != inserted token %q", token, inserted.Token)
	}
	if inserted.ChatID != "123" {
		t.Errorf("chat_id = %q, want 123", inserted.ChatID)
	}
	if inserted.Source != "tg" {
		t.Errorf("empty source should default to tg, got %q", inserted.Source)
	}
	if inserted.Campaign != "spring" {
		t.Errorf("campaign = %q, want spring", inserted.Campaign)
	}
	if inserted.Status != StatusIssued {
		t.Errorf("status = %q, want %q", inserted.Status, StatusIssued)
	}
	if inserted.CompletedAt != nil || inserted.SessionID != nil {
		t.Error("fresh token must not carry completion fields")
	}
}

func TestIssueRequiresChatID(t *testing.T) {
	svc := newTestService(&fakeStore{}, &fakeGateway{})
	if _, err := svc.Issue(context.Background(), "", "", ""); !errors.Is(err, ErrChatIDRequired) {
		t.Fatalf("err = %v, want ErrChatIDRequired", err)
	}
}

func TestIssueSurfacesStoreError(t *testing.T) {
	boom := errors.New("connection reset")
	store := &fakeStore{
		insertFn: func(context.Context, LinkToken) error { return boom },
	}
	svc := newTestService(store, &fakeGateway{})
	if _, err := svc.Issue(context.Background(), "123", "", ""); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped store error", err)
	}
}

func TestLookupMissReturnsNotFound(t *testing.T) {
	store := &fakeStore{
		findFn: func(context.Context, string) (LinkToken, error) {
			return LinkToken{}, ErrTokenNotFound
		},
	}
	svc := newTestService(store, &fakeGateway{})
	if _, err := svc.Lookup(context.Background(), "nope"); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("err = %v, want ErrTokenNotFound", err)
	}
}

func TestCompleteHappyPath(t *testing.T) {
	gw := &fakeGateway{}
	store := &fakeStore{
		findFn: func(_ context.Context, token string) (LinkToken, error) {
			return LinkToken{Token: token, ChatID: "42", Status: StatusIssued}, nil
		},
		completeFn: func(_ context.Context, _, sessionID string, _ time.Time) (bool, error) {
			if sessionID != "S1" {
				t.Errorf("session_id = %q, want S1", sessionID)
			}
			return true, nil
		},
	}
	svc := newTestService(store, gw)

	outcome, err := svc.Complete(context.Background(), "tok", "S1", "Анна")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if outcome != OutcomeOK {
		t.Fatalf("outcome = %q, want ok", outcome)
	}
	if gw.sends != 1 {
		t.Fatalf("sends = %d, want exactly one notification", gw.sends)
	}
	if gw.lastTo != "42" || gw.lastFor != "Анна" {
		t.Errorf("notified (%q, %q), want (42, Анна)", gw.lastTo, gw.lastFor)
	}
}

func TestCompleteDefaultsClientName(t *testing.T) {
	gw := &fakeGateway{}
	store := &fakeStore{
		findFn: func(_ context.Context, token string) (LinkToken, error) {
			return LinkToken{Token: token, ChatID: "42", Status: StatusIssued}, nil
		},
		completeFn: func(context.Context, string, string, time.Time) (bool, error) {
			return true, nil
		},
	}
	svc := newTestService(store, gw)

	if _, err := svc.Complete(context.Background(), "tok", "S1", ""); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if gw.lastFor != "Клиент" {
		t.Errorf("client name = %q, want default", gw.lastFor)
	}
}

func TestCompleteUnknownTokenSoftFails(t *testing.T) {
	gw := &fakeGateway{}
	store := &fakeStore{
		findFn: func(context.Context, string) (LinkToken, error) {
			return LinkToken{}, ErrTokenNotFound
		},
	}
	svc := newTestService(store, gw)

	outcome, err := svc.Complete(context.Background(), "ghost", "S1", "")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if outcome != OutcomeTokenNotFound {
		t.Fatalf("outcome = %q, want token_not_found", outcome)
	}
	if gw.sends != 0 {
		t.Fatal("unknown token must not trigger a notification")
	}
}

func TestCompleteMissingChatIDSoftFails(t *testing.T) {
	gw := &fakeGateway{}
	store := &fakeStore{
		findFn: func(_ context.Context, token string) (LinkToken, error) {
			return LinkToken{Token: token, Status: StatusIssued}, nil
		},
	}
	svc := newTestService(store, gw)

	outcome, err := svc.Complete(context.Background(), "tok", "S1", "")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if outcome != OutcomeChatIDMissing {
		t.Fatalf("outcome = %q, want tg_chat_id_missing", outcome)
	}
	if gw.sends != 0 {
		t.Fatal("missing chat id must not trigger a notification")
	}
}

func TestCompleteIsIdempotent(t *testing.T) {
	gw := &fakeGateway{}
	completed := false
	store := &fakeStore{
		findFn: func(_ context.Context, token string) (LinkToken, error) {
			row := LinkToken{Token: token, ChatID: "42", Status: StatusIssued}
			if completed {
				row.Status = StatusCompleted
			}
			return row, nil
		},
		completeFn: func(context.Context, string, string, time.Time) (bool, error) {
			if completed {
				return false, nil
			}
			completed = true
			return true, nil
		},
	}
	svc := newTestService(store, gw)

	for i := 0; i < 2; i++ {
		outcome, err := svc.Complete(context.Background(), "tok", "S1", "")
		if err != nil {
			t.Fatalf("Complete #%d: %v", i+1, err)
		}
		if outcome != OutcomeOK {
			t.Fatalf("Complete #%d outcome = %q, want ok", i+1, outcome)
		}
	}
	if gw.sends != 1 {
		t.Fatalf("sends = %d, want exactly one notification across repeats", gw.sends)
	}
}

func TestCompleteGatewayFailureIsHardError(t *testing.T) {
	gw := &fakeGateway{err: errors.New("telegram: 502")}
	store := &fakeStore{
		findFn: func(_ context.Context, token string) (LinkToken, error) {
			return LinkToken{Token: token, ChatID: "42", Status: StatusIssued}, nil
		},
		completeFn: func(context.Context, string, string, time.Time) (bool, error) {
			return true, nil
		},
	}
	svc := newTestService(store, gw)

	if _, err := svc.Complete(context.Background(), "tok", "S1", ""); err == nil {
		t.Fatal("gateway failure must surface as a hard error")
	}
}
