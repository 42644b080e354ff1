package botflow

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	tg "github.com/m3rciful/diaglink/core/telegram"

	tele "gopkg.in/telebot.v4"
)

type apiCall struct {
	method  string
	payload map[string]any
}

type callLog struct {
	mu    sync.Mutex
	calls []apiCall
}

func (l *callLog) add(c apiCall) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, c)
}

func (l *callLog) byMethod(method string) []apiCall {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []apiCall
	for _, c := range l.calls {
		if c.method == method {
			out = append(out, c)
		}
	}
	return out
}

// newFakeAPI stands in for the Bot API: it accepts any method and records
// the payload.
func newFakeAPI(t *testing.T) (*httptest.Server, *callLog) {
	t.Helper()
	log := &callLog{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
		body, _ := io.ReadAll(r.Body)
		payload := map[string]any{}
		_ = json.Unmarshal(body, &payload)
		log.add(apiCall{method: method, payload: payload})

		w.Header().Set("Content-Type", "application/json")
		if method == "answerCallbackQuery" {
			_, _ = w.Write([]byte(`{"ok":true,"result":true}`))
			return
		}
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1,"chat":{"id":123}}}`))
	}))
	t.Cleanup(srv.Close)
	return srv, log
}

type fakeIssuer struct {
	mu     sync.Mutex
	calls  int
	chatID string
	link   string
}

func (f *fakeIssuer) Issue(_ context.Context, chatID, _, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.chatID = chatID
	return f.link, nil
}

func newTestBot(t *testing.T, svc Issuer) (*tg.Bot, *callLog) {
	t.Helper()
	srv, log := newFakeAPI(t)

	reg := NewRegistry(svc)
	bot, err := tg.New(tg.Options{
		Token:       "test-token",
		URL:         srv.URL,
		Offline:     true,
		Registry:    reg,
		Middlewares: tg.DefaultMiddlewares(nil, nil),
		Routes:      Routes(reg),
	})
	if err != nil {
		t.Fatalf("tg.New: %v", err)
	}
	return bot, log
}

func textUpdate(id int, text string) tele.Update {
	return tele.Update{
		ID: id,
		Message: &tele.Message{
			ID:     id,
			Text:   text,
			Sender: &tele.User{ID: 123},
			Chat:   &tele.Chat{ID: 123, Type: tele.ChatPrivate},
		},
	}
}

func callbackUpdate(id int, data string) tele.Update {
	return tele.Update{
		ID: id,
		Callback: &tele.Callback{
			ID:     "cb1",
			Sender: &tele.User{ID: 123},
			Data:   data,
			Message: &tele.Message{
				ID:     id,
				Sender: &tele.User{ID: 777},
				Chat:   &tele.Chat{ID: 123, Type: tele.ChatPrivate},
			},
		},
	}
}

func sentTexts(log *callLog) []string {
	var out []string
	for _, c := range log.byMethod("sendMessage") {
		if s, ok := c.payload["text"].(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func TestStartVariantsSendInvitation(t *testing.T) {
	variants := []string{"/start", "start", "Start", "начать", "Начать"}
	for i, text := range variants {
		t.Run(text, func(t *testing.T) {
			svc := &fakeIssuer{link: "https://diag.example.com/?t=abc"}
			bot, log := newTestBot(t, svc)

			bot.Feed(textUpdate(i+1, text))
			bot.Close()

			texts := sentTexts(log)
			if len(texts) != 1 {
				t.Fatalf("sendMessage calls = %d, want 1", len(texts))
			}
			if texts[0] != textGreeting {
				t.Errorf("text = %q, want greeting", texts[0])
			}
			if svc.calls != 0 {
				t.Errorf("greeting must not issue a token, got %d calls", svc.calls)
			}
		})
	}
}

func TestUnrelatedTextSendsPrompt(t *testing.T) {
	svc := &fakeIssuer{link: "https://diag.example.com/?t=abc"}
	bot, log := newTestBot(t, svc)

	bot.Feed(textUpdate(1, "hello"))
	bot.Close()

	texts := sentTexts(log)
	if len(texts) != 1 {
		t.Fatalf("sendMessage calls = %d, want 1", len(texts))
	}
	if texts[0] != textPrompt {
		t.Errorf("text = %q, want generic prompt", texts[0])
	}
}

func TestStartDiagCallbackIssuesAndSendsLink(t *testing.T) {
	svc := &fakeIssuer{link: "https://diag.example.com/?t=tok22"}
	bot, log := newTestBot(t, svc)

	bot.Feed(callbackUpdate(1, "\f"+callbackStartDiag))
	bot.Close()

	if svc.calls != 1 {
		t.Fatalf("Issue calls = %d, want exactly 1", svc.calls)
	}
	if svc.chatID != "123" {
		t.Errorf("issued for chat %q, want 123", svc.chatID)
	}

	sends := log.byMethod("sendMessage")
	if len(sends) != 1 {
		t.Fatalf("sendMessage calls = %d, want exactly 1", len(sends))
	}
	raw, _ := json.Marshal(sends[0].payload)
	if !strings.Contains(string(raw), svc.link) {
		t.Errorf("outbound message does not carry the issued link: %s", raw)
	}

	if acks := log.byMethod("answerCallbackQuery"); len(acks) == 0 {
		t.Error("callback was not acknowledged")
	}
}
