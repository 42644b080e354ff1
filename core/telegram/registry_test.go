package telegram

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

func noop(tele.Context) error { return nil }

func TestLookupCommandMatchesAliases(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/start", Command{
		Handler:     noop,
		Description: "start",
		Aliases:     []string{"start", "Start", "начать", "Начать"},
	})

	for _, in := range []string{"/start", "start", "Start", "начать", "Начать"} {
		key, cmd, ok := reg.LookupCommand(in)
		if !ok {
			t.Fatalf("LookupCommand(%q) missed", in)
		}
		if key != "/start" || cmd.Handler == nil {
			t.Fatalf("LookupCommand(%q) = %q", in, key)
		}
	}

	// Literal matching only: different case or unrelated text must miss.
	for _, in := range []string{"START", "нАчать", "hello"} {
		if _, _, ok := reg.LookupCommand(in); ok {
			t.Fatalf("LookupCommand(%q) matched, want miss", in)
		}
	}
}

func TestRegisterCommandRejectsInvalid(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("start", Command{Handler: noop, Description: "no slash"})
	reg.RegisterCommand("/nodesc", Command{Handler: noop})
	reg.RegisterCommand("/nohandler", Command{Description: "x"})

	if n := len(reg.Commands()); n != 0 {
		t.Fatalf("registered %d invalid commands", n)
	}
}

func TestCallbackRegistration(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterCallback("start_diag", noop); err != nil {
		t.Fatalf("RegisterCallback: %v", err)
	}
	if err := reg.RegisterCallback("start_diag", noop); err == nil {
		t.Fatal("duplicate callback registration must fail")
	}
	if _, ok := reg.GetCallback("start_diag"); !ok {
		t.Fatal("GetCallback missed a registered key")
	}
	if _, ok := reg.GetCallback("other"); ok {
		t.Fatal("GetCallback matched an unknown key")
	}
}
