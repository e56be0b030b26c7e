package i18n

import "testing"

func TestTranslator_DefaultAndJapanese(t *testing.T) {
	// default is en
	if msg := T("truncated", nil); msg == "truncated" || msg == "" {
		t.Fatalf("expected a human message, got %q", msg)
	}

	SetLanguage("ja")
	if msg := T("truncated", nil); msg == "truncated input" {
		t.Fatalf("expected japanese message, got %q", msg)
	}

	// reset to en
	SetLanguage("en")
}

func TestTranslator_UnknownCodePassesThrough(t *testing.T) {
	if msg := T("no_such_code", nil); msg != "no_such_code" {
		t.Fatalf("unknown code must fall back to itself, got %q", msg)
	}
}

type markerTranslator struct{}

func (markerTranslator) Message(code string, _ map[string]string) string { return "!" + code }

func TestSetTranslator_ReplacesAndResets(t *testing.T) {
	SetTranslator(markerTranslator{})
	if msg := T("overflow", nil); msg != "!overflow" {
		t.Fatalf("custom translator ignored, got %q", msg)
	}
	SetTranslator(nil)
	if msg := T("overflow", nil); msg != "value out of range" {
		t.Fatalf("nil must restore the built-in dictionary, got %q", msg)
	}
}
