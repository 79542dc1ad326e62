package mailer

import (
	"encoding/json"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestBuildWelcomeEmail(t *testing.T) {
	e := BuildWelcomeEmail("ada@example.com", LinkEmailData{
		FullName: "Ada Lovelace",
		Link:     "https://app.example.com/#/app/dashboard/token/abc",
	})

	if e.To != "ada@example.com" {
		t.Errorf("To = %q", e.To)
	}
	if e.Subject != "Hi Ada Lovelace! Activate your account - light-speed checkout" {
		t.Errorf("Subject = %q", e.Subject)
	}
	if !strings.Contains(e.HTMLBody, "https://app.example.com/#/app/dashboard/token/abc") {
		t.Error("HTML body missing activation link")
	}
	if !strings.Contains(e.TextBody, "https://app.example.com/#/app/dashboard/token/abc") {
		t.Error("text body missing activation link")
	}
}

func TestBuildRecoveryEmail_EscapesName(t *testing.T) {
	e := BuildRecoveryEmail("x@example.com", LinkEmailData{
		FullName: "<script>bad</script>",
		Link:     "https://app.example.com/#/auth/reset-password/tok",
	})

	if strings.Contains(e.HTMLBody, "<script>bad") {
		t.Error("full name must be HTML escaped")
	}
	if !strings.Contains(e.HTMLBody, "/#/auth/reset-password/tok") {
		t.Error("HTML body missing reset link")
	}
}

func TestBuild_MultipartMessage(t *testing.T) {
	m := New(Config{From: "noreply@example.com", FromName: "Light Speed"}, zap.NewNop())

	msg, err := m.build(Email{To: "ada@example.com", Subject: "Hello", TextBody: "plain", HTMLBody: "<p>html</p>"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	s := string(msg)
	for _, want := range []string{
		"To: ada@example.com\r\n",
		"MIME-Version: 1.0\r\n",
		"multipart/alternative",
		"text/plain; charset=UTF-8",
		"text/html; charset=UTF-8",
		"<p>html</p>",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("message missing %q", want)
		}
	}
}

func TestBuild_RejectsBadRecipient(t *testing.T) {
	m := New(Config{From: "noreply@example.com"}, zap.NewNop())
	if _, err := m.build(Email{To: "not an address"}); err == nil {
		t.Error("expected error for invalid recipient")
	}
}

func TestDecodeEmail(t *testing.T) {
	body, _ := json.Marshal(Email{To: "a@b.co", Subject: "s"})
	e, err := DecodeEmail(body)
	if err != nil {
		t.Fatalf("DecodeEmail: %v", err)
	}
	if e.To != "a@b.co" || e.Subject != "s" {
		t.Errorf("decoded %+v", e)
	}

	if _, err := DecodeEmail([]byte(`{"subject":"no recipient"}`)); err == nil {
		t.Error("expected error for missing recipient")
	}
	if _, err := DecodeEmail([]byte(`not json`)); err == nil {
		t.Error("expected error for malformed body")
	}
}
