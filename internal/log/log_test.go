package log_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"testing"

	applog "equiploan/internal/log"
)

func capture(t *testing.T, fn func()) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	oldW, oldFlags := log.Writer(), log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	defer func() {
		log.SetOutput(oldW)
		log.SetFlags(oldFlags)
	}()
	fn()
	var out map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &out); err != nil {
		t.Fatalf("not a JSON line: %q", buf.String())
	}
	return out
}

func TestSecretsAreRedacted(t *testing.T) {
	out := capture(t, func() {
		applog.Security(nil, "auth.login.fail", map[string]any{
			"email": "a@b.test", "password": "hunter2hunter2", "review_token": "abc",
		})
	})
	fields := out["fields"].(map[string]any)
	if fields["email"] != "a@b.test" {
		t.Fatalf("email should pass through: %v", fields)
	}
	if fields["password"] != "[redacted]" || fields["review_token"] != "[redacted]" {
		t.Fatalf("secrets leaked: %v", fields)
	}
	if out["level"] != "warn" || out["action"] != "auth.login.fail" {
		t.Fatalf("unexpected line %v", out)
	}
}

func TestErrorCarriesCauseAndService(t *testing.T) {
	applog.SetService("equiploan-test")
	defer applog.SetService("")
	out := capture(t, func() {
		applog.Error(nil, "cart.save", errors.New("disk full"), nil)
	})
	if out["err"] != "disk full" || out["service"] != "equiploan-test" || out["level"] != "error" {
		t.Fatalf("unexpected line %v", out)
	}
	if _, ok := out["fields"]; ok {
		t.Fatalf("empty fields should be omitted: %v", out)
	}
}

func TestUnencodableFieldKeepsLine(t *testing.T) {
	out := capture(t, func() {
		applog.Info(nil, "odd", map[string]any{"ch": make(chan int)})
	})
	if out["action"] != "odd" {
		t.Fatalf("line lost: %v", out)
	}
}
