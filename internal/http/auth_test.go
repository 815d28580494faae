package handlers_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestLoginIssuesToken(t *testing.T) {
	app, _, _ := newApp(t)
	code, out := call(t, app, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "staff@equiploan.test", "password": seedPassword,
	})
	if code != fiber.StatusOK {
		t.Fatalf("want 200, got %d %v", code, out)
	}
	if tok, _ := out["token"].(string); strings.Count(tok, ".") != 2 {
		t.Fatalf("want a JWT, got %q", tok)
	}
	user, _ := out["user"].(map[string]any)
	if user["role"] != "staff" || user["id"] != "u-staff" {
		t.Fatalf("unexpected user %v", user)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	app, _, _ := newApp(t)
	for _, body := range []map[string]string{
		{"email": "staff@equiploan.test", "password": "wrong-password"},
		{"email": "nobody@equiploan.test", "password": seedPassword},
		{"email": "not-an-email", "password": seedPassword},
	} {
		code, out := call(t, app, http.MethodPost, "/api/v1/auth/login", "", body)
		if code != fiber.StatusUnauthorized {
			t.Fatalf("%v: want 401, got %d", body, code)
		}
		if out["error"] != "อีเมลหรือรหัสผ่านไม่ถูกต้อง" {
			t.Fatalf("%v: same message for every failure, got %v", body, out["error"])
		}
	}
}

func TestLoginIsRateLimited(t *testing.T) {
	app, _, _ := newApp(t)
	bad := map[string]string{"email": "staff@equiploan.test", "password": "wrong-password"}
	for i := 0; i < 5; i++ {
		if code, _ := call(t, app, http.MethodPost, "/api/v1/auth/login", "", bad); code != fiber.StatusUnauthorized {
			t.Fatalf("attempt %d: want 401, got %d", i+1, code)
		}
	}
	code, _ := call(t, app, http.MethodPost, "/api/v1/auth/login", "", bad)
	if code != fiber.StatusTooManyRequests {
		t.Fatalf("want 429 after 5 attempts, got %d", code)
	}
}

func TestSeededPasswordsAreHashed(t *testing.T) {
	_, _, db := newApp(t)
	var hashes []string
	if err := db.Select(&hashes, `SELECT password_hash FROM users`); err != nil {
		t.Fatal(err)
	}
	if len(hashes) == 0 {
		t.Fatal("no seeded users")
	}
	for _, h := range hashes {
		if !strings.HasPrefix(h, "$2") || h == seedPassword {
			t.Fatalf("password stored unhashed: %q", h)
		}
	}
}
