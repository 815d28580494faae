// Package log writes one JSON object per line through the standard logger. Request-scoped
// calls take the fiber context; background work passes nil.
package log

import (
	"encoding/json"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Locals keys the auth middleware fills in.
const (
	UserIDKey = "user_id"
	RoleKey   = "role"
)

type level string

const (
	levelInfo  level = "info"
	levelAudit level = "audit"
	levelWarn  level = "warn"
	levelError level = "error"
)

type line struct {
	TS      string         `json:"ts"`
	Level   level          `json:"level"`
	Service string         `json:"service,omitempty"`
	ReqID   string         `json:"req_id,omitempty"`
	IP      string         `json:"ip,omitempty"`
	Method  string         `json:"method,omitempty"`
	Path    string         `json:"path,omitempty"`
	UserID  string         `json:"user_id,omitempty"`
	Role    string         `json:"role,omitempty"`
	Action  string         `json:"action"`
	Status  int            `json:"status,omitempty"`
	Err     string         `json:"err,omitempty"`
	Fields  map[string]any `json:"fields,omitempty"`
}

var service atomic.Value

// SetService tags every following line with the emitting process.
func SetService(name string) { service.Store(name) }

var secretKeys = []string{"password", "token", "secret", "authorization"}

func redact(fields map[string]any) map[string]any {
	if len(fields) == 0 {
		return nil
	}
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
		lk := strings.ToLower(k)
		for _, s := range secretKeys {
			if strings.Contains(lk, s) {
				out[k] = "[redacted]"
				break
			}
		}
	}
	return out
}

func emit(lv level, c *fiber.Ctx, action string, err error, fields map[string]any) {
	l := line{
		TS:     time.Now().UTC().Format(time.RFC3339),
		Level:  lv,
		Action: action,
		Fields: redact(fields),
	}
	if s, ok := service.Load().(string); ok {
		l.Service = s
	}
	if c != nil {
		l.IP, l.Method, l.Path = c.IP(), c.Method(), c.Path()
		l.Status = c.Response().StatusCode()
		l.ReqID, _ = c.Locals("requestid").(string)
		l.UserID, _ = c.Locals(UserIDKey).(string)
		l.Role, _ = c.Locals(RoleKey).(string)
	}
	if err != nil {
		l.Err = err.Error()
	}
	b, mErr := json.Marshal(l)
	if mErr != nil {
		// unencodable field value; keep the line, drop the fields
		l.Fields = map[string]any{"fields_error": mErr.Error()}
		b, _ = json.Marshal(l)
	}
	log.Println(string(b))
}

func Info(c *fiber.Ctx, action string, fields map[string]any)  { emit(levelInfo, c, action, nil, fields) }
func Audit(c *fiber.Ctx, action string, fields map[string]any) { emit(levelAudit, c, action, nil, fields) }

// Security records denied access, failed validation and rate-limit hits.
func Security(c *fiber.Ctx, action string, fields map[string]any) {
	emit(levelWarn, c, action, nil, fields)
}

func Error(c *fiber.Ctx, action string, err error, fields map[string]any) {
	emit(levelError, c, action, err, fields)
}
