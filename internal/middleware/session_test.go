package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"

	"github.com/mparaz/cloudflare-ranking/internal/service"
)

type stubValidator struct {
	err              error
	gotID, gotIP, ua string
}

func (s *stubValidator) Validate(_ context.Context, id, ip, ua string) error {
	s.gotID, s.gotIP, s.ua = id, ip, ua
	return s.err
}

func TestRequireSession(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"valid", nil, fiber.StatusOK, ""},
		{"not found", service.ErrSessionNotFound, fiber.StatusForbidden, "SESSION_NOT_FOUND"},
		{"expired", service.ErrSessionExpired, fiber.StatusForbidden, "SESSION_EXPIRED"},
		{"mismatch", service.ErrFingerprintMismatch, fiber.StatusForbidden, "FINGERPRINT_MISMATCH"},
		{"backend", errors.New("boom"), fiber.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &stubValidator{err: tt.err}
			app := fiber.New()
			app.Post("/", RequireSession(v, NewClientIPFunc("CF-Connecting-IP")), func(c fiber.Ctx) error {
				return c.SendString(SessionID(c))
			})

			req := httptest.NewRequest(fiber.MethodPost, "/", nil)
			req.Header.Set("Cookie", SessionCookie+"=sess-1")
			req.Header.Set("CF-Connecting-IP", "203.0.113.9")
			req.Header.Set("User-Agent", "test-agent")
			resp, err := app.Test(req)
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if v.gotID != "sess-1" || v.gotIP != "203.0.113.9" || v.ua != "test-agent" {
				t.Errorf("validator got id=%q ip=%q ua=%q", v.gotID, v.gotIP, v.ua)
			}
			if tt.wantCode == "" {
				return
			}
			var body struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if body.Error.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", body.Error.Code, tt.wantCode)
			}
		})
	}
}
