package httpserver

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/silverlyra/portico/domain/rooms"
)

func TestTokenRoundTrip(t *testing.T) {
	tokens := NewTokenManager("test-secret", time.Hour)
	user := &rooms.User{ID: "u-1", Name: "Alice"}

	signed, err := tokens.Issue(user)
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	actor, err := tokens.Validate(signed)
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if actor != user.ID {
		t.Errorf("Validate() = %q, want %q", actor, user.ID)
	}
}

func TestValidateRejects(t *testing.T) {
	tokens := NewTokenManager("test-secret", time.Hour)
	user := &rooms.User{ID: "u-1", Name: "Alice"}

	signed, err := tokens.Issue(user)
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	expired, err := NewTokenManager("test-secret", -time.Minute).Issue(user)
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	foreign, err := NewTokenManager("other-secret", time.Hour).Issue(user)
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not.a.token"},
		{"expired", expired},
		{"wrong secret", foreign},
		{"tampered", signed + "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tokens.Validate(tt.token)
			if rooms.KindOf(err) != rooms.KindUnauthorized {
				t.Errorf("Validate(%q) error = %v, want Unauthorized", tt.token, err)
			}
		})
	}
}

// newTestApp builds a fiber app with the module's error handler and auth
// middleware around a probe route, without any backing modules.
func newTestApp(t *testing.T) (*fiber.App, *TokenManager) {
	t.Helper()
	m := &Module{cfg: DefaultConfig(), tokens: NewTokenManager("test-secret", time.Hour)}
	app := fiber.New(fiber.Config{ErrorHandler: m.errorHandler})
	app.Get("/probe", m.requireActor, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"actor": actorFrom(c)})
	})
	app.Get("/missing", func(c *fiber.Ctx) error {
		return rooms.Errf(rooms.KindNotFound, "room gone-otter not found")
	})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return rooms.Errf(rooms.KindInternal, "redis connection lost")
	})
	return app, m.tokens
}

func TestRequireActor(t *testing.T) {
	app, tokens := newTestApp(t)

	signed, err := tokens.Issue(&rooms.User{ID: "u-42", Name: "Alice"})
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/probe", nil)
		req.Header.Set("Authorization", "Bearer "+signed)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("app.Test() error: %v", err)
		}
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("status = %d, want %d", resp.StatusCode, fiber.StatusOK)
		}
		var body struct {
			Actor string `json:"actor"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body.Actor != "u-42" {
			t.Errorf("actor = %q, want %q", body.Actor, "u-42")
		}
	})

	t.Run("token query", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/probe?token="+signed, nil))
		if err != nil {
			t.Fatalf("app.Test() error: %v", err)
		}
		if resp.StatusCode != fiber.StatusOK {
			t.Errorf("status = %d, want %d", resp.StatusCode, fiber.StatusOK)
		}
	})

	t.Run("missing credentials", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/probe", nil))
		if err != nil {
			t.Fatalf("app.Test() error: %v", err)
		}
		if resp.StatusCode != fiber.StatusUnauthorized {
			t.Errorf("status = %d, want %d", resp.StatusCode, fiber.StatusUnauthorized)
		}
	})
}

func TestErrorHandler(t *testing.T) {
	app, _ := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/missing", nil))
	if err != nil {
		t.Fatalf("app.Test() error: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("status = %d, want %d", resp.StatusCode, fiber.StatusNotFound)
	}
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error != rooms.KindNotFound.String() {
		t.Errorf("error = %q, want %q", body.Error, rooms.KindNotFound.String())
	}
	if body.Message == "" {
		t.Error("client-safe kinds should keep their message")
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/boom", nil))
	if err != nil {
		t.Fatalf("app.Test() error: %v", err)
	}
	if resp.StatusCode != fiber.StatusInternalServerError {
		t.Errorf("status = %d, want %d", resp.StatusCode, fiber.StatusInternalServerError)
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Message != "internal error" {
		t.Errorf("message = %q, internal detail must not leak", body.Message)
	}
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		kind rooms.Kind
		want int
	}{
		{rooms.KindInvalidInput, fiber.StatusBadRequest},
		{rooms.KindUnauthorized, fiber.StatusUnauthorized},
		{rooms.KindForbidden, fiber.StatusForbidden},
		{rooms.KindNotFound, fiber.StatusNotFound},
		{rooms.KindConflict, fiber.StatusConflict},
		{rooms.KindInternal, fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusOf(tt.kind); got != tt.want {
			t.Errorf("statusOf(%v) = %d, want %d", tt.kind, got, tt.want)
		}
	}
}
