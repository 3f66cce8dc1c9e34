package handlers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/corpdrive/server/internal/middleware"
)

func TestHealthEndpoint(t *testing.T) {
	env := setupTestEnv(t)

	resp := performRequest(t, env.app, http.MethodGet, "/health", nil, nil)
	body := decodeJSONMap(t, resp)

	assertStatus(t, resp, http.StatusOK)
	if got, _ := body["status"].(string); got != "ok" {
		t.Fatalf("expected health status 'ok', got %q", got)
	}
}

func TestVersionEndpoint(t *testing.T) {
	env := setupTestEnv(t)

	resp := performRequest(t, env.app, http.MethodGet, "/api/version", nil, nil)
	body := decodeJSONMap(t, resp)

	assertStatus(t, resp, http.StatusOK)
	if data := dataMap(t, body); data["apiVersion"] != "v1" {
		t.Fatalf("expected apiVersion v1, got %v", data["apiVersion"])
	}
}

func TestAuthRoutes(t *testing.T) {
	env := setupTestEnv(t)

	t.Run("register issues a token", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, "/api/auth/register", map[string]any{
			"companyName": "  Acme  ",
			"password":    "supersecret",
		}, nil)
		body := decodeJSONMap(t, resp)

		assertStatus(t, resp, http.StatusCreated)
		data := dataMap(t, body)
		if token, _ := data["token"].(string); token == "" {
			t.Fatalf("expected token in response, got %+v", data)
		}
		company, _ := data["company"].(map[string]any)
		if company["companyName"] != "Acme" {
			t.Fatalf("expected trimmed company name, got %v", company["companyName"])
		}
		if _, leaked := company["passwordHash"]; leaked {
			t.Fatal("password hash must not be serialized")
		}
	})

	t.Run("duplicate registration conflicts", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, "/api/register", map[string]any{
			"companyName": "Acme",
			"password":    "anothersecret",
		}, nil)
		body := decodeJSONMap(t, resp)

		assertStatus(t, resp, http.StatusConflict)
		assertEnvelopeError(t, body, "company already registered")
	})

	t.Run("register rejects short passwords", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, "/api/auth/register", map[string]any{
			"companyName": "Globex",
			"password":    "short",
		}, nil)
		body := decodeJSONMap(t, resp)

		assertStatus(t, resp, http.StatusBadRequest)
		if msg, _ := body["error"].(string); !strings.Contains(msg, "password") {
			t.Fatalf("expected password validation error, got %q", msg)
		}
	})

	t.Run("login with valid credentials", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, "/api/auth/login", map[string]any{
			"companyName": "Acme",
			"password":    "supersecret",
		}, nil)
		body := decodeJSONMap(t, resp)

		assertStatus(t, resp, http.StatusOK)
		if token, _ := dataMap(t, body)["token"].(string); token == "" {
			t.Fatal("expected token on login")
		}
	})

	t.Run("login with wrong password", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, "/api/login", map[string]any{
			"companyName": "Acme",
			"password":    "wrongsecret",
		}, nil)
		body := decodeJSONMap(t, resp)

		assertStatus(t, resp, http.StatusUnauthorized)
		assertEnvelopeError(t, body, "invalid credentials")
	})

	t.Run("login with unknown company", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, "/api/auth/login", map[string]any{
			"companyName": "Initech",
			"password":    "supersecret",
		}, nil)
		body := decodeJSONMap(t, resp)

		assertStatus(t, resp, http.StatusUnauthorized)
		assertEnvelopeError(t, body, "invalid credentials")
	})

	t.Run("login requires both fields", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, "/api/auth/login", map[string]any{
			"companyName": "Acme",
		}, nil)
		body := decodeJSONMap(t, resp)

		assertStatus(t, resp, http.StatusBadRequest)
		assertEnvelopeError(t, body, "companyName and password are required")
	})
}

func TestMeAcceptsBothTokenHeaders(t *testing.T) {
	env := setupTestEnv(t)
	company, token := createTestCompany(t, env.db, "Acme", "supersecret")

	for name, headers := range map[string]map[string]string{
		"bearer":       authHeaders(token),
		"token header": {middleware.TokenHeader: token},
	} {
		t.Run(name, func(t *testing.T) {
			resp := performRequest(t, env.app, http.MethodGet, "/api/auth/me", nil, headers)
			body := decodeJSONMap(t, resp)

			assertStatus(t, resp, http.StatusOK)
			if data := dataMap(t, body); data["id"] != company.ID.String() {
				t.Fatalf("expected company %s, got %v", company.ID, data["id"])
			}
		})
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := setupTestEnv(t)

	t.Run("missing token", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/browse", nil, nil)
		body := decodeJSONMap(t, resp)

		assertStatus(t, resp, http.StatusUnauthorized)
		assertEnvelopeError(t, body, "no token, authorization denied")
	})

	t.Run("garbage token", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/browse", nil, authHeaders("not-a-jwt"))
		body := decodeJSONMap(t, resp)

		assertStatus(t, resp, http.StatusUnauthorized)
		assertEnvelopeError(t, body, "token is not valid")
	})

	t.Run("token for a deleted company", func(t *testing.T) {
		company, token := createTestCompany(t, env.db, "Ghost", "supersecret")
		if err := env.db.Delete(company).Error; err != nil {
			t.Fatalf("failed deleting company: %v", err)
		}

		resp := performRequest(t, env.app, http.MethodGet, "/api/browse", nil, authHeaders(token))
		body := decodeJSONMap(t, resp)

		assertStatus(t, resp, http.StatusUnauthorized)
		assertEnvelopeError(t, body, "token is not valid")
	})
}
