package auth

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hypermedia-labs/trillas/internal/token"
)

func newTestHandler(repo *fakeRepo, notifier *fakeNotifier) http.Handler {
	svc := newTestService(repo, notifier, time.Now())
	tokens := token.NewService([]byte("test-secret"), time.Hour, "trillas")
	r := chi.NewRouter()
	NewHandler(slog.Default(), svc, tokens).MountRoutes(r)
	return r
}

func postRegister(handler http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleRegisterAccepted(t *testing.T) {
	repo := newFakeRepo()
	handler := newTestHandler(repo, &fakeNotifier{})

	rec := postRegister(handler, `{
		"firstname": "Avery",
		"lastname": "Reader",
		"email": "reader@test.local",
		"password": "correcthorse"
	}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(repo.users) != 1 {
		t.Fatalf("expected one persisted user, got %d", len(repo.users))
	}
}

func TestHandleRegisterPasswordBounds(t *testing.T) {
	cases := []struct {
		name     string
		password string
	}{
		{"too short", "short"},
		{"over bcrypt limit", strings.Repeat("a", 73)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newFakeRepo()
			handler := newTestHandler(repo, &fakeNotifier{})

			rec := postRegister(handler, `{
				"firstname": "Avery",
				"lastname": "Reader",
				"email": "reader@test.local",
				"password": "`+tc.password+`"
			}`)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
			if len(repo.users) != 0 {
				t.Fatalf("expected no persisted user, got %d", len(repo.users))
			}
		})
	}
}

func TestHandleRegisterMalformedBody(t *testing.T) {
	handler := newTestHandler(newFakeRepo(), &fakeNotifier{})

	rec := postRegister(handler, `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
