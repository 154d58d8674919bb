package authflow

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCallbackHandler_DeliversCode(t *testing.T) {
	results := make(chan callbackResult, 1)
	h := callbackHandler("state-123", results)

	req := httptest.NewRequest("GET", "/oauth2/callback?state=state-123&code=auth-code-xyz", nil)
	rec := httptest.NewRecorder()
	h(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	select {
	case res := <-results:
		if res.err != nil {
			t.Fatalf("callback delivered error: %v", res.err)
		}
		if res.code != "auth-code-xyz" {
			t.Errorf("code = %q, want auth-code-xyz", res.code)
		}
	default:
		t.Fatal("callback delivered nothing")
	}
}

func TestCallbackHandler_StateMismatch(t *testing.T) {
	results := make(chan callbackResult, 1)
	h := callbackHandler("state-123", results)

	req := httptest.NewRequest("GET", "/oauth2/callback?state=forged&code=auth-code-xyz", nil)
	rec := httptest.NewRecorder()
	h(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	res := <-results
	if res.err == nil {
		t.Fatal("state mismatch should deliver an error")
	}
}

func TestCallbackHandler_Denied(t *testing.T) {
	results := make(chan callbackResult, 1)
	h := callbackHandler("state-123", results)

	req := httptest.NewRequest("GET", "/oauth2/callback?state=state-123&error=access_denied", nil)
	rec := httptest.NewRecorder()
	h(rec, req)

	res := <-results
	if res.err == nil || !strings.Contains(res.err.Error(), "access_denied") {
		t.Errorf("err = %v, want access_denied", res.err)
	}
}

func TestCallbackHandler_KeepsFirstResult(t *testing.T) {
	results := make(chan callbackResult, 1)
	h := callbackHandler("state-123", results)

	first := httptest.NewRequest("GET", "/oauth2/callback?state=state-123&code=first", nil)
	second := httptest.NewRequest("GET", "/oauth2/callback?state=state-123&code=second", nil)
	h(httptest.NewRecorder(), first)
	h(httptest.NewRecorder(), second)

	res := <-results
	if res.code != "first" {
		t.Errorf("code = %q, want first", res.code)
	}
}

func TestTokenSource_MissingSecretsFile(t *testing.T) {
	_, err := TokenSource(context.Background(), filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Fatal("TokenSource should fail for a missing secrets file")
	}
}

func TestTokenSource_MalformedSecretsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	if err := os.WriteFile(path, []byte("not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err := TokenSource(context.Background(), path)
	if err == nil {
		t.Fatal("TokenSource should fail for malformed client secrets")
	}
}
