// Package authflow performs the OAuth 2.0 installed-app authorization flow:
// it opens a browser to Google's consent page and captures the authorization
// code on a loopback redirect server bound to an ephemeral port.
package authflow

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"runtime"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// TokenSource runs the installed-app flow from an OAuth client secrets file
// (the credentials.json downloaded from the Cloud console) and returns a
// reusable, auto-refreshing token source. It blocks until the user completes
// authorization in the browser or ctx is canceled.
func TokenSource(ctx context.Context, credentialsFile string, scopes ...string) (oauth2.TokenSource, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("reading client secrets %s: %w", credentialsFile, err)
	}
	cfg, err := google.ConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("parsing client secrets %s: %w", credentialsFile, err)
	}

	tok, err := authorize(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return cfg.TokenSource(ctx, tok), nil
}

type callbackResult struct {
	code string
	err  error
}

// authorize obtains an authorization code via the loopback redirect and
// exchanges it for a token.
func authorize(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("starting loopback listener: %w", err)
	}
	defer ln.Close()
	cfg.RedirectURL = fmt.Sprintf("http://%s/oauth2/callback", ln.Addr().String())

	state := uuid.New().String()
	results := make(chan callbackResult, 1)

	r := chi.NewRouter()
	r.Get("/oauth2/callback", callbackHandler(state, results))
	srv := &http.Server{Handler: r}
	go srv.Serve(ln)
	defer srv.Close()

	authURL := cfg.AuthCodeURL(state, oauth2.AccessTypeOffline)
	fmt.Fprintf(os.Stderr, "Opening browser for authorization. If it does not open, visit:\n\n  %s\n\n", authURL)
	openBrowser(authURL)

	select {
	case res := <-results:
		if res.err != nil {
			return nil, res.err
		}
		tok, err := cfg.Exchange(ctx, res.code)
		if err != nil {
			return nil, fmt.Errorf("exchanging authorization code: %w", err)
		}
		return tok, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// callbackHandler validates the redirect and delivers the authorization code.
// Only the first result is kept; stray requests get a plain error page.
func callbackHandler(state string, results chan<- callbackResult) http.HandlerFunc {
	deliver := func(res callbackResult) {
		select {
		case results <- res:
		default:
		}
	}
	return func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		if q.Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			deliver(callbackResult{err: fmt.Errorf("authorization response state mismatch")})
			return
		}
		if errCode := q.Get("error"); errCode != "" {
			http.Error(w, "authorization denied", http.StatusBadRequest)
			deliver(callbackResult{err: fmt.Errorf("authorization denied: %s", errCode)})
			return
		}
		code := q.Get("code")
		if code == "" {
			http.Error(w, "missing authorization code", http.StatusBadRequest)
			deliver(callbackResult{err: fmt.Errorf("authorization response missing code")})
			return
		}
		fmt.Fprintln(w, "Authorization complete. You may close this window and return to the terminal.")
		deliver(callbackResult{code: code})
	}
}

// openBrowser tries the platform launcher; the URL is also printed so the
// user can open it by hand.
func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	_ = cmd.Start()
}
