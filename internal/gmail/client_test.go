package gmail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pathlight/mailbroker/internal/config"
	"github.com/pathlight/mailbroker/internal/service/delivery"
)

func testConfig(serverURL string) config.GmailConfig {
	return config.GmailConfig{
		ClientID:       "cid",
		ClientSecret:   "secret",
		AccessToken:    "access-token",
		BaseURL:        serverURL,
		TokenURL:       serverURL + "/token",
		TimeoutSeconds: 5,
	}
}

func TestSend_PostsEncodedMessage(t *testing.T) {
	var gotAuth string
	var gotRaw string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/gmail/v1/users/me/messages/send" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		var payload struct {
			Raw string `json:"raw"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Errorf("bad payload: %v", err)
		}
		gotRaw = payload.Raw
		fmt.Fprint(w, `{"id":"msg-123"}`)
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	id, err := c.Send(context.Background(), delivery.Message{
		From:     "me@corp.com",
		FromName: "Me Myself",
		To:       "jane@corp.com",
		Subject:  "hello",
		Body:     "hi there",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	if id != "msg-123" {
		t.Errorf("message id = %q", id)
	}
	if gotAuth != "Bearer access-token" {
		t.Errorf("authorization = %q", gotAuth)
	}

	decoded, err := base64.URLEncoding.DecodeString(gotRaw)
	if err != nil {
		t.Fatalf("raw is not base64url: %v", err)
	}
	text := string(decoded)
	for _, want := range []string{
		"From: \"Me Myself\" <me@corp.com>",
		"To: jane@corp.com",
		"Subject: hello",
		"Content-Type: text/plain; charset=UTF-8",
		"\r\n\r\nhi there",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("rfc822 text missing %q:\n%s", want, text)
		}
	}
}

func TestSend_HTMLBuildsMultipartAlternative(t *testing.T) {
	var gotRaw string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var payload struct {
			Raw string `json:"raw"`
		}
		json.Unmarshal(body, &payload)
		gotRaw = payload.Raw
		fmt.Fprint(w, `{"id":"m"}`)
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	_, err := c.Send(context.Background(), delivery.Message{
		From: "me@corp.com", To: "jane@corp.com", Body: "<b>hi</b>", HTML: true,
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	decoded, _ := base64.URLEncoding.DecodeString(gotRaw)
	text := string(decoded)
	if !strings.Contains(text, "Content-Type: multipart/alternative; boundary=") {
		t.Fatalf("expected multipart/alternative envelope:\n%s", text)
	}
	// Both alternatives present, html after plain so capable clients
	// prefer it.
	plainIdx := strings.Index(text, "Content-Type: text/plain; charset=UTF-8")
	htmlIdx := strings.Index(text, "Content-Type: text/html; charset=UTF-8")
	if plainIdx < 0 || htmlIdx < 0 || htmlIdx < plainIdx {
		t.Errorf("expected plain part before html part:\n%s", text)
	}
	if strings.Count(text, "<b>hi</b>") != 2 {
		t.Errorf("expected body in both parts:\n%s", text)
	}
}

func TestSend_APIErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"invalid grant"}}`, http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	_, err := c.Send(context.Background(), delivery.Message{From: "a@b.co", To: "c@d.co"})
	if err == nil || !strings.Contains(err.Error(), "status 403") {
		t.Errorf("expected status 403 error, got %v", err)
	}
}

func TestSenderAddress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/gmail/v1/users/me/profile" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"emailAddress":"me@corp.com","messagesTotal":42}`)
	}))
	defer srv.Close()

	got, err := NewClient(testConfig(srv.URL)).SenderAddress(context.Background())
	if err != nil {
		t.Fatalf("SenderAddress: %v", err)
	}
	if got != "me@corp.com" {
		t.Errorf("sender = %q", got)
	}
}

func TestSend_RefreshesExpiredToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if r.Form.Get("refresh_token") != "refresh-token" {
			t.Errorf("unexpected refresh token %q", r.Form.Get("refresh_token"))
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"fresh-token","token_type":"Bearer","expires_in":3600}`)
	})
	mux.HandleFunc("/gmail/v1/users/me/messages/send", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer fresh-token" {
			t.Errorf("authorization = %q, want refreshed token", got)
		}
		fmt.Fprint(w, `{"id":"m"}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.AccessToken = ""
	cfg.RefreshToken = "refresh-token"

	c := NewClient(cfg)
	if _, err := c.Send(context.Background(), delivery.Message{From: "a@b.co", To: "c@d.co"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
}
