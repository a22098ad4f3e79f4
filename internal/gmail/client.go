// Package gmail sends mail through the Gmail REST API on behalf of an
// OAuth-authorized user. Tokens are refreshed automatically when a
// refresh token is configured.
package gmail

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/mail"
	"net/textproto"
	"strings"

	"golang.org/x/oauth2"

	"github.com/pathlight/mailbroker/internal/config"
	"github.com/pathlight/mailbroker/internal/pkg/httpretry"
	"github.com/pathlight/mailbroker/internal/service/delivery"
)

// Client is a Gmail API client bound to one user's credentials.
type Client struct {
	baseURL    string
	httpClient httpretry.HTTPDoer
}

// NewClient creates a Gmail client from configuration. The access token
// is used as-is; when it expires the refresh token, if present, mints a
// new one against the configured token endpoint.
func NewClient(cfg config.GmailConfig) *Client {
	oc := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: cfg.TokenURL},
	}
	tok := &oauth2.Token{
		AccessToken:  cfg.AccessToken,
		RefreshToken: cfg.RefreshToken,
		TokenType:    "Bearer",
	}

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient,
		&http.Client{Timeout: cfg.Timeout()})
	authed := oauth2.NewClient(ctx, oc.TokenSource(ctx, tok))
	authed.Timeout = cfg.Timeout()

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: httpretry.NewRetryClient(authed, 2),
	}
}

// Name implements delivery.Transport.
func (c *Client) Name() string { return "gmail" }

// Send implements delivery.Transport. The message is rendered as RFC 822
// text, base64url-encoded, and posted to the user's messages.send
// endpoint. Returns the Gmail message id.
func (c *Client) Send(ctx context.Context, msg delivery.Message) (string, error) {
	raw := base64.URLEncoding.EncodeToString(buildRFC822(msg))
	payload, err := json.Marshal(map[string]string{"raw": raw})
	if err != nil {
		return "", fmt.Errorf("encoding message: %w", err)
	}

	var parsed struct {
		ID string `json:"id"`
	}
	err = c.doJSON(ctx, http.MethodPost, "/gmail/v1/users/me/messages/send",
		bytes.NewReader(payload), &parsed)
	if err != nil {
		return "", err
	}
	return parsed.ID, nil
}

// SenderAddress implements delivery.SenderDiscoverer by fetching the
// authenticated user's Gmail profile.
func (c *Client) SenderAddress(ctx context.Context) (string, error) {
	var parsed struct {
		EmailAddress string `json:"emailAddress"`
	}
	err := c.doJSON(ctx, http.MethodGet, "/gmail/v1/users/me/profile", nil, &parsed)
	if err != nil {
		return "", err
	}
	return parsed.EmailAddress, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("gmail API error (status %d): %s", resp.StatusCode, string(data))
	}
	return json.Unmarshal(data, out)
}

// buildRFC822 renders a message as wire-format email text. An HTML body
// is wrapped in multipart/alternative with the raw body doubling as the
// plain-text fallback part.
func buildRFC822(msg delivery.Message) []byte {
	from := mail.Address{Name: msg.FromName, Address: msg.From}

	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", from.String())
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")

	if !msg.HTML {
		b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
		b.WriteString(msg.Body)
		return b.Bytes()
	}

	w := multipart.NewWriter(&b)
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", w.Boundary())
	for _, contentType := range []string{"text/plain; charset=UTF-8", "text/html; charset=UTF-8"} {
		part, _ := w.CreatePart(textproto.MIMEHeader{"Content-Type": {contentType}})
		part.Write([]byte(msg.Body))
	}
	w.Close()
	return b.Bytes()
}
