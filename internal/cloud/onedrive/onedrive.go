// Package onedrive uploads files to a OneDrive drive through Microsoft Graph
// using app-only (client credentials) auth, and hands back an edit link.
package onedrive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/akolanti/extractview/internal/config"
	"github.com/akolanti/extractview/internal/customHttpClient"
	"github.com/akolanti/extractview/internal/metrics"
	"github.com/akolanti/extractview/pkg/logger_i"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/oauth2/microsoft"
)

var ErrNotConfigured = errors.New("onedrive is not configured")

const requestTimeout = 2 * time.Minute

// Uploader is what the HTTP layer needs from a cloud drive.
type Uploader interface {
	UploadAndGetLink(ctx context.Context, localPath string) (string, error)
}

type Client struct {
	tokens       oauth2.TokenSource
	http         *http.Client
	baseURL      string
	userID       string
	remoteFolder string
	logger       *logger_i.Logger
}

type Options struct {
	Config config.OneDriveConfig
	// TokenURL and GraphBaseURL default to the public Microsoft endpoints.
	TokenURL     string
	GraphBaseURL string
}

func New(opts Options) (*Client, error) {
	cfg := opts.Config
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}
	tenant := cfg.TenantID
	if tenant == "" {
		tenant = "common"
	}
	tokenURL := opts.TokenURL
	if tokenURL == "" {
		tokenURL = microsoft.AzureADEndpoint(tenant).TokenURL
	}
	baseURL := strings.TrimRight(opts.GraphBaseURL, "/")
	if baseURL == "" {
		baseURL = config.OneDriveGraphBaseURL
	}
	remote := strings.Trim(cfg.RemoteFolder, "/")
	if remote == "" {
		remote = config.OneDriveRemoteFolder
	}

	credentials := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     tokenURL,
		Scopes:       []string{"https://graph.microsoft.com/.default"},
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	pooled := customHttpClient.New(requestTimeout)
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, pooled)

	return &Client{
		tokens:       credentials.TokenSource(tokenCtx),
		http:         credentials.Client(tokenCtx),
		baseURL:      baseURL,
		userID:       cfg.UserID,
		remoteFolder: remote,
		logger:       logger_i.NewLogger("OneDrive"),
	}, nil
}

// GetAccessToken returns a valid app-only token, refreshing it when expired.
func (c *Client) GetAccessToken(ctx context.Context) (string, error) {
	tok, err := c.tokens.Token()
	if err != nil {
		return "", fmt.Errorf("cannot get access token: %w", err)
	}
	return tok.AccessToken, nil
}

// UploadAndGetLink puts the file under the configured remote folder of the
// target user's drive and creates an anonymous edit link for it.
func (c *Client) UploadAndGetLink(ctx context.Context, localPath string) (string, error) {
	start := time.Now()
	defer func() {
		metrics.CaptureExecutionMetrics("onedrive", time.Since(start))
	}()

	content, err := os.ReadFile(localPath)
	if err != nil {
		return "", err
	}
	userID, err := c.targetUser(ctx)
	if err != nil {
		return "", err
	}

	name := filepath.Base(localPath)
	remotePath := escapeSegments(c.remoteFolder + "/" + name)
	uploadURL := fmt.Sprintf("%s/users/%s/drive/root:/%s:/content", c.baseURL, url.PathEscape(userID), remotePath)

	var item struct {
		Id string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPut, uploadURL, "application/octet-stream", bytes.NewReader(content), &item); err != nil {
		return "", fmt.Errorf("uploading %s: %w", name, err)
	}
	c.logger.Info("uploaded file", "name", name, "itemId", item.Id)

	body, _ := json.Marshal(map[string]string{"type": "edit", "scope": "anonymous"})
	linkURL := fmt.Sprintf("%s/users/%s/drive/items/%s/createLink", c.baseURL, url.PathEscape(userID), url.PathEscape(item.Id))
	var link struct {
		Link struct {
			WebUrl string `json:"webUrl"`
		} `json:"link"`
	}
	if err := c.do(ctx, http.MethodPost, linkURL, "application/json", bytes.NewReader(body), &link); err != nil {
		return "", fmt.Errorf("creating link for %s: %w", name, err)
	}
	if link.Link.WebUrl == "" {
		return "", errors.New("graph returned no sharing link")
	}
	return link.Link.WebUrl, nil
}

// targetUser falls back to the first user in the tenant; app-only tokens
// have no /me.
func (c *Client) targetUser(ctx context.Context) (string, error) {
	if c.userID != "" {
		return c.userID, nil
	}
	var users struct {
		Value []struct {
			Id                string `json:"id"`
			UserPrincipalName string `json:"userPrincipalName"`
		} `json:"value"`
	}
	if err := c.do(ctx, http.MethodGet, c.baseURL+"/users?$top=1", "", nil, &users); err != nil {
		return "", fmt.Errorf("listing users: %w", err)
	}
	if len(users.Value) == 0 {
		return "", errors.New("no users found in tenant")
	}
	c.logger.Info("auto-selected drive owner", "user", users.Value[0].UserPrincipalName)
	return users.Value[0].Id, nil
}

type graphError struct {
	Status  int
	Code    string
	Message string
}

func (e *graphError) Error() string {
	if e.Status == http.StatusNotFound {
		return "user drive not found (user may lack a OneDrive license)"
	}
	return fmt.Sprintf("graph returned %d %s: %s", e.Status, e.Code, e.Message)
}

func (c *Client) do(ctx context.Context, method, target, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var payload struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&payload)
		return &graphError{Status: resp.StatusCode, Code: payload.Error.Code, Message: payload.Error.Message}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func escapeSegments(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
