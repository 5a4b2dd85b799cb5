package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"neuroseven/app/config"
	"neuroseven/app/service/thread"

	"github.com/samber/do"
	"github.com/samber/oops"
)

// ErrNoKey means the calling context carried no user_info key. That is a
// caller-side misconfiguration, never retried.
var ErrNoKey = oops.Errorf("no user info key configured for thread")

// Source fetches the user profile snapshot once per turn.
type Source interface {
	Fetch(ctx context.Context, userInfoKey string) (thread.UserInfo, error)
}

type Client struct {
	cfg        *config.Config
	httpClient *http.Client
}

func NewClient(di *do.Injector) (*Client, error) {
	return &Client{
		cfg: do.MustInvoke[*config.Config](di),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}, nil
}

func (c *Client) Fetch(ctx context.Context, userInfoKey string) (thread.UserInfo, error) {
	if userInfoKey == "" {
		return thread.UserInfo{}, ErrNoKey
	}

	endpoint := fmt.Sprintf("%s/profiles/%s", c.cfg.Profile.BaseURL, url.PathEscape(userInfoKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return thread.UserInfo{}, fmt.Errorf("failed to build profile request: %w", err)
	}
	if c.cfg.Profile.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Profile.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return thread.UserInfo{}, fmt.Errorf("profile request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return thread.UserInfo{}, fmt.Errorf("profile source returned %s", resp.Status)
	}

	var info thread.UserInfo
	if err = json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return thread.UserInfo{}, fmt.Errorf("failed to decode profile: %w", err)
	}

	return info, nil
}
