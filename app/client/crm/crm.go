package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"neuroseven/app/config"
	"neuroseven/app/service/thread"

	"github.com/samber/do"
)

// API commits agreed call slots to the external CRM.
type API interface {
	CreateAppointment(ctx context.Context, info thread.UserInfo, at time.Time) error
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

type appointmentRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Purpose  string `json:"purpose,omitempty"`
	Interest string `json:"interest,omitempty"`
	Time     string `json:"time"`
}

func (c *Client) CreateAppointment(ctx context.Context, info thread.UserInfo, at time.Time) error {
	body, err := json.Marshal(appointmentRequest{
		Name:     info.Name,
		Phone:    info.Phone,
		Purpose:  info.Purpose,
		Interest: info.Interest,
		Time:     at.Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal appointment: %w", err)
	}

	endpoint := c.cfg.CRM.BaseURL + "/appointments"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build CRM request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.CRM.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.CRM.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("CRM request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("CRM returned %s", resp.Status)
	}

	return nil
}
