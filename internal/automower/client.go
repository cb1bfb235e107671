// Package automower talks to the remote mower API: it reads device
// snapshots (the state source) and submits schedule replacements (the
// command channel).
package automower

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	appLog "mowercal/internal/log"
	"mowercal/internal/model"
)

const contentTypeJSONAPI = "application/vnd.api+json"

// Client is an HTTP client for the mower connect API.
type Client struct {
	client  *http.Client
	baseURL string
	appKey  string
	token   string
}

// NewClient creates a Client for the given API base URL.
// appKey and token are sent on every request.
func NewClient(baseURL, appKey, token string) *Client {
	return &Client{
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		appKey:  appKey,
		token:   token,
	}
}

// wire types for the JSON:API shaped responses.

type mowerListDocument struct {
	Data []mowerResource `json:"data"`
}

type mowerResource struct {
	Type       string          `json:"type"`
	ID         string          `json:"id"`
	Attributes mowerAttributes `json:"attributes"`
}

type mowerAttributes struct {
	System struct {
		Name         string `json:"name"`
		Model        string `json:"model"`
		SerialNumber int64  `json:"serialNumber"`
	} `json:"system"`
	Positions []model.Position `json:"positions"`
	Calendar  struct {
		Tasks []model.Task `json:"tasks"`
	} `json:"calendar"`
}

// calendarCommand is the schedule replacement payload. Submitting it
// replaces every stored task on the device.
type calendarCommand struct {
	Data struct {
		Type       string `json:"type"`
		Attributes struct {
			Tasks []model.Task `json:"tasks"`
		} `json:"attributes"`
	} `json:"data"`
}

// ListMowers fetches the current snapshot of every paired mower.
func (c *Client) ListMowers(ctx context.Context) ([]model.Mower, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/mowers", nil)
	if err != nil {
		return nil, err
	}
	c.setAuthHeaders(req)
	req.Header.Set("Accept", contentTypeJSONAPI)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mower list: %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var doc mowerListDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, err
	}

	mowers := make([]model.Mower, 0, len(doc.Data))
	for _, res := range doc.Data {
		mowers = append(mowers, model.Mower{
			ID:        res.ID,
			Name:      res.Attributes.System.Name,
			Model:     res.Attributes.System.Model,
			Positions: res.Attributes.Positions,
			Tasks:     res.Attributes.Calendar.Tasks,
		})
	}

	appLog.Info("mower snapshot fetched", "count", len(mowers))
	return mowers, nil
}

// SendCalendar submits tasks as a full schedule replacement for one
// mower. The command payload shape is fixed by the device API:
//
//	{"data":{"type":"calendar","attributes":{"tasks":[...]}}}
func (c *Client) SendCalendar(ctx context.Context, mowerID string, tasks []model.Task) error {
	if mowerID == "" {
		return errors.New("mower id is empty")
	}

	var cmd calendarCommand
	cmd.Data.Type = "calendar"
	cmd.Data.Attributes.Tasks = tasks

	payload, err := json.Marshal(cmd)
	if err != nil {
		return err
	}

	url := c.baseURL + "/mowers/" + mowerID + "/calendar"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	c.setAuthHeaders(req)
	req.Header.Set("Content-Type", contentTypeJSONAPI)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("calendar command: %s", resp.Status)
	}

	appLog.Info("calendar command accepted", "mower_id", mowerID, "task_count", len(tasks))
	return nil
}

func (c *Client) setAuthHeaders(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Authorization-Provider", "husqvarna")
	}
	if c.appKey != "" {
		req.Header.Set("X-Api-Key", c.appKey)
	}
}
