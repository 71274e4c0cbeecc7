// Package publish pushes inferred schema documents to a remote collector.
package publish

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	json "github.com/goccy/go-json"
)

var ErrUnexpectedResponse = errors.New("unexpected response code")

type Client struct {
	APIKey string
	Server string

	http *http.Client
}

func NewClient(apikey, server string) (*Client, error) {
	if server == "" {
		return nil, errors.New("missing collector server url")
	}
	return &Client{
		APIKey: apikey,
		Server: server,
		http:   &http.Client{},
	}, nil
}

type SchemaUpload struct {
	Source  string `json:"source"`
	Samples int    `json:"samples"`
	Schema  any    `json:"schema"`
}

// PublishSchema uploads one schema document.
func (c *Client) PublishSchema(ctx context.Context, up *SchemaUpload) error {
	bs, err := json.Marshal(up)
	if err != nil {
		return err
	}

	u := fmt.Sprintf("%s/api/v1/schemas", c.Server)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(bs))
	if err != nil {
		return err
	}
	req.Header.Add("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", c.APIKey))
	}

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusCreated && res.StatusCode != http.StatusAccepted {
		return fmt.Errorf("%w: %d", ErrUnexpectedResponse, res.StatusCode)
	}

	return nil
}
