package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"fleamarket.gg/internal/protocol"
)

// adminClient talks to a running server. The admin routes only answer
// loopback callers, so it is meant to run on the same host.
type adminClient struct {
	http *resty.Client
}

func newAdminClient(baseURL string, timeout time.Duration) *adminClient {
	c := resty.New()
	c.SetBaseURL(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	c.SetTimeout(timeout)
	c.SetHeader("Accept", "application/json")
	return &adminClient{http: c}
}

// State returns the raw /admin/v1/state document.
func (c *adminClient) State() (json.RawMessage, error) {
	return c.do("GET", "/admin/v1/state")
}

func (c *adminClient) Sweep() (json.RawMessage, error) {
	return c.do("POST", "/admin/v1/sweep")
}

func (c *adminClient) Snapshot() (json.RawMessage, error) {
	return c.do("POST", "/admin/v1/snapshot")
}

// Prices fetches the live flea price of every listed tpl.
func (c *adminClient) Prices() (map[string]float64, error) {
	var reply struct {
		OK      bool               `json:"ok"`
		Code    string             `json:"code"`
		Message string             `json:"message"`
		Body    map[string]float64 `json:"body"`
	}
	resp, err := c.http.R().SetResult(&reply).Get("/client/ragfair/prices")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("prices: %s", resp.Status())
	}
	if !reply.OK {
		return nil, fmt.Errorf("prices: %s %s", reply.Code, reply.Message)
	}
	return reply.Body, nil
}

// MarketPrice fetches the avg/min/max quote for one tpl.
func (c *adminClient) MarketPrice(tpl string) (json.RawMessage, error) {
	resp, err := c.http.R().
		SetBody(protocol.MarketPriceRequest{TemplateID: tpl}).
		Post("/client/ragfair/itemMarketPrice")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return resp.Body(), fmt.Errorf("%s", resp.Status())
	}
	return resp.Body(), nil
}

func (c *adminClient) do(method, path string) (json.RawMessage, error) {
	resp, err := c.http.R().Execute(method, path)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return resp.Body(), fmt.Errorf("%s %s: %s", method, path, resp.Status())
	}
	return resp.Body(), nil
}
