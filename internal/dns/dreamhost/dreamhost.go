// Package dreamhost implements the DNS provider boundary against the
// DreamHost API. Record mutations are authenticated GET requests carrying a
// cmd parameter (dns-add_record, dns-remove_record, dns-list_records) and a
// JSON result/data response.
package dreamhost

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/certhook/certhook/internal/config"
	"github.com/certhook/certhook/internal/dns"
	"github.com/certhook/certhook/internal/ui"
)

// maxBodySize caps a response body read. Large enough for any reasonable
// record listing.
const maxBodySize = 1024 * 1024 // 1mb

// ErrNoRecord is returned when no managed TXT record exists for the
// requested name.
var ErrNoRecord = errors.New("no existing record found")

func init() {
	dns.Register("dreamhost", func(cfg *config.Config) (dns.Provider, error) {
		return New(cfg)
	})
}

// Record is a DNS record as returned by dns-list_records. Fields we don't
// need are ignored.
type Record struct {
	Record string `json:"record"`
	Type   string `json:"type"`
	Value  string `json:"value"`
}

// Client is a minimal DreamHost API client covering TXT record management.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a client for the given endpoint. Every request carries
// the API key and a bounded timeout.
func NewClient(apiKey, baseURL string, timeout time.Duration) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// call issues one API command and returns the raw data payload. A result
// other than "success" is a provider API error carrying the data string
// (e.g. "invalid_api_key", "no_such_zone").
func (c *Client) call(ctx context.Context, cmd string, params url.Values) (json.RawMessage, error) {
	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("format", "json")
	q.Set("cmd", cmd)
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("while querying the DreamHost API for %q: %w", cmd, err)
	}
	defer resp.Body.Close()

	var r struct {
		Result string          `json:"result"`
		Data   json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(&r); err != nil {
		return nil, fmt.Errorf("while decoding the DreamHost API response for %q: %w", cmd, err)
	}
	if r.Result != "success" {
		var detail string
		_ = json.Unmarshal(r.Data, &detail)
		if detail == "" {
			detail = string(r.Data)
		}
		return nil, fmt.Errorf("DreamHost API %q returned %s: %s", cmd, r.Result, detail)
	}
	return r.Data, nil
}

// AddRecord publishes a TXT record.
func (c *Client) AddRecord(ctx context.Context, record, value string) error {
	_, err := c.call(ctx, "dns-add_record", url.Values{
		"record": []string{record},
		"type":   []string{"TXT"},
		"value":  []string{value},
	})
	return err
}

// RemoveRecord deletes a TXT record. The value must match the stored one.
func (c *Client) RemoveRecord(ctx context.Context, record, value string) error {
	_, err := c.call(ctx, "dns-remove_record", url.Values{
		"record": []string{record},
		"type":   []string{"TXT"},
		"value":  []string{value},
	})
	return err
}

// ListRecords returns every DNS record on the account.
func (c *Client) ListRecords(ctx context.Context) ([]Record, error) {
	data, err := c.call(ctx, "dns-list_records", nil)
	if err != nil {
		return nil, err
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("while decoding the DreamHost record listing: %w", err)
	}
	return records, nil
}

// findTXT locates the managed TXT record with the given name, or ErrNoRecord.
func (c *Client) findTXT(ctx context.Context, record string) (*Record, error) {
	records, err := c.ListRecords(ctx)
	if err != nil {
		return nil, err
	}
	for i := range records {
		if records[i].Record == record && records[i].Type == "TXT" {
			return &records[i], nil
		}
	}
	return nil, ErrNoRecord
}

// Provider satisfies DNS-01 challenges through the DreamHost API.
type Provider struct {
	client *Client
	settle time.Duration
}

// New builds the provider from the loaded configuration. The API key must
// already be present; the registry factory runs after the fail-fast check.
func New(cfg *config.Config) (*Provider, error) {
	if err := cfg.RequireAPIKey(); err != nil {
		return nil, err
	}
	return &Provider{
		client: NewClient(cfg.APIKey, cfg.APIURL, cfg.APITimeout),
		settle: cfg.Propagation.Settle,
	}, nil
}

// Present publishes the validation value as the domain's challenge TXT
// record. A stale record with a different value is removed first; a record
// already carrying the value makes this a no-op, so retried invocations for
// the same domain/token are safe.
func (p *Provider) Present(ctx context.Context, domain, token, value string) error {
	record := dns.ChallengeRecord(domain)

	ui.Progress("Checking if TXT record for %s exists...", record)
	existing, err := p.client.findTXT(ctx, record)
	switch {
	case err == nil:
		if existing.Value == value {
			ui.Progress("TXT record for %s already carries the expected value", record)
			return nil
		}
		ui.Progress("Old TXT record found, removing...")
		if err := p.client.RemoveRecord(ctx, record, existing.Value); err != nil {
			ui.Result("record_removed", false)
			return err
		}
		ui.Result("record_removed", true)
		if err := p.settleDown(ctx); err != nil {
			return err
		}
	case errors.Is(err, ErrNoRecord):
		// Nothing stale to clear.
	default:
		return err
	}

	ui.Progress("Adding new TXT record %s...", value)
	if err := p.client.AddRecord(ctx, record, value); err != nil {
		ui.Result("record_added", false)
		return err
	}
	ui.Result("record_added", true)
	return nil
}

// CleanUp removes the domain's challenge TXT record. An absent record is
// already-satisfied success.
func (p *Provider) CleanUp(ctx context.Context, domain, token, value string) error {
	record := dns.ChallengeRecord(domain)

	ui.Progress("Checking if TXT record for %s exists...", record)
	existing, err := p.client.findTXT(ctx, record)
	if errors.Is(err, ErrNoRecord) {
		ui.Progress("No TXT record for %s found, nothing to clean", record)
		return nil
	}
	if err != nil {
		return err
	}

	ui.Progress("Removing old TXT record...")
	if err := p.client.RemoveRecord(ctx, record, existing.Value); err != nil {
		ui.Result("record_removed", false)
		return err
	}
	ui.Result("record_removed", true)
	return nil
}

// settleDown pauses between a remove and the following add so the provider
// side can complete the first mutation.
func (p *Provider) settleDown(ctx context.Context) error {
	if p.settle <= 0 {
		return nil
	}
	ui.Progress("Settling down for %s...", p.settle)
	t := time.NewTimer(p.settle)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
