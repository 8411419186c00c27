// Package sap provides read access to SAP S/4HANA business partners and
// orders through the OData v2 APIs, plus note creation on partners.
package sap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
)

const (
	partnerPath      = "/API_BUSINESS_PARTNER/A_BusinessPartner"
	notePath         = "/API_BUSINESS_PARTNER/A_BPContactToFuncAndDept"
	salesOrderPath   = "/API_SALES_ORDER_SRV/A_SalesOrder"
	serviceOrderPath = "/API_SERVICE_ORDER_SRV/A_ServiceOrder"

	// MaxNoteLength caps note text.
	MaxNoteLength = 2000
)

// Client reads business context from SAP.
type Client interface {
	FindBusinessPartner(ctx context.Context, companyName string) (*BusinessPartner, error)
	SalesOrders(ctx context.Context, partnerID string, limit int) ([]SalesOrder, error)
	ServiceOrders(ctx context.Context, partnerID string, limit int) ([]ServiceOrder, error)
	CreateNote(ctx context.Context, note Note) (string, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithSAPClient sets the sap-client header (the SAP logon client number).
func WithSAPClient(client string) Option {
	return func(c *httpClient) {
		c.sapClient = client
	}
}

// WithBasicAuth sets the technical user credentials.
func WithBasicAuth(username, password string) Option {
	return func(c *httpClient) {
		c.username = username
		c.password = password
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

type httpClient struct {
	baseURL   string
	username  string
	password  string
	sapClient string
	http      *http.Client

	mu        sync.Mutex
	csrfToken string
}

// NewClient creates an OData client rooted at baseURL, e.g.
// https://host/sap/opu/odata/sap.
func NewClient(baseURL string, opts ...Option) Client {
	c := &httpClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// envelope is the OData v2 JSON wrapper.
type envelope[T any] struct {
	D struct {
		Results []T `json:"results"`
	} `json:"d"`
}

func (c *httpClient) FindBusinessPartner(ctx context.Context, companyName string) (*BusinessPartner, error) {
	if strings.TrimSpace(companyName) == "" {
		return nil, nil
	}
	q := url.Values{}
	q.Set("$filter", fmt.Sprintf("startswith(BusinessPartnerFullName,'%s')", escapeOData(companyName)))
	q.Set("$top", "1")
	q.Set("$format", "json")

	var env envelope[BusinessPartner]
	found, err := c.get(ctx, partnerPath, q, &env)
	if err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("sap: find business partner %s", companyName))
	}
	if !found || len(env.D.Results) == 0 {
		return nil, nil
	}
	return &env.D.Results[0], nil
}

func (c *httpClient) SalesOrders(ctx context.Context, partnerID string, limit int) ([]SalesOrder, error) {
	var env envelope[SalesOrder]
	if _, err := c.get(ctx, salesOrderPath, orderQuery(partnerID, "CreationDate", limit), &env); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("sap: sales orders for %s", partnerID))
	}
	return env.D.Results, nil
}

func (c *httpClient) ServiceOrders(ctx context.Context, partnerID string, limit int) ([]ServiceOrder, error) {
	var env envelope[ServiceOrder]
	if _, err := c.get(ctx, serviceOrderPath, orderQuery(partnerID, "ServiceOrderDate", limit), &env); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("sap: service orders for %s", partnerID))
	}
	return env.D.Results, nil
}

func (c *httpClient) CreateNote(ctx context.Context, note Note) (string, error) {
	if note.BusinessPartner == "" {
		return "", eris.New("sap: business partner is required for note")
	}
	if note.NoteType == "" {
		note.NoteType = "GENERAL"
	}
	if r := []rune(note.NoteText); len(r) > MaxNoteLength {
		note.NoteText = string(r[:MaxNoteLength])
	}
	if note.CreatedByUser == "" {
		note.CreatedByUser = c.username
	}
	if note.CreationDateTime.IsZero() {
		note.CreationDateTime = Date{time.Now()}
	}

	token, err := c.fetchCSRF(ctx)
	if err != nil {
		return "", eris.Wrap(err, "sap: fetch csrf token")
	}

	body, err := json.Marshal(note)
	if err != nil {
		return "", eris.Wrap(err, "sap: marshal note")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+notePath, bytes.NewReader(body))
	if err != nil {
		return "", eris.Wrap(err, "sap: create request")
	}
	c.decorate(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-CSRF-Token", token)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "sap: send note")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", eris.Wrap(err, "sap: read response")
	}
	if resp.StatusCode == http.StatusForbidden {
		c.resetCSRF()
	}
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", eris.Errorf("sap: create note: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var created struct {
		D struct {
			NoteID string `json:"NoteId"`
		} `json:"d"`
	}
	if err := json.Unmarshal(respBody, &created); err != nil {
		return "", eris.Wrap(err, "sap: unmarshal note response")
	}
	return created.D.NoteID, nil
}

// get issues a GET and decodes the body into out. A 404 reports found=false.
func (c *httpClient) get(ctx context.Context, path string, q url.Values, out any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return false, eris.Wrap(err, "create request")
	}
	c.decorate(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return false, eris.Wrap(err, "send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, eris.Wrap(err, "read response")
	}
	if resp.StatusCode != http.StatusOK {
		return false, eris.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return false, eris.Wrap(err, "unmarshal response")
	}
	return true, nil
}

// fetchCSRF returns the cached token or fetches a new one with a HEAD request.
func (c *httpClient) fetchCSRF(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.csrfToken != "" {
		return c.csrfToken, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+"/API_BUSINESS_PARTNER", nil)
	if err != nil {
		return "", eris.Wrap(err, "create request")
	}
	c.decorate(req)
	req.Header.Set("X-CSRF-Token", "Fetch")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	token := resp.Header.Get("X-CSRF-Token")
	if token == "" {
		return "", eris.Errorf("no token in response (status %d)", resp.StatusCode)
	}
	c.csrfToken = token
	return token, nil
}

func (c *httpClient) resetCSRF() {
	c.mu.Lock()
	c.csrfToken = ""
	c.mu.Unlock()
}

func (c *httpClient) decorate(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	if c.sapClient != "" {
		req.Header.Set("sap-client", c.sapClient)
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}
}

func orderQuery(partnerID, orderBy string, limit int) url.Values {
	if limit <= 0 {
		limit = 10
	}
	q := url.Values{}
	q.Set("$filter", fmt.Sprintf("SoldToParty eq '%s'", escapeOData(partnerID)))
	q.Set("$top", fmt.Sprint(limit))
	q.Set("$orderby", orderBy+" desc")
	q.Set("$format", "json")
	return q
}

// escapeOData doubles single quotes inside OData string literals.
func escapeOData(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
