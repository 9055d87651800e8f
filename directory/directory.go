// Package directory looks up healthcare organizations in the public NPI
// registry (the national directory of providers and facilities).
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultRegistryURL is the public NPI registry endpoint.
const DefaultRegistryURL = "https://npiregistry.cms.hhs.gov/api/"

// Organization is one facility returned by a directory search.
type Organization struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	NPI     string `json:"npi"`
}

// Directory finds healthcare organizations near a postal code.
type Directory interface {
	Search(ctx context.Context, postalCode, specialty string, limit int) ([]Organization, error)
}

// RegistryClient queries the NPI registry API (version 2.1). Lookups are
// best-effort: an empty result set is not an error.
type RegistryClient struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a RegistryClient.
type Option func(*RegistryClient)

// WithBaseURL overrides the registry endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *RegistryClient) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *RegistryClient) {
		c.httpClient = client
	}
}

// NewRegistryClient creates a registry client with a 10 second timeout.
func NewRegistryClient(opts ...Option) *RegistryClient {
	c := &RegistryClient{
		baseURL:    DefaultRegistryURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type registryResponse struct {
	ResultCount int              `json:"result_count"`
	Results     []registryResult `json:"results"`
}

type registryResult struct {
	Number string `json:"number"`
	Basic  struct {
		OrganizationName string `json:"organization_name"`
		Name             string `json:"name"`
	} `json:"basic"`
	Addresses []struct {
		AddressPurpose  string `json:"address_purpose"`
		Address1        string `json:"address_1"`
		City            string `json:"city"`
		State           string `json:"state"`
		PostalCode      string `json:"postal_code"`
		TelephoneNumber string `json:"telephone_number"`
	} `json:"addresses"`
}

// Search returns organizations near postalCode matching the taxonomy
// description. Only organizational records (entity type 2) are requested.
func (c *RegistryClient) Search(ctx context.Context, postalCode, specialty string, limit int) ([]Organization, error) {
	if limit <= 0 {
		limit = 5
	}

	params := url.Values{}
	params.Set("version", "2.1")
	params.Set("postal_code", postalCode)
	params.Set("taxonomy_description", specialty)
	params.Set("enumeration_type", "NPI-2")
	params.Set("limit", fmt.Sprintf("%d", limit))

	endpoint := c.baseURL + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("registry request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("registry returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed registryResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse registry response: %w", err)
	}

	orgs := make([]Organization, 0, len(parsed.Results))
	for _, result := range parsed.Results {
		name := result.Basic.OrganizationName
		if name == "" {
			name = result.Basic.Name
		}
		org := Organization{
			Name: name,
			NPI:  result.Number,
		}
		for _, addr := range result.Addresses {
			if addr.AddressPurpose != "LOCATION" && org.Address != "" {
				continue
			}
			parts := []string{}
			for _, p := range []string{addr.Address1, addr.City, addr.State, addr.PostalCode} {
				if p != "" {
					parts = append(parts, p)
				}
			}
			org.Address = strings.Join(parts, ", ")
			org.Phone = addr.TelephoneNumber
			if addr.AddressPurpose == "LOCATION" {
				break
			}
		}
		orgs = append(orgs, org)
	}
	return orgs, nil
}
