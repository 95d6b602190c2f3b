// Package registry is a client for the Terraform module registry v1 API:
// module details, version listing, download-location resolution, and
// search. Responses are small JSON documents; the client retries transient
// failures and treats 404 as a typed not-found.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-hclog"
	retryablehttp "github.com/hashicorp/go-retryablehttp"
	version "github.com/hashicorp/go-version"

	"github.com/Kamalesh-Seervi/gap-terraform-mcp-server/internal/fetch"
)

// DefaultBaseURL is the public Terraform registry.
const DefaultBaseURL = "https://registry.terraform.io"

// DefaultTimeout bounds one registry request, response body included.
const DefaultTimeout = 30 * time.Second

// Module is a registry module listing entry.
type Module struct {
	ID          string `json:"id"`
	Namespace   string `json:"namespace"`
	Name        string `json:"name"`
	Provider    string `json:"provider"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Downloads   int    `json:"downloads"`
	Source      string `json:"source"`
}

// Client talks to one registry host.
type Client struct {
	base string
	http *retryablehttp.Client
	log  hclog.Logger
}

// NewClient creates a Client for baseURL (DefaultBaseURL when empty).
// timeout <= 0 selects DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration, log hclog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	rc := retryablehttp.NewClient()
	rc.HTTPClient = cleanhttp.DefaultPooledClient()
	rc.HTTPClient.Timeout = timeout
	rc.RetryMax = 3
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 5 * time.Second
	rc.Logger = nil

	return &Client{
		base: strings.TrimSuffix(baseURL, "/"),
		http: rc,
		log:  log.Named("registry"),
	}
}

// Latest fetches the module details document, whose version field is the
// latest published release.
func (c *Client) Latest(ctx context.Context, ref fetch.RegistryRef) (*Module, error) {
	var mod Module
	path := fmt.Sprintf("/v1/modules/%s/%s/%s", ref.Namespace, ref.Name, ref.Provider)
	if err := c.getJSON(ctx, path, nil, &mod); err != nil {
		return nil, err
	}
	return &mod, nil
}

// Versions lists the published versions for a module, unsorted as the
// registry returns them.
func (c *Client) Versions(ctx context.Context, ref fetch.RegistryRef) ([]string, error) {
	var doc struct {
		Modules []struct {
			Versions []struct {
				Version string `json:"version"`
			} `json:"versions"`
		} `json:"modules"`
	}
	path := fmt.Sprintf("/v1/modules/%s/%s/%s/versions", ref.Namespace, ref.Name, ref.Provider)
	if err := c.getJSON(ctx, path, nil, &doc); err != nil {
		return nil, err
	}
	var out []string
	for _, m := range doc.Modules {
		for _, v := range m.Versions {
			out = append(out, v.Version)
		}
	}
	return out, nil
}

// Search queries the registry module search endpoint, optionally filtered
// by provider.
func (c *Client) Search(ctx context.Context, query, provider string) ([]Module, error) {
	var doc struct {
		Modules []Module `json:"modules"`
	}
	params := url.Values{"q": []string{query}}
	if provider != "" {
		params.Set("provider", provider)
	}
	if err := c.getJSON(ctx, "/v1/modules/search", params, &doc); err != nil {
		return nil, err
	}
	return doc.Modules, nil
}

// ResolveDownload implements fetch.Resolver: it picks the requested (or
// latest) version and resolves the download endpoint's X-Terraform-Get
// header to a concrete source location.
func (c *Client) ResolveDownload(ctx context.Context, ref fetch.RegistryRef) (string, error) {
	v := ref.Version
	if v == "" {
		latest, err := c.latestVersion(ctx, ref)
		if err != nil {
			return "", err
		}
		v = latest
	}

	path := fmt.Sprintf("/v1/modules/%s/%s/%s/%s/download", ref.Namespace, ref.Name, ref.Provider, v)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", &fetch.Error{Reason: fetch.NetworkFailure, Ref: ref.String(), Err: err}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNoContent, http.StatusOK:
		loc := resp.Header.Get("X-Terraform-Get")
		if loc == "" {
			return "", &fetch.Error{Reason: fetch.NotFound, Ref: ref.String(),
				Err: fmt.Errorf("registry returned no download location")}
		}
		c.log.Debug("resolved module download", "ref", ref.String(), "version", v)
		return loc, nil
	case http.StatusNotFound:
		return "", &fetch.Error{Reason: fetch.NotFound, Ref: ref.String()}
	default:
		return "", &fetch.Error{Reason: fetch.NetworkFailure, Ref: ref.String(),
			Err: fmt.Errorf("registry returned %d", resp.StatusCode)}
	}
}

// latestVersion sorts the published versions and returns the highest.
// The details document's version field would usually do, but sorting the
// version list keeps the choice well-defined when the registry's notion of
// "latest" lags a release.
func (c *Client) latestVersion(ctx context.Context, ref fetch.RegistryRef) (string, error) {
	raw, err := c.Versions(ctx, ref)
	if err != nil {
		return "", err
	}
	var coll version.Collection
	for _, s := range raw {
		v, err := version.NewVersion(s)
		if err != nil {
			continue // tolerate odd tags, they just lose the race
		}
		coll = append(coll, v)
	}
	if len(coll) == 0 {
		return "", &fetch.Error{Reason: fetch.NotFound, Ref: ref.String(),
			Err: fmt.Errorf("no parseable versions published")}
	}
	latest := coll[0]
	for _, v := range coll[1:] {
		if v.GreaterThan(latest) {
			latest = v
		}
	}
	return latest.Original(), nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out interface{}) error {
	u := c.base + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return &fetch.Error{Reason: fetch.NetworkFailure, Ref: path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return &fetch.Error{Reason: fetch.NotFound, Ref: path}
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &fetch.Error{Reason: fetch.NetworkFailure, Ref: path,
			Err: fmt.Errorf("registry returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
