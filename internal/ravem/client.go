// Package ravem talks to the RAVEM audiovisual-equipment control API.
package ravem

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"conference-plugins/pkg/logger"

	"github.com/icholy/digest"
	"go.uber.org/zap"
)

type Config struct {
	APIEndpoint string
	Username    string
	Password    string
	Prefix      string
	Timeout     time.Duration
}

type Client struct {
	cfg  Config
	http *http.Client
	log  *logger.Logger
}

// NewClient builds a client authenticating with HTTP digest auth. TLS
// certificates of the RAVEM host are not verified.
func NewClient(cfg Config, log *logger.Logger) *Client {
	base := http.DefaultTransport.(*http.Transport).Clone()
	base.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // RAVEM hosts use self-signed certificates
	transport := &digest.Transport{
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: base,
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Transport: transport, Timeout: cfg.Timeout},
		log:  logger.OrNop(log),
	}
}

// APICall issues one request to endpoint, resolved against the configured
// API root. params are sent as query parameters for both GET and POST.
//
// The decoded JSON object is returned as is: callers decide how to treat an
// "error" key. Transport failures, non-2xx statuses and bodies carrying
// neither "error" nor "result" are logged and returned as errors.
func (c *Client) APICall(ctx context.Context, endpoint, method string, params map[string]string) (map[string]interface{}, error) {
	method = strings.ToUpper(method)
	if method != http.MethodGet && method != http.MethodPost {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMethod, method)
	}

	target, err := resolveURL(c.cfg.APIEndpoint, endpoint, params)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error(ctx, "failed call to ravem",
			zap.String("method", method),
			zap.String("endpoint", endpoint),
			zap.Any("params", params),
			zap.Error(err),
		)
		return nil, fmt.Errorf("ravem %s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.log.Error(ctx, "failed to read ravem response",
			zap.String("method", method),
			zap.String("url", target),
			zap.Error(err),
		)
		return nil, fmt.Errorf("ravem %s %s: read body: %w", method, endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{Method: method, URL: target, StatusCode: resp.StatusCode, Body: string(body)}
		c.log.Error(ctx, "ravem call failed",
			zap.String("method", method),
			zap.String("url", target),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body),
		)
		return nil, statusErr
	}

	var payload map[string]interface{}
	decodeErr := json.Unmarshal(body, &payload)
	_, hasError := payload["error"]
	_, hasResult := payload["result"]
	if decodeErr != nil || (!hasError && !hasResult) {
		msg := fmt.Sprintf("%s %s returned a json without a result or error: %s", method, target, body)
		c.log.Error(ctx, "malformed ravem response",
			zap.String("method", method),
			zap.String("url", target),
			zap.ByteString("body", body),
		)
		return nil, &APIError{Message: msg, Endpoint: endpoint, Response: body}
	}

	return payload, nil
}

func resolveURL(root, endpoint string, params map[string]string) (string, error) {
	base, err := url.Parse(root)
	if err != nil {
		return "", fmt.Errorf("invalid ravem api endpoint %q: %w", root, err)
	}
	ref, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid ravem endpoint %q: %w", endpoint, err)
	}
	u := base.ResolveReference(ref)
	if len(params) > 0 {
		q := u.Query()
		for k, v := range params {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
