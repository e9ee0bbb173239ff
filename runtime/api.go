package runtime

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/leofalp/agentgraph/agent"
	"github.com/leofalp/agentgraph/core/apperr"
	"github.com/leofalp/agentgraph/internal/utils"
)

const (
	apiTimeout   = 30 * time.Second
	apiUserAgent = "agentgraph-runtime/1.0"
	// maxAPIBodySize caps response bodies read by api nodes.
	maxAPIBodySize = 10 * 1024 * 1024
)

// executeAPI calls the node's endpoint. POST, PUT and PATCH send vars as a
// JSON body. JSON responses are decoded, HTML is converted to markdown and
// anything else is returned as text.
func (e *Executor) executeAPI(ctx context.Context, data agent.APIData, vars map[string]any) (map[string]any, error) {
	if strings.TrimSpace(data.Endpoint) == "" {
		return nil, apperr.MissingField("apiEndpoint")
	}
	endpoint, err := url.Parse(data.Endpoint)
	if err != nil || (endpoint.Scheme != "http" && endpoint.Scheme != "https") {
		return nil, apperr.Validation("apiEndpoint", fmt.Sprintf("invalid endpoint %q", data.Endpoint))
	}

	method := strings.ToUpper(strings.TrimSpace(data.Method))
	if method == "" {
		method = http.MethodPost
	}

	var body io.Reader
	if method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch {
		raw, err := json.Marshal(vars)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	ctx, cancel := context.WithTimeout(ctx, apiTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", apiUserAgent)
	for key, value := range data.Headers {
		req.Header.Set(key, value)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperr.Timeout("api call "+endpoint.Host, err)
		}
		return nil, apperr.Network(err)
	}
	defer utils.CloseWithLog(resp.Body)

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxAPIBodySize+1))
	if err != nil {
		return nil, apperr.Network(fmt.Errorf("read response body: %w", err))
	}
	if len(raw) > maxAPIBodySize {
		return nil, apperr.New(apperr.KindAPI, fmt.Sprintf("response body exceeds %d bytes", maxAPIBodySize))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperr.New(apperr.KindAPI, fmt.Sprintf("HTTP %d from %s", resp.StatusCode, endpoint.Host),
			apperr.WithCause(&utils.HTTPError{StatusCode: resp.StatusCode, Body: utils.TruncateString(string(raw), 200)}),
			apperr.WithRetryable(resp.StatusCode >= 500),
			apperr.WithField("statusCode", resp.StatusCode),
		)
	}

	response, err := decodeBody(resp.Header.Get("Content-Type"), raw)
	if err != nil {
		return nil, apperr.New(apperr.KindAPI, err.Error(), apperr.WithCause(err))
	}

	return map[string]any{
		"status":     "success",
		"statusCode": resp.StatusCode,
		"endpoint":   data.Endpoint,
		"method":     method,
		keyResponse:  response,
	}, nil
}

func decodeBody(contentType string, raw []byte) (any, error) {
	mediaType, _, _ := mime.ParseMediaType(contentType)

	switch {
	case mediaType == "application/json" || strings.HasSuffix(mediaType, "+json"):
		var decoded any
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return nil, fmt.Errorf("decode JSON response: %w", err)
		}
		return decoded, nil
	case mediaType == "text/html" || mediaType == "application/xhtml+xml":
		markdown, err := htmltomarkdown.ConvertString(string(raw))
		if err != nil {
			return nil, fmt.Errorf("convert HTML to markdown: %w", err)
		}
		return markdown, nil
	default:
		return string(raw), nil
	}
}
