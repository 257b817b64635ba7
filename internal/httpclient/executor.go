package httpclient

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/unkn0wn-root/restdock/internal/errdef"
	"github.com/unkn0wn-root/restdock/internal/history"
	"github.com/unkn0wn-root/restdock/internal/mask"
	"github.com/unkn0wn-root/restdock/internal/model"
	"github.com/unkn0wn-root/restdock/internal/reqdoc"
	"github.com/unkn0wn-root/restdock/internal/resolve"
	"github.com/unkn0wn-root/restdock/internal/secret"
	"github.com/unkn0wn-root/restdock/internal/telemetry"
)

type Options struct {
	Timeout            time.Duration
	FollowRedirects    bool
	InsecureSkipVerify bool
	ProxyURL           string
}

type Response struct {
	Status       string
	StatusCode   int
	Proto        string
	Headers      http.Header
	Body         []byte
	Duration     time.Duration
	EffectiveURL string
}

// Client executes parsed request documents against resolved environments.
// The credential cache lives on the toggler instance the caller owns; the
// client itself holds no secrets.
type Client struct {
	resolver    *resolve.Resolver
	history     *history.Store
	telemetry   telemetry.Instrumenter
	logger      zerolog.Logger
	httpFactory func(Options) (*http.Client, error)
	jar         http.CookieJar
}

func NewClient(
	resolver *resolve.Resolver,
	hist *history.Store,
	instr telemetry.Instrumenter,
	logger zerolog.Logger,
) *Client {
	if instr == nil {
		instr = telemetry.Noop()
	}
	jar, _ := cookiejar.New(nil)
	c := &Client{
		resolver:  resolver,
		history:   hist,
		telemetry: instr,
		logger:    logger,
		jar:       jar,
	}
	c.httpFactory = c.buildHTTPClient
	return c
}

// SetHTTPFactory overrides how http.Client instances are created. Passing nil
// restores the default factory.
func (c *Client) SetHTTPFactory(factory func(Options) (*http.Client, error)) {
	if factory == nil {
		factory = c.buildHTTPClient
	}
	c.httpFactory = factory
}

// Execute resolves the document's environment, merges headers (request lines
// win over resolved defaults), injects at most one auth header, performs the
// call once and records it. No retries - re-invoking is the caller's call.
func (c *Client) Execute(
	ctx context.Context,
	doc *reqdoc.Document,
	opts Options,
) (resp *Response, err error) {
	if doc == nil {
		return nil, errdef.New(errdef.CodeHTTP, "request document is nil")
	}
	if strings.TrimSpace(doc.EnvironmentID) == "" {
		return nil, errdef.New(errdef.CodeHTTP, "environment id is required on the request document")
	}

	resolved, err := c.resolver.Resolve("", doc.EnvironmentID)
	if err != nil {
		return nil, err
	}

	httpReq, err := c.prepareHTTPRequest(ctx, doc, resolved)
	if err != nil {
		return nil, err
	}

	effectiveOpts := opts
	if effectiveOpts.Timeout <= 0 {
		effectiveOpts.Timeout = resolved.ResolvedTimeout
	}

	client, err := c.httpFactory(effectiveOpts)
	if err != nil {
		return nil, err
	}

	spanCtx, span := c.telemetry.Start(httpReq.Context(), telemetry.RequestStart{
		HTTPRequest:   httpReq,
		EnvironmentID: resolved.Environment.ID,
		Environment:   resolved.Environment.Name,
	})
	httpReq = httpReq.WithContext(spanCtx)

	defer func() {
		statusCode := 0
		if resp != nil {
			statusCode = resp.StatusCode
		}
		span.End(telemetry.RequestResult{Err: err, StatusCode: statusCode})
	}()

	start := time.Now()
	httpResp, err := client.Do(httpReq)
	duration := time.Since(start)
	if err != nil {
		wrapped := errdef.Wrap(errdef.CodeHTTP, err, "perform request")
		c.record(doc, resolved, &Response{Duration: duration}, wrapped)
		return nil, wrapped
	}

	defer func() {
		if closeErr := httpResp.Body.Close(); closeErr != nil && err == nil {
			err = errdef.Wrap(errdef.CodeHTTP, closeErr, "close response body")
		}
	}()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		wrapped := errdef.Wrap(errdef.CodeHTTP, err, "read response body")
		c.record(doc, resolved, &Response{
			Status:     httpResp.Status,
			StatusCode: httpResp.StatusCode,
			Duration:   time.Since(start),
		}, wrapped)
		return nil, wrapped
	}
	duration = time.Since(start)

	resp = &Response{
		Status:       httpResp.Status,
		StatusCode:   httpResp.StatusCode,
		Proto:        httpResp.Proto,
		Headers:      httpResp.Header.Clone(),
		Body:         body,
		Duration:     duration,
		EffectiveURL: httpResp.Request.URL.String(),
	}

	c.record(doc, resolved, resp, nil)
	return resp, nil
}

func (c *Client) prepareHTTPRequest(
	ctx context.Context,
	doc *reqdoc.Document,
	resolved model.ResolvedConfig,
) (*http.Request, error) {
	target, err := prepareURL(doc.URL)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if strings.TrimSpace(doc.Body) != "" {
		body = strings.NewReader(doc.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, doc.Method, target, body)
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeHTTP, err, "build request")
	}

	for name, value := range resolved.ResolvedHeaders {
		httpReq.Header.Set(name, value)
	}
	// request-literal headers win over the resolved layer. Masked lines are
	// display placeholders, never sent.
	for _, header := range doc.Headers {
		if header.Masked {
			continue
		}
		httpReq.Header.Set(header.Name, header.Value)
	}

	c.applyAuthentication(httpReq, resolved)
	return httpReq, nil
}

// prepareURL drops unfilled optional placeholders and rejects required ones
// the user never replaced.
func prepareURL(raw string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", errdef.Wrap(errdef.CodeHTTP, err, "parse request url")
	}

	values := parsed.Query()
	for name, vals := range values {
		for _, val := range vals {
			if val == "<REQUIRED>" {
				return "", errdef.New(
					errdef.CodeHTTP,
					"query parameter %s still has the <REQUIRED> placeholder", name,
				)
			}
			if val == "<optional>" {
				values.Del(name)
			}
		}
	}
	parsed.RawQuery = values.Encode()
	return parsed.String(), nil
}

// applyAuthentication injects exactly one auth header based on the resolved
// auth type. An explicit request-level header wins; a missing or unavailable
// secret downgrades to a warning so unauthenticated flows keep working.
func (c *Client) applyAuthentication(req *http.Request, resolved model.ResolvedConfig) {
	if !resolved.ResolvedAuth.Active() {
		return
	}

	lookup := c.resolver.Credentials(resolved.Environment)
	switch lookup.State {
	case secret.LookupUnavailable:
		c.logger.Warn().
			Err(lookup.Err).
			Str("environment", resolved.Environment.Name).
			Msg("secret store unavailable, sending without credentials")
		return
	case secret.LookupAbsent:
		c.logger.Warn().
			Str("environment", resolved.Environment.Name).
			Msg("no credentials stored, sending without credentials")
		return
	}

	creds := lookup.Credentials
	switch resolved.ResolvedAuth.Type {
	case model.AuthBearer:
		if req.Header.Get("Authorization") == "" && creds.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+creds.APIKey)
		}
	case model.AuthAPIKey:
		if req.Header.Get("X-API-Key") == "" && creds.APIKey != "" {
			req.Header.Set("X-API-Key", creds.APIKey)
		}
	case model.AuthBasic:
		if req.Header.Get("Authorization") == "" {
			req.SetBasicAuth(creds.Username, creds.Password)
		}
	}
}

func (c *Client) buildHTTPClient(opts Options) (*http.Client, error) {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	if opts.ProxyURL != "" {
		proxyURL, err := url.Parse(opts.ProxyURL)
		if err != nil {
			return nil, errdef.Wrap(errdef.CodeHTTP, err, "parse proxy url")
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	if opts.InsecureSkipVerify {
		transport.TLSClientConfig = insecureTLSConfig()
	}

	client := &http.Client{Transport: transport, Jar: c.jar}
	if opts.Timeout > 0 {
		client.Timeout = opts.Timeout
	}
	if !opts.FollowRedirects {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	return client, nil
}

func (c *Client) record(
	doc *reqdoc.Document,
	resolved model.ResolvedConfig,
	resp *Response,
	execErr error,
) {
	if c.history == nil {
		return
	}

	entry := history.Entry{
		Timestamp: time.Now(),
		Request: history.RequestRecord{
			Method:        doc.Method,
			URL:           doc.URL,
			Headers:       sanitizeHeaders(doc.Headers),
			EnvironmentID: resolved.Environment.ID,
			Body:          doc.Body,
		},
	}
	if resp != nil {
		entry.Response = history.ResponseRecord{
			Status:     resp.Status,
			StatusCode: resp.StatusCode,
			Duration:   resp.Duration,
			BodyBytes:  len(resp.Body),
		}
	}
	if execErr != nil {
		entry.Response.Error = errdef.Message(execErr)
	}

	if err := c.history.Append(entry); err != nil {
		c.logger.Warn().Err(err).Msg("append history entry")
	}
}

// history keeps masked display values for credential headers, never the
// plaintext the cache holds.
func sanitizeHeaders(headers []reqdoc.Header) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	out := make(map[string]string, len(headers))
	for _, header := range headers {
		value := header.Value
		if reqdoc.IsAuthHeader(header.Name) && !header.Masked {
			value = mask.MaskValue(value)
		}
		out[header.Name] = value
	}
	return out
}
