// Package pubchem is a small client for the PubChem PUG REST service. It
// covers the four lookups the explorer needs: name to CID, descriptive
// properties, synonyms and SDF structure records.
//
// Every call runs under its own deadline. A call that runs out of time fails
// with an errors.ErrCodeTimeout AppError, a transport failure with
// errors.ErrCodeNetwork and a non-2xx answer with *errors.StatusError, so the
// three outcomes never blur into each other.
package pubchem

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/molexplorer/internal/domain/compound"
	"github.com/turtacn/molexplorer/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molexplorer/pkg/errors"
)

const (
	Version = "0.3.0"

	// DefaultBaseURL is the PUG REST root.
	DefaultBaseURL = "https://pubchem.ncbi.nlm.nih.gov/rest/pug"

	DefaultLookupTimeout    = 15 * time.Second
	DefaultStructureTimeout = 20 * time.Second

	serviceName  = "pubchem"
	maxBodyBytes = 16 << 20
)

// Recorder receives one observation per HTTP exchange. Outcome is one of
// "ok", "status", "timeout", "network" or "decode".
type Recorder interface {
	ObservePubChemRequest(endpoint, outcome string, d time.Duration)
}

// Client talks to PUG REST. It is safe for concurrent use.
type Client struct {
	baseURL          string
	httpClient       *http.Client
	userAgent        string
	logger           logging.Logger
	recorder         Recorder
	retryMax         int
	retryWaitMin     time.Duration
	retryWaitMax     time.Duration
	lookupTimeout    time.Duration
	structureTimeout time.Duration
	rps              int
	limiter          *rateLimiter
}

// NewClient builds a client rooted at baseURL; "" selects DefaultBaseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInvalidConfig, "pubchem: invalid base URL")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "pubchem: base URL scheme must be http or https")
	}

	c := &Client{
		baseURL:          strings.TrimSuffix(baseURL, "/"),
		httpClient:       &http.Client{},
		userAgent:        fmt.Sprintf("molexplorer/%s", Version),
		logger:           logging.NewNopLogger(),
		retryMax:         0,
		retryWaitMin:     500 * time.Millisecond,
		retryWaitMax:     5 * time.Second,
		lookupTimeout:    DefaultLookupTimeout,
		structureTimeout: DefaultStructureTimeout,
		rps:              DefaultRateLimit,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.limiter = newRateLimiter(c.rps)
	return c, nil
}

// Close releases the rate limiter.
func (c *Client) Close() error {
	c.limiter.Close()
	return nil
}

// BaseURL returns the configured root.
func (c *Client) BaseURL() string { return c.baseURL }

// ─────────────────────────────────────────────────────────────────────────────
// Lookups
// ─────────────────────────────────────────────────────────────────────────────

// LookupCIDs resolves a compound name to its identifiers, best match first.
func (c *Client) LookupCIDs(ctx context.Context, name string) ([]compound.CID, error) {
	path := "/compound/name/" + url.PathEscape(name) + "/cids/JSON"
	body, err := c.get(ctx, EndpointCIDs, path, c.lookupTimeout)
	if err != nil {
		return nil, err
	}
	var resp cidsResponse
	if err := c.decode(EndpointCIDs, body, &resp); err != nil {
		return nil, err
	}
	out := make([]compound.CID, 0, len(resp.IdentifierList.CID))
	for _, v := range resp.IdentifierList.CID {
		out = append(out, compound.CID(v))
	}
	return out, nil
}

// Properties fetches the IUPAC name, formula and molecular weight of cid.
func (c *Client) Properties(ctx context.Context, cid compound.CID) (compound.Properties, error) {
	path := "/compound/cid/" + cid.String() + "/property/IUPACName,MolecularFormula,MolecularWeight/JSON"
	body, err := c.get(ctx, EndpointProperties, path, c.lookupTimeout)
	if err != nil {
		return compound.Properties{}, err
	}
	var resp propertiesResponse
	if err := c.decode(EndpointProperties, body, &resp); err != nil {
		return compound.Properties{}, err
	}
	if len(resp.PropertyTable.Properties) == 0 {
		return compound.Properties{}, errors.New(errors.ErrCodeSerialization, "pubchem: property table is empty")
	}
	p := resp.PropertyTable.Properties[0]
	return compound.Properties{
		IUPACName:        p.IUPACName,
		MolecularFormula: p.MolecularFormula,
		MolecularWeight:  float64(p.MolecularWeight),
	}, nil
}

// Synonyms fetches the alternate names of cid in database order.
func (c *Client) Synonyms(ctx context.Context, cid compound.CID) ([]string, error) {
	path := "/compound/cid/" + cid.String() + "/synonyms/JSON"
	body, err := c.get(ctx, EndpointSynonyms, path, c.lookupTimeout)
	if err != nil {
		return nil, err
	}
	var resp synonymsResponse
	if err := c.decode(EndpointSynonyms, body, &resp); err != nil {
		return nil, err
	}
	if len(resp.InformationList.Information) == 0 {
		return []string{}, nil
	}
	return resp.InformationList.Information[0].Synonym, nil
}

// Structure fetches the SDF record of cid. Dim3D asks for the 3D conformer;
// Dim2D sends the unqualified request, which PubChem answers in 2D. The text
// is returned exactly as received.
func (c *Client) Structure(ctx context.Context, cid compound.CID, dim compound.Dimension) (string, error) {
	endpoint, path := EndpointStructure2D, "/compound/cid/"+cid.String()+"/SDF"
	if dim == compound.Dim3D {
		endpoint, path = EndpointStructure3D, "/compound/cid/"+cid.String()+"/record/SDF/?record_type=3d"
	}
	body, err := c.get(ctx, endpoint, path, c.structureTimeout)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Transport
// ─────────────────────────────────────────────────────────────────────────────

func (c *Client) decode(endpoint string, body []byte, v interface{}) error {
	if err := json.Unmarshal(body, v); err != nil {
		c.record(endpoint, "decode", 0)
		return errors.Wrap(err, errors.ErrCodeSerialization, fmt.Sprintf("pubchem: malformed %s response", endpoint))
	}
	return nil
}

// get performs a GET under its own deadline, retrying 429/5xx answers and
// transport failures up to retryMax times inside that deadline.
func (c *Client) get(ctx context.Context, endpoint, path string, timeout time.Duration) ([]byte, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	fullURL := c.baseURL + path
	var lastErr error
	for attempt := 0; attempt <= c.retryMax; attempt++ {
		if attempt > 0 {
			backoff := c.calculateBackoff(attempt)
			c.logger.Debug("retrying pubchem request",
				logging.String("endpoint", endpoint),
				logging.Int("attempt", attempt),
				logging.Duration("backoff", backoff))
			select {
			case <-time.After(backoff):
			case <-callCtx.Done():
				return nil, c.classify(callCtx, endpoint, callCtx.Err(), timeout)
			}
		}

		if err := c.limiter.Acquire(callCtx); err != nil {
			return nil, c.classify(callCtx, endpoint, err, timeout)
		}

		body, retryAfter, err := c.once(callCtx, endpoint, fullURL, timeout)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !c.shouldRetry(err) {
			return nil, err
		}
		if retryAfter > 0 && attempt < c.retryMax {
			select {
			case <-time.After(retryAfter):
			case <-callCtx.Done():
				return nil, c.classify(callCtx, endpoint, callCtx.Err(), timeout)
			}
		}
	}
	return nil, lastErr
}

// once performs a single exchange. retryAfter is set from a 429 answer.
func (c *Client) once(ctx context.Context, endpoint, fullURL string, timeout time.Duration) ([]byte, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeInternal, "pubchem: failed to create request")
	}
	requestID := uuid.New().String()
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, c.classifyTimed(ctx, endpoint, err, timeout, time.Since(start))
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	resp.Body.Close()
	duration := time.Since(start)
	if err != nil {
		return nil, 0, c.classifyTimed(ctx, endpoint, err, timeout, duration)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.record(endpoint, "status", duration)
		c.logger.Debug("pubchem request rejected",
			logging.String("endpoint", endpoint),
			logging.Int("status", resp.StatusCode),
			logging.String("request_id", requestID),
			logging.Duration("duration", duration))
		var retryAfter time.Duration
		if resp.StatusCode == http.StatusTooManyRequests {
			if secs, convErr := strconv.Atoi(resp.Header.Get("Retry-After")); convErr == nil && secs > 0 {
				retryAfter = time.Duration(secs) * time.Second
			}
		}
		return nil, retryAfter, &errors.StatusError{
			Service:    serviceName,
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			RequestID:  requestID,
		}
	}

	c.record(endpoint, "ok", duration)
	c.logger.Debug("pubchem request completed",
		logging.String("endpoint", endpoint),
		logging.Int("bytes", len(body)),
		logging.String("request_id", requestID),
		logging.Duration("duration", duration))
	return body, 0, nil
}

func (c *Client) classifyTimed(ctx context.Context, endpoint string, err error, timeout, d time.Duration) error {
	classified := c.classify(ctx, endpoint, err, timeout)
	outcome := "network"
	if errors.IsTimeout(classified) {
		outcome = "timeout"
	}
	c.record(endpoint, outcome, d)
	c.logger.Debug("pubchem request failed",
		logging.String("endpoint", endpoint),
		logging.String("outcome", outcome),
		logging.Duration("duration", d),
		logging.Err(err))
	return classified
}

// classify turns a transport-level failure into Timeout or NetworkError.
func (c *Client) classify(ctx context.Context, endpoint string, err error, timeout time.Duration) error {
	var netErr net.Error
	if stderrors.Is(ctx.Err(), context.DeadlineExceeded) ||
		stderrors.Is(err, context.DeadlineExceeded) ||
		(stderrors.As(err, &netErr) && netErr.Timeout()) {
		return errors.Timeout(fmt.Sprintf("PubChem %s request timed out after %s", endpoint, timeout)).WithCause(err)
	}
	return errors.NetworkError(fmt.Sprintf("PubChem %s request failed", endpoint)).WithCause(err)
}

func (c *Client) shouldRetry(err error) bool {
	if errors.IsTimeout(err) {
		return false
	}
	var se *errors.StatusError
	if stderrors.As(err, &se) {
		return se.IsRetryable()
	}
	return errors.IsCode(err, errors.ErrCodeNetwork)
}

func (c *Client) calculateBackoff(attempt int) time.Duration {
	backoff := c.retryWaitMin * time.Duration(1<<uint(attempt-1))
	if backoff > c.retryWaitMax {
		backoff = c.retryWaitMax
	}
	if quarter := int64(backoff / 4); quarter > 0 {
		backoff += time.Duration(rand.Int63n(quarter))
	}
	return backoff
}

func (c *Client) record(endpoint, outcome string, d time.Duration) {
	if c.recorder != nil {
		c.recorder.ObservePubChemRequest(endpoint, outcome, d)
	}
}
