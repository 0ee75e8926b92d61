package httpsource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"abverdict/domain/dataset"
	"abverdict/internal"
	"abverdict/internal/errors"

	"github.com/tidwall/gjson"
)

// Pagination selects how follow-up pages are requested
type Pagination string

const (
	PaginationNone   Pagination = "none"
	PaginationPage   Pagination = "page"
	PaginationOffset Pagination = "offset"
	PaginationCursor Pagination = "cursor"
)

const (
	defaultPageSize = 1000
	defaultMaxPages = 100
	defaultTimeout  = 30 * time.Second
	maxBodyBytes    = 64 << 20
)

// cursor fields tried in order when CursorPath is empty
var cursorFields = []string{"next_cursor", "cursor", "next", "continuation_token"}

// Source describes a JSON endpoint returning one object per experiment user
type Source struct {
	URL string
	// DataPath is a gjson path to the array of records; empty means the body itself
	DataPath    string
	Headers     map[string]string
	BearerToken string
	APIKey      string

	Pagination Pagination
	PageSize   int
	MaxPages   int
	CursorPath string
	// PageDelay is waited between page requests
	PageDelay time.Duration

	Timeout time.Duration
}

// Reader fetches all pages of a Source into a table. Implements ports.TableReader.
type Reader struct {
	src    Source
	client *http.Client
	logger *internal.Logger
}

// Option configures a Reader
type Option func(*Reader)

// WithHTTPClient replaces the default client, whose timeout is Source.Timeout
func WithHTTPClient(c *http.Client) Option {
	return func(r *Reader) { r.client = c }
}

// WithLogger sets the reader's logger
func WithLogger(logger *internal.Logger) Option {
	return func(r *Reader) { r.logger = logger }
}

// NewReader fills in Source defaults and builds the reader
func NewReader(src Source, opts ...Option) *Reader {
	if src.Pagination == "" {
		src.Pagination = PaginationNone
	}
	if src.PageSize <= 0 {
		src.PageSize = defaultPageSize
	}
	if src.MaxPages <= 0 {
		src.MaxPages = defaultMaxPages
	}
	if src.Timeout <= 0 {
		src.Timeout = defaultTimeout
	}
	r := &Reader{src: src, logger: internal.NewDiscardLogger()}
	for _, opt := range opts {
		opt(r)
	}
	if r.client == nil {
		r.client = &http.Client{Timeout: src.Timeout}
	}
	return r
}

// ReadTable requests pages until one comes back short or empty, the cursor runs
// out, or MaxPages is reached.
func (r *Reader) ReadTable(ctx context.Context) (*dataset.Table, error) {
	if _, err := url.ParseRequestURI(r.src.URL); err != nil {
		return nil, errors.Validation("invalid source URL", err)
	}
	switch r.src.Pagination {
	case PaginationNone, PaginationPage, PaginationOffset, PaginationCursor:
	default:
		return nil, errors.ValidationError(fmt.Sprintf("unknown pagination %q", r.src.Pagination))
	}

	start := time.Now()
	var (
		records []map[string]interface{}
		cursor  string
	)
	for page := 0; page < r.src.MaxPages; page++ {
		if page > 0 && r.src.PageDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, errors.Cancelled(ctx.Err())
			case <-time.After(r.src.PageDelay):
			}
		}

		target, err := r.pageURL(page, cursor)
		if err != nil {
			return nil, err
		}
		body, err := r.fetch(ctx, target)
		if err != nil {
			return nil, err
		}
		batch, err := r.parse(body)
		if err != nil {
			return nil, err
		}
		records = append(records, batch...)
		r.logger.Trace("fetched page %d of %s: %d records", page+1, r.src.URL, len(batch))

		if r.src.Pagination == PaginationNone || len(batch) == 0 {
			break
		}
		if r.src.Pagination == PaginationCursor {
			if cursor = r.nextCursor(body); cursor == "" {
				break
			}
			continue
		}
		if len(batch) < r.src.PageSize {
			break
		}
	}

	if len(records) == 0 {
		return nil, errors.ValidationError("source returned no records")
	}
	table := dataset.TableFromRecords(records)
	r.logger.Debug("read %d records (%d columns) from %s in %s",
		len(table.Rows), len(table.Headers), r.src.URL, time.Since(start).Round(time.Millisecond))
	return table, nil
}

func (r *Reader) pageURL(page int, cursor string) (string, error) {
	u, err := url.Parse(r.src.URL)
	if err != nil {
		return "", errors.Validation("invalid source URL", err)
	}
	q := u.Query()
	switch r.src.Pagination {
	case PaginationPage:
		q.Set("page", strconv.Itoa(page+1))
		q.Set("per_page", strconv.Itoa(r.src.PageSize))
	case PaginationOffset:
		q.Set("offset", strconv.Itoa(page*r.src.PageSize))
		q.Set("limit", strconv.Itoa(r.src.PageSize))
	case PaginationCursor:
		if cursor != "" {
			q.Set("cursor", cursor)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (r *Reader) fetch(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build request")
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range r.src.Headers {
		req.Header.Set(k, v)
	}
	if r.src.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+r.src.BearerToken)
	}
	if r.src.APIKey != "" {
		req.Header.Set("X-API-Key", r.src.APIKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Cancelled(ctx.Err())
		}
		return nil, errors.Wrapf(err, "request to %s failed", r.src.URL)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response")
	}
	if len(body) > maxBodyBytes {
		return nil, errors.ValidationError(fmt.Sprintf("response exceeds %d MB", maxBodyBytes>>20))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Unavailable(fmt.Sprintf("source returned status %d: %s", resp.StatusCode, snippet(body)))
	}
	return body, nil
}

// parse extracts the records at DataPath. A single object counts as one record.
func (r *Reader) parse(body []byte) ([]map[string]interface{}, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.ValidationError("source did not return valid JSON")
	}
	result := gjson.ParseBytes(body)
	if r.src.DataPath != "" {
		result = result.Get(r.src.DataPath)
	}
	if !result.Exists() {
		return nil, errors.ValidationError(fmt.Sprintf("data path %q not found in response", r.src.DataPath))
	}

	var records []map[string]interface{}
	switch {
	case result.IsArray():
		if err := json.Unmarshal([]byte(result.Raw), &records); err != nil {
			return nil, errors.Validation("data path must hold an array of objects", err)
		}
	case result.IsObject():
		var one map[string]interface{}
		if err := json.Unmarshal([]byte(result.Raw), &one); err != nil {
			return nil, errors.Validation("malformed record", err)
		}
		records = append(records, one)
	default:
		return nil, errors.ValidationError(fmt.Sprintf("data path %q is not an array or object", r.src.DataPath))
	}
	return records, nil
}

func (r *Reader) nextCursor(body []byte) string {
	if r.src.CursorPath != "" {
		return gjson.GetBytes(body, r.src.CursorPath).String()
	}
	for _, field := range cursorFields {
		if c := gjson.GetBytes(body, field); c.Exists() && c.String() != "" {
			return c.String()
		}
	}
	return ""
}

func snippet(body []byte) string {
	const limit = 200
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
