package typesense

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cinelake/cinelake-backend/internal/platform/ctxutil"
	"github.com/cinelake/cinelake-backend/internal/platform/logger"
)

const (
	apiKeyHeader      = "X-TYPESENSE-API-KEY"
	maxErrorBodyBytes = 1024

	maxImportAttempts = 3
	importBackoffBase = 200 * time.Millisecond
)

// CrewCredit is the nested crew object stored on a search document.
type CrewCredit struct {
	ActorName     string `json:"actor_name"`
	CharacterName string `json:"character_name"`
}

// Document is the denormalized movie projection kept in the search
// collection. ID is the record's stable content identity, so indexing the
// same movie twice upserts instead of duplicating.
type Document struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	OrigTitle   string       `json:"orig_title"`
	Overview    string       `json:"overview"`
	Status      string       `json:"status"`
	ReleaseDate string       `json:"release_date"`
	Genres      []string     `json:"genres"`
	Crew        []CrewCredit `json:"crew"`
	Country     string       `json:"country"`
	Language    string       `json:"language"`
	Budget      float64      `json:"budget"`
	Revenue     float64      `json:"revenue"`
	Score       float64      `json:"score"`
	IsDeleted   bool         `json:"is_deleted"`
}

type SearchQuery struct {
	Query       string
	Page        int
	PerPage     int
	GenreFilter string
}

type SearchResult struct {
	Found int        `json:"found"`
	Page  int        `json:"page"`
	Hits  []Document `json:"hits"`
}

// Client is the narrow search-engine contract the synchronizer and query
// paths consume.
type Client interface {
	EnsureCollection(ctx context.Context) error
	UpsertDocument(ctx context.Context, doc Document) error
	ImportDocuments(ctx context.Context, docs []Document) error
	DeleteDocument(ctx context.Context, id string) error
	Search(ctx context.Context, q SearchQuery) (*SearchResult, error)
}

type client struct {
	log     *logger.Logger
	cfg     Config
	baseURL string
	http    *http.Client
}

func NewClient(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return &client{
		log:     log.With("service", "TypesenseClient"),
		cfg:     cfg,
		baseURL: strings.TrimRight(cfg.URL, "/"),
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

// collectionSchema is the fixed movies schema. Nested fields are enabled
// for the crew object list.
func (c *client) collectionSchema() map[string]any {
	return map[string]any{
		"name":                 c.cfg.Collection,
		"enable_nested_fields": true,
		"fields": []map[string]any{
			{"name": "name", "type": "string"},
			{"name": "orig_title", "type": "string"},
			{"name": "overview", "type": "string"},
			{"name": "status", "type": "string"},
			{"name": "release_date", "type": "string"},
			{"name": "genres", "type": "string[]", "facet": true},
			{"name": "crew", "type": "object[]"},
			{"name": "country", "type": "string"},
			{"name": "language", "type": "string"},
			{"name": "budget", "type": "float"},
			{"name": "revenue", "type": "float"},
			{"name": "score", "type": "float"},
			{"name": "is_deleted", "type": "bool"},
		},
	}
}

// EnsureCollection drops any existing collection and recreates the schema.
// Full syncs call this first, so the index never accumulates stale fields.
func (c *client) EnsureCollection(ctx context.Context) error {
	const op = "ensure_collection"

	if err := c.doJSON(ctx, op, http.MethodDelete, c.collectionPath(""), nil, nil); err != nil {
		var opErrTyped *OperationError
		if !errors.As(err, &opErrTyped) || opErrTyped.StatusCode != http.StatusNotFound {
			return err
		}
	}
	return c.doJSON(ctx, op, http.MethodPost, "/collections", c.collectionSchema(), nil)
}

func (c *client) UpsertDocument(ctx context.Context, doc Document) error {
	const op = "upsert_document"
	if strings.TrimSpace(doc.ID) == "" {
		return opErr(op, OperationErrorValidation, "document id is required", nil)
	}
	path := c.collectionPath("/documents?action=upsert&dirty_values=coerce_or_reject")
	return c.doJSON(ctx, op, http.MethodPost, path, doc, nil)
}

// ImportDocuments bulk-upserts one batch as JSONL. Transient failures are
// retried with exponential backoff up to maxImportAttempts; a document
// without an id fails the call before anything is sent.
func (c *client) ImportDocuments(ctx context.Context, docs []Document) error {
	const op = "import_documents"
	ctx = ctxutil.Default(ctx)
	if len(docs) == 0 {
		return nil
	}

	var body bytes.Buffer
	enc := json.NewEncoder(&body)
	for _, doc := range docs {
		if strings.TrimSpace(doc.ID) == "" {
			return opErr(op, OperationErrorValidation,
				fmt.Sprintf("document %q has no id", doc.Name), nil)
		}
		if err := enc.Encode(doc); err != nil {
			return opErr(op, OperationErrorEncodeFailed, "encode document failed", err)
		}
	}

	path := c.collectionPath("/documents/import?action=upsert&dirty_values=coerce_or_reject")
	delay := importBackoffBase
	var lastErr error
	for attempt := 1; attempt <= maxImportAttempts; attempt++ {
		raw, err := c.doRaw(ctx, op, http.MethodPost, path, bytes.NewReader(body.Bytes()), "text/plain")
		if err == nil {
			return parseImportResults(op, raw)
		}
		lastErr = err

		var opErrTyped *OperationError
		if !errors.As(err, &opErrTyped) || !opErrTyped.Retryable() || attempt == maxImportAttempts {
			return err
		}
		c.log.Warn("typesense import failed, retrying",
			"attempt", attempt, "delay", delay.String(), "error", err)
		select {
		case <-ctx.Done():
			return opErr(op, OperationErrorTimeout, "context cancelled during retry", ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
	}
	return lastErr
}

// DeleteDocument removes one document by identity. A missing document is
// tolerated: deletes are idempotent.
func (c *client) DeleteDocument(ctx context.Context, id string) error {
	const op = "delete_document"
	id = strings.TrimSpace(id)
	if id == "" {
		return opErr(op, OperationErrorValidation, "document id is required", nil)
	}
	err := c.doJSON(ctx, op, http.MethodDelete, c.collectionPath("/documents/"+url.PathEscape(id)), nil, nil)
	if err != nil {
		var opErrTyped *OperationError
		if errors.As(err, &opErrTyped) && opErrTyped.StatusCode == http.StatusNotFound {
			c.log.Debug("delete of absent search document ignored", "id", id)
			return nil
		}
	}
	return err
}

func (c *client) Search(ctx context.Context, q SearchQuery) (*SearchResult, error) {
	const op = "search"
	if strings.TrimSpace(q.Query) == "" {
		return nil, opErr(op, OperationErrorValidation, "query is required", nil)
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.PerPage <= 0 {
		q.PerPage = 10
	}

	params := url.Values{}
	params.Set("q", q.Query)
	params.Set("query_by", "name,orig_title,overview,genres,country,language")
	params.Set("page", fmt.Sprintf("%d", q.Page))
	params.Set("per_page", fmt.Sprintf("%d", q.PerPage))
	if strings.TrimSpace(q.GenreFilter) != "" {
		params.Set("filter_by", "genres:="+q.GenreFilter)
	}

	var envelope struct {
		Found int `json:"found"`
		Page  int `json:"page"`
		Hits  []struct {
			Document Document `json:"document"`
		} `json:"hits"`
	}
	path := c.collectionPath("/documents/search?" + params.Encode())
	if err := c.doJSON(ctx, op, http.MethodGet, path, nil, &envelope); err != nil {
		return nil, err
	}

	result := &SearchResult{Found: envelope.Found, Page: envelope.Page}
	for _, h := range envelope.Hits {
		result.Hits = append(result.Hits, h.Document)
	}
	return result, nil
}

func (c *client) collectionPath(suffix string) string {
	return "/collections/" + url.PathEscape(c.cfg.Collection) + suffix
}

func (c *client) doJSON(ctx context.Context, op, method, path string, in any, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(in); err != nil {
			return opErr(op, OperationErrorEncodeFailed, "encode request failed", err)
		}
		body = &buf
		contentType = "application/json"
	}

	raw, err := c.doRaw(ctx, op, method, path, body, contentType)
	if err != nil {
		return err
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return opErr(op, OperationErrorDecodeFailed, "decode typesense response failed", err)
	}
	return nil
}

func (c *client) doRaw(ctx context.Context, op, method, path string, body io.Reader, contentType string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), method, c.baseURL+path, body)
	if err != nil {
		return nil, opErr(op, OperationErrorTransportFailed, "build request failed", err)
	}
	req.Header.Set(apiKeyHeader, c.cfg.APIKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classifyHTTPCallError(op, "typesense request failed", err)
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<22))
	if readErr != nil {
		return nil, opErr(op, OperationErrorDecodeFailed, "read response failed", readErr)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &OperationError{
			Code:       OperationErrorRequestFailed,
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("typesense http status=%d body=%q", resp.StatusCode, truncateBody(raw)),
		}
	}
	return raw, nil
}

// parseImportResults scans the JSONL import response; any line reporting
// success=false fails the whole call with the first server message.
func parseImportResults(op string, raw []byte) error {
	for _, line := range bytes.Split(raw, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		var item struct {
			Success bool   `json:"success"`
			Error   string `json:"error"`
		}
		if err := json.Unmarshal(line, &item); err != nil {
			return opErr(op, OperationErrorDecodeFailed, "decode import result failed", err)
		}
		if !item.Success {
			return &OperationError{
				Code:      OperationErrorImportRejected,
				Operation: op,
				Message:   fmt.Sprintf("import rejected: %s", item.Error),
			}
		}
	}
	return nil
}

func classifyHTTPCallError(op, message string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return opErr(op, OperationErrorTimeout, message, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return opErr(op, OperationErrorTimeout, message, err)
	}
	return opErr(op, OperationErrorTransportFailed, message, err)
}

func truncateBody(raw []byte) string {
	if len(raw) <= maxErrorBodyBytes {
		return string(raw)
	}
	return string(raw[:maxErrorBodyBytes]) + "..."
}
