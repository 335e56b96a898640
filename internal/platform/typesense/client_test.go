package typesense

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/cinelake/cinelake-backend/internal/platform/logger"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func testClient(t *testing.T, rt roundTripFunc) *client {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	c, err := NewClient(log, Config{
		URL:        "http://typesense.local:8108",
		APIKey:     "test-key",
		Collection: "movies",
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	impl := c.(*client)
	impl.http = &http.Client{Transport: rt}
	return impl
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func TestNewClientValidatesConfig(t *testing.T) {
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	if _, err := NewClient(log, Config{APIKey: "k", Collection: "movies"}); err == nil {
		t.Fatal("expected error for missing URL")
	}
	if _, err := NewClient(log, Config{URL: "http://x", Collection: "movies"}); err == nil {
		t.Fatal("expected error for missing API key")
	}
}

func TestUpsertDocumentRequiresID(t *testing.T) {
	c := testClient(t, func(r *http.Request) (*http.Response, error) {
		t.Fatal("no request expected")
		return nil, nil
	})
	err := c.UpsertDocument(context.Background(), Document{Name: "Inception"})
	var opErrTyped *OperationError
	if !errors.As(err, &opErrTyped) || opErrTyped.Code != OperationErrorValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpsertDocumentSendsUpsertAction(t *testing.T) {
	var gotPath, gotKey string
	c := testClient(t, func(r *http.Request) (*http.Response, error) {
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		gotKey = r.Header.Get("X-TYPESENSE-API-KEY")
		return jsonResponse(http.StatusCreated, `{}`), nil
	})
	if err := c.UpsertDocument(context.Background(), Document{ID: "abc", Name: "Inception"}); err != nil {
		t.Fatalf("UpsertDocument: %v", err)
	}
	if !strings.Contains(gotPath, "/collections/movies/documents") {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if !strings.Contains(gotPath, "action=upsert") {
		t.Fatalf("expected upsert action in %q", gotPath)
	}
	if gotKey != "test-key" {
		t.Fatalf("api key header = %q", gotKey)
	}
}

func TestImportDocumentsSendsJSONL(t *testing.T) {
	var gotBody []byte
	c := testClient(t, func(r *http.Request) (*http.Response, error) {
		gotBody, _ = io.ReadAll(r.Body)
		return jsonResponse(http.StatusOK, "{\"success\":true}\n{\"success\":true}"), nil
	})
	docs := []Document{
		{ID: "a", Name: "First"},
		{ID: "b", Name: "Second"},
	}
	if err := c.ImportDocuments(context.Background(), docs); err != nil {
		t.Fatalf("ImportDocuments: %v", err)
	}
	lines := bytes.Split(bytes.TrimSpace(gotBody), []byte("\n"))
	if len(lines) != 2 {
		t.Fatalf("expected 2 JSONL lines, got %d", len(lines))
	}
	var first Document
	if err := json.Unmarshal(lines[0], &first); err != nil {
		t.Fatalf("decode first line: %v", err)
	}
	if first.ID != "a" || first.Name != "First" {
		t.Fatalf("unexpected first line %+v", first)
	}
}

func TestImportDocumentsRejectsMissingID(t *testing.T) {
	c := testClient(t, func(r *http.Request) (*http.Response, error) {
		t.Fatal("no request expected")
		return nil, nil
	})
	err := c.ImportDocuments(context.Background(), []Document{{Name: "NoID"}})
	var opErrTyped *OperationError
	if !errors.As(err, &opErrTyped) || opErrTyped.Code != OperationErrorValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestImportDocumentsRetriesTransient(t *testing.T) {
	attempts := 0
	c := testClient(t, func(r *http.Request) (*http.Response, error) {
		attempts++
		if attempts < 3 {
			return jsonResponse(http.StatusServiceUnavailable, `{"message":"try later"}`), nil
		}
		return jsonResponse(http.StatusOK, `{"success":true}`), nil
	})
	if err := c.ImportDocuments(context.Background(), []Document{{ID: "a"}}); err != nil {
		t.Fatalf("ImportDocuments: %v", err)
	}
	if attempts != 3 {
		t.Fatalf("attempts = %d, want 3", attempts)
	}
}

func TestImportDocumentsDoesNotRetryRejection(t *testing.T) {
	attempts := 0
	c := testClient(t, func(r *http.Request) (*http.Response, error) {
		attempts++
		return jsonResponse(http.StatusOK, `{"success":false,"error":"bad field"}`), nil
	})
	err := c.ImportDocuments(context.Background(), []Document{{ID: "a"}})
	var opErrTyped *OperationError
	if !errors.As(err, &opErrTyped) || opErrTyped.Code != OperationErrorImportRejected {
		t.Fatalf("expected import rejection, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("attempts = %d, want 1", attempts)
	}
}

func TestDeleteDocumentToleratesMissing(t *testing.T) {
	c := testClient(t, func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusNotFound, `{"message":"not found"}`), nil
	})
	if err := c.DeleteDocument(context.Background(), "gone"); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
}

func TestSearchBuildsQuery(t *testing.T) {
	var gotQuery string
	c := testClient(t, func(r *http.Request) (*http.Response, error) {
		gotQuery = r.URL.RawQuery
		return jsonResponse(http.StatusOK, `{
			"found": 1,
			"page": 2,
			"hits": [{"document": {"id": "abc", "name": "Inception", "genres": ["Action"]}}]
		}`), nil
	})
	res, err := c.Search(context.Background(), SearchQuery{
		Query:       "inception",
		Page:        2,
		PerPage:     5,
		GenreFilter: "Action",
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Found != 1 || res.Page != 2 || len(res.Hits) != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Hits[0].Name != "Inception" {
		t.Fatalf("hit name = %q", res.Hits[0].Name)
	}
	for _, want := range []string{"q=inception", "per_page=5", "page=2", "query_by=", "filter_by="} {
		if !strings.Contains(gotQuery, want) {
			t.Fatalf("query %q missing %q", gotQuery, want)
		}
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	c := testClient(t, func(r *http.Request) (*http.Response, error) {
		t.Fatal("no request expected")
		return nil, nil
	})
	if _, err := c.Search(context.Background(), SearchQuery{}); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestEnsureCollectionRecreates(t *testing.T) {
	var methods []string
	c := testClient(t, func(r *http.Request) (*http.Response, error) {
		methods = append(methods, r.Method+" "+r.URL.Path)
		if r.Method == http.MethodDelete {
			return jsonResponse(http.StatusNotFound, `{"message":"no such collection"}`), nil
		}
		return jsonResponse(http.StatusCreated, `{"name":"movies"}`), nil
	})
	if err := c.EnsureCollection(context.Background()); err != nil {
		t.Fatalf("EnsureCollection: %v", err)
	}
	if len(methods) != 2 {
		t.Fatalf("expected delete then create, got %v", methods)
	}
	if methods[0] != "DELETE /collections/movies" || methods[1] != "POST /collections" {
		t.Fatalf("unexpected call sequence %v", methods)
	}
}
