package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"easydevis/models"
	"easydevis/services"
	"easydevis/storage"
	"easydevis/testhelpers"
)

// newTestRequestEvent creates a RequestEvent suitable for handler tests.
func newTestRequestEvent(req *http.Request, rec *httptest.ResponseRecorder) *core.RequestEvent {
	e := &core.RequestEvent{}
	e.Request = req
	e.Response = rec
	return e
}

// inlineWrites runs scheduled writes on the calling goroutine.
type inlineWrites struct{}

func (inlineWrites) Schedule(_ string, write func()) { write() }
func (inlineWrites) Flush()                          {}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testClock() time.Time { return time.Date(2025, time.March, 10, 9, 30, 0, 0, time.UTC) }

// newTestBuilder returns a builder persisting into a fresh PocketBase app.
func newTestBuilder(t *testing.T) (*services.Builder, *storage.Repository) {
	t.Helper()
	app := testhelpers.NewTestApp(t)
	repo := storage.NewRepository(storage.NewRecordKV(app)).WithClock(testClock)
	b := services.NewBuilder(repo, inlineWrites{}, models.DefaultQuoteDefaults(), services.WithBuilderClock(testClock))
	return b, repo
}

// call runs handler against a request with an optional JSON body and path
// values given as name/value pairs.
func call(t *testing.T, handler func(*core.RequestEvent) error, method, target string, body any, pathValues ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(pathValues); i += 2 {
		req.SetPathValue(pathValues[i], pathValues[i+1])
	}
	rec := httptest.NewRecorder()
	if err := handler(newTestRequestEvent(req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec
}

func decodeQuote(t *testing.T, rec *httptest.ResponseRecorder) quoteResponse {
	t.Helper()
	var resp quoteResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode quote response: %v\nbody: %s", err, rec.Body.String())
	}
	return resp
}

type errorBody struct {
	Error  string         `json:"error"`
	Fields map[string]any `json:"fields"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var resp errorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error response: %v\nbody: %s", err, rec.Body.String())
	}
	return resp
}
