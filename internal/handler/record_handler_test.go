package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"metaregistry/internal/domain"
	"metaregistry/internal/identity"
	"metaregistry/internal/service"
	"metaregistry/internal/service/objects"
)

// fakeLedger реализует service.Ledger в памяти
type fakeLedger struct {
	records map[[32]byte]*domain.Record
	created []domain.RecordEvent
	updated []domain.RecordEvent
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{records: make(map[[32]byte]*domain.Record)}
}

func (f *fakeLedger) ReadRecord(_ context.Context, id [32]byte) (*domain.Record, error) {
	rec, ok := f.records[id]
	if !ok {
		return nil, fmt.Errorf("%w", domain.ErrNotFound)
	}
	copied := *rec
	return &copied, nil
}

func (f *fakeLedger) SubmitCreate(_ context.Context, id, contentHash [32]byte, uri string) (string, error) {
	f.records[id] = &domain.Record{
		RecordID:    identity.FormatRecordID(id),
		ContentHash: identity.FormatDigest(contentHash),
		URI:         uri,
		Version:     1,
		Owner:       "0xowner",
		UpdatedBy:   "0xowner",
		CreatedAt:   100,
		UpdatedAt:   100,
	}
	return "0xcreate", nil
}

func (f *fakeLedger) SubmitUpdate(_ context.Context, id, contentHash [32]byte, uri string) (string, error) {
	rec := f.records[id]
	rec.ContentHash = identity.FormatDigest(contentHash)
	rec.URI = uri
	rec.Version++
	rec.UpdatedAt++
	return "0xupdate", nil
}

func (f *fakeLedger) QueryCreationEvents(_ context.Context) ([]domain.RecordEvent, error) {
	return f.created, nil
}

func (f *fakeLedger) QueryUpdateEvents(_ context.Context) ([]domain.RecordEvent, error) {
	return f.updated, nil
}

func (f *fakeLedger) NodeInfo(_ context.Context) (*domain.NodeInfo, error) {
	return &domain.NodeInfo{ChainID: 1337, GasPrice: 0, Contract: "0xcontract", Account: "0xaccount"}, nil
}

func (f *fakeLedger) ContractAddress() string {
	return "0xcontract"
}

func newTestServer(t *testing.T) (*httptest.Server, *fakeLedger) {
	t.Helper()

	storage, err := objects.NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStorage() unexpected error: %v", err)
	}
	ledger := newFakeLedger()
	svc := service.NewRecordService(ledger, storage, "")
	h := NewRecordHandler(svc)
	sh := NewStaticHandler(storage)

	r := chi.NewRouter()
	r.Get("/objects/*", sh.ServeObject)
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)
		r.Get("/address", h.Address)
		r.Route("/metadata", func(r chi.Router) {
			r.Get("/", h.List)
			r.Post("/", h.Create)
			r.Get("/{recordIdHex}", h.Get)
			r.Put("/{recordIdHex}", h.Update)
		})
	})

	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return ts, ledger
}

func doJSON(t *testing.T, method, url string, body string) (*http.Response, map[string]interface{}) {
	t.Helper()

	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("NewRequest() unexpected error: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Do() unexpected error: %v", err)
	}
	defer resp.Body.Close()

	var decoded map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("Decode() unexpected error: %v", err)
	}
	return resp, decoded
}

func TestCreateEndpoint(t *testing.T) {
	t.Run("inline content", func(t *testing.T) {
		ts, _ := newTestServer(t)

		resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/metadata", `{"json_text":"{\"a\":1}"}`)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}

		rid, _ := body["recordId"].(string)
		if !strings.HasPrefix(rid, "0x") || len(rid) != 66 {
			t.Errorf("recordId = %q, want 0x + 64 hex chars", rid)
		}
		uri, _ := body["uri"].(string)
		if !strings.HasSuffix(uri, "/v1.json") {
			t.Errorf("uri = %q, want /v1.json suffix", uri)
		}
		if body["txHash"] != "0xcreate" {
			t.Errorf("txHash = %v", body["txHash"])
		}

		// созданный объект отдается как статика
		objResp, err := http.Get(ts.URL + uri)
		if err != nil {
			t.Fatalf("Get() unexpected error: %v", err)
		}
		defer objResp.Body.Close()
		if objResp.StatusCode != http.StatusOK {
			t.Errorf("object status = %d, want 200", objResp.StatusCode)
		}

		// немедленное чтение: версия 1, хеш содержимого совпадает
		resp, rec := doJSON(t, http.MethodGet, ts.URL+"/api/metadata/"+rid, "")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("read status = %d, want 200", resp.StatusCode)
		}
		if rec["version"].(float64) != 1 {
			t.Errorf("version = %v, want 1", rec["version"])
		}
		wantHash := identity.FormatDigest(identity.ContentDigest([]byte(`{"a":1}`)))
		if rec["contentHash"] != wantHash {
			t.Errorf("contentHash = %v, want %s", rec["contentHash"], wantHash)
		}
		if rec["owner"] != rec["updatedBy"] {
			t.Errorf("owner = %v, updatedBy = %v, want equal at creation", rec["owner"], rec["updatedBy"])
		}
	})

	t.Run("external uri only", func(t *testing.T) {
		ts, _ := newTestServer(t)

		resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/metadata", `{"uri":"https://example.com/m.json"}`)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		if body["uri"] != "https://example.com/m.json" {
			t.Errorf("uri = %v", body["uri"])
		}

		rid, _ := body["recordId"].(string)
		_, rec := doJSON(t, http.MethodGet, ts.URL+"/api/metadata/"+rid, "")
		if rec["contentHash"] != identity.FormatDigest(identity.ZeroDigest) {
			t.Errorf("contentHash = %v, want zero sentinel", rec["contentHash"])
		}
	})

	t.Run("neither content nor uri", func(t *testing.T) {
		ts, _ := newTestServer(t)

		resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/metadata", `{}`)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
		if body["error"] == "" {
			t.Error("missing error detail")
		}
	})

	t.Run("malformed record id", func(t *testing.T) {
		ts, _ := newTestServer(t)

		resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/metadata", `{"recordIdHex":"0x1234","json_text":"{}"}`)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
	})

	t.Run("invalid json body", func(t *testing.T) {
		ts, _ := newTestServer(t)

		resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/metadata", `{`)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
	})
}

func TestGetEndpoint(t *testing.T) {
	t.Run("never created id", func(t *testing.T) {
		ts, _ := newTestServer(t)

		rid := identity.FormatRecordID(identity.DeriveRecordID([]byte("missing")))
		resp, _ := doJSON(t, http.MethodGet, ts.URL+"/api/metadata/"+rid, "")
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("status = %d, want 404", resp.StatusCode)
		}
	})

	t.Run("malformed id", func(t *testing.T) {
		ts, _ := newTestServer(t)

		resp, _ := doJSON(t, http.MethodGet, ts.URL+"/api/metadata/zzzz", "")
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
	})
}

func TestUpdateEndpoint(t *testing.T) {
	t.Run("version advances by one", func(t *testing.T) {
		ts, _ := newTestServer(t)

		_, created := doJSON(t, http.MethodPost, ts.URL+"/api/metadata", `{"json_text":"{\"a\":1}"}`)
		rid := created["recordId"].(string)

		resp, body := doJSON(t, http.MethodPut, ts.URL+"/api/metadata/"+rid, `{"json_text":"{\"a\":2}"}`)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		if !strings.HasSuffix(body["newUri"].(string), "/v2.json") {
			t.Errorf("newUri = %v, want /v2.json suffix", body["newUri"])
		}
		if body["txHash"] != "0xupdate" {
			t.Errorf("txHash = %v", body["txHash"])
		}

		_, rec := doJSON(t, http.MethodGet, ts.URL+"/api/metadata/"+rid, "")
		if rec["version"].(float64) != 2 {
			t.Errorf("version = %v, want 2", rec["version"])
		}
	})

	t.Run("absent record", func(t *testing.T) {
		ts, _ := newTestServer(t)

		rid := identity.FormatRecordID(identity.DeriveRecordID([]byte("missing")))
		resp, _ := doJSON(t, http.MethodPut, ts.URL+"/api/metadata/"+rid, `{"json_text":"{}"}`)
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("status = %d, want 404", resp.StatusCode)
		}
	})

	t.Run("neither content nor uri", func(t *testing.T) {
		ts, _ := newTestServer(t)

		_, created := doJSON(t, http.MethodPost, ts.URL+"/api/metadata", `{"json_text":"{\"a\":1}"}`)
		rid := created["recordId"].(string)

		resp, _ := doJSON(t, http.MethodPut, ts.URL+"/api/metadata/"+rid, `{}`)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
	})
}

func TestListEndpoint(t *testing.T) {
	ts, ledger := newTestServer(t)
	ledger.created = []domain.RecordEvent{
		{RecordID: "0xaa", Version: 1, Account: "0xa", Timestamp: 100},
		{RecordID: "0xbb", Version: 1, Account: "0xa", Timestamp: 200},
	}
	ledger.updated = []domain.RecordEvent{
		{RecordID: "0xaa", Version: 2, Account: "0xa", Timestamp: 300},
	}

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/metadata", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	items, ok := body["items"].([]interface{})
	if !ok || len(items) != 2 {
		t.Fatalf("items = %v, want 2 entries", body["items"])
	}
	first := items[0].(map[string]interface{})
	if first["recordId"] != "0xaa" || first["version"].(float64) != 2 {
		t.Errorf("items[0] = %v, want updated 0xaa first", first)
	}
}

func TestHealthAndAddress(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/health", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status = %d, want 200", resp.StatusCode)
	}
	if body["chainId"].(float64) != 1337 || body["contract"] != "0xcontract" || body["account"] != "0xaccount" {
		t.Errorf("health = %v", body)
	}

	resp, body = doJSON(t, http.MethodGet, ts.URL+"/api/address", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("address status = %d, want 200", resp.StatusCode)
	}
	if body["contract"] != "0xcontract" {
		t.Errorf("address = %v", body)
	}
}

func TestServeObjectMissing(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/objects/deadbeef/v1.json")
	if err != nil {
		t.Fatalf("Get() unexpected error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}
