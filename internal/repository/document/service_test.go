package document

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/kailas-cloud/ordex/internal/db"
	"github.com/kailas-cloud/ordex/internal/domain"
	"github.com/kailas-cloud/ordex/internal/domain/filter"
	"github.com/kailas-cloud/ordex/internal/domain/patch"
	"github.com/kailas-cloud/ordex/internal/domain/query"
	"github.com/kailas-cloud/ordex/internal/repository/schema"
	"github.com/kailas-cloud/ordex/internal/secrets"
)

type testOrder struct {
	Status   string  `json:"status"`
	Total    float64 `json:"total"`
	Customer struct {
		Email string `json:"email"`
	} `json:"customer"`
}

// --- Init ---

func TestInit_MissingSecrets(t *testing.T) {
	tests := []struct {
		name string
		src  secrets.Static
		anon bool
	}{
		{"no endpoint", secrets.Static{DefaultCredentialKey: "k"}, false},
		{"blank endpoint", secrets.Static{DefaultEndpointKey: "  ", DefaultCredentialKey: "k"}, false},
		{"no credential", secrets.Static{DefaultEndpointKey: "http://x"}, false},
		{"no endpoint anonymous", secrets.Static{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dialed := false
			svc := New(Config{AllowAnonymous: tt.anon}, tt.src, func(context.Context, db.ConnParams) (db.Store, error) {
				dialed = true
				return newMockStore(), nil
			}, schema.Embedded(), nil)

			err := svc.Init(context.Background())
			if !errors.Is(err, domain.ErrInitialization) {
				t.Fatalf("expected ErrInitialization, got %v", err)
			}
			if dialed || svc.Ready() {
				t.Error("service must stay uninitialized")
			}
		})
	}
}

func TestInit_AnonymousAllowed(t *testing.T) {
	var got db.ConnParams
	svc := New(Config{AllowAnonymous: true}, secrets.Static{DefaultEndpointKey: "http://x"},
		func(_ context.Context, p db.ConnParams) (db.Store, error) {
			got = p
			return newMockStore(), nil
		}, schema.Embedded(), nil)

	if err := svc.Init(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Endpoint != "http://x" || got.Credential != "" {
		t.Errorf("params = %+v", got)
	}
}

func TestInit_CustomKeys(t *testing.T) {
	src := secrets.Static{"ES_URL": "http://custom", "ES_KEY": "k"}
	var got db.ConnParams
	svc := New(Config{EndpointKey: "ES_URL", CredentialKey: "ES_KEY"}, src,
		func(_ context.Context, p db.ConnParams) (db.Store, error) {
			got = p
			return newMockStore(), nil
		}, schema.Embedded(), nil)
	if err := svc.Init(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Endpoint != "http://custom" || got.Credential != "k" {
		t.Errorf("params = %+v", got)
	}
}

func TestInit_DialError(t *testing.T) {
	svc := New(Config{}, testSecrets, func(context.Context, db.ConnParams) (db.Store, error) {
		return nil, errors.New("no route to host")
	}, schema.Embedded(), nil)

	err := svc.Init(context.Background())
	if !errors.Is(err, domain.ErrInitialization) || !strings.Contains(err.Error(), "no route to host") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestInit_ConcurrentDialsOnce(t *testing.T) {
	var mu sync.Mutex
	dials := 0
	svc := New(Config{}, testSecrets, func(context.Context, db.ConnParams) (db.Store, error) {
		mu.Lock()
		dials++
		mu.Unlock()
		return newMockStore(), nil
	}, schema.Embedded(), nil)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := svc.Init(context.Background()); err != nil {
				t.Errorf("init: %v", err)
			}
		}()
	}
	wg.Wait()
	if dials != 1 {
		t.Errorf("dials = %d, want 1", dials)
	}
}

func TestOperations_NotReady(t *testing.T) {
	svc := New(Config{}, testSecrets, nil, schema.Embedded(), nil)
	ctx := context.Background()

	checks := map[string]error{}
	_, checks["create index"] = svc.CreateIndex(ctx, "orders", "orders.mapping.json")
	checks["drop index"] = svc.DropIndex(ctx, "orders")
	_, checks["index document"] = svc.IndexDocument(ctx, "orders", map[string]any{"a": 1})
	_, checks["get all"] = GetAll(ctx, svc, "orders", JSONDecoder[testOrder](), 10)
	_, checks["get by id"] = GetByID(ctx, svc, "abc", "orders", JSONDecoder[testOrder]())
	_, checks["update"] = svc.UpdateByFilter(ctx, filter.Filter{"id": "abc"}, patch.Spec{"a": 1}, "orders")
	_, checks["delete"] = svc.DeleteByFilter(ctx, filter.Filter{"id": "abc"}, "orders")
	checks["ping"] = svc.Ping(ctx)
	_, checks["store"] = svc.Store()

	for name, err := range checks {
		if !errors.Is(err, domain.ErrNotReady) {
			t.Errorf("%s: expected ErrNotReady, got %v", name, err)
		}
	}
}

// --- CreateIndex ---

func TestCreateIndex_AbsentCreatesWithLoadedSchema(t *testing.T) {
	svc, ms := newTestService(t)
	ms.createFn = func(_ context.Context, def *db.IndexDefinition) error {
		if def.Name != "orders" {
			t.Errorf("name = %s", def.Name)
		}
		if def.Properties()["status"] == nil {
			t.Errorf("schema not loaded: %v", def.Schema)
		}
		return nil
	}

	created, err := svc.CreateIndex(context.Background(), "orders", "orders.mapping.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Error("expected created=true")
	}
	if ms.calls[db.OpIndexExists] != 1 || ms.calls[db.OpCreateIndex] != 1 {
		t.Errorf("calls = %v", ms.calls)
	}
}

func TestCreateIndex_PresentSkipsCreate(t *testing.T) {
	svc, ms := newTestService(t)
	ms.existsFn = func(context.Context, string) (bool, error) { return true, nil }

	created, err := svc.CreateIndex(context.Background(), "orders", "orders.mapping.json")
	if err != nil || created {
		t.Fatalf("created=%v err=%v", created, err)
	}
	if ms.calls[db.OpIndexExists] != 1 || ms.calls[db.OpCreateIndex] != 0 {
		t.Errorf("calls = %v", ms.calls)
	}
}

func TestCreateIndex_InvalidArguments(t *testing.T) {
	svc, ms := newTestService(t)
	for _, args := range [][2]string{{"", "orders.mapping.json"}, {"orders", " "}, {"orders", "missing.json"}} {
		_, err := svc.CreateIndex(context.Background(), args[0], args[1])
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("%v: expected ErrInvalidInput, got %v", args, err)
		}
	}
	if ms.totalCalls() != 0 {
		t.Errorf("store must not be called, calls = %v", ms.calls)
	}
}

func TestCreateIndex_StoreFailureVisible(t *testing.T) {
	svc, ms := newTestService(t)
	boom := errors.New("cluster red")
	ms.existsFn = func(context.Context, string) (bool, error) { return false, boom }

	_, err := svc.CreateIndex(context.Background(), "orders", "orders.mapping.json")
	if !errors.Is(err, domain.ErrStore) || !errors.Is(err, boom) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

// --- IndexDocument / GetByID / GetAll ---

func TestRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	in := testOrder{Status: "new", Total: 42.5}
	in.Customer.Email = "x@y.com"

	id, err := svc.IndexDocument(ctx, "orders", in)
	if err != nil {
		t.Fatalf("index: %v", err)
	}

	item, err := GetByID(ctx, svc, id, "orders", JSONDecoder[testOrder]())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if item == nil {
		t.Fatal("expected document")
	}
	if item.ID != id {
		t.Errorf("id = %s, want %s", item.ID, id)
	}
	if !reflect.DeepEqual(item.Value, in) {
		t.Errorf("got %+v, want %+v", item.Value, in)
	}
}

func TestIndexDocument_RawJSONPassedThrough(t *testing.T) {
	svc, ms := newTestService(t)
	var got []byte
	ms.indexFn = func(_ context.Context, _ string, doc []byte) (string, error) {
		got = doc
		return "x", nil
	}
	if _, err := svc.IndexDocument(context.Background(), "orders", []byte(`{"a":1}`)); err != nil {
		t.Fatal(err)
	}
	if string(got) != `{"a":1}` {
		t.Errorf("doc = %s", got)
	}
}

func TestIndexDocument_Invalid(t *testing.T) {
	svc, ms := newTestService(t)
	ctx := context.Background()
	if _, err := svc.IndexDocument(ctx, " ", map[string]any{}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("blank index: %v", err)
	}
	if _, err := svc.IndexDocument(ctx, "orders", nil); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("nil doc: %v", err)
	}
	if _, err := svc.IndexDocument(ctx, "orders", make(chan int)); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("unencodable doc: %v", err)
	}
	if ms.totalCalls() != 0 {
		t.Errorf("calls = %v", ms.calls)
	}
}

func TestIndexDocument_StoreError(t *testing.T) {
	svc, ms := newTestService(t)
	ms.indexFn = func(context.Context, string, []byte) (string, error) {
		return "", &db.Error{Op: db.OpIndexDocument, Err: errors.New("mapper_parsing_exception")}
	}
	_, err := svc.IndexDocument(context.Background(), "orders", map[string]any{"a": 1})
	if !errors.Is(err, domain.ErrStore) || !strings.Contains(err.Error(), "mapper_parsing_exception") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGetByID_NotFoundIsNil(t *testing.T) {
	svc, ms := newTestService(t)
	ms.getFn = func(context.Context, string, string) ([]byte, error) {
		return nil, &db.Error{Op: db.OpGet, Err: db.ErrDocumentNotFound}
	}

	item, err := GetByID(context.Background(), svc, "nope", "orders", JSONDecoder[testOrder]())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item != nil {
		t.Errorf("expected nil, got %+v", item)
	}
}

func TestGetByID_BlankArguments(t *testing.T) {
	svc, ms := newTestService(t)
	for _, args := range [][2]string{{"", "orders"}, {"abc", " "}} {
		_, err := GetByID(context.Background(), svc, args[0], args[1], JSONDecoder[testOrder]())
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("%v: expected ErrInvalidInput, got %v", args, err)
		}
	}
	if ms.totalCalls() != 0 {
		t.Errorf("calls = %v", ms.calls)
	}
}

func TestGetAll_RespectsMaxResults(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	for range 5 {
		if _, err := svc.IndexDocument(ctx, "orders", testOrder{Status: "new"}); err != nil {
			t.Fatal(err)
		}
	}

	items, err := GetAll(ctx, svc, "orders", JSONDecoder[testOrder](), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("len = %d, want 3", len(items))
	}
	for _, it := range items {
		if it.ID == "" || it.Value.Status != "new" {
			t.Errorf("bad item %+v", it)
		}
	}
}

func TestGetAll_CapsOverReportingStore(t *testing.T) {
	svc, ms := newTestService(t)
	ms.searchFn = func(_ context.Context, _ string, q query.Query, size int) (*db.SearchResult, error) {
		if q.Kind() != query.KindMatchAll {
			t.Errorf("query = %s", q)
		}
		if size != DefaultMaxResults {
			t.Errorf("size = %d", size)
		}
		res := &db.SearchResult{}
		for range size + 10 {
			res.Hits = append(res.Hits, db.Hit{ID: "x", Source: []byte(`{}`)})
		}
		return res, nil
	}

	items, err := GetAll(context.Background(), svc, "orders", JSONDecoder[testOrder](), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != DefaultMaxResults {
		t.Errorf("len = %d", len(items))
	}
}

func TestGetAll_DecodeError(t *testing.T) {
	svc, ms := newTestService(t)
	ms.searchFn = func(context.Context, string, query.Query, int) (*db.SearchResult, error) {
		return &db.SearchResult{Hits: []db.Hit{{ID: "bad", Source: []byte(`not json`)}}}, nil
	}
	_, err := GetAll(context.Background(), svc, "orders", JSONDecoder[testOrder](), 10)
	if err == nil || !strings.Contains(err.Error(), "bad") {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestGetAll_StoreError(t *testing.T) {
	svc, ms := newTestService(t)
	ms.searchFn = func(context.Context, string, query.Query, int) (*db.SearchResult, error) {
		return nil, errors.New("index_not_found_exception")
	}
	_, err := GetAll(context.Background(), svc, "orders", JSONDecoder[testOrder](), 10)
	if !errors.Is(err, domain.ErrStore) || !strings.Contains(err.Error(), "index_not_found_exception") {
		t.Fatalf("unexpected error: %v", err)
	}
}

// --- UpdateByFilter / DeleteByFilter ---

func TestUpdateByFilter_IdentityScenario(t *testing.T) {
	svc, ms := newTestService(t)
	ms.updateFn = func(_ context.Context, index string, q query.Query, s patch.Script) (*db.MutationResponse, error) {
		if index != "orders" {
			t.Errorf("index = %s", index)
		}
		if q.Kind() != query.KindIDs || !reflect.DeepEqual(q.IDs(), []string{"abc"}) {
			t.Errorf("query = %s", q)
		}
		if s.String() != "customer.email := customer_email" {
			t.Errorf("ops = %q", s.String())
		}
		if !reflect.DeepEqual(s.Params, map[string]any{"customer_email": "x@y.com"}) {
			t.Errorf("params = %v", s.Params)
		}
		return &db.MutationResponse{Count: 1, Counted: true}, nil
	}

	res, err := svc.UpdateByFilter(context.Background(),
		filter.Filter{"id": "abc"},
		patch.Spec{"customer": map[string]any{"email": "x@y.com"}},
		"orders")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res != domain.Counted(1) {
		t.Errorf("result = %+v", res)
	}
	if ms.calls[db.OpUpdateByQuery] != 1 || ms.totalCalls() != 1 {
		t.Errorf("calls = %v", ms.calls)
	}
}

func TestUpdateByFilter_EmptyFilterNoStoreCall(t *testing.T) {
	svc, ms := newTestService(t)
	res, err := svc.UpdateByFilter(context.Background(), filter.Filter{}, patch.Spec{"status": "paid"}, "orders")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Kind != domain.MutationNoFilter || res.Sentinel() != domain.SentinelCount {
		t.Errorf("result = %+v", res)
	}
	if ms.totalCalls() != 0 {
		t.Errorf("calls = %v", ms.calls)
	}
}

func TestUpdateByFilter_Invalid(t *testing.T) {
	svc, ms := newTestService(t)
	ctx := context.Background()
	cases := map[string]func() error{
		"blank index": func() error {
			_, err := svc.UpdateByFilter(ctx, filter.Filter{"id": "a"}, patch.Spec{"a": 1}, "")
			return err
		},
		"empty spec": func() error {
			_, err := svc.UpdateByFilter(ctx, filter.Filter{"id": "a"}, patch.Spec{}, "orders")
			return err
		},
		"null spec": func() error {
			_, err := svc.UpdateByFilter(ctx, filter.Filter{"id": "a"}, patch.Spec{"a": map[string]any{"b": nil}}, "orders")
			return err
		},
		"all null filter": func() error {
			_, err := svc.UpdateByFilter(ctx, filter.Filter{"status": nil}, patch.Spec{"a": 1}, "orders")
			return err
		},
	}
	for name, call := range cases {
		if err := call(); !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("%s: expected ErrInvalidInput, got %v", name, err)
		}
	}
	if ms.totalCalls() != 0 {
		t.Errorf("calls = %v", ms.calls)
	}
}

func TestUpdateByFilter_Outcomes(t *testing.T) {
	tests := []struct {
		name string
		resp *db.MutationResponse
		want domain.MutationResult
	}{
		{"counted zero", &db.MutationResponse{Count: 0, Counted: true}, domain.Counted(0)},
		{"counted", &db.MutationResponse{Count: 7, Counted: true}, domain.Counted(7)},
		{"unreported", &db.MutationResponse{}, domain.UnknownCount()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, ms := newTestService(t)
			ms.updateFn = func(context.Context, string, query.Query, patch.Script) (*db.MutationResponse, error) {
				return tt.resp, nil
			}
			res, err := svc.UpdateByFilter(context.Background(), filter.Filter{"status": "new"}, patch.Spec{"status": "paid"}, "orders")
			if err != nil {
				t.Fatal(err)
			}
			if res != tt.want {
				t.Errorf("got %+v, want %+v", res, tt.want)
			}
		})
	}
}

func TestUpdateByFilter_StoreError(t *testing.T) {
	svc, ms := newTestService(t)
	boom := errors.New("script_exception")
	ms.updateFn = func(context.Context, string, query.Query, patch.Script) (*db.MutationResponse, error) {
		return nil, boom
	}
	_, err := svc.UpdateByFilter(context.Background(), filter.Filter{"id": "a"}, patch.Spec{"a": 1}, "orders")
	if !errors.Is(err, domain.ErrStore) || !errors.Is(err, boom) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUpdateByFilter_TooManyMatchesIsInvalidInput(t *testing.T) {
	svc, ms := newTestService(t)
	ms.updateFn = func(context.Context, string, query.Query, patch.Script) (*db.MutationResponse, error) {
		return nil, &db.Error{Op: db.OpUpdateByQuery, Err: fmt.Errorf("%w: 10001 documents match", db.ErrTooManyMatches)}
	}
	_, err := svc.UpdateByFilter(context.Background(), filter.Filter{"status": "paid"}, patch.Spec{"a": 1}, "orders")
	if !errors.Is(err, domain.ErrInvalidInput) || errors.Is(err, domain.ErrStore) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDeleteByFilter_EmptyFilterNoStoreCall(t *testing.T) {
	svc, ms := newTestService(t)
	for _, f := range []filter.Filter{nil, {}} {
		res, err := svc.DeleteByFilter(context.Background(), f, "orders")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Kind != domain.MutationNoFilter || res.Sentinel() != -1 {
			t.Errorf("result = %+v", res)
		}
	}
	if ms.totalCalls() != 0 {
		t.Errorf("calls = %v", ms.calls)
	}
}

func TestDeleteByFilter_Conjunction(t *testing.T) {
	svc, ms := newTestService(t)
	ms.deleteFn = func(_ context.Context, _ string, q query.Query) (*db.MutationResponse, error) {
		if q.String() != "and(term(status=cancelled), term(total=0))" {
			t.Errorf("query = %s", q)
		}
		return &db.MutationResponse{Count: 2, Counted: true}, nil
	}
	res, err := svc.DeleteByFilter(context.Background(), filter.Filter{"status": "cancelled", "total": 0}, "orders")
	if err != nil {
		t.Fatal(err)
	}
	if res.Sentinel() != 2 {
		t.Errorf("result = %+v", res)
	}
}

func TestDeleteByFilter_StoreErrorAndUnknown(t *testing.T) {
	svc, ms := newTestService(t)
	ms.deleteFn = func(context.Context, string, query.Query) (*db.MutationResponse, error) {
		return nil, errors.New("timeout")
	}
	if _, err := svc.DeleteByFilter(context.Background(), filter.Filter{"id": "a"}, "orders"); !errors.Is(err, domain.ErrStore) {
		t.Fatalf("unexpected error: %v", err)
	}

	ms.deleteFn = func(context.Context, string, query.Query) (*db.MutationResponse, error) {
		return &db.MutationResponse{}, nil
	}
	res, err := svc.DeleteByFilter(context.Background(), filter.Filter{"id": "a"}, "orders")
	if err != nil || res.Kind != domain.MutationUnknown {
		t.Fatalf("res=%+v err=%v", res, err)
	}
}

func TestPingAndClose(t *testing.T) {
	svc, ms := newTestService(t)
	ms.pingFn = func(context.Context) error { return errors.New("down") }
	if err := svc.Ping(context.Background()); !errors.Is(err, domain.ErrStore) {
		t.Fatalf("unexpected error: %v", err)
	}
	svc.Close()
	if !ms.closed {
		t.Error("store not closed")
	}
}
