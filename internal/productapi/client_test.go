package productapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := New(Config{
		BaseURL:   srv.URL,
		Language:  "es",
		Warehouse: "vlc1",
		UserAgent: "test-agent",
		Timeout:   5 * time.Second,
	}, zap.NewNop())
	return c, srv
}

func TestClientProduct(t *testing.T) {
	t.Parallel()

	var gotPath, gotLang, gotWH, gotUA string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotLang = r.URL.Query().Get("lang")
		gotWH = r.URL.Query().Get("wh")
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(`{"id": "3497", "display_name": "Olive oil"}`))
	}))

	body, err := c.Product(context.Background(), "3497")
	if err != nil {
		t.Fatalf("Product() error = %v", err)
	}
	if len(body) == 0 {
		t.Fatal("expected raw body")
	}
	if gotPath != "/api/products/3497/" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotLang != "es" || gotWH != "vlc1" {
		t.Fatalf("expected lang/wh query params, got %q/%q", gotLang, gotWH)
	}
	if gotUA != "test-agent" {
		t.Fatalf("expected configured user agent, got %q", gotUA)
	}
}

func TestClientProductNon200(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	if _, err := c.Product(context.Background(), "999"); err == nil {
		t.Fatal("expected error for 404 response")
	}
}

func TestClientProductMalformedBody(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id": `))
	}))

	if _, err := c.Product(context.Background(), "1"); err == nil {
		t.Fatal("expected error for malformed body")
	}
}

func TestClientRelated(t *testing.T) {
	t.Parallel()

	var gotPath string
	var hasExclude bool
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, hasExclude = r.URL.Query()["exclude"]
		_, _ = w.Write([]byte(`{"results": [{"id": 200}, {"id": "300.0"}, {"id": "veg-1"}]}`))
	}))

	ids, err := c.Related(context.Background(), "100")
	if err != nil {
		t.Fatalf("Related() error = %v", err)
	}
	if gotPath != "/api/products/100/xselling/" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if !hasExclude {
		t.Fatal("expected exclude query param to be present")
	}
	want := []string{"200", "300", "veg-1"}
	if len(ids) != len(want) {
		t.Fatalf("expected %d related ids, got %v", len(want), ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("expected normalized ids %v, got %v", want, ids)
		}
	}
}

func TestProductPauseRespectsFloor(t *testing.T) {
	t.Parallel()

	c := New(Config{
		BaseURL:           "https://example.com",
		ProductDelay:      time.Second,
		ProductJitter:     300 * time.Millisecond,
		ProductDelayFloor: 500 * time.Millisecond,
	}, zap.NewNop())

	for range 100 {
		d := c.productPause()
		if d < 500*time.Millisecond || d > time.Second {
			t.Fatalf("pause %v outside [floor, delay]", d)
		}
	}
}

func TestPauseIsMandatoryBeforeRequests(t *testing.T) {
	t.Parallel()

	var slept []time.Duration
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"results": []}`))
	}))
	c.cfg.ProductDelay = 700 * time.Millisecond
	c.cfg.ProductDelayFloor = 500 * time.Millisecond
	c.cfg.RelatedDelay = 300 * time.Millisecond
	c.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	if _, err := c.Product(context.Background(), "1"); err != nil {
		t.Fatalf("Product() error = %v", err)
	}
	if _, err := c.Related(context.Background(), "1"); err != nil {
		t.Fatalf("Related() error = %v", err)
	}

	if len(slept) != 2 {
		t.Fatalf("expected a pause before each request, got %d", len(slept))
	}
	if slept[0] < 500*time.Millisecond {
		t.Fatalf("product pause %v below floor", slept[0])
	}
	if slept[1] != 300*time.Millisecond {
		t.Fatalf("expected fixed related pause, got %v", slept[1])
	}
}
