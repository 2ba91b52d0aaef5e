package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rkm/fedeo-stac-gateway/internal/federation"
)

func TestDownloadAsset(t *testing.T) {
	env := newTestEnv(t)

	w := env.get(t, "/data/peps/S1_SAR_GRD/p1/product")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	if w.Body.String() != "bytes" {
		t.Errorf("unexpected body: %q", w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/zip" {
		t.Errorf("unexpected content type: %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); cd != "attachment" {
		t.Errorf("backend headers not forwarded: %q", cd)
	}
	if env.downloader.lastAsset != "product" {
		t.Errorf("asset key not forwarded: %q", env.downloader.lastAsset)
	}
}

func TestDownloadAssetSubPath(t *testing.T) {
	env := newTestEnv(t)

	w := env.get(t, "/data/peps/S1_SAR_GRD/p1/zarr/group/0.0.0")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	if env.downloader.lastAsset != "zarr" {
		t.Errorf("unexpected asset key: %q", env.downloader.lastAsset)
	}
	if env.downloader.lastPath != "group/0.0.0" {
		t.Errorf("file path not forwarded: %q", env.downloader.lastPath)
	}
}

func TestDownloadAssetUnknownCollection(t *testing.T) {
	env := newTestEnv(t)

	w := env.get(t, "/data/peps/NOPE/p1/product")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status %d", w.Code)
	}
}

func TestDownloadAssetNotAvailable(t *testing.T) {
	env := newTestEnv(t)
	env.handlers.gateway.RegisterDownloader("peps", &failingDownloader{})

	w := env.get(t, "/data/peps/S1_SAR_GRD/p1/product")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if !strings.Contains(body["description"].(string), "Order the product first") {
		t.Errorf("unexpected description: %v", body["description"])
	}
}

func TestDownloadDisabled(t *testing.T) {
	env := newTestEnv(t)
	env.handlers.cfg.Features.EnableDataDownload = false
	router := NewRouter(env.handlers, discardLogger())

	req := httptest.NewRequest("GET", "/data/peps/S1_SAR_GRD/p1/product", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status %d", w.Code)
	}
}

type failingDownloader struct{}

func (f *failingDownloader) Stream(ctx context.Context, p *federation.Product, assetKey, filePath string) (*federation.DownloadStream, error) {
	return nil, federation.NewError(federation.KindNotAvailable, "product is offline")
}

func (f *failingDownloader) Order(ctx context.Context, p *federation.Product, body map[string]any) (string, error) {
	return "", federation.NewError(federation.KindNotAvailable, "product is offline")
}

func (f *failingDownloader) OrderStatus(ctx context.Context, p *federation.Product, orderID string) (string, error) {
	return "", federation.NewError(federation.KindNotAvailable, "product is offline")
}
