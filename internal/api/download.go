package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/rkm/fedeo-stac-gateway/internal/federation"
)

// DownloadAsset streams one asset of a product through the gateway. An
// optional trailing path selects a file inside container assets, which is
// how the Zarr store index and chunk files are addressed.
// GET /data/{backend}/{collectionId}/{itemId}/{assetKey}
// GET /data/{backend}/{collectionId}/{itemId}/{assetKey}/*
func (h *Handlers) DownloadAsset(w http.ResponseWriter, r *http.Request) {
	backend := chi.URLParam(r, "backend")
	collectionID := chi.URLParam(r, "collectionId")
	assetKey, err := url.PathUnescape(chi.URLParam(r, "assetKey"))
	if err != nil {
		WriteInvalidParameter(w, "invalid asset key")
		return
	}
	itemID, err := url.PathUnescape(chi.URLParam(r, "itemId"))
	if err != nil {
		WriteInvalidParameter(w, "invalid item id")
		return
	}
	filePath := chi.URLParam(r, "*")

	if !h.gateway.ProductTypes().Has(collectionID) {
		WriteNotFound(w, "Collection "+collectionID+" does not exist.")
		return
	}

	downloader, err := h.gateway.Downloader(backend)
	if err != nil {
		WriteNotFound(w, "Backend "+backend+" has no download capability.")
		return
	}

	product := &federation.Product{
		ID:         itemID,
		Provider:   backend,
		Collection: collectionID,
		Properties: map[string]any{},
	}
	if dcQS := r.URL.Query().Get("dc_qs"); dcQS != "" {
		product.Properties[federation.PropDatacubeQS] = dcQS
	}

	stream, err := downloader.Stream(r.Context(), product, assetKey, filePath)
	if err != nil {
		h.writeDownloadError(w, err, assetKey)
		return
	}
	defer stream.Content.Close()

	for name, values := range stream.Headers {
		for _, v := range values {
			w.Header().Add(name, v)
		}
	}
	if stream.MediaType != "" {
		w.Header().Set("Content-Type", stream.MediaType)
	}

	status := stream.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)

	if _, err := io.Copy(w, stream.Content); err != nil {
		// The response is already committed; all that is left is logging.
		h.logger.Warn("asset stream interrupted",
			slog.String("backend", backend),
			slog.String("item", itemID),
			slog.String("asset", assetKey),
			slog.String("error", err.Error()),
		)
	}
}

// writeDownloadError surfaces retrieval failures with enough context for
// the client to correct the request.
func (h *Handlers) writeDownloadError(w http.ResponseWriter, err error, assetKey string) {
	var fe *federation.Error
	if errors.As(err, &fe) && fe.Kind == federation.KindNotAvailable {
		WriteNotFound(w, "Asset "+assetKey+" is not available. Order the product first if it is offline.")
		return
	}
	h.writeTranslationError(w, err)
}
