package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/rkm/fedeo-stac-gateway/internal/federation"
	"github.com/rkm/fedeo-stac-gateway/internal/fields"
)

// OrderResponse is the body returned by the order and order-poll endpoints.
type OrderResponse struct {
	OrderID     string `json:"order:id"`
	OrderStatus string `json:"order:status"`
	StorageTier string `json:"storage:tier,omitempty"`
	Href        string `json:"href"`
}

// PlaceOrder places an asynchronous retrieval order against one federation
// backend. The request body is the order payload template taken from the
// item's order link.
// POST /collections/{collectionId}/{backend}/orders
func (h *Handlers) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	collectionID := chi.URLParam(r, "collectionId")
	backend := chi.URLParam(r, "backend")

	if !h.gateway.ProductTypes().Has(collectionID) {
		WriteNotFound(w, "Collection "+collectionID+" does not exist.")
		return
	}

	downloader, err := h.gateway.Downloader(backend)
	if err != nil {
		WriteNotFound(w, "Backend "+backend+" has no order capability. Order through an item's order link.")
		return
	}

	body := map[string]any{}
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		WriteBadRequest(w, "failed to read order body")
		return
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &body); err != nil {
			WriteBadRequest(w, "order body must be a JSON object. Check the body of the item's order link.")
			return
		}
	}

	product := &federation.Product{
		Provider:   backend,
		Collection: collectionID,
		Properties: map[string]any{},
		Status:     fields.StatusOffline,
	}
	if dcQS := r.URL.Query().Get("dc_qs"); dcQS != "" {
		product.Properties[federation.PropDatacubeQS] = dcQS
	}

	orderID, err := downloader.Order(r.Context(), product, body)
	if err != nil {
		h.writeTranslationError(w, err)
		return
	}
	if orderID == "" {
		WriteNotFound(w, "No order id was produced. Check the query body and order again.")
		return
	}

	h.logger.Info("order placed",
		slog.String("collection", collectionID),
		slog.String("backend", backend),
		slog.String("order_id", orderID),
	)

	pollHref := h.cfg.STAC.BaseURL + "/collections/" + collectionID + "/" + url.PathEscape(backend) +
		"/orders/" + url.PathEscape(orderID)

	WriteJSON(w, http.StatusCreated, &OrderResponse{
		OrderID:     orderID,
		OrderStatus: fields.StatusToStac(fields.StatusStaging),
		StorageTier: fields.StatusStaging,
		Href:        pollHref,
	})
}

// PollOrder reports the retrieval status of a previously placed order.
// GET /collections/{collectionId}/{backend}/orders/{orderId}
func (h *Handlers) PollOrder(w http.ResponseWriter, r *http.Request) {
	collectionID := chi.URLParam(r, "collectionId")
	backend := chi.URLParam(r, "backend")
	orderID, err := url.PathUnescape(chi.URLParam(r, "orderId"))
	if err != nil || orderID == "" {
		WriteInvalidParameter(w, "invalid order id")
		return
	}

	if !h.gateway.ProductTypes().Has(collectionID) {
		WriteNotFound(w, "Collection "+collectionID+" does not exist.")
		return
	}

	downloader, err := h.gateway.Downloader(backend)
	if err != nil {
		WriteNotFound(w, "Backend "+backend+" has no order capability. Order first.")
		return
	}

	product := &federation.Product{
		Provider:   backend,
		Collection: collectionID,
		Properties: map[string]any{},
	}

	status, err := downloader.OrderStatus(r.Context(), product, orderID)
	if err != nil {
		h.writeTranslationError(w, err)
		return
	}
	if status == "" {
		WriteNotFound(w, "Order "+orderID+" is not known to backend "+backend+". Order first, then poll.")
		return
	}

	WriteJSON(w, http.StatusOK, &OrderResponse{
		OrderID:     orderID,
		OrderStatus: fields.StatusToStac(status),
		StorageTier: status,
		Href:        h.cfg.STAC.BaseURL + r.URL.Path,
	})
}
