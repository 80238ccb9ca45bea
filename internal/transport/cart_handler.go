package transport

import (
	"encoding/json"
	"net/http"

	"mobimart-be/internal/cart"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type CartHandler struct {
	carts cart.Service
}

func NewCartHandler(carts cart.Service) *CartHandler {
	return &CartHandler{carts: carts}
}

type addItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if uuid.Validate(req.ProductID) != nil {
		writeJSON(w, http.StatusBadRequest, "invalid product id", nil)
		return
	}

	items, err := h.carts.AddItem(r.Context(), cart.AddItemParams{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, "item added", items)
}

func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	items, err := h.carts.GetCart(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, "", items)
}

func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.carts.Clear(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, "cart cleared", nil)
}

func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemId")
	if uuid.Validate(itemID) != nil {
		writeJSON(w, http.StatusBadRequest, "invalid cart item id", nil)
		return
	}

	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	if err := h.carts.UpdateItemQuantity(r.Context(), itemID, req.Quantity); err != nil {
		writeError(w, r, err)
		return
	}

	items, err := h.carts.GetCart(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, "item updated", items)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemId")
	if uuid.Validate(itemID) != nil {
		writeJSON(w, http.StatusBadRequest, "invalid cart item id", nil)
		return
	}

	if err := h.carts.RemoveItem(r.Context(), itemID); err != nil {
		writeError(w, r, err)
		return
	}

	items, err := h.carts.GetCart(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, "item removed", items)
}
