package transport

import (
	"net/http"
	"strconv"

	"mobimart-be/internal/product"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type ProductHandler struct {
	products product.Repository
}

func NewProductHandler(products product.Repository) *ProductHandler {
	return &ProductHandler{products: products}
}

type productListData struct {
	Products []*product.Product `json:"products"`
	Total    int64              `json:"total"`
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	params := product.ListParams{}
	if v := q.Get("category"); v != "" {
		params.Category = &v
	}
	if v := q.Get("brand"); v != "" {
		params.Brand = &v
	}
	if v := q.Get("featured"); v != "" {
		featured := v == "true"
		params.Featured = &featured
	}
	if v := q.Get("search"); v != "" {
		params.Search = &v
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			limit := int32(n)
			params.Limit = &limit
		}
	}
	if v := q.Get("page"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			page := int32(n)
			params.Page = &page
		}
	}

	products, total, err := h.products.List(r.Context(), params)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, "", productListData{Products: products, Total: total})
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if uuid.Validate(id) != nil {
		writeJSON(w, http.StatusBadRequest, "invalid product id", nil)
		return
	}

	p, err := h.products.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, "", p)
}
