package transport

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"mobimart-be/internal/order"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type OrderHandler struct {
	orders order.Service
}

func NewOrderHandler(orders order.Service) *OrderHandler {
	return &OrderHandler{orders: orders}
}

type shippingAddressRequest struct {
	RecipientName string `json:"recipient_name"`
	PhoneNumber   string `json:"phone_number"`
	HouseNumber   string `json:"house_number"`
	Street        string `json:"street"`
	Ward          string `json:"ward"`
	District      string `json:"district"`
	City          string `json:"city"`
}

type createOrderRequest struct {
	ShippingAddress shippingAddressRequest `json:"shipping_address"`
	PaymentMethod   string                 `json:"payment_method"`
}

type updateStatusRequest struct {
	Status        *string `json:"status"`
	PaymentStatus *string `json:"payment_status"`
}

type orderListData struct {
	Orders []*order.Order `json:"orders"`
	Total  int64          `json:"total"`
}

func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	o, err := h.orders.Create(r.Context(), order.CreateOrderInput{
		ShippingAddress: order.ShippingAddress{
			RecipientName: req.ShippingAddress.RecipientName,
			PhoneNumber:   req.ShippingAddress.PhoneNumber,
			HouseNumber:   req.ShippingAddress.HouseNumber,
			Street:        req.ShippingAddress.Street,
			Ward:          req.ShippingAddress.Ward,
			District:      req.ShippingAddress.District,
			City:          req.ShippingAddress.City,
		},
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, "order created", o)
}

func (h *OrderHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListMine(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, "", orders)
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if uuid.Validate(id) != nil {
		writeJSON(w, http.StatusBadRequest, "invalid order id", nil)
		return
	}

	o, err := h.orders.GetDetail(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, "", o)
}

func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if uuid.Validate(id) != nil {
		writeJSON(w, http.StatusBadRequest, "invalid order id", nil)
		return
	}

	o, err := h.orders.Cancel(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, "order cancelled", o)
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	params := order.ListParams{
		SortBy:  q.Get("sort_by"),
		SortDir: q.Get("sort_dir"),
	}
	if v := q.Get("status"); v != "" {
		status := order.OrderStatus(v)
		params.Status = &status
	}
	if v := q.Get("date_from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, "invalid date_from", nil)
			return
		}
		params.DateFrom = &t
	}
	if v := q.Get("date_to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, "invalid date_to", nil)
			return
		}
		params.DateTo = &t
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

	orders, total, err := h.orders.List(r.Context(), params)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, "", orderListData{Orders: orders, Total: total})
}

func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if uuid.Validate(id) != nil {
		writeJSON(w, http.StatusBadRequest, "invalid order id", nil)
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	params := order.UpdateStatusParams{}
	if req.Status != nil {
		status := order.OrderStatus(*req.Status)
		params.Status = &status
	}
	if req.PaymentStatus != nil {
		pay := order.PaymentStatus(*req.PaymentStatus)
		params.PaymentStatus = &pay
	}

	o, err := h.orders.UpdateStatus(r.Context(), id, params)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, "order updated", o)
}
