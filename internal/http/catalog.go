package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	discountapp "github.com/dmehra2102/storefront-core/internal/discount/application"
	productapp "github.com/dmehra2102/storefront-core/internal/product/application"
	"github.com/dmehra2102/storefront-core/internal/shared"
)

const CodeUnknownAction = "UNKNOWN_ACTION"

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	limit, offset := paging(r)
	v, err := h.deps.Products.List(r.Context(), limit, offset)
	h.reply(w, r, http.StatusOK, v, err)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	v, err := h.deps.Products.Get(r.Context(), chi.URLParam(r, "id"))
	h.reply(w, r, http.StatusOK, v, err)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var in struct {
		SKU         string       `json:"sku"`
		Name        string       `json:"name"`
		Description string       `json:"description"`
		Price       shared.Money `json:"price"`
		Stock       int          `json:"stock"`
	}
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	v, err := h.deps.Products.Create(r.Context(), productapp.CreateInput(in))
	h.reply(w, r, http.StatusCreated, v, err)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	v, err := h.deps.Products.UpdateDetails(r.Context(), chi.URLParam(r, "id"), in.Name, in.Description)
	h.reply(w, r, http.StatusOK, v, err)
}

func (h *Handler) changePrice(w http.ResponseWriter, r *http.Request) {
	var price shared.Money
	if err := decode(r, &price); err != nil {
		h.fail(w, r, err)
		return
	}
	v, err := h.deps.Products.ChangePrice(r.Context(), chi.URLParam(r, "id"), price)
	h.reply(w, r, http.StatusOK, v, err)
}

func (h *Handler) adjustStock(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Delta  int    `json:"delta"`
		Reason string `json:"reason"`
	}
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	v, err := h.deps.Products.AdjustStock(r.Context(), chi.URLParam(r, "id"), in.Delta, in.Reason)
	h.reply(w, r, http.StatusOK, v, err)
}

func (h *Handler) changeProductStatus(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Status string `json:"status"`
	}
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	v, err := h.deps.Products.ChangeStatus(r.Context(), chi.URLParam(r, "id"), in.Status)
	h.reply(w, r, http.StatusOK, v, err)
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	err := h.deps.Products.Delete(r.Context(), chi.URLParam(r, "id"))
	h.reply(w, r, http.StatusNoContent, nil, err)
}

func (h *Handler) createDiscount(w http.ResponseWriter, r *http.Request) {
	var in discountapp.CreateInput
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	v, err := h.deps.Discounts.Create(r.Context(), in)
	h.reply(w, r, http.StatusCreated, v, err)
}

func (h *Handler) getDiscount(w http.ResponseWriter, r *http.Request) {
	v, err := h.deps.Discounts.Get(r.Context(), chi.URLParam(r, "id"))
	h.reply(w, r, http.StatusOK, v, err)
}

func (h *Handler) getDiscountByCode(w http.ResponseWriter, r *http.Request) {
	v, err := h.deps.Discounts.GetByCode(r.Context(), chi.URLParam(r, "code"))
	h.reply(w, r, http.StatusOK, v, err)
}

func (h *Handler) updateDiscount(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	v, err := h.deps.Discounts.UpdateDetails(r.Context(), chi.URLParam(r, "id"), in.Name, in.Description)
	h.reply(w, r, http.StatusOK, v, err)
}

func (h *Handler) deleteDiscount(w http.ResponseWriter, r *http.Request) {
	err := h.deps.Discounts.Delete(r.Context(), chi.URLParam(r, "id"))
	h.reply(w, r, http.StatusNoContent, nil, err)
}

func (h *Handler) discountAction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var (
		v   discountapp.View
		err error
	)
	switch strings.ToLower(chi.URLParam(r, "action")) {
	case "activate":
		v, err = h.deps.Discounts.Activate(r.Context(), id)
	case "deactivate":
		v, err = h.deps.Discounts.Deactivate(r.Context(), id)
	case "expire":
		v, err = h.deps.Discounts.Expire(r.Context(), id)
	default:
		err = shared.Validation(CodeUnknownAction, "unknown discount action %q", chi.URLParam(r, "action"))
	}
	h.reply(w, r, http.StatusOK, v, err)
}

func (h *Handler) quoteDiscount(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Code       string       `json:"code"`
		Purchase   shared.Money `json:"purchase"`
		ProductIDs []string     `json:"productIds"`
	}
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	amount, err := h.deps.Discounts.Quote(r.Context(), in.Code, in.Purchase, in.ProductIDs)
	h.reply(w, r, http.StatusOK, map[string]shared.Money{"discount": amount}, err)
}
