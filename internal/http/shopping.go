package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	checkoutapp "github.com/dmehra2102/storefront-core/internal/checkout/application"
	paymentapp "github.com/dmehra2102/storefront-core/internal/payment/application"
)

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	v, err := h.deps.Carts.GetOrCreate(r.Context(), userID(r))
	h.reply(w, r, http.StatusOK, v, err)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	v, err := h.deps.Carts.Clear(r.Context(), userID(r))
	h.reply(w, r, http.StatusOK, v, err)
}

func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ProductID string `json:"productId"`
		Quantity  int    `json:"quantity"`
	}
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	v, err := h.deps.Carts.AddItem(r.Context(), userID(r), in.ProductID, in.Quantity)
	h.reply(w, r, http.StatusOK, v, err)
}

func (h *Handler) updateCartItem(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Quantity int `json:"quantity"`
	}
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	v, err := h.deps.Carts.UpdateItemQuantity(r.Context(), userID(r), chi.URLParam(r, "itemID"), in.Quantity)
	h.reply(w, r, http.StatusOK, v, err)
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	v, err := h.deps.Carts.RemoveItem(r.Context(), userID(r), chi.URLParam(r, "itemID"))
	h.reply(w, r, http.StatusOK, v, err)
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	var in struct {
		DiscountCode  string `json:"discountCode"`
		PaymentMethod string `json:"paymentMethod"`
	}
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.deps.Checkout.Checkout(r.Context(), checkoutapp.Input{
		UserID:        userID(r),
		DiscountCode:  in.DiscountCode,
		PaymentMethod: in.PaymentMethod,
	})
	h.reply(w, r, http.StatusCreated, res, err)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	limit, offset := paging(r)
	v, err := h.deps.Orders.ListByUser(r.Context(), userID(r), limit, offset)
	h.reply(w, r, http.StatusOK, v, err)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	v, err := h.deps.Orders.Get(r.Context(), userID(r), chi.URLParam(r, "id"))
	h.reply(w, r, http.StatusOK, v, err)
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Reason string `json:"reason"`
	}
	if r.ContentLength != 0 {
		if err := decode(r, &in); err != nil {
			h.fail(w, r, err)
			return
		}
	}
	v, err := h.deps.Orders.Cancel(r.Context(), userID(r), chi.URLParam(r, "id"), in.Reason)
	h.reply(w, r, http.StatusOK, v, err)
}

// orderPayments lists the payments of an order the caller owns.
func (h *Handler) orderPayments(w http.ResponseWriter, r *http.Request) {
	o, err := h.deps.Orders.Get(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	v, err := h.deps.Payments.ListByOrder(r.Context(), o.ID)
	h.reply(w, r, http.StatusOK, v, err)
}

// paymentNotification accepts a gateway push. Redelivered notifications are
// answered with 200 so the gateway stops retrying.
func (h *Handler) paymentNotification(w http.ResponseWriter, r *http.Request) {
	var n paymentapp.Notification
	if err := decode(r, &n); err != nil {
		h.fail(w, r, err)
		return
	}
	n.Provider = chi.URLParam(r, "provider")
	if n.ReceivedAt.IsZero() {
		n.ReceivedAt = time.Now().UTC()
	}
	res, err := h.deps.Payments.HandleNotification(r.Context(), n)
	h.reply(w, r, http.StatusOK, res, err)
}
