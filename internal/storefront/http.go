package storefront

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"MiniCart/internal/cart"
	"MiniCart/internal/kvstore"
	"MiniCart/pkg/kit"
)

const maxBodyBytes = 1 << 20

type cartView struct {
	Items         []cart.LineItem `json:"items"`
	DiscountCents int64           `json:"discount_cents"`
	SubtotalCents int64           `json:"subtotal_cents"`
	TotalCents    int64           `json:"total_cents"`
}

func (s *Server) cartView() cartView {
	return cartView{
		Items:         s.Cart.Items(),
		DiscountCents: s.Cart.Discount(),
		SubtotalCents: s.Cart.Subtotal(),
		TotalCents:    s.Cart.Total(),
	}
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	kit.WriteJSON(w, http.StatusOK, s.Catalog.ListSortedByID())
}

func (s *Server) handleGetCart(w http.ResponseWriter, r *http.Request) {
	kit.WriteJSON(w, http.StatusOK, s.cartView())
}

func (s *Server) handleSavedItems(w http.ResponseWriter, r *http.Request) {
	kit.WriteJSON(w, http.StatusOK, s.Cart.SavedItems())
}

type addItemReq struct {
	ProductID string `json:"product_id"`
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	req, err := kit.DecodeJSON[addItemReq](w, r, maxBodyBytes)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}

	p, ok := s.Catalog.Get(req.ProductID)
	if !ok {
		kit.WriteError(w, r, http.StatusNotFound, "unknown product", map[string]any{"product_id": req.ProductID})
		return
	}

	err = s.Cart.Add(r.Context(), p)
	s.observeCartOp("add", err)
	if err != nil {
		s.writeCartError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, s.cartView())
}

type changeQuantityReq struct {
	Delta int `json:"delta"`
}

func (s *Server) handleChangeQuantity(w http.ResponseWriter, r *http.Request) {
	index, err := indexParam(r)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad index", nil)
		return
	}

	req, err := kit.DecodeJSON[changeQuantityReq](w, r, maxBodyBytes)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}

	err = s.Cart.ChangeQuantity(r.Context(), index, req.Delta)
	s.observeCartOp("change_quantity", err)
	if err != nil {
		s.writeCartError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, s.cartView())
}

func (s *Server) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	index, err := indexParam(r)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad index", nil)
		return
	}

	err = s.Cart.Remove(r.Context(), index)
	s.observeCartOp("remove", err)
	if err != nil {
		s.writeCartError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, s.cartView())
}

func (s *Server) handleSaveForLater(w http.ResponseWriter, r *http.Request) {
	index, err := indexParam(r)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad index", nil)
		return
	}

	err = s.Cart.SaveForLater(r.Context(), index)
	s.observeCartOp("save_for_later", err)
	if err != nil {
		s.writeCartError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, s.cartView())
}

type applyCouponReq struct {
	Code string `json:"code"`
}

type applyCouponResp struct {
	DiscountCents int64 `json:"discount_cents"`
	TotalCents    int64 `json:"total_cents"`
}

func (s *Server) handleApplyCoupon(w http.ResponseWriter, r *http.Request) {
	req, err := kit.DecodeJSON[applyCouponReq](w, r, maxBodyBytes)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}

	discount, err := s.Cart.ApplyCoupon(req.Code)
	s.observeCartOp("apply_coupon", err)
	if err != nil {
		s.writeCartError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, applyCouponResp{
		DiscountCents: discount,
		TotalCents:    s.Cart.Total(),
	})
}

func (s *Server) handleClearCart(w http.ResponseWriter, r *http.Request) {
	err := s.Cart.Clear(r.Context())
	s.observeCartOp("clear", err)
	if err != nil {
		s.writeCartError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, s.cartView())
}

type checkoutResp struct {
	OrderID string `json:"order_id"`
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	customer, err := kit.DecodeJSON[cart.CustomerInfo](w, r, maxBodyBytes)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}

	id, err := s.Cart.Checkout(r.Context(), customer)
	s.observeCartOp("checkout", err)
	if err != nil {
		s.writeCartError(w, r, err)
		return
	}

	if s.metrics != nil {
		s.metrics.OrdersCreated.Inc()
	}

	if s.Admin != nil {
		if err := s.Admin.HandOff(r.Context(), id); err != nil && s.Log != nil {
			s.Log.Warn("admin hand-off failed", zap.Error(err), zap.String("order_id", id))
		}
	}

	kit.WriteJSON(w, http.StatusCreated, checkoutResp{OrderID: id})
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	o, found := s.Orders.Get(id)
	if !found {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}
	kit.WriteJSON(w, http.StatusOK, o)
}

func (s *Server) observeCartOp(op string, err error) {
	if s.metrics != nil {
		s.metrics.ObserveCartOp(op, err)
	}
}

func (s *Server) writeCartError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *cart.ValidationError
	var perr *kvstore.PersistenceError

	switch {
	case errors.Is(err, cart.ErrNoSuchItem):
		kit.WriteError(w, r, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, cart.ErrQuantityCap), errors.Is(err, cart.ErrEmptyCart):
		kit.WriteError(w, r, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, cart.ErrInvalidCoupon):
		kit.WriteError(w, r, http.StatusBadRequest, err.Error(), nil)
	case errors.As(err, &verr):
		kit.WriteError(w, r, http.StatusBadRequest, verr.Error(), map[string]any{"field": verr.Field})
	case errors.As(err, &perr):
		if s.Log != nil {
			s.Log.Error("durable store write failed", zap.Error(err))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "storage error", nil)
	default:
		if s.Log != nil {
			s.Log.Error("cart operation failed", zap.Error(err))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}

func indexParam(r *http.Request) (int, error) {
	return strconv.Atoi(chi.URLParam(r, "index"))
}
