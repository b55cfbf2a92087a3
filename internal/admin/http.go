package admin

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"MiniCart/internal/cart"
	"MiniCart/internal/order"
	"MiniCart/pkg/kit"
)

const (
	maxBodyBytes = 1 << 20
	tokenTTL     = 15 * time.Minute
)

type Server struct {
	Log    *zap.Logger
	Guard  *Guard
	Sync   *Sync
	Orders *order.Repository
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Post("/login", s.handleLogin)

	r.Group(func(pr chi.Router) {
		pr.Use(s.requireToken)
		pr.Get("/dashboard", s.handleDashboard)
		pr.Patch("/orders/{id}/status", s.handleUpdateStatus)
	})

	return r
}

type loginReq struct {
	Password string `json:"password"`
}

type loginResp struct {
	AccessToken string `json:"access_token"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	req, err := kit.DecodeJSON[loginReq](w, r, maxBodyBytes)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}

	if req.Password == "" || !s.Guard.Verify(req.Password) {
		kit.WriteError(w, r, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}

	tok, err := s.Guard.NewToken(tokenTTL)
	if err != nil {
		if s.Log != nil {
			s.Log.Error("token issue", zap.Error(err))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	kit.WriteJSON(w, http.StatusOK, loginResp{AccessToken: tok})
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authz := r.Header.Get("Authorization")
		if !strings.HasPrefix(authz, "Bearer ") {
			kit.WriteError(w, r, http.StatusUnauthorized, "missing token", nil)
			return
		}
		if err := s.Guard.ParseToken(strings.TrimPrefix(authz, "Bearer ")); err != nil {
			kit.WriteError(w, r, http.StatusUnauthorized, "invalid token", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type dashboardResp struct {
	CurrentOrderID string          `json:"current_order_id,omitempty"`
	Orders         []order.Order   `json:"orders"`
	Products       []cart.LineItem `json:"products"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	currentID, err := s.Sync.HandedOffOrderID(r.Context())
	if err != nil {
		if s.Log != nil {
			s.Log.Error("read handed-off order id failed", zap.Error(err))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	kit.WriteJSON(w, http.StatusOK, dashboardResp{
		CurrentOrderID: currentID,
		Orders:         s.Orders.Orders(),
		Products:       s.Sync.Products(),
	})
}

type updateStatusReq struct {
	Status string `json:"status"`
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	req, err := kit.DecodeJSON[updateStatusReq](w, r, maxBodyBytes)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}

	status, ok := order.ParseStatus(req.Status)
	if !ok {
		kit.WriteError(w, r, http.StatusBadRequest, "unknown status", map[string]any{"status": req.Status})
		return
	}

	id := chi.URLParam(r, "id")
	if err := s.Orders.UpdateStatus(r.Context(), id, status); err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
			return
		}
		if s.Log != nil {
			s.Log.Error("update order status failed", zap.Error(err), zap.String("order_id", id))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	o, _ := s.Orders.Get(id)
	kit.WriteJSON(w, http.StatusOK, o)
}
