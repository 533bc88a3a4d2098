package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"traderpro/internal/broker"
	"traderpro/internal/domain"
	"traderpro/internal/session"
	"traderpro/internal/trading"
)

// DashboardServer serves the dashboard HTTP API.
type DashboardServer struct {
	sessions *session.Manager
	desk     *trading.Desk
	assets   *trading.AssetCache
	log      *slog.Logger
}

// NewDashboardServer creates a new dashboard HTTP server.
func NewDashboardServer(sessions *session.Manager, desk *trading.Desk, assets *trading.AssetCache, log *slog.Logger) *DashboardServer {
	return &DashboardServer{
		sessions: sessions,
		desk:     desk,
		assets:   assets,
		log:      log,
	}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *DashboardServer) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/portfolios", s.handlePortfolios)
	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("POST /api/logout", s.withSession(false, s.handleLogout))

	// Read-only views, open to guests.
	mux.HandleFunc("GET /api/summary", s.withSession(false, s.handleSummary))
	mux.HandleFunc("GET /api/positions", s.withSession(false, s.handlePositions))
	mux.HandleFunc("GET /api/history", s.withSession(false, s.handleHistory))

	// Trading, admin only.
	mux.HandleFunc("GET /api/assets", s.withSession(true, s.handleAssets))
	mux.HandleFunc("GET /api/quote/{symbol}", s.withSession(true, s.handleQuote))
	mux.HandleFunc("GET /api/orders/pending", s.withSession(true, s.handlePending))
	mux.HandleFunc("POST /api/orders", s.withSession(true, s.handlePlaceOrder))
	mux.HandleFunc("DELETE /api/orders/{id}", s.withSession(true, s.handleCancelOrder))
}

// Handler returns an http.Handler with CORS middleware.
func (s *DashboardServer) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, sess *session.Session)

// withSession resolves the bearer token. Admin-only routes refuse guest
// sessions with 403.
func (s *DashboardServer) withSession(adminOnly bool, next sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		sess, err := s.sessions.Get(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		if adminOnly && !sess.IsAdmin() {
			writeError(w, http.StatusForbidden, "admin role required")
			return
		}
		next(w, r, sess)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeErrorBody(w, status, ErrorResponse{Error: msg})
}

func writeErrorBody(w http.ResponseWriter, status int, body ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeBrokerError maps the broker and desk error taxonomy onto HTTP
// statuses. Rejections keep the brokerage text and add a hint.
func (s *DashboardServer) writeBrokerError(w http.ResponseWriter, r *http.Request, err error) {
	var rej *broker.RejectionError
	if errors.As(err, &rej) {
		writeErrorBody(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:    rej.Reason,
			Category: string(rej.Category),
			Hint:     rej.Category.Hint(),
		})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, trading.ErrInvalidOrder):
		status = http.StatusBadRequest
	case errors.Is(err, broker.ErrSymbolNotFound):
		status = http.StatusNotFound
	case errors.Is(err, broker.ErrOrderNotCancelable):
		status = http.StatusConflict
	case errors.Is(err, broker.ErrCapabilityUnsupported):
		status = http.StatusNotImplemented
	case errors.Is(err, broker.ErrConnectivity):
		status = http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}
	if status >= 500 {
		s.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	writeError(w, status, err.Error())
}

// ---------------------------------------------------------------------------
// Session
// ---------------------------------------------------------------------------

func (s *DashboardServer) handlePortfolios(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, PortfoliosResponse{Portfolios: s.sessions.Portfolios()})
}

func (s *DashboardServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	sess, err := s.sessions.Login(r.Context(), req.Portfolio, req.Password, req.Guest)
	if err != nil {
		var pnc *session.PasswordNotConfiguredError
		switch {
		case errors.Is(err, session.ErrUnknownPortfolio):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, session.ErrInvalidPassword):
			writeError(w, http.StatusUnauthorized, err.Error())
		case errors.As(err, &pnc):
			s.log.Error("login impossible", "portfolio", pnc.Portfolio, "missing_env", pnc.EnvVar)
			writeError(w, http.StatusInternalServerError, err.Error())
		default:
			s.log.Error("opening broker", "portfolio", req.Portfolio, "error", err)
			writeError(w, http.StatusBadGateway, err.Error())
		}
		return
	}

	writeJSON(w, LoginResponse{Token: sess.Token, Role: string(sess.Role), Portfolio: sess.Portfolio})
}

func (s *DashboardServer) handleLogout(w http.ResponseWriter, _ *http.Request, sess *session.Session) {
	s.sessions.Logout(sess.Token)
	w.WriteHeader(http.StatusNoContent)
}

// ---------------------------------------------------------------------------
// Views
// ---------------------------------------------------------------------------

func (s *DashboardServer) handleSummary(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	sum, err := trading.Summarize(r.Context(), sess.Broker)
	if err != nil {
		s.writeBrokerError(w, r, err)
		return
	}
	writeJSON(w, SummaryResponse{
		Portfolio:   sess.Portfolio,
		Role:        string(sess.Role),
		Equity:      sum.Equity,
		Cash:        sum.Cash,
		BuyingPower: sum.BuyingPower,
		Locked:      sum.Locked,
		Available:   sum.Available,
		Warnings:    errorStrings(sum.Degraded),
	})
}

func (s *DashboardServer) handlePositions(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	rows, degraded, err := trading.Holdings(r.Context(), sess.Broker)
	if err != nil {
		s.writeBrokerError(w, r, err)
		return
	}
	writeJSON(w, PositionsResponse{Holdings: rows, Warnings: errorStrings(degraded)})
}

func (s *DashboardServer) handleHistory(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	fills, err := trading.FilledHistory(r.Context(), sess.Broker)
	if err != nil {
		s.writeBrokerError(w, r, err)
		return
	}
	writeJSON(w, HistoryResponse{Fills: fills})
}

// ---------------------------------------------------------------------------
// Trading
// ---------------------------------------------------------------------------

func (s *DashboardServer) handleAssets(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if r.URL.Query().Get("refresh") == "true" {
		s.assets.Invalidate(sess.Portfolio)
	}
	symbols, fallback := s.assets.Symbols(r.Context(), sess.Portfolio, sess.Broker)
	writeJSON(w, AssetsResponse{Symbols: symbols, Fallback: fallback})
}

func (s *DashboardServer) handleQuote(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	q := r.URL.Query()

	sideStr := q.Get("side")
	if sideStr == "" {
		sideStr = string(domain.OrderSideBuy)
	}
	side, err := domain.ParseOrderSide(sideStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	qty := decimal.NewFromInt(1)
	if v := q.Get("qty"); v != "" {
		qty, err = decimal.NewFromString(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid qty")
			return
		}
	}

	t, err := s.desk.Preview(r.Context(), sess.Broker, trading.OrderRequest{
		Symbol:  r.PathValue("symbol"),
		Side:    side,
		Qty:     qty,
		SellAll: q.Get("sell_all") == "true",
	})
	if err != nil {
		s.writeBrokerError(w, r, err)
		return
	}

	writeJSON(w, QuoteResponse{
		Symbol:     t.Symbol,
		Side:       t.Side,
		Qty:        t.Qty,
		Price:      t.Price,
		Cost:       t.Cost,
		Held:       t.Held,
		Available:  t.Available,
		Conflict:   t.Conflict,
		Violations: errorStrings(t.Violations),
		OK:         t.Err() == nil,
	})
}

func (s *DashboardServer) handlePending(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	orders, err := sess.Broker.PendingOrders(r.Context())
	if err != nil {
		s.writeBrokerError(w, r, err)
		return
	}
	writeJSON(w, OrdersResponse{Orders: orders})
}

func (s *DashboardServer) handlePlaceOrder(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var req PlaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	side, err := domain.ParseOrderSide(req.Side)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	o, err := s.desk.Submit(r.Context(), sess.Broker, trading.OrderRequest{
		Symbol:  req.Symbol,
		Side:    side,
		Qty:     req.Qty,
		SellAll: req.SellAll,
	})
	if err != nil {
		s.writeBrokerError(w, r, err)
		return
	}

	s.log.Info("order placed", "portfolio", sess.Portfolio, "id", o.ID, "symbol", o.Symbol, "side", o.Side, "qty", o.Qty.String())
	writeJSON(w, o)
}

func (s *DashboardServer) handleCancelOrder(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if err := s.desk.Cancel(r.Context(), sess.Broker, r.PathValue("id")); err != nil {
		s.writeBrokerError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
