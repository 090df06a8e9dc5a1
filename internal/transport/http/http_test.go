package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/corray333/gamesbakery/internal/dal/memory"
	"github.com/corray333/gamesbakery/internal/metrics"
	"github.com/corray333/gamesbakery/internal/service/models/authz"
	"github.com/corray333/gamesbakery/internal/service/models/category"
	"github.com/corray333/gamesbakery/internal/service/models/game"
	"github.com/corray333/gamesbakery/internal/service/models/order"
	"github.com/corray333/gamesbakery/internal/service/models/orderitem"
	"github.com/corray333/gamesbakery/internal/service/services/cartsvc"
	"github.com/corray333/gamesbakery/internal/service/services/catalogsvc"
	"github.com/corray333/gamesbakery/internal/service/services/ordersvc"
	"github.com/corray333/gamesbakery/internal/service/services/usersvc"
	"github.com/corray333/gamesbakery/internal/transport/http/admin"
	"github.com/corray333/gamesbakery/internal/transport/http/carts"
	"github.com/corray333/gamesbakery/internal/transport/http/catalog"
	"github.com/corray333/gamesbakery/internal/transport/http/orders"
	"github.com/corray333/gamesbakery/internal/transport/http/principal"
	"github.com/corray333/gamesbakery/internal/transport/http/users"
	"github.com/corray333/gamesbakery/internal/worker/orderstatus"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/bcrypt"
)

type testServer struct {
	store   *memory.Store
	handler http.Handler
	game    *game.Game
}

type downPinger struct{}

func (downPinger) Ping(context.Context) error { return errors.New("connection refused") }

func newTestServer(t *testing.T, pingers map[string]Pinger) *testServer {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	sys := authz.System()

	cat, _ := category.New("Puzzle", "")
	if err := store.Categories().Insert(ctx, sys, cat); err != nil {
		t.Fatal(err)
	}
	g, _ := game.New(cat.ID, "Baba Is You", 1_500, time.Now(), "Rules", "Hempuli")
	g.SetForSale(true)
	if err := store.Games().Insert(ctx, sys, g); err != nil {
		t.Fatal(err)
	}

	userSvc := usersvc.MustNewUserService(
		usersvc.WithUserRepository(store.Users()),
		usersvc.WithUnitOfWork(store),
		usersvc.WithHashCost(bcrypt.MinCost),
	)
	catalogSvc := catalogsvc.MustNewCatalogService(
		catalogsvc.WithCategoryRepository(store.Categories()),
		catalogsvc.WithGameRepository(store.Games()),
	)
	cartSvc := cartsvc.MustNewCartService(
		cartsvc.WithCartRepository(store.Carts()),
		cartsvc.WithOrderItemRepository(store.OrderItems()),
		cartsvc.WithGameRepository(store.Games()),
	)
	orderSvc := ordersvc.MustNewOrderService(
		ordersvc.WithOrderRepository(store.Orders()),
		ordersvc.WithOrderItemRepository(store.OrderItems()),
		ordersvc.WithUnitOfWork(store),
	)
	sweeper, err := orderstatus.NewWorker(store, store.Orders(), store.OrderItems())
	if err != nil {
		t.Fatal(err)
	}

	m := metrics.New(prometheus.NewRegistry())
	tr := NewHTTPTransport(m.Server, nil, pingers,
		users.New(userSvc),
		catalog.New(catalogSvc),
		carts.New(cartSvc),
		orders.New(orderSvc),
		admin.New(sweeper),
	)
	tr.RegisterRoutes()

	return &testServer{store: store, handler: tr.Handler(), game: g}
}

func (s *testServer) do(t *testing.T, method, path string, p authz.Principal, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if !p.IsGuest() {
		req.Header.Set(principal.HeaderRole, p.Role.String())
	}
	if p.UserID != uuid.Nil {
		req.Header.Set(principal.HeaderUserID, p.UserID.String())
	}
	if p.SellerID != uuid.Nil {
		req.Header.Set(principal.HeaderSellerID, p.SellerID.String())
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestPurchaseFlow(t *testing.T) {
	s := newTestServer(t, nil)
	ctx := context.Background()

	rec := s.do(t, http.MethodPost, "/api/v2/auth/register", authz.Guest(), map[string]string{
		"username": "carol",
		"email":    "carol@example.com",
		"password": "s3cret!",
		"country":  "SE",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", rec.Code, rec.Body)
	}
	userID := decode[struct {
		ID uuid.UUID `json:"id"`
	}](t, rec).ID
	me := authz.User(userID)

	rec = s.do(t, http.MethodPatch, "/api/v2/users/"+userID.String(), me, map[string]int64{"topUpCents": 2_000})
	if rec.Code != http.StatusOK {
		t.Fatalf("top up: %d %s", rec.Code, rec.Body)
	}

	key := "BABA-1234"
	item, _ := orderitem.New(s.game.ID, uuid.New(), &key)
	if err := s.store.OrderItems().Insert(ctx, authz.System(), item); err != nil {
		t.Fatal(err)
	}

	cartPath := "/api/v2/users/" + userID.String() + "/cart-items"
	rec = s.do(t, http.MethodPost, cartPath, me, map[string]uuid.UUID{"orderItemId": item.ID})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("add to cart: %d %s", rec.Code, rec.Body)
	}

	rec = s.do(t, http.MethodGet, cartPath, me, nil)
	cart := decode[struct {
		TotalCents int64 `json:"totalCents"`
	}](t, rec)
	if cart.TotalCents != 1_500 {
		t.Errorf("cart total = %d, want 1500", cart.TotalCents)
	}

	rec = s.do(t, http.MethodPost, "/api/v2/users/"+userID.String()+"/orders", me, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("checkout: %d %s", rec.Code, rec.Body)
	}
	placed := decode[order.Order](t, rec)
	if placed.Status != order.StatusPending || placed.TotalCents != 1_500 {
		t.Errorf("unexpected order %+v", placed)
	}

	rec = s.do(t, http.MethodPost, "/api/v2/admin/order-status/sweep", authz.Admin(uuid.New()), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("sweep: %d %s", rec.Code, rec.Body)
	}
	if report := decode[orderstatus.Report](t, rec); report.Completed != 1 {
		t.Errorf("sweep report = %+v, want one completion", report)
	}

	rec = s.do(t, http.MethodGet, "/api/v2/orders/"+placed.ID.String()+"/status", me, nil)
	if got := decode[order.Summary](t, rec); got.Status != order.StatusCompleted {
		t.Errorf("status = %s, want Completed", got.Status)
	}

	rec = s.do(t, http.MethodPost, "/api/v2/users/"+userID.String()+"/orders", me, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty cart checkout: %d, want 400", rec.Code)
	}
}

func TestErrorMapping(t *testing.T) {
	s := newTestServer(t, nil)
	someone := uuid.New()

	tests := []struct {
		name   string
		method string
		path   string
		p      authz.Principal
		body   any
		want   int
	}{
		{"bad uuid", http.MethodGet, "/api/v2/games/not-a-uuid", authz.Guest(), nil, http.StatusBadRequest},
		{"unknown game", http.MethodGet, "/api/v2/games/" + uuid.NewString(), authz.Guest(), nil, http.StatusNotFound},
		{"guest cart", http.MethodGet, "/api/v2/users/" + someone.String() + "/cart-items", authz.Guest(), nil, http.StatusUnauthorized},
		{"foreign cart", http.MethodGet, "/api/v2/users/" + someone.String() + "/cart-items", authz.User(uuid.New()), nil, http.StatusForbidden},
		{"user lists users", http.MethodGet, "/api/v2/users/admin", authz.User(someone), nil, http.StatusForbidden},
		{"user sweeps", http.MethodPost, "/api/v2/admin/order-status/sweep", authz.User(someone), nil, http.StatusForbidden},
		{"invalid body", http.MethodPost, "/api/v2/auth/register", authz.Guest(), map[string]string{"email": "x"}, http.StatusBadRequest},
		{"bad login", http.MethodPost, "/api/v2/auth/login", authz.Guest(), map[string]string{"email": "a@b.c", "password": "nope"}, http.StatusUnauthorized},
		{"games listing", http.MethodGet, "/api/v2/games?title=baba", authz.Guest(), nil, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, tt.method, tt.path, tt.p, tt.body)
			if rec.Code != tt.want {
				t.Errorf("%s %s = %d, want %d (%s)", tt.method, tt.path, rec.Code, tt.want, rec.Body)
			}
		})
	}
}

func TestPrincipalHeaders(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v2/games", nil)
	req.Header.Set(principal.HeaderRole, "Wizard")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown role: %d, want 400", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v2/games", nil)
	req.Header.Set(principal.HeaderRole, "User")
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("user without id: %d, want 401", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	ok := newTestServer(t, nil)
	if rec := ok.do(t, http.MethodGet, "/healthz", authz.Guest(), nil); rec.Code != http.StatusOK {
		t.Errorf("healthz = %d, want 200", rec.Code)
	}

	down := newTestServer(t, map[string]Pinger{"postgres": downPinger{}})
	rec := down.do(t, http.MethodGet, "/healthz", authz.Guest(), nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("healthz = %d, want 503", rec.Code)
	}
	if got := decode[healthResponse](t, rec); got.Checks["postgres"] == "" || got.Status != "degraded" {
		t.Errorf("unexpected health body %+v", got)
	}
}
