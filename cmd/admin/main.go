package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"MiniCart/internal/admin"
	"MiniCart/internal/cart"
	"MiniCart/internal/hub"
	"MiniCart/internal/kvstore"
	"MiniCart/internal/order"
	"MiniCart/pkg/kit"
)

// Standalone admin viewer: reads the durable store the storefront
// writes and serves the dashboard from its own process.
func main() {
	service := "admin"
	log := kit.NewLogger(service, getenv("APP_ENV", "prod"))
	defer func() { _ = log.Sync() }()

	port := getenv("PORT", "8090")

	kv := openKV(log)

	productStream := hub.NewStream[[]cart.LineItem](nil)
	orderStream := hub.NewStream[[]order.Order](nil)

	orders := order.NewRepository(kv, orderStream, log)
	sync := admin.NewSync(kv, productStream, orderStream, nil, log)
	defer sync.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := orders.Load(ctx); err != nil {
		log.Fatal("load orders failed", zap.Error(err))
	}
	loadMirroredProducts(ctx, kv, productStream, log)

	guard, err := admin.NewGuard(getenv("ADMIN_PASSWORD", "admin-password"), mustJWTSecret(log))
	if err != nil {
		log.Fatal("init admin guard failed", zap.Error(err))
	}

	srv := &admin.Server{
		Log:    log,
		Guard:  guard,
		Sync:   sync,
		Orders: orders,
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(kit.Recoverer)
	r.Use(kit.Logging(log))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 1*time.Second)
		defer cancel()

		if err := kv.Ping(ctx); err != nil {
			log.Warn("readyz failed", zap.Error(err))
			kit.WriteError(w, req, http.StatusServiceUnavailable, "not ready", nil)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	r.Mount("/admin", srv.Routes())

	if err := kit.RunHTTPServer(":"+port, r, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}

// loadMirroredProducts seeds the product stream from the snapshot the
// storefront mirrored for this process.
func loadMirroredProducts(ctx context.Context, kv kvstore.Store, stream *hub.Stream[[]cart.LineItem], log *zap.Logger) {
	var items []cart.LineItem
	ok, err := kvstore.GetJSON(ctx, kv, admin.KeyProducts, &items)
	if err != nil {
		log.Warn("load mirrored products failed", zap.Error(err))
		return
	}
	if ok {
		stream.Publish(items)
	}
}

func openKV(log *zap.Logger) kvstore.Store {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		db, err := sql.Open("pgx", dsn)
		if err != nil {
			log.Fatal("open database failed", zap.Error(err))
		}
		return kvstore.NewPostgresStore(db)
	}

	fs, err := kvstore.NewFileStore(getenv("DATA_DIR", "./data"))
	if err != nil {
		log.Fatal("open file store failed", zap.Error(err))
	}
	return fs
}

func mustJWTSecret(log *zap.Logger) string {
	secret := getenv("JWT_SECRET", "dev-secret-dev-secret-dev-secret!")
	if len(secret) < 32 {
		log.Fatal("JWT_SECRET must be at least 32 chars")
	}
	return secret
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
