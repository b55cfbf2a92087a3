package main

import (
	"context"
	"database/sql"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"MiniCart/internal/admin"
	"MiniCart/internal/cart"
	"MiniCart/internal/catalog"
	"MiniCart/internal/hub"
	"MiniCart/internal/kvstore"
	"MiniCart/internal/order"
	"MiniCart/internal/storefront"
	"MiniCart/pkg/kit"
)

func main() {
	service := "storefront"
	log := kit.NewLogger(service, getenv("APP_ENV", "prod"))
	defer func() { _ = log.Sync() }()

	port := getenv("PORT", "8080")

	kv := openKV(log)

	productStream := hub.NewStream[[]cart.LineItem](nil)
	orderStream := hub.NewStream[[]order.Order](nil)

	orders := order.NewRepository(kv, orderStream, log)
	cartStore := cart.NewStore(kv, orders, productStream, log)

	sync := admin.NewSync(kv, productStream, orderStream, func(orderID string) {
		log.Info("admin dashboard hand-off", zap.String("order_id", orderID))
	}, log)
	defer sync.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := orders.Load(ctx); err != nil {
		log.Fatal("load orders failed", zap.Error(err))
	}
	if err := cartStore.Load(ctx); err != nil {
		log.Fatal("load cart failed", zap.Error(err))
	}

	guard, err := admin.NewGuard(getenv("ADMIN_PASSWORD", "admin-password"), mustJWTSecret(log))
	if err != nil {
		log.Fatal("init admin guard failed", zap.Error(err))
	}

	adminSrv := &admin.Server{
		Log:    log,
		Guard:  guard,
		Sync:   sync,
		Orders: orders,
	}

	s := &storefront.Server{
		Catalog: catalog.NewStore(),
		Cart:    cartStore,
		Orders:  orders,
		Admin:   sync,
		KV:      kv,
		Log:     log,
	}

	h := storefront.NewHandler(s, adminSrv.Routes(), storefront.HTTPDeps{
		Log:       log,
		Service:   service,
		Registry:  prometheus.NewRegistry(),
		RateLimit: kit.NewIPRateLimiter(30, 60),
	})

	if err := kit.RunHTTPServer(":"+port, h, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}

// openKV picks the durable backend: DATABASE_URL selects postgres,
// otherwise state lives in files under DATA_DIR.
func openKV(log *zap.Logger) kvstore.Store {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		db, err := sql.Open("pgx", dsn)
		if err != nil {
			log.Fatal("open database failed", zap.Error(err))
		}

		pg := kvstore.NewPostgresStore(db)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Fatal("ensure kv schema failed", zap.Error(err))
		}
		return pg
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
