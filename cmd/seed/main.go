// Command seed loads a product catalog into a running storefront through its
// admin API. Products come from a JSON fixture (-file) or, without one, from
// a deterministic generator.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	pkgconfig "github.com/utafrali/storefront/pkg/config"
	"github.com/utafrali/storefront/pkg/httpclient"
	"github.com/utafrali/storefront/pkg/logger"
)

// config holds the seed settings.
type config struct {
	APIURL        string        `env:"SEED_API_URL" envDefault:"http://localhost:8080"`
	AdminEmail    string        `env:"SEED_ADMIN_EMAIL" envDefault:"admin@storefront.local"`
	AdminPassword string        `env:"SEED_ADMIN_PASSWORD" envDefault:"admin12345"`
	BatchSize     int           `env:"SEED_BATCH_SIZE" envDefault:"100"`
	Products      int           `env:"SEED_PRODUCTS" envDefault:"500"`
	RandSeed      uint64        `env:"SEED_RAND_SEED" envDefault:"42"`
	Timeout       time.Duration `env:"SEED_TIMEOUT" envDefault:"10m"`
	LogLevel      string        `env:"LOG_LEVEL" envDefault:"info"`
}

func main() {
	fixture := flag.String("file", "", "JSON array of products to create instead of generated ones")
	flag.Parse()

	var cfg config
	if err := pkgconfig.Load(&cfg); err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log := logger.New("storefront-seed", cfg.LogLevel)

	products, err := loadProducts(*fixture, cfg.Products, cfg.RandSeed)
	if err != nil {
		log.Error("failed to load products", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, cfg.Timeout)
	defer cancelTimeout()

	client := httpclient.NewCircuitBreakerClient(
		httpclient.New(httpclient.DefaultConfig()),
		httpclient.DefaultCircuitBreakerConfig("storefront-api"),
		log,
	)
	s := &seeder{
		client:    client,
		baseURL:   cfg.APIURL,
		batchSize: cfg.BatchSize,
		logger:    log,
	}

	if err := s.signIn(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Error("admin sign-in failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	created, err := s.push(ctx, products)
	if err != nil {
		log.Error("seeding stopped", slog.Int("created", created), slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("seeding complete", slog.Int("created", created))
}
