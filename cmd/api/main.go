package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/example/ec-cart-offers/internal/api"
	"github.com/example/ec-cart-offers/internal/auth"
	"github.com/example/ec-cart-offers/internal/command"
	"github.com/example/ec-cart-offers/internal/config"
	"github.com/example/ec-cart-offers/internal/domain/product"
	"github.com/example/ec-cart-offers/internal/infrastructure/cache"
	"github.com/example/ec-cart-offers/internal/infrastructure/kafka"
	"github.com/example/ec-cart-offers/internal/infrastructure/store"
	"github.com/example/ec-cart-offers/internal/logger"
	"github.com/example/ec-cart-offers/internal/query"
	"github.com/redis/go-redis/v9"
)

type stores struct {
	carts    store.CartRepository
	offers   store.OfferRepository
	products store.ProductLookup
	ledger   store.RedemptionLedger
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log = log.Component("API")

	if err := cfg.ValidateAuth(); err != nil {
		log.Fatal("invalid auth configuration", "error", err)
	}

	log.Info("starting cart and offer API",
		"kafka_brokers", cfg.KafkaBrokers,
		"kafka_topic", cfg.KafkaTopic,
		"cart_store", cfg.CartStore,
	)

	// Stores
	var s stores
	if cfg.CartStore == config.CartStoreMemory {
		log.Warn("using in-memory stores; data is lost on restart")
		var seed []product.Product
		if cfg.ProductSeedFile == "" {
			log.Warn("PRODUCT_SEED_FILE not set; the in-memory catalog is empty and every add will be rejected")
		} else {
			seed, err = store.LoadProductsFile(cfg.ProductSeedFile)
			if err != nil {
				log.Fatal("failed to load product seed", "path", cfg.ProductSeedFile, "error", err)
			}
			log.Info("product catalog seeded", "path", cfg.ProductSeedFile, "products", len(seed))
		}
		s = stores{
			carts:    store.NewMemoryCartStore(),
			offers:   store.NewMemoryOfferStore(),
			products: store.NewMemoryProductStore(seed...),
			ledger:   store.NewMemoryRedemptionLedger(),
		}
	} else {
		db, err := store.ConnectPostgres(cfg.DatabaseURL)
		if err != nil {
			log.Fatal("failed to connect to PostgreSQL", "error", err)
		}
		defer db.Close()
		if err := store.EnsureSchema(ctx, db); err != nil {
			log.Fatal("failed to ensure schema", "error", err)
		}
		log.Info("connected to PostgreSQL")

		s = postgresStores(db)
		if cfg.CartStore == config.CartStoreDynamo {
			awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
			if err != nil {
				log.Fatal("failed to load AWS config", "error", err)
			}
			s.carts = store.NewDynamoCartStore(dynamodb.NewFromConfig(awsCfg), cfg.DynamoCartTable)
			log.Info("carts stored in DynamoDB", "table", cfg.DynamoCartTable)
		}
	}

	// Product cache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis unreachable; product lookups fall through to the store", "addr", cfg.RedisAddr, "error", err)
		}
		s.products = cache.NewProductCache(rdb, s.products, cfg.ProductCacheTTL, log)
		log.Info("product cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.ProductCacheTTL)
	}

	// Event publishing
	producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer producer.Close()

	jwtService := auth.NewJWTService(cfg.JWTSecret, 15*time.Minute)

	cmdHandler := command.NewHandler(s.carts, s.offers, s.products, producer, log)
	queryHandler := query.NewHandler(s.carts, s.offers, s.ledger)
	router := api.NewRouter(api.NewHandlers(cmdHandler, queryHandler, log), jwtService, log)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server started", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}

func postgresStores(db *sql.DB) stores {
	return stores{
		carts:    store.NewPostgresCartStore(db),
		offers:   store.NewPostgresOfferStore(db),
		products: store.NewPostgresProductLookup(db),
		ledger:   store.NewPostgresRedemptionLedger(db),
	}
}
