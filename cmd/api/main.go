package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/evkarev/dailywish/internal/adapters/cache"
	adapterHTTP "github.com/evkarev/dailywish/internal/adapters/handler/http"
	"github.com/evkarev/dailywish/internal/adapters/repository"
	"github.com/evkarev/dailywish/internal/core/domain"
	"github.com/evkarev/dailywish/internal/core/services"
	"github.com/evkarev/dailywish/internal/core/workers"
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	startTime := time.Now()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using process environment.")
	}

	serverPort := getEnv("PORT", "8080")

	loc, err := time.LoadLocation(getEnv("TZ_LOCATION", "Local"))
	if err != nil {
		log.Fatalf("Critical: invalid TZ_LOCATION: %v", err)
	}

	var ownerID domain.UserID
	if raw := os.Getenv("OWNER_ID"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			log.Fatalf("Critical: invalid OWNER_ID %q: %v", raw, err)
		}
		ownerID = domain.UserID(id)
	}

	// Records live in postgres when DB_NAME is set, otherwise in the
	// flat JSON file next to the binary.
	var (
		repo domain.RecordRepository
		db   *sqlx.DB
	)
	if dbName := os.Getenv("DB_NAME"); dbName != "" {
		dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD"),
			getEnv("DB_HOST", "localhost"), getEnv("DB_PORT", "5432"), dbName)

		log.Println("Connecting to database...")
		db, err = sqlx.Connect("pgx", dsn)
		if err != nil {
			log.Fatalf("Critical: Failed to connect to database: %v", err)
		}
		defer db.Close()

		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)

		log.Println("Database connected successfully.")
		repo = repository.NewPostgresRecordRepository(db)
	} else {
		dataFile := getEnv("DATA_FILE", "wish_users.json")
		log.Printf("Using file store at %s", dataFile)
		repo, err = repository.NewFileRepository(dataFile)
		if err != nil {
			log.Fatalf("Critical: %v", err)
		}
	}

	var rdb *redis.Client
	if redisHost := os.Getenv("REDIS_HOST"); redisHost != "" {
		redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
		rdb, err = cache.NewRedisClient(redisHost, getEnv("REDIS_PORT", "6379"), os.Getenv("REDIS_PASSWORD"), redisDB)
		if err != nil {
			log.Printf("Redis unavailable, continuing without cache and rate limiting: %v", err)
			rdb = nil
		} else {
			defer rdb.Close()
			repo = repository.NewCachedRecordRepository(repo, rdb)
		}
	}

	catalog := domain.DefaultCatalog()
	if wishesFile := os.Getenv("WISHES_FILE"); wishesFile != "" {
		wishes, err := repository.ReadWishFile(wishesFile)
		if err != nil {
			log.Fatalf("Critical: cannot read wish file %s: %v", wishesFile, err)
		}
		catalog, err = domain.NewCatalog(wishes)
		if err != nil {
			log.Fatalf("Critical: %v", err)
		}
		log.Printf("Loaded %d wishes from %s", catalog.Size(), wishesFile)
	}

	journal, err := repository.NewFileGrantJournal(getEnv("JOURNAL_FILE", "wish_journal.jsonl"))
	if err != nil {
		log.Fatalf("Critical: %v", err)
	}

	wishService := services.NewWishService(repo, catalog, journal, loc, ownerID)
	authService := services.NewAuthService(os.Getenv("OPERATOR_PASSWORD_HASH"))
	tokenService := services.NewTokenService(getEnv("JWT_SECRET", "insecure-dev-secret"), "dailywish", 24*time.Hour)

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	digestWorker := workers.NewDigestWorker(repo, loc)
	digestWorker.Start(workerCtx)

	router := adapterHTTP.NewRouter(adapterHTTP.RouterDependencies{
		WishHandler:  adapterHTTP.NewWishHandler(wishService),
		AuthHandler:  adapterHTTP.NewAuthHandler(authService, tokenService),
		AdminHandler: adapterHTTP.NewAdminHandler(wishService, journal, digestWorker),
		TokenService: tokenService,
		DB:           db,
		Redis:        rdb,
		StartTime:    startTime,
	})

	srv := &http.Server{
		Addr:         ":" + serverPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Daily Wish running on http://localhost:%s", serverPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Critical server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Stop signal received. Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Forced shutdown error:", err)
	}

	log.Println("Server stopped gracefully.")
}
