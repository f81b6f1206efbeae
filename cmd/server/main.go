package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/nearchat/nearchat/internal/api"
	"github.com/nearchat/nearchat/internal/config"
	"github.com/nearchat/nearchat/internal/database"
	"github.com/nearchat/nearchat/internal/geo"
	"github.com/nearchat/nearchat/internal/proximity"
	"github.com/nearchat/nearchat/internal/server"
	"github.com/nearchat/nearchat/internal/stats"
)

const defaultSigningKey = "wT0phFUusHZIrDhL9bUKPUhwaxKhpi/SaI6PtgB+MgU="

// snapshotRadiusKm is the radius of the nearby snapshot pushed over the
// realtime channel after registration and location updates.
const snapshotRadiusKm = 10

type stringSliceFlag []string

func (s *stringSliceFlag) String() string {
	return strings.Join(*s, ",")
}

func (s *stringSliceFlag) Set(value string) error {
	*s = append(*s, strings.Split(value, ",")...)
	return nil
}

var (
	addr           string
	dsn            string
	redisAddr      string
	signingKey     string
	allowedOrigins stringSliceFlag
)

func main() {
	flag.StringVar(&addr, "addr", "localhost:8000", "server address")
	flag.StringVar(&dsn, "dsn", "host=localhost user=postgres password=postgres dbname=postgres sslmode=disable", "database connection string")
	flag.StringVar(&redisAddr, "redis-addr", "localhost:6379", "redis address for the location index")
	flag.StringVar(&signingKey, "signing-key", defaultSigningKey, "base64 encoded signing key")
	flag.Var(&allowedOrigins, "allowed-origins", "comma-separated list of allowed origins for CORS")
	flag.Parse()

	logger := log.New(os.Stderr, "[nearchat] ", log.LstdFlags)

	cfg, err := config.NewConfig(addr, dsn, redisAddr, signingKey, allowedOrigins)
	if err != nil {
		logger.Fatal("config:", err)
	}

	dbConn, err := database.NewPgUserRepository(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("db open:", err)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Fatal("db close:", err)
		}
	}()

	if err := dbConn.EnsureSchema(); err != nil {
		logger.Fatal("db schema:", err)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()

	index := geo.NewRedisLocationIndex(redisClient)

	mux := http.NewServeMux()

	statsUpdater := stats.NewStatsUpdater(mux)

	gateway, err := server.NewGateway(logger, dbConn, index, statsUpdater)
	if err != nil {
		logger.Fatal("new gateway:", err)
	}

	prox := proximity.NewService(logger, dbConn, index, gateway.Presence())

	// push a fresh nearby snapshot whenever a user registers or moves
	gateway.SetNearbyBroadcaster(func(ctx context.Context, c *server.Client, userId int) {
		user, err := dbConn.GetAccountById(ctx, userId)
		if err != nil {
			logger.Printf("nearby snapshot: get account %d: %v", userId, err)
			return
		}

		if user.Latitude == 0 && user.Longitude == 0 {
			return
		}

		users, err := prox.Nearby(ctx, userId, user.Latitude, user.Longitude, snapshotRadiusKm, nil)
		if err != nil {
			logger.Printf("nearby snapshot for user %d: %v", userId, err)
			return
		}

		c.QueueEvent(&server.ServerEvent{
			Timestamp:   server.Now(),
			NearbyUsers: users,
		})
	})

	app := api.NewApp(mux, logger, gateway, prox, dbConn, cfg)

	statsUpdater.Run()
	defer statsUpdater.Stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Start()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Printf("received signal: %s\n", sig)
	case err := <-errCh:
		logger.Println("server:", err)
	}

	shutDownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	if err := app.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("HTTP server shutdown:", err)
	}

	gateway.Shutdown()

	logger.Println("shutdown complete")
}
