package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/atharv3903/meetcast/internal/api"
	"github.com/atharv3903/meetcast/internal/config"
	"github.com/atharv3903/meetcast/internal/contest"
	"github.com/atharv3903/meetcast/internal/db"
	"github.com/atharv3903/meetcast/internal/logging"
)

func main() {
	cfg := config.FromFlagsServer()
	log := logging.New(os.Stderr, cfg.LogLevel)

	conn, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Error("open database", "err", err)
		os.Exit(1)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = db.Store{DB: conn}.EnsureSchema(ctx)
	cancel()
	if err != nil {
		log.Error("prepare schema", "err", err)
		os.Exit(1)
	}

	srv := api.New(conn, contest.Params{
		SpeedScale:      cfg.SpeedScale,
		Workers:         cfg.Workers,
		StrictEdgeCount: cfg.StrictEdgeCount,
		MaxVertices:     cfg.MaxVertices,
		Logger:          log,
	}, cfg.GraphCacheSize)

	log.Info("MEETCAST listening", "addr", cfg.Addr, "workers", cfg.Workers, "speed_scale", cfg.SpeedScale)
	if err := http.ListenAndServe(cfg.Addr, srv.Mux); err != nil {
		log.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
