package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"fleamarket.gg/internal/market/controller"
	"fleamarket.gg/internal/market/offers"
	"fleamarket.gg/internal/persistence/indexdb"
	persistlog "fleamarket.gg/internal/persistence/log"
	"fleamarket.gg/internal/persistence/profilestore"
	"fleamarket.gg/internal/persistence/snapshot"
	"fleamarket.gg/internal/transport/httpapi"
	"fleamarket.gg/internal/transport/router"
	"fleamarket.gg/internal/transport/ws"
)

func main() {
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)
	loadDotenv(logger)

	var (
		addr       = flag.String("addr", envString("RF_ADDR", ":8080"), "http listen address")
		configDir  = flag.String("configs", "./configs", "config directory (ragfair.yaml, traders.json, catalogs/)")
		dataDir    = flag.String("data", envString("RF_DATA_DIR", "./data"), "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to ragfair.yaml (default: <configs>/ragfair.yaml)")
		profiles   = flag.String("profiles", "sqlite", "profile store: sqlite or memory")
		disableDB  = flag.Bool("disable_db", false, "disable the event index (audit + catalogs + snapshot metadata)")

		snapPath   = flag.String("snapshot", "", "path to snapshot to load (memory profiles only)")
		loadLatest = flag.Bool("load_latest_snapshot", true, "load latest snapshot from data dir if present (when -snapshot is empty)")
		snapEvery  = flag.Duration("snapshot_every", time.Duration(envInt("RF_SNAPSHOT_EVERY_SECONDS", 300))*time.Second, "periodic snapshot interval (0 disables)")
	)
	flag.Parse()

	store, memProfiles, err := openProfiles(*profiles, *dataDir)
	if err != nil {
		logger.Fatalf("open profiles: %v", err)
	}
	defer store.Close()

	var idx *indexdb.SQLiteIndex
	if !*disableDB {
		idx, err = indexdb.OpenSQLite(filepath.Join(*dataDir, "index", "ragfair.sqlite"))
		if err != nil {
			logger.Fatalf("open index: %v", err)
		}
		defer idx.Close()
	}

	auditLog := persistlog.NewAuditLogger(*dataDir)
	defer auditLog.Close()
	sinks := offers.Auditors{auditLog}
	if idx != nil {
		sinks = append(sinks, idx)
	}

	m, err := controller.Open(controller.Options{
		ConfigDir:  *configDir,
		TuningPath: strings.TrimSpace(*tuningPath),
		Profiles:   store,
		Audit:      sinks,
		Logger:     log.New(os.Stdout, "[ragfair] ", log.LstdFlags|log.Lmicroseconds),
	})
	if err != nil {
		logger.Fatalf("open market: %v", err)
	}
	if idx != nil {
		if err := idx.UpsertCatalogs(*configDir, m.Catalogs, m.Traders, m.Tuning); err != nil {
			logger.Printf("index: upsert catalogs: %v", err)
		}
	}

	rt := &marketRuntime{
		market:      m,
		profiles:    store,
		memProfiles: memProfiles,
		idx:         idx,
		audit:       auditLog,
		snapDir:     filepath.Join(*dataDir, "snapshots"),
		log:         logger,
	}

	snapshotToLoad := strings.TrimSpace(*snapPath)
	if snapshotToLoad == "" && *loadLatest && memProfiles {
		snapshotToLoad, err = snapshot.Latest(rt.snapDir)
		if err != nil {
			logger.Printf("find latest snapshot: %v", err)
		}
	}
	if err := rt.restore(context.Background(), snapshotToLoad); err != nil {
		logger.Fatalf("restore: %v", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	go rt.run(ctx, *snapEvery)

	rtr := router.New(m, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", rt.metricsHandler(rtr))

	var admin httpapi.Admin
	if envBool("RF_ENABLE_ADMIN_HTTP", defaultEnableAdminHTTP()) {
		admin = rt
	} else {
		logger.Printf("admin endpoints disabled (RF_ENABLE_ADMIN_HTTP=false)")
	}
	httpapi.NewServer(rtr, admin, logger).Register(mux)

	if envBool("RF_ENABLE_PPROF_HTTP", false) {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	} else {
		logger.Printf("pprof endpoints disabled (RF_ENABLE_PPROF_HTTP=false)")
	}
	mux.HandleFunc("/v1/ws", ws.NewServer(rtr, logger).Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s (profiles=%s)", *addr, *profiles)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}

	ctx3, cancel3 := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel3()
	if path, err := rt.Snapshot(ctx3); err != nil {
		logger.Printf("final snapshot: %v", err)
	} else {
		logger.Printf("final snapshot=%s", filepath.Base(path))
	}
	if err := idx.Flush(ctx3); err != nil {
		logger.Printf("index flush: %v", err)
	}
}

func openProfiles(kind, dataDir string) (*profilestore.Store, bool, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "memory":
		return profilestore.NewMemory(), true, nil
	case "", "sqlite":
		s, err := profilestore.OpenSQLite(filepath.Join(dataDir, "profiles", "profiles.sqlite"))
		return s, false, err
	default:
		return nil, false, fmt.Errorf("unknown -profiles value %q", kind)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
