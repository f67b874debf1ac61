package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	api "github.com/mind-engage/mindcheck/internal/api/http"
	auth "github.com/mind-engage/mindcheck/internal/auth/middleware"
	"github.com/mind-engage/mindcheck/internal/config"
	"github.com/mind-engage/mindcheck/internal/db"
	"github.com/mind-engage/mindcheck/internal/forward"
	"github.com/mind-engage/mindcheck/internal/quiz"
	"github.com/mind-engage/mindcheck/internal/rbac"
	"github.com/mind-engage/mindcheck/internal/store"
)

type listFlag []string

func (l *listFlag) String() string     { return strings.Join(*l, ",") }
func (l *listFlag) Set(v string) error { *l = append(*l, v); return nil }

func main() {
	var (
		seed     listFlag
		addUsers listFlag
	)
	flag.Var(&seed, "seed", "JSON file with a test (or array of tests) to load; repeatable")
	flag.Var(&addUsers, "adduser", "create user as name:password:role; repeatable")
	flag.Parse()

	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	st := store.NewSQLStore(dbh)

	for _, path := range seed {
		if err := seedTests(ctx, st, path); err != nil {
			log.Fatalf("seed %s: %v", path, err)
		}
	}
	for _, spec := range addUsers {
		if err := addUser(ctx, st, spec); err != nil {
			log.Fatalf("adduser: %v", err)
		}
	}
	cancel()

	// --- Auth (local JWT) ---
	authSvc := auth.NewAuthService(cfg.AuthSecret, cfg.TokenTTL)
	deps := api.Deps{
		Store:       st,
		Auth:        authSvc,
		CORSOrigins: cfg.CORSOrigins,
		Ready:       dbh.PingContext,
	}
	if cfg.EnableLocalAuth {
		deps.Users = st
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(deps),
		ReadHeaderTimeout: 5 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(sigCtx)

	g.Go(func() error {
		log.Printf("listening on %s (mode=%s, db=%s)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
	if cfg.ForwardURL != "" {
		fw := forward.New("webhook", st.Events(), st, forward.NewWebhook(forward.WebhookConfig{
			URL:          cfg.ForwardURL,
			TokenURL:     cfg.ForwardTokenURL,
			ClientID:     cfg.ForwardClientID,
			ClientSecret: cfg.ForwardClientSecret,
			Timeout:      cfg.APITimeout,
		}))
		fw.Interval = cfg.ForwardInterval
		g.Go(func() error { return fw.Run(gctx) })
		log.Printf("forwarding results to %s every %s", cfg.ForwardURL, cfg.ForwardInterval)
	}

	if err := g.Wait(); err != nil {
		log.Printf("server: %v", err)
	}
	_ = dbh.Close()
}

func seedTests(ctx context.Context, st store.Store, path string) error {
	tests, err := quiz.LoadTests(path)
	if err != nil {
		return err
	}
	for _, t := range tests {
		if err := st.PutTest(ctx, t); err != nil {
			return err
		}
		log.Printf("seeded test %s (%d questions)", t.ID, len(t.Questions))
	}
	return nil
}

func addUser(ctx context.Context, st *store.SQLStore, spec string) error {
	parts := strings.SplitN(spec, ":", 3)
	if len(parts) != 3 {
		return errors.New("want name:password:role")
	}
	role := parts[2]
	if _, ok := rbac.RolePermissions[role]; !ok {
		return errors.New("unknown role " + role)
	}
	u, err := st.CreateUser(ctx, parts[0], parts[1], role)
	if errors.Is(err, store.ErrUsernameTaken) {
		log.Printf("user %s exists; skipped", parts[0])
		return nil
	}
	if err != nil {
		return err
	}
	log.Printf("created user %s (%s) id=%s", u.Username, u.Role, u.ID)
	return nil
}
