// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler
// integration tests. Tests are skipped when PostgreSQL or Valkey are
// unavailable.
package handlers

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	"growthgate/internal/cache"
	"growthgate/internal/database"
	"growthgate/internal/ledger"
	"growthgate/internal/middleware"
	"growthgate/internal/models"
	"growthgate/internal/render"
	"growthgate/internal/store"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test PostgreSQL and runs migrations.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "growthgate")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "growthgate")
	dsn := "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// testValkeyClient returns a Redis client for handler tests on DB 15.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		for _, pattern := range []string{"gate:*", "page:*"} {
			keys, _ := client.Keys(ctx, pattern).Result()
			if len(keys) > 0 {
				client.Del(ctx, keys...)
			}
		}
		client.Close()
	})

	return client
}

// testEnv holds all dependencies for handler integration tests.
type testEnv struct {
	DB        *sql.DB
	Valkey    *redis.Client
	Contents  *store.ContentStore
	Leads     *store.LeadStore
	PageCache *cache.PageCache
	Public    *Public
	API       *API
	Operator  *Operator
}

// newTestEnv creates a complete test environment. CRM forwarding and S3
// storage stay disabled; the gate works without either.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testDB(t)
	vk := testValkeyClient(t)

	renderer, err := render.New()
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	contents := store.NewContentStore(db)
	leads := store.NewLeadStore(db)
	pageCache := cache.NewPageCache(vk, 1*time.Minute)
	ledgerFor := func(device string) ledger.Ledger {
		return ledger.NewValkey(vk, device)
	}

	public := NewPublic(contents, leads, renderer, pageCache, nil, nil, ledgerFor, "Growth4U")
	api := NewAPI(contents, leads, nil, nil, ledgerFor)
	operator := NewOperator(leads, contents, pageCache, nil)

	env := &testEnv{
		DB:        db,
		Valkey:    vk,
		Contents:  contents,
		Leads:     leads,
		PageCache: pageCache,
		Public:    public,
		API:       api,
		Operator:  operator,
	}

	t.Cleanup(func() {
		db.Exec("DELETE FROM leads")
		db.Exec("DELETE FROM content")
	})

	return env
}

// seedContent inserts a published content item for tests.
func seedContent(t *testing.T, env *testEnv, kind models.ContentKind, slug, body string) *models.Content {
	t.Helper()

	c, err := env.Contents.Create(context.Background(), &models.Content{
		Kind:      kind,
		Title:     "Test " + slug,
		Slug:      slug,
		Excerpt:   "Resumen público de " + slug + ".",
		Body:      body,
		Published: true,
	})
	if err != nil {
		t.Fatalf("seed content: %v", err)
	}
	return c
}

// testDevice returns a fresh random device identifier in cookie format.
func testDevice(t *testing.T) string {
	t.Helper()
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// doAs runs a request through the device middleware as the given device.
func doAs(h http.HandlerFunc, r *http.Request, device string) *httptest.ResponseRecorder {
	r.AddCookie(&http.Cookie{Name: middleware.DeviceCookieName, Value: device})
	rec := httptest.NewRecorder()
	middleware.DeviceID(false)(h).ServeHTTP(rec, r)
	return rec
}

// withChiURLParams adds chi URL parameters to a request.
func withChiURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
