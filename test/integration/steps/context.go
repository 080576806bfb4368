//go:build integration

// Package steps provides step definitions for BDD integration tests.
package steps

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/cucumber/godog"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/finance-tracker/ledger-api/config"
	"github.com/finance-tracker/ledger-api/internal/infra/cache"
	"github.com/finance-tracker/ledger-api/internal/infra/dependency"
	"github.com/finance-tracker/ledger-api/internal/integration/adapters"
	"github.com/finance-tracker/ledger-api/internal/integration/persistence/model"
	"github.com/finance-tracker/ledger-api/test/integration/mock"
)

const testJWTSecret = "test-jwt-secret-key-for-testing-purposes"

// environment is the server and its backing services, shared by every scenario.
type environment struct {
	server      *httptest.Server
	injector    *dependency.Injector
	db          *mock.Db
	redisServer *miniredis.Miniredis
	redis       *redis.Client
	resend      *mock.ApiMock
}

var (
	envOnce sync.Once
	env     *environment
)

func startEnvironment() *environment {
	envOnce.Do(func() {
		gin.SetMode(gin.TestMode)

		resend := mock.NewApiServer()
		resend.Start()

		settings := map[string]string{
			"ENV":                         "test",
			"JWT_SECRET":                  testJWTSecret,
			"BCRYPT_COST":                 "4",
			"GATE_CAPACITY":               "5",
			"GATE_INTERVAL":               "1h",
			"RESEND_API_KEY":              "re_test_key",
			"RESEND_BASE_URL":             resend.GetUrl(),
			"EMAIL_WORKER_ENABLED":        "true",
			"RECURRING_WORKER_ENABLED":    "true",
			"RECURRING_WORKER_BATCH_SIZE": "50",
			"GEMINI_API_KEY":              "",
		}
		for key, value := range settings {
			_ = os.Setenv(key, value)
		}
		cfg := config.Load()

		database := mock.NewDb(
			[]string{"users", "refresh_tokens", "accounts", "transactions", "notification_outbox"},
			map[string]any{
				"users":               &model.UserModel{},
				"refresh_tokens":      &model.RefreshTokenModel{},
				"accounts":            &model.AccountModel{},
				"transactions":        &model.TransactionModel{},
				"notification_outbox": &model.NotificationModel{},
			},
		)
		redisServer, redisClient := mock.NewRedis()

		injector, err := dependency.NewInjector(
			cfg,
			database.DbConn,
			redisClient,
			func() bool { return database.DbConn != nil },
			cache.HealthCheck(redisClient),
		)
		if err != nil {
			panic(fmt.Sprintf("failed to wire dependencies: %v", err))
		}

		env = &environment{
			server:      httptest.NewServer(injector.Router.Setup(cfg.Server.Environment)),
			injector:    injector,
			db:          database,
			redisServer: redisServer,
			redis:       redisClient,
			resend:      resend,
		}
	})
	return env
}

// InitializeTestSuite sets up resources before any scenarios run.
func InitializeTestSuite(ctx *godog.TestSuiteContext) {
	ctx.BeforeSuite(func() {
		startEnvironment()
	})

	ctx.AfterSuite(func() {
		if env == nil {
			return
		}
		env.server.Close()
		env.resend.Close()
		env.injector.Close()
		_ = env.redis.Close()
		env.redisServer.Close()
	})
}

type response struct {
	status  int
	headers http.Header
	body    any
}

// testContext holds the state of one scenario.
type testContext struct {
	env      *environment
	client   *http.Client
	headers  map[string]string
	response *response

	accessToken   string
	refreshToken  string
	currentUserID uuid.UUID

	accounts          map[string]uuid.UUID
	transactionIDs    []uuid.UUID
	lastTransactionID uuid.UUID

	invalidations *invalidationLog
}

// invalidationLog collects messages published on the cache invalidation channel.
type invalidationLog struct {
	mu       sync.Mutex
	messages []adapters.InvalidationMessage
	pubsub   *redis.PubSub
}

func (l *invalidationLog) listen(ctx context.Context, client *redis.Client) error {
	l.pubsub = client.Subscribe(ctx, adapters.InvalidationChannel)
	if _, err := l.pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to invalidations: %w", err)
	}

	go func() {
		for msg := range l.pubsub.Channel() {
			var message adapters.InvalidationMessage
			if err := json.Unmarshal([]byte(msg.Payload), &message); err != nil {
				continue
			}
			l.mu.Lock()
			l.messages = append(l.messages, message)
			l.mu.Unlock()
		}
	}()
	return nil
}

// waitFor polls until a message with path has been published.
func (l *invalidationLog) waitFor(path string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		l.mu.Lock()
		for _, message := range l.messages {
			if message.Path == path {
				l.mu.Unlock()
				return true
			}
		}
		l.mu.Unlock()
		time.Sleep(20 * time.Millisecond)
	}
	return false
}

func (l *invalidationLog) close() {
	if l.pubsub != nil {
		_ = l.pubsub.Close()
	}
}

func (t *testContext) before(ctx context.Context) error {
	t.env = startEnvironment()
	t.client = &http.Client{Timeout: 10 * time.Second}
	t.headers = make(map[string]string)
	t.response = nil
	t.accessToken = ""
	t.refreshToken = ""
	t.currentUserID = uuid.Nil
	t.accounts = map[string]uuid.UUID{}
	t.transactionIDs = nil
	t.lastTransactionID = uuid.Nil

	if err := t.env.db.ClearDB(); err != nil {
		return err
	}
	if err := mock.ClearRedis(t.env.redis); err != nil {
		return err
	}
	t.env.resend.Reset()
	t.env.resend.SetResponse(http.MethodPost, "/emails", http.StatusOK, map[string]any{"id": "email_test"})

	t.invalidations = &invalidationLog{}
	return t.invalidations.listen(ctx, t.env.redis)
}

func (t *testContext) after() {
	if t.invalidations != nil {
		t.invalidations.close()
	}
}
