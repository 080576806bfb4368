// Package dependency provides dependency injection for the application.
package dependency

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/finance-tracker/ledger-api/config"
	"github.com/finance-tracker/ledger-api/internal/application/adapter"
	"github.com/finance-tracker/ledger-api/internal/application/usecase/account"
	"github.com/finance-tracker/ledger-api/internal/application/usecase/auth"
	"github.com/finance-tracker/ledger-api/internal/application/usecase/dashboard"
	"github.com/finance-tracker/ledger-api/internal/application/usecase/receipt"
	"github.com/finance-tracker/ledger-api/internal/application/usecase/transaction"
	"github.com/finance-tracker/ledger-api/internal/infra/server/router"
	"github.com/finance-tracker/ledger-api/internal/integration/adapters"
	"github.com/finance-tracker/ledger-api/internal/integration/email"
	"github.com/finance-tracker/ledger-api/internal/integration/email/templates"
	"github.com/finance-tracker/ledger-api/internal/integration/entrypoint/controller"
	"github.com/finance-tracker/ledger-api/internal/integration/entrypoint/middleware"
	"github.com/finance-tracker/ledger-api/internal/integration/persistence"
	"github.com/finance-tracker/ledger-api/internal/integration/recurring"
)

// Injector holds all application dependencies.
type Injector struct {
	Config           *config.Config
	DB               *gorm.DB
	Redis            *redis.Client
	Router           *router.Router
	LoginRateLimiter *middleware.RateLimiter

	// In-process admission gate; nil when Redis backs the gate.
	MemoryGate *adapters.MemoryAdmissionGate

	// Background workers; nil when disabled.
	RecurringWorker *recurring.Worker
	Dispatcher      *email.Dispatcher

	extractor *adapters.GeminiReceiptService
}

// NewInjector creates a new dependency injector with all dependencies wired.
// redisClient may be nil, in which case the admission gate runs in process
// and views are not cached.
func NewInjector(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, dbHealthChecker, redisHealthChecker func() bool) (*Injector, error) {
	// Repositories
	userRepo := persistence.NewUserRepository(db)
	refreshTokens := persistence.NewRefreshTokenStore(db)
	accountRepo := persistence.NewAccountRepository(db)
	transactionRepo := persistence.NewTransactionRepository(db)
	outbox := persistence.NewNotificationOutboxRepository(db)

	// Services
	hasher := adapters.NewBcryptHasher(cfg.JWT.BcryptCost)
	sessions := adapters.NewJWTSessionIssuer(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry, cfg.JWT.RefreshTokenExpiry, refreshTokens)

	var gate adapter.AdmissionGate
	var cache adapter.ViewCache
	var memoryGate *adapters.MemoryAdmissionGate
	if redisClient != nil {
		gate = adapters.NewRedisAdmissionGate(redisClient, cfg.Gate.Capacity, cfg.Gate.Interval)
		cache = adapters.NewRedisViewCache(redisClient)
	} else {
		memoryGate = adapters.NewMemoryAdmissionGate(cfg.Gate.Capacity, cfg.Gate.Interval)
		gate = memoryGate
		cache = adapters.NoopViewCache{}
	}

	// A nil *GeminiReceiptService must not reach the use case as a non-nil interface.
	var extractor adapter.ReceiptExtractor
	gemini, err := adapters.NewGeminiReceiptService(cfg.Gemini.APIKey, cfg.Gemini.Model)
	if err != nil {
		slog.Warn("Receipt scanning disabled", "reason", err)
	} else {
		extractor = gemini
	}

	var notifier adapter.Notifier
	var dispatcher *email.Dispatcher
	if cfg.Email.WorkerEnabled {
		renderer, err := templates.NewRenderer()
		if err != nil {
			return nil, fmt.Errorf("failed to load email templates: %w", err)
		}

		var sender adapter.EmailSender = email.LogSender{}
		if cfg.Email.ResendAPIKey != "" {
			resendClient, err := email.NewResendClient(cfg.Email.ResendAPIKey, cfg.Email.FromName, cfg.Email.FromEmail, cfg.Email.ResendBaseURL)
			if err != nil {
				return nil, err
			}
			sender = resendClient
		} else {
			slog.Warn("RESEND_API_KEY is not set, notifications will only be logged")
		}

		notifier = email.NewNotifier(outbox)
		dispatcher = email.NewDispatcher(outbox, sender, renderer, email.DispatcherConfig{
			PollInterval: cfg.Email.PollInterval,
			BatchSize:    cfg.Email.BatchSize,
			Retention:    cfg.Email.Retention,
		})
	}

	// Auth use cases
	registerUseCase := auth.NewRegisterUserUseCase(userRepo, accountRepo, hasher, sessions)
	loginUseCase := auth.NewLoginUserUseCase(userRepo, hasher, sessions)
	refreshTokenUseCase := auth.NewRefreshTokenUseCase(sessions)
	logoutUseCase := auth.NewLogoutUserUseCase(sessions)

	// Account use cases
	createAccountUseCase := account.NewCreateAccountUseCase(accountRepo, cache)
	listAccountsUseCase := account.NewListAccountsUseCase(accountRepo)
	getAccountUseCase := account.NewGetAccountUseCase(accountRepo, transactionRepo, cache, cfg.Cache.TTL)

	// Transaction use cases
	listTransactionsUseCase := transaction.NewListTransactionsUseCase(transactionRepo)
	getTransactionUseCase := transaction.NewGetTransactionUseCase(transactionRepo)
	createTransactionUseCase := transaction.NewCreateTransactionUseCase(transactionRepo, accountRepo, userRepo, gate, cache)
	updateTransactionUseCase := transaction.NewUpdateTransactionUseCase(transactionRepo, accountRepo, gate, cache)
	bulkDeleteTransactionsUseCase := transaction.NewBulkDeleteTransactionsUseCase(transactionRepo, gate, cache)
	processRecurringUseCase := transaction.NewProcessRecurringUseCase(transactionRepo, userRepo, notifier, cache)

	getDashboardUseCase := dashboard.NewGetDashboardUseCase(accountRepo, transactionRepo, cache, cfg.Cache.TTL)
	scanReceiptUseCase := receipt.NewScanReceiptUseCase(extractor, gate)

	// Controllers
	healthController := controller.NewHealthController(dbHealthChecker, redisHealthChecker)
	authController := controller.NewAuthController(registerUseCase, loginUseCase, refreshTokenUseCase, logoutUseCase)
	accountController := controller.NewAccountController(createAccountUseCase, listAccountsUseCase, getAccountUseCase)
	transactionController := controller.NewTransactionController(
		listTransactionsUseCase,
		getTransactionUseCase,
		createTransactionUseCase,
		updateTransactionUseCase,
		bulkDeleteTransactionsUseCase,
	)
	dashboardController := controller.NewDashboardController(getDashboardUseCase)
	receiptController := controller.NewReceiptController(scanReceiptUseCase)

	// Middleware. Test environments get a generous login budget so suites do not flake.
	maxAttempts, window := cfg.Login.MaxAttempts, cfg.Login.Window
	if cfg.IsTest() {
		maxAttempts, window = 1000, time.Minute
	}
	loginRateLimiter := middleware.NewRateLimiter(maxAttempts, window, cfg.Login.RateLimitEnabled)
	authMiddleware := middleware.NewAuthMiddleware(sessions)

	r := router.NewRouter(
		healthController,
		authController,
		accountController,
		transactionController,
		dashboardController,
		receiptController,
		loginRateLimiter,
		authMiddleware,
	)

	var worker *recurring.Worker
	if cfg.Recurring.WorkerEnabled {
		worker = recurring.NewWorker(processRecurringUseCase, recurring.WorkerConfig{
			PollInterval: cfg.Recurring.PollInterval,
			BatchSize:    cfg.Recurring.BatchSize,
		})
	}

	return &Injector{
		Config:           cfg,
		DB:               db,
		Redis:            redisClient,
		Router:           r,
		LoginRateLimiter: loginRateLimiter,
		MemoryGate:       memoryGate,
		RecurringWorker:  worker,
		Dispatcher:       dispatcher,
		extractor:        gemini,
	}, nil
}

// Close releases clients owned by the injector.
func (i *Injector) Close() {
	if i.extractor != nil {
		if err := i.extractor.Close(); err != nil {
			slog.Warn("Failed to close Gemini client", "error", err)
		}
	}
}
