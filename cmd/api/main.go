package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/clinicore/clinic-api/config"
	"github.com/clinicore/clinic-api/internal/email"
	accountHandler "github.com/clinicore/clinic-api/internal/handler/account"
	appointmentHandler "github.com/clinicore/clinic-api/internal/handler/appointment"
	authHandler "github.com/clinicore/clinic-api/internal/handler/auth"
	budgetHandler "github.com/clinicore/clinic-api/internal/handler/budget"
	clientHandler "github.com/clinicore/clinic-api/internal/handler/client"
	clinicHandler "github.com/clinicore/clinic-api/internal/handler/clinic"
	expenseHandler "github.com/clinicore/clinic-api/internal/handler/expense"
	financeHandler "github.com/clinicore/clinic-api/internal/handler/finance"
	healthHandler "github.com/clinicore/clinic-api/internal/handler/health"
	invitationHandler "github.com/clinicore/clinic-api/internal/handler/invitation"
	membershipHandler "github.com/clinicore/clinic-api/internal/handler/membership"
	paymentHandler "github.com/clinicore/clinic-api/internal/handler/payment"
	transactionHandler "github.com/clinicore/clinic-api/internal/handler/transaction"
	"github.com/clinicore/clinic-api/internal/middleware"
	"github.com/clinicore/clinic-api/internal/repository/postgres"
	"github.com/clinicore/clinic-api/internal/router"
	accountService "github.com/clinicore/clinic-api/internal/service/account"
	appointmentService "github.com/clinicore/clinic-api/internal/service/appointment"
	authService "github.com/clinicore/clinic-api/internal/service/auth"
	"github.com/clinicore/clinic-api/internal/service/authz"
	budgetService "github.com/clinicore/clinic-api/internal/service/budget"
	clientService "github.com/clinicore/clinic-api/internal/service/client"
	clinicService "github.com/clinicore/clinic-api/internal/service/clinic"
	expenseService "github.com/clinicore/clinic-api/internal/service/expense"
	financeService "github.com/clinicore/clinic-api/internal/service/finance"
	invitationService "github.com/clinicore/clinic-api/internal/service/invitation"
	membershipService "github.com/clinicore/clinic-api/internal/service/membership"
	paymentService "github.com/clinicore/clinic-api/internal/service/payment"
	transactionService "github.com/clinicore/clinic-api/internal/service/transaction"
	"github.com/clinicore/clinic-api/pkg/metrics"
	"github.com/clinicore/clinic-api/pkg/security"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	baseLogger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	clinicRepo := postgres.NewClinicRepository(db)
	membershipRepo := postgres.NewMembershipRepository(db)
	permissionRepo := postgres.NewPermissionRepository(db)
	invitationRepo := postgres.NewInvitationRepository(db)
	clientRepo := postgres.NewClientRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)
	expenseRepo := postgres.NewExpenseRepository(db)
	accountRepo := postgres.NewAccountRepository(db)
	transactionRepo := postgres.NewTransactionRepository(db)
	paymentRepo := postgres.NewPaymentRepository(db)
	commissionRepo := postgres.NewCommissionRepository(db)
	budgetRepo := postgres.NewBudgetRepository(db)
	goalRepo := postgres.NewFinancialGoalRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)
	txManager := postgres.NewTxManager(db)

	appMetrics := metrics.NewMetrics("clinic", "api")
	hasher := security.NewBcryptHasher(0)
	mailSender := email.NewSMTPSender(cfg.SMTP, baseLogger.With().Str("component", "email").Logger())

	svcLogger := func(name string) zerolog.Logger {
		return baseLogger.With().Str("component", name).Logger()
	}

	// Services
	authzSvc := authz.NewService(membershipRepo, permissionRepo, svcLogger("authz"))
	authSvc := authService.NewService(userRepo, hasher, cfg.JWT, svcLogger("auth"))
	clinicSvc := clinicService.NewService(clinicRepo, membershipRepo, txManager, svcLogger("clinic"))
	membershipSvc := membershipService.NewService(membershipRepo, permissionRepo, txManager, authzSvc, svcLogger("membership"))
	invitationSvc := invitationService.NewService(invitationRepo, membershipRepo, permissionRepo, clinicRepo, outboxRepo, txManager, mailSender, svcLogger("invitation"))
	clientSvc := clientService.NewService(clientRepo, svcLogger("client"))
	appointmentSvc := appointmentService.NewService(appointmentRepo, membershipRepo, svcLogger("appointment"))
	expenseSvc := expenseService.NewService(expenseRepo, accountRepo, transactionRepo, outboxRepo, txManager, appMetrics, svcLogger("expense"))
	accountSvc := accountService.NewService(accountRepo, txManager, svcLogger("account"))
	paymentSvc := paymentService.NewService(paymentRepo, commissionRepo, appointmentRepo, membershipRepo, accountRepo, transactionRepo, outboxRepo, txManager, appMetrics, svcLogger("payment"))
	financeSvc := financeService.NewService(transactionRepo, expenseRepo, appMetrics, svcLogger("finance"))
	budgetSvc := budgetService.NewService(budgetRepo, goalRepo, svcLogger("budget"))
	transactionSvc := transactionService.NewService(transactionRepo, accountRepo, txManager, svcLogger("transaction"))

	handlers := router.Handlers{
		Health:      healthHandler.NewHandler(db),
		Auth:        authHandler.NewHandler(authSvc),
		Clinic:      clinicHandler.NewHandler(clinicSvc),
		Membership:  membershipHandler.NewHandler(membershipSvc, authzSvc),
		Invitation:  invitationHandler.NewHandler(invitationSvc),
		Expense:     expenseHandler.NewHandler(expenseSvc),
		Payment:     paymentHandler.NewHandler(paymentSvc),
		Finance:     financeHandler.NewHandler(financeSvc),
		Account:     accountHandler.NewHandler(accountSvc),
		Budget:      budgetHandler.NewHandler(budgetSvc),
		Client:      clientHandler.NewHandler(clientSvc),
		Appointment: appointmentHandler.NewHandler(appointmentSvc),
		Transaction: transactionHandler.NewHandler(transactionSvc),
	}

	r := router.NewRouter(authSvc, userRepo, authzSvc, handlers, router.Config{
		RateLimit:     cfg.RateLimit,
		CORS:          middleware.DefaultCORSConfig(),
		Timeout:       30 * time.Second,
		MetricsPrefix: "clinic_api",
	})
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
