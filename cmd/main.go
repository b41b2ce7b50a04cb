package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	changeStatusHandler "github.com/m04kA/SMC-ConsultationService/internal/api/handlers/change_reservation_status"
	confirmPaymentHandler "github.com/m04kA/SMC-ConsultationService/internal/api/handlers/confirm_payment"
	createReservationHandler "github.com/m04kA/SMC-ConsultationService/internal/api/handlers/create_reservation"
	createWindowHandler "github.com/m04kA/SMC-ConsultationService/internal/api/handlers/create_window"
	deleteWindowHandler "github.com/m04kA/SMC-ConsultationService/internal/api/handlers/delete_window"
	getAvailableSlotsHandler "github.com/m04kA/SMC-ConsultationService/internal/api/handlers/get_available_slots"
	getProfessionalReservationsHandler "github.com/m04kA/SMC-ConsultationService/internal/api/handlers/get_professional_reservations"
	getReservationHandler "github.com/m04kA/SMC-ConsultationService/internal/api/handlers/get_reservation"
	getUserReservationsHandler "github.com/m04kA/SMC-ConsultationService/internal/api/handlers/get_user_reservations"
	getWindowHandler "github.com/m04kA/SMC-ConsultationService/internal/api/handlers/get_window"
	initiatePaymentHandler "github.com/m04kA/SMC-ConsultationService/internal/api/handlers/initiate_payment"
	listWindowsHandler "github.com/m04kA/SMC-ConsultationService/internal/api/handlers/list_windows"
	paymentWebhookHandler "github.com/m04kA/SMC-ConsultationService/internal/api/handlers/payment_webhook"
	updateWindowHandler "github.com/m04kA/SMC-ConsultationService/internal/api/handlers/update_window"
	"github.com/m04kA/SMC-ConsultationService/internal/api/middleware"
	"github.com/m04kA/SMC-ConsultationService/internal/config"
	"github.com/m04kA/SMC-ConsultationService/internal/domain"
	"github.com/m04kA/SMC-ConsultationService/internal/infra/cache/processed"
	windowRepo "github.com/m04kA/SMC-ConsultationService/internal/infra/storage/availability"
	reservationRepo "github.com/m04kA/SMC-ConsultationService/internal/infra/storage/reservation"
	"github.com/m04kA/SMC-ConsultationService/internal/integrations/notifier"
	"github.com/m04kA/SMC-ConsultationService/internal/integrations/paypal"
	"github.com/m04kA/SMC-ConsultationService/internal/integrations/stripe"
	availabilityService "github.com/m04kA/SMC-ConsultationService/internal/service/availability"
	reservationsService "github.com/m04kA/SMC-ConsultationService/internal/service/reservations"
	"github.com/m04kA/SMC-ConsultationService/internal/slots"
	confirmPaymentUC "github.com/m04kA/SMC-ConsultationService/internal/usecase/confirm_payment"
	createReservationUC "github.com/m04kA/SMC-ConsultationService/internal/usecase/create_reservation"
	expireReservationsUC "github.com/m04kA/SMC-ConsultationService/internal/usecase/expire_reservations"
	getAvailableSlotsUC "github.com/m04kA/SMC-ConsultationService/internal/usecase/get_available_slots"
	initiatePaymentUC "github.com/m04kA/SMC-ConsultationService/internal/usecase/initiate_payment"
	"github.com/m04kA/SMC-ConsultationService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ConsultationService/pkg/logger"
	"github.com/m04kA/SMC-ConsultationService/pkg/metrics"
	"github.com/m04kA/SMC-ConsultationService/pkg/txmanager"
)

// paymentGateway шлюз, общий для создания и подтверждения платежа
type paymentGateway interface {
	initiatePaymentUC.PaymentGateway
	confirmPaymentUC.PaymentGateway
}

// lifecycleNotifier получатель событий жизненного цикла
type lifecycleNotifier interface {
	Notify(ctx context.Context, event domain.LifecycleEvent) error
}

func main() {
	// Загружаем конфигурацию
	configPath := "config.toml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		configPath = v
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-ConsultationService...")
	log.Info("Configuration loaded from %s", configPath)

	location, err := cfg.Consultation.Location()
	if err != nil {
		log.Fatal("Failed to load timezone %q: %v", cfg.Consultation.Timezone, err)
	}

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	var wrappedDB *dbmetrics.DB
	if cfg.Metrics.Enabled {
		wrappedDB = dbmetrics.WrapWithDefault(db, metricsCollector, cfg.Metrics.ServiceName, stopMetricsCh)
		log.Info("Database metrics collection started")
	} else {
		wrappedDB = dbmetrics.Wrap(db, nil)
	}

	// Инициализируем репозитории и transaction manager
	windowRepository := windowRepo.NewRepository(wrappedDB, location)
	reservationRepository := reservationRepo.NewRepository(wrappedDB)
	txMgr := txmanager.NewTransactionManager(wrappedDB)

	// Дедупликация webhook событий (опционально)
	var tracker confirmPaymentUC.ProcessedTracker
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			log.Warn("Redis unavailable at %s, webhook deduplication relies on idempotent pay: %v", cfg.Redis.Addr, err)
		}
		cancelPing()
		tracker = processed.NewTracker(redisClient, cfg.Redis.TTL())
		log.Info("Webhook deduplication enabled (redis=%s, ttl=%s)", cfg.Redis.Addr, cfg.Redis.TTL())
	}

	// Публикация событий жизненного цикла
	var eventNotifier lifecycleNotifier
	var rabbitNotifier *notifier.RabbitMQNotifier
	if cfg.RabbitMQ.Enabled {
		rabbitNotifier, err = notifier.NewRabbitMQNotifier(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, log)
		if err != nil {
			log.Fatal("Failed to connect to RabbitMQ: %v", err)
		}
		eventNotifier = rabbitNotifier
		log.Info("Lifecycle events published to exchange %s", cfg.RabbitMQ.Exchange)
	} else {
		eventNotifier = notifier.NewLogNotifier(log)
		log.Info("RabbitMQ disabled, lifecycle events are logged")
	}

	// Платёжный шлюз
	httpClient := &http.Client{Timeout: cfg.Payments.Timeout()}
	var gateway paymentGateway
	switch cfg.Payments.Provider {
	case config.ProviderPayPal:
		gateway = paypal.NewClient(paypal.Config{
			BaseURL:      cfg.Payments.PayPal.BaseURL,
			ClientID:     cfg.Payments.PayPal.ClientID,
			ClientSecret: cfg.Payments.PayPal.ClientSecret,
			WebhookID:    cfg.Payments.PayPal.WebhookID,
			ReturnURL:    cfg.Payments.PayPal.ReturnURL,
			CancelURL:    cfg.Payments.PayPal.CancelURL,
		}, httpClient, log)
	default:
		gateway = stripe.NewClient(stripe.Config{
			SecretKey:     cfg.Payments.Stripe.SecretKey,
			WebhookSecret: cfg.Payments.Stripe.WebhookSecret,
		}, httpClient, log)
	}
	log.Info("Payment gateway initialized (provider=%s, timeout=%s)", gateway.Provider(), cfg.Payments.Timeout())

	// Инициализируем сервисы
	reservationsSvc := reservationsService.NewService(reservationRepository, eventNotifier, metricsCollector, log)
	availabilitySvc := availabilityService.NewService(
		windowRepository,
		reservationRepository,
		txMgr,
		eventNotifier,
		metricsCollector,
		availabilityService.Config{
			DurationMinutes: cfg.Consultation.DurationMinutes,
			Location:        location,
		},
		log,
	)

	// Инициализируем use cases
	createReservationUseCase := createReservationUC.NewUseCase(
		windowRepository,
		reservationRepository,
		txMgr,
		eventNotifier,
		metricsCollector,
		cfg.Consultation.DurationMinutes,
		log,
	)

	getAvailableSlotsUseCase := getAvailableSlotsUC.NewUseCase(
		windowRepository,
		reservationRepository,
		slots.NewResolver(log),
		cfg.Consultation.DurationMinutes,
		log,
	)

	initiatePaymentUseCase := initiatePaymentUC.NewUseCase(
		reservationRepository,
		gateway,
		metricsCollector,
		initiatePaymentUC.Config{
			PriceCents: cfg.Consultation.PriceCents,
			Currency:   cfg.Consultation.Currency,
			Timeout:    cfg.Payments.Timeout(),
		},
		log,
	)

	confirmPaymentUseCase := confirmPaymentUC.NewUseCase(
		reservationRepository,
		reservationsSvc,
		[]confirmPaymentUC.PaymentGateway{gateway},
		tracker,
		metricsCollector,
		confirmPaymentUC.Config{Timeout: cfg.Payments.Timeout()},
		log,
	)

	// Автоматическая отмена неоплаченных бронирований
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	if cfg.Expiry.Enabled {
		expireUseCase := expireReservationsUC.NewUseCase(
			reservationRepository,
			reservationsSvc,
			expireReservationsUC.Config{AwaitingPaymentTimeout: cfg.Expiry.AwaitingPaymentTimeout()},
			log,
		)
		go expireUseCase.Run(workerCtx, cfg.Expiry.SweepInterval())
		log.Info("Expiry worker started (timeout=%s, interval=%s)",
			cfg.Expiry.AwaitingPaymentTimeout(), cfg.Expiry.SweepInterval())
	}

	// Инициализируем handlers
	approveReservation, err := changeStatusHandler.NewHandler(reservationsSvc, domain.ActionApprove, log)
	if err != nil {
		log.Fatal("Failed to create approve handler: %v", err)
	}
	refuseReservation, err := changeStatusHandler.NewHandler(reservationsSvc, domain.ActionRefuse, log)
	if err != nil {
		log.Fatal("Failed to create refuse handler: %v", err)
	}
	cancelReservation, err := changeStatusHandler.NewHandler(reservationsSvc, domain.ActionCancel, log)
	if err != nil {
		log.Fatal("Failed to create cancel handler: %v", err)
	}

	createWindow := createWindowHandler.NewHandler(availabilitySvc, log)
	updateWindow := updateWindowHandler.NewHandler(availabilitySvc, log)
	deleteWindow := deleteWindowHandler.NewHandler(availabilitySvc, log)
	getWindow := getWindowHandler.NewHandler(availabilitySvc, log)
	listWindows := listWindowsHandler.NewHandler(availabilitySvc, log)
	getAvailableSlots := getAvailableSlotsHandler.NewHandler(getAvailableSlotsUseCase, log)
	createReservation := createReservationHandler.NewHandler(createReservationUseCase, log)
	getReservation := getReservationHandler.NewHandler(reservationsSvc, log)
	getUserReservations := getUserReservationsHandler.NewHandler(reservationsSvc, log)
	getProfessionalReservations := getProfessionalReservationsHandler.NewHandler(reservationsSvc, log)
	initiatePayment := initiatePaymentHandler.NewHandler(initiatePaymentUseCase, log)
	confirmPayment := confirmPaymentHandler.NewHandler(confirmPaymentUseCase, log)
	stripeWebhook := paymentWebhookHandler.NewHandler(domain.ProviderStripe, confirmPaymentUseCase, log)
	paypalWebhook := paymentWebhookHandler.NewHandler(domain.ProviderPayPal, confirmPaymentUseCase, log)

	// Настраиваем роутер
	r := mux.NewRouter()

	// Добавляем metrics middleware (если метрики включены)
	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (без аутентификации)
	// ============================================================

	// Маршруты регистрируются до protected subrouter: PUT/DELETE /availability/{windowId}
	// должны дойти до него, а не получить 405 от публичного GET
	public := func(h http.HandlerFunc) http.Handler {
		return middleware.OptionalAuth(h)
	}

	// Окна доступности профессионала
	api.Handle("/professionals/{professionalId}/availability", public(listWindows.Handle)).Methods(http.MethodGet)
	api.Handle("/availability/{windowId}", public(getWindow.Handle)).Methods(http.MethodGet)

	// Слоты окна (состояние зависит от X-User-ID, если передан)
	api.Handle("/availability/{windowId}/slots", public(getAvailableSlots.Handle)).Methods(http.MethodGet)

	// Webhooks платёжных шлюзов (подлинность проверяется подписью)
	api.HandleFunc("/webhooks/payments/stripe", stripeWebhook.Handle).Methods(http.MethodPost)
	api.HandleFunc("/webhooks/payments/paypal", paypalWebhook.Handle).Methods(http.MethodPost)

	// ============================================================
	// PROTECTED ROUTES (требуют X-User-ID header)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth)

	// --- Окна доступности (для профессионалов) ---
	protected.HandleFunc("/availability", createWindow.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/availability/{windowId}", updateWindow.Handle).Methods(http.MethodPut)
	protected.HandleFunc("/availability/{windowId}", deleteWindow.Handle).Methods(http.MethodDelete)

	// --- Бронирования ---
	protected.HandleFunc("/reservations", createReservation.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/reservations/{reservationId}", getReservation.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/reservations/{reservationId}/approve", approveReservation.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/reservations/{reservationId}/refuse", refuseReservation.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/reservations/{reservationId}/cancel", cancelReservation.Handle).Methods(http.MethodPatch)

	// --- Оплата ---
	protected.HandleFunc("/reservations/{reservationId}/payment", initiatePayment.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/reservations/{reservationId}/payment/confirm", confirmPayment.Handle).Methods(http.MethodPost)

	// --- История бронирований ---
	protected.HandleFunc("/users/{userId}/reservations", getUserReservations.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/professionals/{professionalId}/reservations", getProfessionalReservations.Handle).Methods(http.MethodGet)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	// Останавливаем фоновые задачи
	stopWorkers()
	close(stopMetricsCh)

	if rabbitNotifier != nil {
		if err := rabbitNotifier.Close(); err != nil {
			log.Error("Failed to close RabbitMQ notifier: %v", err)
		}
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close Redis client: %v", err)
		}
	}

	log.Info("Server stopped gracefully")
}
