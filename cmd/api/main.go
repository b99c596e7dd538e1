package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goversion "github.com/caarlos0/go-version"
	"github.com/redis/go-redis/v9"
	"github.com/workpay-hr/payroll-backend-go/internal/config"
	appHTTP "github.com/workpay-hr/payroll-backend-go/internal/handler/http"
	"github.com/workpay-hr/payroll-backend-go/internal/handler/http/middleware"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/cache"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/cron"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/database"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/email"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/events"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/jwt"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/oauth"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/sse"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/storage"
	"github.com/workpay-hr/payroll-backend-go/internal/repository/postgresql"
	attendanceService "github.com/workpay-hr/payroll-backend-go/internal/service/attendance"
	serviceAuth "github.com/workpay-hr/payroll-backend-go/internal/service/auth"
	serviceCompany "github.com/workpay-hr/payroll-backend-go/internal/service/company"
	contractorService "github.com/workpay-hr/payroll-backend-go/internal/service/contractor"
	dashboardService "github.com/workpay-hr/payroll-backend-go/internal/service/dashboard"
	employeeService "github.com/workpay-hr/payroll-backend-go/internal/service/employee"
	"github.com/workpay-hr/payroll-backend-go/internal/service/file"
	invoiceService "github.com/workpay-hr/payroll-backend-go/internal/service/invoice"
	leaveService "github.com/workpay-hr/payroll-backend-go/internal/service/leave"
	notificationService "github.com/workpay-hr/payroll-backend-go/internal/service/notification"
	payrollService "github.com/workpay-hr/payroll-backend-go/internal/service/payroll"
	userService "github.com/workpay-hr/payroll-backend-go/internal/service/user"
)

// Set by -ldflags at build time.
var (
	version   = ""
	commit    = ""
	treeState = ""
	date      = ""
	builtBy   = ""
)

const (
	redisConnectRetries = 5
	absentJobInterval   = time.Hour
)

func main() {
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	info := buildVersion()
	if *showVersion {
		fmt.Println(info.String())
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error loading config:", err)
		os.Exit(1)
	}

	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.App.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})).With(
		slog.String("app", cfg.App.Name),
		slog.String("version", info.GitVersion),
	))

	if err := run(cfg, info, logLevel); err != nil {
		slog.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}

func buildVersion() goversion.Info {
	return goversion.GetVersionInfo(
		goversion.WithAppDetails("payroll-backend", "Multi-tenant payroll and HR API", "https://github.com/workpay-hr/payroll-backend-go"),
		func(i *goversion.Info) {
			if commit != "" {
				i.GitCommit = commit
			}
			if version != "" {
				i.GitVersion = version
			}
			if treeState != "" {
				i.GitTreeState = treeState
			}
			if date != "" {
				i.BuildDate = date
			}
			if builtBy != "" {
				i.BuiltBy = builtBy
			}
		},
	)
}

func run(cfg *config.Config, info goversion.Info, logLevel slog.Level) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDBWithOptions(cfg.DatabaseURL(), database.PoolOptions{
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: time.Hour,
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()
	slog.Info("Connected to PostgreSQL", "host", cfg.Database.Host, "database", cfg.Database.Name)

	// Redis backs idempotency keys only; without it the header is ignored.
	var rdb redis.Cmdable
	if cfg.Redis.Enabled() {
		client, err := cache.NewRedisClient(ctx, cfg.Redis, redisConnectRetries)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer client.Close()
		rdb = client
	} else {
		slog.Warn("REDIS_ADDR not set, idempotency keys are disabled")
	}

	publisher := events.NewNoopPublisher()
	if cfg.Kafka.Enabled() {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		slog.Info("Publishing domain events to Kafka", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			slog.Error("Failed to close event publisher", "error", err)
		}
	}()

	fileStorage, err := storage.NewLocalStorage(cfg.Storage.BasePath, cfg.Storage.BaseURL)
	if err != nil {
		return fmt.Errorf("init local storage: %w", err)
	}
	fileSvc := file.NewFileService(fileStorage)

	var mailer email.EmailService
	if cfg.SMTP.Host != "" {
		mailer, err = email.NewEmailService(cfg.SMTP)
		if err != nil {
			return fmt.Errorf("init email service: %w", err)
		}
	}

	var google oauth.GoogleService
	if cfg.OAuth2Google.Enabled() {
		google = oauth.NewGoogleService(cfg.OAuth2Google, cfg.JWT.Secret)
	}

	// Repositories
	tx := postgresql.NewTransactor(db)
	userRepo := postgresql.NewUserRepository(db)
	companyRepo := postgresql.NewCompanyRepository(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	contractorRepo := postgresql.NewContractorRepository(db)
	refreshTokenRepo := postgresql.NewRefreshTokenRepository(db)
	attendanceRepo := postgresql.NewAttendanceRepository(db)
	payrollRepo := postgresql.NewPayrollRepository(db)
	leaveRequestRepo := postgresql.NewLeaveRequestRepository(db)
	leaveQuotaRepo := postgresql.NewLeaveQuotaRepository(db)
	invoiceRepo := postgresql.NewInvoiceRepository(db)
	notificationRepo := postgresql.NewNotificationRepository(db)
	dashboardRepo := postgresql.NewDashboardRepository(db)

	// Services
	jwtSvc := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration, cfg.JWT.RefreshExpiration, cfg.App.IsProduction())
	hub := sse.NewHub()
	notificationSvc := notificationService.NewNotificationService(notificationRepo, userRepo, mailer, hub, notificationService.Config{})
	defer notificationSvc.Stop()

	authSvc := serviceAuth.NewAuthService(serviceAuth.Deps{
		Transactor:    tx,
		Users:         userRepo,
		Companies:     companyRepo,
		Employees:     employeeRepo,
		Contractors:   contractorRepo,
		RefreshTokens: refreshTokenRepo,
		JWT:           jwtSvc,
		Google:        google,
		Notifications: notificationSvc,
		Publisher:     publisher,
	})
	userSvc := userService.NewUserService(userRepo, fileSvc, 0)
	companySvc := serviceCompany.NewCompanyService(companyRepo)
	employeeSvc := employeeService.NewEmployeeService(employeeRepo)
	contractorSvc := contractorService.NewContractorService(contractorRepo)
	attendanceSvc := attendanceService.NewAttendanceService(attendanceRepo, employeeRepo, companyRepo, notificationSvc, publisher)
	payrollSvc := payrollService.NewPayrollService(payrollService.Deps{
		Transactor:    tx,
		Payroll:       payrollRepo,
		Employees:     employeeRepo,
		Attendance:    attendanceRepo,
		Companies:     companyRepo,
		Notifications: notificationSvc,
		Publisher:     publisher,
	})
	leaveSvc := leaveService.NewLeaveService(leaveService.Deps{
		Transactor:    tx,
		Requests:      leaveRequestRepo,
		Quotas:        leaveQuotaRepo,
		Employees:     employeeRepo,
		Companies:     companyRepo,
		Notifications: notificationSvc,
		Publisher:     publisher,
	})
	invoiceSvc := invoiceService.NewInvoiceService(invoiceService.Deps{
		Transactor:    tx,
		Invoices:      invoiceRepo,
		Contractors:   contractorRepo,
		Companies:     companyRepo,
		Notifications: notificationSvc,
		Publisher:     publisher,
	})
	dashboardSvc := dashboardService.NewDashboardService(dashboardService.Deps{
		Dashboard:         dashboardRepo,
		Companies:         companyRepo,
		Contractors:       contractorRepo,
		Attendance:        attendanceRepo,
		LeaveRequests:     leaveRequestRepo,
		Invoices:          invoiceRepo,
		AttendanceService: attendanceSvc,
		LeaveService:      leaveSvc,
		PayrollService:    payrollSvc,
		InvoiceService:    invoiceSvc,
	})

	if err := authSvc.EnsureAdmin(ctx, cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	scheduler := cron.NewScheduler()
	cron.NewAttendanceJobs(attendanceSvc, absentJobInterval).RegisterJobs(scheduler)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	router := appHTTP.NewRouter(appHTTP.RouterConfig{
		AppName:        cfg.App.Name,
		Version:        info.GitVersion,
		Env:            cfg.App.Env,
		LogLevel:       logLevel,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		UploadsDir:     cfg.Storage.BasePath,

		JWTService:   jwtSvc,
		Idempotency:  middleware.NewIdempotency(rdb),
		LoginLimiter: middleware.NewRateLimiter(cfg.RateLimit.LoginPerMinute, cfg.RateLimit.LoginBurst),

		Auth:         appHTTP.NewAuthHandler(jwtSvc, authSvc, cfg.App.FrontendURL, cfg.App.IsProduction()),
		User:         appHTTP.NewUserHandler(userSvc),
		Company:      appHTTP.NewCompanyHandler(companySvc),
		Employee:     appHTTP.NewEmployeeHandler(employeeSvc),
		Contractor:   appHTTP.NewContractorHandler(contractorSvc),
		Attendance:   appHTTP.NewAttendanceHandler(attendanceSvc),
		Payroll:      appHTTP.NewPayrollHandler(payrollSvc),
		Leave:        appHTTP.NewLeaveHandler(leaveSvc),
		Invoice:      appHTTP.NewInvoiceHandler(invoiceSvc),
		Notification: appHTTP.NewNotificationHandler(notificationSvc, jwtSvc),
		Dashboard:    appHTTP.NewDashboardHandler(dashboardSvc),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	// Open notification streams would otherwise hold Shutdown until its timeout.
	server.RegisterOnShutdown(hub.Close)

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Server running", "addr", server.Addr, "env", cfg.App.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down server", "timeout", cfg.App.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
