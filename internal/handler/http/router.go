package http

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/user"
	"github.com/workpay-hr/payroll-backend-go/internal/handler/http/middleware"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/jwt"
)

// RouterConfig carries everything the router mounts.
type RouterConfig struct {
	AppName        string
	Version        string
	Env            string
	LogLevel       slog.Level
	AllowedOrigins []string
	UploadsDir     string

	JWTService   jwt.Service
	Idempotency  *middleware.Idempotency
	LoginLimiter *middleware.RateLimiter

	Auth         AuthHandler
	User         UserHandler
	Company      CompanyHandler
	Employee     EmployeeHandler
	Contractor   ContractorHandler
	Attendance   AttendanceHandler
	Payroll      PayrollHandler
	Leave        LeaveHandler
	Invoice      InvoiceHandler
	Notification NotificationHandler
	Dashboard    DashboardHandler
}

func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", cfg.AppName),
		slog.String("version", cfg.Version),
		slog.String("env", cfg.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.IdempotencyHeader},
		ExposedHeaders:   []string{"Content-Disposition", "Retry-After"},
		MaxAge:           300,
	}))

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  cfg.LogLevel,
		Schema: httplog.SchemaECS,
	}))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))

	if cfg.UploadsDir != "" {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadsDir))))
	}

	authenticated := func(r chi.Router) {
		r.Use(jwtauth.Verifier(cfg.JWTService.JWTAuth()))
		r.Use(middleware.AuthRequired(cfg.JWTService))
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register/{role}", cfg.Auth.Register)
			r.With(cfg.LoginLimiter.Handler).Post("/login", cfg.Auth.Login)
			r.Post("/refresh", cfg.Auth.RefreshToken)
			r.Get("/google", cfg.Auth.LoginWithGoogle)
			r.Get("/google/callback", cfg.Auth.OAuthCallbackGoogle)

			r.Group(func(r chi.Router) {
				authenticated(r)
				r.Post("/logout", cfg.Auth.Logout)
				r.Get("/me", cfg.Auth.Me)
			})
		})

		// SSE authenticates with a short-lived query token.
		r.Get("/notifications/stream", cfg.Notification.Stream)

		r.Group(func(r chi.Router) {
			authenticated(r)

			r.Method(http.MethodGet, "/dashboard", cfg.Dashboard.GetDashboard())

			r.Route("/users", func(r chi.Router) {
				r.Put("/me", cfg.User.UpdateMe)
				r.Put("/me/password", cfg.User.ChangePassword)
				r.Post("/me/avatar", cfg.User.UploadAvatar)

				r.Group(func(r chi.Router) {
					r.Use(middleware.AdminOnly)
					r.Get("/all", cfg.User.List)
					r.Get("/{id}", cfg.User.Get)
					r.Delete("/{id}", cfg.User.Delete)
				})
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", cfg.Notification.List)
				r.Get("/unread-count", cfg.Notification.UnreadCount)
				r.Put("/read", cfg.Notification.MarkAsRead)
				r.Put("/read-all", cfg.Notification.MarkAllAsRead)
				r.Delete("/{id}", cfg.Notification.Delete)
				r.Get("/preferences", cfg.Notification.GetPreferences)
				r.Put("/preferences", cfg.Notification.UpdatePreference)
				r.Post("/sse-token", cfg.Notification.GetSSEToken)
			})

			r.Route("/client", func(r chi.Router) {
				r.Use(middleware.RequireRoles(user.RoleClient))
				r.Use(middleware.RequireCompany)
				clientRoutes(r, cfg)
			})

			r.Route("/employee", func(r chi.Router) {
				r.Use(middleware.RequireRoles(user.RoleEmployee))
				r.Use(middleware.RequireCompany)
				employeeRoutes(r, cfg)
			})

			r.Route("/contractor", func(r chi.Router) {
				r.Use(middleware.RequireRoles(user.RoleContractor))
				r.Use(middleware.RequireCompany)
				contractorRoutes(r, cfg)
			})
		})
	})
	return r
}

func clientRoutes(r chi.Router, cfg RouterConfig) {
	r.Route("/company", func(r chi.Router) {
		r.Get("/", cfg.Company.Get)
		r.With(middleware.RequirePermission(user.PermissionCompanyManage)).Put("/", cfg.Company.Update)
		r.With(middleware.RequirePermission(user.PermissionCompanyManage)).Post("/join-code", cfg.Company.RegenerateJoinCode)
	})

	r.Route("/employees", func(r chi.Router) {
		r.Get("/", cfg.Employee.List)
		r.Get("/{id}", cfg.Employee.Get)
		r.Put("/{id}", cfg.Employee.Update)
		r.Get("/{id}/components", cfg.Payroll.GetEmployeeComponents)
		r.Post("/{id}/components", cfg.Payroll.AssignComponent)
	})

	r.Route("/contractors", func(r chi.Router) {
		r.Get("/", cfg.Contractor.List)
		r.Get("/{id}", cfg.Contractor.Get)
		r.Put("/{id}", cfg.Contractor.Update)
	})

	r.Route("/attendance", func(r chi.Router) {
		r.Get("/", cfg.Attendance.List)
		r.Put("/{id}", cfg.Attendance.Correct)
	})

	r.Route("/payroll", func(r chi.Router) {
		r.Get("/", cfg.Payroll.ListPayrollRecords)
		r.With(cfg.Idempotency.Handler).Post("/generate", cfg.Payroll.GeneratePayroll)
		r.Get("/summary", cfg.Payroll.GetPayrollSummary)
		r.Get("/export", cfg.Payroll.ExportPayroll)

		r.Get("/settings", cfg.Payroll.GetSettings)
		r.Put("/settings", cfg.Payroll.UpdateSettings)

		r.Route("/components", func(r chi.Router) {
			r.Get("/", cfg.Payroll.ListComponents)
			r.Post("/", cfg.Payroll.CreateComponent)
			r.Put("/{id}", cfg.Payroll.UpdateComponent)
			r.Delete("/{id}", cfg.Payroll.DeleteComponent)
		})
		r.Delete("/employee-components/{id}", cfg.Payroll.RemoveEmployeeComponent)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", cfg.Payroll.GetPayrollRecord)
			r.Delete("/", cfg.Payroll.DeletePayrollRecord)
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePermission(user.PermissionPayrollApprove))
				r.Put("/approve", cfg.Payroll.ApprovePayroll)
				r.Put("/reject", cfg.Payroll.RejectPayroll)
				r.With(cfg.Idempotency.Handler).Put("/mark-paid", cfg.Payroll.MarkPaid)
			})
		})
	})

	r.Route("/leave", func(r chi.Router) {
		r.Get("/", cfg.Leave.ListRequests)
		r.Put("/{id}/approve", cfg.Leave.ApproveRequest)
		r.Put("/{id}/reject", cfg.Leave.RejectRequest)
	})

	r.Route("/invoices", func(r chi.Router) {
		r.Get("/", cfg.Invoice.List)
		r.Put("/{id}/approve", cfg.Invoice.Approve)
		r.Put("/{id}/reject", cfg.Invoice.Reject)
		r.With(cfg.Idempotency.Handler).Put("/{id}/mark-paid", cfg.Invoice.MarkPaid)
	})
}

func employeeRoutes(r chi.Router, cfg RouterConfig) {
	r.Get("/profile", cfg.Employee.GetMyProfile)

	r.Route("/attendance", func(r chi.Router) {
		r.Get("/", cfg.Attendance.GetMyAttendance)
		r.Get("/today", cfg.Attendance.Today)
		r.With(cfg.Idempotency.Handler).Post("/check-in", cfg.Attendance.CheckIn)
		r.With(cfg.Idempotency.Handler).Post("/check-out", cfg.Attendance.CheckOut)
	})

	r.Route("/leave", func(r chi.Router) {
		r.Get("/", cfg.Leave.ListMyRequests)
		r.Post("/", cfg.Leave.CreateRequest)
		r.Get("/balance", cfg.Leave.GetMyBalance)
		r.Put("/{id}/cancel", cfg.Leave.CancelRequest)
	})

	r.Route("/payslips", func(r chi.Router) {
		r.Get("/", cfg.Payroll.ListMyPayslips)
		r.Get("/{id}", cfg.Payroll.GetMyPayslip)
		r.Get("/{id}/download", cfg.Payroll.DownloadMyPayslip)
	})
}

func contractorRoutes(r chi.Router, cfg RouterConfig) {
	r.Get("/profile", cfg.Contractor.GetMyProfile)
	r.Get("/dashboard", cfg.Invoice.Dashboard)

	r.Route("/invoices", func(r chi.Router) {
		r.Get("/", cfg.Invoice.ListMine)
		r.With(cfg.Idempotency.Handler).Post("/", cfg.Invoice.Create)
		r.Get("/{id}", cfg.Invoice.GetMine)
		r.Put("/{id}", cfg.Invoice.Update)
		r.Put("/{id}/submit", cfg.Invoice.Submit)
	})
}
