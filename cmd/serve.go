package cmd

import (
	"context"
	"database/sql"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	authclient "github.com/vibast-solutions/lib-go-auth/client"
	authmiddleware "github.com/vibast-solutions/lib-go-auth/middleware"
	authlibservice "github.com/vibast-solutions/lib-go-auth/service"
	"github.com/vibast-solutions/ms-go-donations/app/auth"
	"github.com/vibast-solutions/ms-go-donations/app/controller"
	donationgrpc "github.com/vibast-solutions/ms-go-donations/app/grpc"
	"github.com/vibast-solutions/ms-go-donations/app/provider"
	"github.com/vibast-solutions/ms-go-donations/app/ratelimit"
	"github.com/vibast-solutions/ms-go-donations/app/repository"
	"github.com/vibast-solutions/ms-go-donations/app/service"
	"github.com/vibast-solutions/ms-go-donations/app/storage"
	"github.com/vibast-solutions/ms-go-donations/config"

	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and gRPC servers",
	Long:  "Start both HTTP (Echo) and gRPC servers for the donations service.",
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

type services struct {
	donations *service.DonationService
	emails    *service.EmailService
	catalog   *service.CatalogService
	users     *service.UserService
	finance   *service.FinanceService
	tokens    *auth.TokenManager
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, svc, cleanup := mustCreateServices()
	defer cleanup()

	donationController := controller.NewDonationController(svc.donations, svc.emails, nil)
	if strings.TrimSpace(cfg.Redis.Addr) != "" {
		redisClient := mustCreateRedisClient(cfg)
		defer redisClient.Close()

		limiter := ratelimit.NewLimiter(
			ratelimit.NewRedisStore(redisClient),
			"create-pix-payment",
			cfg.RateLimit.CreatePerMinute,
			cfg.RateLimit.CreatePer10Sec,
		)
		donationController = controller.NewDonationController(svc.donations, svc.emails, limiter)
	} else {
		logrus.Warn("REDIS_ADDR is empty, rate limiting is disabled")
	}

	authController := controller.NewAuthController(svc.users)
	adminController := controller.NewAdminController(svc.catalog, svc.users, svc.finance)
	adminMiddleware := controller.NewAdminMiddleware(svc.tokens)
	grpcDonationServer := donationgrpc.NewServer(svc.donations)

	authGRPCClient, err := authclient.NewGRPCClientFromAddr(context.Background(), cfg.InternalEndpoints.AuthGRPCAddr)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize auth gRPC client")
	}
	defer authGRPCClient.Close()

	internalAuthService := authlibservice.NewInternalAuthService(authGRPCClient)
	echoInternalAuthMiddleware := authmiddleware.NewEchoInternalAuthMiddleware(internalAuthService)
	grpcInternalAuthMiddleware := authmiddleware.NewGRPCInternalAuthMiddleware(internalAuthService)

	e := setupHTTPServer(cfg, &httpHandlers{
		donations: donationController,
		auth:      authController,
		admin:     adminController,
		adminAuth: adminMiddleware,
	}, echoInternalAuthMiddleware)
	grpcSrv, lis := setupGRPCServer(cfg, grpcDonationServer, grpcInternalAuthMiddleware, cfg.App.ServiceName)

	go func() {
		httpAddr := net.JoinHostPort(cfg.HTTP.Host, cfg.HTTP.Port)
		logrus.WithField("addr", httpAddr).Info("Starting HTTP server")
		if err := e.Start(httpAddr); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("HTTP server error")
		}
	}()

	go func() {
		logrus.WithField("addr", lis.Addr().String()).Info("Starting gRPC server")
		if err := grpcSrv.Serve(lis); err != nil {
			logrus.WithError(err).Fatal("gRPC server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("HTTP shutdown error")
	}
	grpcSrv.GracefulStop()

	logrus.Info("Server stopped")
}

type httpHandlers struct {
	donations *controller.DonationController
	auth      *controller.AuthController
	admin     *controller.AdminController
	adminAuth *controller.AdminMiddleware
}

func setupHTTPServer(
	cfg *config.Config,
	h *httpHandlers,
	internalAuthMiddleware *authmiddleware.EchoInternalAuthMiddleware,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogUserAgent: true,
		LogError:     true,
		HandleError:  true,
		LogRequestID: true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"remote_ip":  v.RemoteIP,
				"host":       v.Host,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"latency_ns": v.Latency.Nanoseconds(),
				"user_agent": v.UserAgent,
				"request_id": v.RequestID,
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.App.CORSAllowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderAuthorization,
			echo.HeaderContentType,
			echo.HeaderXRequestID,
			"x-client-info",
			"apikey",
		},
	}))
	e.Use(ensureRequestID())

	e.GET("/health", h.donations.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/vip-packages", h.admin.ListVipPackages)

	functions := e.Group("/functions/v1")
	functions.POST("/create-pix-payment", h.donations.CreatePixPayment)
	functions.POST("/get-mercadopago-order", h.donations.GetOrder)
	functions.POST("/cancel-mercadopago-order", h.donations.CancelOrder, h.adminAuth.RequireAdmin)
	functions.POST("/resend-donation-email", h.donations.ResendEmail, h.adminAuth.RequireAdmin)

	authGroup := e.Group("/auth")
	authGroup.POST("/login", h.auth.Login)
	authGroup.GET("/me", h.auth.Me, h.adminAuth.RequireUser)

	admin := e.Group("/admin", h.adminAuth.RequireAdmin)

	admin.GET("/donations", h.donations.ListDonations)
	admin.GET("/donations/:id", h.donations.GetDonation)
	admin.POST("/donations/refresh", h.donations.RefreshStatuses)
	admin.POST("/donations/backfill", h.donations.Backfill)
	admin.POST("/donations/cancel", h.donations.CancelOrder)
	admin.POST("/donations/resend-email", h.donations.ResendEmail)

	admin.GET("/users", h.admin.ListUsers)
	admin.POST("/users", h.admin.CreateUser)
	admin.PUT("/users/:id", h.admin.UpdateUser)
	admin.DELETE("/users/:id", h.admin.DeleteUser)

	admin.GET("/streamers", h.admin.ListStreamers)
	admin.POST("/streamers", h.admin.CreateStreamer)
	admin.PUT("/streamers/:id", h.admin.UpdateStreamer)
	admin.DELETE("/streamers/:id", h.admin.DeleteStreamer)
	admin.GET("/streamers/:streamerId/coupons", h.admin.ListStreamerCoupons)
	admin.POST("/streamers/:streamerId/coupons", h.admin.CreateStreamerCoupon)
	admin.PUT("/streamer-coupons/:id", h.admin.UpdateStreamerCoupon)
	admin.DELETE("/streamer-coupons/:id", h.admin.DeleteStreamerCoupon)

	admin.GET("/campaigns", h.admin.ListCampaigns)
	admin.POST("/campaigns", h.admin.CreateCampaign)
	admin.PUT("/campaigns/:id", h.admin.UpdateCampaign)
	admin.DELETE("/campaigns/:id", h.admin.DeleteCampaign)

	admin.GET("/discount-coupons", h.admin.ListDiscountCoupons)
	admin.POST("/discount-coupons", h.admin.CreateDiscountCoupon)
	admin.PUT("/discount-coupons/:id", h.admin.UpdateDiscountCoupon)
	admin.DELETE("/discount-coupons/:id", h.admin.DeleteDiscountCoupon)

	admin.GET("/servers", h.admin.ListServers)
	admin.POST("/servers", h.admin.CreateServer)
	admin.PUT("/servers/:id", h.admin.UpdateServer)
	admin.DELETE("/servers/:id", h.admin.DeleteServer)
	admin.GET("/servers/:serverId/mods", h.admin.ListServerMods)
	admin.POST("/servers/:serverId/mods", h.admin.CreateServerMod)
	admin.PUT("/server-mods/:id", h.admin.UpdateServerMod)
	admin.DELETE("/server-mods/:id", h.admin.DeleteServerMod)

	admin.GET("/vip-packages", h.admin.ListVipPackages)
	admin.POST("/vip-packages", h.admin.CreateVipPackage)
	admin.PUT("/vip-packages/:id", h.admin.UpdateVipPackage)
	admin.DELETE("/vip-packages/:id", h.admin.DeleteVipPackage)

	admin.GET("/secrets", h.admin.ListSecrets)
	admin.PUT("/secrets/:key", h.admin.UpsertSecret)
	admin.DELETE("/secrets/:key", h.admin.DeleteSecret)

	admin.GET("/finance/summary", h.admin.MonthlySummary)

	internal := e.Group("/internal", internalAuthMiddleware.RequireInternalAccess(cfg.App.ServiceName))
	internal.GET("/donations", h.donations.ListApprovedDonations)
	internal.GET("/donations/:paymentId", h.donations.GetDonationByPayment)

	return e
}

// ensureRequestID tags every request with an id. Browsers call the public
// endpoints directly, so a missing header gets a generated one.
func ensureRequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			requestID := strings.TrimSpace(ctx.Request().Header.Get(echo.HeaderXRequestID))
			if requestID == "" {
				requestID = uuid.NewString()
				ctx.Request().Header.Set(echo.HeaderXRequestID, requestID)
			}
			ctx.Response().Header().Set(echo.HeaderXRequestID, requestID)
			return next(ctx)
		}
	}
}

func setupGRPCServer(
	cfg *config.Config,
	donationServer *donationgrpc.Server,
	internalAuthMiddleware *authmiddleware.GRPCInternalAuthMiddleware,
	appServiceName string,
) (*grpc.Server, net.Listener) {
	grpcAddr := net.JoinHostPort(cfg.GRPC.Host, cfg.GRPC.Port)
	lis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to listen on gRPC port")
	}

	grpcSrv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			donationgrpc.RecoveryInterceptor(),
			donationgrpc.RequestIDInterceptor(),
			donationgrpc.LoggingInterceptor(),
			internalAuthMiddleware.UnaryRequireInternalAccess(appServiceName),
		),
	)
	donationgrpc.RegisterDonationsServiceServer(grpcSrv, donationServer)

	return grpcSrv, lis
}

func mustCreateRedisClient(cfg *config.Config) *goredis.Client {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		logrus.WithError(err).Fatal("Failed to ping redis")
	}

	return client
}

func mustCreateQRStore(cfg *config.Config) *storage.QRStore {
	client, err := storage.NewClient(storage.Config{
		Endpoint:   cfg.Storage.Endpoint,
		AccessKey:  cfg.Storage.AccessKey,
		SecretKey:  cfg.Storage.SecretKey,
		UseSSL:     cfg.Storage.UseSSL,
		Bucket:     cfg.Storage.Bucket,
		PresignTTL: cfg.Storage.PresignTTL,
	})
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize object storage")
	}

	return storage.NewQRStore(client, cfg.Storage.Bucket, cfg.Storage.PresignTTL)
}

func mustCreateServices() (*config.Config, *services, func()) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}

	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}

	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		logrus.WithError(err).Fatal("Failed to ping database")
	}

	donationRepo := repository.NewDonationRepository(db)
	streamerRepo := repository.NewStreamerRepository(db)
	streamerCouponRepo := repository.NewStreamerCouponRepository(db)
	campaignRepo := repository.NewCampaignRepository(db)
	discountCouponRepo := repository.NewDiscountCouponRepository(db)
	serverRepo := repository.NewServerRepository(db)
	vipPackageRepo := repository.NewVipPackageRepository(db)
	secretRepo := repository.NewSecretRepository(db)
	userRepo := repository.NewUserRepository(db)

	settings := service.NewSettingsProvider(secretRepo)
	gateway := provider.NewMercadoPago(provider.MercadoPagoConfig{
		BaseURL:     cfg.MercadoPago.BaseURL,
		HTTPTimeout: cfg.MercadoPago.HTTPTimeout,
	})
	mailer := provider.NewResend(provider.ResendConfig{
		BaseURL:     cfg.Email.BaseURL,
		HTTPTimeout: cfg.Email.HTTPTimeout,
	})

	var emailService *service.EmailService
	if strings.TrimSpace(cfg.Storage.Endpoint) != "" {
		emailService = service.NewEmailService(settings, mailer, mustCreateQRStore(cfg), cfg.Email)
	} else {
		emailService = service.NewEmailService(settings, mailer, nil, cfg.Email)
	}

	if strings.TrimSpace(cfg.AdminAuth.JWTSecret) == "" {
		logrus.Warn("ADMIN_JWT_SECRET is empty, admin tokens cannot be issued")
	}
	tokens := auth.NewTokenManager(cfg.AdminAuth.JWTSecret, cfg.AdminAuth.TokenTTL)

	svc := &services{
		donations: service.NewDonationService(
			donationRepo,
			streamerCouponRepo,
			discountCouponRepo,
			streamerRepo,
			settings,
			gateway,
			cfg.Donations,
		),
		emails: emailService,
		catalog: service.NewCatalogService(
			streamerRepo,
			streamerCouponRepo,
			campaignRepo,
			discountCouponRepo,
			serverRepo,
			vipPackageRepo,
			secretRepo,
		),
		users:   service.NewUserService(userRepo, tokens),
		finance: service.NewFinanceService(donationRepo, serverRepo, campaignRepo),
		tokens:  tokens,
	}

	cleanup := func() {
		if err := db.Close(); err != nil {
			logrus.WithError(err).Warn("Failed to close database")
		}
	}

	return cfg, svc, cleanup
}
