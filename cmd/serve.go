package cmd

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vibast-solutions/ms-go-checkout/app/controller"
	"github.com/vibast-solutions/ms-go-checkout/app/dispatch"
	"github.com/vibast-solutions/ms-go-checkout/app/provider"
	"github.com/vibast-solutions/ms-go-checkout/app/service"
	"github.com/vibast-solutions/ms-go-checkout/config"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  "Start the HTTP (Echo) server for checkout, webhook, and tracking endpoints.",
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// defaultRedirectRules maps upsell-funnel prices to their dedicated
// post-payment pages. Prices without a rule fall through to the
// configured default success URL.
var defaultRedirectRules = []service.RedirectRule{
	{
		PriceIDs: []string{
			"price_1RuLSnEHsMKn9uopKXdIKW4T",
			"price_1RxdG9EHsMKn9uopZQAj9Tjs",
			"price_1RuLumEHsMKn9uopQYJvI5La",
		},
		URL: "https://learnmoredigitalcourse.com/teste-pink-down1-stripe",
	},
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, checkoutService := mustCreateCheckoutService()

	checkoutController := controller.NewCheckoutController(checkoutService)
	e := setupHTTPServer(checkoutController, cfg)

	go func() {
		httpAddr := net.JoinHostPort(cfg.HTTP.Host, cfg.HTTP.Port)
		logrus.WithField("addr", httpAddr).Info("Starting HTTP server")
		if err := e.Start(httpAddr); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("HTTP server error")
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

	logrus.Info("Server stopped")
}

func setupHTTPServer(checkoutController *controller.CheckoutController, cfg *config.Config) *echo.Echo {
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
		AllowOrigins:     cfg.CORS.AllowOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowCredentials: true,
	}))

	e.GET("/health", checkoutController.Health)
	e.POST("/ping", checkoutController.Ping)
	e.POST("/create-checkout-session", checkoutController.CreateCheckoutSession)
	e.POST("/upsell/intent", checkoutController.CreateUpsellIntent)
	e.POST("/webhook", checkoutController.HandleWebhook)
	e.POST("/track-paypal", checkoutController.TrackPayPal)

	return e
}

func mustCreateCheckoutService() (*config.Config, *service.CheckoutService) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}

	stripeClient := provider.NewStripeClient(provider.StripeConfig{
		SecretKey:                 cfg.Stripe.SecretKey,
		WebhookSecret:             cfg.Stripe.WebhookSecret,
		APIBaseURL:                cfg.Stripe.APIBaseURL,
		SignatureToleranceSeconds: cfg.Stripe.SignatureToleranceSeconds,
		HTTPTimeout:               cfg.Stripe.HTTPTimeout,
	})
	paypalVerifier := provider.NewPayPalVerifier(provider.PayPalConfig{
		VerifyURL:   cfg.PayPal.VerifyURL,
		HTTPTimeout: cfg.PayPal.HTTPTimeout,
	})

	conversionsClient := dispatch.NewConversionsClient(dispatch.ConversionsConfig{
		PixelID:     cfg.Conversions.PixelID,
		AccessToken: cfg.Conversions.AccessToken,
		APIBaseURL:  cfg.Conversions.APIBaseURL,
		HTTPTimeout: cfg.Conversions.HTTPTimeout,
	})
	trackingClient := dispatch.NewOrderTrackingClient(dispatch.OrderTrackingConfig{
		APIURL:      cfg.OrderTracking.APIURL,
		APIKey:      cfg.OrderTracking.APIKey,
		HTTPTimeout: cfg.OrderTracking.HTTPTimeout,
	})
	dispatcher := dispatch.NewDispatcher(conversionsClient, trackingClient)

	redirects := service.NewRedirectTable(defaultRedirectRules, cfg.Checkout.DefaultSuccessURL)
	checkoutService := service.NewCheckoutService(stripeClient, dispatcher, paypalVerifier, redirects, service.Settings{
		CancelURL:       cfg.Checkout.CancelURL,
		CheckoutFeeRate: cfg.Commission.CheckoutFeeRate,
		UpsellFeeRate:   cfg.Commission.UpsellFeeRate,
		CreateInvoices:  cfg.Stripe.CreateInvoices,
		DedupeCustomers: cfg.PayPal.DedupeCustomers,
	})

	return cfg, checkoutService
}

func configureLogging(cfg *config.Config) error {
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.JSONFormatter{})
	return nil
}
