package controller

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-checkout/app/factory"
	"github.com/vibast-solutions/ms-go-checkout/app/service"
	"github.com/vibast-solutions/ms-go-checkout/app/types"
)

type CheckoutController struct {
	checkoutService *service.CheckoutService
	logger          logrus.FieldLogger
}

func NewCheckoutController(checkoutService *service.CheckoutService) *CheckoutController {
	return &CheckoutController{
		checkoutService: checkoutService,
		logger:          factory.NewModuleLogger("checkout-controller"),
	}
}

func (c *CheckoutController) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, &types.HealthResponse{Status: "up"})
}

func (c *CheckoutController) Ping(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, &types.PingResponse{Pong: true})
}

func (c *CheckoutController) CreateCheckoutSession(ctx echo.Context) error {
	req, err := types.NewCreateCheckoutSessionRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	checkoutURL, err := c.checkoutService.CreateCheckoutSession(ctx.Request().Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			return c.writeError(ctx, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrUpstreamUnavailable):
			return c.writeError(ctx, http.StatusBadGateway, "payment provider unavailable")
		default:
			factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Create checkout session failed")
			return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
		}
	}

	return ctx.JSON(http.StatusOK, &types.CheckoutSessionResponse{CheckoutURL: checkoutURL})
}

func (c *CheckoutController) CreateUpsellIntent(ctx echo.Context) error {
	req, err := types.NewCreateUpsellIntentRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	intent, err := c.checkoutService.CreateUpsellIntent(ctx.Request().Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrInvalidState):
			return c.writeError(ctx, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrNoPaymentMethod):
			return c.writeError(ctx, http.StatusConflict, "no saved payment method; redirect to checkout")
		case errors.Is(err, service.ErrUpstreamUnavailable):
			return c.writeError(ctx, http.StatusBadGateway, "payment provider unavailable")
		default:
			factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Create upsell intent failed")
			return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
		}
	}

	return ctx.JSON(http.StatusOK, &types.UpsellIntentResponse{
		ClientSecret: intent.ClientSecret,
		IntentID:     intent.IntentID,
	})
}

func (c *CheckoutController) HandleWebhook(ctx echo.Context) error {
	payload, err := io.ReadAll(ctx.Request().Body)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}

	signature := ctx.Request().Header.Get("Stripe-Signature")
	if err := c.checkoutService.HandleWebhook(ctx.Request().Context(), payload, signature); err != nil {
		if errors.Is(err, service.ErrInvalidSignature) {
			return c.writeError(ctx, http.StatusBadRequest, "invalid signature")
		}
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Handle webhook failed")
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}

	return ctx.JSON(http.StatusOK, &types.WebhookAckResponse{Received: true})
}

func (c *CheckoutController) TrackPayPal(ctx echo.Context) error {
	payload, err := io.ReadAll(ctx.Request().Body)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}

	if err := c.checkoutService.HandleNotification(ctx.Request().Context(), payload); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidNotification):
			return ctx.JSON(http.StatusBadRequest, &types.StatusResponse{Status: "invalid ipn"})
		case errors.Is(err, service.ErrValidation):
			return c.writeError(ctx, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrUpstreamUnavailable):
			return c.writeError(ctx, http.StatusBadGateway, "payment provider unavailable")
		default:
			factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Track notification failed")
			return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
		}
	}

	return ctx.JSON(http.StatusOK, &types.StatusResponse{Status: "ok"})
}

func (c *CheckoutController) writeError(ctx echo.Context, statusCode int, message string) error {
	return ctx.JSON(statusCode, &types.ErrorResponse{Error: message})
}
