package dispatch

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-checkout/app/entity"
	"github.com/vibast-solutions/ms-go-checkout/app/factory"
)

type ConversionSink interface {
	SendEvent(ctx context.Context, event *entity.ConversionEvent) error
}

type OrderSink interface {
	SendOrder(ctx context.Context, order *entity.Order) error
}

// Dispatcher delivers notifications to the analytics sinks on a
// best-effort basis. Sink failures are logged and swallowed here so a
// broken sink never fails the request that triggered the notification,
// and one sink's failure never reaches the other.
type Dispatcher struct {
	conversions ConversionSink
	orders      OrderSink
	logger      logrus.FieldLogger
}

func NewDispatcher(conversions ConversionSink, orders OrderSink) *Dispatcher {
	return &Dispatcher{
		conversions: conversions,
		orders:      orders,
		logger:      factory.NewModuleLogger("notification-dispatcher"),
	}
}

func (d *Dispatcher) DispatchConversion(ctx context.Context, event *entity.ConversionEvent) {
	if event == nil {
		return
	}
	log := d.logger.WithFields(logrus.Fields{
		"delivery_id": uuid.NewString(),
		"event_name":  event.EventName,
		"event_id":    event.EventID,
	})
	if d.conversions == nil {
		log.Debug("No conversion sink configured, dropping event")
		return
	}
	if err := d.conversions.SendEvent(ctx, event); err != nil {
		log.WithError(err).Warn("Conversion event delivery failed")
		return
	}
	log.Info("Conversion event delivered")
}

func (d *Dispatcher) DispatchOrder(ctx context.Context, order *entity.Order) {
	if order == nil {
		return
	}
	log := d.logger.WithFields(logrus.Fields{
		"delivery_id": uuid.NewString(),
		"order_id":    order.OrderID,
		"status":      order.Status,
	})
	if d.orders == nil {
		log.Debug("No order sink configured, dropping order")
		return
	}
	if err := d.orders.SendOrder(ctx, order); err != nil {
		log.WithError(err).Warn("Order delivery failed")
		return
	}
	log.Info("Order delivered")
}
