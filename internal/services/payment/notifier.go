package services

import (
	"github.com/streadway/amqp"

	librabbit "github.com/magabrotheeeer/vpn-storefront/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/vpn-storefront/internal/models"
)

// Notifier публикует события для сервиса уведомлений.
type Notifier interface {
	Publish(event models.NotificationEvent) error
}

// AmqpNotifier публикует события в обменник уведомлений RabbitMQ.
type AmqpNotifier struct {
	ch         *amqp.Channel
	exchange   string
	routingKey string
}

// NewAmqpNotifier создает новый AmqpNotifier.
func NewAmqpNotifier(ch *amqp.Channel, exchange, routingKey string) *AmqpNotifier {
	return &AmqpNotifier{
		ch:         ch,
		exchange:   exchange,
		routingKey: routingKey,
	}
}

// Publish отправляет событие в очередь уведомлений.
func (n *AmqpNotifier) Publish(event models.NotificationEvent) error {
	return librabbit.PublishMessage(n.ch, n.exchange, n.routingKey, event)
}
