package rabbitmq

// QueueConfig имя очереди и ключ маршрутизации для привязки к exchange.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetNotificationQueues возвращает очереди уведомлений о платежах.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "notification.payment", RoutingKey: "payment"},
	}
}
