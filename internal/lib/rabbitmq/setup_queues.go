package rabbitmq

// NotificationsExchange exchange для заданий уведомлений о подписках.
const NotificationsExchange = "notifications"

// Ключи маршрутизации заданий.
const (
	RoutingExpired  = "expired"
	RoutingUpcoming = "upcoming"
)

// Очереди заданий.
const (
	QueueExpired  = "notifications.expired"
	QueueUpcoming = "notifications.upcoming"
)

// QueueConfig описывает очередь и ключ, которым она привязана к exchange.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetNotificationQueues возвращает очереди планировщика.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: QueueExpired, RoutingKey: RoutingExpired},
		{QueueName: QueueUpcoming, RoutingKey: RoutingUpcoming},
	}
}
