package worker

import (
	"go.uber.org/zap"

	"github.com/lumen-shop/storefront-service/internal/config"
	"github.com/lumen-shop/storefront-service/internal/events"
	"github.com/lumen-shop/storefront-service/internal/service"
)

// StartNotifications subscribes a notification service to the dispatcher and
// returns it. A nil dispatcher yields an unsubscribed service.
func StartNotifications(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *service.NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	notifications := service.NewNotificationService(dispatcher, logger.Named("notifications"), cfg)
	notifications.RegisterHandlers()
	return notifications
}
