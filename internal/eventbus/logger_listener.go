package eventbus

import (
	"context"

	"github.com/annel0/alarm-missions/internal/logging"
)

// StartLoggingListener подписывается на все события и пишет их в лог
// компонента eventbus. Функция неблокирующая.
func StartLoggingListener(ctx context.Context, bus EventBus) (Subscription, error) {
	logger := logging.GetEventBusLogger()
	sub, err := bus.Subscribe(ctx, Filter{}, func(ctx context.Context, ev *Envelope) {
		logger.Debug("%s %s src=%s corr=%s prio=%d size=%dB",
			ev.ID, ev.EventType, ev.Source, ev.CorrelationID, ev.Priority, len(ev.Payload))
	})
	if err != nil {
		return nil, err
	}
	logger.Info("🪵 LoggingListener: подписка на все события активирована")
	return sub, nil
}
