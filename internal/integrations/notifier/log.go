package notifier

import (
	"context"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
)

// LogNotifier пишет события в лог, когда брокер отключен
type LogNotifier struct {
	log Logger
}

// NewLogNotifier создает новый экземпляр LogNotifier
func NewLogNotifier(log Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

// Notify логирует событие
func (n *LogNotifier) Notify(_ context.Context, event domain.LifecycleEvent) error {
	n.log.Info("Notify: reservation id=%d %s by actor=%d (%s -> %s)",
		event.ReservationID, event.Action, event.ActorID, event.From, event.To)
	return nil
}
