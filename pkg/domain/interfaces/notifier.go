package interfaces

import (
	"context"

	"github.com/m-mizutani/dorameter/pkg/domain/model"
)

// Notifier publishes a DORA result summary
type Notifier interface {
	NotifyResult(ctx context.Context, label string, result *model.DORAResult) error
}
