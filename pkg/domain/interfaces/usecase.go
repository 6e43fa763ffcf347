package interfaces

import (
	"context"
	"time"

	"github.com/m-mizutani/dorameter/pkg/domain/model"
)

// DORAUseCase computes the four DORA metrics and the overall performance level
type DORAUseCase interface {
	// Calculate computes metrics over one snapshot of delivery records
	Calculate(ctx context.Context, in *model.DORAInput) (*model.DORAResult, error)
}

// CollectorUseCase builds a snapshot of delivery records from source systems
type CollectorUseCase interface {
	// Collect gathers releases and merged changes of repos ("owner/name") since the given time
	Collect(ctx context.Context, repos []string, since time.Time) (*model.Snapshot, error)
}
