package output

import (
	"context"

	"github.com/hejijunhao/edgepair/internal/model"
)

// Output defines the interface for classified event destinations.
type Output interface {
	Write(ctx context.Context, event model.ClassifiedEvent) error
	Close() error
}
