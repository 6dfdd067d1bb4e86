package port

import (
	"context"

	"github.com/viscloud/labeler/internal/domain/entity"
)

type ExportSink interface {
	Name() string
	WriteExport(ctx context.Context, session *entity.Session, records []entity.Record) error
}
