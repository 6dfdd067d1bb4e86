package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/viscloud/labeler/internal/domain/entity"
	"github.com/viscloud/labeler/internal/domain/port"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// CollectExportsUseCase stores the intervals announced by export
// notifications, one label file per review session.
type CollectExportsUseCase struct {
	sink   port.ExportSink
	logger *zap.Logger
}

func NewCollectExportsUseCase(sink port.ExportSink, logger *zap.Logger) *CollectExportsUseCase {
	return &CollectExportsUseCase{sink: sink, logger: logger}
}

func (uc *CollectExportsUseCase) Execute(ctx context.Context, rawMsg []byte) error {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "CollectExportsUseCase.Execute")
	defer span.End()

	session, records, err := DecodeExportMessage(rawMsg)
	if err != nil {
		uc.logger.Error("failed to decode export message", zap.Error(err), zap.ByteString("body", rawMsg))
		return err
	}
	span.SetAttributes(
		attribute.String("session.id", session.ID.String()),
		attribute.Int("export.records", len(records)),
	)

	if err := uc.sink.WriteExport(ctx, session, records); err != nil {
		return fmt.Errorf("store export %s: %w", session.ID, err)
	}
	uc.logger.Info("export collected",
		zap.String("session_id", session.ID.String()),
		zap.String("video_path", session.VideoPath),
		zap.Int("records", len(records)),
	)
	return nil
}

// DecodeExportMessage rebuilds the session and records carried by a
// LabelsExportedMessage.
func DecodeExportMessage(rawMsg []byte) (*entity.Session, []entity.Record, error) {
	var msg entity.LabelsExportedMessage
	if err := json.Unmarshal(rawMsg, &msg); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", entity.ErrMalformedMessage, err)
	}

	finished := msg.FinishedAt
	session := &entity.Session{
		ID:         msg.SessionID,
		VideoPath:  msg.VideoPath,
		VideoKey:   msg.VideoKey,
		FinishedAt: &finished,
	}

	records := make([]entity.Record, 0, len(msg.Intervals))
	for _, iv := range msg.Intervals {
		kind, err := entity.ParseKind(iv.Kind)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", entity.ErrMalformedMessage, err)
		}
		records = append(records, entity.Record{
			Kind:     kind,
			Index:    iv.Index,
			Interval: entity.Interval{Start: iv.Start, End: iv.End},
		})
	}
	return session, records, nil
}
