package services

import (
	"context"

	"github.com/google/uuid"

	types "github.com/yungbote/derivedconcept-backend/internal/domain"
	"github.com/yungbote/derivedconcept-backend/internal/observability"
	"github.com/yungbote/derivedconcept-backend/internal/pkg/ctxutil"
	"github.com/yungbote/derivedconcept-backend/internal/pkg/logger"
	"github.com/yungbote/derivedconcept-backend/internal/realtime"
	"github.com/yungbote/derivedconcept-backend/internal/realtime/bus"
)

// CalculationBatch summarizes one persisted calculate call.
type CalculationBatch struct {
	BatchID          uuid.UUID `json:"batch_id"`
	DerivedConceptID *uint     `json:"derived_concept_id,omitempty"`
	Pending          int       `json:"pending"`
	Errors           int       `json:"errors"`
	JobRecordIDs     []uint    `json:"job_record_ids"`
}

// JobNotifier tells the execution engine about job records. Delivery is
// best effort: failures are logged and never surface to the caller.
type JobNotifier interface {
	CalculationScheduled(ctx context.Context, batch CalculationBatch)
	JobRecordCompleted(ctx context.Context, rec *types.JobRecord)
	JobRecordFailed(ctx context.Context, rec *types.JobRecord)
}

type jobNotifier struct {
	bus bus.Bus
	log *logger.Logger
}

func NewJobNotifier(b bus.Bus, baseLog *logger.Logger) JobNotifier {
	if b == nil {
		return NewNoopJobNotifier()
	}
	return &jobNotifier{bus: b, log: baseLog.With("service", "JobNotifier")}
}

func (n *jobNotifier) CalculationScheduled(ctx context.Context, batch CalculationBatch) {
	n.publish(ctx, realtime.EventCalculationScheduled, map[string]any{"batch": batch})
}

func (n *jobNotifier) JobRecordCompleted(ctx context.Context, rec *types.JobRecord) {
	if rec == nil {
		return
	}
	n.publish(ctx, realtime.EventJobRecordCompleted, map[string]any{
		"job_record_id":      rec.ID,
		"derived_concept_id": rec.DerivedConceptID,
		"batch_id":           rec.BatchID,
		"job_record":         rec,
	})
}

func (n *jobNotifier) JobRecordFailed(ctx context.Context, rec *types.JobRecord) {
	if rec == nil {
		return
	}
	n.publish(ctx, realtime.EventJobRecordFailed, map[string]any{
		"job_record_id":      rec.ID,
		"derived_concept_id": rec.DerivedConceptID,
		"batch_id":           rec.BatchID,
		"error":              rec.ErrorStack,
		"job_record":         rec,
	})
}

func (n *jobNotifier) publish(ctx context.Context, event string, data map[string]any) {
	if td := ctxutil.GetTraceData(ctx); td != nil {
		if td.TraceID != "" {
			data["trace_id"] = td.TraceID
		}
		if td.RequestID != "" {
			data["request_id"] = td.RequestID
		}
	}
	err := n.bus.Publish(ctx, realtime.Event{
		Channel: realtime.ChannelCalculations,
		Event:   event,
		Data:    data,
	})
	if err != nil {
		observability.Current().IncNotifyFailure()
		n.log.Warn("Failed to publish job event", "event", event, "error", err)
	}
}

type noopJobNotifier struct{}

func NewNoopJobNotifier() JobNotifier { return noopJobNotifier{} }

func (noopJobNotifier) CalculationScheduled(context.Context, CalculationBatch) {}
func (noopJobNotifier) JobRecordCompleted(context.Context, *types.JobRecord)   {}
func (noopJobNotifier) JobRecordFailed(context.Context, *types.JobRecord)      {}
