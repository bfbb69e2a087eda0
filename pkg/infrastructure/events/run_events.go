package events

import (
	"github.com/mbanner77/allocengine/pkg/domain/entities"
)

const (
	RunStartedEvent     = "run.started"
	StageCompletedEvent = "run.stage.completed"
	RunFinalizedEvent   = "run.finalized"
	RunAbortedEvent     = "run.aborted"

	VariantTransitionedEvent = "variant.transitioned"

	SubstitutionRecordedEvent = "allocation.substitution.recorded"
	ExceptionRecordedEvent    = "allocation.exception.recorded"
)

type RunStarted struct {
	RunID     entities.RunID     `json:"run_id"`
	VariantID entities.VariantID `json:"variant_id"`
	Strategy  string             `json:"strategy"`
}

type StageCompleted struct {
	RunID entities.RunID `json:"run_id"`
	Stage string         `json:"stage"`
	Lines int            `json:"lines"`
}

type RunFinalized struct {
	RunID entities.RunID   `json:"run_id"`
	KPIs  entities.RunKPIs `json:"kpis"`
}

type RunAborted struct {
	RunID  entities.RunID `json:"run_id"`
	Reason string         `json:"reason"`
}

type VariantTransitioned struct {
	VariantID entities.VariantID `json:"variant_id"`
	From      string             `json:"from"`
	To        string             `json:"to"`
}

type SubstitutionRecorded struct {
	RunID      entities.RunID         `json:"run_id"`
	StoreID    entities.StoreID       `json:"store_id"`
	Original   entities.ArticleNumber `json:"original"`
	Substitute entities.ArticleNumber `json:"substitute"`
	Qty        entities.Quantity      `json:"qty"`
}

type ExceptionRecorded struct {
	RunID     entities.RunID     `json:"run_id"`
	Exception entities.Exception `json:"exception"`
}
