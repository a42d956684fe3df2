package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// AdjustmentCommand entrada del ajuste administrativo directo.
type AdjustmentCommand struct {
	ItemID   string
	Type     string // IN, OUT o ADJUST
	Quantity int64
	Reason   string
	Actor    string
}

// AdjustmentUseCase es la vía de corrección manual, separada del coordinador y sin idempotencia:
// quien necesite deduplicar debe hacerlo por encima de esta capa.
//
// IN suma, OUT resta (con el mismo control de suficiencia que Consume) y ADJUST fija la cantidad
// al valor enviado. En ADJUST el delta registrado es el valor enviado, no la diferencia real;
// por eso la suma de deltas deja de coincidir con la cantidad después de un ADJUST.
type AdjustmentUseCase struct {
	txRunner TxRunner
	metrics  Metrics
	log      zerolog.Logger
	now      func() time.Time
}

// NewAdjustmentUseCase construye el caso de uso. metrics puede ser nil.
func NewAdjustmentUseCase(txRunner TxRunner, metrics Metrics, log zerolog.Logger) *AdjustmentUseCase {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &AdjustmentUseCase{txRunner: txRunner, metrics: metrics, log: log, now: time.Now}
}

// ChangeStock aplica el ajuste en una transacción con la fila del ítem bloqueada.
func (uc *AdjustmentUseCase) ChangeStock(ctx context.Context, cmd AdjustmentCommand) (*entity.InventoryItem, error) {
	if err := validateAdjustment(cmd); err != nil {
		uc.metrics.Rejected(cmd.Type, err)
		return nil, err
	}

	var result *entity.InventoryItem
	err := uc.txRunner.Run(ctx, func(ctx context.Context, tx repository.TxRepos) error {
		item, err := tx.Items.GetForUpdate(ctx, cmd.ItemID)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrNotFound
		}

		var delta int64
		switch cmd.Type {
		case entity.MovementTypeIN:
			delta = cmd.Quantity
			item.Quantity += cmd.Quantity
		case entity.MovementTypeOUT:
			if cmd.Quantity > item.Quantity {
				return domain.ErrInsufficientStock
			}
			delta = -cmd.Quantity
			item.Quantity -= cmd.Quantity
		case entity.MovementTypeADJUST:
			delta = cmd.Quantity
			item.Quantity = cmd.Quantity
		}

		now := uc.now()
		item.UpdatedAt = now
		if err := tx.Items.Update(ctx, item); err != nil {
			return err
		}
		mov := &entity.InventoryMovement{
			ID:            uuid.New().String(),
			ItemID:        item.ID,
			Type:          cmd.Type,
			QuantityDelta: delta,
			Reason:        cmd.Reason,
			SourceType:    entity.SourceTypeAdmin,
			SourceID:      cmd.Actor,
			CreatedBy:     cmd.Actor,
			CreatedAt:     now,
		}
		if err := tx.Movements.Create(ctx, mov); err != nil {
			return err
		}
		result = item
		return nil
	})
	if err != nil {
		uc.metrics.Rejected(cmd.Type, err)
		return nil, err
	}

	uc.metrics.MovementRecorded(cmd.Type, entity.SourceTypeAdmin)
	uc.log.Info().
		Str("item_id", result.ID).
		Str("type", cmd.Type).
		Int64("quantity", cmd.Quantity).
		Int64("quantity_after", result.Quantity).
		Str("actor", cmd.Actor).
		Msg("ajuste de inventario aplicado")
	return result, nil
}

func validateAdjustment(cmd AdjustmentCommand) error {
	if cmd.ItemID == "" || !entity.IsValidMovementType(cmd.Type) {
		return domain.ErrInvalidInput
	}
	if cmd.Type == entity.MovementTypeADJUST {
		// ADJUST fija el valor literal: cero es válido, negativo no.
		if cmd.Quantity < 0 {
			return domain.ErrInvalidInput
		}
		return nil
	}
	if cmd.Quantity <= 0 {
		return domain.ErrInvalidInput
	}
	return nil
}
