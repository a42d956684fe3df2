package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jhoicas/inventario-ledger/internal/application/audit"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

func newStockCommand(deps Deps, flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stock",
		Short: "Consumos y liberaciones idempotentes",
	}
	cmd.AddCommand(
		newStockChangeCommand(deps, flags, entity.MovementTypeOUT),
		newStockChangeCommand(deps, flags, entity.MovementTypeIN),
	)
	return cmd
}

func newStockChangeCommand(deps Deps, flags *globalFlags, movType string) *cobra.Command {
	var key, reason, sourceID string
	use, short, event := "consume", "Descontar stock (OUT)", audit.EventStockConsumed
	if movType == entity.MovementTypeIN {
		use, short, event = "release", "Devolver stock (IN)", audit.EventStockReleased
	}

	cmd := &cobra.Command{
		Use:   use + " [item-id] [quantity]",
		Short: short,
		Long:  `Con --key la operación es idempotente: repetirla con la misma clave no vuelve a mover stock.`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := parseQuantity(args[1])
			if err != nil {
				return err
			}
			stockCmd := inventory.StockCommand{
				ItemID:         args[0],
				Quantity:       qty,
				Reason:         reason,
				SourceType:     entity.SourceTypeAdmin,
				SourceID:       sourceID,
				IdempotencyKey: strings.TrimSpace(key),
				Actor:          flags.actor,
			}
			var item *entity.InventoryItem
			if movType == entity.MovementTypeOUT {
				item, err = deps.Coordinator.Consume(cmd.Context(), stockCmd)
			} else {
				item, err = deps.Coordinator.Release(cmd.Context(), stockCmd)
			}
			if err != nil {
				return fmt.Errorf("%s: %w", use, err)
			}
			deps.Audit.Record(cmd.Context(), event, flags.actor, audit.ResourceInventoryItem, item.ID, map[string]any{
				"quantity":        qty,
				"source_type":     stockCmd.SourceType,
				"source_id":       sourceID,
				"idempotency_key": stockCmd.IdempotencyKey,
			})
			printItem(cmd, item)
			return nil
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "clave de idempotencia")
	cmd.Flags().StringVar(&reason, "reason", "", "motivo")
	cmd.Flags().StringVar(&sourceID, "source-id", "", "referencia externa")
	return cmd
}

func newAdjustCommand(deps Deps, flags *globalFlags) *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "adjust [item-id] [IN|OUT|ADJUST] [quantity]",
		Short: "Ajuste administrativo directo",
		Long:  `IN suma, OUT resta y ADJUST fija la cantidad al valor indicado. No es idempotente.`,
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := parseQuantity(args[2])
			if err != nil {
				return err
			}
			movType := strings.ToUpper(strings.TrimSpace(args[1]))
			item, err := deps.Adjustments.ChangeStock(cmd.Context(), inventory.AdjustmentCommand{
				ItemID:   args[0],
				Type:     movType,
				Quantity: qty,
				Reason:   reason,
				Actor:    flags.actor,
			})
			if err != nil {
				return fmt.Errorf("ajuste: %w", err)
			}
			deps.Audit.Record(cmd.Context(), audit.EventStockAdjusted, flags.actor, audit.ResourceInventoryItem, item.ID, map[string]any{
				"type":           movType,
				"quantity":       qty,
				"quantity_after": item.Quantity,
				"reason":         reason,
			})
			printItem(cmd, item)
			return nil
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "motivo del ajuste")
	return cmd
}

func newMovementsCommand(deps Deps) *cobra.Command {
	var (
		itemID        string
		limit, offset int
	)
	cmd := &cobra.Command{
		Use:   "movements",
		Short: "Consultar el libro de movimientos (más reciente primero)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := deps.Catalog.ListMovements(cmd.Context(), repository.MovementFilter{
				ItemID: itemID,
				Limit:  limit,
				Offset: offset,
			})
			if err != nil {
				return fmt.Errorf("listar movimientos: %w", err)
			}
			if len(list) == 0 {
				cmd.Println("Sin movimientos.")
				return nil
			}
			for _, m := range list {
				cmd.Printf("  %s  %s  %-6s %+d  %s", m.CreatedAt.Format("2006-01-02 15:04:05"), m.ItemID, m.Type, m.QuantityDelta, m.SourceType)
				if m.IdempotencyKey != "" {
					cmd.Printf("  key=%s", m.IdempotencyKey)
				}
				cmd.Println()
			}
			cmd.Printf("Total: %d movimientos\n", len(list))
			return nil
		},
	}
	cmd.Flags().StringVar(&itemID, "item", "", "filtrar por ítem")
	cmd.Flags().IntVar(&limit, "limit", 50, "máximo de movimientos")
	cmd.Flags().IntVar(&offset, "offset", 0, "desplazamiento")
	return cmd
}

func parseQuantity(raw string) (int64, error) {
	qty, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("cantidad inválida %q", raw)
	}
	return qty, nil
}
