// Package cli expone stockctl, la herramienta administrativa sobre el mismo libro de stock que la API.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/jhoicas/inventario-ledger/internal/application/audit"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
)

const defaultActor = "stockctl"

// Deps casos de uso que usan los comandos.
type Deps struct {
	Catalog     *inventory.CatalogUseCase
	Coordinator *inventory.StockCoordinator
	Adjustments *inventory.AdjustmentUseCase
	Audit       *audit.Recorder
}

type globalFlags struct {
	store string
	actor string
}

// NewRootCommand arma el árbol de comandos. --store acota listados y altas a una tienda.
func NewRootCommand(deps Deps) *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:           "stockctl",
		Short:         "Administración del libro de stock",
		Long:          `Alta de ítems, consumos, liberaciones, ajustes y consulta del libro de movimientos.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.store, "store", "", "tienda (store_id) sobre la que se opera")
	root.PersistentFlags().StringVar(&flags.actor, "actor", defaultActor, "usuario que se registra en movimientos y auditoría")

	root.AddCommand(newItemsCommand(deps, flags))
	root.AddCommand(newStockCommand(deps, flags))
	root.AddCommand(newAdjustCommand(deps, flags))
	root.AddCommand(newMovementsCommand(deps))
	return root
}
