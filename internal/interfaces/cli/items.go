package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jhoicas/inventario-ledger/internal/application/audit"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

var errStoreRequired = errors.New("--store es requerido")

func newItemsCommand(deps Deps, flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "items",
		Short: "Catálogo de ítems",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Listar ítems de la tienda",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if flags.store == "" {
				return errStoreRequired
			}
			items, err := deps.Catalog.ListItems(cmd.Context(), flags.store)
			if err != nil {
				return fmt.Errorf("listar ítems: %w", err)
			}
			printItems(cmd, items)
			return nil
		},
	}

	lowStock := &cobra.Command{
		Use:   "low-stock",
		Short: "Listar ítems en o por debajo del mínimo",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if flags.store == "" {
				return errStoreRequired
			}
			items, err := deps.Catalog.ListLowStock(cmd.Context(), flags.store)
			if err != nil {
				return fmt.Errorf("listar stock bajo: %w", err)
			}
			printItems(cmd, items)
			return nil
		},
	}

	var (
		sku, name, category string
		qty, minQty         int64
	)
	create := &cobra.Command{
		Use:   "create",
		Short: "Dar de alta un ítem",
		Long:  `Crea el ítem con el SKU normalizado. Si --qty es mayor a cero se registra el movimiento IN inicial.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if flags.store == "" {
				return errStoreRequired
			}
			item, err := deps.Catalog.CreateItem(cmd.Context(), inventory.CreateItemInput{
				StoreID:         flags.store,
				SKU:             sku,
				Name:            name,
				Category:        category,
				InitialQuantity: qty,
				MinQuantity:     minQty,
				Actor:           flags.actor,
			})
			if err != nil {
				return fmt.Errorf("crear ítem: %w", err)
			}
			deps.Audit.Record(cmd.Context(), audit.EventItemCreated, flags.actor, audit.ResourceInventoryItem, item.ID, map[string]any{
				"sku":              item.SKU,
				"initial_quantity": item.Quantity,
			})
			cmd.Printf("Ítem creado: %s\n", item.ID)
			printItem(cmd, item)
			return nil
		},
	}
	create.Flags().StringVar(&sku, "sku", "", "SKU (se normaliza a mayúsculas)")
	create.Flags().StringVar(&name, "name", "", "nombre del ítem")
	create.Flags().StringVar(&category, "category", "", "categoría")
	create.Flags().Int64Var(&qty, "qty", 0, "cantidad inicial")
	create.Flags().Int64Var(&minQty, "min", 0, "cantidad mínima (alerta de stock bajo)")
	_ = create.MarkFlagRequired("sku")
	_ = create.MarkFlagRequired("name")

	get := &cobra.Command{
		Use:   "get [item-id]",
		Short: "Mostrar un ítem",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := deps.Catalog.GetItem(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("obtener ítem: %w", err)
			}
			printItem(cmd, item)
			return nil
		},
	}

	cmd.AddCommand(list, lowStock, create, get)
	return cmd
}

func printItems(cmd *cobra.Command, items []*entity.InventoryItem) {
	if len(items) == 0 {
		cmd.Println("Sin ítems.")
		return
	}
	for _, item := range items {
		printItem(cmd, item)
	}
	cmd.Printf("Total: %d ítems\n", len(items))
}

func printItem(cmd *cobra.Command, item *entity.InventoryItem) {
	low := ""
	if item.IsLowStock() {
		low = "  [stock bajo]"
	}
	cmd.Printf("  %s  %-20s qty=%d min=%d v%d%s\n", item.ID, item.SKU, item.Quantity, item.MinQuantity, item.Version, low)
}
