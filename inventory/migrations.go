// Package inventory holds the schema of the inventory service:
// catalogue items and the stock movements recorded against them
package inventory

import (
	"github.com/denismitr/blueprint/migration"
	"github.com/denismitr/blueprint/schema"
)

const (
	CreateItemsTableKey  = "2025_08_22_000004_create_items_table"
	CreateStocksTableKey = "2025_08_22_000005_create_stocks_table"
)

// Migrations returns inventory migrations in the order they must be applied
func Migrations() []migration.Factory {
	return []migration.Factory{
		CreateItemsTable(),
		CreateStocksTable(),
	}
}

func CreateItemsTable() migration.Factory {
	return migration.CreateTable(CreateItemsTableKey, "items", func(t *schema.Blueprint) {
		t.ID()
		t.String("name")
		t.Timestamps()
	})
}

// CreateStocksTable records a quantity of an item bought at a unit price,
// stocks are deleted together with their item
func CreateStocksTable() migration.Factory {
	return migration.CreateTable(CreateStocksTableKey, "stocks", func(t *schema.Blueprint) {
		t.ID()
		t.ForeignID("item_id").Constrained("items").CascadeOnDelete()
		t.Integer("qty")
		t.Decimal("per_item_price", 10, 2)
		t.Decimal("total_amount", 12, 2)
		t.Timestamps()
	})
}
