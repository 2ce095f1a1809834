package persistence

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Schema versions known to this build. Version 1 is the base ledger schema;
// version 2 adds the analytical and proof-of-payment columns.
const (
	SchemaVersionBase    = 1
	SchemaVersionCurrent = 2
)

// optionalColumns lists, per table, the columns introduced after the base
// schema. Inserts omit the ones the resolved schema lacks.
var optionalColumns = map[string][]string{
	"ledger_titles": {
		"document_type",
		"counterparty_name",
		"category_id",
		"profit_center_id",
		"branch_id",
		"business_unit_id",
	},
	"ledger_title_lines": {
		"tax",
		"product_or_service_id",
		"business_unit_id",
	},
	"settlement_headers": {
		"payment_method_id",
		"attachment_key",
	},
	"settlement_lines": {
		"discount",
		"interest",
		"fine",
	},
}

// SchemaCapabilities is the fixed set of optional columns available to the
// running process. It is resolved once at boot and never changes afterwards.
type SchemaCapabilities struct {
	version int
	present map[string]map[string]bool
}

// CapabilitiesForVersion returns the column set a migration version guarantees
func CapabilitiesForVersion(version int) (*SchemaCapabilities, error) {
	if version < SchemaVersionBase || version > SchemaVersionCurrent {
		return nil, fmt.Errorf("unsupported ledger schema version %d (supported %d..%d)",
			version, SchemaVersionBase, SchemaVersionCurrent)
	}
	c := &SchemaCapabilities{version: version, present: make(map[string]map[string]bool)}
	for table, cols := range optionalColumns {
		c.present[table] = make(map[string]bool, len(cols))
		for _, col := range cols {
			c.present[table][col] = version >= SchemaVersionCurrent
		}
	}
	return c, nil
}

// FullCapabilities is the capability set of the current schema
func FullCapabilities() *SchemaCapabilities {
	c, _ := CapabilitiesForVersion(SchemaVersionCurrent)
	return c
}

// ResolveCapabilities builds the capability set for version. With verify set
// it checks every claimed optional column against the live database once
// and drops the missing ones, so a lagging migration degrades inserts
// instead of failing them.
func ResolveCapabilities(ctx context.Context, db *gorm.DB, version int, verify bool, logger *zap.Logger) (*SchemaCapabilities, error) {
	c, err := CapabilitiesForVersion(version)
	if err != nil {
		return nil, err
	}
	if !verify {
		return c, nil
	}

	migrator := db.WithContext(ctx).Migrator()
	for table, cols := range c.present {
		if !migrator.HasTable(table) {
			return nil, fmt.Errorf("ledger table %s is missing, run migrations first", table)
		}
		for col, claimed := range cols {
			if claimed && !migrator.HasColumn(table, col) {
				cols[col] = false
				logger.Warn("optional ledger column missing, inserts will omit it",
					zap.String("table", table),
					zap.String("column", col),
					zap.Int("schema_version", version),
				)
			}
		}
	}
	return c, nil
}

// Version returns the schema version the set was built for
func (c *SchemaCapabilities) Version() int {
	return c.version
}

// Has reports whether table.column may be written. Columns that are not
// optional are always present.
func (c *SchemaCapabilities) Has(table, column string) bool {
	cols, ok := c.present[table]
	if !ok {
		return true
	}
	present, optional := cols[column]
	return !optional || present
}

// Omitted returns the optional columns of table that inserts must skip, sorted
func (c *SchemaCapabilities) Omitted(table string) []string {
	var out []string
	for col, present := range c.present[table] {
		if !present {
			out = append(out, col)
		}
	}
	slices.Sort(out)
	return out
}
