package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tphakala/zclstore/cmd/output"
	"github.com/tphakala/zclstore/internal/datastore"
	"github.com/tphakala/zclstore/internal/datastore/entities"
)

// Migrator copies every table of one store into another.
type Migrator struct {
	cfg    Config
	source datastore.Manager
	target datastore.Manager
	out    io.Writer
}

// MigrationStats tracks copy statistics.
type MigrationStats struct {
	StartTime time.Time
	EndTime   time.Time
	Tables    []TableStats
}

// TableStats tracks per-table copy statistics.
type TableStats struct {
	Name     string
	Copied   int64
	Skipped  int64
	Duration time.Duration
}

// Print outputs the copy statistics.
func (s *MigrationStats) Print(w io.Writer) {
	fmt.Fprintln(w, "\n=== Copy Summary ===")
	fmt.Fprintf(w, "Duration: %s\n\n", s.EndTime.Sub(s.StartTime).Round(time.Millisecond))

	table := output.NewTable(w, "Table", "Copied", "Skipped", "Duration")
	var totalCopied, totalSkipped int64
	for _, t := range s.Tables {
		table.Append([]string{
			t.Name,
			strconv.FormatInt(t.Copied, 10),
			strconv.FormatInt(t.Skipped, 10),
			t.Duration.Round(time.Millisecond).String(),
		})
		totalCopied += t.Copied
		totalSkipped += t.Skipped
	}
	table.SetFooter([]string{"Total", strconv.FormatInt(totalCopied, 10), strconv.FormatInt(totalSkipped, 10), ""})
	table.Render()
}

// NewMigrator opens the source and the migrated target store.
func NewMigrator(cfg *Config, out io.Writer) (*Migrator, error) {
	m := &Migrator{cfg: *cfg, out: out}

	source, err := datastore.NewSQLiteManager(datastore.Config{Path: cfg.SQLitePath})
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	m.source = source

	var target datastore.Manager
	if cfg.TargetSQLitePath != "" {
		target, err = datastore.NewSQLiteManager(datastore.Config{Path: cfg.TargetSQLitePath})
	} else {
		target, err = datastore.NewMySQLManager(cfg.MySQLConfig())
	}
	if err != nil {
		m.Close()
		return nil, fmt.Errorf("failed to open target database: %w", err)
	}
	m.target = target

	// Creates the schema in the target.
	if err := target.Initialize(); err != nil {
		m.Close()
		return nil, fmt.Errorf("failed to create target tables: %w", err)
	}

	fmt.Fprintln(out, "Database connections established successfully")
	return m, nil
}

// Close closes both database connections.
func (m *Migrator) Close() {
	if m.source != nil {
		_ = m.source.Close()
	}
	if m.target != nil {
		_ = m.target.Close()
	}
}

// tableCopier copies one table within the target transaction.
type tableCopier struct {
	name string
	copy func(ctx context.Context, m *Migrator, tx *gorm.DB, tableName string) (*TableStats, error)
}

// copiers lists every table, parents first.
var copiers = []tableCopier{
	{"packages", copyTable[entities.Package]},
	{"domains", copyTable[entities.Domain]},
	{"clusters", copyTable[entities.Cluster]},
	{"commands", copyTable[entities.Command]},
	{"command_args", copyTable[entities.CommandArg]},
	{"attributes", copyTable[entities.Attribute]},
	{"enums", copyTable[entities.Enum]},
	{"enum_items", copyTable[entities.EnumItem]},
	{"bitmaps", copyTable[entities.Bitmap]},
	{"bitmap_fields", copyTable[entities.BitmapField]},
	{"structs", copyTable[entities.Struct]},
	{"struct_items", copyTable[entities.StructItem]},
	{"device_types", copyTable[entities.DeviceType]},
	{"device_type_clusters", copyTable[entities.DeviceTypeCluster]},
	{"atomics", copyTable[entities.Atomic]},
	{"package_options", copyTable[entities.PackageOption]},
}

// Run executes the full copy in one target transaction.
func (m *Migrator) Run(ctx context.Context) (*MigrationStats, error) {
	stats := &MigrationStats{StartTime: time.Now()}

	err := m.target.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// commands.response_ref may point at a later row of the same table
		if err := m.deferForeignKeys(tx); err != nil {
			return fmt.Errorf("failed to defer foreign key checks: %w", err)
		}

		if m.cfg.Clean {
			if err := m.cleanTables(tx); err != nil {
				return fmt.Errorf("failed to clean tables: %w", err)
			}
		}

		for _, c := range copiers {
			tableStats, err := c.copy(ctx, m, tx, c.name)
			if err != nil {
				return fmt.Errorf("failed to copy %s: %w", c.name, err)
			}
			stats.Tables = append(stats.Tables, *tableStats)
		}

		if m.target.IsMySQL() {
			return tx.Exec("SET FOREIGN_KEY_CHECKS=1").Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	stats.EndTime = time.Now()
	return stats, nil
}

// deferForeignKeys relaxes foreign key enforcement for the session of tx.
// SQLite resets defer_foreign_keys at commit and checks everything then.
func (m *Migrator) deferForeignKeys(tx *gorm.DB) error {
	if m.target.IsMySQL() {
		return tx.Exec("SET FOREIGN_KEY_CHECKS=0").Error
	}
	return tx.Exec("PRAGMA defer_foreign_keys = ON").Error
}

// cleanTables deletes all rows from the target, children first.
func (m *Migrator) cleanTables(tx *gorm.DB) error {
	fmt.Fprintln(m.out, "Cleaning target tables...")
	for i := len(copiers) - 1; i >= 0; i-- {
		table := copiers[i].name
		if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("could not clean table %s: %w", table, err)
		}
		if m.cfg.Verbose {
			fmt.Fprintf(m.out, "  Cleaned: %s\n", table)
		}
	}
	fmt.Fprintln(m.out, "Tables cleaned")
	return nil
}

// copyTable copies one entity table in batches. Existing ids are skipped so a
// second run completes an interrupted copy.
func copyTable[T any](ctx context.Context, m *Migrator, tx *gorm.DB, tableName string) (*TableStats, error) {
	start := time.Now()
	stats := &TableStats{Name: tableName}

	source := m.source.DB().WithContext(ctx)

	var sourceCount int64
	if err := source.Model(new(T)).Count(&sourceCount).Error; err != nil {
		return stats, fmt.Errorf("failed to count source records: %w", err)
	}
	if sourceCount == 0 {
		if m.cfg.Verbose {
			fmt.Fprintf(m.out, "  %s: no records to copy\n", tableName)
		}
		stats.Duration = time.Since(start)
		return stats, nil
	}

	var processed int64
	batchNum := 0
	err := source.Model(new(T)).FindInBatches(new([]T), m.cfg.BatchSize, func(batchTx *gorm.DB, _ int) error {
		batchNum++
		records := batchTx.Statement.Dest.(*[]T)

		result := tx.Session(&gorm.Session{NewDB: true}).
			Omit(clause.Associations).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(records)
		if result.Error != nil {
			return fmt.Errorf("batch %d: %w", batchNum, result.Error)
		}

		stats.Copied += result.RowsAffected
		stats.Skipped += int64(len(*records)) - result.RowsAffected
		processed += int64(len(*records))

		if m.cfg.Verbose || batchNum%10 == 0 {
			fmt.Fprintf(m.out, "  %s: %d/%d (%.1f%%)\n", tableName, processed, sourceCount,
				float64(processed)/float64(sourceCount)*100)
		}
		return nil
	}).Error
	if err != nil {
		return stats, err
	}

	stats.Duration = time.Since(start)
	fmt.Fprintf(m.out, "  %s: completed (%d copied, %d skipped) in %s\n",
		tableName, stats.Copied, stats.Skipped, stats.Duration.Round(time.Millisecond))
	return stats, nil
}
