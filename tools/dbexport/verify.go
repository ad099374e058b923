package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"gorm.io/gorm"

	"github.com/tphakala/zclstore/cmd/output"
	"github.com/tphakala/zclstore/internal/datastore/entities"
)

// Verifier performs post-copy verification.
type Verifier struct {
	sourceDB *gorm.DB
	targetDB *gorm.DB
	out      io.Writer
}

// NewVerifier creates a new Verifier.
func NewVerifier(sourceDB, targetDB *gorm.DB, out io.Writer) *Verifier {
	return &Verifier{sourceDB: sourceDB, targetDB: targetDB, out: out}
}

// Verify compares row counts of every table, then spot checks packages and
// clusters field by field.
func (v *Verifier) Verify(ctx context.Context) error {
	if err := v.verifyCounts(ctx); err != nil {
		return fmt.Errorf("count verification failed: %w", err)
	}
	if err := v.verifySamples(ctx); err != nil {
		return fmt.Errorf("sample verification failed: %w", err)
	}
	return nil
}

// verifyCounts compares record counts between source and target.
func (v *Verifier) verifyCounts(ctx context.Context) error {
	fmt.Fprintln(v.out, "\nVerifying record counts...")

	table := output.NewTable(v.out, "Table", "Source", "Target", "Match")
	var mismatched []string
	for _, c := range copiers {
		var sourceCount, targetCount int64
		if err := v.sourceDB.WithContext(ctx).Table(c.name).Count(&sourceCount).Error; err != nil {
			return fmt.Errorf("failed to count source %s: %w", c.name, err)
		}
		if err := v.targetDB.WithContext(ctx).Table(c.name).Count(&targetCount).Error; err != nil {
			return fmt.Errorf("failed to count target %s: %w", c.name, err)
		}

		// Target may hold rows of earlier copies; it must hold at least the source.
		match := "yes"
		if targetCount < sourceCount {
			match = "no"
			mismatched = append(mismatched, c.name)
		}
		table.Append([]string{c.name, strconv.FormatInt(sourceCount, 10), strconv.FormatInt(targetCount, 10), match})
	}
	table.Render()

	if len(mismatched) > 0 {
		return fmt.Errorf("target is missing rows in %v", mismatched)
	}
	return nil
}

// verifySamples checks a few random packages and clusters by id.
func (v *Verifier) verifySamples(ctx context.Context) error {
	fmt.Fprintln(v.out, "\nVerifying sample records...")

	if err := samplePackages(ctx, v, 5); err != nil {
		return fmt.Errorf("packages sampling failed: %w", err)
	}
	if err := sampleClusters(ctx, v, 5); err != nil {
		return fmt.Errorf("clusters sampling failed: %w", err)
	}
	return nil
}

func samplePackages(ctx context.Context, v *Verifier, count int) error {
	var sources []entities.Package
	if err := v.sourceDB.WithContext(ctx).Order("RANDOM()").Limit(count).Find(&sources).Error; err != nil {
		return fmt.Errorf("failed to fetch source samples: %w", err)
	}

	for i := range sources {
		src := &sources[i]
		var target entities.Package
		if err := v.targetDB.WithContext(ctx).First(&target, src.ID).Error; err != nil {
			return fmt.Errorf("package ID %d not found in target: %w", src.ID, err)
		}
		if src.Path != target.Path || src.Version != target.Version || src.Category != target.Category {
			return fmt.Errorf("package ID %d: identity mismatch (%s@%s[%s] vs %s@%s[%s])",
				src.ID, src.Path, src.Version, src.Category, target.Path, target.Version, target.Category)
		}
	}

	fmt.Fprintf(v.out, "  Packages: %d samples verified\n", len(sources))
	return nil
}

func sampleClusters(ctx context.Context, v *Verifier, count int) error {
	var sources []entities.Cluster
	if err := v.sourceDB.WithContext(ctx).Order("RANDOM()").Limit(count).Find(&sources).Error; err != nil {
		return fmt.Errorf("failed to fetch source samples: %w", err)
	}

	for i := range sources {
		src := &sources[i]
		var target entities.Cluster
		if err := v.targetDB.WithContext(ctx).First(&target, src.ID).Error; err != nil {
			return fmt.Errorf("cluster ID %d not found in target: %w", src.ID, err)
		}
		if src.PackageRef != target.PackageRef || src.Code != target.Code || src.Name != target.Name {
			return fmt.Errorf("cluster ID %d: mismatch (%d/%d/%s vs %d/%d/%s)",
				src.ID, src.PackageRef, src.Code, src.Name, target.PackageRef, target.Code, target.Name)
		}
		if !sameMfg(src.ManufacturerCode, target.ManufacturerCode) {
			return fmt.Errorf("cluster ID %d: manufacturer code mismatch", src.ID)
		}
	}

	fmt.Fprintf(v.out, "  Clusters: %d samples verified\n", len(sources))
	return nil
}

func sameMfg(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
