package entities

import "time"

// Package is the registry row of one ingested definition set.
// The (Path, Version, Category) tuple is unique; concurrent registrations of
// the same tuple rely on that index to end up with a single row.
type Package struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Path      string    `gorm:"size:500;not null;uniqueIndex:idx_package_identity,priority:1" json:"path"`
	Version   string    `gorm:"size:200;not null;uniqueIndex:idx_package_identity,priority:2" json:"version"`
	Category  string    `gorm:"size:64;not null;uniqueIndex:idx_package_identity,priority:3;index:idx_package_category" json:"category"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName returns the table name for GORM.
func (Package) TableName() string {
	return "packages"
}

// PackageOption is a package scoped option value. A category may hold
// several codes.
type PackageOption struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	PackageRef uint   `gorm:"not null;index:idx_option_category,priority:1" json:"packageRef"`
	Category   string `gorm:"size:64;not null;index:idx_option_category,priority:2" json:"category"`
	Code       string `gorm:"size:200;not null" json:"code"`
	Label      string `gorm:"size:500" json:"label"`

	Package *Package `gorm:"foreignKey:PackageRef;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName returns the table name for GORM.
func (PackageOption) TableName() string {
	return "package_options"
}
