// Package zcl holds the typed intermediate description of a definition
// package. Readers (see internal/definition) produce a PackageDescription and
// an Identity; the ingest package stores them. Nothing in here touches the
// database.
package zcl

import (
	"fmt"
	"strings"
)

// Package categories. A category names the dialect a definition set was
// written in, so the same file path loaded as two dialects yields two packages.
const (
	CategoryZclProperties = "zclProperties"
	CategoryDotdotXML     = "dotdotXml"
	CategoryMatterXML     = "matterXml"
)

var knownCategories = []string{CategoryZclProperties, CategoryDotdotXML, CategoryMatterXML}

// IsKnownCategory reports whether c is one of the built-in package categories.
func IsKnownCategory(c string) bool {
	for _, known := range knownCategories {
		if c == known {
			return true
		}
	}
	return false
}

// Identity is the (locator, version label, category) tuple that uniquely
// determines a package.
type Identity struct {
	Locator  string `json:"locator"`
	Version  string `json:"version"`
	Category string `json:"category"`
}

// Key returns a string usable as a map or singleflight key. The separator
// cannot appear in file paths, so distinct tuples never share a key.
func (id Identity) Key() string {
	return id.Locator + "\x00" + id.Version + "\x00" + id.Category
}

func (id Identity) String() string {
	return fmt.Sprintf("%s@%s[%s]", id.Locator, id.Version, id.Category)
}

// Validate checks that the identity can be registered.
func (id Identity) Validate() error {
	switch {
	case strings.TrimSpace(id.Locator) == "":
		return &ParseInputError{Path: "package", Field: "locator", Reason: "is required"}
	case strings.TrimSpace(id.Category) == "":
		return &ParseInputError{Path: "package", Field: "category", Reason: "is required"}
	case strings.ContainsRune(id.Locator+id.Version+id.Category, 0):
		return &ParseInputError{Path: "package", Field: "locator", Reason: "contains a NUL byte"}
	}
	return nil
}
