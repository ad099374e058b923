package definition

import (
	"fmt"
	"path/filepath"

	"github.com/tphakala/zclstore/internal/errors"
	"github.com/tphakala/zclstore/internal/logger"
	"github.com/tphakala/zclstore/internal/zcl"
)

// LoadPackage reads the document at path and returns its description and
// identity. The identity locator is the absolute path, so the same file
// reached through different relative paths is one package.
func LoadPackage(path string) (*zcl.PackageDescription, zcl.Identity, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, zcl.Identity{}, errors.New(err).
			Component("definition").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}

	doc, err := LoadDocument(abs)
	if err != nil {
		return nil, zcl.Identity{}, err
	}

	if !zcl.IsKnownCategory(doc.Category) {
		return nil, zcl.Identity{}, &zcl.ParseInputError{
			Path:   "document",
			Field:  "category",
			Reason: fmt.Sprintf("must be one of zclProperties, dotdotXml or matterXml, got %q", doc.Category),
		}
	}

	id := zcl.Identity{Locator: abs, Version: doc.Version, Category: doc.Category}

	desc, err := doc.Description()
	if err != nil {
		return nil, id, err
	}

	log := logger.Global().Module(logger.ModuleDefinition)
	if doc.Global != nil {
		log.Debug("global entities skipped",
			logger.String("path", abs),
			logger.Int("commands", len(doc.Global.Commands)),
			logger.Int("attributes", len(doc.Global.Attributes)))
	}
	log.Debug("definition read",
		logger.String("path", abs),
		logger.String("version", doc.Version),
		logger.Int("clusters", len(desc.Clusters)))

	return desc, id, nil
}
