// Package definition reads ZCL definition documents written in YAML and
// turns them into zcl.PackageDescription values for the ingest package.
package definition

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tphakala/zclstore/internal/errors"
	"github.com/tphakala/zclstore/internal/zcl"
)

// RawDocument is a definition document as written on disk.
type RawDocument struct {
	Version     string                 `yaml:"version"`
	Category    string                 `yaml:"category"`
	Summary     string                 `yaml:"description"`
	Options     map[string][]RawOption `yaml:"options"`
	Domains     []RawDomainDef         `yaml:"domains"`
	Clusters    []RawClusterDef        `yaml:"clusters"`
	Global      *RawGlobalDef          `yaml:"global"`
	Enums       []RawEnumDef           `yaml:"enums"`
	Bitmaps     []RawBitmapDef         `yaml:"bitmaps"`
	Structs     []RawStructDef         `yaml:"structs"`
	DeviceTypes []RawDeviceTypeDef     `yaml:"deviceTypes"`
	Atomics     []RawAtomicDef         `yaml:"atomics"`
}

// RawOption is one value of an option category. It may be written as a
// bare code or as a mapping with a label.
type RawOption struct {
	Code  string `yaml:"code"`
	Label string `yaml:"label"`
}

// UnmarshalYAML accepts both "always" and "{code: always, label: Always}".
func (o *RawOption) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		o.Code = node.Value
		return nil
	}
	type plain RawOption
	return node.Decode((*plain)(o))
}

type RawDomainDef struct {
	Name string `yaml:"name"`
}

// RawClusterDef represents a cluster and its commands and attributes.
type RawClusterDef struct {
	Code             int64             `yaml:"code"`
	ManufacturerCode *int64            `yaml:"manufacturerCode"`
	Name             string            `yaml:"name"`
	Domain           string            `yaml:"domain"`
	Define           string            `yaml:"define"`
	Description      string            `yaml:"description"`
	Revision         int               `yaml:"revision"`
	Singleton        bool              `yaml:"singleton"`
	Commands         []RawCommandDef   `yaml:"commands"`
	Attributes       []RawAttributeDef `yaml:"attributes"`
}

// RawGlobalDef holds commands and attributes shared by every cluster.
// They are not stored per package.
type RawGlobalDef struct {
	Commands   []RawCommandDef   `yaml:"commands"`
	Attributes []RawAttributeDef `yaml:"attributes"`
}

type RawCommandDef struct {
	Code             int64            `yaml:"code"`
	ManufacturerCode *int64           `yaml:"manufacturerCode"`
	Name             string           `yaml:"name"`
	Description      string           `yaml:"description"`
	Source           string           `yaml:"source"` // "client", "server" or "either"
	Optional         bool             `yaml:"optional"`
	Response         string           `yaml:"response"` // explicit response command name
	Args             []RawArgumentDef `yaml:"args"`
}

type RawArgumentDef struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Array    bool   `yaml:"array"`
	Optional bool   `yaml:"optional"`
	Nullable bool   `yaml:"nullable"`
}

type RawAttributeDef struct {
	Code             int64  `yaml:"code"`
	ManufacturerCode *int64 `yaml:"manufacturerCode"`
	Name             string `yaml:"name"`
	Type             string `yaml:"type"`
	Side             string `yaml:"side"`
	Define           string `yaml:"define"`
	Default          string `yaml:"default"`
	Min              string `yaml:"min"`
	Max              string `yaml:"max"`
	Writable         bool   `yaml:"writable"`
	Optional         bool   `yaml:"optional"`
	Reportable       bool   `yaml:"reportable"`
}

type RawEnumDef struct {
	Name  string         `yaml:"name"`
	Type  string         `yaml:"type"`
	Items []RawEnumValue `yaml:"items"`
}

type RawEnumValue struct {
	Name  string `yaml:"name"`
	Value int64  `yaml:"value"`
}

type RawBitmapDef struct {
	Name   string           `yaml:"name"`
	Type   string           `yaml:"type"`
	Fields []RawBitmapField `yaml:"fields"`
}

type RawBitmapField struct {
	Name string `yaml:"name"`
	Mask int64  `yaml:"mask"`
}

type RawStructDef struct {
	Name  string          `yaml:"name"`
	Items []RawStructItem `yaml:"items"`
}

type RawStructItem struct {
	Name  string `yaml:"name"`
	Type  string `yaml:"type"`
	Array bool   `yaml:"array"`
}

type RawDeviceTypeDef struct {
	Code        int64                 `yaml:"code"`
	ProfileID   int64                 `yaml:"profileId"`
	Domain      string                `yaml:"domain"`
	Name        string                `yaml:"name"`
	Description string                `yaml:"description"`
	Clusters    []RawDeviceClusterDef `yaml:"clusters"`
}

type RawDeviceClusterDef struct {
	Code   int64  `yaml:"code"`
	Name   string `yaml:"name"`
	Client bool   `yaml:"client"`
	Server bool   `yaml:"server"`
}

type RawAtomicDef struct {
	Name     string `yaml:"name"`
	ID       int64  `yaml:"id"`
	Size     int    `yaml:"size"`
	Discrete bool   `yaml:"discrete"`
	String   bool   `yaml:"string"`
}

// ParseDocument parses a definition document from YAML bytes.
// Malformed YAML is reported as a *zcl.ParseInputError at path "document".
func ParseDocument(data []byte) (*RawDocument, error) {
	var doc RawDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &zcl.ParseInputError{Path: "document", Reason: err.Error()}
	}
	return &doc, nil
}

// LoadDocument reads and parses the document at path.
func LoadDocument(path string) (*RawDocument, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the operator
	if err != nil {
		return nil, errors.New(err).
			Component("definition").
			Category(errors.CategoryFileIO).
			Context("path", path).
			FileContext(path, 0).
			Build()
	}
	doc, err := ParseDocument(data)
	if err != nil {
		// The category comes from the wrapped *zcl.ParseInputError.
		return nil, errors.New(err).
			Component("definition").
			Context("path", path).
			FileContext(path, int64(len(data))).
			Build()
	}
	return doc, nil
}
