package zcl

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDescription() *PackageDescription {
	return &PackageDescription{
		Domains: []Domain{{Name: "General"}},
		Clusters: []Cluster{
			{
				Code:   0x0006,
				Name:   "On/Off",
				Domain: "General",
				Commands: []Command{
					{Code: 0, Name: "Off", Source: SourceClient},
					{Code: 1, Name: "On", Source: SourceClient, Args: []Argument{{Name: "delay", Type: "int16u"}}},
				},
				Attributes: []Attribute{
					{Code: 0, Name: "on off", Type: "boolean", Side: SideServer},
				},
			},
		},
		Enums:   []Enum{{Name: "StepMode", Type: "enum8", Items: []EnumItem{{Name: "Up", Value: 0}}}},
		Atomics: []Atomic{{Name: "uint8", TypeID: 0x20, Size: 1}},
		Options: []Option{{Category: OptionDefaultResponsePolicy, Code: DefaultResponseAlways, Label: "Always"}},
	}
}

func TestValidateAcceptsWellFormedDescription(t *testing.T) {
	require.NoError(t, validDescription().Validate())
}

func TestValidateReportsEntityPath(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(d *PackageDescription)
		wantPath string
		field    string
	}{
		{
			name:     "attribute side",
			mutate:   func(d *PackageDescription) { d.Clusters[0].Attributes[0].Side = "both" },
			wantPath: "clusters[0](On/Off).attributes[0](on off)",
			field:    "side",
		},
		{
			name:     "argument type missing",
			mutate:   func(d *PackageDescription) { d.Clusters[0].Commands[1].Args[0].Type = "" },
			wantPath: "clusters[0](On/Off).commands[1](On).args[0](delay)",
			field:    "type",
		},
		{
			name:     "cluster name missing",
			mutate:   func(d *PackageDescription) { d.Clusters[0].Name = " " },
			wantPath: "clusters[0]( )",
			field:    "name",
		},
		{
			name:     "manufacturer code out of range",
			mutate:   func(d *PackageDescription) { d.Clusters[0].Commands[0].ManufacturerCode = Mfg(0x1_0000) },
			wantPath: "clusters[0](On/Off).commands[0](Off)",
			field:    "manufacturerCode",
		},
		{
			name:     "unknown default response policy",
			mutate:   func(d *PackageDescription) { d.Options[0].Code = "sometimes" },
			wantPath: "options[0](sometimes)",
			field:    "code",
		},
		{
			name:     "enum item without name",
			mutate:   func(d *PackageDescription) { d.Enums[0].Items[0].Name = "" },
			wantPath: "enums[0](StepMode).items[0]",
			field:    "name",
		},
		{
			name:     "duplicate domain",
			mutate:   func(d *PackageDescription) { d.Domains = append(d.Domains, Domain{Name: "General"}) },
			wantPath: "domains[1](General)",
			field:    "name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDescription()
			tt.mutate(d)

			err := d.Validate()
			require.Error(t, err)

			var pie *ParseInputError
			require.True(t, errors.As(err, &pie))
			assert.Equal(t, tt.wantPath, pie.Path)
			assert.Equal(t, tt.field, pie.Field)
		})
	}
}

func TestValidateNilDescription(t *testing.T) {
	var d *PackageDescription
	var pie *ParseInputError
	require.ErrorAs(t, d.Validate(), &pie)
}

func TestIdentityKeyDistinguishesTuples(t *testing.T) {
	a := Identity{Locator: "/defs/zcl.yaml", Version: "1", Category: CategoryZclProperties}
	b := Identity{Locator: "/defs/zcl.yaml", Version: "2", Category: CategoryZclProperties}
	c := Identity{Locator: "/defs/zcl.yaml", Version: "1", Category: CategoryMatterXML}

	assert.NotEqual(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), c.Key())
	assert.Equal(t, a.Key(), Identity{Locator: "/defs/zcl.yaml", Version: "1", Category: CategoryZclProperties}.Key())
}

func TestIdentityValidate(t *testing.T) {
	require.NoError(t, Identity{Locator: "/a.yaml", Category: CategoryDotdotXML}.Validate())
	require.Error(t, Identity{Category: CategoryDotdotXML}.Validate())
	require.Error(t, Identity{Locator: "/a.yaml"}.Validate())
	assert.True(t, IsKnownCategory(CategoryMatterXML))
	assert.False(t, IsKnownCategory("custom"))
}

func TestEntityPath(t *testing.T) {
	assert.Equal(t, "clusters[2](On/Off)", EntityPath("", "clusters", 2, "On/Off"))
	assert.Equal(t, "clusters[2](On/Off).attributes[0]", EntityPath("clusters[2](On/Off)", "attributes", 0, ""))
}

func TestResponseCandidates(t *testing.T) {
	assert.Equal(t, []string{"FooResponse"}, ResponseCandidates("Foo", ""))
	assert.Equal(t, []string{"GetResponse", "GetRequestResponse"}, ResponseCandidates("GetRequest", ""))
	assert.Equal(t, []string{"Ack", "QueryResponse", "QueryRequestResponse"}, ResponseCandidates("QueryRequest", "Ack"))
	assert.Empty(t, ResponseCandidates("FooResponse", "Other"))

	assert.True(t, IsRequestName("BarRequest"))
	assert.False(t, IsRequestName("Bar"))
}
