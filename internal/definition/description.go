package definition

import (
	"slices"

	"github.com/tphakala/zclstore/internal/zcl"
)

// Description converts the document into a validated package description.
// The global section is not part of the result. Option categories are
// emitted in sorted order; values keep their document order and a missing
// label defaults to the code.
func (d *RawDocument) Description() (*zcl.PackageDescription, error) {
	desc := &zcl.PackageDescription{}

	for _, dom := range d.Domains {
		desc.Domains = append(desc.Domains, zcl.Domain{Name: dom.Name})
	}

	for i := range d.Clusters {
		desc.Clusters = append(desc.Clusters, convertCluster(&d.Clusters[i]))
	}

	for _, e := range d.Enums {
		enum := zcl.Enum{Name: e.Name, Type: e.Type}
		for _, item := range e.Items {
			enum.Items = append(enum.Items, zcl.EnumItem{Name: item.Name, Value: item.Value})
		}
		desc.Enums = append(desc.Enums, enum)
	}

	for _, b := range d.Bitmaps {
		bitmap := zcl.Bitmap{Name: b.Name, Type: b.Type}
		for _, f := range b.Fields {
			bitmap.Fields = append(bitmap.Fields, zcl.BitmapField{Name: f.Name, Mask: f.Mask})
		}
		desc.Bitmaps = append(desc.Bitmaps, bitmap)
	}

	for _, s := range d.Structs {
		st := zcl.Struct{Name: s.Name}
		for _, item := range s.Items {
			st.Items = append(st.Items, zcl.StructItem{Name: item.Name, Type: item.Type, Array: item.Array})
		}
		desc.Structs = append(desc.Structs, st)
	}

	for _, dt := range d.DeviceTypes {
		deviceType := zcl.DeviceType{
			Code:        dt.Code,
			ProfileID:   dt.ProfileID,
			Domain:      dt.Domain,
			Name:        dt.Name,
			Description: dt.Description,
		}
		for _, c := range dt.Clusters {
			deviceType.Clusters = append(deviceType.Clusters, zcl.DeviceTypeCluster{
				Code:   c.Code,
				Name:   c.Name,
				Client: c.Client,
				Server: c.Server,
			})
		}
		desc.DeviceTypes = append(desc.DeviceTypes, deviceType)
	}

	for _, a := range d.Atomics {
		desc.Atomics = append(desc.Atomics, zcl.Atomic{
			Name:     a.Name,
			TypeID:   a.ID,
			Size:     a.Size,
			Discrete: a.Discrete,
			String:   a.String,
		})
	}

	categories := make([]string, 0, len(d.Options))
	for category := range d.Options {
		categories = append(categories, category)
	}
	slices.Sort(categories)
	for _, category := range categories {
		for _, o := range d.Options[category] {
			label := o.Label
			if label == "" {
				label = o.Code
			}
			desc.Options = append(desc.Options, zcl.Option{Category: category, Code: o.Code, Label: label})
		}
	}

	if err := desc.Validate(); err != nil {
		return nil, err
	}
	return desc, nil
}

func convertCluster(c *RawClusterDef) zcl.Cluster {
	cluster := zcl.Cluster{
		Code:             c.Code,
		ManufacturerCode: c.ManufacturerCode,
		Name:             c.Name,
		Domain:           c.Domain,
		Define:           c.Define,
		Description:      c.Description,
		Revision:         c.Revision,
		Singleton:        c.Singleton,
	}

	for _, cmd := range c.Commands {
		command := zcl.Command{
			Code:             cmd.Code,
			ManufacturerCode: inheritMfg(cmd.ManufacturerCode, c.ManufacturerCode),
			Name:             cmd.Name,
			Description:      cmd.Description,
			Source:           cmd.Source,
			Optional:         cmd.Optional,
			Response:         cmd.Response,
		}
		for _, arg := range cmd.Args {
			command.Args = append(command.Args, zcl.Argument{
				Name:     arg.Name,
				Type:     arg.Type,
				Array:    arg.Array,
				Optional: arg.Optional,
				Nullable: arg.Nullable,
			})
		}
		cluster.Commands = append(cluster.Commands, command)
	}

	for _, attr := range c.Attributes {
		cluster.Attributes = append(cluster.Attributes, zcl.Attribute{
			Code:             attr.Code,
			ManufacturerCode: inheritMfg(attr.ManufacturerCode, c.ManufacturerCode),
			Name:             attr.Name,
			Type:             attr.Type,
			Side:             attr.Side,
			Define:           attr.Define,
			Default:          attr.Default,
			Min:              attr.Min,
			Max:              attr.Max,
			Writable:         attr.Writable,
			Optional:         attr.Optional,
			Reportable:       attr.Reportable,
		})
	}

	return cluster
}

// Commands and attributes of a manufacturer specific cluster carry the
// cluster's code unless they declare their own.
func inheritMfg(own, cluster *int64) *int64 {
	if own != nil {
		return own
	}
	return cluster
}
