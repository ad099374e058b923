package zcl

import "strings"

const maxManufacturerCode = 0xFFFF

// Validate checks the structure of the description: required fields, side
// and source values, manufacturer code range and option categories.
// References between entities (cluster domains, device type clusters) are
// resolved while the package is written, not here.
// The first problem found is returned as a *ParseInputError.
func (d *PackageDescription) Validate() error {
	if d == nil {
		return &ParseInputError{Path: "package", Reason: "description is nil"}
	}

	seenDomains := make(map[string]struct{}, len(d.Domains))
	for i := range d.Domains {
		path := EntityPath("", "domains", i, d.Domains[i].Name)
		if blank(d.Domains[i].Name) {
			return required(path, "name")
		}
		if _, dup := seenDomains[d.Domains[i].Name]; dup {
			return &ParseInputError{Path: path, Field: "name", Reason: "is declared twice"}
		}
		seenDomains[d.Domains[i].Name] = struct{}{}
	}

	for i := range d.Clusters {
		if err := validateCluster(EntityPath("", "clusters", i, d.Clusters[i].Name), &d.Clusters[i]); err != nil {
			return err
		}
	}

	for i := range d.Enums {
		e := &d.Enums[i]
		path := EntityPath("", "enums", i, e.Name)
		if err := requireNameType(path, e.Name, e.Type); err != nil {
			return err
		}
		for j := range e.Items {
			if blank(e.Items[j].Name) {
				return required(EntityPath(path, "items", j, ""), "name")
			}
		}
	}

	for i := range d.Bitmaps {
		b := &d.Bitmaps[i]
		path := EntityPath("", "bitmaps", i, b.Name)
		if err := requireNameType(path, b.Name, b.Type); err != nil {
			return err
		}
		for j := range b.Fields {
			if blank(b.Fields[j].Name) {
				return required(EntityPath(path, "fields", j, ""), "name")
			}
		}
	}

	for i := range d.Structs {
		s := &d.Structs[i]
		path := EntityPath("", "structs", i, s.Name)
		if blank(s.Name) {
			return required(path, "name")
		}
		for j := range s.Items {
			if err := requireNameType(EntityPath(path, "items", j, s.Items[j].Name), s.Items[j].Name, s.Items[j].Type); err != nil {
				return err
			}
		}
	}

	for i := range d.DeviceTypes {
		dt := &d.DeviceTypes[i]
		path := EntityPath("", "deviceTypes", i, dt.Name)
		if blank(dt.Name) {
			return required(path, "name")
		}
		for j := range dt.Clusters {
			if dt.Clusters[j].Code < 0 {
				return &ParseInputError{Path: EntityPath(path, "clusters", j, dt.Clusters[j].Name), Field: "code", Reason: "must not be negative"}
			}
		}
	}

	for i := range d.Atomics {
		a := &d.Atomics[i]
		path := EntityPath("", "atomics", i, a.Name)
		if blank(a.Name) {
			return required(path, "name")
		}
		if a.Size < 0 {
			return &ParseInputError{Path: path, Field: "size", Reason: "must not be negative"}
		}
	}

	for i := range d.Options {
		if err := validateOption(EntityPath("", "options", i, d.Options[i].Code), &d.Options[i]); err != nil {
			return err
		}
	}

	return nil
}

func validateCluster(path string, c *Cluster) error {
	if blank(c.Name) {
		return required(path, "name")
	}
	if c.Code < 0 {
		return &ParseInputError{Path: path, Field: "code", Reason: "must not be negative"}
	}
	if err := validateMfg(path, c.ManufacturerCode); err != nil {
		return err
	}

	for j := range c.Commands {
		cmd := &c.Commands[j]
		cmdPath := EntityPath(path, "commands", j, cmd.Name)
		if blank(cmd.Name) {
			return required(cmdPath, "name")
		}
		if err := validateMfg(cmdPath, cmd.ManufacturerCode); err != nil {
			return err
		}
		switch cmd.Source {
		case "", SourceClient, SourceServer, SourceEither:
		default:
			return &ParseInputError{Path: cmdPath, Field: "source", Reason: "must be client, server or either, got " + quote(cmd.Source)}
		}
		for k := range cmd.Args {
			arg := &cmd.Args[k]
			if err := requireNameType(EntityPath(cmdPath, "args", k, arg.Name), arg.Name, arg.Type); err != nil {
				return err
			}
		}
	}

	for j := range c.Attributes {
		attr := &c.Attributes[j]
		attrPath := EntityPath(path, "attributes", j, attr.Name)
		if err := requireNameType(attrPath, attr.Name, attr.Type); err != nil {
			return err
		}
		if attr.Side != SideServer && attr.Side != SideClient {
			return &ParseInputError{Path: attrPath, Field: "side", Reason: "must be server or client, got " + quote(attr.Side)}
		}
		if err := validateMfg(attrPath, attr.ManufacturerCode); err != nil {
			return err
		}
	}

	return nil
}

func validateOption(path string, o *Option) error {
	if blank(o.Category) {
		return required(path, "category")
	}
	if blank(o.Code) {
		return required(path, "code")
	}
	if o.Category == OptionDefaultResponsePolicy {
		switch o.Code {
		case DefaultResponseAlways, DefaultResponseConditional, DefaultResponseNever:
		default:
			return &ParseInputError{Path: path, Field: "code", Reason: "is not a default response policy: " + quote(o.Code)}
		}
	}
	return nil
}

func validateMfg(path string, code *int64) error {
	if code == nil {
		return nil
	}
	if *code < 0 || *code > maxManufacturerCode {
		return &ParseInputError{Path: path, Field: "manufacturerCode", Reason: "must fit in 16 bits"}
	}
	return nil
}

func requireNameType(path, name, typ string) error {
	if blank(name) {
		return required(path, "name")
	}
	if blank(typ) {
		return required(path, "type")
	}
	return nil
}

func required(path, field string) error {
	return &ParseInputError{Path: path, Field: field, Reason: "is required"}
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func quote(s string) string {
	return `"` + s + `"`
}
