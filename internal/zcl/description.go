package zcl

// Attribute sides
const (
	SideServer = "server"
	SideClient = "client"
)

// Command sources
const (
	SourceClient = "client"
	SourceServer = "server"
	SourceEither = "either"
)

// Option categories emitted by readers
const (
	OptionDefaultResponsePolicy = "defaultResponsePolicy"
)

// Default response policy values
const (
	DefaultResponseAlways      = "always"
	DefaultResponseConditional = "conditional"
	DefaultResponseNever       = "never"
)

// PackageDescription is an already parsed definition set. Slices are ordered
// as they appeared in the source document and that order is preserved in the
// store.
type PackageDescription struct {
	Domains     []Domain
	Clusters    []Cluster
	Enums       []Enum
	Bitmaps     []Bitmap
	Structs     []Struct
	DeviceTypes []DeviceType
	Atomics     []Atomic
	Options     []Option
}

type Domain struct {
	Name string
}

// Cluster is a group of commands and attributes. Code may repeat across
// manufacturer variants; a nil ManufacturerCode marks the standard cluster.
type Cluster struct {
	Code             int64
	ManufacturerCode *int64
	Name             string
	Domain           string // name of a Domain in the same package, optional
	Define           string
	Description      string
	Revision         int
	Singleton        bool
	Commands         []Command
	Attributes       []Attribute
}

// Command is a cluster command. Response optionally names the response
// command explicitly; otherwise it is found by naming convention.
type Command struct {
	Code             int64
	ManufacturerCode *int64
	Name             string
	Description      string
	Source           string
	Optional         bool
	Response         string
	Args             []Argument
}

type Argument struct {
	Name     string
	Type     string
	Array    bool
	Optional bool
	Nullable bool
}

type Attribute struct {
	Code             int64
	ManufacturerCode *int64
	Name             string
	Type             string
	Side             string
	Define           string
	Default          string
	Min              string
	Max              string
	Writable         bool
	Optional         bool
	Reportable       bool
}

type Enum struct {
	Name  string
	Type  string
	Items []EnumItem
}

type EnumItem struct {
	Name  string
	Value int64
}

type Bitmap struct {
	Name   string
	Type   string
	Fields []BitmapField
}

type BitmapField struct {
	Name string
	Mask int64
}

type Struct struct {
	Name  string
	Items []StructItem
}

type StructItem struct {
	Name  string
	Type  string
	Array bool
}

// DeviceType bundles clusters into a device profile. Clusters are referenced
// by code and linked to cluster rows after normalization.
type DeviceType struct {
	Code        int64
	ProfileID   int64
	Domain      string
	Name        string
	Description string
	Clusters    []DeviceTypeCluster
}

type DeviceTypeCluster struct {
	Code   int64
	Name   string
	Client bool
	Server bool
}

// Atomic is a primitive wire type such as uint8 or char_string.
type Atomic struct {
	Name     string
	TypeID   int64
	Size     int
	Discrete bool
	String   bool
}

// Option is a package scoped key/value pair. Several options may share a
// category.
type Option struct {
	Category string
	Code     string
	Label    string
}

// Mfg returns a pointer to code, for building manufacturer specific entities.
func Mfg(code int64) *int64 {
	return &code
}
