package entities

// Enum is a named enumeration with ordered items.
type Enum struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	PackageRef uint   `gorm:"not null;index" json:"packageRef"`
	Name       string `gorm:"size:200;not null;index" json:"name"`
	Type       string `gorm:"size:100;not null" json:"type"`

	Package *Package `gorm:"foreignKey:PackageRef;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName returns the table name for GORM.
func (Enum) TableName() string {
	return "enums"
}

type EnumItem struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	PackageRef uint   `gorm:"not null;index" json:"packageRef"`
	EnumRef    uint   `gorm:"not null;index" json:"enumRef"`
	Name       string `gorm:"size:200;not null" json:"name"`
	Value      int64  `json:"value"`
	Ordinal    int    `json:"ordinal"`

	Package *Package `gorm:"foreignKey:PackageRef;constraint:OnDelete:CASCADE" json:"-"`
	Enum    *Enum    `gorm:"foreignKey:EnumRef;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName returns the table name for GORM.
func (EnumItem) TableName() string {
	return "enum_items"
}

// Bitmap is a named set of bit flag fields.
type Bitmap struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	PackageRef uint   `gorm:"not null;index" json:"packageRef"`
	Name       string `gorm:"size:200;not null;index" json:"name"`
	Type       string `gorm:"size:100;not null" json:"type"`

	Package *Package `gorm:"foreignKey:PackageRef;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName returns the table name for GORM.
func (Bitmap) TableName() string {
	return "bitmaps"
}

type BitmapField struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	PackageRef uint   `gorm:"not null;index" json:"packageRef"`
	BitmapRef  uint   `gorm:"not null;index" json:"bitmapRef"`
	Name       string `gorm:"size:200;not null" json:"name"`
	Mask       int64  `json:"mask"`
	Ordinal    int    `json:"ordinal"`

	Package *Package `gorm:"foreignKey:PackageRef;constraint:OnDelete:CASCADE" json:"-"`
	Bitmap  *Bitmap  `gorm:"foreignKey:BitmapRef;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName returns the table name for GORM.
func (BitmapField) TableName() string {
	return "bitmap_fields"
}

// Struct is a composite type. Its item count is derived from StructItem rows.
type Struct struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	PackageRef uint   `gorm:"not null;index" json:"packageRef"`
	Name       string `gorm:"size:200;not null;index" json:"name"`

	Package *Package `gorm:"foreignKey:PackageRef;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName returns the table name for GORM.
func (Struct) TableName() string {
	return "structs"
}

type StructItem struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	PackageRef uint   `gorm:"not null;index" json:"packageRef"`
	StructRef  uint   `gorm:"not null;index" json:"structRef"`
	Name       string `gorm:"size:200;not null" json:"name"`
	Type       string `gorm:"size:100;not null" json:"type"`
	IsArray    bool   `json:"isArray"`
	Ordinal    int    `json:"ordinal"`

	Package *Package `gorm:"foreignKey:PackageRef;constraint:OnDelete:CASCADE" json:"-"`
	Struct  *Struct  `gorm:"foreignKey:StructRef;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName returns the table name for GORM.
func (StructItem) TableName() string {
	return "struct_items"
}

// Atomic is a primitive wire type.
type Atomic struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	PackageRef uint   `gorm:"not null;index" json:"packageRef"`
	Name       string `gorm:"size:100;not null" json:"name"`
	TypeID     int64  `json:"typeId"`
	Size       int    `json:"size"`
	IsDiscrete bool   `json:"isDiscrete"`
	IsString   bool   `json:"isString"`

	Package *Package `gorm:"foreignKey:PackageRef;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName returns the table name for GORM.
func (Atomic) TableName() string {
	return "atomics"
}
