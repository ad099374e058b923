package entities

// Domain groups clusters, e.g. "General" or "Lighting".
type Domain struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	PackageRef uint   `gorm:"not null;uniqueIndex:idx_domain_name,priority:1" json:"packageRef"`
	Name       string `gorm:"size:200;not null;uniqueIndex:idx_domain_name,priority:2" json:"name"`

	Package *Package `gorm:"foreignKey:PackageRef;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName returns the table name for GORM.
func (Domain) TableName() string {
	return "domains"
}

// Cluster is a normalized cluster definition. Code is not unique within a
// package: manufacturer specific variants reuse standard codes.
// ManufacturerCode is NULL for standard clusters.
type Cluster struct {
	ID               uint   `gorm:"primaryKey" json:"id"`
	PackageRef       uint   `gorm:"not null;index:idx_cluster_code,priority:1" json:"packageRef"`
	DomainRef        *uint  `gorm:"index" json:"domainRef"`
	Code             int64  `gorm:"not null;index:idx_cluster_code,priority:2" json:"code"`
	ManufacturerCode *int64 `gorm:"index" json:"manufacturerCode"`
	Name             string `gorm:"size:200;not null" json:"name"`
	Define           string `gorm:"size:200" json:"define"`
	Description      string `gorm:"type:text" json:"description"`
	Revision         int    `json:"revision"`
	Singleton        bool   `json:"singleton"`

	Package *Package `gorm:"foreignKey:PackageRef;constraint:OnDelete:CASCADE" json:"-"`
	Domain  *Domain  `gorm:"foreignKey:DomainRef;constraint:OnDelete:SET NULL" json:"-"`
}

// TableName returns the table name for GORM.
func (Cluster) TableName() string {
	return "clusters"
}

// Attribute is a typed cluster property. Side is "server" or "client".
type Attribute struct {
	ID               uint   `gorm:"primaryKey" json:"id"`
	PackageRef       uint   `gorm:"not null;index:idx_attribute_side,priority:1" json:"packageRef"`
	ClusterRef       uint   `gorm:"not null;index" json:"clusterRef"`
	Code             int64  `gorm:"not null" json:"code"`
	ManufacturerCode *int64 `gorm:"index" json:"manufacturerCode"`
	Name             string `gorm:"size:200;not null" json:"name"`
	Type             string `gorm:"size:100;not null" json:"type"`
	Side             string `gorm:"size:8;not null;index:idx_attribute_side,priority:2" json:"side"`
	Define           string `gorm:"size:200" json:"define"`
	DefaultValue     string `gorm:"size:200" json:"defaultValue"`
	Min              string `gorm:"size:100" json:"min"`
	Max              string `gorm:"size:100" json:"max"`
	IsWritable       bool   `json:"isWritable"`
	IsOptional       bool   `json:"isOptional"`
	IsReportable     bool   `json:"isReportable"`

	Package *Package `gorm:"foreignKey:PackageRef;constraint:OnDelete:CASCADE" json:"-"`
	Cluster *Cluster `gorm:"foreignKey:ClusterRef;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName returns the table name for GORM.
func (Attribute) TableName() string {
	return "attributes"
}
