package entities

// DeviceType is a device profile bundling clusters.
type DeviceType struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	PackageRef  uint   `gorm:"not null;index" json:"packageRef"`
	Code        int64  `gorm:"not null" json:"code"`
	ProfileID   int64  `json:"profileId"`
	Domain      string `gorm:"size:200" json:"domain"`
	Name        string `gorm:"size:200;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`

	Package *Package `gorm:"foreignKey:PackageRef;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName returns the table name for GORM.
func (DeviceType) TableName() string {
	return "device_types"
}

// DeviceTypeCluster lists a cluster required by a device type. ClusterRef is
// linked by code after normalization and stays NULL when the package has no
// such cluster.
type DeviceTypeCluster struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	PackageRef    uint   `gorm:"not null;index" json:"packageRef"`
	DeviceTypeRef uint   `gorm:"not null;index" json:"deviceTypeRef"`
	ClusterCode   int64  `gorm:"not null" json:"clusterCode"`
	ClusterName   string `gorm:"size:200" json:"clusterName"`
	ClusterRef    *uint  `gorm:"index" json:"clusterRef"`
	IncludeClient bool   `json:"includeClient"`
	IncludeServer bool   `json:"includeServer"`

	Package    *Package    `gorm:"foreignKey:PackageRef;constraint:OnDelete:CASCADE" json:"-"`
	DeviceType *DeviceType `gorm:"foreignKey:DeviceTypeRef;constraint:OnDelete:CASCADE" json:"-"`
	Cluster    *Cluster    `gorm:"foreignKey:ClusterRef;constraint:OnDelete:SET NULL" json:"-"`
}

// TableName returns the table name for GORM.
func (DeviceTypeCluster) TableName() string {
	return "device_type_clusters"
}
