package entities

// Command is a cluster command. ResponseRef points at the response command
// of the same cluster and package once the cross-reference pass found one;
// it stays NULL otherwise. ResponseName keeps an explicitly declared
// response name even when it cannot be resolved.
type Command struct {
	ID               uint   `gorm:"primaryKey" json:"id"`
	PackageRef       uint   `gorm:"not null;index" json:"packageRef"`
	ClusterRef       uint   `gorm:"not null;index:idx_command_cluster_name,priority:1" json:"clusterRef"`
	Code             int64  `gorm:"not null" json:"code"`
	ManufacturerCode *int64 `gorm:"index" json:"manufacturerCode"`
	Name             string `gorm:"size:200;not null;index:idx_command_cluster_name,priority:2" json:"name"`
	Description      string `gorm:"type:text" json:"description"`
	Source           string `gorm:"size:16" json:"source"`
	IsOptional       bool   `json:"isOptional"`
	ResponseRef      *uint  `gorm:"index" json:"responseRef"`
	ResponseName     string `gorm:"size:200" json:"responseName"`

	Package  *Package `gorm:"foreignKey:PackageRef;constraint:OnDelete:CASCADE" json:"-"`
	Cluster  *Cluster `gorm:"foreignKey:ClusterRef;constraint:OnDelete:CASCADE" json:"-"`
	Response *Command `gorm:"foreignKey:ResponseRef;constraint:OnDelete:SET NULL" json:"-"`
}

// TableName returns the table name for GORM.
func (Command) TableName() string {
	return "commands"
}

// CommandArg is one ordered parameter of a command.
type CommandArg struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	PackageRef uint   `gorm:"not null;index" json:"packageRef"`
	CommandRef uint   `gorm:"not null;index:idx_command_arg_order,priority:1" json:"commandRef"`
	Ordinal    int    `gorm:"not null;index:idx_command_arg_order,priority:2" json:"ordinal"`
	Name       string `gorm:"size:200;not null" json:"name"`
	Type       string `gorm:"size:100;not null" json:"type"`
	IsArray    bool   `json:"isArray"`
	IsOptional bool   `json:"isOptional"`
	IsNullable bool   `json:"isNullable"`

	Package *Package `gorm:"foreignKey:PackageRef;constraint:OnDelete:CASCADE" json:"-"`
	Command *Command `gorm:"foreignKey:CommandRef;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName returns the table name for GORM.
func (CommandArg) TableName() string {
	return "command_args"
}
