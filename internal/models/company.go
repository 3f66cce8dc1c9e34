package models

// Company is a tenant: every node belongs to exactly one company.
type Company struct {
	BaseModel
	Name         string `json:"companyName" gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string `json:"-" gorm:"type:text;not null"`
	Nodes        []Node `json:"-" gorm:"foreignKey:TenantID"`
}
