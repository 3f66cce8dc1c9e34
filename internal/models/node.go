package models

import "github.com/google/uuid"

type NodeType string

const (
	NodeTypeFile   NodeType = "file"
	NodeTypeFolder NodeType = "folder"
)

// Node is a file or folder in a tenant's tree. File-only fields are nil on
// folders.
type Node struct {
	BaseModel
	Name       string     `json:"name" gorm:"type:varchar(255);not null;index"`
	Type       NodeType   `json:"type" gorm:"type:varchar(10);not null;index"`
	ParentID   *uuid.UUID `json:"parentId" gorm:"type:uuid;index"`
	TenantID   uuid.UUID  `json:"tenantId" gorm:"type:uuid;not null;index"`
	BlobHandle *string    `json:"-" gorm:"type:text"`
	MimeType   *string    `json:"mimeType,omitempty" gorm:"type:varchar(255)"`
	Size       *int64     `json:"size,omitempty"`
	Checksum   *string    `json:"checksum,omitempty" gorm:"type:varchar(64)"`
}

func (n *Node) IsFolder() bool {
	return n.Type == NodeTypeFolder
}

func (n *Node) IsFile() bool {
	return n.Type == NodeTypeFile
}

// ContentType returns the stored mime type, falling back to a generic binary
// type.
func (n *Node) ContentType() string {
	if n.MimeType == nil || *n.MimeType == "" {
		return "application/octet-stream"
	}
	return *n.MimeType
}
