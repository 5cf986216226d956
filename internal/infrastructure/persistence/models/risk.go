package models

import "time"

// Risk is a finding attached to an organization. IsOrdered and OrderID
// move together: bulk assignment sets both, unassignment clears both.
type Risk struct {
	BaseModel
	OrganizationID int  `gorm:"not null;index" json:"organization_id"`
	RiskTypeID     *int `gorm:"index" json:"risk_type_id"`
	RiskNameID     *int `gorm:"index" json:"risk_name_id"`
	RiskDegreeID   *int `gorm:"index" json:"risk_degree_id"`
	OrderID        *int `gorm:"index" json:"order_id"`
	ExecutionID    *int `gorm:"index" json:"execution_id"`
	IsOrdered      bool `gorm:"not null;default:false" json:"is_ordered"`

	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	RiskType     *RiskType     `gorm:"foreignKey:RiskTypeID" json:"risk_type,omitempty"`
	RiskName     *RiskName     `gorm:"foreignKey:RiskNameID" json:"risk_name,omitempty"`
	RiskDegree   *RiskDegree   `gorm:"foreignKey:RiskDegreeID" json:"risk_degree,omitempty"`
}

func (Risk) TableName() string { return "risks" }

// Order groups risks for field work
type Order struct {
	BaseModel
	StatusID    *int       `gorm:"index" json:"status_id"`
	TypeID      *int       `gorm:"index" json:"type_id"`
	EmployeeID  *int       `gorm:"index" json:"employee_id"`
	StepCount   *int       `json:"step_count"`
	Description *string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`

	Status     *OrderStatus     `gorm:"foreignKey:StatusID" json:"status,omitempty"`
	Type       *OrderType       `gorm:"foreignKey:TypeID" json:"type,omitempty"`
	Employee   *Employee        `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`
	Executions []OrderExecution `gorm:"foreignKey:OrderID" json:"executions,omitempty"`
}

func (Order) TableName() string { return "orders" }

// OrderExecution is one field-work step within an order
type OrderExecution struct {
	BaseModel
	OrderID    int        `gorm:"not null;index" json:"order_id"`
	EmployeeID *int       `gorm:"index" json:"employee_id"`
	Comment    *string    `gorm:"type:text" json:"comment"`
	ExecutedAt *time.Time `json:"executed_at"`

	Files []OrderFile `gorm:"foreignKey:ExecutionID" json:"files,omitempty"`
}

func (OrderExecution) TableName() string { return "order_executions" }

// OrderFile is an attachment stored in object storage under StorageKey
type OrderFile struct {
	BaseModel
	ExecutionID int       `gorm:"not null;index" json:"execution_id"`
	FileName    string    `gorm:"type:varchar(500);not null" json:"file_name"`
	StorageKey  string    `gorm:"type:varchar(1000);not null" json:"storage_key"`
	ContentType *string   `gorm:"type:varchar(200)" json:"content_type"`
	Size        int64     `json:"size"`
	UploadedAt  time.Time `gorm:"not null;autoCreateTime" json:"uploaded_at"`
}

func (OrderFile) TableName() string { return "order_files" }
