package sqlstore

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Master data

type itemRow struct {
	ID   string `gorm:"primaryKey;size:64"`
	Name string `gorm:"not null"`
	Unit string `gorm:"not null"`
	Kind string `gorm:"not null;size:32"`
}

func (itemRow) TableName() string { return "items" }

type recipeRow struct {
	ID             string          `gorm:"primaryKey;size:64"`
	OutputItemID   string          `gorm:"not null;size:64;index"`
	OutputQuantity decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	IsDefault      bool            `gorm:"not null;default:false"`
	Lines          []recipeLineRow `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`

	OutputItem *itemRow `gorm:"foreignKey:OutputItemID"`
}

func (recipeRow) TableName() string { return "recipes" }

type recipeLineRow struct {
	ID          uint            `gorm:"primaryKey"`
	RecipeID    string          `gorm:"not null;size:64;index"`
	LineNo      int             `gorm:"not null"`
	InputItemID string          `gorm:"not null;size:64"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,6);not null"`

	InputItem *itemRow `gorm:"foreignKey:InputItemID"`
}

func (recipeLineRow) TableName() string { return "recipe_lines" }

type stockLevelRow struct {
	ItemID   string          `gorm:"primaryKey;size:64"`
	Location string          `gorm:"primaryKey;size:64"`
	OnHand   decimal.Decimal `gorm:"type:decimal(18,6);not null"`
}

func (stockLevelRow) TableName() string { return "stock_levels" }

type reservationRow struct {
	ID       uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ItemID   string          `gorm:"not null;size:64;index"`
	Location string          `gorm:"not null;size:64"`
	Quantity decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	Active   bool            `gorm:"not null;default:true"`
}

func (reservationRow) TableName() string { return "stock_reservations" }

type salesOrderRow struct {
	ID             string              `gorm:"primaryKey;size:64"`
	Number         string              `gorm:"not null;uniqueIndex"`
	SourceLocation string              `gorm:"not null;size:64"`
	Lines          []salesOrderLineRow `gorm:"foreignKey:SalesOrderID;constraint:OnDelete:CASCADE"`
}

func (salesOrderRow) TableName() string { return "sales_orders" }

type salesOrderLineRow struct {
	ID           uint            `gorm:"primaryKey"`
	SalesOrderID string          `gorm:"not null;size:64;index"`
	LineNo       int             `gorm:"not null"`
	ItemID       string          `gorm:"not null;size:64"`
	Quantity     decimal.Decimal `gorm:"type:decimal(18,6);not null"`

	Item *itemRow `gorm:"foreignKey:ItemID"`
}

func (salesOrderLineRow) TableName() string { return "sales_order_lines" }

// Planning output

type workOrderRow struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Number          string          `gorm:"not null;uniqueIndex;size:32"`
	ItemID          string          `gorm:"not null;size:64"`
	RecipeID        string          `gorm:"not null;size:64"`
	PlannedQuantity decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	Status          string          `gorm:"not null;size:32"`
	ParentID        *uuid.UUID      `gorm:"type:uuid;index"`
	SalesOrderID    string          `gorm:"not null;size:64;index"`
	LocationID      string          `gorm:"not null;size:64"`
	CreatedBy       string          `gorm:"not null"`
	CreatedAt       time.Time
	Materials       []plannedMaterialRow `gorm:"foreignKey:WorkOrderID;constraint:OnDelete:CASCADE"`

	Parent *workOrderRow `gorm:"foreignKey:ParentID"`
}

func (workOrderRow) TableName() string { return "work_orders" }

type plannedMaterialRow struct {
	ID          uint            `gorm:"primaryKey"`
	WorkOrderID uuid.UUID       `gorm:"type:uuid;not null;index"`
	LineNo      int             `gorm:"not null"`
	ItemID      string          `gorm:"not null;size:64"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,6);not null"`
}

func (plannedMaterialRow) TableName() string { return "work_order_materials" }

type requisitionRow struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Number       string    `gorm:"not null;uniqueIndex;size:32"`
	SalesOrderID string    `gorm:"not null;size:64;index"`
	Priority     string    `gorm:"not null;size:16"`
	RequestedBy  string    `gorm:"not null"`
	CreatedAt    time.Time
	Lines        []requisitionLineRow `gorm:"foreignKey:RequisitionID;constraint:OnDelete:CASCADE"`
}

func (requisitionRow) TableName() string { return "purchase_requisitions" }

type requisitionLineRow struct {
	ID            uint            `gorm:"primaryKey"`
	RequisitionID uuid.UUID       `gorm:"type:uuid;not null;index"`
	LineNo        int             `gorm:"not null"`
	ItemID        string          `gorm:"not null;size:64"`
	Quantity      decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	Note          string
}

func (requisitionLineRow) TableName() string { return "purchase_requisition_lines" }

// planRunRow is unique per sales order; the index is the authoritative plan guard
type planRunRow struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	SalesOrderID   string     `gorm:"not null;size:64;uniqueIndex"`
	Status         string     `gorm:"not null;size:16"`
	GlobalStatus   string     `gorm:"size:32"`
	WorkOrderCount int        `gorm:"not null;default:0"`
	RequisitionID  *uuid.UUID `gorm:"type:uuid"`
	CreatedBy      string     `gorm:"not null"`
	CreatedAt      time.Time
	CompletedAt    *time.Time
}

func (planRunRow) TableName() string { return "plan_runs" }

type codeSequenceRow struct {
	Name  string `gorm:"primaryKey;size:32"`
	Value int64  `gorm:"not null"`
}

func (codeSequenceRow) TableName() string { return "code_sequences" }

// allModels is the AutoMigrate set, parents before children
var allModels = []interface{}{
	&itemRow{},
	&recipeRow{},
	&recipeLineRow{},
	&stockLevelRow{},
	&reservationRow{},
	&salesOrderRow{},
	&salesOrderLineRow{},
	&workOrderRow{},
	&plannedMaterialRow{},
	&requisitionRow{},
	&requisitionLineRow{},
	&planRunRow{},
	&codeSequenceRow{},
}
