package sqlstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vsinha/mrpplanner/pkg/domain/entities"
	"github.com/vsinha/mrpplanner/pkg/domain/repositories"
	apperrors "github.com/vsinha/mrpplanner/pkg/errors"
)

var (
	_ repositories.ItemRepository       = (*Store)(nil)
	_ repositories.RecipeRepository     = (*Store)(nil)
	_ repositories.InventoryRepository  = (*Store)(nil)
	_ repositories.SalesOrderRepository = (*Store)(nil)
)

// SaveItem inserts or updates an item
func (s *Store) SaveItem(ctx context.Context, item *entities.Item) error {
	row := itemRow{ID: string(item.ID), Name: item.Name, Unit: item.Unit, Kind: string(item.Kind)}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
	return translate(err, "save item")
}

// GetItem returns the item or NOT_FOUND
func (s *Store) GetItem(ctx context.Context, id entities.ItemID) (*entities.Item, error) {
	var row itemRow
	err := s.db.WithContext(ctx).First(&row, "id = ?", string(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound("item", string(id))
	}
	if err != nil {
		return nil, err
	}
	return row.toEntity(), nil
}

// ListItems returns every item ordered by id
func (s *Store) ListItems(ctx context.Context) ([]*entities.Item, error) {
	var rows []itemRow
	if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]*entities.Item, 0, len(rows))
	for i := range rows {
		items = append(items, rows[i].toEntity())
	}
	return items, nil
}

// SaveRecipe inserts a recipe with its lines. A second default for the same output
// is rejected.
func (s *Store) SaveRecipe(ctx context.Context, recipe *entities.Recipe) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if recipe.IsDefault {
			var count int64
			err := tx.Model(&recipeRow{}).
				Where("output_item_id = ? AND is_default = ? AND id <> ?", string(recipe.OutputItemID), true, string(recipe.ID)).
				Count(&count).Error
			if err != nil {
				return err
			}
			if count > 0 {
				return apperrors.ErrConstraintViolation(
					fmt.Sprintf("item %s already has a default recipe", recipe.OutputItemID))
			}
		}

		row := recipeRow{
			ID:             string(recipe.ID),
			OutputItemID:   string(recipe.OutputItemID),
			OutputQuantity: recipe.OutputQuantity,
			IsDefault:      recipe.IsDefault,
		}
		for i, line := range recipe.Lines {
			row.Lines = append(row.Lines, recipeLineRow{
				LineNo:      i,
				InputItemID: string(line.InputItemID),
				Quantity:    line.Quantity,
			})
		}
		return translate(tx.Create(&row).Error, fmt.Sprintf("save recipe %s", recipe.ID))
	})
}

// GetDefaultRecipe returns the default recipe for itemID, or nil when none exists
func (s *Store) GetDefaultRecipe(ctx context.Context, itemID entities.ItemID) (*entities.Recipe, error) {
	var row recipeRow
	err := s.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("line_no") }).
		Where("output_item_id = ? AND is_default = ?", string(itemID), true).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.toEntity(), nil
}

// ListRecipes returns every recipe ordered by id
func (s *Store) ListRecipes(ctx context.Context) ([]*entities.Recipe, error) {
	var rows []recipeRow
	err := s.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("line_no") }).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	recipes := make([]*entities.Recipe, 0, len(rows))
	for i := range rows {
		recipes = append(recipes, rows[i].toEntity())
	}
	return recipes, nil
}

// SetOnHand records the on-hand quantity of an item at a location
func (s *Store) SetOnHand(ctx context.Context, itemID entities.ItemID, location string, qty entities.Quantity) error {
	row := stockLevelRow{ItemID: string(itemID), Location: location, OnHand: qty}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "item_id"}, {Name: "location"}},
			DoUpdates: clause.AssignmentColumns([]string{"on_hand"}),
		}).
		Create(&row).Error
	return translate(err, "set on hand")
}

// AddReservation records a hold on stock
func (s *Store) AddReservation(ctx context.Context, itemID entities.ItemID, location string, qty entities.Quantity, active bool) error {
	row := reservationRow{
		ID:       uuid.New(),
		ItemID:   string(itemID),
		Location: location,
		Quantity: qty,
		Active:   active,
	}
	return translate(s.db.WithContext(ctx).Create(&row).Error, "add reservation")
}

const (
	onHandQuery   = `SELECT COALESCE(SUM(on_hand), 0) FROM stock_levels WHERE item_id = ?`
	reservedQuery = `SELECT COALESCE(SUM(quantity), 0) FROM stock_reservations WHERE item_id = ? AND active = ?`
)

// GetOnHandQuantity sums on-hand stock across all locations
func (s *Store) GetOnHandQuantity(ctx context.Context, itemID entities.ItemID) (entities.Quantity, error) {
	return s.sumQuantity(ctx, onHandQuery, string(itemID))
}

// GetActiveReservedQuantity sums active reservations across all locations
func (s *Store) GetActiveReservedQuantity(ctx context.Context, itemID entities.ItemID) (entities.Quantity, error) {
	return s.sumQuantity(ctx, reservedQuery, string(itemID), true)
}

func (s *Store) sumQuantity(ctx context.Context, query string, args ...interface{}) (entities.Quantity, error) {
	var total decimal.NullDecimal
	if err := s.sql.GetContext(ctx, &total, s.sql.Rebind(query), args...); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum stock: %w", err)
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

// SaveSalesOrder inserts a sales order with its lines
func (s *Store) SaveSalesOrder(ctx context.Context, so *entities.SalesOrder) error {
	row := salesOrderRow{
		ID:             string(so.ID),
		Number:         so.Number,
		SourceLocation: so.SourceLocation,
	}
	for i, line := range so.Lines {
		row.Lines = append(row.Lines, salesOrderLineRow{
			LineNo:   i,
			ItemID:   string(line.ItemID),
			Quantity: line.Quantity,
		})
	}
	return translate(s.db.WithContext(ctx).Create(&row).Error, fmt.Sprintf("save sales order %s", so.ID))
}

// GetSalesOrder returns the sales order with its lines or NOT_FOUND
func (s *Store) GetSalesOrder(ctx context.Context, id entities.SalesOrderID) (*entities.SalesOrder, error) {
	var row salesOrderRow
	err := s.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("line_no") }).
		First(&row, "id = ?", string(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound("sales order", string(id))
	}
	if err != nil {
		return nil, err
	}
	return row.toEntity(), nil
}

func (r *itemRow) toEntity() *entities.Item {
	return &entities.Item{
		ID:   entities.ItemID(r.ID),
		Name: r.Name,
		Unit: r.Unit,
		Kind: entities.ItemKind(r.Kind),
	}
}

func (r *recipeRow) toEntity() *entities.Recipe {
	recipe := &entities.Recipe{
		ID:             entities.RecipeID(r.ID),
		OutputItemID:   entities.ItemID(r.OutputItemID),
		OutputQuantity: r.OutputQuantity,
		IsDefault:      r.IsDefault,
		Lines:          make([]entities.RecipeLine, 0, len(r.Lines)),
	}
	for _, line := range r.Lines {
		recipe.Lines = append(recipe.Lines, entities.RecipeLine{
			InputItemID: entities.ItemID(line.InputItemID),
			Quantity:    line.Quantity,
		})
	}
	return recipe
}

func (r *salesOrderRow) toEntity() *entities.SalesOrder {
	so := &entities.SalesOrder{
		ID:             entities.SalesOrderID(r.ID),
		Number:         r.Number,
		SourceLocation: r.SourceLocation,
		Lines:          make([]entities.Demand, 0, len(r.Lines)),
	}
	for _, line := range r.Lines {
		so.Lines = append(so.Lines, entities.Demand{
			ItemID:   entities.ItemID(line.ItemID),
			Quantity: line.Quantity,
		})
	}
	return so
}
