package repositories

import (
	"context"

	"github.com/vsinha/mrpplanner/pkg/domain/entities"
)

// SalesOrderRepository provides read access to sales orders
type SalesOrderRepository interface {
	GetSalesOrder(ctx context.Context, id entities.SalesOrderID) (*entities.SalesOrder, error)
}
