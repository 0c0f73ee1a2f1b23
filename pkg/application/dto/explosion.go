package dto

import (
	"github.com/vsinha/mrpplanner/pkg/domain/entities"
)

// Explosion contains the net-requirement table produced for a set of demands
type Explosion struct {
	Requirements   map[entities.ItemID]*entities.NetRequirement
	Order          []entities.ItemID // first-seen order
	MissingRecipes []entities.ItemID
	Feasible       bool
	Mode           string
}

// NewExplosion creates an empty explosion for the given shortage mode
func NewExplosion(mode string) *Explosion {
	return &Explosion{
		Requirements:   make(map[entities.ItemID]*entities.NetRequirement),
		Order:          make([]entities.ItemID, 0),
		MissingRecipes: make([]entities.ItemID, 0),
		Mode:           mode,
	}
}

// Requirement returns the entry for id, creating it on first use
func (e *Explosion) Requirement(id entities.ItemID, kind entities.ItemKind, hasRecipe bool) *entities.NetRequirement {
	if req, exists := e.Requirements[id]; exists {
		return req
	}
	req := &entities.NetRequirement{
		ItemID:    id,
		Kind:      kind,
		HasRecipe: hasRecipe,
	}
	e.Requirements[id] = req
	e.Order = append(e.Order, id)
	return req
}

// Ordered returns copies of the requirements in first-seen order
func (e *Explosion) Ordered() []entities.NetRequirement {
	out := make([]entities.NetRequirement, 0, len(e.Order))
	for _, id := range e.Order {
		out = append(out, *e.Requirements[id])
	}
	return out
}

// Shortages returns the requirements with a positive shortage in first-seen order
func (e *Explosion) Shortages() []entities.NetRequirement {
	out := make([]entities.NetRequirement, 0)
	for _, id := range e.Order {
		if req := e.Requirements[id]; req.IsShort() {
			out = append(out, *req)
		}
	}
	return out
}

// Hierarchy is the work-order forest created for one plan run
type Hierarchy struct {
	Orders       []*entities.WorkOrder
	GlobalStatus entities.WorkOrderStatus
}
