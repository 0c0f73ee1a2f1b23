package mrp

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/vsinha/mrpplanner/pkg/application/dto"
	"github.com/vsinha/mrpplanner/pkg/domain/entities"
	"github.com/vsinha/mrpplanner/pkg/domain/repositories"
	apperrors "github.com/vsinha/mrpplanner/pkg/errors"
)

// ShortageMode selects how availability is netted against shared components
type ShortageMode string

const (
	// AggregatedShortage sums every parent's contribution before comparing an item
	// with stock, exactly once per item.
	AggregatedShortage ShortageMode = "aggregated"
	// PerCallShortage compares each recursive call's own quantity with the full
	// available stock. Shared components count the same stock more than once.
	PerCallShortage ShortageMode = "per-call"
)

// ParseShortageMode converts a configuration value into a ShortageMode
func ParseShortageMode(s string) (ShortageMode, error) {
	switch ShortageMode(s) {
	case AggregatedShortage, PerCallShortage:
		return ShortageMode(s), nil
	case "":
		return AggregatedShortage, nil
	default:
		return "", fmt.Errorf("unknown shortage mode: %s", s)
	}
}

// ExplodeOptions controls a single explosion
type ExplodeOptions struct {
	IncludeReservations bool
	Mode                ShortageMode
}

// ExplosionEngine turns top-level demands into a net-requirement table
type ExplosionEngine struct {
	itemRepo      repositories.ItemRepository
	recipeRepo    repositories.RecipeRepository
	inventoryRepo repositories.InventoryRepository
}

// NewExplosionEngine creates a new explosion engine
func NewExplosionEngine(
	itemRepo repositories.ItemRepository,
	recipeRepo repositories.RecipeRepository,
	inventoryRepo repositories.InventoryRepository,
) *ExplosionEngine {
	return &ExplosionEngine{
		itemRepo:      itemRepo,
		recipeRepo:    recipeRepo,
		inventoryRepo: inventoryRepo,
	}
}

// Explode computes net requirements for demands. Configuration and cycle errors abort
// the whole call and no partial table is returned.
func (e *ExplosionEngine) Explode(
	ctx context.Context,
	demands []entities.Demand,
	opts ExplodeOptions,
) (*dto.Explosion, error) {
	if opts.Mode == "" {
		opts.Mode = AggregatedShortage
	}
	start := time.Now()

	stock := newStockLedger(e.inventoryRepo, opts.IncludeReservations)
	catalog := newRecipeCatalog(e.itemRepo, e.recipeRepo)

	var (
		result *dto.Explosion
		err    error
	)
	switch opts.Mode {
	case AggregatedShortage:
		result, err = e.explodeAggregated(ctx, demands, catalog, stock)
	case PerCallShortage:
		result, err = e.explodePerCall(ctx, demands, catalog, stock)
	default:
		return nil, apperrors.ErrValidation(fmt.Sprintf("unknown shortage mode: %s", opts.Mode))
	}
	if err != nil {
		return nil, err
	}

	result.Feasible = isFeasible(result)

	log.Debug().
		Str("mode", string(opts.Mode)).
		Int("items", len(result.Order)).
		Int("missing_recipes", len(result.MissingRecipes)).
		Bool("feasible", result.Feasible).
		Dur("duration", time.Since(start)).
		Msg("explosion complete")

	return result, nil
}

// dependencyNode is one reachable item in the aggregated explosion graph
type dependencyNode struct {
	item           *entities.Item
	recipe         *entities.Recipe
	directChildren []entities.ItemID
	directParents  []entities.ItemID
	level          int
}

// explodeAggregated runs the two-pass explosion.
// Pass 1 builds the reachable graph with an explicit stack and detects cycles.
// Pass 2 resolves items parents-first so each item's need is complete before it is netted.
func (e *ExplosionEngine) explodeAggregated(
	ctx context.Context,
	demands []entities.Demand,
	catalog *recipeCatalog,
	stock *stockLedger,
) (*dto.Explosion, error) {
	graph, firstSeen, err := e.buildDependencyGraph(ctx, demands, catalog)
	if err != nil {
		return nil, err
	}
	order := topologicalOrder(graph, firstSeen)

	result := dto.NewExplosion(string(AggregatedShortage))
	missing := newMissingSet()

	for _, demand := range demands {
		node := graph[demand.ItemID]
		req := result.Requirement(demand.ItemID, node.item.Kind, node.recipe != nil)
		req.Needed = req.Needed.Add(demand.Quantity)
	}

	for _, id := range order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		req, demanded := result.Requirements[id]
		if !demanded {
			// Only reachable through parents that were fully covered by stock
			continue
		}
		node := graph[id]
		req.Level = node.level

		available, err := stock.available(ctx, id)
		if err != nil {
			return nil, err
		}
		req.Available = available
		req.Shortage = netShortage(req.Needed, available)

		if node.recipe == nil {
			if node.item.Kind.ExpectsRecipe() {
				missing.add(id)
			}
			continue
		}
		if !req.IsShort() {
			continue
		}

		// Zero-quantity lines still register the input so a missing recipe is reported
		for _, line := range node.recipe.Lines {
			childQty := node.recipe.ScaleLine(line, req.Shortage)
			child := graph[line.InputItemID]
			childReq := result.Requirement(line.InputItemID, child.item.Kind, child.recipe != nil)
			childReq.Needed = childReq.Needed.Add(childQty)
		}
	}

	result.MissingRecipes = missing.items
	return result, nil
}

// buildDependencyGraph walks every default recipe reachable from demands depth-first
// using an explicit stack. It validates recipes and refuses cycles regardless of stock.
func (e *ExplosionEngine) buildDependencyGraph(
	ctx context.Context,
	demands []entities.Demand,
	catalog *recipeCatalog,
) (map[entities.ItemID]*dependencyNode, []entities.ItemID, error) {
	graph := make(map[entities.ItemID]*dependencyNode)
	firstSeen := make([]entities.ItemID, 0)

	load := func(id entities.ItemID) (*dependencyNode, error) {
		item, err := catalog.item(ctx, id)
		if err != nil {
			return nil, err
		}
		recipe, err := catalog.recipe(ctx, id)
		if err != nil {
			return nil, err
		}
		node := &dependencyNode{item: item, recipe: recipe}
		if recipe != nil {
			seen := make(map[entities.ItemID]bool, len(recipe.Lines))
			for _, line := range recipe.Lines {
				if !seen[line.InputItemID] {
					seen[line.InputItemID] = true
					node.directChildren = append(node.directChildren, line.InputItemID)
				}
			}
		}
		graph[id] = node
		firstSeen = append(firstSeen, id)
		return node, nil
	}

	type frame struct {
		id   entities.ItemID
		next int
	}

	for _, demand := range demands {
		if _, visited := graph[demand.ItemID]; visited {
			continue
		}
		if _, err := load(demand.ItemID); err != nil {
			return nil, nil, err
		}

		stack := []*frame{{id: demand.ItemID}}
		onPath := map[entities.ItemID]bool{demand.ItemID: true}

		for len(stack) > 0 {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
			top := stack[len(stack)-1]
			node := graph[top.id]

			if top.next >= len(node.directChildren) {
				stack = stack[:len(stack)-1]
				delete(onPath, top.id)
				continue
			}

			childID := node.directChildren[top.next]
			top.next++

			if onPath[childID] {
				path := make([]entities.ItemID, 0, len(stack))
				for _, f := range stack {
					path = append(path, f.id)
				}
				return nil, nil, apperrors.ErrCyclicRecipe(cyclePath(path, childID))
			}

			child, visited := graph[childID]
			if !visited {
				var err error
				if child, err = load(childID); err != nil {
					return nil, nil, err
				}
				stack = append(stack, &frame{id: childID})
				onPath[childID] = true
			}
			child.directParents = append(child.directParents, top.id)
		}
	}

	return graph, firstSeen, nil
}

// topologicalOrder returns items parents-first (Kahn's algorithm over parent edges),
// assigning each item its low-level code on the way. Ties keep first-seen order.
func topologicalOrder(graph map[entities.ItemID]*dependencyNode, firstSeen []entities.ItemID) []entities.ItemID {
	inDegree := make(map[entities.ItemID]int, len(graph))
	queue := make([]entities.ItemID, 0)
	result := make([]entities.ItemID, 0, len(graph))

	for _, id := range firstSeen {
		inDegree[id] = len(graph[id].directParents)
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		result = append(result, current)

		node := graph[current]
		for _, childID := range node.directChildren {
			child := graph[childID]
			if node.level+1 > child.level {
				child.level = node.level + 1
			}
			inDegree[childID]--
			if inDegree[childID] == 0 {
				queue = append(queue, childID)
			}
		}
	}

	return result
}

// explodePerCall runs the recursive explosion where every call nets its own quantity
func (e *ExplosionEngine) explodePerCall(
	ctx context.Context,
	demands []entities.Demand,
	catalog *recipeCatalog,
	stock *stockLedger,
) (*dto.Explosion, error) {
	result := dto.NewExplosion(string(PerCallShortage))
	visitor := newPerCallVisitor(result, stock)
	traverser := newRecipeTraverser(catalog)

	for _, demand := range demands {
		if _, err := traverser.Traverse(ctx, demand.ItemID, demand.Quantity, visitor); err != nil {
			return nil, fmt.Errorf("failed to explode demand for %s: %w", demand.ItemID, err)
		}
	}

	// Bought items are netted once against their aggregate need
	for _, id := range result.Order {
		req := result.Requirements[id]
		if req.HasRecipe {
			continue
		}
		available, err := stock.available(ctx, id)
		if err != nil {
			return nil, err
		}
		req.Available = available
		req.Shortage = netShortage(req.Needed, available)
	}

	result.MissingRecipes = visitor.missing.items
	return result, nil
}

// isFeasible reports whether every shortage can be produced. Shortages on items with a
// recipe become work orders; a short bought item or a missing recipe cannot be planned.
func isFeasible(exp *dto.Explosion) bool {
	if len(exp.MissingRecipes) > 0 {
		return false
	}
	for _, req := range exp.Requirements {
		if req.IsShort() && !req.HasRecipe {
			return false
		}
	}
	return true
}

// netShortage is max(0, needed - max(0, available))
func netShortage(needed, available entities.Quantity) entities.Quantity {
	if available.IsNegative() {
		available = decimal.Zero
	}
	shortage := needed.Sub(available)
	if shortage.IsNegative() {
		return decimal.Zero
	}
	return shortage
}

// stockLedger caches availability per item for one explosion
type stockLedger struct {
	inventoryRepo       repositories.InventoryRepository
	includeReservations bool
	cache               map[entities.ItemID]entities.Quantity
}

func newStockLedger(inventoryRepo repositories.InventoryRepository, includeReservations bool) *stockLedger {
	return &stockLedger{
		inventoryRepo:       inventoryRepo,
		includeReservations: includeReservations,
		cache:               make(map[entities.ItemID]entities.Quantity),
	}
}

// available returns on-hand minus active reservations when reservations are included
func (s *stockLedger) available(ctx context.Context, id entities.ItemID) (entities.Quantity, error) {
	if qty, ok := s.cache[id]; ok {
		return qty, nil
	}
	onHand, err := s.inventoryRepo.GetOnHandQuantity(ctx, id)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get on-hand quantity for %s: %w", id, err)
	}
	available := onHand
	if s.includeReservations {
		reserved, err := s.inventoryRepo.GetActiveReservedQuantity(ctx, id)
		if err != nil {
			return decimal.Zero, fmt.Errorf("failed to get reserved quantity for %s: %w", id, err)
		}
		available = available.Sub(reserved)
	}
	s.cache[id] = available
	return available, nil
}

// missingSet keeps missing-recipe items unique in first-reported order
type missingSet struct {
	seen  map[entities.ItemID]bool
	items []entities.ItemID
}

func newMissingSet() *missingSet {
	return &missingSet{
		seen:  make(map[entities.ItemID]bool),
		items: make([]entities.ItemID, 0),
	}
}

func (m *missingSet) add(id entities.ItemID) {
	if m.seen[id] {
		return
	}
	m.seen[id] = true
	m.items = append(m.items, id)
}
