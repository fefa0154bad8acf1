/*
bom.go - Bill of materials graph

PURPOSE:
  Holds the item catalog and the parent→child consumption edges, indexed
  for explosion. The edge set is intended to form a DAG; a cycle is a hard
  data error surfaced to the caller, never silently resolved.

LIFECYCLE:
  A Graph is loaded once per session from external catalog/BOM providers
  and treated as read-only for the duration of an evaluation cycle.

SEE ALSO:
  - explosion.go: Recursive demand explosion over this graph
  - providers.go: Catalog/BOM data sources
*/
package planning

// Graph is an indexed, read-only view of the item catalog and BOM edges.
type Graph struct {
	items    map[ItemID]Item
	children map[ItemID][]BOMEdge
}

// NewGraph builds an indexed graph from a catalog and edge list.
// Referential integrity is NOT checked here; call Validate before use.
func NewGraph(items []Item, edges []BOMEdge) *Graph {
	g := &Graph{
		items:    make(map[ItemID]Item, len(items)),
		children: make(map[ItemID][]BOMEdge, len(items)),
	}
	for _, it := range items {
		g.items[it.ID] = it
	}
	for _, e := range edges {
		g.children[e.ParentID] = append(g.children[e.ParentID], e)
	}
	return g
}

// Item looks up a catalog entry.
func (g *Graph) Item(id ItemID) (Item, error) {
	it, ok := g.items[id]
	if !ok {
		return Item{}, &MissingItemError{ItemID: id}
	}
	return it, nil
}

// Children returns the outgoing consumption edges of an item. An item with
// no outgoing edges is a leaf (raw material, packaging or labor).
func (g *Graph) Children(id ItemID) []BOMEdge {
	return g.children[id]
}

// IsLeaf reports whether the item has no outgoing edges.
func (g *Graph) IsLeaf(id ItemID) bool {
	return len(g.children[id]) == 0
}

// Items returns all catalog entries in unspecified order.
func (g *Graph) Items() []Item {
	items := make([]Item, 0, len(g.items))
	for _, it := range g.items {
		items = append(items, it)
	}
	return items
}

// Edges returns all BOM edges in unspecified order.
func (g *Graph) Edges() []BOMEdge {
	var edges []BOMEdge
	for _, es := range g.children {
		edges = append(edges, es...)
	}
	return edges
}

// Validate checks referential integrity (every edge endpoint exists in the
// catalog) and full-graph acyclicity. Explosion re-detects cycles along its
// own path, but validating up front lets a corrupt BOM fail at load time.
func (g *Graph) Validate() error {
	for parent, edges := range g.children {
		if _, ok := g.items[parent]; !ok {
			return &MissingItemError{ItemID: parent}
		}
		for _, e := range edges {
			if _, ok := g.items[e.ChildID]; !ok {
				return &MissingItemError{ItemID: e.ChildID}
			}
		}
	}

	// Depth-first cycle check over every component.
	state := make(map[ItemID]int, len(g.items)) // 0 unvisited, 1 visiting, 2 done
	var path []ItemID
	var visit func(ItemID) error
	visit = func(id ItemID) error {
		switch state[id] {
		case 1:
			return &CycleError{Path: append(append([]ItemID{}, path...), id)}
		case 2:
			return nil
		}
		state[id] = 1
		path = append(path, id)
		for _, e := range g.children[id] {
			if err := visit(e.ChildID); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		state[id] = 2
		return nil
	}
	for id := range g.items {
		if err := visit(id); err != nil {
			return err
		}
	}
	return nil
}
