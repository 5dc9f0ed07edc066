package dream

// Tree edits follow the clone-then-walk pattern: deep-clone the template,
// locate the target by id, mutate the clone, return it. Old references stay
// valid and unaffected. Version bumping is layered on top by the caller via
// EnsureTemplateMetadata.

// FindNode locates a node by id via depth-first search.
func FindNode(root *Node, id string) *Node {
	if root == nil {
		return nil
	}
	if root.ID == id {
		return root
	}
	for _, c := range root.Children {
		if hit := FindNode(c, id); hit != nil {
			return hit
		}
	}
	return nil
}

// FindGroup locates a group node by id; line nodes are not returned.
func FindGroup(root *Node, id string) *Node {
	n := FindNode(root, id)
	if n == nil || !n.IsGroup() {
		return nil
	}
	return n
}

// FindParent returns the parent group of id and the child's index, or nil.
func FindParent(root *Node, id string) (*Node, int) {
	if root == nil {
		return nil, -1
	}
	for i, c := range root.Children {
		if c.ID == id {
			return root, i
		}
		if c.IsGroup() {
			if p, idx := FindParent(c, id); p != nil {
				return p, idx
			}
		}
	}
	return nil, -1
}

// UpdateNodeLabel renames a node. Unknown ids are a no-op.
func UpdateNodeLabel(t *Template, nodeID, label string) *Template {
	next := CloneTemplate(t)
	if n := FindNode(next.Root, nodeID); n != nil {
		n.Label = label
	}
	return next
}

// SetLineMappings replaces a line's mapped account set wholesale. Callers
// compute the desired final set; there is no incremental add/remove here.
func SetLineMappings(t *Template, lineID string, mappedAccounts []string) *Template {
	next := CloneTemplate(t)
	if n := FindNode(next.Root, lineID); n != nil && n.Kind == KindLine {
		n.MappedAccounts = append([]string{}, mappedAccounts...)
	}
	return next
}

// AddLine appends a line to the given parent group.
func AddLine(t *Template, parentGroupID string, line *Node) *Template {
	next := CloneTemplate(t)
	if g := FindGroup(next.Root, parentGroupID); g != nil {
		line.Kind = KindLine
		g.Children = append(g.Children, line)
	}
	return next
}

// AddGroup appends a group to the given parent group.
func AddGroup(t *Template, parentGroupID string, group *Node) *Template {
	next := CloneTemplate(t)
	if g := FindGroup(next.Root, parentGroupID); g != nil {
		group.Kind = KindGroup
		g.Children = append(g.Children, group)
	}
	return next
}

// RemoveNode deletes a node from wherever it sits. The root is never removed.
func RemoveNode(t *Template, nodeID string) *Template {
	next := CloneTemplate(t)
	var walk func(g *Node)
	walk = func(g *Node) {
		kept := g.Children[:0]
		for _, c := range g.Children {
			if c.ID != nodeID {
				kept = append(kept, c)
			}
		}
		g.Children = kept
		for _, c := range g.Children {
			if c.IsGroup() {
				walk(c)
			}
		}
	}
	if next.Root != nil {
		walk(next.Root)
	}
	return next
}

// MoveChild reorders a child within its parent group. Out-of-range indices
// are a no-op.
func MoveChild(t *Template, parentID string, fromIdx, toIdx int) *Template {
	next := CloneTemplate(t)
	g := FindGroup(next.Root, parentID)
	if g == nil {
		return next
	}
	n := len(g.Children)
	if fromIdx < 0 || fromIdx >= n || toIdx < 0 || toIdx >= n {
		return next
	}
	item := g.Children[fromIdx]
	rest := append(g.Children[:fromIdx:fromIdx], g.Children[fromIdx+1:]...)
	children := make([]*Node, 0, n)
	children = append(children, rest[:toIdx]...)
	children = append(children, item)
	children = append(children, rest[toIdx:]...)
	g.Children = children
	return next
}
