// Package dream models the user-defined management reporting layout (the
// "Dream P&L"): a hierarchical template of groups and lines, the assignment of
// raw accounts to lines, and the aggregation of parsed P&L data through it.
//
// The template tree is the sole source of truth for how raw accounts map to
// management categories. Multi-mapping is allowed (an account mapped to two
// lines is summed into both); dangling references contribute zero.
package dream

// NodeKind tags a tree node as a group (structural) or a line (mapped).
type NodeKind string

const (
	KindGroup NodeKind = "group"
	KindLine  NodeKind = "line"
)

// Node is one template tree node. Groups carry Children; lines carry
// MappedAccounts (account names, insertion order preserved for display).
type Node struct {
	ID             string   `json:"id"`
	Label          string   `json:"label"`
	Kind           NodeKind `json:"kind"`
	Children       []*Node  `json:"children,omitempty"`
	MappedAccounts []string `json:"mappedAccounts,omitempty"`
}

// IsGroup reports whether the node is a group.
func (n *Node) IsGroup() bool { return n.Kind == KindGroup }

// SectionGroups names the top-level group ids whose subtrees feed the three
// totals buckets. Making this explicit avoids the silent total-exclusion bug
// a hidden string-id convention would cause when the tree is restructured.
type SectionGroups struct {
	RevenueGroupID string `json:"revenueGroupId"`
	CogsGroupID    string `json:"cogsGroupId"`
	OpexGroupID    string `json:"opexGroupId"`
}

// DefaultSectionGroups matches the built-in template layout.
func DefaultSectionGroups() SectionGroups {
	return SectionGroups{RevenueGroupID: "rev", CogsGroupID: "cogs", OpexGroupID: "opex"}
}

// Template is a versioned management layout. Mutate only through the edit
// operations in this package; each returns a fully independent copy.
type Template struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Root          *Node         `json:"root"`
	SchemaVersion string        `json:"schemaVersion,omitempty"`
	Version       int           `json:"version,omitempty"`
	Sections      SectionGroups `json:"sections"`
}

// ValidationLevel separates structural errors from cosmetic warnings.
type ValidationLevel string

const (
	LevelError   ValidationLevel = "error"
	LevelWarning ValidationLevel = "warning"
)

// ValidationIssue is one finding from ValidateTemplate.
type ValidationIssue struct {
	Level   ValidationLevel `json:"level"`
	Message string          `json:"message"`
}
