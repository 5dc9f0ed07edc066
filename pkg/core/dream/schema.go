package dream

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// SchemaVersion identifies the current template serialization format.
const SchemaVersion = "dream-template/v1"

// CloneTemplate deep-copies a template through JSON so the returned value
// shares no mutable state with the input.
func CloneTemplate(t *Template) *Template {
	data, err := json.Marshal(t)
	if err != nil {
		// templates are plain data; marshal cannot fail for valid trees
		panic(fmt.Sprintf("clone template: %v", err))
	}
	var out Template
	if err := json.Unmarshal(data, &out); err != nil {
		panic(fmt.Sprintf("clone template: %v", err))
	}
	return &out
}

// MetadataOptions controls EnsureTemplateMetadata versioning.
type MetadataOptions struct {
	// PreserveVersion keeps the current version number. Used when hydrating
	// remote state so a load does not appear as a local edit.
	PreserveVersion bool
}

// EnsureTemplateMetadata normalizes schema/version metadata on a committed
// template. Each edit bumps Version by one unless preservation is requested.
func EnsureTemplateMetadata(t *Template, opts MetadataOptions) *Template {
	next := CloneTemplate(t)
	if next.SchemaVersion == "" {
		next.SchemaVersion = SchemaVersion
	}
	if next.Sections == (SectionGroups{}) {
		next.Sections = DefaultSectionGroups()
	}
	version := next.Version
	if version < 1 {
		version = 1
	}
	if opts.PreserveVersion {
		next.Version = version
	} else {
		next.Version = version + 1
	}
	return next
}

// CollectNodeIDs returns every node id in depth-first order.
func CollectNodeIDs(root *Node) []string {
	ids := []string{}
	var walk func(n *Node)
	walk = func(n *Node) {
		ids = append(ids, n.ID)
		if n.IsGroup() {
			for _, c := range n.Children {
				walk(c)
			}
		}
	}
	if root != nil {
		walk(root)
	}
	return ids
}

// ValidateTemplate walks the tree once. Errors mean the template is
// structurally invalid and must be rejected; warnings are cosmetic.
func ValidateTemplate(t *Template) []ValidationIssue {
	issues := []ValidationIssue{}

	if t.SchemaVersion == "" {
		issues = append(issues, ValidationIssue{LevelWarning, "Missing schemaVersion; assuming latest."})
	} else if t.SchemaVersion != SchemaVersion {
		issues = append(issues, ValidationIssue{LevelWarning,
			fmt.Sprintf("Schema version mismatch (%s); expected %s.", t.SchemaVersion, SchemaVersion)})
	}

	if t.Version < 1 {
		issues = append(issues, ValidationIssue{LevelWarning, "Template version is missing; will default to 1."})
	}

	if t.Root == nil || !t.Root.IsGroup() {
		issues = append(issues, ValidationIssue{LevelError, "Template root is missing or invalid."})
		return issues
	}

	seen := map[string]bool{}
	var walk func(n *Node)
	walk = func(n *Node) {
		if n.ID == "" {
			issues = append(issues, ValidationIssue{LevelError, fmt.Sprintf("Node %q is missing an id.", n.Label)})
		} else if seen[n.ID] {
			issues = append(issues, ValidationIssue{LevelError, fmt.Sprintf("Duplicate node id %q.", n.ID)})
		} else {
			seen[n.ID] = true
		}
		if n.IsGroup() {
			for _, c := range n.Children {
				walk(c)
			}
		}
	}
	walk(t.Root)

	return issues
}

// HasErrors reports whether any issue is error-level.
func HasErrors(issues []ValidationIssue) bool {
	for _, iss := range issues {
		if iss.Level == LevelError {
			return true
		}
	}
	return false
}

// FlattenLines returns every line under node in depth-first order.
func FlattenLines(node *Node) []*Node {
	out := []*Node{}
	var walk func(n *Node)
	walk = func(n *Node) {
		for _, c := range n.Children {
			if c.Kind == KindLine {
				out = append(out, c)
			} else {
				walk(c)
			}
		}
	}
	if node != nil {
		walk(node)
	}
	return out
}

// GenerateNodeID makes a fresh node id with a readable prefix.
func GenerateNodeID(prefix string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s_%s", prefix, suffix)
}
