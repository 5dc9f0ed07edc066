package dream

import "testing"

func TestEnsureTemplateMetadata_VersionPolicy(t *testing.T) {
	tpl := testTemplate()
	tpl.Version = 3

	edited := EnsureTemplateMetadata(tpl, MetadataOptions{})
	if edited.Version != 4 {
		t.Errorf("edit should bump version: got %d", edited.Version)
	}

	hydrated := EnsureTemplateMetadata(tpl, MetadataOptions{PreserveVersion: true})
	if hydrated.Version != 3 {
		t.Errorf("hydrate should preserve version: got %d", hydrated.Version)
	}

	// missing metadata is defaulted
	bare := &Template{ID: "x", Root: group("root", "Root")}
	fixed := EnsureTemplateMetadata(bare, MetadataOptions{PreserveVersion: true})
	if fixed.SchemaVersion != SchemaVersion {
		t.Errorf("schema version not defaulted: %q", fixed.SchemaVersion)
	}
	if fixed.Version != 1 {
		t.Errorf("version not defaulted to 1: %d", fixed.Version)
	}
	if fixed.Sections != DefaultSectionGroups() {
		t.Errorf("sections not defaulted: %+v", fixed.Sections)
	}
}

func TestValidateTemplate(t *testing.T) {
	ok := testTemplate()
	if issues := ValidateTemplate(ok); HasErrors(issues) {
		t.Errorf("valid template flagged: %+v", issues)
	}

	missingRoot := &Template{ID: "x", SchemaVersion: SchemaVersion, Version: 1}
	if issues := ValidateTemplate(missingRoot); !HasErrors(issues) {
		t.Error("missing root should be an error")
	}

	rootNotGroup := &Template{ID: "x", SchemaVersion: SchemaVersion, Version: 1, Root: line("root", "Root")}
	if issues := ValidateTemplate(rootNotGroup); !HasErrors(issues) {
		t.Error("non-group root should be an error")
	}

	dup := testTemplate()
	dup.Root.Children = append(dup.Root.Children, line("rev_a", "Duplicate"))
	if issues := ValidateTemplate(dup); !HasErrors(issues) {
		t.Error("duplicate id should be an error")
	}

	noID := testTemplate()
	FindNode(noID.Root, "opex_a").ID = ""
	if issues := ValidateTemplate(noID); !HasErrors(issues) {
		t.Error("missing node id should be an error")
	}

	// metadata issues are warnings only
	noMeta := testTemplate()
	noMeta.SchemaVersion = ""
	noMeta.Version = 0
	issues := ValidateTemplate(noMeta)
	if HasErrors(issues) {
		t.Errorf("metadata issues must not be errors: %+v", issues)
	}
	if len(issues) != 2 {
		t.Errorf("expected 2 warnings, got %d", len(issues))
	}
}

func TestCollectNodeIDs(t *testing.T) {
	ids := CollectNodeIDs(testTemplate().Root)
	want := []string{"root", "rev", "rev_a", "rev_b", "cogs", "cogs_a", "opex", "opex_a"}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v", ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d] = %s, want %s", i, ids[i], want[i])
		}
	}
}

func TestDefaultTemplateIsValid(t *testing.T) {
	if issues := ValidateTemplate(DefaultTemplate()); HasErrors(issues) {
		t.Errorf("default template invalid: %+v", issues)
	}
}
