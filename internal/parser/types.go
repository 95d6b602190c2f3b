// Package parser extracts declaration blocks from Terraform module sources.
// It treats module source as semi-structured text: top-level blocks are
// located by their opening signature and matched by brace depth, not by a
// full HCL grammar. Byte ranges are exact so that downstream patching can
// anchor replacements to block bodies.
package parser

// BlockKind is the declaration kind of a top-level block.
type BlockKind string

const (
	KindResource   BlockKind = "resource"
	KindVariable   BlockKind = "variable"
	KindOutput     BlockKind = "output"
	KindProvider   BlockKind = "provider"
	KindModuleCall BlockKind = "module"
)

// DeclarationBlock is one top-level block, read-only once produced.
// Start/End delimit the whole block in the source file, End pointing just
// past the closing brace. Body is the text between the braces.
type DeclarationBlock struct {
	Kind         BlockKind
	TypeName     string // first label: resource type, variable name, etc.
	InstanceName string // second label, empty for single-label kinds
	Body         string
	SourceFile   string
	Start        int
	End          int
}

// Address returns the conventional "type.name" form used by scanners to
// reference a resource.
func (b DeclarationBlock) Address() string {
	if b.InstanceName == "" {
		return b.TypeName
	}
	return b.TypeName + "." + b.InstanceName
}

// VariableSpec describes one module input. HasDefault distinguishes an
// absent default from an explicitly empty one; Required is true exactly
// when no default is declared.
type VariableSpec struct {
	Name        string
	Type        string
	Default     string
	HasDefault  bool
	Description string
	Required    bool
	SourceFile  string
}

// OutputSpec describes one module output.
type OutputSpec struct {
	Name        string
	Description string
	SourceFile  string
}

// ModuleModel is the structured result of extracting a snapshot.
// Inputs and Outputs keep declaration order; variable names are unique
// across the whole model.
type ModuleModel struct {
	Inputs    []VariableSpec
	Outputs   []OutputSpec
	Resources []DeclarationBlock
	DocTitle  string // first top-level heading of the README, verbatim
	Readme    string
}

// Resource returns the resource block matching file and address, if any.
func (m *ModuleModel) Resource(file, address string) (DeclarationBlock, bool) {
	for _, b := range m.Resources {
		if b.Kind != KindResource {
			continue
		}
		if b.Address() == address && (file == "" || b.SourceFile == file) {
			return b, true
		}
	}
	return DeclarationBlock{}, false
}
