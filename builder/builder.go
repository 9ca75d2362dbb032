// Package builder assembles generated dof maps and integral blocks into a
// single C++ translation unit.
package builder

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/notargets/formc/dofmap"
	"github.com/notargets/formc/element"
	"github.com/notargets/formc/format"
	"github.com/notargets/formc/graphgen"
)

// DataType represents the precision of numerical data
type DataType int

const (
	Float32 DataType = iota + 1
	Float64
	INT32
	INT64
)

// Config holds configuration for creating a Builder
type Config struct {
	// Prefix of every generated function name
	Prefix    string
	FloatType DataType
	IntType   DataType
}

type namedDofMap struct {
	name string
	code *dofmap.Code
}

// Builder collects generated fragments and emits them as one unit
type Builder struct {
	Prefix string

	// Type configuration
	FloatType DataType
	IntType   DataType

	// Static data to embed
	StaticMatrices map[string]mat.Matrix

	dofMaps []namedDofMap
	forms   []*graphgen.FormCode
}

// New creates a new Builder instance
func New(cfg Config) *Builder {
	if cfg.FloatType == INT32 || cfg.FloatType == INT64 {
		panic("float type cannot be an integer type")
	}
	if cfg.IntType == Float32 || cfg.IntType == Float64 {
		panic("int type cannot be a floating point type")
	}

	// Set defaults
	floatType := cfg.FloatType
	if floatType == 0 {
		floatType = Float64
	}
	intType := cfg.IntType
	if intType == 0 {
		intType = INT64
	}

	return &Builder{
		Prefix:         cfg.Prefix,
		FloatType:      floatType,
		IntType:        intType,
		StaticMatrices: make(map[string]mat.Matrix),
	}
}

// Rules returns the statement syntax matching the emitted typedefs
func (b *Builder) Rules() format.UFC {
	return format.UFC{RealType: "real_t"}
}

// AddStaticMatrix adds a matrix to be embedded as a static const table
func (b *Builder) AddStaticMatrix(name string, m mat.Matrix) {
	b.StaticMatrices[name] = m
}

// AddReferenceCoordinates embeds the reference dof coordinates of a layout.
// Layouts without coordinates are ignored.
func (b *Builder) AddReferenceCoordinates(name string, lay *element.Layout) {
	if len(lay.Points) == 0 {
		return
	}
	rows, cols := len(lay.Points), len(lay.Points[0])
	m := mat.NewDense(rows, cols, nil)
	for i, p := range lay.Points {
		m.SetRow(i, p)
	}
	b.AddStaticMatrix(name, m)
}

// AddDofMap appends a dof map; its functions are prefixed by name
func (b *Builder) AddDofMap(name string, code *dofmap.Code) {
	b.dofMaps = append(b.dofMaps, namedDofMap{name: name, code: code})
}

// AddForm appends a compiled form
func (b *Builder) AddForm(fc *graphgen.FormCode) {
	b.forms = append(b.forms, fc)
}

func (b *Builder) name(s string) string {
	if b.Prefix == "" {
		return s
	}
	return b.Prefix + "_" + s
}

// Generate emits the translation unit
func (b *Builder) Generate() string {
	var sb strings.Builder

	sb.WriteString("// Code generated by formc. DO NOT EDIT.\n\n")
	sb.WriteString("#include <cmath>\n")
	sb.WriteString("#include <stdexcept>\n\n")

	// 1. Type definitions and constants
	sb.WriteString(b.generateTypeDefinitions())

	// 2. Static matrix declarations
	sb.WriteString(b.generateStaticMatrices())

	// 3. Dof maps
	for _, dm := range b.dofMaps {
		sb.WriteString(b.generateDofMap(dm.name, dm.code))
	}

	// 4. Integrals
	for _, fc := range b.forms {
		sb.WriteString(b.generateForm(fc))
	}

	return sb.String()
}

// realType is the C type behind real_t
func (b *Builder) realType() string {
	if b.FloatType == Float32 {
		return "float"
	}
	return "double"
}

// literal formats v as a constant of the configured precision
func (b *Builder) literal(v float64) string {
	if b.FloatType == Float32 {
		return strconv.FormatFloat(v, 'e', 7, 32) + "f"
	}
	return strconv.FormatFloat(v, 'e', 15, 64)
}

// generateTypeDefinitions creates type definitions based on precision settings
func (b *Builder) generateTypeDefinitions() string {
	intTypeStr := "long"
	if b.IntType == INT32 {
		intTypeStr = "int"
	}
	zero := "0.0"
	if b.FloatType == Float32 {
		zero += "f"
	}
	return fmt.Sprintf("typedef %s real_t;\ntypedef %s int_t;\n#define REAL_ZERO %s\n\n", b.realType(), intTypeStr, zero)
}

// generateStaticMatrices converts matrices to static array initializations,
// ordered by name
func (b *Builder) generateStaticMatrices() string {
	if len(b.StaticMatrices) == 0 {
		return ""
	}
	names := make([]string, 0, len(b.StaticMatrices))
	for name := range b.StaticMatrices {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString("// Static matrices\n")
	for _, name := range names {
		sb.WriteString(b.formatStaticMatrix(name, b.StaticMatrices[name]))
	}
	return sb.String()
}

// formatStaticMatrix writes m as a const two dimensional array, one brace
// enclosed row per line
func (b *Builder) formatStaticMatrix(name string, m mat.Matrix) string {
	rows, cols := m.Dims()
	lines := make([]string, rows)
	cells := make([]string, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			cells[j] = b.literal(m.At(i, j))
		}
		lines[i] = "    {" + strings.Join(cells, ", ") + "}"
	}
	return fmt.Sprintf("const %s %s[%d][%d] = {\n%s\n};\n\n", b.realType(), name, rows, cols,
		strings.Join(lines, ",\n"))
}

func writeAssignments(sb *strings.Builder, indent string, rules format.UFC, as []dofmap.Assignment) {
	for _, a := range as {
		sb.WriteString(indent)
		sb.WriteString(rules.Statement(a.Target, a.Value))
		sb.WriteString("\n")
	}
}

// generateDofMap emits one function per dof map fragment
func (b *Builder) generateDofMap(name string, code *dofmap.Code) string {
	var sb strings.Builder
	rules := b.Rules()
	fn := func(s string) string { return b.name(name + "_" + s) }

	sb.WriteString(fmt.Sprintf("// %s\n", code.Signature))
	sb.WriteString(fmt.Sprintf("const char* %s()\n{\n    return %q;\n}\n\n", fn("signature"), code.Signature))

	sb.WriteString(fmt.Sprintf("bool %s(unsigned int d)\n{\n    switch (d)\n    {\n", fn("needs_mesh_entities")))
	for d, v := range code.NeedsMeshEntities {
		sb.WriteString(fmt.Sprintf("    case %d:\n        return %s;\n", d, v))
	}
	sb.WriteString("    }\n    return false;\n}\n\n")

	sb.WriteString(fmt.Sprintf("unsigned int %s(const ufc::mesh& m)\n{\n    return %s;\n}\n\n",
		fn("global_dimension"), code.GlobalDimension))
	sb.WriteString(fmt.Sprintf("unsigned int %s()\n{\n    return %s;\n}\n\n", fn("local_dimension"), code.LocalDimension))
	sb.WriteString(fmt.Sprintf("unsigned int %s()\n{\n    return %s;\n}\n\n", fn("num_facet_dofs"), code.NumFacetDofs))
	sb.WriteString(fmt.Sprintf("unsigned int %s()\n{\n    return %s;\n}\n\n", fn("num_sub_dof_maps"), code.NumSubDofMaps))

	sb.WriteString(fmt.Sprintf("void %s(int_t* dofs, const ufc::mesh& m, const ufc::cell& c)\n{\n",
		fn("tabulate_dofs")))
	writeAssignments(&sb, "    ", rules, code.TabulateDofs)
	sb.WriteString("}\n\n")

	sb.WriteString(fmt.Sprintf("void %s(int_t* dofs, unsigned int facet)\n{\n    switch (facet)\n    {\n",
		fn("tabulate_facet_dofs")))
	for facet, as := range code.TabulateFacetDofs {
		sb.WriteString(fmt.Sprintf("    case %d:\n", facet))
		writeAssignments(&sb, "        ", rules, as)
		sb.WriteString("        break;\n")
	}
	sb.WriteString("    }\n}\n\n")

	coords := code.TabulateCoordinates
	sb.WriteString(fmt.Sprintf("void %s(double** coordinates, const ufc::cell& c)\n{\n", fn("tabulate_coordinates")))
	if coords.NotImplemented != "" {
		sb.WriteString("    " + coords.NotImplemented + "\n")
	} else {
		sb.WriteString("    " + coords.Prelude + "\n")
		writeAssignments(&sb, "    ", rules, coords.Assignments)
	}
	sb.WriteString("}\n\n")

	return sb.String()
}

// generateForm emits one function accumulating every integral group of a
// form. Temporaries are shared across groups so they live in one scope.
func (b *Builder) generateForm(fc *graphgen.FormCode) string {
	var sb strings.Builder
	rules := b.Rules()

	sb.WriteString(fmt.Sprintf("// Form %s\n", fc.Name))
	sb.WriteString(fmt.Sprintf("void %s(real_t& %s)\n{\n", b.name("tabulate_"+fc.Name), fc.Name))
	sb.WriteString(fmt.Sprintf("    %s = REAL_ZERO;\n", fc.Name))
	for _, g := range fc.Groups {
		sb.WriteString(fmt.Sprintf("\n    // %s integrals over subdomain %d\n", g.Domain, g.ID))
		for _, ic := range g.Integrals {
			for _, st := range ic.Statements {
				sb.WriteString("    " + rules.Assign(st.Target, st.Value) + "\n")
			}
		}
		sb.WriteString(fmt.Sprintf("    %s += %s;\n", fc.Name, g.Expression))
	}
	sb.WriteString("}\n\n")

	return sb.String()
}
