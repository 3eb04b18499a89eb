package driver

import (
	"fmt"
	"os"

	goyaml "github.com/goccy/go-yaml"

	"github.com/glyphlang/glyphc/internal/namespace"
	"github.com/glyphlang/glyphc/internal/node"
	"github.com/glyphlang/glyphc/internal/reader"
	"github.com/glyphlang/glyphc/internal/types"
)

// dtmPathFor derives the `.dtm` module-file name for an imported module
// name (spec §6).
func dtmPathFor(moduleName string) string {
	return moduleName
}

// FunctionInfo is one extern function/macro overload in a `.dtm` snapshot.
// Types are stored as their spec §6 type-syntax text (Type.String()'s
// format), not as a binary encoding, so the file is readable and diffable
// the way the teacher's own `.dwc`/unit-symbol-table serialization is.
type FunctionInfo struct {
	Name       string   `yaml:"name"`
	ReturnType string   `yaml:"return_type"`
	ParamTypes []string `yaml:"param_types"`
	Linkage    string   `yaml:"linkage"`
	IsMacro    bool     `yaml:"is_macro"`
	Variadic   bool     `yaml:"variadic"`
}

// FieldInfo is one struct field.
type FieldInfo struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// StructInfo is one root-level struct. Structs carry no linkage, so every
// root-level struct is written, intern or extern.
type StructInfo struct {
	Name     string      `yaml:"name"`
	Fields   []FieldInfo `yaml:"fields"`
	MustInit bool        `yaml:"must_init"`
}

// MemberInfo is one enum member.
type MemberInfo struct {
	Name  string `yaml:"name"`
	Value int64  `yaml:"value"`
}

// EnumInfo is one root-level enum. Enums carry no linkage, so every
// root-level enum is written, intern or extern.
type EnumInfo struct {
	Name           string       `yaml:"name"`
	UnderlyingType string       `yaml:"underlying_type"`
	Members        []MemberInfo `yaml:"members"`
}

// VariableInfo is one extern variable.
type VariableInfo struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	Linkage string `yaml:"linkage"`
}

// DTMModule is the `.dtm` file's structure (spec §6): namespace contents
// (functions and variables other than intern/auto linkage; every
// root-level struct and enum, since those carry no linkage), the
// once-tag set, the imported-
// module list, the compile-time-only flag, and a type-alias map (string
// aliases for struct names).
type DTMModule struct {
	Module      string            `yaml:"module"`
	OnceTags    []string          `yaml:"once_tags"`
	Imports     []string          `yaml:"imports"`
	IsCTO       bool              `yaml:"is_cto"`
	TypeAliases map[string]string `yaml:"type_aliases"`

	Functions []FunctionInfo `yaml:"functions"`
	Structs   []StructInfo   `yaml:"structs"`
	Enums     []EnumInfo     `yaml:"enums"`
	Variables []VariableInfo `yaml:"variables"`
}

// SnapshotDTM builds a DTMModule from the driver's current root namespace
// and session state, ready to be written out after a module finishes
// compiling. Only root-level bindings are captured, matching
// namespace.Namespace.Merge's own non-recursive contract — a nested
// `(namespace ...)` is not independently `.dtm`-addressable in this
// implementation, the same restriction Merge already has.
func (d *Driver) SnapshotDTM() *DTMModule {
	root := d.Sess.Root
	mod := &DTMModule{
		Module:      d.Sess.ModuleName,
		OnceTags:    sortedKeys(d.Sess.OnceTags),
		Imports:     append([]string(nil), d.Sess.ImportedModules...),
		IsCTO:       d.Sess.IsCTO,
		TypeAliases: make(map[string]string),
	}
	for name, fns := range root.Functions() {
		for _, f := range fns {
			if f.Linkage == namespace.LinkageIntern || f.Linkage == namespace.LinkageAuto {
				continue
			}
			params := f.RealParams()
			paramStrs := make([]string, len(params))
			for i, p := range params {
				paramStrs[i] = p.String()
			}
			mod.Functions = append(mod.Functions, FunctionInfo{
				Name: name, ReturnType: f.Type.ReturnType.String(), ParamTypes: paramStrs,
				Linkage: f.Linkage.String(), IsMacro: f.IsMacro, Variadic: f.Type.IsVariadic(),
			})
		}
	}
	for name, s := range root.Structs() {
		fields := make([]FieldInfo, len(s.Fields))
		for i, fld := range s.Fields {
			fields[i] = FieldInfo{Name: fld.Name, Type: fld.Type.String()}
		}
		mod.Structs = append(mod.Structs, StructInfo{Name: name, Fields: fields, MustInit: s.MustInit})
		mod.TypeAliases[name] = s.Type.String()
	}
	for name, en := range root.Enums() {
		members := make([]MemberInfo, len(en.Members))
		for i, m := range en.Members {
			members[i] = MemberInfo{Name: m.Name, Value: m.Value}
		}
		mod.Enums = append(mod.Enums, EnumInfo{Name: name, UnderlyingType: en.Type.String(), Members: members})
	}
	for name, v := range root.Variables() {
		if v.Linkage == namespace.LinkageIntern || v.Linkage == namespace.LinkageAuto {
			continue
		}
		mod.Variables = append(mod.Variables, VariableInfo{Name: name, Type: v.Type.String(), Linkage: v.Linkage.String()})
	}
	return mod
}

// WriteDTM serializes mod to path as YAML (github.com/goccy/go-yaml, the
// library the teacher already uses for its own unit/symbol-table
// serialization).
func WriteDTM(path string, mod *DTMModule) error {
	data, err := goyaml.Marshal(mod)
	if err != nil {
		return fmt.Errorf("marshal .dtm: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadDTM reads and parses a `.dtm` file.
func LoadDTM(path string) (*DTMModule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read .dtm: %w", err)
	}
	var mod DTMModule
	if err := goyaml.Unmarshal(data, &mod); err != nil {
		return nil, fmt.Errorf("unmarshal .dtm: %w", err)
	}
	return &mod, nil
}

// parseTypeString reconstructs a *types.Type from its spec §6 type-syntax
// text by round-tripping it through the reference reader and the
// evaluator's own ParseType (the same function `(def NAME (var ... TYPE
// ...))` uses), rather than duplicating type-syntax parsing here.
func (d *Driver) parseTypeString(s string) (*types.Type, error) {
	forms, errs := reader.Parse("(" + s + ")")
	if len(errs) > 0 || len(forms) == 0 || len(forms[0].Children) == 0 {
		return nil, fmt.Errorf("malformed type syntax %q", s)
	}
	t, cerr := d.Eval.ParseType(forms[0].Children[0])
	if cerr != nil {
		return nil, fmt.Errorf("%s", cerr.Error())
	}
	return t, nil
}

// toNamespace rebuilds an in-memory Namespace from a loaded DTMModule,
// declaring a forward (IsDeclaration) IR handle for each function and
// global for each variable so the importing module's own IR can
// reference them by symbol.
func (mod *DTMModule) toNamespace(d *Driver) *namespace.Namespace {
	ns := namespace.NewRoot()
	for _, fi := range mod.Functions {
		retType, err := d.parseTypeString(fi.ReturnType)
		if err != nil {
			continue
		}
		paramTypes := make([]*types.Type, 0, len(fi.ParamTypes))
		for _, ps := range fi.ParamTypes {
			pt, err := d.parseTypeString(ps)
			if err != nil {
				continue
			}
			paramTypes = append(paramTypes, pt)
		}
		linkage, _ := namespace.ParseLinkage(fi.Linkage)
		fnType := d.Sess.Types.Function(retType, paramTypes)
		handle := d.Sess.Builder.CreateFunction(fi.Name, retType, paramTypes)
		fn := &namespace.Function{
			Name: fi.Name, Type: fnType, IsMacro: fi.IsMacro, IsDeclaration: true,
			Linkage: linkage, Handle: handle,
		}
		_ = ns.AddFunction(node.Span{}, fi.Name, fn)
	}
	for _, si := range mod.Structs {
		fields := make([]namespace.StructField, len(si.Fields))
		for i, f := range si.Fields {
			ft, err := d.parseTypeString(f.Type)
			if err != nil {
				continue
			}
			fields[i] = namespace.StructField{Name: f.Name, Type: ft}
		}
		st := &namespace.Struct{
			Name: si.Name, Type: d.Sess.Types.StructRef(si.Name, nil), Fields: fields, MustInit: si.MustInit,
		}
		_ = ns.AddStruct(node.Span{}, si.Name, st)
	}
	for _, ei := range mod.Enums {
		underlying, err := d.parseTypeString(ei.UnderlyingType)
		if err != nil {
			underlying = d.Sess.Types.Basic(types.Int)
		}
		members := make([]namespace.EnumMember, len(ei.Members))
		for i, m := range ei.Members {
			members[i] = namespace.EnumMember{Name: m.Name, Value: m.Value}
		}
		en := &namespace.Enum{Name: ei.Name, Type: underlying, Members: members}
		_ = ns.AddEnum(node.Span{}, ei.Name, en)
	}
	for _, vi := range mod.Variables {
		vt, err := d.parseTypeString(vi.Type)
		if err != nil {
			continue
		}
		linkage, _ := namespace.ParseLinkage(vi.Linkage)
		zero := d.Sess.Builder.ConstInt(d.Sess.Types.Basic(types.Int), 0)
		storage := d.Sess.Builder.GlobalVariable(vi.Name, vt, true, zero)
		v := &namespace.Variable{Name: vi.Name, Type: vt, Linkage: linkage, Storage: storage}
		_ = ns.AddVariable(node.Span{}, vi.Name, v)
	}
	return ns
}

// FilterTo reports which of wanted names are absent from ns (functions,
// structs, enums, or variables), for `import`'s optional form-list.
func filterTo(ns *namespace.Namespace, wanted []string) []string {
	var missing []string
	for _, w := range wanted {
		if _, ok := ns.Functions()[w]; ok {
			continue
		}
		if _, ok := ns.Structs()[w]; ok {
			continue
		}
		if _, ok := ns.Enums()[w]; ok {
			continue
		}
		if _, ok := ns.Variables()[w]; ok {
			continue
		}
		missing = append(missing, w)
	}
	return missing
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}
