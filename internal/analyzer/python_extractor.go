package analyzer

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	sitter "github.com/smacker/go-tree-sitter"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// walker extracts records from one parsed tree. Only direct children of the
// module become top-level records; only direct children of a class body
// become members of that class.
type walker struct {
	src          []byte
	previewLimit int
}

func (w *walker) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(w.src)
}

// fieldText returns the source text of a named field, reporting false when
// the field is absent.
func (w *walker) fieldText(n *sitter.Node, field string) (string, bool) {
	if n == nil {
		return "", false
	}
	child := n.ChildByFieldName(field)
	if child == nil {
		return "", false
	}
	return w.text(child), true
}

// guarded runs one field extraction, degrading to fallback if it panics on an
// unexpected tree shape.
func guarded[T any](fallback T, extract func() T) (out T) {
	defer func() {
		if recover() != nil {
			out = fallback
		}
	}()
	return extract()
}

func startLine(n *sitter.Node) int { return int(n.StartPoint().Row) + 1 }
func endLine(n *sitter.Node) int   { return int(n.EndPoint().Row) + 1 }

func (w *walker) module(root *sitter.Node) *AnalysisResult {
	result := &AnalysisResult{
		ModuleDocstring: blockDocstring(root, w.src),
		Imports:         []ImportRecord{},
		NestedImports:   []ImportRecord{},
		Functions:       []FunctionRecord{},
		Classes:         []ClassRecord{},
		Variables:       []Assignment{},
		Constants:       []Assignment{},
	}

	for i := 0; i < int(root.NamedChildCount()); i++ {
		stmt := root.NamedChild(i)
		switch stmt.Type() {
		case "import_statement", "import_from_statement", "future_import_statement":
			result.Imports = append(result.Imports, w.importRecord(stmt))
			continue
		case "function_definition":
			result.Functions = append(result.Functions, w.function(stmt, nil, false))
		case "class_definition":
			result.Classes = append(result.Classes, w.class(stmt, nil))
		case "decorated_definition":
			def := stmt.ChildByFieldName("definition")
			decorators := w.decorators(stmt)
			switch {
			case def == nil:
			case def.Type() == "function_definition":
				result.Functions = append(result.Functions, w.function(def, decorators, false))
			case def.Type() == "class_definition":
				result.Classes = append(result.Classes, w.class(def, decorators))
			}
		case "expression_statement":
			for _, a := range w.assignments(stmt) {
				if isConstantName(a.Name) {
					result.Constants = append(result.Constants, a)
				} else {
					result.Variables = append(result.Variables, a)
				}
			}
		}
		result.NestedImports = append(result.NestedImports, w.nestedImports(stmt)...)
	}

	result.Structure = buildStructure(result)
	return result
}

func buildStructure(r *AnalysisResult) Structure {
	deps := make(map[string]bool)
	for _, imp := range r.Imports {
		switch imp.Kind {
		case PlainImport:
			for _, n := range imp.Names {
				deps[n.Name] = true
			}
		case FromImport:
			if imp.Level == 0 && imp.Module != "" {
				deps[imp.Module] = true
			}
		}
	}
	dependencies := make([]string, 0, len(deps))
	for d := range deps {
		dependencies = append(dependencies, d)
	}
	sort.Strings(dependencies)

	var avg float64
	if len(r.Functions) > 0 {
		total := 0
		for _, fn := range r.Functions {
			total += fn.Complexity.Cyclomatic
		}
		avg = float64(total) / float64(len(r.Functions))
	}

	return Structure{
		Dependencies: dependencies,
		ComplexityMetrics: ComplexityMetrics{
			TotalFunctions:            len(r.Functions),
			TotalClasses:              len(r.Classes),
			TotalImports:              len(r.Imports),
			TotalVariables:            len(r.Variables),
			AverageFunctionComplexity: avg,
		},
	}
}

// Imports

func (w *walker) importRecord(node *sitter.Node) ImportRecord {
	rec := ImportRecord{Line: startLine(node), Names: []ImportedName{}}

	switch node.Type() {
	case "import_statement":
		rec.Kind = PlainImport
		for i := 0; i < int(node.NamedChildCount()); i++ {
			if name, ok := w.importedName(node.NamedChild(i)); ok {
				rec.Names = append(rec.Names, name)
			}
		}
	case "future_import_statement":
		rec.Kind = FromImport
		rec.Module = "__future__"
		for i := 0; i < int(node.NamedChildCount()); i++ {
			if name, ok := w.importedName(node.NamedChild(i)); ok {
				rec.Names = append(rec.Names, name)
			}
		}
	case "import_from_statement":
		rec.Kind = FromImport
		module := node.ChildByFieldName("module_name")
		if module != nil {
			if module.Type() == "relative_import" {
				for i := 0; i < int(module.NamedChildCount()); i++ {
					part := module.NamedChild(i)
					switch part.Type() {
					case "import_prefix":
						rec.Level = strings.Count(w.text(part), ".")
					case "dotted_name":
						rec.Module = w.text(part)
					}
				}
			} else {
				rec.Module = w.text(module)
			}
		}
		// The module name is the first named child; imported names follow it.
		for i := 1; i < int(node.NamedChildCount()); i++ {
			child := node.NamedChild(i)
			if child.Type() == "wildcard_import" {
				rec.Names = append(rec.Names, ImportedName{Name: "*"})
				continue
			}
			if name, ok := w.importedName(child); ok {
				rec.Names = append(rec.Names, name)
			}
		}
	}
	return rec
}

func (w *walker) importedName(n *sitter.Node) (ImportedName, bool) {
	switch n.Type() {
	case "dotted_name":
		return ImportedName{Name: w.text(n)}, true
	case "aliased_import":
		name, ok := w.fieldText(n, "name")
		if !ok {
			return ImportedName{}, false
		}
		alias, _ := w.fieldText(n, "alias")
		return ImportedName{Name: name, Alias: alias}, true
	}
	return ImportedName{}, false
}

// nestedImports collects imports below a top-level statement, in document order.
func (w *walker) nestedImports(stmt *sitter.Node) []ImportRecord {
	var out []ImportRecord
	for i := 0; i < int(stmt.NamedChildCount()); i++ {
		walk(stmt.NamedChild(i), func(n *sitter.Node) bool {
			switch n.Type() {
			case "import_statement", "import_from_statement", "future_import_statement":
				out = append(out, w.importRecord(n))
				return false
			}
			return n.NamedChildCount() > 0
		})
	}
	return out
}

// Functions

func (w *walker) function(node *sitter.Node, decorators []string, isMethod bool) FunctionRecord {
	if decorators == nil {
		decorators = []string{}
	}
	name, _ := w.fieldText(node, "name")
	fn := FunctionRecord{
		Name:       name,
		Line:       startLine(node),
		EndLine:    endLine(node),
		IsAsync:    isAsync(node),
		IsMethod:   isMethod,
		Decorators: decorators,
		Parameters: guarded([]Parameter{}, func() []Parameter {
			return w.parameters(node.ChildByFieldName("parameters"))
		}),
	}
	if ret, ok := w.fieldText(node, "return_type"); ok {
		fn.ReturnAnnotation = ret
	}

	body := node.ChildByFieldName("body")
	fn.Docstring = blockDocstring(body, w.src)
	fn.Complexity = Complexity{
		Cyclomatic:     cyclomatic(body),
		LineCount:      fn.EndLine - fn.Line + 1,
		ParameterCount: len(fn.Parameters),
	}
	fn.VariablesUsed = guarded([]string{}, func() []string { return w.variablesUsed(body) })

	if isMethod {
		fn.MethodType = classifyMethod(decorators)
		fn.Visibility = visibilityOf(name)
	}
	return fn
}

func isAsync(fn *sitter.Node) bool {
	for i := 0; i < int(fn.ChildCount()); i++ {
		switch fn.Child(i).Type() {
		case "async":
			return true
		case "def":
			return false
		}
	}
	return false
}

func (w *walker) decorators(decorated *sitter.Node) []string {
	out := []string{}
	for i := 0; i < int(decorated.NamedChildCount()); i++ {
		child := decorated.NamedChild(i)
		if child.Type() != "decorator" {
			continue
		}
		if expr := firstStatement(child); expr != nil {
			out = append(out, w.text(expr))
		}
	}
	return out
}

// parameters walks a parameter list in source order. Positional-only
// parameters are only known once the `/` marker is reached, so they are
// reclassified retroactively.
func (w *walker) parameters(list *sitter.Node) []Parameter {
	params := []Parameter{}
	if list == nil {
		return params
	}
	kind := ParamPositionalOrKeyword

	for i := 0; i < int(list.NamedChildCount()); i++ {
		child := list.NamedChild(i)
		switch child.Type() {
		case "positional_separator":
			for j := range params {
				if params[j].Kind == ParamPositionalOrKeyword {
					params[j].Kind = ParamPositional
				}
			}
		case "keyword_separator":
			kind = ParamKeywordOnly
		case "identifier", "tuple_pattern":
			params = append(params, Parameter{Name: w.text(child), Kind: kind})
		case "list_splat_pattern":
			params = append(params, Parameter{Name: w.splatName(child), Kind: ParamVarPositional})
			kind = ParamKeywordOnly
		case "dictionary_splat_pattern":
			params = append(params, Parameter{Name: w.splatName(child), Kind: ParamVarKeyword})
		case "typed_parameter":
			p := Parameter{Kind: kind}
			p.Annotation, _ = w.fieldText(child, "type")
			inner := child.NamedChild(0)
			switch inner.Type() {
			case "list_splat_pattern":
				p.Name, p.Kind = w.splatName(inner), ParamVarPositional
				kind = ParamKeywordOnly
			case "dictionary_splat_pattern":
				p.Name, p.Kind = w.splatName(inner), ParamVarKeyword
			default:
				p.Name = w.text(inner)
			}
			params = append(params, p)
		case "default_parameter", "typed_default_parameter":
			p := Parameter{Kind: kind}
			p.Name, _ = w.fieldText(child, "name")
			p.Annotation, _ = w.fieldText(child, "type")
			p.Default, _ = w.fieldText(child, "value")
			params = append(params, p)
		}
	}
	return params
}

func (w *walker) splatName(n *sitter.Node) string {
	if n.NamedChildCount() > 0 {
		return w.text(n.NamedChild(0))
	}
	return strings.TrimLeft(w.text(n), "*")
}

// classifyMethod maps the first bare staticmethod, classmethod or property
// decorator to a method type. Accessors such as x.setter do not count.
func classifyMethod(decorators []string) MethodType {
	for _, d := range decorators {
		switch d {
		case "staticmethod":
			return MethodStatic
		case "classmethod":
			return MethodClass
		case "property":
			return MethodProperty
		}
	}
	return MethodInstance
}

func visibilityOf(name string) Visibility {
	switch {
	case len(name) > 4 && strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__"):
		return VisibilityMagic
	case strings.HasPrefix(name, "__"):
		return VisibilityMangled
	case strings.HasPrefix(name, "_"):
		return VisibilityPrivate
	default:
		return VisibilityPublic
	}
}

// variablesUsed lists, in order of first appearance, the plain names a body
// reads or binds. Attribute members, keyword argument names, nested
// signatures and import statements are skipped.
func (w *walker) variablesUsed(body *sitter.Node) []string {
	names := []string{}
	if body == nil {
		return names
	}
	seen := make(map[string]bool)

	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		if n == nil {
			return
		}
		switch n.Type() {
		case "identifier":
			if name := w.text(n); !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
			return
		case "attribute":
			visit(n.ChildByFieldName("object"))
			return
		case "keyword_argument":
			visit(n.ChildByFieldName("value"))
			return
		case "function_definition", "class_definition", "lambda":
			visit(n.ChildByFieldName("body"))
			return
		case "import_statement", "import_from_statement", "future_import_statement",
			"global_statement", "nonlocal_statement", "comment":
			return
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			visit(n.NamedChild(i))
		}
	}
	visit(body)
	return names
}

// Classes

func (w *walker) class(node *sitter.Node, decorators []string) ClassRecord {
	if decorators == nil {
		decorators = []string{}
	}
	name, _ := w.fieldText(node, "name")
	cls := ClassRecord{
		Name:          name,
		Line:          startLine(node),
		EndLine:       endLine(node),
		Decorators:    decorators,
		Attributes:    []Attribute{},
		Methods:       []FunctionRecord{},
		NestedClasses: []NestedClass{},
	}
	cls.BaseClasses = guarded([]string{}, func() []string {
		return w.baseClasses(node.ChildByFieldName("superclasses"))
	})

	body := node.ChildByFieldName("body")
	cls.Docstring = blockDocstring(body, w.src)
	if body == nil {
		return cls
	}

	for i := 0; i < int(body.NamedChildCount()); i++ {
		stmt := body.NamedChild(i)
		switch stmt.Type() {
		case "function_definition":
			cls.Methods = append(cls.Methods, w.function(stmt, nil, true))
		case "class_definition":
			cls.NestedClasses = append(cls.NestedClasses, w.nestedClass(stmt))
		case "decorated_definition":
			def := stmt.ChildByFieldName("definition")
			switch {
			case def == nil:
			case def.Type() == "function_definition":
				cls.Methods = append(cls.Methods, w.function(def, w.decorators(stmt), true))
			case def.Type() == "class_definition":
				cls.NestedClasses = append(cls.NestedClasses, w.nestedClass(def))
			}
		case "expression_statement":
			for _, a := range w.assignments(stmt) {
				cls.Attributes = append(cls.Attributes, Attribute{
					Name:         a.Name,
					Line:         a.Line,
					Annotation:   a.Annotation,
					ValuePreview: a.ValuePreview,
				})
			}
		}
	}

	cls.Metrics = classMetrics(cls)
	return cls
}

func (w *walker) nestedClass(node *sitter.Node) NestedClass {
	name, _ := w.fieldText(node, "name")
	return NestedClass{Name: name, Line: startLine(node)}
}

func (w *walker) baseClasses(args *sitter.Node) []string {
	bases := []string{}
	if args == nil {
		return bases
	}
	for i := 0; i < int(args.NamedChildCount()); i++ {
		arg := args.NamedChild(i)
		switch arg.Type() {
		case "keyword_argument", "dictionary_splat", "comment":
			continue
		}
		bases = append(bases, w.text(arg))
	}
	return bases
}

func classMetrics(cls ClassRecord) ClassMetrics {
	m := ClassMetrics{
		TotalMethods:   len(cls.Methods),
		AttributeCount: len(cls.Attributes),
	}
	for _, method := range cls.Methods {
		switch name := method.Name; {
		case !strings.HasPrefix(name, "_"):
			m.PublicMethods++
		case !strings.HasPrefix(name, "__"):
			m.PrivateMethods++
		case strings.HasSuffix(name, "__"):
			m.MagicMethods++
		}
	}
	return m
}

// Assignments

// assignments returns one site per plain-name target of an assignment
// statement. Chained assignments (`a = b = 1`) yield one site per name.
func (w *walker) assignments(stmt *sitter.Node) []Assignment {
	if stmt.NamedChildCount() == 0 {
		return nil
	}
	node := stmt.NamedChild(0)
	if node.Type() != "assignment" {
		return nil
	}

	var targets []*sitter.Node
	var annotation string
	var value *sitter.Node
	for cur := node; cur != nil; {
		targets = append(targets, cur.ChildByFieldName("left"))
		if t, ok := w.fieldText(cur, "type"); ok && annotation == "" {
			annotation = t
		}
		right := cur.ChildByFieldName("right")
		if right != nil && right.Type() == "assignment" {
			cur = right
			continue
		}
		value = right
		cur = nil
	}

	var out []Assignment
	for _, target := range targets {
		if target == nil || target.Type() != "identifier" {
			continue
		}
		out = append(out, Assignment{
			Name:         w.text(target),
			Line:         startLine(stmt),
			Annotation:   annotation,
			ValueType:    guarded("unknown", func() string { return valueType(value, w.src) }),
			ValuePreview: guarded("", func() string { return w.preview(value) }),
		})
	}
	return out
}

func (w *walker) preview(value *sitter.Node) string {
	if value == nil {
		return ""
	}
	text := strings.TrimSpace(whitespaceRe.ReplaceAllString(w.text(value), " "))
	runes := []rune(text)
	if len(runes) > w.previewLimit {
		return string(runes[:w.previewLimit]) + "..."
	}
	return text
}

var literalTypes = map[string]string{
	"integer":                  "int",
	"float":                    "float",
	"true":                     "bool",
	"false":                    "bool",
	"none":                     "NoneType",
	"list":                     "list",
	"list_comprehension":       "list",
	"dictionary":               "dict",
	"dictionary_comprehension": "dict",
	"tuple":                    "tuple",
	"set":                      "set",
	"set_comprehension":        "set",
	"generator_expression":     "generator",
	"concatenated_string":      "str",
	"call":                     "call",
	"lambda":                   "lambda",
}

// valueType infers a display type from the kind of literal assigned.
func valueType(value *sitter.Node, src []byte) string {
	if value == nil {
		return "unknown"
	}
	switch value.Type() {
	case "string":
		raw := value.Content(src)
		prefix := strings.ToLower(raw[:max(strings.IndexAny(raw, `"'`), 0)])
		if strings.Contains(prefix, "b") {
			return "bytes"
		}
		return "str"
	case "unary_operator":
		if arg := value.ChildByFieldName("argument"); arg != nil {
			return valueType(arg, src)
		}
	case "parenthesized_expression":
		if value.NamedChildCount() == 1 {
			return valueType(value.NamedChild(0), src)
		}
	}
	if t, ok := literalTypes[value.Type()]; ok {
		return t
	}
	return "unknown"
}

// isConstantName reports whether every letter in name is uppercase. Names
// without letters are not constants.
func isConstantName(name string) bool {
	hasLetter := false
	for _, r := range name {
		if unicode.IsLetter(r) {
			if !unicode.IsUpper(r) {
				return false
			}
			hasLetter = true
		}
	}
	return hasLetter
}
