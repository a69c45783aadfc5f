package analyzer

// SourceFile holds line statistics derived from the raw text. None of these
// fields require a successful parse.
type SourceFile struct {
	TotalLines      int `json:"total_lines"`
	CodeLines       int `json:"code_lines"`
	CommentLines    int `json:"comment_lines"`
	BlankLines      int `json:"blank_lines"`
	TotalCharacters int `json:"total_characters"`
}

// ImportKind distinguishes `import a, b` from `from x import y`.
type ImportKind string

const (
	PlainImport ImportKind = "import"
	FromImport  ImportKind = "from"
)

// ImportedName is a single name listed by an import statement.
type ImportedName struct {
	Name  string `json:"name"`
	Alias string `json:"alias,omitempty"`
}

// ImportRecord describes one import statement.
//
// For PlainImport, Names lists the imported modules. For FromImport, Module is
// the source module (empty for `from . import x`), Names lists the imported
// names and Level counts the leading dots of a relative import.
type ImportRecord struct {
	Kind   ImportKind     `json:"type"`
	Module string         `json:"module,omitempty"`
	Names  []ImportedName `json:"imports"`
	Level  int            `json:"level"`
	Line   int            `json:"line"`
}

// ParamKind mirrors the five parameter categories of a Python signature.
type ParamKind string

const (
	ParamPositional          ParamKind = "positional"
	ParamPositionalOrKeyword ParamKind = "positional_or_keyword"
	ParamKeywordOnly         ParamKind = "keyword_only"
	ParamVarPositional       ParamKind = "var_positional"
	ParamVarKeyword          ParamKind = "var_keyword"
)

type Parameter struct {
	Name       string    `json:"name"`
	Annotation string    `json:"annotation,omitempty"`
	Default    string    `json:"default,omitempty"`
	Kind       ParamKind `json:"kind"`
}

type Complexity struct {
	Cyclomatic     int `json:"cyclomatic"`
	LineCount      int `json:"line_count"`
	ParameterCount int `json:"parameter_count"`
}

// MethodType classifies a method by its marker decorator.
type MethodType string

const (
	MethodInstance MethodType = "instance"
	MethodStatic   MethodType = "static"
	MethodClass    MethodType = "class"
	MethodProperty MethodType = "property"
)

// Visibility follows the Python underscore naming convention.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
	VisibilityMangled Visibility = "mangled"
	VisibilityMagic   Visibility = "magic"
)

// FunctionRecord describes a module-level function or a method.
// MethodType and Visibility are only set when IsMethod is true.
type FunctionRecord struct {
	Name             string      `json:"name"`
	Line             int         `json:"line"`
	EndLine          int         `json:"end_line"`
	IsAsync          bool        `json:"is_async"`
	IsMethod         bool        `json:"is_method"`
	MethodType       MethodType  `json:"method_type,omitempty"`
	Visibility       Visibility  `json:"visibility,omitempty"`
	Docstring        *string     `json:"docstring"`
	Parameters       []Parameter `json:"parameters"`
	ReturnAnnotation string      `json:"return_annotation,omitempty"`
	Decorators       []string    `json:"decorators"`
	Complexity       Complexity  `json:"complexity"`
	VariablesUsed    []string    `json:"variables_used"`
}

// Attribute is a class-body level assignment.
type Attribute struct {
	Name         string `json:"name"`
	Line         int    `json:"line"`
	Annotation   string `json:"annotation,omitempty"`
	ValuePreview string `json:"value_preview,omitempty"`
}

type NestedClass struct {
	Name string `json:"name"`
	Line int    `json:"line"`
}

type ClassMetrics struct {
	TotalMethods   int `json:"total_methods"`
	PublicMethods  int `json:"public_methods"`
	PrivateMethods int `json:"private_methods"`
	MagicMethods   int `json:"magic_methods"`
	AttributeCount int `json:"attribute_count"`
}

type ClassRecord struct {
	Name          string           `json:"name"`
	Line          int              `json:"line"`
	EndLine       int              `json:"end_line"`
	Docstring     *string          `json:"docstring"`
	BaseClasses   []string         `json:"base_classes"`
	Decorators    []string         `json:"decorators"`
	Attributes    []Attribute      `json:"attributes"`
	Methods       []FunctionRecord `json:"methods"`
	NestedClasses []NestedClass    `json:"nested_classes"`
	Metrics       ClassMetrics     `json:"metrics"`
}

// Assignment is one module-level assignment site. Re-assigning a name yields
// another Assignment rather than replacing the first one.
type Assignment struct {
	Name         string `json:"name"`
	Line         int    `json:"line"`
	Annotation   string `json:"annotation,omitempty"`
	ValueType    string `json:"type"`
	ValuePreview string `json:"value_preview,omitempty"`
}

type ComplexityMetrics struct {
	TotalFunctions            int     `json:"total_functions"`
	TotalClasses              int     `json:"total_classes"`
	TotalImports              int     `json:"total_imports"`
	TotalVariables            int     `json:"total_variables"`
	AverageFunctionComplexity float64 `json:"average_function_complexity"`
}

type Structure struct {
	Dependencies      []string          `json:"dependencies"`
	ComplexityMetrics ComplexityMetrics `json:"complexity_metrics"`
}

// AnalysisResult is the complete model of one source file.
type AnalysisResult struct {
	File            SourceFile       `json:"file_info"`
	ModuleDocstring *string          `json:"module_docstring"`
	Imports         []ImportRecord   `json:"imports"`
	NestedImports   []ImportRecord   `json:"nested_imports"`
	Functions       []FunctionRecord `json:"functions"`
	Classes         []ClassRecord    `json:"classes"`
	Variables       []Assignment     `json:"variables"`
	Constants       []Assignment     `json:"constants"`
	Structure       Structure        `json:"structure"`
}

// Class returns the top-level class with the given name.
func (r *AnalysisResult) Class(name string) (*ClassRecord, bool) {
	for i := range r.Classes {
		if r.Classes[i].Name == name {
			return &r.Classes[i], true
		}
	}
	return nil, false
}

// Function returns the module-level function with the given name.
func (r *AnalysisResult) Function(name string) (*FunctionRecord, bool) {
	for i := range r.Functions {
		if r.Functions[i].Name == name {
			return &r.Functions[i], true
		}
	}
	return nil, false
}
