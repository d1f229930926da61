// Package extract parses Python source with tree-sitter and produces entity
// records for module-level functions, classes, methods, and class/module
// variables.
package extract

import (
	"context"
	"fmt"
	"log/slog"

	"cortex/internal/entity"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// ParseFailure reports a file that could not be parsed at all. It is fatal
// for the file, not for the batch: callers log it and continue.
type ParseFailure struct {
	FilePath string
	Reason   string
}

func (e *ParseFailure) Error() string {
	return fmt.Sprintf("parse %s: %s", e.FilePath, e.Reason)
}

// Extractor turns Python source into entity records. Safe for concurrent use;
// each call builds its own parser because tree-sitter parsers are not
// shareable across goroutines.
type Extractor struct {
	logger *slog.Logger
}

// New creates an Extractor. A nil logger falls back to slog.Default.
func New(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

// Extract parses src and returns the entities of the file at relPath (the
// forward-slash path relative to the project root, used verbatim in records).
// Malformed sub-nodes are skipped with a warning; only a file that yields no
// syntax tree at all produces a ParseFailure.
func (x *Extractor) Extract(ctx context.Context, src []byte, relPath string) ([]entity.Record, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, &ParseFailure{FilePath: relPath, Reason: err.Error()}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, &ParseFailure{FilePath: relPath, Reason: "no syntax tree"}
	}

	w := &walker{src: src, relPath: relPath, logger: x.logger}
	for i := 0; i < int(root.NamedChildCount()); i++ {
		// Context starts empty at module level; class bodies pass their
		// class name down instead of mutating the tree.
		w.statement(root.NamedChild(i), "")
	}
	return w.records, nil
}

// walker accumulates records during one file's traversal.
type walker struct {
	src     []byte
	relPath string
	logger  *slog.Logger
	records []entity.Record
}

// statement dispatches one statement node. parentClass is the traversal
// context: empty at module level, the class name inside a class body.
func (w *walker) statement(node *sitter.Node, parentClass string) {
	if node == nil {
		return
	}
	if node.HasError() && node.Type() != "class_definition" {
		// A broken subtree can't be trusted for structure; skip it and keep
		// going with the rest of the file. Class bodies are still walked so
		// one bad method doesn't hide its siblings.
		w.logger.Warn("skipping malformed node",
			"file", w.relPath, "node", node.Type(), "line", int(node.StartPoint().Row)+1)
		return
	}

	switch node.Type() {
	case "decorated_definition":
		w.statement(node.ChildByFieldName("definition"), parentClass)
	case "function_definition":
		w.function(node, parentClass)
	case "class_definition":
		if parentClass != "" {
			return // nested classes are out of scope
		}
		w.class(node)
	case "expression_statement":
		w.assignment(node, parentClass)
	}
}

func (w *walker) function(node *sitter.Node, parentClass string) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		w.logger.Warn("function without name", "file", w.relPath, "line", int(node.StartPoint().Row)+1)
		return
	}

	rec := entity.Record{
		Name:      nameNode.Content(w.src),
		FilePath:  w.relPath,
		Signature: signature(node, w.src),
		Docstring: docstring(node.ChildByFieldName("body"), w.src),
		LineStart: int(node.StartPoint().Row) + 1,
		LineEnd:   int(node.EndPoint().Row) + 1,
	}
	if parentClass != "" {
		rec.EntityType = entity.TypeMethod
		rec.ParentClass = parentClass
	} else {
		rec.EntityType = entity.TypeFunction
	}
	w.records = append(w.records, rec)
}

func (w *walker) class(node *sitter.Node) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		w.logger.Warn("class without name", "file", w.relPath, "line", int(node.StartPoint().Row)+1)
		return
	}
	name := nameNode.Content(w.src)

	w.records = append(w.records, entity.Record{
		EntityType: entity.TypeClass,
		Name:       name,
		FilePath:   w.relPath,
		Bases:      bases(node.ChildByFieldName("superclasses"), w.src),
		Docstring:  docstring(node.ChildByFieldName("body"), w.src),
		LineStart:  int(node.StartPoint().Row) + 1,
		LineEnd:    int(node.EndPoint().Row) + 1,
	})

	body := node.ChildByFieldName("body")
	if body == nil {
		return
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		w.statement(body.NamedChild(i), name)
	}
}

// assignment emits a variable record for `name = value` statements whose
// target is a simple identifier. Annotated assignments (`name: T = value`)
// and compound targets are left alone.
func (w *walker) assignment(stmt *sitter.Node, parentClass string) {
	if stmt.NamedChildCount() != 1 {
		return
	}
	assign := stmt.NamedChild(0)
	if assign.Type() != "assignment" || assign.ChildByFieldName("type") != nil {
		return
	}
	left := assign.ChildByFieldName("left")
	right := assign.ChildByFieldName("right")
	if left == nil || right == nil || left.Type() != "identifier" {
		return
	}

	rec := entity.Record{
		EntityType: entity.TypeVariable,
		Name:       left.Content(w.src),
		FilePath:   w.relPath,
		ValueRepr:  valueRepr(right, w.src),
		LineStart:  int(assign.StartPoint().Row) + 1,
		LineEnd:    int(assign.EndPoint().Row) + 1,
	}
	if parentClass != "" {
		rec.ParentClass = parentClass
	}
	w.records = append(w.records, rec)
}

// Placeholders for values that don't reduce to a short literal.
const (
	reprSequence = "[...]"
	reprMapping  = "{...}"
	reprComplex  = "<complex>"
)

func valueRepr(value *sitter.Node, src []byte) string {
	switch value.Type() {
	case "string", "concatenated_string", "integer", "float", "true", "false", "none":
		return collapseSpace(value.Content(src))
	case "list", "tuple", "set":
		return reprSequence
	case "dictionary":
		return reprMapping
	default:
		return reprComplex
	}
}

// bases renders a class's superclass list. Plain and dotted names are kept
// verbatim; anything fancier collapses to the complex placeholder.
func bases(superclasses *sitter.Node, src []byte) []string {
	if superclasses == nil {
		return nil
	}
	var out []string
	for i := 0; i < int(superclasses.NamedChildCount()); i++ {
		base := superclasses.NamedChild(i)
		switch base.Type() {
		case "identifier", "attribute":
			out = append(out, base.Content(src))
		case "keyword_argument":
			// metaclass=..., not a base
		default:
			out = append(out, reprComplex)
		}
	}
	return out
}
