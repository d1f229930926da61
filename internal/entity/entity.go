// Package entity defines the extracted code entity model and the canonical
// key scheme that addresses entities in the store.
package entity

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Entity types.
const (
	TypeFunction = "function"
	TypeClass    = "class"
	TypeMethod   = "method"
	TypeVariable = "variable"
)

// Types lists all entity types in a fixed order, used for status counts and
// prefix scans.
var Types = []string{TypeClass, TypeFunction, TypeMethod, TypeVariable}

// Record is one structural fact extracted from a source file.
//
// Exactly one of Signature, Bases, ValueRepr is meaningful per entity type:
// Signature for function/method, Bases for class, ValueRepr for variable.
// Fields that don't apply are left at their zero value and omitted from JSON.
type Record struct {
	EntityType  string   `json:"entity_type"`
	FilePath    string   `json:"file_path"`
	Name        string   `json:"name"`
	Signature   string   `json:"signature,omitempty"`
	Docstring   string   `json:"docstring,omitempty"`
	LineStart   int      `json:"line_start"`
	LineEnd     int      `json:"line_end"`
	ParentClass string   `json:"parent_class,omitempty"`
	Bases       []string `json:"bases,omitempty"`
	ValueRepr   string   `json:"value_repr,omitempty"`
}

// Key returns the canonical store key for the record under the given project
// prefix. Methods are qualified by their parent class so that two classes in
// one file can define same-named methods without colliding.
func (r Record) Key(prefix string) string {
	if r.EntityType == TypeMethod {
		return fmt.Sprintf("%s:%s:%s:%s.%s", prefix, TypeMethod, r.FilePath, r.ParentClass, r.Name)
	}
	return fmt.Sprintf("%s:%s:%s:%s", prefix, r.EntityType, r.FilePath, r.Name)
}

// EmbedText renders the record as the text submitted to an embedding
// provider: type and qualified name, the structural detail for the type, and
// the docstring when present.
func (r Record) EmbedText() string {
	var b strings.Builder
	b.WriteString(r.EntityType)
	b.WriteByte(' ')
	if r.ParentClass != "" {
		b.WriteString(r.ParentClass)
		b.WriteByte('.')
	}
	b.WriteString(r.Name)
	switch r.EntityType {
	case TypeFunction, TypeMethod:
		if r.Signature != "" {
			b.WriteByte('\n')
			b.WriteString(r.Signature)
		}
	case TypeClass:
		if len(r.Bases) > 0 {
			b.WriteString("\nbases: ")
			b.WriteString(strings.Join(r.Bases, ", "))
		}
	case TypeVariable:
		if r.ValueRepr != "" {
			b.WriteString(" = ")
			b.WriteString(r.ValueRepr)
		}
	}
	if r.Docstring != "" {
		b.WriteByte('\n')
		b.WriteString(r.Docstring)
	}
	b.WriteString("\nfile: ")
	b.WriteString(r.FilePath)
	return b.String()
}

// Prefix derives the project prefix from a project root path. It is computed
// once per session and threaded explicitly through every component.
func Prefix(root string) string {
	name := filepath.Base(filepath.Clean(root))
	return "code:" + name
}

// FileIndexKey is the set of relative paths indexed for a project.
func FileIndexKey(prefix string) string {
	return prefix + ":file_index"
}

// FileEntitiesKey is the set of entity keys extracted from one file, used to
// clear a file's stale entities on refresh.
func FileEntitiesKey(prefix, relPath string) string {
	return prefix + ":file_entities:" + relPath
}

// MetadataKey holds the project metadata record.
func MetadataKey(prefix string) string {
	return prefix + ":metadata"
}

// EmbeddingKey maps an entity key to the key its embedding record is stored
// under. Both live under the same project prefix so a single prefix scan
// covers classic and vector data.
func EmbeddingKey(prefix, entityKey string) string {
	return prefix + ":embedding:" + strings.TrimPrefix(entityKey, prefix+":")
}

// EntityKeyFromEmbedding is the inverse of EmbeddingKey.
func EntityKeyFromEmbedding(prefix, embeddingKey string) string {
	return prefix + ":" + strings.TrimPrefix(embeddingKey, prefix+":embedding:")
}

// TypePrefix is the scan prefix for all entities of one type.
func TypePrefix(prefix, entityType string) string {
	return prefix + ":" + entityType + ":"
}

// EmbeddingPrefix is the scan prefix for all embedding records of a project.
func EmbeddingPrefix(prefix string) string {
	return prefix + ":embedding:"
}
