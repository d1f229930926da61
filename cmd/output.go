package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"cortex/internal/entity"
	"cortex/internal/index"
	"cortex/internal/vector"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	nameStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("78"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	scoreStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("141"))
)

// printJSON emits any value as indented JSON on stdout.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printEntity(rec entity.Record) {
	qualified := rec.Name
	if rec.ParentClass != "" {
		qualified = rec.ParentClass + "." + rec.Name
	}
	fmt.Printf("%s %s %s\n",
		titleStyle.Render(rec.EntityType),
		nameStyle.Render(qualified),
		dimStyle.Render(fmt.Sprintf("%s:%d-%d", rec.FilePath, rec.LineStart, rec.LineEnd)))

	switch rec.EntityType {
	case entity.TypeFunction, entity.TypeMethod:
		if rec.Signature != "" {
			fmt.Printf("  %s\n", rec.Signature)
		}
	case entity.TypeClass:
		if len(rec.Bases) > 0 {
			fmt.Printf("  bases: %s\n", strings.Join(rec.Bases, ", "))
		}
	case entity.TypeVariable:
		if rec.ValueRepr != "" {
			fmt.Printf("  = %s\n", rec.ValueRepr)
		}
	}
	if rec.Docstring != "" {
		fmt.Printf("  %s\n", dimStyle.Render(truncate(rec.Docstring, 120)))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func printWriteSummary(verb string, summary *index.WriteSummary) {
	line := fmt.Sprintf("%s: %d files, %d entities",
		verb, summary.FilesIndexed, summary.EntitiesWritten)
	if summary.Clean() {
		fmt.Println(successStyle.Render(line))
		return
	}
	fmt.Println(warnStyle.Render(fmt.Sprintf("%s (%d files failed, %d entities failed)",
		line, summary.FilesFailed, summary.EntitiesFailed)))
}

func printStatus(prefix string, st *index.Status) {
	fmt.Println(titleStyle.Render(prefix))
	if !st.Indexed && st.EntityCount == 0 {
		fmt.Println(dimStyle.Render("  not indexed"))
		return
	}
	fmt.Printf("  files:    %d\n", st.FileCount)
	fmt.Printf("  entities: %d\n", st.EntityCount)
	for _, t := range entity.Types {
		fmt.Printf("    %-9s %d\n", t, st.ByType[t])
	}
	if st.Metadata != nil {
		fmt.Printf("  indexed:  %s\n", dimStyle.Render(st.Metadata.LastIndexedAt))
	}
}

func printHits(hits []vector.Hit) {
	if len(hits) == 0 {
		fmt.Println(dimStyle.Render("no matches"))
		return
	}
	for i, hit := range hits {
		fmt.Printf("%s %s\n",
			scoreStyle.Render(fmt.Sprintf("%2d. %.4f", i+1, hit.Score)),
			dimStyle.Render(hit.EntityKey))
		if hit.Entity != nil {
			printEntity(*hit.Entity)
		}
	}
}
