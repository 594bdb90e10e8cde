// preset-lint проверяет общий файл пресетов миров: повторы имён,
// пустые миры и токены, которые парсер пропустил бы молча.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/annel0/alarm-missions/internal/preset"
	"gopkg.in/yaml.v3"
)

// Issue - одна найденная проблема пресета
type Issue struct {
	Preset  string `json:"preset" yaml:"preset"`
	Index   int    `json:"index" yaml:"index"`
	Kind    string `json:"kind" yaml:"kind"`
	Details string `json:"details,omitempty" yaml:"details,omitempty"`
}

// Report - итог проверки файла
type Report struct {
	Source  string  `json:"source" yaml:"source"`
	Presets int     `json:"presets" yaml:"presets"`
	Issues  []Issue `json:"issues" yaml:"issues"`
}

func main() {
	var (
		path   = flag.String("file", "", "Presets bundle (empty = built-in presets, - = stdin)")
		format = flag.String("format", "text", "Output format: text, json, yaml")
		strict = flag.Bool("strict", false, "Exit with code 1 if any issue is found")
	)
	flag.Parse()

	source, text, err := readBundle(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(2)
	}

	report := Lint(source, text)
	if err := printReport(os.Stdout, report, *format); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(2)
	}
	if *strict && len(report.Issues) > 0 {
		os.Exit(1)
	}
}

func readBundle(path string) (string, string, error) {
	switch path {
	case "":
		return "built-in", preset.BundledText(), nil
	case "-":
		data, err := io.ReadAll(os.Stdin)
		return "stdin", string(data), err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return path, "", fmt.Errorf("read %s: %w", path, err)
	}
	return path, string(data), nil
}

// Lint разбирает файл так же, как хранилище пресетов, и собирает проблемы
func Lint(source, text string) Report {
	report := Report{Source: source}
	seen := make(map[string]int)

	for i, segment := range preset.SplitBundle(text) {
		p, ok := preset.ParsePreset(segment)
		if !ok {
			continue
		}
		report.Presets++

		if p.Name == "" {
			report.Issues = append(report.Issues, Issue{Index: i, Kind: "no-name"})
		}
		if first, dup := seen[p.Name]; dup {
			report.Issues = append(report.Issues, Issue{
				Preset: p.Name, Index: i, Kind: "duplicate",
				Details: fmt.Sprintf("first defined at #%d, this one is ignored", first),
			})
		} else {
			seen[p.Name] = i
		}

		if p.World.Width == 0 || p.World.Height == 0 {
			report.Issues = append(report.Issues, Issue{
				Preset: p.Name, Index: i, Kind: "bad-header",
				Details: fmt.Sprintf("size %dx%d", p.World.Width, p.World.Height),
			})
		}
		if p.World.Len() == 0 {
			report.Issues = append(report.Issues, Issue{Preset: p.Name, Index: i, Kind: "empty"})
		}

		_, body, _ := strings.Cut(segment, "\n")
		if unknown := preset.UnknownTokens(body); len(unknown) > 0 {
			report.Issues = append(report.Issues, Issue{
				Preset: p.Name, Index: i, Kind: "unknown-tokens",
				Details: strings.Join(unknown, " "),
			})
		}
	}
	return report
}

func printReport(w io.Writer, r Report, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(r)
	case "text":
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	fmt.Fprintf(w, "📦 %s: %d presets\n", r.Source, r.Presets)
	if len(r.Issues) == 0 {
		fmt.Fprintln(w, "✅ No issues")
		return nil
	}
	for _, is := range r.Issues {
		name := is.Preset
		if name == "" {
			name = "<unnamed>"
		}
		fmt.Fprintf(w, "⚠️  #%d %-20s %-15s %s\n", is.Index, name, is.Kind, is.Details)
	}
	fmt.Fprintf(w, "❌ %d issue(s)\n", len(r.Issues))
	return nil
}
