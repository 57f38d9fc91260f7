// make-examples converts a benchmark questions file into a few-shot example
// pool. The output is a YAML list of question/SQL pairs ready to serve as
// the few_shot.path pool for SQL generation.
//
// Questions with empty ground-truth SQL are skipped, and duplicate question
// text (after whitespace folding) keeps only the first occurrence.
//
// Usage: go run ./scripts/make-examples [-manifest benchmark.yaml] [-db name] [-limit n] [-out examples.yaml]
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sqlink-ai/sqlink-engine/pkg/bird"
	"github.com/sqlink-ai/sqlink-engine/pkg/fewshot"
)

func main() {
	manifestPath := flag.String("manifest", "benchmark.yaml", "Benchmark manifest to read questions from")
	databaseID := flag.String("db", "", "Only take questions for this database ID")
	limit := flag.Int("limit", 0, "Maximum number of examples (0 = all)")
	out := flag.String("out", "examples.yaml", "Output path for the example pool")
	flag.Parse()

	manifest, err := bird.LoadManifest(*manifestPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load manifest: %v\n", err)
		os.Exit(1)
	}

	questions, err := manifest.Questions()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load questions: %v\n", err)
		os.Exit(1)
	}
	questions = bird.Filter(questions, *databaseID, 0)

	examples := make([]fewshot.Example, 0, len(questions))
	seen := make(map[string]bool)
	skipped := 0
	for _, q := range questions {
		if *limit > 0 && len(examples) >= *limit {
			break
		}
		if strings.TrimSpace(q.SQL) == "" {
			skipped++
			continue
		}
		key := strings.Join(strings.Fields(strings.ToLower(q.Question)), " ")
		if seen[key] {
			skipped++
			continue
		}
		seen[key] = true
		examples = append(examples, fewshot.Example{
			Question: q.Prompt(),
			SQL:      q.SQL,
		})
	}

	if len(examples) == 0 {
		fmt.Fprintf(os.Stderr, "No usable questions in %s\n", *manifestPath)
		os.Exit(1)
	}

	data, err := yaml.Marshal(examples)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to marshal examples: %v\n", err)
		os.Exit(1)
	}

	// Validate the pool the same way the engine will load it.
	if _, err := fewshot.Parse(data); err != nil {
		fmt.Fprintf(os.Stderr, "Generated pool failed validation: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(*out, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", *out, err)
		os.Exit(1)
	}

	fmt.Printf("Wrote %d examples to %s (%d skipped)\n", len(examples), *out, skipped)
}
