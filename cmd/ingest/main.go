// Command ingest parses a local statement file and prints the extracted,
// categorized transactions as JSON. It runs the same extract/parse/categorize
// stages as the service but offline, using the keyword fallback for
// categorization, which makes it handy for checking a statement before upload.
package main

import (
	"encoding/json"
	"flag"
	"mime"
	"os"
	"path/filepath"

	"github.com/dvloznov/budgetwise/internal/categorize"
	"github.com/dvloznov/budgetwise/internal/extract"
	"github.com/dvloznov/budgetwise/internal/logger"
	"github.com/dvloznov/budgetwise/internal/parse"
)

func main() {
	flag.Parse()

	log := logger.New()

	if flag.NArg() != 1 {
		log.Fatal().Msg("Usage: ingest <statement.pdf|statement.csv>")
	}
	path := flag.Arg(0)

	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("Failed to read file")
	}

	filename := filepath.Base(path)
	mimeType := mime.TypeByExtension(filepath.Ext(path))

	if !extract.Supported(mimeType, filename) {
		log.Fatal().Str("path", path).Msg("Unsupported file format")
	}

	result, err := extract.Extract(data, mimeType, filename)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("Failed to extract content")
	}

	txs := parse.New().Parse(result)
	if len(txs) == 0 {
		log.Fatal().Str("path", path).Msg("No transactions found")
	}

	categorized := make([]categorize.Categorized, 0, len(txs))
	for _, tx := range txs {
		categorized = append(categorized, categorize.Fallback(tx))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(categorized); err != nil {
		log.Fatal().Err(err).Msg("Failed to encode output")
	}

	log.Info().Int("transactions", len(categorized)).Msg("Statement parsed")
}
