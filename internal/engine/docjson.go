package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "embed"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/foliolabs/folio/internal/model"
)

//go:embed docjson_schema.json
var docjsonSchemaRaw []byte

var (
	docjsonSchemaOnce sync.Once
	docjsonSchema     *jsonschema.Schema
	docjsonSchemaErr  error
)

func compiledDocJSONSchema() (*jsonschema.Schema, error) {
	docjsonSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("docjson_schema.json", bytes.NewReader(docjsonSchemaRaw)); err != nil {
			docjsonSchemaErr = fmt.Errorf("failed to load docjson schema: %w", err)
			return
		}
		docjsonSchema, docjsonSchemaErr = compiler.Compile("docjson_schema.json")
	})
	return docjsonSchema, docjsonSchemaErr
}

// DocJSON consumes the JSON sidecar emitted by the external
// document-understanding engine. For a source file book.pdf the sidecar is
// book.pdf.json, falling back to book.json.
type DocJSON struct{}

// NewDocJSON creates the docjson engine.
func NewDocJSON() *DocJSON {
	return &DocJSON{}
}

func (e *DocJSON) Version() string { return "docjson-1" }

// SidecarPath returns the sidecar file for the source, preferring the
// appended form. The returned path may not exist.
func (e *DocJSON) SidecarPath(sourcePath string) string {
	appended := sourcePath + ".json"
	if _, err := os.Stat(appended); err == nil {
		return appended
	}
	if idx := strings.LastIndex(sourcePath, "."); idx > 0 {
		return sourcePath[:idx] + ".json"
	}
	return appended
}

func (e *DocJSON) Parse(ctx context.Context, path string) (*model.ParsedDocument, error) {
	sidecar := e.SidecarPath(path)
	data, err := os.ReadFile(sidecar)
	if err != nil {
		return nil, fmt.Errorf("failed to read engine sidecar %s: %w", sidecar, err)
	}

	schema, err := compiledDocJSONSchema()
	if err != nil {
		return nil, err
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid engine sidecar JSON: %w", err)
	}
	if err := schema.Validate(raw); err != nil {
		return nil, fmt.Errorf("engine sidecar does not match schema: %w", err)
	}

	var doc model.ParsedDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode engine sidecar: %w", err)
	}
	return &doc, nil
}

// CountPages reports the PDF page count for .pdf sources, 0 otherwise.
func (e *DocJSON) CountPages(ctx context.Context, path string) int {
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return 0
	}
	f, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer f.Close()

	count, err := api.PageCount(f, nil)
	if err != nil {
		return 0
	}
	return count
}
