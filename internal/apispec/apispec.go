package apispec

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/leslieo2/go-status-board/internal/constants"
)

//go:embed openapi.yaml
var raw []byte

// Spec is the OpenAPI document describing the status API.
type Spec struct {
	doc    *openapi3.T
	status *openapi3.Schema
}

// Load parses and validates the embedded document.
func Load() (*Spec, error) {
	loader := openapi3.NewLoader()

	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse OpenAPI spec: %w", err)
	}

	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("OpenAPI spec validation failed: %w", err)
	}

	schema, err := responseSchema(doc, constants.PathStatus, http.MethodGet, http.StatusOK)
	if err != nil {
		return nil, err
	}

	return &Spec{doc: doc, status: schema}, nil
}

// Raw returns the document as served.
func (s *Spec) Raw() []byte {
	return raw
}

// Version returns the API version.
func (s *Spec) Version() string {
	return s.doc.Info.Version
}

// ValidateStatus checks a status response body against the document.
func (s *Spec) ValidateStatus(body []byte) error {
	var value interface{}
	if err := json.Unmarshal(body, &value); err != nil {
		return fmt.Errorf("status response is not valid JSON: %w", err)
	}
	if err := s.status.VisitJSON(value); err != nil {
		return fmt.Errorf("status response does not match schema: %w", err)
	}
	return nil
}

func responseSchema(doc *openapi3.T, path, method string, code int) (*openapi3.Schema, error) {
	item := doc.Paths.Find(path)
	if item == nil {
		return nil, fmt.Errorf("path %s not defined", path)
	}

	op := item.GetOperation(method)
	if op == nil || op.Responses == nil {
		return nil, fmt.Errorf("%s %s not defined", method, path)
	}

	resp := op.Responses.Status(code)
	if resp == nil || resp.Value == nil {
		return nil, fmt.Errorf("response %d not found for %s %s", code, method, path)
	}

	media := resp.Value.Content.Get(constants.ContentTypeJSON)
	if media == nil || media.Schema == nil || media.Schema.Value == nil {
		return nil, fmt.Errorf("no application/json schema for %s %s", method, path)
	}

	return media.Schema.Value, nil
}
