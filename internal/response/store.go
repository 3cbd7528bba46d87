// Package response holds the reply template registry. Replies are keyed
// Vietnamese text variants with {placeholder} substitution; the variant
// picked for each reply is random so the bot does not sound canned.
package response

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"sync"
	"time"

	_ "embed"

	"github.com/xeipuuv/gojsonschema"

	"pizzatalk/internal/common/errors"
	"pizzatalk/internal/common/logger"
)

//go:embed templates.json
var defaultTemplates []byte

// registrySchema constrains the template file to nested objects whose
// leaves are non-empty arrays of strings.
const registrySchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"minProperties": 1,
	"additionalProperties": {"$ref": "#/definitions/node"},
	"definitions": {
		"node": {
			"oneOf": [
				{"type": "array", "items": {"type": "string"}, "minItems": 1},
				{"type": "object", "minProperties": 1, "additionalProperties": {"$ref": "#/definitions/node"}}
			]
		}
	}
}`

// Store serves reply templates loaded from a validated JSON registry.
type Store struct {
	root   map[string]interface{}
	mu     sync.Mutex
	rng    *rand.Rand
	logger logger.Logger
}

// NewStore loads the registry at path, or the embedded defaults when
// path is empty. seed 0 means time-seeded variant selection.
func NewStore(path string, seed int64, log logger.Logger) (*Store, error) {
	data := defaultTemplates
	if path != "" {
		fileData, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read template registry: %w", err)
		}
		data = fileData
	}

	if err := validateRegistry(data); err != nil {
		return nil, err
	}

	var root map[string]interface{}
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse template registry: %w", err)
	}

	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Store{
		root:   root,
		rng:    rand.New(rand.NewSource(seed)),
		logger: log,
	}, nil
}

// ValidateRegistry checks raw registry bytes against the schema without
// building a store. The registry lint tool uses this directly.
func ValidateRegistry(data []byte) error {
	return validateRegistry(data)
}

func validateRegistry(data []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(registrySchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return fmt.Errorf("validate template registry: %w", err)
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return errors.NewStandardError(
			errors.ErrCodeTemplateInvalid,
			"template registry failed schema validation",
			strings.Join(details, "; "),
			false,
		)
	}
	return nil
}

// Lookup resolves a key path to its list of variants.
func (s *Store) Lookup(path ...string) ([]string, error) {
	var node interface{} = s.root
	for _, key := range path {
		m, ok := node.(map[string]interface{})
		if !ok {
			return nil, s.notFound(path)
		}
		node, ok = m[key]
		if !ok {
			return nil, s.notFound(path)
		}
	}

	list, ok := node.([]interface{})
	if !ok {
		return nil, s.notFound(path)
	}

	variants := make([]string, 0, len(list))
	for _, v := range list {
		str, ok := v.(string)
		if !ok {
			return nil, s.notFound(path)
		}
		variants = append(variants, str)
	}
	return variants, nil
}

// Has reports whether a key path resolves to a variant list.
func (s *Store) Has(path ...string) bool {
	_, err := s.Lookup(path...)
	return err == nil
}

// Pick returns a random variant for the key path, or the empty string
// when the path does not resolve. The registry is validated at load
// time, so a miss here is a programming error worth logging.
func (s *Store) Pick(path ...string) string {
	variants, err := s.Lookup(path...)
	if err != nil {
		s.logger.Error("template path not found", map[string]interface{}{
			"path": strings.Join(path, "."),
		})
		return ""
	}
	s.mu.Lock()
	i := s.rng.Intn(len(variants))
	s.mu.Unlock()
	return variants[i]
}

// Render substitutes {name} placeholders in tmpl with params.
func Render(tmpl string, params map[string]string) string {
	if len(params) == 0 {
		return tmpl
	}
	pairs := make([]string, 0, len(params)*2)
	for k, v := range params {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

// Line picks a variant and renders it in one call.
func (s *Store) Line(params map[string]string, path ...string) string {
	return Render(s.Pick(path...), params)
}

func (s *Store) notFound(path []string) error {
	return errors.NewStandardError(
		errors.ErrCodeTemplateNotFound,
		"template path not found",
		strings.Join(path, "."),
		false,
	)
}
