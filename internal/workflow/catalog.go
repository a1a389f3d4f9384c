package workflow

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/marcus/appman/internal/models"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

const (
	descriptorSchemaURL = "https://appman.local/schemas/descriptor.json"
	installSchemaURL    = "https://appman.local/schemas/install-descriptor.json"
)

// descriptorSchemaJSON checks field types of every descriptor object.
const descriptorSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://appman.local/schemas/descriptor.json",
  "type": "object",
  "properties": {
    "installed": { "type": "boolean" },
    "defaultDestination": { "type": "string" },
    "allowsCopy": { "type": "boolean" },
    "allowsLink": { "type": "boolean" }
  }
}`

// installSchemaJSON additionally requires the fields the install form is built from.
const installSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://appman.local/schemas/install-descriptor.json",
  "allOf": [{ "$ref": "descriptor.json" }],
  "required": ["defaultDestination", "allowsCopy", "allowsLink"]
}`

var (
	schemaOnce       sync.Once
	descriptorSchema *jsonschema.Schema
	installSchema    *jsonschema.Schema
	schemaErr        error
)

func compileSchemas() {
	c := jsonschema.NewCompiler()
	for url, doc := range map[string]string{
		descriptorSchemaURL: descriptorSchemaJSON,
		installSchemaURL:    installSchemaJSON,
	} {
		parsed, err := jsonschema.UnmarshalJSON(strings.NewReader(doc))
		if err != nil {
			schemaErr = fmt.Errorf("unmarshal %s: %w", url, err)
			return
		}
		if err := c.AddResource(url, parsed); err != nil {
			schemaErr = fmt.Errorf("add %s: %w", url, err)
			return
		}
	}
	if descriptorSchema, schemaErr = c.Compile(descriptorSchemaURL); schemaErr != nil {
		return
	}
	installSchema, schemaErr = c.Compile(installSchemaURL)
}

// checkDescriptor validates the raw JSON of a descriptor entry.
func checkDescriptor(entry models.ActionEntry) error {
	if entry.IsBool() || len(entry.Raw) == 0 {
		return nil
	}
	schemaOnce.Do(compileSchemas)
	if schemaErr != nil {
		return schemaErr
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(entry.Raw))
	if err != nil {
		return err
	}
	sch := descriptorSchema
	if entry.Name == models.ActionInstall {
		sch = installSchema
	}
	if err := sch.Validate(doc); err != nil {
		if verr, ok := err.(*jsonschema.ValidationError); ok {
			return errors.New(strings.Join(collectViolations(verr), "; "))
		}
		return err
	}
	return nil
}

// collectViolations walks a ValidationError tree and collects leaf messages
// with their instance locations.
func collectViolations(verr *jsonschema.ValidationError) []string {
	if len(verr.Causes) == 0 {
		loc := "/"
		if len(verr.InstanceLocation) > 0 {
			loc = "/" + strings.Join(verr.InstanceLocation, "/")
		}
		return []string{fmt.Sprintf("%s: %s", loc, verr.Error())}
	}

	var violations []string
	for _, cause := range verr.Causes {
		violations = append(violations, collectViolations(cause)...)
	}
	return violations
}

// Catalog is the normalized action metadata of one application.
// It is replaced wholesale on every load.
type Catalog struct {
	App         string
	Description string

	entries  []models.ActionEntry
	index    map[string]int
	problems map[string]error
}

// NewCatalog normalizes a decoded application detail response
func NewCatalog(detail *models.AppDetail) *Catalog {
	c := &Catalog{
		App:         detail.Name,
		Description: detail.Description,
		index:       make(map[string]int, len(detail.Actions)),
		problems:    make(map[string]error),
	}
	for _, e := range detail.Actions {
		if _, dup := c.index[e.Name]; dup {
			continue
		}
		c.index[e.Name] = len(c.entries)
		c.entries = append(c.entries, e)
		if err := checkDescriptor(e); err != nil {
			c.problems[e.Name] = err
		}
	}
	return c
}

// Names returns action names in host order
func (c *Catalog) Names() []string {
	names := make([]string, len(c.entries))
	for i, e := range c.entries {
		names[i] = e.Name
	}
	return names
}

// Entry returns the entry for an action
func (c *Catalog) Entry(name string) (models.ActionEntry, bool) {
	i, ok := c.index[name]
	if !ok {
		return models.ActionEntry{}, false
	}
	return c.entries[i], true
}

// Problem returns the structural problem found in an action's descriptor, if any
func (c *Catalog) Problem(name string) error {
	return c.problems[name]
}

// Selectable reports whether an action may be chosen. Install always can;
// other actions need an installed descriptor, or a true boolean entry.
func (c *Catalog) Selectable(name string) bool {
	e, ok := c.Entry(name)
	if !ok {
		return false
	}
	if name == models.ActionInstall {
		return true
	}
	if e.IsBool() {
		return e.Toggle
	}
	return e.Descriptor.Installed
}

// Installed reports the installed flag of the install descriptor
func (c *Catalog) Installed() bool {
	e, ok := c.Entry(models.ActionInstall)
	return ok && !e.IsBool() && e.Descriptor.Installed
}

// CatalogSource fetches application detail from the host
type CatalogSource interface {
	AppDetail(ctx context.Context, name string) (*models.AppDetail, error)
}

// CatalogLoader loads catalogs from a CatalogSource
type CatalogLoader struct {
	Source CatalogSource
}

// Load fetches and normalizes the catalog of appID
func (l CatalogLoader) Load(ctx context.Context, appID string) (*Catalog, error) {
	detail, err := l.Source.AppDetail(ctx, appID)
	if err != nil {
		return nil, &FetchError{Op: "catalog", Target: appID, Err: err}
	}
	if detail.Name == "" {
		detail.Name = appID
	}
	return NewCatalog(detail), nil
}
