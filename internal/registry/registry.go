// Package registry loads and serves the field-map registry: the JSON document
// that binds logical field names to Ragic sheet paths and field identifiers.
// The registry is immutable after load; Reload atomically swaps the whole
// snapshot so in-flight readers never observe a partially-updated mapping.
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync/atomic"
)

// ConfigError reports a form or field that is absent from the registry, or a
// registry document that fails validation. It surfaces misconfiguration at the
// first access instead of producing silent empty identifiers downstream.
type ConfigError struct {
	FormKey string
	Field   string
	Reason  string
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("registry: field %q not configured for form %q", e.Field, e.FormKey)
	}
	if e.FormKey != "" {
		return fmt.Sprintf("registry: form %q not configured: %s", e.FormKey, e.Reason)
	}
	return fmt.Sprintf("registry: %s", e.Reason)
}

// Form is the configuration of a single Ragic sheet.
type Form struct {
	Description  string            `json:"description"`
	RagicPath    string            `json:"ragic_path"`
	WebhookKey   string            `json:"webhook_key,omitempty"`
	KeyField     string            `json:"key_field,omitempty"`
	FieldMapping map[string]string `json:"field_mapping"`
}

// Settings holds the global Ragic connection settings from the registry file.
type Settings struct {
	BaseURL        string  `json:"base_url,omitempty"`
	TimeoutSeconds float64 `json:"timeout_seconds,omitempty"`
	Naming         string  `json:"naming,omitempty"`
}

// document is the on-disk shape of the registry file.
type document struct {
	SchemaVersion string          `json:"schema_version"`
	Settings      Settings        `json:"settings"`
	Forms         map[string]Form `json:"forms"`
}

// snapshot is one validated, immutable registry state.
type snapshot struct {
	doc          document
	byWebhookKey map[string]string // webhook key -> form key
}

// Registry resolves (form key, logical field name) pairs to Ragic sheet paths
// and field identifiers. Safe for concurrent use; Reload swaps the snapshot
// atomically.
type Registry struct {
	path string
	snap atomic.Pointer[snapshot]
}

// Load reads and validates the registry file at path.
func Load(path string) (*Registry, error) {
	r := &Registry{path: path}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload re-reads the registry file. On success the in-memory snapshot is
// swapped atomically; on failure the previous snapshot (if any) stays in
// effect and the error is returned.
func (r *Registry) Reload() error {
	raw, err := os.ReadFile(r.path)
	if err != nil {
		return fmt.Errorf("read registry %s: %w", r.path, err)
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse registry %s: %w", r.path, err)
	}

	snap, err := validate(doc)
	if err != nil {
		return fmt.Errorf("validate registry %s: %w", r.path, err)
	}

	r.snap.Store(snap)
	return nil
}

// validate checks the document invariants: every form has a sheet path
// (normalized to a leading slash), no empty field identifiers, any key_field
// refers to a mapped field, and webhook keys are unique across forms.
func validate(doc document) (*snapshot, error) {
	if len(doc.Forms) == 0 {
		return nil, &ConfigError{Reason: "no forms configured"}
	}

	byWebhookKey := make(map[string]string)
	for key, form := range doc.Forms {
		if strings.TrimSpace(form.RagicPath) == "" {
			return nil, &ConfigError{FormKey: key, Reason: "ragic_path is empty"}
		}
		if !strings.HasPrefix(form.RagicPath, "/") {
			form.RagicPath = "/" + form.RagicPath
			doc.Forms[key] = form
		}
		for name, id := range form.FieldMapping {
			if strings.TrimSpace(id) == "" {
				return nil, &ConfigError{FormKey: key, Reason: fmt.Sprintf("field %q has empty field id", name)}
			}
		}
		if form.KeyField != "" && !mappingHasID(form.FieldMapping, form.KeyField) {
			return nil, &ConfigError{
				FormKey: key,
				Reason:  fmt.Sprintf("key_field %q is not in the field mapping", form.KeyField),
			}
		}
		if form.WebhookKey != "" {
			if other, dup := byWebhookKey[form.WebhookKey]; dup {
				return nil, &ConfigError{
					FormKey: key,
					Reason:  fmt.Sprintf("webhook key %q already used by form %q", form.WebhookKey, other),
				}
			}
			byWebhookKey[form.WebhookKey] = key
		}
	}

	return &snapshot{doc: doc, byWebhookKey: byWebhookKey}, nil
}

func mappingHasID(mapping map[string]string, fieldID string) bool {
	for _, id := range mapping {
		if id == fieldID {
			return true
		}
	}
	return false
}

// Path returns the file path this registry was loaded from.
func (r *Registry) Path() string {
	return r.path
}

// Settings returns the global Ragic settings from the current snapshot.
func (r *Registry) Settings() Settings {
	return r.snap.Load().doc.Settings
}

// SheetPath returns the Ragic sheet path configured for the form.
func (r *Registry) SheetPath(formKey string) (string, error) {
	form, err := r.form(formKey)
	if err != nil {
		return "", err
	}
	return form.RagicPath, nil
}

// FieldID returns the Ragic field identifier for a logical field name on a form.
func (r *Registry) FieldID(formKey, fieldName string) (string, error) {
	form, err := r.form(formKey)
	if err != nil {
		return "", err
	}
	id, ok := form.FieldMapping[fieldName]
	if !ok {
		return "", &ConfigError{FormKey: formKey, Field: fieldName}
	}
	return id, nil
}

// FieldMapping returns a copy of the form's logical-name to field-id map.
func (r *Registry) FieldMapping(formKey string) (map[string]string, error) {
	form, err := r.form(formKey)
	if err != nil {
		return nil, err
	}
	mapping := make(map[string]string, len(form.FieldMapping))
	for name, id := range form.FieldMapping {
		mapping[name] = id
	}
	return mapping, nil
}

// FormByWebhookKey resolves a webhook routing key to its form key.
func (r *Registry) FormByWebhookKey(webhookKey string) (string, bool) {
	formKey, ok := r.snap.Load().byWebhookKey[webhookKey]
	return formKey, ok
}

// FormKeys returns all configured form keys, sorted for stable output.
func (r *Registry) FormKeys() []string {
	doc := r.snap.Load().doc
	keys := make([]string, 0, len(doc.Forms))
	for k := range doc.Forms {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (r *Registry) form(formKey string) (Form, error) {
	doc := r.snap.Load().doc
	form, ok := doc.Forms[formKey]
	if !ok {
		available := make([]string, 0, len(doc.Forms))
		for k := range doc.Forms {
			available = append(available, k)
		}
		sort.Strings(available)
		return Form{}, &ConfigError{
			FormKey: formKey,
			Reason:  fmt.Sprintf("not found (available: %s)", strings.Join(available, ", ")),
		}
	}
	return form, nil
}
