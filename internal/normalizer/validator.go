package normalizer

import (
	"strings"

	"sitesync/pkg/utils"

	"github.com/tidwall/gjson"
)

// Fields are the values extracted from one raw record.
type Fields struct {
	Name string
	API  string
}

// Validator extracts and checks the required fields of a record.
type Validator struct {
	http       *utils.HTTPHelper
	nameFields []string
	apiFields  []string
}

// NewValidator creates a validator probing the given fields in order.
func NewValidator(nameFields, apiFields []string) *Validator {
	return &Validator{
		http:       utils.NewHTTPHelper(),
		nameFields: nameFields,
		apiFields:  apiFields,
	}
}

// Validate returns the name and API URL of c, or a *RecordError.
func (v *Validator) Validate(c Candidate) (Fields, error) {
	if !c.Value.IsObject() {
		return Fields{}, v.recordError(c, ErrNotAnObject, "")
	}

	name, ok := firstString(c.Value, v.nameFields)
	if !ok {
		name = strings.TrimSpace(c.MapKey)
	}

	if name == "" {
		return Fields{}, v.recordError(c, ErrMissingName, "")
	}

	raw, found := firstPresent(c.Value, v.apiFields)
	if !found {
		return Fields{}, v.recordError(c, ErrMissingURL, name)
	}

	// The first present field wins; a non-URL there is not replaced by a later field.
	if raw.Type != gjson.String {
		return Fields{}, v.recordError(c, ErrInvalidURL, raw.Raw)
	}

	api := strings.TrimSpace(raw.Str)
	if !v.http.IsValidURL(api) {
		return Fields{}, v.recordError(c, ErrInvalidURL, api)
	}

	return Fields{Name: name, API: api}, nil
}

func (v *Validator) recordError(c Candidate, err error, value string) *RecordError {
	return &RecordError{
		Err:   err,
		Path:  c.Path,
		Value: value,
		Index: c.Index,
	}
}

// firstString returns the first non-empty string among keys.
func firstString(obj gjson.Result, keys []string) (string, bool) {
	for _, key := range keys {
		val := field(obj, key)
		if val.Type != gjson.String {
			continue
		}

		if s := strings.TrimSpace(val.Str); s != "" {
			return s, true
		}
	}

	return "", false
}

// firstPresent returns the first non-null, non-blank member among keys.
func firstPresent(obj gjson.Result, keys []string) (gjson.Result, bool) {
	for _, key := range keys {
		val := field(obj, key)
		if !present(val) {
			continue
		}

		if val.Type == gjson.String && strings.TrimSpace(val.Str) == "" {
			continue
		}

		return val, true
	}

	return gjson.Result{}, false
}
