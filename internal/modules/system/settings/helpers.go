package settings

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/provenance-lab/origincheck/internal/modules/detection/classifier"
)

// mergeJSON overlays newVal onto oldVal. Objects merge key by key, anything
// else is replaced.
func mergeJSON(oldVal, newVal interface{}) interface{} {
	oldMap, oldIsMap := oldVal.(map[string]interface{})
	newMap, newIsMap := newVal.(map[string]interface{})
	if !oldIsMap || !newIsMap {
		return newVal
	}
	out := make(map[string]interface{}, len(oldMap))
	for k, v := range oldMap {
		out[k] = v
	}
	for k, v := range newMap {
		if existing, ok := out[k]; ok {
			out[k] = mergeJSON(existing, v)
			continue
		}
		out[k] = v
	}
	return out
}

// validatePatch checks only the fields present in the update.
func validatePatch(partial map[string]json.RawMessage) error {
	if raw, ok := partial["mistralApiKey"]; ok {
		key, err := stringField(raw)
		if err != nil || strings.TrimSpace(key) == "" {
			return &ValidationError{msg: "Geçersiz Mistral API anahtarı. Anahtar boş olamaz."}
		}
	}
	if raw, ok := partial["openaiApiKey"]; ok {
		key, err := stringField(raw)
		if err != nil || (key != "" && !strings.HasPrefix(key, "sk-")) {
			return &ValidationError{msg: `Geçersiz OpenAI API anahtarı formatı. "sk-" ile başlamalıdır.`}
		}
	}
	if raw, ok := partial["defaultModel"]; ok {
		model, err := stringField(raw)
		if err != nil || (model != "" && !classifier.IsAllowed(model)) {
			return &ValidationError{msg: fmt.Sprintf("Geçersiz model seçimi: %s", strings.Trim(string(raw), `"`))}
		}
	}
	return nil
}

func stringField(raw json.RawMessage) (string, error) {
	var s string
	err := json.Unmarshal(raw, &s)
	return s, err
}
