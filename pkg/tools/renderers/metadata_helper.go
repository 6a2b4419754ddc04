package renderers

import (
	"reflect"

	"github.com/covlet/covlet/pkg/types/tools"
)

// extractMetadata handles both pointer and value type assertions. JSON
// unmarshaling produces value types while direct construction may use
// pointers, so a plain type assertion is not enough.
func extractMetadata(metadata tools.ToolMetadata, target interface{}) bool {
	if metadata == nil {
		return false
	}

	targetValue := reflect.ValueOf(target)
	if targetValue.Kind() != reflect.Ptr || targetValue.IsNil() {
		return false
	}

	targetElem := targetValue.Elem()
	metadataValue := reflect.ValueOf(metadata)

	if metadataValue.Kind() == reflect.Ptr && !metadataValue.IsNil() {
		metadataValue = metadataValue.Elem()
	}

	if targetElem.Type() != metadataValue.Type() {
		return false
	}

	targetElem.Set(metadataValue)
	return true
}
