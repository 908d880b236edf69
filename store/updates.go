package store

import (
	"fmt"
	"reflect"

	"github.com/fieldwork/dispatch/models"
)

// fieldNameMapping maps JSON field names to struct field names for the
// update merge. Identity and audit fields are absent: the
// store owns them.
var fieldNameMapping = map[string]string{
	"title":        "Title",
	"client":       "Client",
	"date":         "Date",
	"startTime":    "StartTime",
	"duration":     "Duration",
	"technicianId": "TechnicianID",
	"status":       "Status",
	"priority":     "Priority",
	"progress":     "Progress",
	"description":  "Description",
	"equipment":    "Equipment",
	"brand":        "Brand",
	"model":        "Model",
	"serialNumber": "SerialNumber",
	"reportNumber": "ReportNumber",
}

// immutableFields are rejected outright rather than silently skipped.
var immutableFields = map[string]bool{
	"id":        true,
	"number":    true,
	"createdAt": true,
	"updatedAt": true,
}

// applyUpdates merges a JSON-keyed update map into a task, converting
// values where the struct field needs it. Both backends share this merge
// so update semantics cannot drift between them.
func applyUpdates(task *models.Task, updates map[string]interface{}) error {
	for key, value := range updates {
		if immutableFields[key] {
			return fmt.Errorf("field %q is owned by the store and cannot be updated", key)
		}
		// Only the JSON spellings in fieldNameMapping are accepted. A
		// relaxed fallback onto struct field names would let "ID" or
		// "Number" sidestep the immutable check above.
		fieldName, ok := fieldNameMapping[key]
		if !ok {
			return fmt.Errorf("unknown task field %q", key)
		}

		field := reflect.ValueOf(task).Elem().FieldByName(fieldName)
		if !field.IsValid() || !field.CanSet() {
			return fmt.Errorf("unknown task field %q", key)
		}

		val := reflect.ValueOf(value)
		if !val.IsValid() {
			return fmt.Errorf("nil value for field %q", key)
		}
		if field.Type() != val.Type() {
			converted, err := convertType(value, field.Type())
			if err != nil {
				return fmt.Errorf("field %q: %w", key, err)
			}
			val = converted
		}
		field.Set(val)
	}
	return nil
}

// convertType coerces loosely typed update values (strings from flags,
// float64 from JSON) onto the task's field types.
func convertType(value interface{}, targetType reflect.Type) (reflect.Value, error) {
	if s, ok := value.(string); ok && targetType == reflect.TypeOf(models.TaskStatus("")) {
		return reflect.ValueOf(models.TaskStatus(s)), nil
	}

	val := reflect.ValueOf(value)
	if val.Type().ConvertibleTo(targetType) {
		switch val.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
			reflect.Float32, reflect.Float64, reflect.String:
			// Numeric widths and string kinds convert cleanly; anything
			// fancier falls through to the error below.
			if targetType.Kind() == reflect.String && val.Kind() != reflect.String {
				break
			}
			return val.Convert(targetType), nil
		}
	}

	return reflect.Value{}, fmt.Errorf("unsupported conversion from %T to %s", value, targetType)
}
