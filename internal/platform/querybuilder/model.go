package querybuilder

import (
	"fmt"
	"reflect"
	"strings"
)

// InsertModel builds a single-row insert from the `db` tags of model.
func InsertModel(table string, model any, suffix string) (string, []any, error) {
	cols, vals, err := columnsAndValuesFromModel(model)
	if err != nil {
		return "", nil, err
	}
	return insert{table: table, columns: cols, rows: [][]any{vals}, suffix: suffix}.toSQL()
}

// InsertModels builds one multi-row insert. Every model must be the same struct type.
func InsertModels[T any](table string, models []T, suffix string) (string, []any, error) {
	if len(models) == 0 {
		return "", nil, fmt.Errorf("insert models are required")
	}

	stmt := insert{table: table, suffix: suffix, rows: make([][]any, 0, len(models))}
	for i, model := range models {
		cols, vals, err := columnsAndValuesFromModel(model)
		if err != nil {
			return "", nil, fmt.Errorf("model %d: %w", i, err)
		}
		if i == 0 {
			stmt.columns = cols
		}
		stmt.rows = append(stmt.rows, vals)
	}
	return stmt.toSQL()
}

// OnConflict renders an upsert suffix that overwrites updateColumns from the
// proposed row and touches updated_at.
func OnConflict(conflictColumns []string, updateColumns []string, returning ...string) string {
	var buf strings.Builder
	buf.WriteString("ON CONFLICT (")
	buf.WriteString(strings.Join(conflictColumns, ", "))
	buf.WriteString(")")
	if len(updateColumns) == 0 {
		buf.WriteString(" DO NOTHING")
	} else {
		buf.WriteString(" DO UPDATE SET ")
		for i, col := range updateColumns {
			if i > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(col)
			buf.WriteString(" = EXCLUDED.")
			buf.WriteString(col)
		}
		buf.WriteString(", updated_at = NOW()")
	}
	if len(returning) > 0 {
		buf.WriteString(" RETURNING ")
		buf.WriteString(strings.Join(returning, ", "))
	}
	return buf.String()
}

func columnsAndValuesFromModel(model any) ([]string, []any, error) {
	value := reflect.ValueOf(model)
	for value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return nil, nil, fmt.Errorf("model cannot be nil")
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return nil, nil, fmt.Errorf("model must be struct")
	}

	typ := value.Type()
	cols := make([]string, 0, typ.NumField())
	vals := make([]any, 0, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if field.PkgPath != "" {
			continue
		}
		tag := strings.TrimSpace(field.Tag.Get("db"))
		if tag == "" || tag == "-" {
			continue
		}
		parts := strings.Split(tag, ",")
		col := strings.TrimSpace(parts[0])
		if col == "" || col == "-" || hasOption(parts[1:], "readonly") {
			continue
		}
		cols = append(cols, col)
		vals = append(vals, value.Field(i).Interface())
	}

	if len(cols) == 0 {
		return nil, nil, fmt.Errorf("model has no db columns")
	}
	return cols, vals, nil
}

func hasOption(opts []string, want string) bool {
	for _, opt := range opts {
		if strings.TrimSpace(opt) == want {
			return true
		}
	}
	return false
}
