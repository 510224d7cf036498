package db

import "database/sql"

func scanRows(rows *sql.Rows) ([]map[string]interface{}, []string, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	types, _ := rows.ColumnTypes()
	dbTypes := make([]string, len(columns))
	for i := range columns {
		if types != nil && i < len(types) && types[i] != nil {
			dbTypes[i] = types[i].DatabaseTypeName()
		}
	}

	resultData := make([]map[string]interface{}, 0)

	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range columns {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			continue
		}

		entry := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			entry[col] = normalizeQueryValueWithDBType(values[i], dbTypes[i])
		}
		resultData = append(resultData, entry)
	}

	if err := rows.Err(); err != nil {
		return resultData, columns, err
	}
	return resultData, columns, nil
}
