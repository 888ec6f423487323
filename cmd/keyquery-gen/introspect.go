package main

import (
	"database/sql"
	"fmt"
	"strings"
)

// column is one column as reported by the database catalog.
type column struct {
	Name      string
	DBType    string
	Comment   string
	IsPK      bool
	IsAuto    bool
	IsNotNull bool
	IsUnique  bool
	Default   string
	Size      int
}

func fetchAllTables(db *sql.DB, driver string) ([]string, error) {
	var query string
	switch driver {
	case "sqlite3":
		query = "SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name"
	case "mysql":
		query = "SHOW TABLES"
	case "postgres":
		query = "SELECT tablename FROM pg_catalog.pg_tables WHERE schemaname != 'pg_catalog' AND schemaname != 'information_schema' ORDER BY tablename"
	default:
		return nil, fmt.Errorf("unsupported driver %s", driver)
	}

	rows, err := db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

func fetchTableInfo(db *sql.DB, driver, table string) ([]column, error) {
	switch driver {
	case "sqlite3":
		return sqliteColumns(db, table)
	case "mysql":
		return mysqlColumns(db, table)
	case "postgres":
		return postgresColumns(db, table)
	}
	return nil, fmt.Errorf("unsupported driver %s", driver)
}

func sqliteColumns(db *sql.DB, table string) ([]column, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(`%s`)", table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []column
	pks := 0
	for rows.Next() {
		var (
			cid       int
			name      string
			dataType  string
			notnull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &dataType, &notnull, &dfltValue, &pk); err != nil {
			return nil, err
		}
		// pk is the 1-based position within the primary key, 0 otherwise
		c := column{
			Name:      name,
			DBType:    dataType,
			IsPK:      pk > 0,
			IsNotNull: notnull == 1,
			Default:   dfltValue.String,
			Size:      typeSize(dataType),
		}
		if c.IsPK {
			pks++
		}
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// only a lone INTEGER PRIMARY KEY aliases the rowid
	if pks == 1 {
		for i := range cols {
			if cols[i].IsPK && strings.EqualFold(cols[i].DBType, "integer") {
				cols[i].IsAuto = true
			}
		}
	}
	return cols, nil
}

func mysqlColumns(db *sql.DB, table string) ([]column, error) {
	rows, err := db.Query(fmt.Sprintf("SHOW FULL COLUMNS FROM `%s`", table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []column
	for rows.Next() {
		var (
			field      string
			typ        string
			collation  sql.NullString
			null       string
			key        string
			defaultVal sql.NullString
			extra      string
			privileges string
			comment    string
		)
		if err := rows.Scan(&field, &typ, &collation, &null, &key, &defaultVal, &extra, &privileges, &comment); err != nil {
			return nil, err
		}
		cols = append(cols, column{
			Name:      field,
			DBType:    typ,
			Comment:   comment,
			IsPK:      key == "PRI",
			IsAuto:    strings.Contains(strings.ToLower(extra), "auto_increment"),
			IsNotNull: null == "NO",
			IsUnique:  key == "UNI",
			Default:   defaultVal.String,
			Size:      typeSize(typ),
		})
	}
	return cols, rows.Err()
}

func postgresColumns(db *sql.DB, table string) ([]column, error) {
	rows, err := db.Query(`
		SELECT
			c.column_name,
			c.data_type,
			c.is_nullable,
			CASE WHEN EXISTS (
				SELECT 1
				FROM information_schema.table_constraints tc
				JOIN information_schema.key_column_usage kcu
					ON kcu.constraint_name = tc.constraint_name
					AND kcu.table_schema = tc.table_schema
				WHERE tc.constraint_type = 'PRIMARY KEY'
					AND tc.table_name = c.table_name
					AND tc.table_schema = c.table_schema
					AND kcu.column_name = c.column_name
			) THEN 'YES' ELSE 'NO' END AS is_pk,
			d.description AS comment,
			c.column_default,
			c.character_maximum_length
		FROM information_schema.columns c
		LEFT JOIN pg_catalog.pg_stat_user_tables t ON c.table_name = t.relname
		LEFT JOIN pg_catalog.pg_description d ON t.relid = d.objoid AND c.ordinal_position = d.objsubid
		WHERE c.table_name = $1 AND c.table_schema = 'public'
		ORDER BY c.ordinal_position`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []column
	for rows.Next() {
		var name, dataType, isNullable, isPK string
		var comment, columnDefault sql.NullString
		var maxLength sql.NullInt64
		if err := rows.Scan(&name, &dataType, &isNullable, &isPK, &comment, &columnDefault, &maxLength); err != nil {
			return nil, err
		}
		c := column{
			Name:      name,
			DBType:    dataType,
			Comment:   comment.String,
			IsPK:      isPK == "YES",
			IsNotNull: isNullable == "NO",
			Default:   columnDefault.String,
			Size:      int(maxLength.Int64),
		}
		c.IsAuto = c.IsPK && strings.Contains(strings.ToLower(c.Default), "nextval")
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

// typeSize extracts n from types such as VARCHAR(n).
func typeSize(dbType string) int {
	var size int
	if i := strings.Index(dbType, "("); i != -1 {
		fmt.Sscanf(dbType[i+1:], "%d", &size)
	}
	return size
}
