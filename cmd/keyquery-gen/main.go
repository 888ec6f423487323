// Command keyquery-gen introspects a database and writes one Go file per
// table: a tagged struct and a statically declared model descriptor table.
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

type config struct {
	driver    string
	dsn       string
	table     string
	pkg       string
	outDir    string
	overwrite bool
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	var cfg config
	flag.StringVar(&cfg.driver, "driver", "sqlite3", "database driver (sqlite3, mysql, postgres)")
	flag.StringVar(&cfg.dsn, "dsn", "", "data source name")
	flag.StringVar(&cfg.table, "table", "", "only generate this table (default: all tables)")
	flag.StringVar(&cfg.pkg, "pkg", "models", "package name of the generated code")
	flag.StringVar(&cfg.outDir, "out", "./models", "output directory")
	flag.BoolVar(&cfg.overwrite, "overwrite", false, "overwrite existing files")
	flag.Parse()

	if cfg.dsn == "" {
		fmt.Println("usage: keyquery-gen -dsn <dsn> [options]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		log.Fatal(err)
	}
	fmt.Println("done")
}

func run(cfg config) error {
	db, err := sql.Open(cfg.driver, cfg.dsn)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer db.Close()

	var tables []string
	if cfg.table != "" {
		tables = []string{cfg.table}
	} else if tables, err = fetchAllTables(db, cfg.driver); err != nil {
		return fmt.Errorf("list tables: %w", err)
	}

	if err := os.MkdirAll(cfg.outDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	for _, table := range tables {
		if err := generateFile(db, cfg, table); err != nil {
			log.Printf("generate %s: %v", table, err)
		}
	}
	return nil
}

func generateFile(db *sql.DB, cfg config, table string) error {
	fileName := filepath.Join(cfg.outDir, strings.ToLower(table)+".go")
	if _, err := os.Stat(fileName); err == nil && !cfg.overwrite {
		log.Printf("%s exists, skipping (use -overwrite)", fileName)
		return nil
	}

	columns, err := fetchTableInfo(db, cfg.driver, table)
	if err != nil {
		return err
	}
	data, err := newModelData(cfg.pkg, table, columns)
	if err != nil {
		return err
	}
	src, err := render(data)
	if err != nil {
		return err
	}
	if err := os.WriteFile(fileName, src, 0644); err != nil {
		return err
	}

	log.Printf("generated %s -> %s", table, fileName)
	return nil
}
