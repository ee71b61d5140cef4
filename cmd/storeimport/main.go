// Command storeimport synchronizes the store directory from the regional
// spreadsheets the operations team maintains. It accepts a folder of CSV
// exports (one file per regional, the regional name after the last "-" in
// the filename) and XLSX workbooks, and upserts one Tienda per row.
//
// Usage:
//
//	storeimport -dir ./csv_regionales
//	FORCE_UPDATE=1 storeimport -dir ./csv_regionales
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"fieldreport-backend/internal/database"
	"fieldreport-backend/internal/logging"
	"fieldreport-backend/internal/models"
)

func main() {
	dir := flag.String("dir", "csv_regionales", "folder of regional CSV/XLSX exports")
	flag.Parse()

	viper.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	viper.SetDefault("MONGO_DB", "fieldreport")
	viper.AutomaticEnv()

	log, err := logging.New("info", "development")
	if err != nil {
		os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	force := viper.GetString("FORCE_UPDATE") == "1"

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	db, err := database.Connect(ctx, viper.GetString("MONGO_URI"), viper.GetString("MONGO_DB"), log)
	cancel()
	if err != nil {
		log.Fatal("mongo connect failed", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		db.Disconnect(ctx)
	}()

	entries, err := os.ReadDir(*dir)
	if err != nil {
		log.Fatal("read import folder failed", zap.String("dir", *dir), zap.Error(err))
	}

	var read, synced, created int
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".csv" && ext != ".xlsx" {
			continue
		}

		regional := regionalFromFilename(name)
		path := filepath.Join(*dir, name)

		var rows [][]string
		if ext == ".csv" {
			rows, err = readCSV(path)
		} else {
			rows, err = readXLSX(path)
		}
		if err != nil {
			log.Error("file read failed", zap.String("file", name), zap.Error(err))
			continue
		}

		tiendas := parseTiendas(rows, regional)
		log.Info("file processed",
			zap.String("file", name), zap.String("regional", regional), zap.Int("tiendas", len(tiendas)))

		for _, t := range tiendas {
			wasCreated, err := db.UpsertTienda(context.Background(), t, force)
			if err != nil {
				log.Error("upsert failed", zap.String("nombre", t.Nombre), zap.Error(err))
				continue
			}
			if wasCreated {
				created++
			}
			synced++
		}
		read += len(tiendas)
	}

	log.Info("sync finished",
		zap.Int("read", read), zap.Int("synced", synced), zap.Int("created", created))
}

// regionalFromFilename takes the segment after the last "-" of the base
// name, e.g. "tiendas-NORTE.csv" yields "NORTE".
func regionalFromFilename(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	base = strings.TrimSpace(base)
	if i := strings.LastIndex(base, "-"); i >= 0 {
		base = base[i+1:]
	}
	if base = strings.TrimSpace(base); base != "" {
		return strings.ToUpper(base)
	}
	return "OTRA"
}

// readCSV autodetects the separator (Excel in es-CO locales exports with
// ";") and strips the UTF-8 BOM Excel hides in the first header.
func readCSV(path string) ([][]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text := strings.TrimPrefix(string(raw), "\uFEFF")

	sep := ','
	if line, _, _ := strings.Cut(text, "\n"); strings.Contains(line, ";") {
		sep = ';'
	}

	r := csv.NewReader(strings.NewReader(text))
	r.Comma = sep
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r.ReadAll()
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	return f.GetRows(sheets[0])
}

// parseTiendas maps header cells fuzzily: any column whose cleaned name
// contains TIENDA, CIUDAD/MUNICIPIO or DEPARTAMENTO feeds the record, so
// the regionals' inconsistent spreadsheets all parse.
func parseTiendas(rows [][]string, regional string) []models.Tienda {
	if len(rows) < 2 {
		return nil
	}

	nombreCol, ciudadCol, departamentoCol := -1, -1, -1
	for i, h := range rows[0] {
		clean := cleanHeader(h)
		switch {
		case strings.Contains(clean, "TIENDA"):
			nombreCol = i
		case strings.Contains(clean, "CIUDAD"), strings.Contains(clean, "MUNICIPIO"):
			ciudadCol = i
		case strings.Contains(clean, "DEPARTAMENTO"):
			departamentoCol = i
		}
	}
	if nombreCol < 0 {
		return nil
	}

	var out []models.Tienda
	for _, row := range rows[1:] {
		nombre := cellAt(row, nombreCol)
		if nombre == "" || nombre == "NAN" {
			continue
		}
		ciudad := cellAt(row, ciudadCol)
		if ciudad == "" {
			ciudad = "DESCONOCIDO"
		}
		departamento := cellAt(row, departamentoCol)

		// Rows from the Bogotá and Soacha exports routinely arrive with
		// the department blank.
		if departamento == "" || departamento == "NAN" {
			switch {
			case strings.Contains(ciudad, "BOGOT") || strings.Contains(nombre, "BOG"):
				departamento = "BOGOTA"
				ciudad = "BOGOTA"
			case strings.Contains(ciudad, "SOACHA"):
				departamento = "CUNDINAMARCA"
			default:
				departamento = "DESCONOCIDO"
			}
		}

		out = append(out, models.Tienda{
			Nombre:       nombre,
			Regional:     regional,
			Departamento: departamento,
			Ciudad:       ciudad,
		})
	}
	return out
}

func cleanHeader(h string) string {
	var b strings.Builder
	for _, r := range h {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return strings.ToUpper(b.String())
}

func cellAt(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.ToUpper(strings.Join(strings.Fields(row[i]), " "))
}
