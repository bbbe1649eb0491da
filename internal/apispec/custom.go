package apispec

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/url"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/hakim/asmctl/internal/models"
)

// Column aliases, in precedence order.
var (
	methodColumns = []string{"method", "http_method", "httpmethod"}
	pathColumns   = []string{"path", "endpoint", "route", "url"}
	nameColumns   = []string{"name", "title", "operation", "operation_id", "operationid"}
)

// parseCustom reads a table whose first row is a header. Workbooks are read
// from their first sheet; anything else is treated as CSV.
func parseCustom(data []byte, filename string) ([]models.Endpoint, error) {
	var (
		rows [][]string
		err  error
	)
	if isSpreadsheet(data, filename) {
		rows, err = workbookRows(data)
	} else {
		rows, err = csvRows(data)
	}
	if err != nil {
		return nil, err
	}
	return fromRows(rows), nil
}

func workbookRows(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: reading workbook: %v", ErrUnsupported, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: reading sheet %q: %v", ErrUnsupported, sheets[0], err)
	}
	return rows, nil
}

func csvRows(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: reading CSV: %v", ErrUnsupported, err)
	}
	return rows, nil
}

func fromRows(rows [][]string) []models.Endpoint {
	out := []models.Endpoint{}
	if len(rows) < 2 {
		return out
	}

	header := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, dup := header[key]; !dup {
			header[key] = i
		}
	}
	col := func(aliases []string) int {
		for _, a := range aliases {
			if i, ok := header[a]; ok {
				return i
			}
		}
		return -1
	}
	methodCol, pathCol, nameCol := col(methodColumns), col(pathColumns), col(nameColumns)
	if methodCol < 0 || pathCol < 0 {
		return out
	}

	cell := func(row []string, i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	for _, row := range rows[1:] {
		method := strings.ToUpper(cell(row, methodCol))
		rawPath := cell(row, pathCol)
		if method == "" || rawPath == "" {
			continue
		}
		path := rawPath
		if u, err := url.Parse(rawPath); err == nil && u.Scheme != "" && u.Host != "" {
			path = u.Path
		}
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		out = append(out, endpoint(cell(row, nameCol), method, path))
	}
	return out
}
