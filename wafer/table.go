package wafer

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Field is a canonical column name the engine understands.
type Field string

const (
	FieldX           Field = "x"
	FieldY           Field = "y"
	FieldData        Field = "data"
	FieldClass       Field = "class"
	FieldThickness   Field = "thickness"
	FieldCycles      Field = "cycles"
	FieldSize        Field = "size"
	FieldDescription Field = "description"
)

// columnSynonyms maps each canonical field to the header names accepted for it,
// in priority order. Matching is case-insensitive on trimmed headers.
var columnSynonyms = map[Field][]string{
	FieldX:           {"x"},
	FieldY:           {"y"},
	FieldData:        {"data", "value"},
	FieldClass:       {"class", "type", "category"},
	FieldThickness:   {"thickness_nm", "thickness"},
	FieldCycles:      {"n_cycles", "cycles"},
	FieldSize:        {"size"},
	FieldDescription: {"description"},
}

// ColumnMapping overrides synonym lookup with explicit header names.
type ColumnMapping map[Field]string

// MissingColumnError reports required fields that no header could be resolved to.
type MissingColumnError struct {
	Missing   []Field
	Available []string
}

func (e *MissingColumnError) Error() string {
	names := make([]string, len(e.Missing))
	for i, f := range e.Missing {
		names[i] = string(f)
	}
	return fmt.Sprintf("missing required columns [%s]; available columns: [%s]",
		strings.Join(names, ", "), strings.Join(e.Available, ", "))
}

// Table is a parsed CSV file: a header row and string cells.
type Table struct {
	Header []string
	Rows   [][]string
}

// LoadTable reads a CSV table from path.
func LoadTable(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening table %s: %w", path, err)
	}
	defer file.Close() //nolint:errcheck // read-only file

	t, err := ReadCSV(file)
	if err != nil {
		return nil, fmt.Errorf("table %s: %w", path, err)
	}
	return t, nil
}

// ReadCSV parses a CSV stream whose first record is the header.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty CSV: no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	t := &Table{Header: header}
	rowIdx := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("CSV row %d: %w", rowIdx, err)
		}
		t.Rows = append(t.Rows, record)
		rowIdx++
	}
	return t, nil
}

// Resolution maps canonical fields to column indices. It is computed once per
// table by Resolve and reused for every row.
type Resolution map[Field]int

// Has reports whether f was resolved.
func (r Resolution) Has(f Field) bool {
	_, ok := r[f]
	return ok
}

// Resolve maps required and optional fields to columns. An explicit mapping
// entry wins over synonyms; an explicit entry naming an absent column leaves the
// field unresolved. Missing required fields yield a *MissingColumnError.
func (t *Table) Resolve(required, optional []Field, mapping ColumnMapping) (Resolution, error) {
	index := make(map[string]int, len(t.Header))
	for i, h := range t.Header {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}

	lookup := func(f Field) (int, bool) {
		if name, ok := mapping[f]; ok && name != "" {
			i, found := index[strings.ToLower(strings.TrimSpace(name))]
			return i, found
		}
		for _, syn := range columnSynonyms[f] {
			if i, found := index[syn]; found {
				return i, true
			}
		}
		return 0, false
	}

	res := make(Resolution)
	var missing []Field
	for _, f := range required {
		i, ok := lookup(f)
		if !ok {
			missing = append(missing, f)
			continue
		}
		res[f] = i
	}
	if len(missing) > 0 {
		available := make([]string, len(t.Header))
		copy(available, t.Header)
		return nil, &MissingColumnError{Missing: missing, Available: available}
	}
	for _, f := range optional {
		if i, ok := lookup(f); ok {
			res[f] = i
		}
	}
	return res, nil
}

// cell returns the trimmed cell for f in row, or "" when absent.
func (r Resolution) cell(row []string, f Field) string {
	i, ok := r[f]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// number parses the cell for f. Empty, malformed and non-finite cells are invalid.
func (r Resolution) number(row []string, f Field) (float64, bool) {
	s := r.cell(row, f)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Dataset builds a wafer dataset from the x, y and data columns. Rows with an
// empty or non-numeric cell in any of them are dropped and reported as a warning.
func (t *Table) Dataset(name string, mapping ColumnMapping) (*Dataset, error) {
	res, err := t.Resolve([]Field{FieldX, FieldY, FieldData}, nil, mapping)
	if err != nil {
		return nil, fmt.Errorf("dataset %q: %w", name, err)
	}

	samples := make([]Sample, 0, len(t.Rows))
	dropped := 0
	for _, row := range t.Rows {
		x, okX := res.number(row, FieldX)
		y, okY := res.number(row, FieldY)
		v, okV := res.number(row, FieldData)
		if !okX || !okY || !okV {
			dropped++
			continue
		}
		samples = append(samples, Sample{X: x, Y: y, Value: v})
	}

	ds, err := NewDataset(name, samples)
	if err != nil {
		return nil, err
	}
	if dropped > 0 {
		ds.warn(fmt.Sprintf("dropped %d rows with missing or non-numeric cells", dropped))
	}
	return ds, nil
}

// GPCDataset builds a growth-per-cycle dataset from the thickness column.
// fixedCycles > 0 divides every row by the same count; otherwise the cycles
// column is required and used per row.
func (t *Table) GPCDataset(name string, mapping ColumnMapping, fixedCycles float64) (*Dataset, error) {
	required := []Field{FieldX, FieldY, FieldThickness}
	if fixedCycles <= 0 {
		required = append(required, FieldCycles)
	}
	res, err := t.Resolve(required, nil, mapping)
	if err != nil {
		return nil, fmt.Errorf("gpc dataset %q: %w", name, err)
	}

	samples := make([]Sample, 0, len(t.Rows))
	var perRow []float64
	dropped := 0
	for _, row := range t.Rows {
		x, okX := res.number(row, FieldX)
		y, okY := res.number(row, FieldY)
		th, okT := res.number(row, FieldThickness)
		if !okX || !okY || !okT {
			dropped++
			continue
		}
		samples = append(samples, Sample{X: x, Y: y, Value: th})
		if fixedCycles <= 0 {
			c, ok := res.number(row, FieldCycles)
			if !ok {
				c = math.NaN()
			}
			perRow = append(perRow, c)
		}
	}

	thickness, err := NewDataset(name, samples)
	if err != nil {
		return nil, err
	}
	if dropped > 0 {
		thickness.warn(fmt.Sprintf("dropped %d rows with missing or non-numeric cells", dropped))
	}

	cycles := Cycles{Fixed: fixedCycles}
	if fixedCycles <= 0 {
		cycles = Cycles{PerSample: perRow}
	}
	return GPC(thickness, cycles)
}

// Defect is one entry of a defect inspection file.
type Defect struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Class       string  `json:"class"`
	Size        float64 `json:"size,omitempty"`
	Description string  `json:"description,omitempty"`
}

// UnknownDefectClass labels defects whose file carries no class column or an empty cell.
const UnknownDefectClass = "Unknown"

// Defects reads defect records. unitScale multiplies the coordinates into the
// wafer map's millimetre frame and must be positive.
func (t *Table) Defects(mapping ColumnMapping, unitScale float64) ([]Defect, error) {
	if unitScale <= 0 || math.IsNaN(unitScale) || math.IsInf(unitScale, 0) {
		return nil, fmt.Errorf("unit scale must be a positive finite number, got %f", unitScale)
	}
	res, err := t.Resolve([]Field{FieldX, FieldY}, []Field{FieldClass, FieldSize, FieldDescription}, mapping)
	if err != nil {
		return nil, fmt.Errorf("defect table: %w", err)
	}

	defects := make([]Defect, 0, len(t.Rows))
	for _, row := range t.Rows {
		x, okX := res.number(row, FieldX)
		y, okY := res.number(row, FieldY)
		if !okX || !okY {
			continue
		}
		d := Defect{
			X:           x * unitScale,
			Y:           y * unitScale,
			Class:       res.cell(row, FieldClass),
			Description: res.cell(row, FieldDescription),
		}
		if d.Class == "" {
			d.Class = UnknownDefectClass
		}
		if size, ok := res.number(row, FieldSize); ok {
			d.Size = size
		}
		defects = append(defects, d)
	}
	return defects, nil
}

// GroupDefects buckets defects by class. Classes are returned sorted.
func GroupDefects(defects []Defect) (classes []string, byClass map[string][]Defect) {
	byClass = make(map[string][]Defect)
	for _, d := range defects {
		byClass[d.Class] = append(byClass[d.Class], d)
	}
	for c := range byClass {
		classes = append(classes, c)
	}
	sort.Strings(classes)
	return classes, byClass
}
