package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mmdatafocus/audit_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ErrUnrecognizedPayload is returned when an uploaded file yields no
// recognized dataset: malformed JSON, a JSON document without any known
// top-level key, or a CSV/XLSX sheet whose headers match no record schema.
// Nothing is ever partially applied in that case.
var ErrUnrecognizedPayload = errors.New("no recognized dataset")

// PartialDataset is the typed output of normalizing one uploaded file.
// Only the sets named in Kinds were detected; each one replaces the
// corresponding primary set wholesale.
type PartialDataset struct {
	Accounts     []Account     `json:"accounts,omitempty"`
	Customers    []Customer    `json:"customers,omitempty"`
	Invoices     []Invoice     `json:"invoices,omitempty"`
	Transactions []Transaction `json:"transactions,omitempty"`

	Kinds []RecordKind `json:"kinds"`

	// CoercionFailures counts field values that were non-empty but
	// unparseable and therefore defaulted. Surfaced to callers only when
	// strict coercion reporting is enabled.
	CoercionFailures int `json:"coercion_failures,omitempty"`
}

// RecordCount returns the total number of decoded records across all kinds.
func (d *PartialDataset) RecordCount() int {
	return len(d.Accounts) + len(d.Customers) + len(d.Invoices) + len(d.Transactions)
}

// rawRecord is the generic field-name-to-value mapping produced by the
// source readers. It never crosses the normalization boundary: a
// schema-specific decoder turns it into a typed record immediately.
type rawRecord map[string]any

// value returns the first present key's raw value.
func (r rawRecord) value(keys ...string) any {
	for _, k := range keys {
		if v, ok := r[k]; ok {
			return v
		}
	}
	return nil
}

// str returns the first present key's value as a trimmed string.
func (r rawRecord) str(keys ...string) string {
	return stringify(r.value(keys...))
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case json.Number:
		return val.String()
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}

// coercion applies the lenient per-field parsing rules: absent or empty
// values become zero values, unparseable non-empty values become zero
// values and are counted.
type coercion struct {
	failures int
}

func (c *coercion) amount(v any) decimal.Decimal {
	switch val := v.(type) {
	case nil:
		return decimal.Zero
	case float64:
		return decimal.NewFromFloat(val)
	case json.Number:
		if d, err := decimal.NewFromString(val.String()); err == nil {
			return d
		}
		c.failures++
		return decimal.Zero
	}
	s := stringify(v)
	if s == "" {
		return decimal.Zero
	}
	d, err := utils.ParseDecimalLenient(s)
	if err != nil {
		c.failures++
		return decimal.Zero
	}
	return d
}

func (c *coercion) date(v any) DateString {
	s := stringify(v)
	if s == "" {
		return DateString{}
	}
	d := ParseDateString(s)
	if d.IsZero() {
		c.failures++
	}
	return d
}

func (c *coercion) score(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case json.Number:
		if f, err := val.Float64(); err == nil {
			return f
		}
		c.failures++
		return 0
	}
	s := stringify(v)
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		c.failures++
		return 0
	}
	return f
}

// floatSlice handles both source shapes of risk_score_history: a
// semicolon-separated string (CSV) and a JSON array of numbers.
func (c *coercion) floatSlice(v any) []float64 {
	switch val := v.(type) {
	case nil:
		return []float64{}
	case []any:
		out := make([]float64, 0, len(val))
		for _, item := range val {
			out = append(out, c.score(item))
		}
		return out
	}
	s := stringify(v)
	if s == "" {
		return []float64{}
	}
	parts := strings.Split(s, ";")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		out = append(out, c.score(p))
	}
	return out
}

// Normalize parses one raw uploaded payload into a typed partial dataset.
// Coercion shortfalls are defaulted, never fatal; only a payload with no
// recognizable dataset is rejected.
func Normalize(raw []byte, format SourceFormat) (*PartialDataset, error) {
	switch format {
	case SourceFormatJSON:
		return normalizeJSON(raw)
	case SourceFormatXLSX:
		return normalizeXLSX(raw)
	case SourceFormatCSV:
		return normalizeCSV(raw)
	default:
		return nil, fmt.Errorf("%w: unsupported source format %q", ErrUnrecognizedPayload, format)
	}
}

func normalizeJSON(raw []byte) (*PartialDataset, error) {
	var doc struct {
		Transactions []rawRecord `json:"transactions"`
		Invoices     []rawRecord `json:"invoices"`
		Customers    []rawRecord `json:"customers"`
		Coa          []rawRecord `json:"coa"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnrecognizedPayload, err)
	}

	ds := &PartialDataset{}
	c := &coercion{}
	if doc.Coa != nil {
		ds.Accounts = make([]Account, 0, len(doc.Coa))
		for _, row := range doc.Coa {
			ds.Accounts = append(ds.Accounts, decodeAccount(row))
		}
		ds.Kinds = append(ds.Kinds, RecordKindAccounts)
	}
	if doc.Customers != nil {
		ds.Customers = make([]Customer, 0, len(doc.Customers))
		for _, row := range doc.Customers {
			ds.Customers = append(ds.Customers, decodeCustomer(row, c))
		}
		ds.Kinds = append(ds.Kinds, RecordKindCustomers)
	}
	if doc.Invoices != nil {
		ds.Invoices = make([]Invoice, 0, len(doc.Invoices))
		for _, row := range doc.Invoices {
			ds.Invoices = append(ds.Invoices, decodeInvoice(row, c))
		}
		ds.Kinds = append(ds.Kinds, RecordKindInvoices)
	}
	if doc.Transactions != nil {
		ds.Transactions = make([]Transaction, 0, len(doc.Transactions))
		for _, row := range doc.Transactions {
			ds.Transactions = append(ds.Transactions, decodeTransaction(row, c))
		}
		ds.Kinds = append(ds.Kinds, RecordKindTransactions)
	}
	if len(ds.Kinds) == 0 {
		return nil, ErrUnrecognizedPayload
	}
	ds.CoercionFailures = c.failures
	return ds, nil
}

func normalizeCSV(raw []byte) (*PartialDataset, error) {
	lines := strings.Split(string(raw), "\n")
	var headers []string
	var rows [][]string
	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		values := splitCSVLine(line)
		if headers == nil {
			headers = values
			continue
		}
		rows = append(rows, values)
	}
	if headers == nil {
		return nil, ErrUnrecognizedPayload
	}
	return normalizeTable(headers, rows)
}

func normalizeXLSX(raw []byte) (*PartialDataset, error) {
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnrecognizedPayload, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrUnrecognizedPayload
	}
	all, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnrecognizedPayload, err)
	}
	var headers []string
	var rows [][]string
	for _, row := range all {
		empty := true
		for i := range row {
			row[i] = strings.TrimSpace(row[i])
			if row[i] != "" {
				empty = false
			}
		}
		if empty {
			continue
		}
		if headers == nil {
			headers = row
			continue
		}
		rows = append(rows, row)
	}
	if headers == nil {
		return nil, ErrUnrecognizedPayload
	}
	return normalizeTable(headers, rows)
}

// normalizeTable runs header-based type detection and the per-kind decoder
// over a header row plus data rows (CSV and XLSX share this path).
func normalizeTable(headers []string, rows [][]string) (*PartialDataset, error) {
	lowered := make([]string, len(headers))
	for i, h := range headers {
		lowered[i] = strings.ToLower(strings.TrimSpace(h))
	}
	kind, ok := detectRecordKind(lowered)
	if !ok {
		return nil, ErrUnrecognizedPayload
	}

	ds := &PartialDataset{Kinds: []RecordKind{kind}}
	c := &coercion{}
	switch kind {
	case RecordKindAccounts:
		ds.Accounts = make([]Account, 0, len(rows))
	case RecordKindCustomers:
		ds.Customers = make([]Customer, 0, len(rows))
	case RecordKindInvoices:
		ds.Invoices = make([]Invoice, 0, len(rows))
	case RecordKindTransactions:
		ds.Transactions = make([]Transaction, 0, len(rows))
	}
	for _, values := range rows {
		row := make(rawRecord, len(lowered))
		for i, h := range lowered {
			// Short rows yield absent values.
			if i >= len(values) {
				break
			}
			row[h] = values[i]
		}
		switch kind {
		case RecordKindAccounts:
			ds.Accounts = append(ds.Accounts, decodeAccount(row))
		case RecordKindCustomers:
			ds.Customers = append(ds.Customers, decodeCustomer(row, c))
		case RecordKindInvoices:
			ds.Invoices = append(ds.Invoices, decodeInvoice(row, c))
		case RecordKindTransactions:
			ds.Transactions = append(ds.Transactions, decodeTransaction(row, c))
		}
	}
	ds.CoercionFailures = c.failures
	return ds, nil
}

func detectRecordKind(headers []string) (RecordKind, bool) {
	has := make(map[string]bool, len(headers))
	for _, h := range headers {
		has[h] = true
	}
	switch {
	case has["account_id"] && has["account_type"]:
		return RecordKindAccounts, true
	case has["customer_id"] && has["risk_score_history"]:
		return RecordKindCustomers, true
	case has["invoice_id"] && has["balance_due"]:
		return RecordKindInvoices, true
	case has["transaction_id"] && has["debit_account_id"]:
		return RecordKindTransactions, true
	}
	return "", false
}

// splitCSVLine splits on commas outside quoted spans. A double quote toggles
// in-quote mode for the remainder of the field scan; there is no escaped
// quote handling beyond the toggle.
func splitCSVLine(line string) []string {
	var values []string
	var field strings.Builder
	inQuote := false
	for _, r := range line {
		switch {
		case r == '"':
			inQuote = !inQuote
			field.WriteRune(r)
		case r == ',' && !inQuote:
			values = append(values, cleanCSVValue(field.String()))
			field.Reset()
		default:
			field.WriteRune(r)
		}
	}
	values = append(values, cleanCSVValue(field.String()))
	return values
}

// cleanCSVValue strips one pair of enclosing double quotes and trims
// surrounding whitespace.
func cleanCSVValue(v string) string {
	v = strings.TrimSpace(v)
	if len(v) >= 2 && strings.HasPrefix(v, `"`) && strings.HasSuffix(v, `"`) {
		v = v[1 : len(v)-1]
	}
	return strings.TrimSpace(v)
}
