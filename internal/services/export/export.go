// Package export renders analytics results as JSON, CSV or XLSX documents.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"CarbonDesk/internal/domain/models"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat is case-insensitive.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatCSV, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("format %q: %w", s, models.ErrUnsupportedFormat)
	}
}

func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/json"
	}
}

func (f Format) Extension() string { return string(f) }

// table is the flat form shared by the CSV and XLSX writers. Cells hold
// string, int, bool or float64 values; identifiers always stay strings.
type table struct {
	name   string
	header []string
	rows   [][]any
}

// Export renders result in format. It has no side effects.
func Export(result any, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		if _, err := tables(result); err != nil {
			return nil, err
		}
		return json.Marshal(result)
	case FormatCSV:
		ts, err := tables(result)
		if err != nil {
			return nil, err
		}
		return writeCSV(ts)
	case FormatXLSX:
		ts, err := tables(result)
		if err != nil {
			return nil, err
		}
		return writeXLSX(ts)
	default:
		return nil, fmt.Errorf("export: format %q: %w", format, models.ErrUnsupportedFormat)
	}
}

func tables(result any) ([]table, error) {
	switch r := result.(type) {
	case models.StatisticsResult:
		return statisticsTables(r), nil
	case *models.StatisticsResult:
		return statisticsTables(*r), nil
	case models.SeasonalDecomposition:
		return seasonalTables(r), nil
	case *models.SeasonalDecomposition:
		return seasonalTables(*r), nil
	case models.PredictionResult:
		return predictionTables(r), nil
	case *models.PredictionResult:
		return predictionTables(*r), nil
	case models.RankingResult:
		return rankingTables(r), nil
	case *models.RankingResult:
		return rankingTables(*r), nil
	case models.Comparison:
		return comparisonTables(r), nil
	case *models.Comparison:
		return comparisonTables(*r), nil
	default:
		return nil, fmt.Errorf("export: unsupported result %T: %w", result, models.ErrInvalidArgument)
	}
}

func f64(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func ts(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func text(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return f64(x)
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

func statisticsTables(r models.StatisticsResult) []table {
	return []table{{
		name:   "statistics",
		header: []string{"metric", "value"},
		rows: [][]any{
			{"asset_id", r.AssetID},
			{"window_start", ts(r.WindowStart)},
			{"window_end", ts(r.WindowEnd)},
			{"sample_count", r.SampleCount},
			{"mean", r.Mean},
			{"variance", r.Variance},
			{"std_dev", r.StdDev},
			{"min", r.Min},
			{"max", r.Max},
			{"p50", r.Percentiles.P50},
			{"p90", r.Percentiles.P90},
			{"p99", r.Percentiles.P99},
			{"volatility", r.Volatility},
		},
	}}
}

func seasonalTables(r models.SeasonalDecomposition) []table {
	t := table{
		name:   "seasonal",
		header: []string{"timestamp", "original", "trend", "seasonal", "residual", "edge"},
	}
	for i := range r.Original {
		row := []any{"", r.Original[i], r.Trend[i], r.Seasonal[i], r.Residual[i], r.Edge[i]}
		if i < len(r.Timestamps) {
			row[0] = ts(r.Timestamps[i])
		}
		t.rows = append(t.rows, row)
	}
	idx := table{name: "seasonal_index", header: []string{"phase", "offset"}}
	for p, v := range r.SeasonalIndex {
		idx.rows = append(idx.rows, []any{p, v})
	}
	return []table{t, idx}
}

func predictionTables(r models.PredictionResult) []table {
	t := table{
		name:   "prediction",
		header: []string{"step", "timestamp", "value", "confidence_low", "confidence_high"},
	}
	for i, p := range r.Forecast {
		t.rows = append(t.rows, []any{i + 1, ts(p.Timestamp), p.Value, p.ConfidenceLow, p.ConfidenceHigh})
	}
	return []table{t}
}

func rankingTables(r models.RankingResult) []table {
	t := table{name: "ranking", header: []string{"rank", "asset_id", "score"}}
	for i, a := range r.Ranking {
		t.rows = append(t.rows, []any{i + 1, a.AssetID, a.Score})
	}
	return []table{t}
}

func comparisonTables(r models.Comparison) []table {
	t := table{
		name:   "comparison",
		header: []string{"metric", r.AssetA, r.AssetB, "delta", "normalized_" + r.AssetA, "normalized_" + r.AssetB},
	}
	for _, m := range r.Metrics {
		t.rows = append(t.rows, []any{m.Metric, m.A, m.B, m.Delta, m.NormalizedA, m.NormalizedB})
	}
	t.rows = append(t.rows, []any{"score", r.ScoreA, r.ScoreB, r.RelativeScore, "", ""})
	return []table{t}
}

// writeCSV separates multiple tables with a blank line.
func writeCSV(ts []table) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for i, t := range ts {
		if i > 0 {
			if err := w.Write(nil); err != nil {
				return nil, err
			}
		}
		if err := w.Write(t.header); err != nil {
			return nil, err
		}
		for _, row := range t.rows {
			rec := make([]string, len(row))
			for c, v := range row {
				rec[c] = text(v)
			}
			if err := w.Write(rec); err != nil {
				return nil, err
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("export csv: %w", err)
	}
	return buf.Bytes(), nil
}

// writeXLSX puts each table on its own sheet; numeric cells are written as numbers.
func writeXLSX(ts []table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	for i, t := range ts {
		sheet := t.name
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return nil, fmt.Errorf("export xlsx: %w", err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return nil, fmt.Errorf("export xlsx: %w", err)
		}
		if err := f.SetSheetRow(sheet, "A1", &t.header); err != nil {
			return nil, fmt.Errorf("export xlsx: %w", err)
		}
		for r, row := range t.rows {
			cells := make([]any, len(row))
			for c, v := range row {
				cells[c] = v
				// spreadsheets have no NaN or Inf
				if n, ok := v.(float64); ok && (math.IsNaN(n) || math.IsInf(n, 0)) {
					cells[c] = f64(n)
				}
			}
			cell, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return nil, fmt.Errorf("export xlsx: %w", err)
			}
			if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
				return nil, fmt.Errorf("export xlsx: %w", err)
			}
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("export xlsx: %w", err)
	}
	return buf.Bytes(), nil
}
