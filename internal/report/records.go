// Package report writes sweep results to CSV, plain-text and compressed
// snapshot files.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"ising-mc/internal/experiment"
)

// RecordHeader is the column layout of WriteRecords.
var RecordHeader = []string{
	"point", "temperature", "field", "anisotropy",
	"energy", "energy_std",
	"entropy", "entropy_std",
	"free_energy", "free_energy_std",
	"heat_capacity", "heat_capacity_std",
	"magnetization", "magnetization_std",
	"alignment", "acceptance",
}

// WriteRecords writes one CSV row per record, keyed by the record's sweep
// position. When ref is non-nil its columns are appended.
func WriteRecords(w io.Writer, recs []experiment.Record, ref *Reference) error {
	cw := csv.NewWriter(w)
	header := RecordHeader
	if ref != nil {
		header = append(append([]string(nil), RecordHeader...), ref.Columns...)
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range recs {
		row := []string{
			strconv.Itoa(r.Point), ftoa(r.Temperature), ftoa(r.Field), ftoa(r.Anisotropy),
			ftoa(r.Energy.Mean), ftoa(r.Energy.StdDev),
			ftoa(r.Entropy.Mean), ftoa(r.Entropy.StdDev),
			ftoa(r.FreeEnergy.Mean), ftoa(r.FreeEnergy.StdDev),
			ftoa(r.HeatCapacity.Mean), ftoa(r.HeatCapacity.StdDev),
			ftoa(r.Magnetization.Mean), ftoa(r.Magnetization.StdDev),
			ftoa(r.Alignment.Mean), ftoa(r.Acceptance),
		}
		if ref != nil {
			row = append(row, ref.cells(r)...)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteHistogram writes one column per parameter point and one row per run.
func WriteHistogram(w io.Writer, dists []experiment.Distribution) error {
	cw := csv.NewWriter(w)
	header := make([]string, len(dists))
	rows := 0
	for i, d := range dists {
		header[i] = d.Params.String()
		if len(d.Values) > rows {
			rows = len(d.Values)
		}
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	row := make([]string, len(dists))
	for r := 0; r < rows; r++ {
		for i, d := range dists {
			row[i] = ""
			if r < len(d.Values) {
				row[i] = ftoa(d.Values[r])
			}
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("report: histogram row %d: %w", r, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func ftoa(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
