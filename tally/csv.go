// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package tally

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"

	"github.com/grailbio/base/file"
)

// WriteCSV writes a counts table as CSV with a header row.  withIndels adds
// the Insertion/Deletion columns.
func WriteCSV(w io.Writer, t Table, withIndels bool) error {
	cw := csv.NewWriter(w)
	header := []string{"position", "A", "T", "C", "G"}
	if withIndels {
		header = append(header, "Insertion", "Deletion")
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for i := range t {
		r := &t[i]
		rec := []string{
			strconv.Itoa(r.Pos),
			strconv.Itoa(r.A),
			strconv.Itoa(r.T),
			strconv.Itoa(r.C),
			strconv.Itoa(r.G),
		}
		if withIndels {
			rec = append(rec, strconv.Itoa(r.Ins), strconv.Itoa(r.Del))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WritePctCSV writes targeted-mode percentage rows as CSV.  Base columns are
// percentages; indel columns, when present, stay raw counts.
func WritePctCSV(w io.Writer, rows []PctRow, withIndels bool) error {
	cw := csv.NewWriter(w)
	header := []string{"position", "A", "T", "C", "G"}
	if withIndels {
		header = append(header, "Insertion", "Deletion")
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for i := range rows {
		r := &rows[i]
		rec := []string{
			strconv.Itoa(r.Pos),
			formatPct(r.A),
			formatPct(r.T),
			formatPct(r.C),
			formatPct(r.G),
		}
		if withIndels {
			rec = append(rec, strconv.Itoa(r.Ins), strconv.Itoa(r.Del))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// writeMixedCSV persists the whole-reference table, percentage columns
// included.
func writeMixedCSV(ctx context.Context, path string, rows Table, pcts []Percents, withIndels bool) (err error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return err
	}
	defer func() {
		if e := out.Close(ctx); e != nil && err == nil {
			err = e
		}
	}()

	cw := csv.NewWriter(out.Writer(ctx))
	header := []string{"position", "A", "T", "C", "G"}
	if withIndels {
		header = append(header, "Insertion", "Deletion")
	}
	header = append(header, "A_percent", "T_percent", "C_percent", "G_percent")
	if withIndels {
		header = append(header, "Insertion_percent", "Deletion_percent")
	}
	if err = cw.Write(header); err != nil {
		return err
	}
	for i := range rows {
		r := &rows[i]
		p := &pcts[i]
		rec := []string{
			strconv.Itoa(r.Pos),
			strconv.Itoa(r.A),
			strconv.Itoa(r.T),
			strconv.Itoa(r.C),
			strconv.Itoa(r.G),
		}
		if withIndels {
			rec = append(rec, strconv.Itoa(r.Ins), strconv.Itoa(r.Del))
		}
		rec = append(rec, formatPct(p.A), formatPct(p.T), formatPct(p.C), formatPct(p.G))
		if withIndels {
			rec = append(rec, formatPct(p.Ins), formatPct(p.Del))
		}
		if err = cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatPct(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
