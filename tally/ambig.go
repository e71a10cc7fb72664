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
)

// MixedBasesCSV is the default artifact path for the whole-reference table.
const MixedBasesCSV = "mixed_bases.csv"

// AllOpts configures ComputeAll.
type AllOpts struct {
	// QualityThreshold is the minimum base quality for a read base to be
	// counted.  It applies to this entry point only; Compute takes its own
	// threshold argument.
	QualityThreshold int
	// ReadFraction zeroes any cell below it before the ambiguity filter.
	// The threshold is applied literally to raw counts and percentage
	// columns alike; raw counts are not rescaled to the 0-100 percentage
	// axis first, so a value meaningful on both scales must be supplied.
	ReadFraction float64
	// IncludeIndels merges insertion/deletion counts into the table and
	// into the percentage divisor.
	IncludeIndels bool
	// CSVPath is where the full table, percentage columns included, is
	// written.  Empty disables the artifact.
	CSVPath string
}

// DefaultAllOpts records the tool's historical defaults: whole-reference
// scans always counted bases with quality >= 8.
var DefaultAllOpts = AllOpts{
	QualityThreshold: 8,
	CSVPath:          MixedBasesCSV,
}

// ComputeAll tallies every position of the active contig and returns the
// rows where more than one count column is supported above the read-fraction
// threshold.  Positions with no coverage are dropped, percentages are
// computed per row from the row total, cells below ReadFraction are zeroed
// (counts and percentages alike), and only rows with more than one nonzero
// percentage column survive.  Rows whose raw total became zero during
// thresholding are dropped again at the end.
//
// Before returning, the surviving table is written with its percentage
// columns to opts.CSVPath; the returned table carries counts only.
func ComputeAll(ctx context.Context, src Source, opts AllOpts) (Table, error) {
	_, refLen := src.Ref()
	counts := make(Table, refLen)
	for i := range counts {
		counts[i].Pos = i + 1
	}
	err := src.EachAlignment(func(a *ReadAlignment) error {
		for _, b := range a.Bases {
			if b.Pos < 0 || b.Pos >= refLen {
				continue
			}
			if int(b.Qual) < opts.QualityThreshold {
				continue
			}
			row := &counts[b.Pos]
			switch b.Base {
			case 'A':
				row.A++
			case 'T':
				row.T++
			case 'C':
				row.C++
			case 'G':
				row.G++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if opts.IncludeIndels {
		indels, err := ComputeIndels(src)
		if err != nil {
			return nil, err
		}
		for i := range counts {
			ic := indels[counts[i].Pos]
			counts[i].Ins = ic.Ins
			counts[i].Del = ic.Del
		}
	}

	// Zero-total rows go first so the percentage math never divides by zero
	// on this path.
	var covered Table
	for _, r := range counts {
		if r.Total() > 0 {
			covered = append(covered, r)
		}
	}

	pcts := make([]Percents, len(covered))
	for i := range covered {
		pcts[i] = covered[i].Percents(opts.IncludeIndels)
	}
	if opts.ReadFraction > 0 {
		for i := range covered {
			zeroCountsBelow(&covered[i], opts.ReadFraction)
			pcts[i].zeroBelow(opts.ReadFraction)
		}
	}

	var rows Table
	var rowPcts []Percents
	for i := range covered {
		if pcts[i].Nonzero() <= 1 {
			continue
		}
		if covered[i].Total() == 0 {
			continue
		}
		rows = append(rows, covered[i])
		rowPcts = append(rowPcts, pcts[i])
	}

	if opts.CSVPath != "" {
		if err := writeMixedCSV(ctx, opts.CSVPath, rows, rowPcts, opts.IncludeIndels); err != nil {
			return nil, err
		}
	}
	return rows, nil
}

// zeroCountsBelow applies the read-fraction threshold to the raw count
// columns.  Counts are compared against the threshold as-is, on the same
// scale as the percentage columns.
func zeroCountsBelow(r *Row, threshold float64) {
	for _, f := range [6]*int{&r.A, &r.T, &r.C, &r.G, &r.Ins, &r.Del} {
		if float64(*f) < threshold {
			*f = 0
		}
	}
}
