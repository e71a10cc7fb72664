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

// Package tally computes per-position base and indel support tables from
// aligned reads, and filters them down to the positions where more than one
// allele is supported ("mixed bases").
package tally

// Row holds the read support observed at a single reference position.  The
// shape is fixed so that aggregation can never encounter a missing column.
type Row struct {
	// Pos is the 1-based reference position.
	Pos int

	A int
	T int
	C int
	G int

	// Ins counts reads with an insertion attributed to this position; Del
	// counts reads whose alignment deletes it.  Both stay zero unless indel
	// counting was requested.
	Ins int
	Del int
}

// Table is a sequence of per-position rows.  Whole-reference results are
// strictly increasing in Pos; tables built for an explicit position list keep
// the caller's order, duplicates included.
type Table []Row

// BaseTotal returns A+T+C+G.
func (r *Row) BaseTotal() int {
	return r.A + r.T + r.C + r.G
}

// Total returns the sum of all six count columns.
func (r *Row) Total() int {
	return r.BaseTotal() + r.Ins + r.Del
}

// ApplyMinDepth zeroes every count field whose value is below minDepth.  The
// gate is per field, not per row: a row may keep some columns and lose
// others.  Applying the same gate twice is a no-op.
func ApplyMinDepth(t Table, minDepth int) {
	if minDepth <= 0 {
		return
	}
	for i := range t {
		r := &t[i]
		if r.A < minDepth {
			r.A = 0
		}
		if r.T < minDepth {
			r.T = 0
		}
		if r.C < minDepth {
			r.C = 0
		}
		if r.G < minDepth {
			r.G = 0
		}
		if r.Ins < minDepth {
			r.Ins = 0
		}
		if r.Del < minDepth {
			r.Del = 0
		}
	}
}
