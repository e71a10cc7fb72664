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
	"github.com/grailbio/base/traverse"
)

// Compute tallies base support at each requested 1-based position.  The
// result has one row per requested position, in the caller's order; the
// caller's list is not deduplicated.  Positions outside the reference, or
// with no coverage, produce all-zero rows rather than errors.
//
// A read contributes to a row when it has a base aligned at the position
// (reads deleting the position are skipped) and that base's quality is at
// least qualityThreshold.  The minDepth gate is applied last, per field.
//
// Positions are computed independently and in parallel; src.ColumnReads must
// tolerate concurrent calls.
func Compute(src Source, positions []int, minDepth, qualityThreshold int) (Table, error) {
	_, refLen := src.Ref()
	rows := make(Table, len(positions))
	err := traverse.Each(len(positions), func(i int) error {
		pos := positions[i]
		rows[i].Pos = pos
		if pos < 1 || pos > refLen {
			return nil
		}
		reads, err := src.ColumnReads(pos - 1)
		if err != nil {
			return err
		}
		countColumn(&rows[i], reads, qualityThreshold)
		return nil
	})
	if err != nil {
		return nil, err
	}
	ApplyMinDepth(rows, minDepth)
	return rows, nil
}

func countColumn(row *Row, reads []ReadBase, qualityThreshold int) {
	for _, rb := range reads {
		if rb.Deleted || int(rb.Qual) < qualityThreshold {
			continue
		}
		switch rb.Base {
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
}
