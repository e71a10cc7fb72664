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
package bamstore

import (
	"github.com/grailbio/ambig/tally"
	"github.com/grailbio/hts/sam"
)

// readBaseAt walks rec's CIGAR and returns the read's base at the 0-based
// reference column pos.  ok is false when the alignment does not cover pos
// at all; a read whose alignment deletes pos returns a ReadBase with
// Deleted set.
func readBaseAt(rec *sam.Record, pos int) (tally.ReadBase, bool) {
	if pos < rec.Pos {
		return tally.ReadBase{}, false
	}
	refPos := rec.Pos
	readPos := 0
	for _, co := range rec.Cigar {
		n := co.Len()
		switch co.Type() {
		case sam.CigarMatch, sam.CigarEqual, sam.CigarMismatch:
			if pos < refPos+n {
				i := readPos + (pos - refPos)
				seq := rec.Seq.Expand()
				if i >= len(seq) {
					return tally.ReadBase{}, false
				}
				var q byte
				if i < len(rec.Qual) {
					q = rec.Qual[i]
				}
				return tally.ReadBase{Base: seq[i], Qual: q}, true
			}
			refPos += n
			readPos += n
		case sam.CigarDeletion, sam.CigarSkipped:
			if pos < refPos+n {
				return tally.ReadBase{Deleted: true}, true
			}
			refPos += n
		case sam.CigarInsertion, sam.CigarSoftClipped:
			readPos += n
		}
	}
	return tally.ReadBase{}, false
}

// alignmentEvents digests rec's CIGAR into reference-coordinate events,
// reusing a's backing storage.  Insertion events are keyed by the 0-based
// column of the last aligned base preceding the insertion; an insertion
// before any aligned base has no column to anchor to and is skipped.
func alignmentEvents(rec *sam.Record, a *tally.ReadAlignment) {
	a.Bases = a.Bases[:0]
	a.Dels = a.Dels[:0]
	a.Ins = a.Ins[:0]

	seq := rec.Seq.Expand()
	qual := rec.Qual
	refPos := rec.Pos
	readPos := 0
	aligned := false
	for _, co := range rec.Cigar {
		n := co.Len()
		switch co.Type() {
		case sam.CigarMatch, sam.CigarEqual, sam.CigarMismatch:
			for i := 0; i < n; i++ {
				if readPos+i >= len(seq) {
					break
				}
				var q byte
				if readPos+i < len(qual) {
					q = qual[readPos+i]
				}
				a.Bases = append(a.Bases, tally.AlignedBase{
					Pos:  refPos + i,
					Base: seq[readPos+i],
					Qual: q,
				})
			}
			refPos += n
			readPos += n
			aligned = true
		case sam.CigarInsertion:
			if aligned {
				a.Ins = append(a.Ins, refPos-1)
			}
			readPos += n
		case sam.CigarDeletion, sam.CigarSkipped:
			for i := 0; i < n; i++ {
				a.Dels = append(a.Dels, refPos+i)
			}
			refPos += n
		case sam.CigarSoftClipped:
			readPos += n
		}
	}
}
