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

// ReadBase is one read's contribution to a single pileup column.
type ReadBase struct {
	// Base is the read's uppercase ASCII base at the column.  Meaningless
	// when Deleted is set.
	Base byte
	// Qual is the base quality at the column.
	Qual byte
	// Deleted marks a read whose alignment deletes this column.  Deleted
	// reads never contribute to the four base counts.
	Deleted bool
}

// AlignedBase is one (reference column, base, quality) triple from a read's
// alignment.
type AlignedBase struct {
	// Pos is the 0-based reference column.
	Pos  int
	Base byte
	Qual byte
}

// ReadAlignment is the digest of a single aligned read: its aligned bases in
// reference coordinates plus its indel events.  Callbacks may not retain the
// value or its slices; sources reuse the backing storage between reads.
type ReadAlignment struct {
	Bases []AlignedBase
	// Dels lists the 0-based reference columns the read's alignment deletes.
	Dels []int
	// Ins lists, for each insertion in the read, the 0-based reference column
	// of the last aligned base preceding it.
	Ins []int
}

// Source is the alignment store the engines read from.  Implementations must
// allow concurrent ColumnReads calls; all other methods are called
// sequentially.
type Source interface {
	// Ref returns the active contig's name and length in positions.
	Ref() (name string, length int)
	// ColumnReads returns one entry per aligned read overlapping the 0-based
	// position pos.  Uncovered and out-of-reference positions return an empty
	// slice, not an error.
	ColumnReads(pos int) ([]ReadBase, error)
	// EachAlignment calls fn once per read aligned to the active contig, in
	// position order.  A non-nil error from fn stops the scan and is returned
	// as is.
	EachAlignment(fn func(*ReadAlignment) error) error
}
