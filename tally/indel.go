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

// IndelCount holds insertion and deletion support at one position.
type IndelCount struct {
	Ins int
	Del int
}

// ComputeIndels scans every alignment on the active contig once and returns
// a mapping from 1-based position to indel support, with an entry for every
// position 1..refLen.
//
// A read deleting 0-based column c counts toward Del at position c+1 (the
// column's own position).  A read with an insertion whose last aligned base
// sits at 0-based column c counts toward Ins at position c+2: insertions are
// attributed one position downstream of the column where they are detected.
// An insertion that would land past the reference end is clamped to the
// final position instead of being dropped.
func ComputeIndels(src Source) (map[int]IndelCount, error) {
	_, refLen := src.Ref()
	counts := make(map[int]IndelCount, refLen)
	for pos := 1; pos <= refLen; pos++ {
		counts[pos] = IndelCount{}
	}
	err := src.EachAlignment(func(a *ReadAlignment) error {
		for _, c := range a.Dels {
			if c < 0 || c >= refLen {
				continue
			}
			ic := counts[c+1]
			ic.Del++
			counts[c+1] = ic
		}
		for _, c := range a.Ins {
			pos := c + 2
			if pos > refLen {
				pos = refLen
			}
			if pos < 1 {
				continue
			}
			ic := counts[pos]
			ic.Ins++
			counts[pos] = ic
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}
