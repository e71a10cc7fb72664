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

/*
bio-ambig tabulates, per reference position, the number of aligned reads in a
BAM supporting each base (and optionally insertions/deletions), and renders
the result as a stacked bar chart.  It is intended for spotting positions
where a sample supports more than one allele, e.g. for contamination or
heterozygosity screening.

Two modes exist.  Targeted mode tallies an explicit position list or range:

  bio-ambig -bam my.bam -positions 140,141,145 -min_depth 10
  bio-ambig -bam my.bam -start_pos 100 -end_pos 200 -percentages

Whole-reference mode scans every position of the contig and keeps only the
positions where more than one base (or indel) is supported above the
read-fraction threshold, writing the full table to mixed_bases.csv:

  bio-ambig -bam my.bam -calculate_all -quality_threshold 8 -indels

The BAM is indexed on the fly when no .bai is found; the BAM must be
coordinate sorted for this to succeed.
*/
package main
