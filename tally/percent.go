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

import "math"

// Percents holds a row's count columns normalized to percentages in [0,100].
type Percents struct {
	A   float64
	T   float64
	C   float64
	G   float64
	Ins float64
	Del float64
}

// Nonzero returns how many percentage columns are strictly positive.  NaN
// columns do not count.
func (p *Percents) Nonzero() (n int) {
	for _, v := range [6]float64{p.A, p.T, p.C, p.G, p.Ins, p.Del} {
		if v > 0 {
			n++
		}
	}
	return n
}

// zeroBelow zeroes every column whose value is below threshold.  NaN columns
// are left alone.
func (p *Percents) zeroBelow(threshold float64) {
	for _, f := range [6]*float64{&p.A, &p.T, &p.C, &p.G, &p.Ins, &p.Del} {
		if *f < threshold {
			*f = 0
		}
	}
}

// round2 rounds to two decimal places.
func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// Percents converts the row's counts to percentages of the row total,
// rounded to two decimals.  withIndels selects the six-column divisor and
// populates the Ins/Del columns; otherwise the divisor is A+T+C+G and
// Ins/Del stay zero.  A zero-total row yields NaN in every populated column.
func (r *Row) Percents(withIndels bool) Percents {
	total := r.BaseTotal()
	if withIndels {
		total = r.Total()
	}
	d := float64(total)
	p := Percents{
		A: round2(100 * float64(r.A) / d),
		T: round2(100 * float64(r.T) / d),
		C: round2(100 * float64(r.C) / d),
		G: round2(100 * float64(r.G) / d),
	}
	if withIndels {
		p.Ins = round2(100 * float64(r.Ins) / d)
		p.Del = round2(100 * float64(r.Del) / d)
	}
	return p
}

// PctRow is a targeted-mode display row: the four base columns as
// percentages of A+T+C+G, with any indel counts copied through untouched.
// Indels never enter targeted-mode percentages; only the whole-reference path
// normalizes them.
type PctRow struct {
	Pos int

	A float64
	T float64
	C float64
	G float64

	Ins int
	Del int
}

// ToPercentages converts a counts table to percentage display rows.  Rows
// with a zero base total convert to NaN rather than raising an error.
func ToPercentages(t Table) []PctRow {
	rows := make([]PctRow, len(t))
	for i := range t {
		p := t[i].Percents(false)
		rows[i] = PctRow{
			Pos: t[i].Pos,
			A:   p.A,
			T:   p.T,
			C:   p.C,
			G:   p.G,
			Ins: t[i].Ins,
			Del: t[i].Del,
		}
	}
	return rows
}
