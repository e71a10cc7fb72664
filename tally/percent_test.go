package tally_test

import (
	"math"
	"testing"

	"github.com/grailbio/ambig/tally"
	"github.com/grailbio/testutil/expect"
)

func TestPercents(t *testing.T) {
	r := tally.Row{Pos: 140, A: 3, T: 2}
	p := r.Percents(false)
	expect.EQ(t, p, tally.Percents{A: 60, T: 40})
	expect.EQ(t, p.Nonzero(), 2)
}

func TestPercentsSumWithinTolerance(t *testing.T) {
	rows := []tally.Row{
		{Pos: 1, A: 1, T: 1, C: 1},
		{Pos: 2, A: 3, T: 1, C: 1, G: 2},
		{Pos: 3, A: 1, T: 6},
	}
	for _, r := range rows {
		p := r.Percents(false)
		sum := p.A + p.T + p.C + p.G
		expect.True(t, math.Abs(sum-100) <= 0.02)
	}
}

func TestPercentsWithIndels(t *testing.T) {
	r := tally.Row{Pos: 7, A: 2, T: 2, Ins: 1, Del: 1}
	p := r.Percents(true)
	expect.EQ(t, p.A, 33.33)
	expect.EQ(t, p.T, 33.33)
	expect.EQ(t, p.Ins, 16.67)
	expect.EQ(t, p.Del, 16.67)
	sum := p.A + p.T + p.C + p.G + p.Ins + p.Del
	expect.True(t, math.Abs(sum-100) <= 0.02)
}

func TestToPercentages(t *testing.T) {
	table := tally.Table{
		{Pos: 140, A: 3, T: 2},
		{Pos: 141},
		{Pos: 142, G: 4, Ins: 2, Del: 1},
	}
	rows := tally.ToPercentages(table)
	expect.EQ(t, len(rows), 3)
	expect.EQ(t, rows[0], tally.PctRow{Pos: 140, A: 60, T: 40})

	// A zero-coverage row converts to NaN, not an error.
	expect.True(t, math.IsNaN(rows[1].A))
	expect.True(t, math.IsNaN(rows[1].G))

	// The divisor is A+T+C+G only; indel counts pass through untouched.
	expect.EQ(t, rows[2].G, 100.0)
	expect.EQ(t, rows[2].Ins, 2)
	expect.EQ(t, rows[2].Del, 1)
}
