package tally_test

import (
	"testing"

	"github.com/grailbio/ambig/tally"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func TestComputeIndels(t *testing.T) {
	src := &fakeSource{
		name:   "chr1",
		length: 150,
		aligns: []tally.ReadAlignment{
			{Dels: []int{99}},
			{Ins: []int{99}},
			{Dels: []int{99, 100}},
		},
	}
	counts, err := tally.ComputeIndels(src)
	assert.NoError(t, err)

	// Every position is present, zero-initialized.
	expect.EQ(t, len(counts), 150)
	expect.EQ(t, counts[1], tally.IndelCount{})

	// A deletion at 0-based column 99 lands at position 100; an insertion
	// detected at the same column lands one position downstream, at 101.
	expect.EQ(t, counts[100], tally.IndelCount{Del: 2})
	expect.EQ(t, counts[101], tally.IndelCount{Del: 1, Ins: 1})
}

func TestComputeIndelsClampsAtReferenceEnd(t *testing.T) {
	src := &fakeSource{
		name:   "chr1",
		length: 100,
		aligns: []tally.ReadAlignment{
			{Ins: []int{99}}, // would land at 101
			{Ins: []int{98}},
		},
	}
	counts, err := tally.ComputeIndels(src)
	assert.NoError(t, err)
	expect.EQ(t, counts[100], tally.IndelCount{Ins: 2})
}

func TestComputeIndelsIgnoresOutOfRangeColumns(t *testing.T) {
	src := &fakeSource{
		name:   "chr1",
		length: 50,
		aligns: []tally.ReadAlignment{
			{Dels: []int{-1, 50}},
			{Ins: []int{-5}},
		},
	}
	counts, err := tally.ComputeIndels(src)
	assert.NoError(t, err)
	for pos := 1; pos <= 50; pos++ {
		expect.EQ(t, counts[pos], tally.IndelCount{})
	}
}
