package bamstore_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/grailbio/ambig/bamstore"
	"github.com/grailbio/ambig/tally"
	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

// writeTestBAM writes a coordinate-sorted BAM with three reads on chr1 and
// no index.
func writeTestBAM(t *testing.T, path string) {
	ref, err := sam.NewReference("chr1", "", "", 1000, nil, nil)
	assert.NoError(t, err)
	header, err := sam.NewHeader(nil, []*sam.Reference{ref})
	assert.NoError(t, err)
	header.SortOrder = sam.Coordinate

	quals := func(n int, q byte) []byte {
		out := make([]byte, n)
		for i := range out {
			out[i] = q
		}
		return out
	}
	recs := []*sam.Record{
		{
			Name:  "read1",
			Ref:   ref,
			Pos:   99,
			MapQ:  60,
			Cigar: []sam.CigarOp{sam.NewCigarOp(sam.CigarMatch, 2)},
			Seq:   sam.NewSeq([]byte("AC")),
			Qual:  quals(2, 40),
		},
		{
			Name: "read2",
			Ref:  ref,
			Pos:  99,
			MapQ: 60,
			Cigar: []sam.CigarOp{
				sam.NewCigarOp(sam.CigarMatch, 1),
				sam.NewCigarOp(sam.CigarDeletion, 1),
				sam.NewCigarOp(sam.CigarMatch, 1),
			},
			Seq:  sam.NewSeq([]byte("AG")),
			Qual: quals(2, 30),
		},
		{
			Name:  "read3",
			Ref:   ref,
			Pos:   100,
			MapQ:  60,
			Cigar: []sam.CigarOp{sam.NewCigarOp(sam.CigarMatch, 1)},
			Seq:   sam.NewSeq([]byte("T")),
			Qual:  quals(1, 20),
		},
	}

	f, err := os.Create(path)
	assert.NoError(t, err)
	bw, err := bam.NewWriter(f, header, 1)
	assert.NoError(t, err)
	for _, rec := range recs {
		assert.NoError(t, bw.Write(rec))
	}
	assert.NoError(t, bw.Close())
	assert.NoError(t, f.Close())
}

func TestStore(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
	path := filepath.Join(tmpdir, "tmp.bam")
	writeTestBAM(t, path)

	ctx := context.Background()
	store, err := bamstore.Open(ctx, path, bamstore.Opts{})
	assert.NoError(t, err)
	defer func() { assert.NoError(t, store.Close()) }()

	// The missing index was built on open.
	_, err = os.Stat(path + ".bai")
	assert.NoError(t, err)

	name, length := store.Ref()
	expect.EQ(t, name, "chr1")
	expect.EQ(t, length, 1000)

	reads, err := store.ColumnReads(99)
	assert.NoError(t, err)
	assert.EQ(t, reads, []tally.ReadBase{
		{Base: 'A', Qual: 40},
		{Base: 'A', Qual: 30},
	})

	reads, err = store.ColumnReads(100)
	assert.NoError(t, err)
	assert.EQ(t, reads, []tally.ReadBase{
		{Base: 'C', Qual: 40},
		{Deleted: true},
		{Base: 'T', Qual: 20},
	})

	reads, err = store.ColumnReads(101)
	assert.NoError(t, err)
	assert.EQ(t, reads, []tally.ReadBase{{Base: 'G', Qual: 30}})

	reads, err = store.ColumnReads(5)
	assert.NoError(t, err)
	expect.EQ(t, len(reads), 0)

	var n int
	var dels []int
	err = store.EachAlignment(func(a *tally.ReadAlignment) error {
		n++
		dels = append(dels, a.Dels...)
		return nil
	})
	assert.NoError(t, err)
	expect.EQ(t, n, 3)
	assert.EQ(t, dels, []int{100})
}

func TestStoreWithTally(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
	path := filepath.Join(tmpdir, "tmp.bam")
	writeTestBAM(t, path)

	store, err := bamstore.Open(context.Background(), path, bamstore.Opts{Contig: "chr1"})
	assert.NoError(t, err)
	defer func() { assert.NoError(t, store.Close()) }()

	table, err := tally.Compute(store, []int{100, 101, 102, 900}, 0, 25)
	assert.NoError(t, err)
	assert.EQ(t, table, tally.Table{
		{Pos: 100, A: 2},
		{Pos: 101, C: 1},
		{Pos: 102, G: 1},
		{Pos: 900},
	})
}

func TestOpenUnknownContig(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
	path := filepath.Join(tmpdir, "tmp.bam")
	writeTestBAM(t, path)

	_, err := bamstore.Open(context.Background(), path, bamstore.Opts{Contig: "chrMissing"})
	assert.NotNil(t, err)
	assert.HasSubstr(t, err.Error(), "not in header")
}
