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

// Package bamstore gives the tally engines random-access and whole-contig
// read queries against a single indexed BAM file.
package bamstore

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/grailbio/ambig/tally"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/bgzf/index"
	"github.com/grailbio/hts/sam"
	"github.com/pkg/errors"
)

// Reads with any of these flags never enter a pileup.
const flagExclude = sam.Unmapped | sam.Secondary | sam.QCFail | sam.Duplicate | sam.Supplementary

// Opts configures Open.
type Opts struct {
	// Contig selects the reference contig to operate on.  Empty selects the
	// first contig in the BAM header.
	Contig string
	// Index is the pathname of the *.bai file.  If "", Path + ".bai".
	Index string
}

// Store serves read queries for one contig of one BAM file.  ColumnReads is
// safe for concurrent use: each in-flight query runs on its own reader, and
// idle readers are pooled for reuse.
type Store struct {
	path      string
	indexPath string
	header    *sam.Header
	ref       *sam.Reference

	mu        sync.Mutex
	freeIters []*iterator
}

type iterator struct {
	in     file.File
	reader *bam.Reader
	index  *bam.Index
}

// Open opens the BAM at path, selects the contig named in opts (or the first
// contig in the header), and guarantees an index: when no *.bai is present,
// one is built by scanning the file.  Index-build failure is returned as an
// error and should be treated as fatal by callers.
func Open(ctx context.Context, path string, opts Opts) (*Store, error) {
	s := &Store{path: path, indexPath: opts.Index}
	if s.indexPath == "" {
		s.indexPath = path + ".bai"
	}

	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	r, err := bam.NewReader(in.Reader(ctx), 1)
	if err != nil {
		_ = in.Close(ctx)
		return nil, errors.Wrapf(err, "bamstore.Open %s", path)
	}
	s.header = r.Header()
	if err = r.Close(); err != nil {
		_ = in.Close(ctx)
		return nil, err
	}
	if err = in.Close(ctx); err != nil {
		return nil, err
	}

	refs := s.header.Refs()
	if len(refs) == 0 {
		return nil, fmt.Errorf("bamstore.Open %s: header has no reference sequences", path)
	}
	if opts.Contig == "" {
		s.ref = refs[0]
	} else {
		for _, ref := range refs {
			if ref.Name() == opts.Contig {
				s.ref = ref
				break
			}
		}
		if s.ref == nil {
			return nil, fmt.Errorf("bamstore.Open %s: contig %s not in header", path, opts.Contig)
		}
	}

	if err = s.ensureIndex(ctx); err != nil {
		return nil, errors.Wrapf(err, "bamstore.Open %s: building index", path)
	}
	return s, nil
}

// Ref returns the active contig's name and length.
func (s *Store) Ref() (name string, length int) {
	return s.ref.Name(), s.ref.Len()
}

// ensureIndex builds and writes a *.bai when none exists.  The BAM must be
// coordinate sorted for the build to succeed.
func (s *Store) ensureIndex(ctx context.Context) (err error) {
	if _, err = file.Stat(ctx, s.indexPath); err == nil {
		return nil
	}
	log.Printf("bamstore: no index at %s, building one", s.indexPath)

	in, err := file.Open(ctx, s.path)
	if err != nil {
		return err
	}
	defer func() {
		if e := in.Close(ctx); e != nil && err == nil {
			err = e
		}
	}()
	r, err := bam.NewReader(in.Reader(ctx), 1)
	if err != nil {
		return err
	}
	defer func() {
		if e := r.Close(); e != nil && err == nil {
			err = e
		}
	}()

	var idx bam.Index
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if err = idx.Add(rec, r.LastChunk()); err != nil {
			return err
		}
	}

	out, err := file.Create(ctx, s.indexPath)
	if err != nil {
		return err
	}
	if err = bam.WriteIndex(out.Writer(ctx), &idx); err != nil {
		_ = out.Close(ctx)
		return err
	}
	log.Printf("bamstore: wrote %s", s.indexPath)
	return out.Close(ctx)
}

// allocate returns an idle pooled iterator, or opens a new reader when the
// pool is empty.
func (s *Store) allocate() (*iterator, error) {
	s.mu.Lock()
	if n := len(s.freeIters); n > 0 {
		it := s.freeIters[n-1]
		s.freeIters = s.freeIters[:n-1]
		s.mu.Unlock()
		return it, nil
	}
	s.mu.Unlock()

	ctx := vcontext.Background()
	it := &iterator{}
	var err error
	if it.in, err = file.Open(ctx, s.path); err != nil {
		return nil, err
	}
	indexIn, err := file.Open(ctx, s.indexPath)
	if err != nil {
		_ = it.in.Close(ctx)
		return nil, err
	}
	defer func() { _ = indexIn.Close(ctx) }()
	if it.index, err = bam.ReadIndex(indexIn.Reader(ctx)); err != nil {
		_ = it.in.Close(ctx)
		return nil, err
	}
	if it.reader, err = bam.NewReader(it.in.Reader(ctx), 1); err != nil {
		_ = it.in.Close(ctx)
		return nil, err
	}
	return it, nil
}

// free returns an iterator to the pool.  Iterators that saw an error are
// closed instead of reused.
func (s *Store) free(it *iterator, err error) {
	if err != nil {
		it.close()
		return
	}
	s.mu.Lock()
	s.freeIters = append(s.freeIters, it)
	s.mu.Unlock()
}

func (it *iterator) close() {
	if it.reader != nil {
		_ = it.reader.Close()
		it.reader = nil
	}
	if it.in != nil {
		_ = it.in.Close(vcontext.Background())
		it.in = nil
	}
}

// ColumnReads returns one entry per usable read overlapping the 0-based
// position pos on the active contig.  Out-of-reference and uncovered
// positions return an empty result.
func (s *Store) ColumnReads(pos int) (result []tally.ReadBase, err error) {
	if pos < 0 || pos >= s.ref.Len() {
		return nil, nil
	}
	it, err := s.allocate()
	if err != nil {
		return nil, err
	}
	defer func() { s.free(it, err) }()

	chunks, err := it.index.Chunks(s.ref, pos, pos+1)
	if err == index.ErrInvalid || len(chunks) == 0 {
		// No reads mapped in the interval.
		err = nil
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	i, err := bam.NewIterator(it.reader, chunks)
	if err != nil {
		return nil, err
	}
	for i.Next() {
		rec := i.Record()
		if rec.Flags&flagExclude != 0 {
			continue
		}
		if rb, ok := readBaseAt(rec, pos); ok {
			result = append(result, rb)
		}
	}
	err = i.Close()
	return result, err
}

// EachAlignment calls fn once per usable read on the active contig, in
// position order.  The *tally.ReadAlignment passed to fn is reused between
// calls.
func (s *Store) EachAlignment(fn func(*tally.ReadAlignment) error) (err error) {
	it, err := s.allocate()
	if err != nil {
		return err
	}
	defer func() { s.free(it, err) }()

	chunks, err := it.index.Chunks(s.ref, 0, s.ref.Len())
	if err == index.ErrInvalid || len(chunks) == 0 {
		err = nil
		return nil
	}
	if err != nil {
		return err
	}
	i, err := bam.NewIterator(it.reader, chunks)
	if err != nil {
		return err
	}
	var a tally.ReadAlignment
	for i.Next() {
		rec := i.Record()
		if rec.Flags&flagExclude != 0 {
			continue
		}
		alignmentEvents(rec, &a)
		if err = fn(&a); err != nil {
			_ = i.Close()
			return err
		}
	}
	err = i.Close()
	return err
}

// Close releases all pooled readers.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range s.freeIters {
		it.close()
	}
	s.freeIters = nil
	return nil
}
