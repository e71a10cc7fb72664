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
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/grailbio/ambig/bamstore"
	"github.com/grailbio/ambig/render"
	"github.com/grailbio/ambig/tally"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
)

var (
	bamPath       = flag.String("bam", "", "Input BAM path (required)")
	output        = flag.String("output", "pileup.png", "Output image path")
	positionsFlag = flag.String("positions", "", "Comma-separated 1-based positions to tally; this xor -start_pos/-end_pos required unless -calculate_all")
	startPos      = flag.Int("start_pos", 0, "First position of an inclusive 1-based range")
	endPos        = flag.Int("end_pos", 0, "Last position of an inclusive 1-based range")
	percentages   = flag.Bool("percentages", false, "Display base percentages instead of counts")
	minDepth      = flag.Int("min_depth", 0, "Count columns below this value are zeroed, per column")
	saveCounts    = flag.String("save_counts", "", "Optional CSV path for the tally table")
	figWidth      = flag.Int("fig_width", 20, "Figure width in inches")
	individual    = flag.Bool("individual_annotations", false, "Label each bar segment instead of one annotation per stack")
	qualThreshold = flag.Int("quality_threshold", 0, "Minimum base quality for a read base to be counted")
	calculateAll  = flag.Bool("calculate_all", false, "Scan the whole reference and keep only mixed-base positions")
	readFraction  = flag.Float64("read_fraction", 0, "Zero any cell (count or percentage) below this value before the ambiguity filter")
	indels        = flag.Bool("indels", false, "Include insertion/deletion columns")
	contig        = flag.String("contig", "", "Reference contig to analyse (default: first contig in the BAM header)")
	mixedCSV      = flag.String("mixed_csv", tally.MixedBasesCSV, "Output CSV path for the -calculate_all table")
)

func init() {
	flag.StringVar(output, "o", "pileup.png", "Shorthand for -output")
}

func usage() {
	fmt.Printf("Usage: %s -bam <path> [OPTIONS]\n", os.Args[0])
	fmt.Printf("Options:\n")
	flag.PrintDefaults()
}

// selection parses the targeted-mode position flags.  Exactly one of
// -positions or a complete -start_pos/-end_pos pair must be given; anything
// else is a configuration error reported before any tallying starts.
func selection() (positions []int, title string, err error) {
	havePositions := *positionsFlag != ""
	haveRange := *startPos != 0 || *endPos != 0
	switch {
	case havePositions && haveRange:
		return nil, "", fmt.Errorf("-positions and -start_pos/-end_pos are mutually exclusive")
	case havePositions:
		parts := strings.Split(*positionsFlag, ",")
		for _, part := range parts {
			pos, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return nil, "", fmt.Errorf("bad -positions entry %q: %v", part, err)
			}
			positions = append(positions, pos)
		}
		return positions, *positionsFlag, nil
	case haveRange:
		if *startPos < 1 || *endPos < *startPos {
			return nil, "", fmt.Errorf("-start_pos/-end_pos must satisfy 1 <= start_pos <= end_pos")
		}
		for pos := *startPos; pos <= *endPos; pos++ {
			positions = append(positions, pos)
		}
		return positions, fmt.Sprintf("%d-%d", *startPos, *endPos), nil
	}
	return nil, "", fmt.Errorf("either -positions or both of -start_pos and -end_pos are required")
}

func main() {
	flag.Usage = usage
	shutdown := grail.Init()
	defer shutdown()

	if *bamPath == "" {
		log.Fatalf("-bam is required")
	}
	var positions []int
	var rangeTitle string
	if !*calculateAll {
		var err error
		if positions, rangeTitle, err = selection(); err != nil {
			log.Fatalf("%v", err)
		}
	}

	ctx := vcontext.Background()
	store, err := bamstore.Open(ctx, *bamPath, bamstore.Opts{Contig: *contig})
	if err != nil {
		log.Fatalf("opening %s: %v", *bamPath, err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error.Printf("closing %s: %v", *bamPath, err)
		}
	}()

	if *calculateAll {
		runAll(store)
	} else {
		runTargeted(store, positions, rangeTitle)
	}
	log.Debug.Printf("exiting")
}

func runTargeted(store *bamstore.Store, positions []int, rangeTitle string) {
	table, err := tally.Compute(store, positions, *minDepth, *qualThreshold)
	if err != nil {
		log.Fatalf("computing tally: %v", err)
	}
	if *indels {
		indelCounts, err := tally.ComputeIndels(store)
		if err != nil {
			log.Fatalf("counting indels: %v", err)
		}
		for i := range table {
			ic := indelCounts[table[i].Pos]
			table[i].Ins = ic.Ins
			table[i].Del = ic.Del
		}
	}
	title := fmt.Sprintf("Ambiguous bases in BAM file at positions %s", rangeTitle)

	if *percentages {
		pct := tally.ToPercentages(table)
		if err := render.StackedBars(*output, title, *figWidth, tablePositions(table), pctSeries(pct, *indels), *individual); err != nil {
			log.Fatalf("rendering %s: %v", *output, err)
		}
		if *saveCounts != "" {
			saveCSV(func(f *os.File) error { return tally.WritePctCSV(f, pct, *indels) })
		}
		return
	}
	if err := render.StackedBars(*output, title, *figWidth, tablePositions(table), countSeries(table, *indels), *individual); err != nil {
		log.Fatalf("rendering %s: %v", *output, err)
	}
	if *saveCounts != "" {
		saveCSV(func(f *os.File) error { return tally.WriteCSV(f, table, *indels) })
	}
}

func runAll(store *bamstore.Store) {
	opts := tally.AllOpts{
		QualityThreshold: *qualThreshold,
		ReadFraction:     *readFraction,
		IncludeIndels:    *indels,
		CSVPath:          *mixedCSV,
	}
	ctx := vcontext.Background()
	table, err := tally.ComputeAll(ctx, store, opts)
	if err != nil {
		log.Fatalf("computing mixed bases: %v", err)
	}
	refName, _ := store.Ref()
	log.Printf("%d mixed-base positions on %s", len(table), refName)

	title := fmt.Sprintf("Mixed bases on %s", refName)
	if err := render.StackedBars(*output, title, *figWidth, tablePositions(table), countSeries(table, *indels), *individual); err != nil {
		log.Fatalf("rendering %s: %v", *output, err)
	}
	if *saveCounts != "" {
		saveCSV(func(f *os.File) error { return tally.WriteCSV(f, table, *indels) })
	}
}

func saveCSV(write func(*os.File) error) {
	f, err := os.Create(*saveCounts)
	if err != nil {
		log.Fatalf("creating %s: %v", *saveCounts, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		log.Fatalf("writing %s: %v", *saveCounts, err)
	}
	if err := f.Close(); err != nil {
		log.Fatalf("closing %s: %v", *saveCounts, err)
	}
}

func tablePositions(t tally.Table) []int {
	positions := make([]int, len(t))
	for i := range t {
		positions[i] = t[i].Pos
	}
	return positions
}

func countSeries(t tally.Table, withIndels bool) []render.Series {
	series := []render.Series{
		{Label: "A", Color: render.BaseColors[0], Values: make([]float64, len(t))},
		{Label: "T", Color: render.BaseColors[1], Values: make([]float64, len(t))},
		{Label: "C", Color: render.BaseColors[2], Values: make([]float64, len(t))},
		{Label: "G", Color: render.BaseColors[3], Values: make([]float64, len(t))},
	}
	if withIndels {
		series = append(series,
			render.Series{Label: "Insertion", Color: render.IndelColors[0], Values: make([]float64, len(t))},
			render.Series{Label: "Deletion", Color: render.IndelColors[1], Values: make([]float64, len(t))},
		)
	}
	for i := range t {
		series[0].Values[i] = float64(t[i].A)
		series[1].Values[i] = float64(t[i].T)
		series[2].Values[i] = float64(t[i].C)
		series[3].Values[i] = float64(t[i].G)
		if withIndels {
			series[4].Values[i] = float64(t[i].Ins)
			series[5].Values[i] = float64(t[i].Del)
		}
	}
	return series
}

func pctSeries(rows []tally.PctRow, withIndels bool) []render.Series {
	series := []render.Series{
		{Label: "A", Color: render.BaseColors[0], Values: make([]float64, len(rows))},
		{Label: "T", Color: render.BaseColors[1], Values: make([]float64, len(rows))},
		{Label: "C", Color: render.BaseColors[2], Values: make([]float64, len(rows))},
		{Label: "G", Color: render.BaseColors[3], Values: make([]float64, len(rows))},
	}
	if withIndels {
		series = append(series,
			render.Series{Label: "Insertion", Color: render.IndelColors[0], Values: make([]float64, len(rows))},
			render.Series{Label: "Deletion", Color: render.IndelColors[1], Values: make([]float64, len(rows))},
		)
	}
	for i := range rows {
		// Zero-coverage rows carry NaN percentages; they render as empty
		// stacks.  The CSV keeps the NaNs.
		series[0].Values[i] = nanToZero(rows[i].A)
		series[1].Values[i] = nanToZero(rows[i].T)
		series[2].Values[i] = nanToZero(rows[i].C)
		series[3].Values[i] = nanToZero(rows[i].G)
		if withIndels {
			series[4].Values[i] = float64(rows[i].Ins)
			series[5].Values[i] = float64(rows[i].Del)
		}
	}
	return series
}

func nanToZero(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}
