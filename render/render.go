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

// Package render draws per-position tally tables as stacked bar charts.
package render

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Series is one stacked component of the chart: a label, one value per
// position, and the fill color.
type Series struct {
	Label  string
	Values []float64
	Color  color.Color
}

// BaseColors are the stack colors for A, T, C and G, in that order.
var BaseColors = [4]color.Color{
	color.RGBA{R: 0x60, G: 0x93, B: 0x5D, A: 0xff},
	color.RGBA{R: 0xE6, G: 0x39, B: 0x46, A: 0xff},
	color.RGBA{R: 0x1B, G: 0x52, B: 0x99, A: 0xff},
	color.RGBA{R: 0xF5, G: 0xBB, B: 0x00, A: 0xff},
}

// IndelColors are the stack colors for Insertion and Deletion.
var IndelColors = [2]color.Color{
	color.RGBA{R: 0x8D, G: 0x99, B: 0xAE, A: 0xff},
	color.RGBA{R: 0x2B, G: 0x2D, B: 0x42, A: 0xff},
}

// StackedBars renders one stacked bar per position and writes a PNG to path.
// widthIn is the figure width in inches.  When individual is set, every
// nonzero segment gets its own label at the segment midpoint; otherwise each
// stack gets a single combined annotation at the stack midpoint.
func StackedBars(path, title string, widthIn int, positions []int, series []Series, individual bool) error {
	for _, s := range series {
		if len(s.Values) != len(positions) {
			return fmt.Errorf("render.StackedBars: series %s has %d values for %d positions",
				s.Label, len(s.Values), len(positions))
		}
	}
	p, err := plot.New()
	if err != nil {
		return err
	}
	p.Title.Text = title
	p.X.Label.Text = "Position"
	p.Y.Label.Text = "Count"

	var prev *plotter.BarChart
	for _, s := range series {
		b, err := plotter.NewBarChart(plotter.Values(s.Values), vg.Points(18))
		if err != nil {
			return err
		}
		b.Color = s.Color
		b.LineStyle.Width = 0
		if prev != nil {
			b.StackOn(prev)
		}
		p.Add(b)
		p.Legend.Add(s.Label, b)
		prev = b
	}

	names := make([]string, len(positions))
	for i, pos := range positions {
		names[i] = strconv.Itoa(pos)
	}
	p.NominalX(names...)
	p.Legend.Top = true

	labels, err := annotations(series, individual)
	if err != nil {
		return err
	}
	if labels != nil {
		p.Add(labels)
	}

	if widthIn <= 0 {
		widthIn = 20
	}
	return p.Save(vg.Length(widthIn)*vg.Inch, 5*vg.Inch, path)
}

// annotations builds the per-stack or per-segment labels.  Stacks with no
// support are left unannotated.
func annotations(series []Series, individual bool) (*plotter.Labels, error) {
	if len(series) == 0 {
		return nil, nil
	}
	var xys plotter.XYs
	var texts []string
	for i := range series[0].Values {
		if individual {
			y := 0.0
			for _, s := range series {
				v := s.Values[i]
				if v > 0 {
					xys = append(xys, plotter.XY{X: float64(i), Y: y + v/2})
					texts = append(texts, fmt.Sprintf("%s: %s", s.Label, formatValue(v)))
				}
				y += v
			}
			continue
		}
		var total float64
		var parts []string
		for _, s := range series {
			if v := s.Values[i]; v > 0 {
				parts = append(parts, fmt.Sprintf("%s: %s", s.Label, formatValue(v)))
				total += v
			}
		}
		if len(parts) == 0 {
			continue
		}
		xys = append(xys, plotter.XY{X: float64(i), Y: total / 2})
		texts = append(texts, strings.Join(parts, "\n"))
	}
	if len(texts) == 0 {
		return nil, nil
	}
	return plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: texts})
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
