package ui

import (
	"math"
	"strconv"

	"github.com/montanaflynn/stats"

	"github.com/luke-benham/Cytometry/domain/trial"
)

// Box is one rendered box of the responder comparison plot, in SVG pixel
// coordinates (y grows downward).
type Box struct {
	Population string
	Response   string
	Color      string

	X, MidX, EndX, Width   float64
	BoxTop, BoxHeight      float64 // Q3 down to Q1
	MedianY                float64
	WhiskerTop, WhiskerLow float64 // max and min
	N                      int
}

// AxisTick is a labeled horizontal gridline.
type AxisTick struct {
	Y     float64
	Label string
}

// BoxPlot holds everything the template needs to render the grouped box
// plot as inline SVG.
type BoxPlot struct {
	Width, Height float64
	PlotBottom    float64
	Boxes         []Box
	Ticks         []AxisTick
	GroupLabels   []groupLabel
}

type groupLabel struct {
	X     float64
	Label string
}

// Fixed color mapping for the response groups.
var responseColors = map[string]string{
	"yes": "#1f5fd6", // blue
	"no":  "#d63a2f", // red
}

const (
	plotWidth   = 760.0
	plotHeight  = 340.0
	marginLeft  = 60.0
	marginRight = 20.0
	marginTop   = 20.0
	marginBot   = 50.0
	boxWidth    = 38.0
)

// BuildBoxPlot lays out a grouped box plot of percentage by population,
// colored by response. Populations missing a group simply render fewer
// boxes.
func BuildBoxPlot(labeled []trial.LabeledFrequency) BoxPlot {
	groups := make(map[string]map[string][]float64)
	maxPct := 0.0
	for _, rec := range labeled {
		byResponse, ok := groups[rec.Population]
		if !ok {
			byResponse = make(map[string][]float64)
			groups[rec.Population] = byResponse
		}
		byResponse[rec.Response] = append(byResponse[rec.Response], rec.Percentage)
		if rec.Percentage > maxPct {
			maxPct = rec.Percentage
		}
	}

	top := math.Ceil(maxPct/10) * 10
	if top == 0 {
		top = 10
	}

	innerW := plotWidth - marginLeft - marginRight
	innerH := plotHeight - marginTop - marginBot
	yFor := func(pct float64) float64 {
		return marginTop + innerH*(1-pct/top)
	}

	plot := BoxPlot{
		Width:      plotWidth,
		Height:     plotHeight,
		PlotBottom: plotHeight - marginBot,
	}

	for t := 0.0; t <= top; t += top / 5 {
		plot.Ticks = append(plot.Ticks, AxisTick{Y: yFor(t), Label: trimFloat(t)})
	}

	slot := innerW / float64(len(trial.Populations))
	for i, population := range trial.Populations {
		center := marginLeft + slot*(float64(i)+0.5)
		plot.GroupLabels = append(plot.GroupLabels, groupLabel{X: center, Label: population})

		for j, response := range []string{"yes", "no"} {
			values := groups[population][response]
			if len(values) == 0 {
				continue
			}
			q, err := stats.Quartile(values)
			if err != nil {
				continue
			}
			lo, _ := stats.Min(values)
			hi, _ := stats.Max(values)

			x := center - boxWidth - 4 + float64(j)*(boxWidth+8)
			plot.Boxes = append(plot.Boxes, Box{
				Population: population,
				Response:   response,
				Color:      responseColors[response],
				X:          x,
				MidX:       x + boxWidth/2,
				EndX:       x + boxWidth,
				Width:      boxWidth,
				BoxTop:     yFor(q.Q3),
				BoxHeight:  yFor(q.Q1) - yFor(q.Q3),
				MedianY:    yFor(q.Q2),
				WhiskerTop: yFor(hi),
				WhiskerLow: yFor(lo),
				N:          len(values),
			})
		}
	}

	return plot
}

func trimFloat(v float64) string {
	return strconv.Itoa(int(math.Round(v)))
}
