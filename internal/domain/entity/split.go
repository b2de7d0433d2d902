package entity

import (
	"fmt"
	"math"
)

// Split is one disjoint partition of the dataset.
type Split string

const (
	SplitTrain Split = "train"
	SplitValid Split = "valid"
	SplitTest  Split = "test"
)

// Splits lists the partitions in the order they are filled.
var Splits = []Split{SplitTrain, SplitValid, SplitTest}

// DefaultSeed seeds the group shuffle when none is given.
const DefaultSeed int64 = 42

// DefaultProportions is the split used when none is given.
var DefaultProportions = Proportions{Train: 0.85, Valid: 0.15, Test: 0}

// Proportions holds the target fraction of video groups per split.
// The fractions are expected, not required, to sum to 1.
type Proportions struct {
	Train float64
	Valid float64
	Test  float64
}

// Warnings reports suspicious proportions without rejecting them.
func (p Proportions) Warnings() []string {
	var out []string
	for _, f := range []struct {
		name  string
		value float64
	}{{"train", p.Train}, {"valid", p.Valid}, {"test", p.Test}} {
		if f.value < 0 || f.value > 1 {
			out = append(out, fmt.Sprintf("%s fraction %.4g is outside [0,1]", f.name, f.value))
		}
	}
	if sum := p.Train + p.Valid + p.Test; math.Abs(sum-1) > 1e-6 {
		out = append(out, fmt.Sprintf("fractions sum to %.4g, not 1", sum))
	}
	return out
}

// SplitCounts is the outcome of a dataset split run.
type SplitCounts struct {
	Train int
	Valid int
	Test  int
	// Full is the number of image files listed in the source, matched or not.
	Full        int
	Unmatched   int
	Overwritten int
	Groups      map[Split]int
}

func (c SplitCounts) Total() int {
	return c.Train + c.Valid + c.Test
}

func (c SplitCounts) Count(s Split) int {
	switch s {
	case SplitTrain:
		return c.Train
	case SplitValid:
		return c.Valid
	case SplitTest:
		return c.Test
	}
	return 0
}

// Percent is the share of Full copied into s, rounded half to even.
func (c SplitCounts) Percent(s Split) int {
	if c.Full == 0 {
		return 0
	}
	return int(math.RoundToEven(float64(c.Count(s)) / float64(c.Full) * 100))
}

func (c SplitCounts) Summary() string {
	return fmt.Sprintf(
		"Copied %d (%d%%) train images, %d (%d%%) validation images, and %d (%d%%) test images for a total of %d images.",
		c.Train, c.Percent(SplitTrain),
		c.Valid, c.Percent(SplitValid),
		c.Test, c.Percent(SplitTest),
		c.Total(),
	)
}
