// Copyright (C) The Crosstrait Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package crosstrait

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/montanaflynn/stats"
)

// Stat is a statistic that may be undefined (empty sample, zero
// variance, and similar degeneracies). Report writers render undefined
// values as "N/A"; NaN and Inf never reach text output.
type Stat struct {
	Value float64
	OK    bool
}

// Defined wraps v as a defined Stat unless v itself is NaN or Inf.
func Defined(v float64) Stat {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Stat{}
	}
	return Stat{Value: v, OK: true}
}

// Undefined is the sentinel for statistics that could not be computed.
var Undefined = Stat{}

// StatisticFunc reduces a sample to a single summary value.
type StatisticFunc func(sample []float64) Stat

// StatisticByName resolves a statistic name: "mean", "median", or
// "p<k>" for the k-th percentile (e.g. "p90").
func StatisticByName(name string) (StatisticFunc, error) {
	switch {
	case name == "mean":
		return liftStatistic(stats.Mean), nil
	case name == "median":
		return liftStatistic(stats.Median), nil
	case strings.HasPrefix(name, "p"):
		pct, err := strconv.ParseFloat(name[1:], 64)
		if err != nil || pct <= 0 || pct >= 100 {
			return nil, fmt.Errorf("bad percentile statistic %q (want p1..p99)", name)
		}
		return liftStatistic(func(sample stats.Float64Data) (float64, error) {
			return stats.Percentile(sample, pct)
		}), nil
	default:
		return nil, fmt.Errorf("unknown statistic %q (want mean, median, or p<k>)", name)
	}
}

func liftStatistic(f func(stats.Float64Data) (float64, error)) StatisticFunc {
	return func(sample []float64) Stat {
		if len(sample) == 0 {
			return Undefined
		}
		v, err := f(sample)
		if err != nil {
			return Undefined
		}
		return Defined(v)
	}
}
