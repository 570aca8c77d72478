// Copyright (C) The Crosstrait Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package crosstrait

import (
	"bufio"
	"io"
	"math"
	"os"

	"github.com/kshedden/gonpy"
)

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// writeNpy writes data as a float64 .npy array with the given shape.
// Undefined matrix cells are exported as NaN: numpy consumers mask
// them; text reports never see them.
func writeNpy(filename string, shape []int, data []float64) error {
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0777)
	if err != nil {
		return err
	}
	defer f.Close()
	bufw := bufio.NewWriter(f)
	npw, err := gonpy.NewWriter(nopCloser{bufw})
	if err != nil {
		return err
	}
	npw.Shape = shape
	if err = npw.WriteFloat64(data); err != nil {
		return err
	}
	if err = bufw.Flush(); err != nil {
		return err
	}
	return f.Close()
}

func statMatrix2array(m [][]Stat) (data []float64, shape []int) {
	rows := len(m)
	cols := 0
	if rows > 0 {
		cols = len(m[0])
	}
	data = make([]float64, 0, rows*cols)
	for _, row := range m {
		for _, s := range row {
			if s.OK {
				data = append(data, s.Value)
			} else {
				data = append(data, math.NaN())
			}
		}
	}
	return data, []int{rows, cols}
}

func intMatrix2array(m [][]int) (data []float64, shape []int) {
	rows := len(m)
	cols := 0
	if rows > 0 {
		cols = len(m[0])
	}
	data = make([]float64, 0, rows*cols)
	for _, row := range m {
		for _, v := range row {
			data = append(data, float64(v))
		}
	}
	return data, []int{rows, cols}
}

func stats2array(v []Stat) []float64 {
	data := make([]float64, len(v))
	for i, s := range v {
		if s.OK {
			data[i] = s.Value
		} else {
			data[i] = math.NaN()
		}
	}
	return data
}
