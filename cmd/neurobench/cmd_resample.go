package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/neurobench/neuro-runtime/trace"
)

func newResampleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resample <series.dat>",
		Short: "Resample an irregular time series to a fixed step",
		Long: `Reads a two-column whitespace-separated table (time, value), resamples
it at a fixed step by linear interpolation, and writes the uniform series
to stdout in the same format.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			step, _ := cmd.Flags().GetFloat64("step")

			times, values, err := readSeries(args[0])
			if err != nil {
				return err
			}
			out, err := trace.Resample(times, values, step)
			if err != nil {
				return err
			}

			w := bufio.NewWriter(os.Stdout)
			defer w.Flush()
			start := times[0]
			for i, v := range out {
				fmt.Fprintf(w, "%g\t%g\n", start+float64(i)*step, v)
			}
			return nil
		},
	}

	cmd.Flags().Float64("step", 1.0/128.0, "Target sampling step")
	return cmd
}

func readSeries(path string) ([]float64, []float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	var times, values []float64
	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) < 2 {
			return nil, nil, fmt.Errorf("line %d: want 2 columns, got %d", line, len(fields))
		}
		t, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("line %d: %w", line, err)
		}
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("line %d: %w", line, err)
		}
		times = append(times, t)
		values = append(values, v)
	}
	if err := sc.Err(); err != nil {
		return nil, nil, err
	}
	return times, values, nil
}
