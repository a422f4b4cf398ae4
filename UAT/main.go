// Package main demonstrates calc usage: build a calculator, add, and render the result at two buffer sizes.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/toejough/calc"
)

func main() {
	const (
		inputA = 100
		inputB = 23.45
	)

	err := printSum(inputA, inputB, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// printSum adds a and b, then renders the sum first into a buffer that is too small and again at the size reported.
func printSum(a, b float64, out io.Writer) error {
	calculator, err := calc.New(calc.Config{Precision: 2})
	if err != nil {
		return fmt.Errorf("failed to create calculator: %w", err)
	}

	defer func() { _ = calculator.Close() }()

	_, err = calculator.Add(a, b)
	if err != nil {
		return fmt.Errorf("failed to add: %w", err)
	}

	buf := make([]byte, 4)

	needed, err := calculator.FormatInto(buf)
	if errors.Is(err, io.ErrShortBuffer) {
		_, _ = fmt.Fprintf(out, "buffer of %d too small, need %d: %q\n", len(buf), needed, buf)
		buf = make([]byte, needed)
		needed, err = calculator.FormatInto(buf)
	}

	if err != nil {
		return fmt.Errorf("failed to format: %w", err)
	}

	_, _ = fmt.Fprintf(out, "calc %s: %v + %v = %s\n", calc.Version(), a, b, buf[:needed])

	return nil
}
