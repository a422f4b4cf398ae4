// Package match provides float matchers for use alongside gomega when asserting calculator results.
// This package is designed to be dot-imported alongside gomega matchers:
//
//	import (
//	    . "github.com/onsi/gomega"
//	    . "github.com/toejough/calc/match"
//	)
//
//	g.Expect(calc.Add(a, b)).To(BeSameFloat(a + b))
package match

import (
	"errors"
	"fmt"
	"math"
)

// Matcher defines the interface for flexible value matching.
// Compatible with gomega.GomegaMatcher via duck typing.
type Matcher interface {
	Match(actual any) (success bool, err error)
	FailureMessage(actual any) string
	NegatedFailureMessage(actual any) string
}

// BeSameFloat matches a float64 with the same IEEE-754 bits as expected.
// Any NaN matches any other NaN; +0 and -0 do not match each other.
func BeSameFloat(expected float64) Matcher {
	return sameFloatMatcher{expected: expected}
}

// BeWithinULPs matches a float64 at most ulps representable values away from expected.
func BeWithinULPs(expected float64, ulps uint64) Matcher {
	return ulpMatcher{expected: expected, ulps: ulps}
}

// Satisfy returns a matcher that uses a predicate function to check for a match.
// The predicate should return nil if the value matches, or an error describing
// the mismatch if it does not.
//
// Example:
//
//	g.Expect(calc.Format()).To(Satisfy(func(s string) error {
//	    if !strings.Contains(s, ".") { return fmt.Errorf("expected a decimal point in %q", s) }
//	    return nil
//	}))
func Satisfy[T any](predicate func(T) error) Matcher {
	return &satisfyMatcher[T]{predicate: predicate}
}

// unexported variables.
var (
	// errTypeMismatch is a sentinel error for type assertion failures.
	errTypeMismatch = errors.New("type mismatch")
)

type sameFloatMatcher struct {
	expected float64
}

func (m sameFloatMatcher) FailureMessage(actual any) string {
	return fmt.Sprintf("expected %v (bits %#x) to be the same float as %v (bits %#x)",
		actual, bitsOf(actual), m.expected, math.Float64bits(m.expected))
}

func (m sameFloatMatcher) Match(actual any) (bool, error) {
	val, ok := actual.(float64)
	if !ok {
		return false, fmt.Errorf("%w: expected float64, got %T", errTypeMismatch, actual)
	}

	if math.IsNaN(val) && math.IsNaN(m.expected) {
		return true, nil
	}

	return math.Float64bits(val) == math.Float64bits(m.expected), nil
}

func (m sameFloatMatcher) NegatedFailureMessage(actual any) string {
	return fmt.Sprintf("expected %v not to be the same float as %v", actual, m.expected)
}

type satisfyMatcher[T any] struct {
	predicate func(T) error
	lastErr   error
}

func (m *satisfyMatcher[T]) FailureMessage(actual any) string {
	if m.lastErr != nil {
		return fmt.Sprintf("value %v does not satisfy predicate: %v", actual, m.lastErr)
	}

	return fmt.Sprintf("value %v does not satisfy predicate", actual)
}

func (m *satisfyMatcher[T]) Match(actual any) (bool, error) {
	val, ok := actual.(T)

	if !ok {
		return false, fmt.Errorf("%w: expected %T, got %T", errTypeMismatch, *new(T), actual)
	}

	m.lastErr = m.predicate(val)

	return m.lastErr == nil, nil
}

func (m *satisfyMatcher[T]) NegatedFailureMessage(actual any) string {
	return fmt.Sprintf("value %v unexpectedly satisfies predicate", actual)
}

type ulpMatcher struct {
	expected float64
	ulps     uint64
}

func (m ulpMatcher) FailureMessage(actual any) string {
	return fmt.Sprintf("expected %v to be within %d ULPs of %v", actual, m.ulps, m.expected)
}

func (m ulpMatcher) Match(actual any) (bool, error) {
	val, ok := actual.(float64)
	if !ok {
		return false, fmt.Errorf("%w: expected float64, got %T", errTypeMismatch, actual)
	}

	if math.IsNaN(val) || math.IsNaN(m.expected) {
		return math.IsNaN(val) && math.IsNaN(m.expected), nil
	}

	if val == m.expected {
		return true, nil
	}

	if math.Signbit(val) != math.Signbit(m.expected) {
		return false, nil
	}

	a, b := math.Float64bits(val), math.Float64bits(m.expected)
	if a > b {
		a, b = b, a
	}

	return b-a <= m.ulps, nil
}

func (m ulpMatcher) NegatedFailureMessage(actual any) string {
	return fmt.Sprintf("expected %v not to be within %d ULPs of %v", actual, m.ulps, m.expected)
}

func bitsOf(actual any) any {
	if val, ok := actual.(float64); ok {
		return math.Float64bits(val)
	}

	return "n/a"
}
