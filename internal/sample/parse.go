// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package sample turns one line of sensor text ("w x y z") into a
// quaternion. Lines that do not parse are reported as skipped, never as
// errors: serial noise regularly truncates or garbles a record and the
// read loop must carry on.
package sample

import (
	"math"
	"strconv"
	"strings"

	"github.com/relabs-tech/cube_viewer/internal/orientation"
)

// FieldCount is the number of whitespace-separated fields in a record.
const FieldCount = 4

// Kind tells a usable sample apart from a dropped line.
type Kind int

const (
	KindSample Kind = iota
	KindSkip
)

// SkipReason says why a line was dropped.
type SkipReason string

const (
	ReasonFieldCount SkipReason = "field_count"
	ReasonNotNumeric SkipReason = "not_numeric"
	// ReasonDomain is not produced by Parse; the loop uses it when the
	// sink cannot derive a pitch from an otherwise valid sample.
	ReasonDomain SkipReason = "domain"
)

// Result is the outcome of parsing one line.
type Result struct {
	Kind       Kind
	Quaternion orientation.Quaternion
	Reason     SkipReason
}

func skip(r SkipReason) Result {
	return Result{Kind: KindSkip, Reason: r}
}

// Parse splits line into exactly four float fields w, x, y, z and returns
// the quaternion (w, -x, -y, -z). The vector part is negated to move from
// the sensor's frame of reference into the viewer's.
func Parse(line string) Result {
	fields := strings.Fields(line)
	if len(fields) != FieldCount {
		return skip(ReasonFieldCount)
	}

	var v [FieldCount]float64
	for i, f := range fields {
		n, ok := parseDecimal(f)
		if !ok {
			return skip(ReasonNotNumeric)
		}
		v[i] = n
	}

	return Result{
		Kind:       KindSample,
		Quaternion: orientation.NewQuaternion(v[0], -v[1], -v[2], -v[3]),
	}
}

// parseDecimal accepts only finite decimal literals: an optional sign,
// digits with at most one point, and an optional exponent. ParseFloat on
// its own also takes "inf", "nan" and hex floats.
func parseDecimal(tok string) (float64, bool) {
	for _, c := range tok {
		switch {
		case c >= '0' && c <= '9':
		case c == '+', c == '-', c == '.', c == 'e', c == 'E':
		default:
			return 0, false
		}
	}

	n, err := strconv.ParseFloat(tok, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}
