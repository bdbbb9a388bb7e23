package main

import (
	"strconv"
	"strings"
)

// maximum number of significant decimal digits fed into a keystream byte
const keystreamDigits = 10

// Plain decimal notation is used for magnitudes in [plainMin, plainMax);
// everything else is rendered in scientific notation.
const (
	plainMin = 1e-3
	plainMax = 1e7
)

// KeystreamByte quantizes one chaotic value into a keystream byte: the decimal
// digits of its fractional part, leading zeros stripped, truncated to ten
// digits, read as an integer and reduced mod 256.
//
// The digit string comes from formatFraction and must stay bit-for-bit stable;
// ciphertext produced earlier depends on it.
func KeystreamByte(v float64) byte {
	frac := v - float64(int64(v))

	digits := strings.TrimPrefix(formatFraction(frac), "0.")
	digits = strings.TrimLeft(digits, "0")
	if len(digits) > keystreamDigits {
		digits = digits[:keystreamDigits]
	}
	if digits == "" {
		return 0
	}

	// Scientific renderings ("1.0E-6") do not parse and quantize to zero.
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return byte(n % 256)
}

// Keystream quantizes every element of a substitution sequence.
func Keystream(seq []float64) []byte {
	ks := make([]byte, len(seq))
	for i, v := range seq {
		ks[i] = KeystreamByte(v)
	}
	return ks
}

// formatFraction renders f with the shortest digit string that round-trips,
// laid out like the JVM's Double.toString: "0.0" for zero, plain notation
// with at least one fractional digit inside [1e-3, 1e7), and "d.dddE<exp>"
// outside it.
func formatFraction(f float64) string {
	if f == 0 {
		return "0.0"
	}

	sign := ""
	if f < 0 {
		sign = "-"
		f = -f
	}

	if f >= plainMin && f < plainMax {
		s := strconv.FormatFloat(f, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return sign + s
	}

	// strconv gives "1.2345e-05"; rewrite as "1.2345E-5".
	s := strconv.FormatFloat(f, 'e', -1, 64)
	mant, exp, _ := strings.Cut(s, "e")
	if !strings.Contains(mant, ".") {
		mant += ".0"
	}
	e, err := strconv.Atoi(exp)
	if err != nil {
		return sign + mant
	}
	return sign + mant + "E" + strconv.Itoa(e)
}
