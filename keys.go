package main

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"math"
	"unicode/utf8"
)

// ErrDerivation is returned when a password cannot be turned into key material.
var ErrDerivation = errors.New("chaos: key derivation failed")

const (
	// lower bound of the logistic-map chaotic regime
	rMin = 3.57
	// width of the regime band; r stays in [3.57, 4.0)
	rSpan = 0.43
	// substitute for a zero seed, which is a fixed point of the map
	zeroSeed = 0.1
)

// Keys is the chaotic key material for one encrypt/decrypt call:
// (X0, R) drive the permutation, (Y0, D) drive the substitution.
type Keys struct {
	X0 float64
	R  float64
	Y0 float64
	D  float64
}

// String hides the key values so Keys never end up in logs.
func (k Keys) String() string {
	return "Keys{...}"
}

// DeriveKeys hashes the password with SHA-256 and splits the digest into four
// 8-byte windows, each read as a big-endian binary fraction in [0, 1].
// An all-0xff window rounds up to exactly 1.0, which the mod step folds to 0
// and the seed guard then replaces.
func DeriveKeys(password string) (Keys, error) {
	if !utf8.ValidString(password) {
		return Keys{}, fmt.Errorf("%w: password is not valid UTF-8", ErrDerivation)
	}

	sum := sha256.Sum256([]byte(password))

	x0 := math.Mod(fractionFromBytes(sum[0:8]), 1.0)
	r := rMin + math.Mod(fractionFromBytes(sum[8:16]), rSpan)
	y0 := math.Mod(fractionFromBytes(sum[16:24]), 1.0)
	d := rMin + math.Mod(fractionFromBytes(sum[24:32]), rSpan)

	return Keys{
		X0: guardSeed(x0),
		R:  r,
		Y0: guardSeed(y0),
		D:  d,
	}, nil
}

// fractionFromBytes sums b[i] / 256^(i+1) left to right.
// Ldexp scales by an exact power of two, so the result matches a plain division.
// The result lies in [0, 1]; eight 0xff bytes round to exactly 1.0.
func fractionFromBytes(b []byte) float64 {
	var v float64
	for i, c := range b {
		v += math.Ldexp(float64(c), -8*(i+1))
	}
	return v
}

func guardSeed(x float64) float64 {
	if x == 0 {
		return zeroSeed
	}
	return x
}
