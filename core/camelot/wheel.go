// Package camelot models the 24-position harmonic wheel used for key
// compatibility judgments: steps 1-12 on two parallel rings, A (minor)
// and B (major), with relative pairs sharing the same step number.
package camelot

import (
	"fmt"
	"strconv"
	"strings"
)

// Keys holds all 24 wheel positions, "1A".."12A" then "1B".."12B".
var Keys = buildKeys()

// compatible maps each key to its four harmonically compatible keys:
// itself, the two neighbours on the same ring, and the relative key on
// the other ring. Built once at package init, read-only afterwards.
var compatible = buildCompatible()

func buildKeys() []string {
	keys := make([]string, 0, 24)
	for _, letter := range []string{"A", "B"} {
		for step := 1; step <= 12; step++ {
			keys = append(keys, strconv.Itoa(step)+letter)
		}
	}
	return keys
}

func buildCompatible() map[string][]string {
	m := make(map[string][]string, 24)
	for _, k := range Keys {
		step, letter, _ := Parse(k)
		prev := step - 1
		if prev < 1 {
			prev = 12
		}
		next := step + 1
		if next > 12 {
			next = 1
		}
		other := "B"
		if letter == "B" {
			other = "A"
		}
		m[k] = []string{
			k,
			strconv.Itoa(prev) + letter,
			strconv.Itoa(next) + letter,
			strconv.Itoa(step) + other,
		}
	}
	return m
}

// Parse splits a Camelot key into its step (1-12) and ring letter ("A" or "B").
func Parse(key string) (int, string, error) {
	k := strings.ToUpper(strings.TrimSpace(key))
	if len(k) < 2 {
		return 0, "", fmt.Errorf("invalid camelot key %q", key)
	}
	letter := k[len(k)-1:]
	if letter != "A" && letter != "B" {
		return 0, "", fmt.Errorf("invalid camelot key %q: ring must be A or B", key)
	}
	step, err := strconv.Atoi(k[:len(k)-1])
	if err != nil || step < 1 || step > 12 {
		return 0, "", fmt.Errorf("invalid camelot key %q: step must be 1-12", key)
	}
	return step, letter, nil
}

// IsValid reports whether key names a wheel position.
func IsValid(key string) bool {
	_, _, err := Parse(key)
	return err == nil
}

// Normalize returns the canonical spelling of key ("8a" -> "8A").
func Normalize(key string) (string, error) {
	step, letter, err := Parse(key)
	if err != nil {
		return "", err
	}
	return strconv.Itoa(step) + letter, nil
}

// CompatibleKeys returns the four keys that mix harmonically with key:
// the key itself, its two same-ring neighbours and its relative key.
func CompatibleKeys(key string) ([]string, error) {
	norm, err := Normalize(key)
	if err != nil {
		return nil, err
	}
	out := make([]string, 4)
	copy(out, compatible[norm])
	return out, nil
}

// AreCompatible reports whether to is in from's compatible set.
func AreCompatible(from, to string) bool {
	nf, err := Normalize(from)
	if err != nil {
		return false
	}
	nt, err := Normalize(to)
	if err != nil {
		return false
	}
	for _, k := range compatible[nf] {
		if k == nt {
			return true
		}
	}
	return false
}

// Distance returns the circular step distance (0-6) between two keys on the
// same ring, or 0 for a relative pair (same step, opposite ring). Any other
// cross-ring combination is harmonically incomparable and reports ok=false.
func Distance(k1, k2 string) (int, bool) {
	s1, l1, err := Parse(k1)
	if err != nil {
		return 0, false
	}
	s2, l2, err := Parse(k2)
	if err != nil {
		return 0, false
	}
	if l1 != l2 {
		if s1 == s2 {
			return 0, true
		}
		return 0, false
	}
	d := s1 - s2
	if d < 0 {
		d = -d
	}
	if d > 6 {
		d = 12 - d
	}
	return d, true
}
