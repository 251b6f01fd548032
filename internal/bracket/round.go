package bracket

import (
	"slices"

	"github.com/cockroachdb/errors"
)

type RoundName string

const (
	RoundOf32    RoundName = "round_of_32"
	RoundOf16    RoundName = "round_of_16"
	Quarterfinal RoundName = "quarterfinal"
	Semifinal    RoundName = "semifinal"
	Final        RoundName = "final"
)

// AllowedSizes lists the team counts a tournament may declare.
var AllowedSizes = []int{8, 16, 32}

// Canonical order, longest bracket first. A size-N bracket uses the tail.
var canonicalRounds = []RoundName{RoundOf32, RoundOf16, Quarterfinal, Semifinal, Final}

func ValidSize(n int) bool {
	return slices.Contains(AllowedSizes, n)
}

// RoundsFor returns the ordered round sequence for a tournament of size teams.
// Final is always last.
func RoundsFor(size int) ([]RoundName, error) {
	switch size {
	case 8:
		return slices.Clone(canonicalRounds[2:]), nil
	case 16:
		return slices.Clone(canonicalRounds[1:]), nil
	case 32:
		return slices.Clone(canonicalRounds), nil
	}
	return nil, errors.Wrapf(ErrValidation, "tournament size must be one of %v, got %d", AllowedSizes, size)
}

// FirstRound is the round the draw fills.
func FirstRound(size int) (RoundName, error) {
	rounds, err := RoundsFor(size)
	if err != nil {
		return "", err
	}
	return rounds[0], nil
}

// RoundIndex is the 0-based position of round within the sequence for size.
func RoundIndex(size int, round RoundName) (int, error) {
	rounds, err := RoundsFor(size)
	if err != nil {
		return 0, err
	}
	idx := slices.Index(rounds, round)
	if idx < 0 {
		return 0, errors.Wrapf(ErrIntegrity, "round %q is not part of a %d-team bracket", round, size)
	}
	return idx, nil
}

// NextRound returns the round after current. terminal is true for the final.
// An unknown round name is an integrity error.
func NextRound(size int, current RoundName) (next RoundName, terminal bool, err error) {
	idx, err := RoundIndex(size, current)
	if err != nil {
		return "", false, err
	}
	rounds, _ := RoundsFor(size)
	if idx == len(rounds)-1 {
		return "", true, nil
	}
	return rounds[idx+1], false, nil
}

// MatchesInRound is the capacity of the round at idx: size/2, size/4, ... 1.
func MatchesInRound(size, idx int) int {
	return size >> (idx + 1)
}

// Target computes where the winner of match seq lands in the next round.
// Siblings 2k-1 and 2k both feed match k; odd goes to slot A, even to slot B.
func Target(seq int) (int, Slot) {
	next := (seq + 1) / 2
	if seq%2 == 1 {
		return next, SlotA
	}
	return next, SlotB
}

// Label is the display name of a round.
func (r RoundName) Label() string {
	switch r {
	case RoundOf32:
		return "Round of 32"
	case RoundOf16:
		return "Round of 16"
	case Quarterfinal:
		return "Quarterfinal"
	case Semifinal:
		return "Semifinal"
	case Final:
		return "Final"
	}
	return string(r)
}
