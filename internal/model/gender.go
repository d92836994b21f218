package model

import "strings"

// Gender allocation partition
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	// GenderAll selects both partitions; never stored on a record
	GenderAll Gender = "All"
)

// Genders lists the stored partitions in a stable order
var Genders = []Gender{GenderMale, GenderFemale}

// ParseGender normalises user input ("male", "FEMALE", "all") into a Gender
func ParseGender(s string) (Gender, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male", "m":
		return GenderMale, true
	case "female", "f":
		return GenderFemale, true
	case "all":
		return GenderAll, true
	}
	return "", false
}

// IsPartition reports whether g is Male or Female
func (g Gender) IsPartition() bool {
	return g == GenderMale || g == GenderFemale
}

// Expand returns the partitions g selects
func (g Gender) Expand() []Gender {
	if g == GenderAll {
		return Genders
	}
	return []Gender{g}
}
