package core

// Household relationships that the world assigns itself.
const (
	RelationshipHouseholder = 0
	RelationshipChild       = 2
)

// Symbolic constants that expressions may use in place of numbers.

var valueMap = map[string]float64{
	// sex
	"male":   1,
	"female": 0,

	// household relationship
	"householder":                             RelationshipHouseholder,
	"spouse":                                  1,
	"child":                                   RelationshipChild,
	"sibling":                                 3,
	"parent":                                  4,
	"grandchild":                              5,
	"in_law":                                  6,
	"other_relative":                          7,
	"boarder":                                 8,
	"housemate":                               9,
	"partner":                                 10,
	"foster_child":                            11,
	"other_non_relative":                      12,
	"institutionalized_group_quarters_pop":    13,
	"noninstitutionalized_group_quarters_pop": 14,

	// race
	"unknown_race":     -1,
	"white":            1,
	"african_american": 2,
	"american_indian":  3,
	"alaska_native":    4,
	"tribal":           5,
	"asian":            6,
	"hawaiian_native":  7,
	"other_race":       8,
	"multiple_race":    9,

	// activity profile
	"infant":                0,
	"preschool":             1,
	"student":               2,
	"teacher":               3,
	"worker":                4,
	"weekend_worker":        5,
	"unemployed":            6,
	"retired":               7,
	"prisoner":              8,
	"college_student":       9,
	"military":              10,
	"nursing_home_resident": 11,

	// days of the week
	"Sun": 0,
	"Mon": 1,
	"Tue": 2,
	"Wed": 3,
	"Thu": 4,
	"Fri": 5,
	"Sat": 6,

	// months
	"Jan": 1,
	"Feb": 2,
	"Mar": 3,
	"Apr": 4,
	"May": 5,
	"Jun": 6,
	"Jul": 7,
	"Aug": 8,
	"Sep": 9,
	"Oct": 10,
	"Nov": 11,
	"Dec": 12,
}

// SymbolValue returns the number a symbolic constant stands for.
func SymbolValue(name string) (float64, bool) {
	v, have := valueMap[name]
	return v, have
}
