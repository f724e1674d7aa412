package catalog

import "strings"

// Category names map to the tags a course title or description is searched for.
var categories = map[string][]string{
	"MATH":      {"Algebra", "Geometry", "Calculus"},
	"AI":        {"AI", "ChatGPT", "ML", "Machine Learning", "Deep Learning"},
	"KAZAKH":    {"Kazakh language", "Қазақ тілі"},
	"RUSSIAN":   {"Russian language", "Русский язык"},
	"ENGLISH":   {"English language", "IELTS", "TOEFL"},
	"IT":        {"IT", "Programming", "Software"},
	"PHYSICS":   {"Mechanics", "Electricity", "Quantum"},
	"CHEMISTRY": {"Organic", "Inorganic", "Chemistry", "Reactions"},
	"BIOLOGY":   {"Genetics", "Cells", "Organisms", "Biology"},
	"GEOGRAPHY": {"Maps", "Climate", "Geography", "Continents"},
	"HISTORY":   {"Ancient", "Modern", "World Wars", "History"},
}

// Tags returns the search tags of a category, matched case-insensitively.
func Tags(name string) ([]string, bool) {
	t, ok := categories[strings.ToUpper(strings.TrimSpace(name))]
	return t, ok
}

// Categories lists the known category names.
func Categories() []string {
	out := make([]string, 0, len(categories))
	for k := range categories {
		out = append(out, k)
	}
	return out
}
