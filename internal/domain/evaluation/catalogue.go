package evaluation

// Criterion is one rubric line item. Weight is its share inside its category.
type Criterion struct {
	Key      string  `json:"key"`
	Category string  `json:"category"`
	Label    string  `json:"label"`
	MaxScore float64 `json:"maxScore"`
	Weight   float64 `json:"weight"`
}

type Category struct {
	Letter string `json:"letter"`
	Name   string `json:"name"`
}

// SummativeCriterion is scored from the quiz_grades sheet, never from
// scoreboard rubric slots.
const SummativeCriterion = "e1_learning"

var Categories = []Category{
	{Letter: "A", Name: "Attendance & Punctuality"},
	{Letter: "B", Name: "Interpersonal Skills"},
	{Letter: "C", Name: "Technical Competence"},
	{Letter: "D", Name: "Work Management"},
	{Letter: "E", Name: "Learning"},
	{Letter: "F", Name: "Communication Output"},
	{Letter: "G", Name: "Values"},
}

var Criteria = []Criterion{
	{Key: "a1_attendance", Category: "A", Label: "Attendance", MaxScore: 10, Weight: 50},
	{Key: "a2_punctuality", Category: "A", Label: "Punctuality", MaxScore: 10, Weight: 50},
	{Key: "b1_communication", Category: "B", Label: "Communication Skills", MaxScore: 20, Weight: 40},
	{Key: "b2_teamwork", Category: "B", Label: "Teamwork & Collaboration", MaxScore: 20, Weight: 30},
	{Key: "b3_initiative", Category: "B", Label: "Initiative", MaxScore: 20, Weight: 30},
	{Key: "c1_technical_knowledge", Category: "C", Label: "Technical Knowledge", MaxScore: 40, Weight: 40},
	{Key: "c2_problem_solving", Category: "C", Label: "Problem Solving", MaxScore: 40, Weight: 30},
	{Key: "c3_code_quality", Category: "C", Label: "Code Quality", MaxScore: 40, Weight: 30},
	{Key: "d1_task_completion", Category: "D", Label: "Task Completion", MaxScore: 30, Weight: 50},
	{Key: "d2_time_management", Category: "D", Label: "Time Management", MaxScore: 30, Weight: 50},
	{Key: SummativeCriterion, Category: "E", Label: "Summative Assessment", MaxScore: 80, Weight: 60},
	{Key: "e2_application", Category: "E", Label: "Application of Learning", MaxScore: 40, Weight: 40},
	{Key: "f1_documentation", Category: "F", Label: "Documentation", MaxScore: 15, Weight: 50},
	{Key: "f2_presentation", Category: "F", Label: "Presentation Skills", MaxScore: 15, Weight: 50},
	{Key: "g1_professionalism", Category: "G", Label: "Professionalism", MaxScore: 5, Weight: 25},
	{Key: "g2_adaptability", Category: "G", Label: "Adaptability", MaxScore: 5, Weight: 25},
	{Key: "g3_attitude", Category: "G", Label: "Attitude", MaxScore: 5, Weight: 20},
	{Key: "g4_integrity", Category: "G", Label: "Integrity", MaxScore: 5, Weight: 15},
	{Key: "g5_feedback_receptiveness", Category: "G", Label: "Receptiveness to Feedback", MaxScore: 5, Weight: 15},
}

// WeightProfile selects one of the category weight tables applied over the
// same catalogue.
type WeightProfile string

const (
	ProfileBootcamp    WeightProfile = "bootcamp"
	ProfilePerformance WeightProfile = "performance"
)

var Profiles = []WeightProfile{ProfileBootcamp, ProfilePerformance}

var profileWeights = map[WeightProfile]map[string]float64{
	ProfileBootcamp: {
		"A": 10,
		"B": 15,
		"C": 20,
		"D": 10,
		"E": 25,
		"F": 10,
		"G": 10,
	},
	ProfilePerformance: {
		"A": 10,
		"B": 15,
		"C": 20,
		"D": 15,
		"E": 15,
		"F": 10,
		"G": 15,
	},
}

// CategoryWeight returns the percentage weight of a category letter in the
// profile, or 0 for unknown profiles or letters.
func (p WeightProfile) CategoryWeight(letter string) float64 {
	return profileWeights[p][letter]
}

func (p WeightProfile) Valid() bool {
	_, ok := profileWeights[p]
	return ok
}

var criteriaByKey = func() map[string]Criterion {
	out := make(map[string]Criterion, len(Criteria))
	for _, c := range Criteria {
		out[c.Key] = c
	}
	return out
}()

func LookupCriterion(key string) (Criterion, bool) {
	c, ok := criteriaByKey[key]
	return c, ok
}

func IsRubricKey(key string) bool {
	_, ok := criteriaByKey[key]
	return ok
}

// CriteriaIn returns the catalogue entries of one category in catalogue order.
func CriteriaIn(letter string) []Criterion {
	var out []Criterion
	for _, c := range Criteria {
		if c.Category == letter {
			out = append(out, c)
		}
	}
	return out
}

func CategoryName(letter string) string {
	for _, c := range Categories {
		if c.Letter == letter {
			return c.Name
		}
	}
	return letter
}
