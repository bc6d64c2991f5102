package domain

import "strings"

// WorkoutCollection is the collection holding workouts.
const WorkoutCollection = "workouts"

// Weekday names the day a workout is planned for.
type Weekday string

const (
	Monday    Weekday = "Monday"
	Tuesday   Weekday = "Tuesday"
	Wednesday Weekday = "Wednesday"
	Thursday  Weekday = "Thursday"
	Friday    Weekday = "Friday"
	Saturday  Weekday = "Saturday"
	Sunday    Weekday = "Sunday"
)

// Weekdays lists the valid days in calendar order.
var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// ParseWeekday matches a day name case-insensitively.
func ParseWeekday(s string) (Weekday, bool) {
	s = strings.TrimSpace(s)
	for _, d := range Weekdays {
		if strings.EqualFold(string(d), s) {
			return d, true
		}
	}
	return "", false
}

// Valid reports whether d is one of Weekdays.
func (d Weekday) Valid() bool {
	for _, w := range Weekdays {
		if d == w {
			return true
		}
	}
	return false
}

// Workout is a single exercise entry planned for a day.
type Workout struct {
	Meta     `bson:",inline"`
	Day      Weekday `bson:"day" json:"day"`
	Exercise string  `bson:"exercise" json:"exercise"`
	Reps     int     `bson:"reps" json:"reps"`
	Sets     int     `bson:"sets" json:"sets"`
}

// WithHeader returns a copy of w carrying m.
func (w Workout) WithHeader(m Meta) Workout {
	w.Meta = m
	return w
}

// Collection implements Record.
func (Workout) Collection() string { return WorkoutCollection }

// Validate checks the variant fields of a workout about to be stored.
func (w Workout) Validate() error {
	var missing []string
	if w.Day == "" {
		missing = append(missing, "day")
	}
	if strings.TrimSpace(w.Exercise) == "" {
		missing = append(missing, "exercise")
	}
	if w.Reps == 0 {
		missing = append(missing, "reps")
	}
	if w.Sets == 0 {
		missing = append(missing, "sets")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing, Reason: "required"}
	}
	if !w.Day.Valid() {
		return &ValidationError{Fields: []string{"day"}, Reason: "must be a weekday name"}
	}
	if w.Reps < 0 || w.Sets < 0 {
		return &ValidationError{Fields: nonPositive(w.Reps, w.Sets), Reason: "must be a positive integer"}
	}
	return nil
}

// WorkoutPatch carries the workout fields to change. Nil fields are left untouched.
type WorkoutPatch struct {
	Day       *Weekday `json:"day,omitempty"`
	Exercise  *string  `json:"exercise,omitempty"`
	Reps      *int     `json:"reps,omitempty"`
	Sets      *int     `json:"sets,omitempty"`
	Completed *bool    `json:"completed,omitempty"`
}

// Fields maps the patch onto stored field names.
func (p WorkoutPatch) Fields() map[string]any {
	set := make(map[string]any)
	if p.Day != nil {
		set["day"] = *p.Day
	}
	if p.Exercise != nil {
		set["exercise"] = *p.Exercise
	}
	if p.Reps != nil {
		set["reps"] = *p.Reps
	}
	if p.Sets != nil {
		set["sets"] = *p.Sets
	}
	if p.Completed != nil {
		set["completed"] = *p.Completed
	}
	return set
}

// Validate rejects empty patches and invalid values.
func (p WorkoutPatch) Validate() error {
	if len(p.Fields()) == 0 {
		return &ValidationError{Reason: "patch has no fields"}
	}
	if p.Day != nil && !p.Day.Valid() {
		return &ValidationError{Fields: []string{"day"}, Reason: "must be a weekday name"}
	}
	if p.Exercise != nil && strings.TrimSpace(*p.Exercise) == "" {
		return &ValidationError{Fields: []string{"exercise"}, Reason: "required"}
	}
	var bad []string
	if p.Reps != nil && *p.Reps <= 0 {
		bad = append(bad, "reps")
	}
	if p.Sets != nil && *p.Sets <= 0 {
		bad = append(bad, "sets")
	}
	if len(bad) > 0 {
		return &ValidationError{Fields: bad, Reason: "must be a positive integer"}
	}
	return nil
}

// StampsUpdatedAt is true when any field other than completed changes.
func (p WorkoutPatch) StampsUpdatedAt() bool {
	return p.Day != nil || p.Exercise != nil || p.Reps != nil || p.Sets != nil
}

func nonPositive(reps, sets int) []string {
	var fields []string
	if reps < 0 {
		fields = append(fields, "reps")
	}
	if sets < 0 {
		fields = append(fields, "sets")
	}
	return fields
}
