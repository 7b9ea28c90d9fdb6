package models

import (
	"math"
	"time"
)

// Nutrients holds the four tracked quantities. Protein, carbs and fat are in
// grams; calories are kcal.
type Nutrients struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// Add returns the element-wise sum of n and o.
func (n Nutrients) Add(o Nutrients) Nutrients {
	return Nutrients{
		Calories: n.Calories + o.Calories,
		Protein:  n.Protein + o.Protein,
		Carbs:    n.Carbs + o.Carbs,
		Fat:      n.Fat + o.Fat,
	}
}

// Round rounds every field to the nearest integer.
func (n Nutrients) Round() Nutrients {
	return Nutrients{
		Calories: math.Round(n.Calories),
		Protein:  math.Round(n.Protein),
		Carbs:    math.Round(n.Carbs),
		Fat:      math.Round(n.Fat),
	}
}

// Clamp replaces negative or non-finite fields with zero.
func (n Nutrients) Clamp() Nutrients {
	return Nutrients{
		Calories: nonNegative(n.Calories),
		Protein:  nonNegative(n.Protein),
		Carbs:    nonNegative(n.Carbs),
		Fat:      nonNegative(n.Fat),
	}
}

// IsZero reports whether all fields are zero.
func (n Nutrients) IsZero() bool {
	return n == Nutrients{}
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// Meal is a single logged meal. Meals are never edited after creation.
type Meal struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Nutrients Nutrients `json:"nutrients"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// MealDraft is the user-supplied part of a Meal.
type MealDraft struct {
	Name      string
	Nutrients Nutrients
	ImageURL  string
}

// Training is a single logged training session.
type Training struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	DurationMin    float64   `json:"duration"`
	CaloriesBurned float64   `json:"caloriesBurned"`
	Timestamp      time.Time `json:"timestamp"`
}

// TrainingDraft is the user-supplied part of a Training.
type TrainingDraft struct {
	Name           string
	DurationMin    float64
	CaloriesBurned float64
}

// DailyLog is everything recorded for one calendar day.
type DailyLog struct {
	Meals     []Meal     `json:"meals"`
	Trainings []Training `json:"trainings"`
	Weight    *float64   `json:"weight,omitempty"`
	Targets   Nutrients  `json:"targets"`
}

// DailyData maps a YYYY-MM-DD key to the log for that day.
type DailyData map[string]DailyLog

// WeightSample is one body weight reading, used for trend views.
type WeightSample struct {
	Date   time.Time `json:"date"`
	Weight float64   `json:"weight"`
}
