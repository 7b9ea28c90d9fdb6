package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"

	"github.com/julianstephens/fitbuddy/internal/ledger"
	"github.com/julianstephens/fitbuddy/internal/models"
)

var (
	errInvalidParams = stderrors.New("invalid parameters")
	errNotFound      = stderrors.New("not found")
)

// toolOrder is the listing order of registered tools.
var toolOrder = []string{
	"log_meal",
	"delete_meal",
	"log_training",
	"set_weight",
	"get_day",
	"weight_history",
}

type LogMealParams struct {
	Date     string  `json:"date,omitempty" description:"Day to log on (YYYY-MM-DD, defaults to today)"`
	Name     string  `json:"name" description:"Meal name"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

type DeleteMealParams struct {
	Date string `json:"date,omitempty"`
	ID   string `json:"id"`
}

type LogTrainingParams struct {
	Date           string  `json:"date,omitempty"`
	Name           string  `json:"name"`
	DurationMin    float64 `json:"duration_minutes"`
	CaloriesBurned float64 `json:"calories_burned"`
}

type SetWeightParams struct {
	Date   string  `json:"date,omitempty"`
	Weight float64 `json:"weight"`
}

type GetDayParams struct {
	Date string `json:"date,omitempty"`
}

// DaySummary is the get_day result.
type DaySummary struct {
	Date           string           `json:"date"`
	Log            models.DailyLog  `json:"log"`
	Totals         models.Nutrients `json:"totals"`
	CaloriesBurned float64          `json:"calories_burned"`
	Remaining      string           `json:"remaining"`
}

func (s *Server) registerTools() {
	s.tools = map[string]tool{
		"log_meal":       {Name: "log_meal", Description: "Add a meal with its nutrients to a day", handler: s.handleLogMeal},
		"delete_meal":    {Name: "delete_meal", Description: "Remove a meal from a day by id", handler: s.handleDeleteMeal},
		"log_training":   {Name: "log_training", Description: "Add a training session to a day", handler: s.handleLogTraining},
		"set_weight":     {Name: "set_weight", Description: "Record body weight for a day", handler: s.handleSetWeight},
		"get_day":        {Name: "get_day", Description: "Show meals, trainings, totals and remaining calories for a day", handler: s.handleGetDay},
		"weight_history": {Name: "weight_history", Description: "List recorded weights, oldest first", handler: s.handleWeightHistory},
	}
}

// extractParams decodes the request arguments into target.
func extractParams(req *protocol.CallToolRequest, target any) error {
	raw, err := json.Marshal(req.Arguments)
	if err != nil {
		return fmt.Errorf("%w: %v", errInvalidParams, err)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("%w: %v", errInvalidParams, err)
	}
	return nil
}

func (s *Server) resolveDate(key string) (time.Time, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return s.ledger.Today(), nil
	}
	return s.ledger.ParseDate(key)
}

func (s *Server) handleLogMeal(_ context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var p LogMealParams
	if err := extractParams(req, &p); err != nil {
		return nil, err
	}
	date, err := s.resolveDate(p.Date)
	if err != nil {
		return nil, err
	}
	meal, err := s.ledger.AddMeal(date, models.MealDraft{
		Name:      strings.TrimSpace(p.Name),
		Nutrients: models.Nutrients{Calories: p.Calories, Protein: p.Protein, Carbs: p.Carbs, Fat: p.Fat},
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Meal logged", "date", s.ledger.DateKey(date), "name", meal.Name)
	return jsonResult(meal)
}

func (s *Server) handleDeleteMeal(_ context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var p DeleteMealParams
	if err := extractParams(req, &p); err != nil {
		return nil, err
	}
	if p.ID == "" {
		return nil, fmt.Errorf("%w: id is required", errInvalidParams)
	}
	date, err := s.resolveDate(p.Date)
	if err != nil {
		return nil, err
	}
	removed, err := s.ledger.DeleteMeal(date, p.ID)
	if err != nil {
		return nil, err
	}
	if !removed {
		return nil, fmt.Errorf("%w: meal %s on %s", errNotFound, p.ID, s.ledger.DateKey(date))
	}
	return jsonResult(map[string]any{"deleted": p.ID})
}

func (s *Server) handleLogTraining(_ context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var p LogTrainingParams
	if err := extractParams(req, &p); err != nil {
		return nil, err
	}
	date, err := s.resolveDate(p.Date)
	if err != nil {
		return nil, err
	}
	training, err := s.ledger.AddTraining(date, models.TrainingDraft{
		Name:           strings.TrimSpace(p.Name),
		DurationMin:    p.DurationMin,
		CaloriesBurned: p.CaloriesBurned,
	})
	if err != nil {
		return nil, err
	}
	return jsonResult(training)
}

func (s *Server) handleSetWeight(_ context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var p SetWeightParams
	if err := extractParams(req, &p); err != nil {
		return nil, err
	}
	date, err := s.resolveDate(p.Date)
	if err != nil {
		return nil, err
	}
	if err := s.ledger.SetWeight(date, p.Weight); err != nil {
		return nil, err
	}
	return jsonResult(map[string]any{"date": s.ledger.DateKey(date), "weight": p.Weight})
}

func (s *Server) handleGetDay(_ context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var p GetDayParams
	if err := extractParams(req, &p); err != nil {
		return nil, err
	}
	date, err := s.resolveDate(p.Date)
	if err != nil {
		return nil, err
	}
	return jsonResult(DaySummary{
		Date:           s.ledger.DateKey(date),
		Log:            s.ledger.GetLog(date),
		Totals:         s.ledger.Totals(date),
		CaloriesBurned: s.ledger.CaloriesBurned(date),
		Remaining:      ledger.FormatRemaining(s.ledger.Remaining(date)),
	})
}

func (s *Server) handleWeightHistory(_ context.Context, _ *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	return jsonResult(map[string]any{"samples": s.ledger.WeightHistory()})
}
