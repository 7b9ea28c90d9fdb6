// Package ledger stores the per-day nutrition log: meals, trainings, body
// weight and targets, keyed by local calendar date.
package ledger

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/julianstephens/fitbuddy/internal/constants"
	"github.com/julianstephens/fitbuddy/internal/errors"
	"github.com/julianstephens/fitbuddy/internal/logger"
	"github.com/julianstephens/fitbuddy/internal/models"
	"github.com/julianstephens/fitbuddy/internal/storage"
)

// ErrInvalidInput is wrapped by mutators that reject their arguments.
var ErrInvalidInput = stderrors.New("invalid input")

// DefaultTargets are applied to any day that has none recorded.
var DefaultTargets = models.Nutrients{
	Calories: constants.DefaultTargetCalories,
	Protein:  constants.DefaultTargetProtein,
	Carbs:    constants.DefaultTargetCarbs,
	Fat:      constants.DefaultTargetFat,
}

// Ledger is the in-memory view of the persisted DailyData mapping. Every
// mutation rewrites the whole mapping to the store before returning. A
// Ledger is safe for concurrent use.
type Ledger struct {
	store storage.Provider
	loc   *time.Location
	now   func() time.Time
	newID func() string
	log   *log.Logger

	mu   sync.RWMutex
	data models.DailyData
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithLocation sets the time zone used to derive date keys. Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(l *Ledger) {
		if loc != nil {
			l.loc = loc
		}
	}
}

// WithClock replaces time.Now for meal and training timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// WithIDGenerator replaces the uuid generator for meal and training ids.
func WithIDGenerator(gen func() string) Option {
	return func(l *Ledger) {
		if gen != nil {
			l.newID = gen
		}
	}
}

// Open loads the ledger from store. A blob that cannot be parsed is kept
// aside under a recovery key and the ledger starts empty. Read failures
// other than a missing key are returned as persistence errors.
func Open(store storage.Provider, opts ...Option) (*Ledger, error) {
	l := &Ledger{
		store: store,
		loc:   time.Local,
		now:   time.Now,
		newID: uuid.NewString,
		log:   logger.Component("ledger"),
		data:  models.DailyData{},
	}
	for _, opt := range opts {
		opt(l)
	}

	raw, err := store.Get(constants.DailyDataKey)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return l, nil
		}
		return nil, errors.Persistence("ledger.open", err)
	}
	if len(raw) == 0 {
		return l, nil
	}

	var data models.DailyData
	if err := json.Unmarshal(raw, &data); err != nil {
		corruptLoadCounter.Inc()
		l.log.Warn("Discarding unreadable ledger", "error", err, "bytes", len(raw))
		l.preserveCorrupt(raw)
		return l, nil
	}
	if data != nil {
		l.data = data
	}
	return l, nil
}

func (l *Ledger) preserveCorrupt(raw []byte) {
	key := fmt.Sprintf("%s.corrupt-%s", constants.DailyDataKey, l.now().UTC().Format("20060102T150405"))
	if err := l.store.Set(key, raw); err != nil {
		l.log.Warn("Failed to keep a copy of the unreadable ledger", "key", key, "error", err)
		return
	}
	l.log.Info("Kept a copy of the unreadable ledger", "key", key)
}

// DateKey formats t as the yyyy-MM-dd key of its local calendar day.
func (l *Ledger) DateKey(t time.Time) string {
	return t.In(l.loc).Format(constants.DateFormat)
}

// Today is the current time in the ledger's time zone.
func (l *Ledger) Today() time.Time {
	return l.now().In(l.loc)
}

// ParseDate parses a yyyy-MM-dd key as midnight in the ledger's time zone.
func (l *Ledger) ParseDate(key string) (time.Time, error) {
	t, err := time.ParseInLocation(constants.DateFormat, key, l.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalidInput, key)
	}
	return t, nil
}

// emptyLog is the synthesized log for a day with nothing recorded.
func emptyLog() models.DailyLog {
	return models.DailyLog{
		Meals:     []models.Meal{},
		Trainings: []models.Training{},
		Targets:   DefaultTargets,
	}
}

// normalize fills defaults that older blobs may lack.
func normalize(day models.DailyLog) models.DailyLog {
	if day.Meals == nil {
		day.Meals = []models.Meal{}
	}
	if day.Trainings == nil {
		day.Trainings = []models.Training{}
	}
	if day.Targets.IsZero() {
		day.Targets = DefaultTargets
	}
	return day
}

// clone returns a copy that shares no slices or pointers with day.
func clone(day models.DailyLog) models.DailyLog {
	out := day
	out.Meals = append([]models.Meal(nil), day.Meals...)
	out.Trainings = append([]models.Training(nil), day.Trainings...)
	if day.Weight != nil {
		w := *day.Weight
		out.Weight = &w
	}
	return normalize(out)
}

// GetLog returns the log for date, or an empty log with default targets when
// nothing has been recorded. Reading never persists anything.
func (l *Ledger) GetLog(date time.Time) models.DailyLog {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.getLocked(l.DateKey(date))
}

func (l *Ledger) getLocked(key string) models.DailyLog {
	day, ok := l.data[key]
	if !ok {
		return emptyLog()
	}
	return clone(day)
}

// mutate applies fn to a copy of the day's log and persists the whole
// mapping. If the write fails the in-memory state is left unchanged.
func (l *Ledger) mutate(op string, date time.Time, fn func(*models.DailyLog) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := l.DateKey(date)
	day := l.getLocked(key)
	if err := fn(&day); err != nil {
		return err
	}

	prev, existed := l.data[key]
	l.data[key] = day
	if err := l.persistLocked(); err != nil {
		if existed {
			l.data[key] = prev
		} else {
			delete(l.data, key)
		}
		persistErrorCounter.WithLabelValues(op).Inc()
		l.log.Error("Failed to save ledger", "op", op, "date", key, "error", err)
		return errors.Persistence("ledger."+op, err)
	}
	mutationCounter.WithLabelValues(op).Inc()
	l.log.Debug("Ledger updated", "op", op, "date", key)
	return nil
}

func (l *Ledger) persistLocked() error {
	raw, err := json.Marshal(l.data)
	if err != nil {
		return fmt.Errorf("failed to encode ledger: %w", err)
	}
	return l.store.Set(constants.DailyDataKey, raw)
}

// AddMeal appends a meal built from draft to the day and returns it.
// Nutrient values are clamped to be non-negative.
func (l *Ledger) AddMeal(date time.Time, draft models.MealDraft) (models.Meal, error) {
	if draft.Name == "" {
		return models.Meal{}, fmt.Errorf("%w: meal name is required", ErrInvalidInput)
	}
	meal := models.Meal{
		ID:        l.newID(),
		Name:      draft.Name,
		Nutrients: draft.Nutrients.Clamp(),
		ImageURL:  draft.ImageURL,
		Timestamp: l.now().UTC(),
	}
	err := l.mutate("add_meal", date, func(day *models.DailyLog) error {
		day.Meals = append(day.Meals, meal)
		return nil
	})
	if err != nil {
		return models.Meal{}, err
	}
	return meal, nil
}

// DeleteMeal removes the meal with id from the day. It reports whether a
// meal was removed.
func (l *Ledger) DeleteMeal(date time.Time, id string) (bool, error) {
	err := l.mutate("delete_meal", date, func(day *models.DailyLog) error {
		for i, m := range day.Meals {
			if m.ID == id {
				day.Meals = append(day.Meals[:i], day.Meals[i+1:]...)
				return nil
			}
		}
		return errNoChange
	})
	if stderrors.Is(err, errNoChange) {
		return false, nil
	}
	return err == nil, err
}

var errNoChange = stderrors.New("no change")

// AddTraining appends a training session to the day. Duration and calories
// burned must both be positive.
func (l *Ledger) AddTraining(date time.Time, draft models.TrainingDraft) (models.Training, error) {
	if draft.Name == "" {
		return models.Training{}, fmt.Errorf("%w: training name is required", ErrInvalidInput)
	}
	if !positive(draft.DurationMin) {
		return models.Training{}, fmt.Errorf("%w: duration must be greater than zero", ErrInvalidInput)
	}
	if !positive(draft.CaloriesBurned) {
		return models.Training{}, fmt.Errorf("%w: calories burned must be greater than zero", ErrInvalidInput)
	}
	training := models.Training{
		ID:             l.newID(),
		Name:           draft.Name,
		DurationMin:    draft.DurationMin,
		CaloriesBurned: draft.CaloriesBurned,
		Timestamp:      l.now().UTC(),
	}
	err := l.mutate("add_training", date, func(day *models.DailyLog) error {
		day.Trainings = append(day.Trainings, training)
		return nil
	})
	if err != nil {
		return models.Training{}, err
	}
	return training, nil
}

// DeleteTraining removes the training with id from the day.
func (l *Ledger) DeleteTraining(date time.Time, id string) (bool, error) {
	err := l.mutate("delete_training", date, func(day *models.DailyLog) error {
		for i, t := range day.Trainings {
			if t.ID == id {
				day.Trainings = append(day.Trainings[:i], day.Trainings[i+1:]...)
				return nil
			}
		}
		return errNoChange
	})
	if stderrors.Is(err, errNoChange) {
		return false, nil
	}
	return err == nil, err
}

// SetWeight records the body weight for the day, replacing any earlier value.
func (l *Ledger) SetWeight(date time.Time, weight float64) error {
	if !positive(weight) {
		return fmt.Errorf("%w: weight must be greater than zero", ErrInvalidInput)
	}
	return l.mutate("set_weight", date, func(day *models.DailyLog) error {
		w := weight
		day.Weight = &w
		return nil
	})
}

// SetTargets replaces the day's targets. Values are clamped to be non-negative
// and an all-zero target set is rejected.
func (l *Ledger) SetTargets(date time.Time, targets models.Nutrients) error {
	targets = targets.Clamp()
	if targets.IsZero() {
		return fmt.Errorf("%w: at least one target must be greater than zero", ErrInvalidInput)
	}
	return l.mutate("set_targets", date, func(day *models.DailyLog) error {
		day.Targets = targets
		return nil
	})
}

// Totals is the element-wise sum of the day's meals.
func (l *Ledger) Totals(date time.Time) models.Nutrients {
	return TotalsOf(l.GetLog(date))
}

// TotalsOf folds the meals of a log.
func TotalsOf(day models.DailyLog) models.Nutrients {
	var total models.Nutrients
	for _, m := range day.Meals {
		total = total.Add(m.Nutrients)
	}
	return total
}

// CaloriesBurned sums the calories burned by the day's trainings.
func (l *Ledger) CaloriesBurned(date time.Time) float64 {
	var burned float64
	for _, t := range l.GetLog(date).Trainings {
		burned += t.CaloriesBurned
	}
	return burned
}

// Remaining is the calorie target minus calories eaten. Negative when over.
func (l *Ledger) Remaining(date time.Time) float64 {
	day := l.GetLog(date)
	return day.Targets.Calories - TotalsOf(day).Calories
}

// FormatRemaining renders a remaining calorie count as "N left" or "N over".
func FormatRemaining(remaining float64) string {
	r := math.Round(remaining)
	if r >= 0 {
		return fmt.Sprintf("%s left", formatThousands(int64(r)))
	}
	return fmt.Sprintf("%s over", formatThousands(int64(-r)))
}

func formatThousands(n int64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var out []byte
	pre := len(s) % 3
	if pre > 0 {
		out = append(out, s[:pre]...)
	}
	for i := pre; i < len(s); i += 3 {
		if len(out) > 0 {
			out = append(out, ',')
		}
		out = append(out, s[i:i+3]...)
	}
	return string(out)
}

// WeightHistory returns every recorded positive weight, oldest first.
func (l *Ledger) WeightHistory() []models.WeightSample {
	l.mu.RLock()
	defer l.mu.RUnlock()

	samples := make([]models.WeightSample, 0, len(l.data))
	for key, day := range l.data {
		if day.Weight == nil || !positive(*day.Weight) {
			continue
		}
		t, err := time.ParseInLocation(constants.DateFormat, key, l.loc)
		if err != nil {
			continue
		}
		samples = append(samples, models.WeightSample{Date: t, Weight: *day.Weight})
	}
	sort.Slice(samples, func(i, j int) bool {
		return samples[i].Date.Before(samples[j].Date)
	})
	return samples
}

// Dates lists the keys of every stored day in ascending order.
func (l *Ledger) Dates() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	keys := make([]string, 0, len(l.data))
	for k := range l.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Snapshot returns a deep copy of the whole mapping.
func (l *Ledger) Snapshot() models.DailyData {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make(models.DailyData, len(l.data))
	for k, v := range l.data {
		out[k] = clone(v)
	}
	return out
}

// LastViewedDate returns the date the user last had selected, or false if
// none is stored or the stored value is unreadable.
func (l *Ledger) LastViewedDate() (time.Time, bool) {
	raw, err := l.store.Get(constants.LatestLogDateKey)
	if err != nil {
		if !stderrors.Is(err, storage.ErrNotFound) {
			l.log.Warn("Failed to read last viewed date", "error", err)
		}
		return time.Time{}, false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		s = string(raw)
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		l.log.Warn("Ignoring unreadable last viewed date", "value", s)
		return time.Time{}, false
	}
	return t.In(l.loc), true
}

// SetLastViewedDate persists t as the selected date.
func (l *Ledger) SetLastViewedDate(t time.Time) error {
	raw, err := json.Marshal(t.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return err
	}
	if err := l.store.Set(constants.LatestLogDateKey, raw); err != nil {
		return errors.Persistence("ledger.set_last_viewed", err)
	}
	return nil
}

func positive(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}
