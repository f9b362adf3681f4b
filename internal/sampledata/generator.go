// Package sampledata generates realistic demo employees and activity logs.
package sampledata

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/healthrix/internal/domain/model"
	"github.com/okian/healthrix/internal/domain/standards"
	"github.com/okian/healthrix/pkg/logger"
)

// Output ranges as a fraction of the daily target.
const (
	avgPerformerMin     = 0.70
	avgPerformerRange   = 0.20
	highPerformerMin    = 0.90
	highPerformerRange  = 0.15
	lowPerformerMin     = 0.40
	lowPerformerRange   = 0.25
	elitePerformerMin   = 1.05
	elitePerformerRange = 0.15
	veryLowMin          = 0.15
	veryLowRange        = 0.20
)

// Performer profiles.
const (
	caseAveragePerformer = iota
	caseHighPerformer
	caseLowPerformer
	caseElitePerformer
	caseVeryLowPerformer
	profileCount
)

const (
	conductIssueRate = 0.05
	maxIdleSteps     = 6 // half-hour steps
	minTasksPerDay   = 2
	maxTasksPerDay   = 4
)

var patientNamespace = uuid.MustParse("6f1c2a44-2b8e-4a7b-9d1c-0e5a7c3f9b21")

var (
	firstNames  = []string{"Alice", "Bob", "Carol", "David", "Emma", "Farid", "Grace", "Hiro", "Isabel", "Jamal", "Kira", "Luis", "Maya", "Nikhil", "Olga", "Priya"}
	lastNames   = []string{"Johnson", "Smith", "Williams", "Brown", "Davis", "Garcia", "Martinez", "Lee", "Walker", "Young"}
	departments = []string{"Authorizations", "Pharmacy", "Patient Services", "Billing"}
	roles       = []string{"Specialist", "Coordinator", "Senior Specialist"}
)

// Generate builds a dataset from tasks. The same config and tasks always
// produce the same dataset.
func Generate(ctx context.Context, cfg Config, tasks []standards.TaskStandard) (Dataset, error) {
	if err := cfg.Validate(); err != nil {
		return Dataset{}, err
	}
	tasks = scorable(tasks)
	if len(tasks) == 0 {
		return Dataset{}, fmt.Errorf("%w: no scorable task standards", ErrInvalidConfig)
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	dates, err := workingDays(cfg.Start, cfg.Days, cfg.SkipWeekends)
	if err != nil {
		return Dataset{}, err
	}

	ds := Dataset{Dates: dates}
	profiles := make([]int, cfg.Employees)
	for i := 0; i < cfg.Employees; i++ {
		ds.Employees = append(ds.Employees, employee(i, rng))
		profiles[i] = rng.IntN(profileCount)
	}

	for _, date := range dates {
		if err := ctx.Err(); err != nil {
			return Dataset{}, fmt.Errorf("generation cancelled: %w", err)
		}
		for i, emp := range ds.Employees {
			ds.Activities = append(ds.Activities, day(rng, cfg.DailyTarget, profiles[i], emp.ID, date, tasks)...)
		}
	}

	log.Info(ctx, "generated sample data",
		logger.Int("employees", len(ds.Employees)),
		logger.Int("days", len(dates)),
		logger.Int("activities", len(ds.Activities)),
	)
	return ds, nil
}

func scorable(tasks []standards.TaskStandard) []standards.TaskStandard {
	out := make([]standards.TaskStandard, 0, len(tasks))
	for _, t := range tasks {
		if t.BaseScore > 0 {
			out = append(out, t)
		}
	}
	return out
}

func employee(i int, rng *rand.Rand) model.Employee {
	first := firstNames[i%len(firstNames)]
	last := lastNames[(i/len(firstNames)+i)%len(lastNames)]
	return model.Employee{
		ID:         fmt.Sprintf("EMP%03d", i+1),
		Name:       first + " " + last,
		Department: departments[rng.IntN(len(departments))],
		Role:       roles[rng.IntN(len(roles))],
	}
}

func workingDays(start string, n int, skipWeekends bool) ([]string, error) {
	d, err := model.ParseDate(start)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, n)
	for len(out) < n {
		if !skipWeekends || (d.Weekday() != time.Saturday && d.Weekday() != time.Sunday) {
			out = append(out, d.Format(model.DateLayout))
		}
		d = d.AddDate(0, 0, 1)
	}
	return out, nil
}

// output draws the day's target output as a fraction of the daily target.
func output(rng *rand.Rand, profile int) float64 {
	switch profile {
	case caseHighPerformer:
		return highPerformerMin + rng.Float64()*highPerformerRange
	case caseLowPerformer:
		return lowPerformerMin + rng.Float64()*lowPerformerRange
	case caseElitePerformer:
		return elitePerformerMin + rng.Float64()*elitePerformerRange
	case caseVeryLowPerformer:
		return veryLowMin + rng.Float64()*veryLowRange
	default:
		return avgPerformerMin + rng.Float64()*avgPerformerRange
	}
}

// day builds one employee-day. Idle hours and the conduct flag are repeated
// on every row, as the activity sheet carries them.
func day(rng *rand.Rand, target float64, profile int, empID, date string, tasks []standards.TaskStandard) []model.ActivityEntry {
	points := output(rng, profile) * target
	idle := float64(rng.IntN(maxIdleSteps+1)) / 2
	conduct := 0
	if rng.Float64() < conductIssueRate {
		conduct = 1
	}

	k := minTasksPerDay + rng.IntN(maxTasksPerDay-minTasksPerDay+1)
	k = min(k, len(tasks))
	picked := rng.Perm(len(tasks))[:k]

	rows := make([]model.ActivityEntry, 0, k)
	share := points / float64(k)
	for n, idx := range picked {
		t := tasks[idx]
		count := max(1, int(math.Round(share/float64(t.BaseScore))))
		opts := []model.EntryOption{
			model.WithCount(count),
			model.WithIdleHours(idle),
			model.WithConductFlag(conduct),
			model.WithDuration(count * (5 + rng.IntN(16))),
			model.WithPatient(patientID(empID, date, n)),
		}
		if conduct == 1 && n == 0 {
			opts = append(opts, model.WithNotes("supervisor review"))
		}
		e, err := model.NewActivityEntry(date, empID, t.TaskName, opts...)
		if err != nil {
			// inputs are generated within range
			panic(err)
		}
		rows = append(rows, e)
	}
	return rows
}

func patientID(empID, date string, n int) string {
	id := uuid.NewSHA1(patientNamespace, []byte(fmt.Sprintf("%s/%s/%d", empID, date, n)))
	return "PT" + strings.ToUpper(id.String()[:8])
}
