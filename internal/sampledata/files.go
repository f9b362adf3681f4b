package sampledata

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/okian/healthrix/internal/adapters/repository"
)

// File names written by WriteFiles.
const (
	EmployeesFile  = "sample_employees.csv"
	ActivitiesFile = "sample_activities.csv"
)

// Populate registers the dataset's employees and appends its activities.
func Populate(ctx context.Context, store repository.ActivityStore, ds Dataset) error {
	for _, e := range ds.Employees {
		if err := store.RegisterEmployee(ctx, e); err != nil {
			return fmt.Errorf("register %s: %w", e.ID, err)
		}
	}
	if err := store.AddMany(ctx, ds.Activities); err != nil {
		return fmt.Errorf("add activities: %w", err)
	}
	return nil
}

// WriteFiles writes the employee and activity sheets into dir and returns
// their paths.
func WriteFiles(ctx context.Context, dir string, ds Dataset) (employees, activities string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create %s: %w", dir, err)
	}
	store := repository.NewMemoryStore(repository.WithCapacityHint(len(ds.Activities)))
	if err := Populate(ctx, store, ds); err != nil {
		return "", "", err
	}

	employees = filepath.Join(dir, EmployeesFile)
	if err := writeFile(employees, func(f *os.File) error {
		return repository.WriteEmployeesCSV(ctx, f, store)
	}); err != nil {
		return "", "", err
	}
	activities = filepath.Join(dir, ActivitiesFile)
	if err := writeFile(activities, func(f *os.File) error {
		return repository.WriteActivitiesCSV(ctx, f, store)
	}); err != nil {
		return "", "", err
	}
	return employees, activities, nil
}

func writeFile(path string, write func(*os.File) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()
	if err := write(f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
