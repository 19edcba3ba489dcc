package services

import (
	"testing"
	"time"

	"budgetshop/internal/core"
)

func TestDailyChecker(t *testing.T) {
	checker := DailyChecker{}

	tests := []struct {
		name          string
		lastExecution time.Time
		now           time.Time
		want          bool
	}{
		{
			name:          "never executed",
			lastExecution: time.Time{},
			now:           time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC),
			want:          true,
		},
		{
			name:          "already ran today",
			lastExecution: time.Date(2025, 3, 15, 8, 0, 0, 0, time.UTC),
			now:           time.Date(2025, 3, 15, 20, 0, 0, 0, time.UTC),
			want:          false,
		},
		{
			name:          "ran yesterday",
			lastExecution: time.Date(2025, 3, 14, 23, 59, 0, 0, time.UTC),
			now:           time.Date(2025, 3, 15, 0, 1, 0, 0, time.UTC),
			want:          true,
		},
		{
			name:          "ran last week",
			lastExecution: time.Date(2025, 3, 8, 12, 0, 0, 0, time.UTC),
			now:           time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC),
			want:          true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := checker.IsDue(tt.lastExecution, tt.now, core.Date{})
			if got != tt.want {
				t.Errorf("IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWeeklyChecker(t *testing.T) {
	checker := WeeklyChecker{}

	tests := []struct {
		name          string
		lastExecution time.Time
		now           time.Time
		want          bool
	}{
		{
			name:          "never executed",
			lastExecution: time.Time{},
			now:           time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC),
			want:          true,
		},
		{
			name:          "six days ago",
			lastExecution: time.Date(2025, 3, 9, 10, 0, 0, 0, time.UTC),
			now:           time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC),
			want:          false,
		},
		{
			name:          "exactly seven days ago",
			lastExecution: time.Date(2025, 3, 8, 10, 0, 0, 0, time.UTC),
			now:           time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC),
			want:          true,
		},
		{
			name:          "eight days ago",
			lastExecution: time.Date(2025, 3, 7, 10, 0, 0, 0, time.UTC),
			now:           time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC),
			want:          true,
		},
		{
			name:          "seven days minus one hour",
			lastExecution: time.Date(2025, 3, 8, 11, 0, 0, 0, time.UTC),
			now:           time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC),
			want:          false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := checker.IsDue(tt.lastExecution, tt.now, core.Date{})
			if got != tt.want {
				t.Errorf("IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMonthlyChecker(t *testing.T) {
	checker := MonthlyChecker{}

	tests := []struct {
		name          string
		lastExecution time.Time
		now           time.Time
		startDate     core.Date
		want          bool
	}{
		{
			name:          "never executed",
			lastExecution: time.Time{},
			now:           time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC),
			startDate:     core.NewDate(2025, 1, 15),
			want:          true,
		},
		{
			name:          "already ran this month",
			lastExecution: time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC),
			now:           time.Date(2025, 3, 20, 10, 0, 0, 0, time.UTC),
			startDate:     core.NewDate(2025, 1, 15),
			want:          false,
		},
		{
			name:          "new month before target day",
			lastExecution: time.Date(2025, 2, 15, 10, 0, 0, 0, time.UTC),
			now:           time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC),
			startDate:     core.NewDate(2025, 1, 15),
			want:          false,
		},
		{
			name:          "new month on target day",
			lastExecution: time.Date(2025, 2, 15, 10, 0, 0, 0, time.UTC),
			now:           time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC),
			startDate:     core.NewDate(2025, 1, 15),
			want:          true,
		},
		{
			name:          "new month past target day",
			lastExecution: time.Date(2025, 2, 15, 10, 0, 0, 0, time.UTC),
			now:           time.Date(2025, 3, 20, 10, 0, 0, 0, time.UTC),
			startDate:     core.NewDate(2025, 1, 15),
			want:          true,
		},
		{
			name:          "day 31 clamped to february 28",
			lastExecution: time.Date(2025, 1, 31, 10, 0, 0, 0, time.UTC),
			now:           time.Date(2025, 2, 28, 10, 0, 0, 0, time.UTC),
			startDate:     core.NewDate(2024, 12, 31),
			want:          true,
		},
		{
			name:          "day 31 clamped to february 29 on leap year",
			lastExecution: time.Date(2024, 1, 31, 10, 0, 0, 0, time.UTC),
			now:           time.Date(2024, 2, 29, 10, 0, 0, 0, time.UTC),
			startDate:     core.NewDate(2023, 12, 31),
			want:          true,
		},
		{
			name:          "day 31 not yet due on february 27",
			lastExecution: time.Date(2025, 1, 31, 10, 0, 0, 0, time.UTC),
			now:           time.Date(2025, 2, 27, 10, 0, 0, 0, time.UTC),
			startDate:     core.NewDate(2024, 12, 31),
			want:          false,
		},
		{
			name:          "year boundary december to january",
			lastExecution: time.Date(2024, 12, 15, 10, 0, 0, 0, time.UTC),
			now:           time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC),
			startDate:     core.NewDate(2024, 1, 15),
			want:          true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := checker.IsDue(tt.lastExecution, tt.now, tt.startDate)
			if got != tt.want {
				t.Errorf("IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestYearlyChecker(t *testing.T) {
	checker := YearlyChecker{}

	tests := []struct {
		name          string
		lastExecution time.Time
		now           time.Time
		startDate     core.Date
		want          bool
	}{
		{
			name:          "never executed",
			lastExecution: time.Time{},
			now:           time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC),
			startDate:     core.NewDate(2024, 3, 15),
			want:          true,
		},
		{
			name:          "already ran this year",
			lastExecution: time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC),
			now:           time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
			startDate:     core.NewDate(2024, 3, 15),
			want:          false,
		},
		{
			name:          "new year before target month",
			lastExecution: time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC),
			now:           time.Date(2025, 2, 20, 10, 0, 0, 0, time.UTC),
			startDate:     core.NewDate(2024, 3, 15),
			want:          false,
		},
		{
			name:          "new year in target month before day",
			lastExecution: time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC),
			now:           time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC),
			startDate:     core.NewDate(2024, 3, 15),
			want:          false,
		},
		{
			name:          "new year on anniversary",
			lastExecution: time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC),
			now:           time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC),
			startDate:     core.NewDate(2024, 3, 15),
			want:          true,
		},
		{
			name:          "new year past target month",
			lastExecution: time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC),
			now:           time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC),
			startDate:     core.NewDate(2024, 3, 15),
			want:          true,
		},
		{
			name:          "leap day anniversary clamped to february 28",
			lastExecution: time.Date(2024, 2, 29, 10, 0, 0, 0, time.UTC),
			now:           time.Date(2025, 2, 28, 10, 0, 0, 0, time.UTC),
			startDate:     core.NewDate(2024, 2, 29),
			want:          true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := checker.IsDue(tt.lastExecution, tt.now, tt.startDate)
			if got != tt.want {
				t.Errorf("IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetDuenessChecker(t *testing.T) {
	for _, every := range []core.RepetitionType{core.Daily, core.Weekly, core.Monthly, core.Yearly} {
		if _, err := GetDuenessChecker(every); err != nil {
			t.Errorf("GetDuenessChecker(%q) returned error: %v", every, err)
		}
	}

	if _, err := GetDuenessChecker("fortnightly"); err == nil {
		t.Error("expected error for unknown repetition type")
	}
}

type alwaysDueChecker struct{}

func (alwaysDueChecker) IsDue(_, _ time.Time, _ core.Date) bool { return true }

func TestRegisterDuenessChecker(t *testing.T) {
	const custom = core.RepetitionType("custom")
	RegisterDuenessChecker(custom, alwaysDueChecker{})
	defer delete(duenessCheckers, custom)

	checker, err := GetDuenessChecker(custom)
	if err != nil {
		t.Fatalf("GetDuenessChecker() returned error: %v", err)
	}
	if !checker.IsDue(time.Now(), time.Now(), core.Date{}) {
		t.Error("custom checker should always be due")
	}
}
