package services

import (
	"testing"

	"prize-hunt-system/models"
)

func TestComputeProgress(t *testing.T) {
	cases := []struct {
		name     string
		condType models.AchievementConditionType
		current  int64
		target   int64
		want     float64
	}{
		{"counter halfway", models.ConditionCounter, 5, 10, 50},
		{"counter at target", models.ConditionCounter, 10, 10, 100},
		{"counter past target clamps", models.ConditionCounter, 25, 10, 100},
		{"counter at zero", models.ConditionCounter, 0, 10, 0},
		{"threshold below target", models.ConditionThreshold, 9, 10, 0},
		{"threshold at target", models.ConditionThreshold, 10, 10, 100},
		{"threshold above target", models.ConditionThreshold, 11, 10, 100},
		{"zero target never progresses", models.ConditionCounter, 5, 0, 0},
		{"unknown condition type", "streaky", 5, 10, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := computeProgress(tc.condType, tc.current, tc.target); got != tc.want {
				t.Errorf("computeProgress = %f, want %f", got, tc.want)
			}
		})
	}
}

func TestMonotonicProgress(t *testing.T) {
	cases := []struct {
		name     string
		stored   float64
		computed float64
		want     float64
	}{
		{"advances forward", 30, 60, 60},
		{"never moves backward", 60, 30, 60},
		{"equal stays", 50, 50, 50},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := monotonicProgress(tc.stored, tc.computed); got != tc.want {
				t.Errorf("monotonicProgress(%f, %f) = %f, want %f", tc.stored, tc.computed, got, tc.want)
			}
		})
	}
}

func TestMetricValue(t *testing.T) {
	user := &models.GameUser{
		PrizesFound:   12,
		PointsTotal:   3400,
		Level:         5,
		CurrentStreak: 3,
	}

	cases := []struct {
		metric string
		want   int64
	}{
		{"prizes_found", 12},
		{"points_total", 3400},
		{"level", 5},
		{"current_streak", 3},
		{"unknown_metric", 0},
	}
	for _, tc := range cases {
		t.Run(tc.metric, func(t *testing.T) {
			if got := metricValue(user, tc.metric); got != tc.want {
				t.Errorf("metricValue(%q) = %d, want %d", tc.metric, got, tc.want)
			}
		})
	}
}
