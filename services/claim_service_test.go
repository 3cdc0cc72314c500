package services

import (
	"testing"
	"time"

	"prize-hunt-system/models"
)

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func TestComputeAward(t *testing.T) {
	rewardID := strPtr("reward-1")

	cases := []struct {
		name           string
		prize          models.Prize
		roll           float64
		wantPoints     int64
		wantRedemption bool
	}{
		{
			name:       "points prize pays amount times multiplier",
			prize:      models.Prize{ContentType: models.PrizeContentPoints, PointsAmount: 100, BonusMultiplier: 1.5},
			roll:       0.99,
			wantPoints: 150,
		},
		{
			name:       "fractional result is floored",
			prize:      models.Prize{ContentType: models.PrizeContentPoints, PointsAmount: 101, BonusMultiplier: 1.5},
			roll:       0,
			wantPoints: 151,
		},
		{
			name:       "zero multiplier defaults to 1",
			prize:      models.Prize{ContentType: models.PrizeContentPoints, PointsAmount: 80},
			roll:       0,
			wantPoints: 80,
		},
		{
			name:           "reward prize always redeems, no points",
			prize:          models.Prize{ContentType: models.PrizeContentReward, PointsAmount: 500, RewardID: rewardID},
			roll:           0.99,
			wantPoints:     0,
			wantRedemption: true,
		},
		{
			name:  "reward prize without a linked reward pays nothing",
			prize: models.Prize{ContentType: models.PrizeContentReward, PointsAmount: 500},
			roll:  0,
		},
		{
			name:           "hybrid winning roll pays points and redeems",
			prize:          models.Prize{ContentType: models.PrizeContentHybrid, PointsAmount: 50, BonusMultiplier: 2, RewardID: rewardID, Probability: 0.3},
			roll:           0.29,
			wantPoints:     100,
			wantRedemption: true,
		},
		{
			name:       "hybrid losing roll still pays the guaranteed points",
			prize:      models.Prize{ContentType: models.PrizeContentHybrid, PointsAmount: 50, BonusMultiplier: 2, RewardID: rewardID, Probability: 0.3},
			roll:       0.3,
			wantPoints: 100,
		},
		{
			name:           "hybrid probability 1 always redeems",
			prize:          models.Prize{ContentType: models.PrizeContentHybrid, PointsAmount: 10, RewardID: rewardID, Probability: 1},
			roll:           0.999999,
			wantPoints:     10,
			wantRedemption: true,
		},
		{
			name:       "hybrid probability 0 never redeems",
			prize:      models.Prize{ContentType: models.PrizeContentHybrid, PointsAmount: 10, RewardID: rewardID, Probability: 0},
			roll:       0,
			wantPoints: 10,
		},
		{
			name:  "unknown content type pays nothing",
			prize: models.Prize{ContentType: "mystery", PointsAmount: 100},
			roll:  0,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			points, redeem := computeAward(&tc.prize, tc.roll)
			if points != tc.wantPoints {
				t.Errorf("points = %d, want %d", points, tc.wantPoints)
			}
			if redeem != tc.wantRedemption {
				t.Errorf("wantRedemption = %v, want %v", redeem, tc.wantRedemption)
			}
		})
	}
}

func TestCooldownRemaining(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cooldown := 5 * time.Minute

	t.Run("no previous claim means no cooldown", func(t *testing.T) {
		if r := cooldownRemaining(nil, now, cooldown); r > 0 {
			t.Errorf("expected no cooldown, got %v", r)
		}
	})

	t.Run("recent claim leaves the remainder", func(t *testing.T) {
		last := now.Add(-2 * time.Minute)
		if r := cooldownRemaining(&last, now, cooldown); r != 3*time.Minute {
			t.Errorf("expected 3m remaining, got %v", r)
		}
	})

	t.Run("elapsed cooldown yields zero or negative", func(t *testing.T) {
		last := now.Add(-5 * time.Minute)
		if r := cooldownRemaining(&last, now, cooldown); r > 0 {
			t.Errorf("expected expired cooldown, got %v", r)
		}
	})
}

func TestEffectiveDailyCount(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name  string
		last  *time.Time
		count int
		want  int
	}{
		{"no previous claim", nil, 7, 0},
		{"same UTC day keeps the count", timePtr(now.Add(-3 * time.Hour)), 7, 7},
		{"previous UTC day resets", timePtr(now.Add(-13 * time.Hour)), 7, 0},
		{"week-old claim resets", timePtr(now.AddDate(0, 0, -7)), 7, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := effectiveDailyCount(tc.last, tc.count, now); got != tc.want {
				t.Errorf("effectiveDailyCount = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestNextStreak(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name   string
		last   *time.Time
		streak int
		want   int
	}{
		{"first ever claim starts at 1", nil, 0, 1},
		{"claim earlier today keeps the streak", timePtr(now.Add(-2 * time.Hour)), 4, 4},
		{"claim yesterday extends the streak", timePtr(now.AddDate(0, 0, -1)), 4, 5},
		{"claim two days ago restarts", timePtr(now.AddDate(0, 0, -2)), 4, 1},
		{"zero stored streak restarts", timePtr(now.Add(-2 * time.Hour)), 0, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := nextStreak(tc.last, tc.streak, now); got != tc.want {
				t.Errorf("nextStreak = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestLevelForPoints(t *testing.T) {
	t.Run("zero points is level 1", func(t *testing.T) {
		if l := levelForPoints(0); l != 1 {
			t.Errorf("expected level 1, got %d", l)
		}
	})

	t.Run("first threshold crosses to level 2", func(t *testing.T) {
		need := pointsForNextLevel(1)
		if l := levelForPoints(need - 1); l != 1 {
			t.Errorf("expected level 1 just under threshold, got %d", l)
		}
		if l := levelForPoints(need); l != 2 {
			t.Errorf("expected level 2 at threshold, got %d", l)
		}
	})

	t.Run("monotone in points", func(t *testing.T) {
		prev := 0
		for points := int64(0); points <= 2_000_000; points += 50_000 {
			l := levelForPoints(points)
			if l < prev {
				t.Fatalf("level decreased: %d points → level %d (was %d)", points, l, prev)
			}
			prev = l
		}
	})

	t.Run("capped at 200", func(t *testing.T) {
		if l := levelForPoints(1 << 50); l != 200 {
			t.Errorf("expected cap at 200, got %d", l)
		}
	})
}

func TestLevelName(t *testing.T) {
	cases := []struct {
		level int
		want  string
	}{
		{1, "Rookie"},
		{2, "Rookie"},
		{3, "Bronze"},
		{8, "Silver"},
		{15, "Gold"},
		{25, "Platinum"},
		{50, "Diamond"},
		{100, "Legend"},
		{200, "Legend"},
	}
	for _, tc := range cases {
		if got := LevelName(tc.level); got != tc.want {
			t.Errorf("LevelName(%d) = %q, want %q", tc.level, got, tc.want)
		}
	}
}
