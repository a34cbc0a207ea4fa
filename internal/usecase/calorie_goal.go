package usecase

import (
	"math"
	"strings"
	"time"

	"github.com/harudiet/backend/internal/domain"
)

// DefaultCalorieGoal is used when a member's profile is too incomplete to compute one
const DefaultCalorieGoal = 2000

// activityMultipliers maps activity levels to their TDEE multiplier
var activityMultipliers = map[string]float64{
	"SEDENTARY":   1.2,
	"LIGHT":       1.375,
	"LOW":         1.375,
	"MODERATE":    1.55,
	"MEDIUM":      1.55,
	"ACTIVE":      1.725,
	"HIGH":        1.725,
	"VERY_ACTIVE": 1.9,
}

var maleGenders = map[string]bool{"MALE": true, "M": true, "남": true, "남성": true, "남자": true}
var femaleGenders = map[string]bool{"FEMALE": true, "F": true, "여": true, "여성": true, "여자": true}

// Candidate fields of the member payload
var (
	memberIDFields     = []string{"memberId", "id"}
	memberTargetFields = []string{"targetCalories", "targetKcal"}
	memberBirthFields  = []string{"birthAt", "birthDate", "birth"}
)

// NormalizeMember resolves a raw member payload into a MemberProfile
func NormalizeMember(raw domain.RawMember, loc *time.Location) domain.MemberProfile {
	profile := domain.MemberProfile{
		ID:             ResolveString(raw, "", memberIDFields...),
		Nickname:       ResolveString(raw, "", "nickname", "name"),
		Gender:         ResolveString(raw, "", "gender"),
		Height:         nonNegative(ResolveNumber(raw, 0, "height")),
		Weight:         nonNegative(ResolveNumber(raw, 0, "weight")),
		ActivityLevel:  ResolveString(raw, "", "activityLevel"),
		TargetCalories: nonNegative(ResolveNumber(raw, 0, memberTargetFields...)),
	}
	if birth, ok := ResolveTime(raw, loc, memberBirthFields...); ok {
		profile.BirthAt = birth
	}
	return profile
}

// CalorieGoal returns the member's daily calorie goal. An explicit target wins;
// otherwise TDEE is derived via Mifflin-St Jeor. fallback is returned when neither works.
func CalorieGoal(p *domain.MemberProfile, now time.Time, fallback int) int {
	if p == nil {
		return fallback
	}
	if p.TargetCalories > 0 {
		return int(math.Round(p.TargetCalories))
	}
	if tdee, ok := computeTDEE(p, now); ok {
		return tdee
	}
	return fallback
}

func computeTDEE(p *domain.MemberProfile, now time.Time) (int, bool) {
	if p.BirthAt.IsZero() || p.Height <= 0 || p.Weight <= 0 {
		return 0, false
	}

	age := now.Year() - p.BirthAt.Year()
	if now.Before(p.BirthAt.AddDate(age, 0, 0)) {
		age--
	}
	if age < 0 || age > 130 {
		return 0, false
	}

	bmr := 10*p.Weight + 6.25*p.Height - 5*float64(age)
	gender := strings.ToUpper(canonicalText(p.Gender))
	switch {
	case maleGenders[gender]:
		bmr += 5
	case femaleGenders[gender]:
		bmr -= 161
	default:
		return 0, false
	}

	mult, ok := activityMultipliers[strings.ToUpper(canonicalText(p.ActivityLevel))]
	if !ok {
		return 0, false
	}

	return int(math.Round(bmr * mult)), true
}
