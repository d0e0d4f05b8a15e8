package biz

import (
	"math"
	"strings"
	"testing"

	"jobquality/internal/pkg/match"
	"jobquality/internal/pkg/textnorm"
)

func newListing(raw string) *Listing {
	res := textnorm.Normalize(raw)
	return &Listing{
		ID:              1,
		DescriptionRaw:  raw,
		DescriptionNorm: res.Normalized,
		Tokens:          res.Tokens,
	}
}

func int64p(v int64) *int64 { return &v }
func boolp(v bool) *bool    { return &v }

func TestComputeScoreBaseline(t *testing.T) {
	l := newListing("Обычная вакансия менеджера")
	res := ComputeScore(l, match.NewDictionary(1, nil), nil, nil)
	if res.Score != 0.0 {
		t.Errorf("Score = %v; want 0.0", res.Score)
	}
	if len(res.Matched) != 0 || len(res.Reasons) != 0 {
		t.Errorf("Matched = %v, Reasons = %v; want empty", res.Matched, res.Reasons)
	}
}

func TestComputeScoreSalaryAndRemote(t *testing.T) {
	tests := []struct {
		name       string
		salaryFrom *int64
		salaryTo   *int64
		isRemote   *bool
		wantScore  float64
		wantReason int
	}{
		{name: "salary from only", salaryFrom: int64p(100000), wantScore: 1.0, wantReason: 1},
		{name: "salary to only", salaryTo: int64p(150000), wantScore: 1.0, wantReason: 1},
		{name: "remote only", isRemote: boolp(true), wantScore: 1.0, wantReason: 1},
		{name: "remote false", isRemote: boolp(false), wantScore: 0.0, wantReason: 0},
		{name: "salary and remote", salaryFrom: int64p(100000), isRemote: boolp(true), wantScore: 2.0, wantReason: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newListing("текст")
			l.SalaryFrom, l.SalaryTo, l.IsRemote = tt.salaryFrom, tt.salaryTo, tt.isRemote
			res := ComputeScore(l, nil, nil, nil)
			if res.Score != tt.wantScore {
				t.Errorf("Score = %v; want %v", res.Score, tt.wantScore)
			}
			if len(res.Reasons) != tt.wantReason {
				t.Errorf("Reasons = %v; want %d entries", res.Reasons, tt.wantReason)
			}
		})
	}
}

func TestComputeScoreActiveMatchScenarioA(t *testing.T) {
	dict := match.NewDictionary(1, []match.Token{
		{ID: 1, Phrase: "без опыта работы", Kind: match.KindPhrase, Weight: 1.5},
	})
	l := newListing("Ищем кандидата без опыта работы, зарплата не указана")

	res := ComputeScore(l, dict, nil, map[int64]struct{}{1: {}})
	if res.Score != -1.5 {
		t.Fatalf("Score = %v; want -1.5", res.Score)
	}
	if len(res.Matched) != 1 || !res.Matched[0].Active {
		t.Fatalf("Matched = %+v; want one active match", res.Matched)
	}
	found := false
	for _, r := range res.Reasons {
		if strings.Contains(r, "без опыта работы") && strings.Contains(r, "penalty") {
			found = true
		}
	}
	if !found {
		t.Errorf("Reasons = %v; want a penalty line for token 1", res.Reasons)
	}
}

func TestComputeScoreInactiveMatchScenarioB(t *testing.T) {
	dict := match.NewDictionary(1, []match.Token{
		{ID: 1, Phrase: "без опыта работы", Kind: match.KindPhrase, Weight: 1.5},
	})
	l := newListing("Ищем кандидата без опыта работы, зарплата не указана")

	res := ComputeScore(l, dict, nil, nil)
	if res.Score != 0.0 {
		t.Fatalf("Score = %v; want 0.0", res.Score)
	}
	if len(res.Matched) != 1 || res.Matched[0].TokenID != 1 || res.Matched[0].Active {
		t.Fatalf("Matched = %+v; want one inactive match for token 1", res.Matched)
	}
	if len(res.Reasons) != 0 {
		t.Errorf("Reasons = %v; want none", res.Reasons)
	}
}

func TestComputeScoreExactWeightDelta(t *testing.T) {
	for _, w := range []float64{0.5, 1.0, 2.3, -0.7} {
		dict := match.NewDictionary(1, []match.Token{
			{ID: 1, Phrase: "стрессоустойчивость", Kind: match.KindPhrase, Weight: w},
		})
		l := newListing("Требуется стрессоустойчивость")

		base := ComputeScore(l, dict, nil, nil)
		active := ComputeScore(l, dict, nil, map[int64]struct{}{1: {}})

		want := math.Round((base.Score-w)*10) / 10
		if active.Score != want {
			t.Errorf("weight %v: active score = %v; want %v", w, active.Score, want)
		}
	}
}

func TestComputeScoreNegativeWeightIsBonus(t *testing.T) {
	dict := match.NewDictionary(1, []match.Token{
		{ID: 2, Phrase: "белая зарплата", Kind: match.KindPhrase, Weight: -1.0},
	})
	l := newListing("Белая зарплата, оформление по ТК")

	res := ComputeScore(l, dict, nil, map[int64]struct{}{2: {}})
	if res.Score != 1.0 {
		t.Fatalf("Score = %v; want 1.0", res.Score)
	}
	if len(res.Reasons) != 1 || !strings.Contains(res.Reasons[0], "bonus") {
		t.Errorf("Reasons = %v; want a bonus line", res.Reasons)
	}
}

func TestComputeScoreCompanyPenalty(t *testing.T) {
	l := newListing("текст вакансии")
	l.Company = "ООО Рога и Копыта"

	prev := 0.0
	for _, hides := range []int64{1, 9, 99, 999, 1000000} {
		res := ComputeScore(l, nil, &CompanyStats{Company: l.Company, HidesCount: hides, UniqueUsers: 5}, nil)
		penalty := -res.Score
		if penalty < prev {
			t.Errorf("penalty decreased: hides=%d penalty=%v prev=%v", hides, penalty, prev)
		}
		if penalty > maxCompanyPenalty {
			t.Errorf("penalty %v exceeds cap %v at hides=%d", penalty, maxCompanyPenalty, hides)
		}
		prev = penalty
	}

	// the cap binds for large counters
	res := ComputeScore(l, nil, &CompanyStats{Company: l.Company, HidesCount: 1000000, UniqueUsers: 5}, nil)
	if res.Score != -2.0 {
		t.Errorf("Score = %v; want -2.0 (capped)", res.Score)
	}
}

func TestComputeScoreCompanyStatsWithoutUsersIgnored(t *testing.T) {
	l := newListing("текст вакансии")
	l.Company = "Фирма"
	res := ComputeScore(l, nil, &CompanyStats{Company: "Фирма", HidesCount: 50, UniqueUsers: 0}, nil)
	if res.Score != 0.0 || len(res.Reasons) != 0 {
		t.Errorf("Score = %v, Reasons = %v; want neutral", res.Score, res.Reasons)
	}
}

func TestComputeScoreRoundingHalfAwayFromZero(t *testing.T) {
	tests := []struct {
		weight float64
		want   float64
	}{
		// weight 0.25 -> raw score -0.25 -> -0.3 (half away from zero)
		{weight: 0.25, want: -0.3},
		{weight: -0.25, want: 0.3},
		{weight: 0.75, want: -0.8},
		{weight: 0.125, want: -0.1},
	}
	for _, tt := range tests {
		dict := match.NewDictionary(1, []match.Token{
			{ID: 1, Phrase: "опыта", Kind: match.KindPhrase, Weight: tt.weight},
		})
		l := newListing("без опыта")
		res := ComputeScore(l, dict, nil, map[int64]struct{}{1: {}})
		if res.Score != tt.want {
			t.Errorf("weight %v: Score = %v; want %v", tt.weight, res.Score, tt.want)
		}
	}
}

func TestComputeScoreNilListing(t *testing.T) {
	res := ComputeScore(nil, nil, nil, nil)
	if res.Score != 0.0 || len(res.Matched) != 0 {
		t.Errorf("got %+v; want zero result", res)
	}
}
