package extractor

import (
	"fmt"
	"testing"
)

func gp(category string, importance int) GoldenPoint {
	return GoldenPoint{
		Text:       fmt.Sprintf("%s-%d", category, importance),
		Category:   category,
		Importance: importance,
	}
}

func TestRank_CoverageBeforeFill(t *testing.T) {
	points := []GoldenPoint{
		gp("a", 2), gp("a", 5), gp("b", 1), gp("a", 4), gp("c", 2), gp("a", 3),
	}

	got := Rank(points, MaxGoldenPoints)
	want := []string{"a-5", "a-4", "a-3", "c-2", "b-1"}
	if len(got) != len(want) {
		t.Fatalf("expected %d points, got %d: %+v", len(want), len(got), got)
	}
	for i, w := range want {
		if got[i].Text != w {
			t.Errorf("position %d: expected %s, got %s", i, w, got[i].Text)
		}
	}
}

func TestRank_LimitAndCategoryCoverage(t *testing.T) {
	var points []GoldenPoint
	for i := 0; i < 6; i++ {
		points = append(points, gp("dominant", 5))
	}
	for i := 0; i < 12; i++ {
		points = append(points, gp(fmt.Sprintf("cat%02d", i), 3))
	}

	got := Rank(points, MaxGoldenPoints)
	if len(got) != MaxGoldenPoints {
		t.Fatalf("expected %d points, got %d", MaxGoldenPoints, len(got))
	}
	cats := map[string]int{}
	for _, p := range got {
		cats[p.Category]++
	}
	if cats["dominant"] != MaxPerCategory {
		t.Errorf("expected dominant category capped at %d, got %d", MaxPerCategory, cats["dominant"])
	}
	if len(cats) != 13 {
		t.Errorf("expected every category represented, got %d", len(cats))
	}
}

func TestRank_ManyCategoriesTruncated(t *testing.T) {
	var points []GoldenPoint
	for i := 0; i < 20; i++ {
		points = append(points, gp(fmt.Sprintf("cat%02d", i), 1+i%5))
	}
	got := Rank(points, MaxGoldenPoints)
	if len(got) != MaxGoldenPoints {
		t.Fatalf("expected %d points, got %d", MaxGoldenPoints, len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Importance > got[i-1].Importance {
			t.Fatalf("not sorted by importance at %d", i)
		}
	}
}

func TestRank_StableTies(t *testing.T) {
	points := []GoldenPoint{
		{Text: "first", Category: "x", Importance: 4},
		{Text: "second", Category: "y", Importance: 4},
		{Text: "third", Category: "x", Importance: 4},
	}
	got := Rank(points, MaxGoldenPoints)
	want := []string{"first", "second", "third"}
	for i, w := range want {
		if got[i].Text != w {
			t.Errorf("position %d: expected %s, got %s", i, w, got[i].Text)
		}
	}
}

func TestRank_Empty(t *testing.T) {
	if got := Rank(nil, MaxGoldenPoints); got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}
