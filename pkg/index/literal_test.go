package index

import (
	"testing"

	"github.com/sqlink-ai/sqlink-engine/pkg/models"
)

func profileWithValues(table, column string, values ...string) *models.ColumnProfile {
	p := &models.ColumnProfile{TableName: table, ColumnName: column, DataType: models.DataTypeText}
	for _, v := range values {
		p.TopValues = append(p.TopValues, models.ValueCount{Value: v, Count: 1})
	}
	return p
}

func TestQueryLiteralExactValue(t *testing.T) {
	ix := NewLiteralIndex(128, 0.5, nil)
	ix.Build([]*models.ColumnProfile{
		profileWithValues("schools", "city", "Fremont"),
		profileWithValues("schools", "name", "Foothill High", "Mission Peak Academy"),
	})

	got := ix.QueryLiteral("Fremont")
	if len(got) != 1 || got[0] != "schools.city" {
		t.Errorf("QueryLiteral(Fremont) = %v, want [schools.city]", got)
	}
}

func TestQueryLiteralSubstringBackstop(t *testing.T) {
	// Ten distinct values push the true Jaccard of any single literal far
	// below the threshold, so only the substring scan can find it.
	ix := NewLiteralIndex(128, 0.5, nil)
	ix.Build([]*models.ColumnProfile{
		profileWithValues("schools", "name",
			"Foothill High", "Mission Peak Academy", "Valley View", "Harbor Light",
			"Twin Oaks", "Cedar Grove", "Summit Prep", "Lakeside", "North Star", "Bayview"),
	})

	got := ix.QueryLiteral("mission peak")
	if len(got) != 1 || got[0] != "schools.name" {
		t.Errorf("QueryLiteral(mission peak) = %v, want [schools.name]", got)
	}
}

func TestQueryLiteralNoMatch(t *testing.T) {
	ix := NewLiteralIndex(128, 0.5, nil)
	ix.Build([]*models.ColumnProfile{
		profileWithValues("schools", "city", "Fremont", "Pleasanton"),
	})

	if got := ix.QueryLiteral("Sacramento"); len(got) != 0 {
		t.Errorf("QueryLiteral(Sacramento) = %v, want empty", got)
	}
}

func TestQueryLiteralEmpty(t *testing.T) {
	ix := NewLiteralIndex(128, 0.5, nil)
	ix.Build([]*models.ColumnProfile{
		profileWithValues("schools", "city", "Fremont"),
	})

	if got := ix.QueryLiteral(""); got != nil {
		t.Errorf("QueryLiteral(empty) = %v, want nil", got)
	}
}

func TestBuildSkipsColumnsWithoutSamples(t *testing.T) {
	ix := NewLiteralIndex(128, 0.5, nil)
	ix.Build([]*models.ColumnProfile{
		profileWithValues("schools", "city", "Fremont"),
		{TableName: "schools", ColumnName: "charter", DataType: models.DataTypeBoolean},
	})

	if ix.Len() != 1 {
		t.Errorf("Len() = %d, want 1", ix.Len())
	}
	if got := ix.QueryLiteral("charter"); len(got) != 0 {
		t.Errorf("unsampled column must never match, got %v", got)
	}
}

func TestQueryBeforeBuild(t *testing.T) {
	ix := NewLiteralIndex(128, 0.5, nil)

	if got := ix.QueryLiteral("anything"); got != nil {
		t.Errorf("QueryLiteral before Build = %v, want nil", got)
	}
}

func TestBuildUsesStoredSignature(t *testing.T) {
	p := profileWithValues("schools", "city", "Fremont")
	p.MinHashSignature = ComputeSignature(p.SampleValues(), 128)

	ix := NewLiteralIndex(128, 0.5, nil)
	ix.Build([]*models.ColumnProfile{p})

	got := ix.QueryLiteral("Fremont")
	if len(got) != 1 || got[0] != "schools.city" {
		t.Errorf("QueryLiteral with stored signature = %v, want [schools.city]", got)
	}
}

func TestQueryLiteralResultsSorted(t *testing.T) {
	ix := NewLiteralIndex(128, 0.5, nil)
	ix.Build([]*models.ColumnProfile{
		profileWithValues("teachers", "city", "Fremont"),
		profileWithValues("schools", "city", "Fremont"),
	})

	got := ix.QueryLiteral("Fremont")
	if len(got) != 2 || got[0] != "schools.city" || got[1] != "teachers.city" {
		t.Errorf("QueryLiteral results = %v, want sorted [schools.city teachers.city]", got)
	}
}
