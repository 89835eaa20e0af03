package querybuilder

import (
	"testing"
	"time"
)

func TestSelectBuilder(t *testing.T) {
	lo := time.Date(2026, 7, 5, 3, 0, 0, 0, time.UTC)
	hi := lo.Add(12 * time.Hour)

	query, args, err := Select("id", "home_team").
		From("matches").
		Where(Eq("sport_id", int64(1)), Eq("home_team", "India"), Between("start_time", lo, hi)).
		OrderBy("start_time").
		Limit(10).
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT id, home_team FROM matches WHERE sport_id = $1 AND home_team = $2 AND start_time BETWEEN $3 AND $4 ORDER BY start_time LIMIT 10"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 4 || args[1] != "India" || args[2] != lo || args[3] != hi {
		t.Fatalf("unexpected args: %+v", args)
	}

	if _, _, err := Select().From("matches").ToSQL(); err == nil {
		t.Fatalf("expected error for select without columns")
	}
	if _, _, err := Select("id").ToSQL(); err == nil {
		t.Fatalf("expected error for select without table")
	}
}

func TestUpdateBuilder(t *testing.T) {
	query, args, err := Update("matches").
		Set("external_match_id", "99812").
		SetExpr("updated_at", "NOW()").
		Where(Eq("id", int64(4))).
		ToSQL()
	if err != nil {
		t.Fatalf("build update query: %v", err)
	}

	wantQuery := "UPDATE matches SET external_match_id = $1, updated_at = NOW() WHERE id = $2"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[0] != "99812" || args[1] != int64(4) {
		t.Fatalf("unexpected args: %+v", args)
	}

	if _, _, err := Update("matches").Set("status", "live").ToSQL(); err == nil {
		t.Fatalf("expected error for update without where")
	}
}

func TestUpdateBuilder_ExprAndReturning(t *testing.T) {
	query, args, err := Update("matches").
		Set("status", "halftime").
		SetExpr("metadata", "metadata || ?::jsonb", `{"venue":"Anfield"}`).
		SetExpr("start_time", "COALESCE(?::timestamptz, start_time)", nil).
		Where(Eq("id", int64(9))).
		Returning("id", "status").
		ToSQL()
	if err != nil {
		t.Fatalf("build update query: %v", err)
	}

	wantQuery := "UPDATE matches SET status = $1, metadata = metadata || $2::jsonb, start_time = COALESCE($3::timestamptz, start_time) WHERE id = $4 RETURNING id, status"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 4 || args[2] != nil || args[3] != int64(9) {
		t.Fatalf("unexpected args: %+v", args)
	}
}

type fixtureRow struct {
	ID         int64  `db:"id,readonly"`
	SportID    int64  `db:"sport_id"`
	ExternalID string `db:"external_id"`
	Name       string `db:"name"`
	internal   string
}

func TestInsertModels_WithOnConflict(t *testing.T) {
	rows := []fixtureRow{
		{SportID: 2, ExternalID: "9237", Name: "Indian Premier League 2026"},
		{SportID: 2, ExternalID: "9240", Name: "England tour of India", internal: "x"},
	}
	suffix := OnConflict([]string{"external_id"}, []string{"name"}, "id", "(xmax = 0) AS inserted")

	query, args, err := InsertModels("fixtures", rows, suffix)
	if err != nil {
		t.Fatalf("build insert: %v", err)
	}

	wantQuery := "INSERT INTO fixtures (sport_id, external_id, name) VALUES ($1, $2, $3), ($4, $5, $6) " +
		"ON CONFLICT (external_id) DO UPDATE SET name = EXCLUDED.name, updated_at = NOW() RETURNING id, (xmax = 0) AS inserted"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 6 || args[4] != "9240" {
		t.Fatalf("unexpected args: %+v", args)
	}

	if _, _, err := InsertModels[fixtureRow]("fixtures", nil, ""); err == nil {
		t.Fatalf("expected error for empty models")
	}
}

func TestOnConflict_DoNothing(t *testing.T) {
	if got := OnConflict([]string{"match_id"}, nil); got != "ON CONFLICT (match_id) DO NOTHING" {
		t.Fatalf("unexpected suffix: %s", got)
	}
}
