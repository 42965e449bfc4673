package repository

import (
	"strings"
	"testing"
)

func TestParseDialect(t *testing.T) {
	tests := []struct {
		input   string
		want    Dialect
		wantErr bool
	}{
		{"postgres", DialectPostgres, false},
		{"PostgreSQL", DialectPostgres, false},
		{" pg ", DialectPostgres, false},
		{"sqlite", DialectSQLite, false},
		{"mysql", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDialect(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDialect(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseDialect(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDialect_Rebind(t *testing.T) {
	query := "SELECT * FROM invites WHERE invitee_account_id = ? AND (? = '' OR status = ?)"

	if got := DialectSQLite.Rebind(query); got != query {
		t.Errorf("sqlite Rebind changed the query: %q", got)
	}

	want := "SELECT * FROM invites WHERE invitee_account_id = $1 AND ($2 = '' OR status = $3)"
	if got := DialectPostgres.Rebind(query); got != want {
		t.Errorf("postgres Rebind = %q, want %q", got, want)
	}
}

func TestDialect_ForUpdate(t *testing.T) {
	if got := DialectPostgres.forUpdate(); got != " FOR UPDATE" {
		t.Errorf("postgres forUpdate = %q", got)
	}
	if got := DialectSQLite.forUpdate(); got != "" {
		t.Errorf("sqlite forUpdate = %q, want empty", got)
	}
}

func TestConfig_DSN(t *testing.T) {
	pg := Config{Driver: DialectPostgres, Host: "db", Port: 5432, User: "teams", Password: "pw", DBName: "turnaplay"}
	want := "host=db port=5432 user=teams password=pw dbname=turnaplay sslmode=disable"
	if got := pg.DSN(); got != want {
		t.Errorf("postgres DSN = %q, want %q", got, want)
	}

	lite := Config{Driver: DialectSQLite, Path: "./data/teams.db"}
	got := lite.DSN()
	if !strings.HasPrefix(got, "file:data/teams.db?") {
		t.Errorf("sqlite DSN = %q, want file:data/teams.db prefix", got)
	}
	for _, part := range []string{"busy_timeout(5000)", "foreign_keys(1)", "_txlock=immediate"} {
		if !strings.Contains(got, part) {
			t.Errorf("sqlite DSN %q missing %q", got, part)
		}
	}
}

func TestExtractUpMigration(t *testing.T) {
	content := "-- +migrate Up\nCREATE TABLE a (id TEXT);\n-- +migrate Down\nDROP TABLE a;\n"
	got := extractUpMigration(content)
	if !strings.Contains(got, "CREATE TABLE a") || strings.Contains(got, "DROP TABLE") {
		t.Errorf("extractUpMigration() = %q", got)
	}

	plain := "CREATE TABLE b (id TEXT);"
	if got := extractUpMigration(plain); got != plain {
		t.Errorf("extractUpMigration(no markers) = %q, want input unchanged", got)
	}
}

func TestTeamNameKey(t *testing.T) {
	if got := teamNameKey("  Night Owls "); got != "night owls" {
		t.Errorf("teamNameKey() = %q, want %q", got, "night owls")
	}
}
