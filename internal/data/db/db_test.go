package db

import "testing"

func TestOptionsDSN(t *testing.T) {
	pg := Options{
		PostgresHost:     "db",
		PostgresPort:     "5433",
		PostgresUser:     "calc",
		PostgresPassword: "pw",
		PostgresName:     "concepts",
	}
	if got, want := pg.DSN(), "postgres://calc:pw@db:5433/concepts?sslmode=disable"; got != want {
		t.Fatalf("postgres DSN: want=%q got=%q", want, got)
	}
	lite := Options{Driver: "SQLite", SQLitePath: "file:test.db"}
	if got := lite.DSN(); got != "file:test.db" {
		t.Fatalf("sqlite DSN: want=file:test.db got=%q", got)
	}
}

func TestNewServiceRejectsUnknownDriver(t *testing.T) {
	_, err := NewService(nopLogger(t), Options{Driver: "oracle"})
	if err == nil {
		t.Fatalf("NewService: expected error for unsupported driver")
	}
}

func TestSQLiteServiceMigrates(t *testing.T) {
	svc, err := NewService(nopLogger(t), Options{Driver: DriverSQLite, SQLitePath: "file:migrate_test?mode=memory&cache=shared"})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })
	if err := svc.AutoMigrateAll(); err != nil {
		t.Fatalf("AutoMigrateAll: %v", err)
	}
	for _, table := range []string{"derived_concept", "derived_concept_dependency", "derived_concept_job"} {
		if !svc.DB().Migrator().HasTable(table) {
			t.Fatalf("missing table %s", table)
		}
	}
}
