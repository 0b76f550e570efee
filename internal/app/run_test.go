package app

import (
	"bytes"
	"strings"
	"testing"
)

// DBに到達できない環境では各コマンドが接続エラーで即座に終了することを検証する。
func TestRun_CommandsFailWithoutDatabase(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"serve", []string{"serve"}},
		{"デフォルト", []string{}},
		{"worker", []string{"worker"}},
		{"create-admin", []string{"create-admin", "admin", "Guclu-Parola-123"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setTestEnv(t)

			var buf bytes.Buffer
			err := Run(&buf, tt.args)
			if err == nil {
				t.Fatal("expected database connection error")
			}
			if !strings.Contains(err.Error(), "database") {
				t.Errorf("error = %v, want database error", err)
			}
		})
	}
}

func TestRun_CreateAdminWithoutCredentials(t *testing.T) {
	setTestEnv(t)

	var buf bytes.Buffer
	err := Run(&buf, []string{"create-admin"})
	if err == nil {
		t.Fatal("expected error without credentials")
	}
	if !strings.Contains(err.Error(), "username and password") {
		t.Errorf("error = %v, want credentials error", err)
	}
}

func TestRun_MigrateFailsWithoutDatabase(t *testing.T) {
	setTestEnv(t)

	var buf bytes.Buffer
	if err := Run(&buf, []string{"migrate"}); err == nil {
		t.Fatal("expected migration error")
	}
}

func TestRun_MigrateUnknownAction(t *testing.T) {
	setTestEnv(t)

	var buf bytes.Buffer
	err := Run(&buf, []string{"migrate", "sideways"})
	if err == nil || !strings.Contains(err.Error(), "unknown migrate action") {
		t.Fatalf("error = %v, want unknown action error", err)
	}
}

func TestRun_WithMissingEnv_ReturnsError(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("BASE_URL", "")

	var buf bytes.Buffer
	err := Run(&buf, []string{"serve"})
	if err == nil {
		t.Fatal("Run with missing env should return error")
	}
	if !strings.Contains(err.Error(), "initialization failed") {
		t.Errorf("error = %v, want initialization error", err)
	}
}
