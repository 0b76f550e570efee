package app

import (
	"testing"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want Command
	}{
		{"空はserve", []string{}, CommandServe},
		{"serve", []string{"serve"}, CommandServe},
		{"worker", []string{"worker"}, CommandWorker},
		{"migrate", []string{"migrate"}, CommandMigrate},
		{"create-admin", []string{"create-admin", "admin", "secret"}, CommandCreateAdmin},
		{"healthcheck", []string{"healthcheck"}, CommandHealthcheck},
		{"不明なコマンドはserve", []string{"unknown"}, CommandServe},
		{"余分な引数は無視", []string{"worker", "--flag", "value"}, CommandWorker},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseCommand(tt.args); got != tt.want {
				t.Errorf("ParseCommand(%v) = %q, want %q", tt.args, got, tt.want)
			}
		})
	}
}

func TestCommandString(t *testing.T) {
	tests := []struct {
		cmd  Command
		want string
	}{
		{CommandServe, "serve"},
		{CommandWorker, "worker"},
		{CommandMigrate, "migrate"},
		{CommandCreateAdmin, "create-admin"},
		{CommandHealthcheck, "healthcheck"},
	}

	for _, tt := range tests {
		if got := string(tt.cmd); got != tt.want {
			t.Errorf("Command(%q) string = %q, want %q", tt.cmd, got, tt.want)
		}
	}
}

func TestAdminCredentials(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantUser string
		wantPass string
	}{
		{"引数なしは環境変数", []string{"create-admin"}, "env-admin", "env-pass"},
		{"ユーザー名のみ指定", []string{"create-admin", "ayse"}, "ayse", "env-pass"},
		{"両方指定", []string{"create-admin", "ayse", "gizli-parola"}, "ayse", "gizli-parola"},
		{"空文字は環境変数", []string{"create-admin", "", ""}, "env-admin", "env-pass"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, pass := adminCredentials(tt.args, "env-admin", "env-pass")
			if user != tt.wantUser || pass != tt.wantPass {
				t.Errorf("adminCredentials(%v) = (%q, %q), want (%q, %q)",
					tt.args, user, pass, tt.wantUser, tt.wantPass)
			}
		})
	}
}

func TestMigrateAction(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"migrate"}, "up"},
		{[]string{"migrate", "down"}, "down"},
		{[]string{"migrate", "version"}, "version"},
	}

	for _, tt := range tests {
		if got := migrateAction(tt.args); got != tt.want {
			t.Errorf("migrateAction(%v) = %q, want %q", tt.args, got, tt.want)
		}
	}
}
