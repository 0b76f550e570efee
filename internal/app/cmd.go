package app

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandServe はAPIサーバーモードで起動することを示す。
	CommandServe Command = "serve"
	// CommandWorker はワーカーモードで起動することを示す。
	CommandWorker Command = "worker"
	// CommandMigrate はデータベースマイグレーションを実行することを示す。
	CommandMigrate Command = "migrate"
	// CommandCreateAdmin はスタッフ権限の管理者アカウントを作成することを示す。
	CommandCreateAdmin Command = "create-admin"
	// CommandHealthcheck はヘルスチェックを実行することを示す。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
)

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// 引数が空またはサポート外のコマンドの場合はCommandServeを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}

	switch args[0] {
	case "worker":
		return CommandWorker
	case "serve":
		return CommandServe
	case "migrate":
		return CommandMigrate
	case "create-admin":
		return CommandCreateAdmin
	case "healthcheck":
		return CommandHealthcheck
	default:
		return CommandServe
	}
}

// adminCredentials はcreate-adminの引数から管理者の認証情報を取り出す。
// 引数が省略された場合はfallbackUser・fallbackPassを使う。
func adminCredentials(args []string, fallbackUser, fallbackPass string) (string, string) {
	username, password := fallbackUser, fallbackPass
	if len(args) > 1 && args[1] != "" {
		username = args[1]
	}
	if len(args) > 2 && args[2] != "" {
		password = args[2]
	}
	return username, password
}

// migrateAction はmigrateサブコマンドの動作を返す。省略時は"up"。
func migrateAction(args []string) string {
	if len(args) > 1 && args[1] != "" {
		return args[1]
	}
	return "up"
}
