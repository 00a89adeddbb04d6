package app

// Command は起動時に選択する動作モード。
type Command string

const (
	// CommandServe はフィードAPIサーバーを起動する。引数省略時の既定。
	CommandServe Command = "serve"
	// CommandMigrate はスキーママイグレーションを適用して終了する。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck は稼働中サーバーの/healthを叩いて終了する。
	// シェルのないコンテナイメージでのHEALTHCHECK命令から使う。
	CommandHealthcheck Command = "healthcheck"
)

// ParseCommand は先頭引数をコマンドとして解釈する。
// 未知の引数は起動失敗にせずserveへ倒す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}

	switch args[0] {
	case "serve":
		return CommandServe
	case "migrate":
		return CommandMigrate
	case "healthcheck":
		return CommandHealthcheck
	default:
		return CommandServe
	}
}
