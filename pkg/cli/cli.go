package cli

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/zurustar/outerworld/pkg/resource"
)

// Config はコマンドライン引数から解析された設定を保持する
type Config struct {
	DataDir    string        // ゲームデータ（memlist.bin と bank ファイル）のディレクトリ
	Part       resource.Part // 開始パート（16000..16009）
	Pos        int           // パート内の開始位置（-1 は指定なし）
	Language   string        // 文字列テーブルの言語（en, fr）
	Fast       bool          // フレーム待ちを行わない
	EGA        bool          // EGA パレットを使用
	Headless   bool          // ヘッドレスモード
	Frames     int           // ヘッドレスで実行するティック数（0は無制限）
	DumpFrames string        // 表示されたフレームを BMP で書き出すディレクトリ
	Timeout    time.Duration // タイムアウト時間（0は無制限）
	LogLevel   string        // ログレベル（debug, info, warn, error）
	Scale      int           // ウィンドウの拡大率
	Disasm     bool          // 開始パートのバイトコードを逆アセンブルして終了
	ShowHelp   bool          // ヘルプ表示フラグ
}

// 値を取らないフラグ（reorderArgs で次の引数を値として扱わない）
var boolFlags = map[string]bool{
	"-h": true, "--help": true, "-help": true,
	"--headless": true, "-headless": true,
	"--fast": true, "-fast": true,
	"--ega": true, "-ega": true,
	"--disasm": true, "-disasm": true,
}

// ParseArgs コマンドライン引数を解析してConfigを返す
func ParseArgs(args []string) (*Config, error) {
	// 引数を並べ替え：フラグを前に、位置引数を後ろに
	reorderedArgs := reorderArgs(args)

	fs := flag.NewFlagSet("outerworld", flag.ContinueOnError)

	config := &Config{}

	var (
		timeoutSec int
		part       int
	)
	fs.StringVar(&config.DataDir, "data", "", "ゲームデータのディレクトリ")
	fs.StringVar(&config.DataDir, "d", "", "ゲームデータのディレクトリ（短縮形）")
	fs.IntVar(&part, "part", int(resource.PartIntro), "開始パート（16000..16009、または 0..9）")
	fs.IntVar(&part, "p", int(resource.PartIntro), "開始パート（短縮形）")
	fs.IntVar(&config.Pos, "pos", -1, "パート内の開始位置")
	fs.StringVar(&config.Language, "lang", "en", "言語（en, fr）")
	fs.BoolVar(&config.Fast, "fast", false, "フレーム待ちを行わない")
	fs.BoolVar(&config.EGA, "ega", false, "EGA パレットを使用")
	fs.BoolVar(&config.Headless, "headless", false, "ヘッドレスモード")
	fs.IntVar(&config.Frames, "frames", 0, "ヘッドレスで実行するティック数")
	fs.StringVar(&config.DumpFrames, "dump-frames", "", "フレームを BMP で書き出すディレクトリ")
	fs.IntVar(&timeoutSec, "timeout", 0, "タイムアウト時間（秒）")
	fs.IntVar(&timeoutSec, "t", 0, "タイムアウト時間（秒）（短縮形）")
	fs.StringVar(&config.LogLevel, "log-level", "info", "ログレベル（debug, info, warn, error）")
	fs.StringVar(&config.LogLevel, "l", "info", "ログレベル（短縮形）")
	fs.IntVar(&config.Scale, "scale", 3, "ウィンドウの拡大率（1..8）")
	fs.BoolVar(&config.Disasm, "disasm", false, "バイトコードを逆アセンブルして終了")
	fs.BoolVar(&config.ShowHelp, "help", false, "ヘルプを表示")
	fs.BoolVar(&config.ShowHelp, "h", false, "ヘルプを表示（短縮形）")

	if err := fs.Parse(reorderedArgs); err != nil {
		return nil, err
	}

	// 位置引数（データディレクトリ）。--data が優先
	if config.DataDir == "" && fs.NArg() > 0 {
		config.DataDir = fs.Arg(0)
	}

	// 環境変数からの設定（コマンドラインフラグが優先）
	if config.DataDir == "" {
		config.DataDir = os.Getenv("OUTERWORLD_DATA")
	}
	if config.DataDir == "" {
		config.DataDir = "."
	}

	if !config.Headless {
		if headlessEnv := os.Getenv("HEADLESS"); headlessEnv != "" {
			config.Headless = headlessEnv == "1" || strings.ToLower(headlessEnv) == "true"
		}
	}

	// 環境変数からタイムアウトを取得（コマンドラインフラグが優先）
	if timeoutSec == 0 {
		if timeoutEnv := os.Getenv("TIMEOUT"); timeoutEnv != "" {
			if t, err := strconv.Atoi(timeoutEnv); err == nil && t > 0 {
				timeoutSec = t
			}
		}
	}

	// 環境変数からログレベルを取得（コマンドラインフラグが優先）
	if config.LogLevel == "info" {
		if logLevelEnv := os.Getenv("LOG_LEVEL"); logLevelEnv != "" {
			config.LogLevel = strings.ToLower(logLevelEnv)
		}
	}

	// タイムアウトの検証
	if timeoutSec < 0 {
		return nil, fmt.Errorf("timeout must be non-negative, got %d", timeoutSec)
	}
	config.Timeout = time.Duration(timeoutSec) * time.Second

	// ログレベルの検証
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[config.LogLevel] {
		return nil, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", config.LogLevel)
	}

	// パートの検証（0..9 は 16000 からの番号として扱う）
	if part >= 0 && part <= int(resource.LastPart-resource.FirstPart) {
		part += int(resource.FirstPart)
	}
	config.Part = resource.Part(part)
	if part < 0 || part > int(resource.LastPart) || !config.Part.Valid() {
		return nil, fmt.Errorf("invalid part: %d (must be %d..%d)", part, resource.FirstPart, resource.LastPart)
	}

	if config.Pos < -1 {
		return nil, fmt.Errorf("pos must be -1 or non-negative, got %d", config.Pos)
	}
	if config.Frames < 0 {
		return nil, fmt.Errorf("frames must be non-negative, got %d", config.Frames)
	}
	if config.Scale < 1 || config.Scale > 8 {
		return nil, fmt.Errorf("scale must be between 1 and 8, got %d", config.Scale)
	}

	config.Language = strings.ToLower(config.Language)
	if config.Language != "en" && config.Language != "fr" {
		return nil, fmt.Errorf("invalid language: %s (must be en or fr)", config.Language)
	}

	return config, nil
}

// reorderArgs 引数を並べ替えて、フラグを前に、位置引数を後ろに配置する
func reorderArgs(args []string) []string {
	var flags []string
	var positional []string

	for i := 0; i < len(args); i++ {
		arg := args[i]

		// フラグかどうかを判定（-または--で始まる）
		if len(arg) > 0 && arg[0] == '-' {
			flags = append(flags, arg)

			// --name=value の形式は次の引数を消費しない
			if strings.Contains(arg, "=") || boolFlags[arg] {
				continue
			}
			// 次の引数が値である可能性をチェック
			// （-t 5 のような場合）
			if i+1 < len(args) && len(args[i+1]) > 0 && args[i+1][0] != '-' {
				i++
				flags = append(flags, args[i])
			}
		} else {
			// 位置引数
			positional = append(positional, arg)
		}
	}

	// フラグを前に、位置引数を後ろに配置
	return append(flags, positional...)
}

// PrintHelp ヘルプメッセージを表示
func PrintHelp() {
	fmt.Fprintf(os.Stdout, `outerworld - cinematic platformer runtime

Usage:
  outerworld [options] [data-dir]

Arguments:
  data-dir      memlist.bin と bankXX ファイルのあるディレクトリ（省略時はカレント）

Options:
  -d, --data <dir>            ゲームデータのディレクトリ
  -p, --part <part>           開始パート: 16000..16009 または 0..9（デフォルト: 16001）
  --pos <n>                   パート内の開始位置（デフォルト: 指定なし）
  --lang <lang>               言語: en, fr（デフォルト: en）
  --fast                      フレーム待ちを行わない
  --ega                       EGA パレットを使用
  --headless                  ヘッドレスモード（GUIなし）
  --frames <n>                ヘッドレスで実行するティック数（デフォルト: 無制限）
  --dump-frames <dir>         表示されたフレームを BMP で書き出す（ヘッドレスのみ）
  --scale <n>                 ウィンドウの拡大率: 1..8（デフォルト: 3）
  --disasm                    開始パートのバイトコードを逆アセンブルして終了
  -t, --timeout <seconds>     指定秒数後にプログラムを終了（デフォルト: 無制限）
  -l, --log-level <level>     ログレベル: debug, info, warn, error（デフォルト: info）
  -h, --help                  このヘルプを表示

Keys:
  矢印キー                    移動
  Space / Enter               アクション
  P                           一時停止
  C                           パスワード画面へ
  Esc                         終了

Environment Variables:
  OUTERWORLD_DATA=<dir>       ゲームデータのディレクトリ
  HEADLESS=1                  ヘッドレスモードを有効化
  TIMEOUT=<seconds>           タイムアウト時間（秒）
  LOG_LEVEL=<level>           ログレベル

Examples:
  outerworld /path/to/data                 データディレクトリを指定
  outerworld -p 2 --pos 1 /path/to/data    パート 16002 から開始
  outerworld --headless --fast --frames 500 --dump-frames out /path/to/data
  outerworld --disasm -p 16000 /path/to/data
  HEADLESS=1 TIMEOUT=10 outerworld         環境変数でヘッドレスモード
`)
}
