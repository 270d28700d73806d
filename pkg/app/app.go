package app

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/zurustar/outerworld/pkg/audio"
	"github.com/zurustar/outerworld/pkg/cli"
	"github.com/zurustar/outerworld/pkg/engine"
	"github.com/zurustar/outerworld/pkg/fileutil"
	"github.com/zurustar/outerworld/pkg/input"
	"github.com/zurustar/outerworld/pkg/logger"
	"github.com/zurustar/outerworld/pkg/opcode"
	"github.com/zurustar/outerworld/pkg/resource"
	"github.com/zurustar/outerworld/pkg/window"
)

// Application はアプリケーションのメインロジックを管理する
type Application struct {
	config *cli.Config
	log    *slog.Logger
	dataFS fs.FS     // nil の場合はディスク上の DataDir を読む
	out    io.Writer // 逆アセンブル結果の出力先
	store  *resource.Store
}

// New Applicationを作成
// dataFS が nil でなければ、ゲームデータをディスクではなく dataFS から読む
func New(dataFS fs.FS) *Application {
	return &Application{
		dataFS: dataFS,
		out:    os.Stdout,
	}
}

// SetOutput 逆アセンブル結果の出力先を設定
func (app *Application) SetOutput(w io.Writer) {
	app.out = w
}

// Run アプリケーションを実行
func (app *Application) Run(args []string) error {
	// 1. コマンドライン引数の解析
	if err := app.parseArgs(args); err != nil {
		return fmt.Errorf("failed to parse args: %w", err)
	}

	if app.config.ShowHelp {
		cli.PrintHelp()
		return nil
	}

	// 2. ロガーの初期化
	if err := app.initLogger(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.log.Info("Application started", "data", app.config.DataDir, "part", app.config.Part, "headless", app.config.Headless)

	// 3. リソースインデックスの読み込み
	if err := app.openStore(); err != nil {
		return fmt.Errorf("failed to open game data: %w", err)
	}

	// 4. 逆アセンブルのみ
	if app.config.Disasm {
		return app.disassemble()
	}

	// 5. ゲームの実行
	var err error
	if app.config.Headless {
		err = app.runHeadless()
	} else {
		err = app.runWindow()
	}
	if err != nil {
		return fmt.Errorf("failed to run game: %w", err)
	}

	app.log.Info("Application terminated normally")
	return nil
}

// parseArgs コマンドライン引数を解析
func (app *Application) parseArgs(args []string) error {
	config, err := cli.ParseArgs(args)
	if err != nil {
		return err
	}
	app.config = config
	return nil
}

// initLogger ロガーを初期化
func (app *Application) initLogger() error {
	if err := logger.InitLogger(app.config.LogLevel); err != nil {
		return err
	}
	app.log = logger.GetLogger()
	return nil
}

// openStore データディレクトリを開いてリソースインデックスを読む
func (app *Application) openStore() error {
	var fsys fileutil.FileSystem
	if app.dataFS != nil {
		fsys = fileutil.NewEmbedFS(app.dataFS, "")
	} else {
		fsys = fileutil.NewRealFS(app.config.DataDir)
	}

	store, err := resource.Open(fsys, resource.WithLogger(logger.Component("resource")))
	if err != nil {
		return err
	}
	app.store = store
	app.log.Info("Resource index loaded", "entries", len(store.Descriptors()))
	return nil
}

// disassemble 開始パートのバイトコードを逆アセンブルして出力
func (app *Application) disassemble() error {
	seg, err := app.store.EnterPart(app.config.Part)
	if err != nil {
		return fmt.Errorf("failed to load part %d: %w", app.config.Part, err)
	}
	fmt.Fprintf(app.out, "; part %d, %d bytes\n", app.config.Part, len(seg.Bytecode))
	for _, line := range opcode.Disassemble(seg.Bytecode) {
		fmt.Fprintln(app.out, line)
	}
	return nil
}

// engineConfig CLI の設定からエンジンの設定を作る
func (app *Application) engineConfig() engine.Config {
	return engine.Config{
		DataDir:    app.config.DataDir,
		StartPart:  app.config.Part,
		Language:   app.config.Language,
		Fast:       app.config.Fast,
		EGAPalette: app.config.EGA,
		StartPos:   app.config.Pos,
	}
}

// runContext タイムアウトが指定されていればその時間で終了するコンテキストを返す
func (app *Application) runContext() (context.Context, context.CancelFunc) {
	if app.config.Timeout > 0 {
		return context.WithTimeout(context.Background(), app.config.Timeout)
	}
	return context.WithCancel(context.Background())
}

// runHeadless ウィンドウを開かずにエンジンを実行する
func (app *Application) runHeadless() error {
	app.log.Info("Headless mode: running without window", "frames", app.config.Frames, "timeout", app.config.Timeout)

	opts := []engine.Option{
		engine.WithLogger(logger.Component("engine")),
		engine.WithAudio(audio.Nop{}),
	}
	var dumper *frameDumper
	if app.config.DumpFrames != "" {
		var err error
		if dumper, err = newFrameDumper(app.config.DumpFrames); err != nil {
			return err
		}
		opts = append(opts, engine.WithPresenter(dumper))
	}

	eng := engine.New(app.engineConfig(), app.store, opts...)
	if err := eng.Start(); err != nil {
		return err
	}

	ctx, cancel := app.runContext()
	defer cancel()
	if err := eng.Run(ctx, app.config.Frames); err != nil {
		return err
	}

	attrs := []any{"ticks", eng.TickCount(), "frames", eng.FrameCount(), "part", eng.Machine().Part()}
	if dumper != nil {
		attrs = append(attrs, "written", dumper.Count(), "dir", app.config.DumpFrames)
	}
	app.log.Info("Headless run finished", attrs...)
	return nil
}

// runWindow GUIモードでエンジンを実行する
func (app *Application) runWindow() error {
	app.log.Info("Starting window", "scale", app.config.Scale)

	ctx, cancel := app.runContext()
	defer cancel()

	keyboard := input.NewKeyboard()
	game := window.NewGame(
		window.WithTimeout(app.config.Timeout),
		window.WithScale(app.config.Scale),
		window.WithLogger(logger.Component("window")),
		window.WithContext(ctx),
		window.WithSampler(keyboard),
	)
	mixer := audio.NewMixer(nil, audio.WithLogger(logger.Component("audio")))

	eng := engine.New(app.engineConfig(), app.store,
		engine.WithLogger(logger.Component("engine")),
		engine.WithAudio(mixer),
		engine.WithInput(keyboard),
		engine.WithPresenter(game),
	)
	if err := eng.Start(); err != nil {
		return err
	}
	game.SetTicker(eng)

	defer mixer.StopAll()
	return window.Run(game)
}
