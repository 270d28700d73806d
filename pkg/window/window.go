// Package window はエンジンを Ebitengine のゲームループで駆動し、表示されたフレームを描画する
package window

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"

	"github.com/zurustar/outerworld/pkg/engine"
	"github.com/zurustar/outerworld/pkg/graphics"
)

// TPS はエンジンの 1 ティックに対応する更新頻度 (50Hz)
const TPS = 50

var (
	// 一時停止中に画面へ重ねる半透明の黒
	overlayColor = color.RGBA{0x00, 0x00, 0x00, 0xA0}
	// テキスト色（白）
	textColor = color.White
	// デフォルトフォント
	defaultFace = text.NewGoXFace(basicfont.Face7x13)
)

// Ticker はゲームループから駆動されるエンジン
// *engine.Engine が実装する
type Ticker interface {
	Tick(ctx context.Context) error
	Paused() bool
	Displayed() bool
	FrameDelay() time.Duration
}

// Sampler はティックの有無に関係なく Ebitengine の更新ごとに入力を読む
// *input.Keyboard が実装する
type Sampler interface {
	Update()
}

// Game はEbitengineのゲームインターフェースとエンジンの表示シンクを実装する
type Game struct {
	ticker    Ticker
	sampler   Sampler
	ctx       context.Context
	timeout   time.Duration // タイムアウト時間
	startTime time.Time     // 開始時刻
	nextTick  time.Time     // 表示中のフレームが切り替わってよい時刻
	scale     int
	title     string

	// Present と Draw の間で共有する RGBA 画素
	pixels []byte
	dirty  bool
	image  *ebiten.Image

	err error
	log *slog.Logger
	mu  sync.Mutex
}

// Option は Game の設定を行う関数
type Option func(*Game)

// WithTimeout は指定時間でゲームループを終了させる（0 は無制限）
func WithTimeout(d time.Duration) Option {
	return func(g *Game) {
		g.timeout = d
	}
}

// WithScale はウィンドウの拡大率を設定する
func WithScale(scale int) Option {
	return func(g *Game) {
		if scale > 0 {
			g.scale = scale
		}
	}
}

// WithTitle はウィンドウタイトルを設定する
func WithTitle(title string) Option {
	return func(g *Game) {
		g.title = title
	}
}

// WithLogger はロガーを設定する
func WithLogger(log *slog.Logger) Option {
	return func(g *Game) {
		g.log = log
	}
}

// WithSampler は毎更新で読む入力を設定する
func WithSampler(s Sampler) Option {
	return func(g *Game) {
		g.sampler = s
	}
}

// WithContext はティックに渡すコンテキストを設定する
func WithContext(ctx context.Context) Option {
	return func(g *Game) {
		g.ctx = ctx
	}
}

// NewGame Gameを作成
// エンジンは表示シンクとして Game を必要とするため、SetTicker で後から渡す
func NewGame(opts ...Option) *Game {
	g := &Game{
		ctx:       context.Background(),
		startTime: time.Now(),
		scale:     3,
		title:     "outerworld",
		pixels:    make([]byte, graphics.PageSize*4),
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// SetTicker は駆動するエンジンを設定する
func (g *Game) SetTicker(t Ticker) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ticker = t
}

// Present はエンジンから渡されたフレームを RGBA に展開して保持する
func (g *Game) Present(frame *graphics.Frame) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	frame.RGBA(g.pixels)
	g.dirty = true
	return nil
}

// Err はゲームループを止めたエラーを返す（正常終了なら nil）
func (g *Game) Err() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.err
}

// Update ゲームロジックの更新（Ebitengineが毎フレーム呼び出す）
func (g *Game) Update() error {
	// タイムアウトチェック
	if g.timeout > 0 && time.Since(g.startTime) >= g.timeout {
		g.log.Info("Timeout reached, terminating", "timeout", g.timeout)
		return ebiten.Termination
	}

	// 押されたキーはティックを待つ間も取りこぼさないようにラッチする
	if g.sampler != nil {
		g.sampler.Update()
	}

	g.mu.Lock()
	ticker := g.ticker
	g.mu.Unlock()
	if ticker == nil {
		return nil
	}

	// 表示中のフレームの待ち時間が残っている間はティックしない
	now := time.Now()
	if now.Before(g.nextTick) {
		return nil
	}

	if err := ticker.Tick(g.ctx); err != nil {
		if errors.Is(err, engine.ErrTerminated) || g.ctx.Err() != nil {
			return ebiten.Termination
		}
		g.mu.Lock()
		g.err = err
		g.mu.Unlock()
		return ebiten.Termination
	}
	if ticker.Displayed() {
		g.nextTick = now.Add(ticker.FrameDelay())
	}
	return nil
}

// Draw 画面描画（Ebitengineが毎フレーム呼び出す）
func (g *Game) Draw(screen *ebiten.Image) {
	if g.image == nil {
		g.image = ebiten.NewImage(graphics.Width, graphics.Height)
	}
	g.mu.Lock()
	if g.dirty {
		g.image.WritePixels(g.pixels)
		g.dirty = false
	}
	ticker := g.ticker
	g.mu.Unlock()

	screen.DrawImage(g.image, nil)

	if ticker != nil && ticker.Paused() {
		g.drawPause(screen)
	}
}

// drawPause 一時停止表示の描画
func (g *Game) drawPause(screen *ebiten.Image) {
	vector.DrawFilledRect(screen, 0, 0, graphics.Width, graphics.Height, overlayColor, false)

	op := &text.DrawOptions{}
	op.GeoM.Translate(graphics.Width/2, graphics.Height/2)
	op.ColorScale.ScaleWithColor(textColor)
	op.PrimaryAlign = text.AlignCenter
	op.SecondaryAlign = text.AlignCenter
	text.Draw(screen, "PAUSED", defaultFace, op)
}

// Layout 画面サイズを返す
// 論理解像度は 320x200 固定で、ウィンドウへの拡大は Ebitengine に任せる
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return graphics.Width, graphics.Height
}

// Run GUIモードでウィンドウを実行
func Run(g *Game) error {
	ebiten.SetWindowSize(graphics.Width*g.scale, graphics.Height*g.scale)
	ebiten.SetWindowTitle(g.title)
	// アスペクト比を維持したままリサイズを許可する
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(TPS)

	if err := ebiten.RunGame(g); err != nil {
		return fmt.Errorf("failed to run game: %w", err)
	}
	return g.Err()
}
