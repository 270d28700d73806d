package audio

import (
	"log/slog"
	"sync"

	"github.com/hajimehoshi/ebiten/v2/audio"
)

// MusicPlayer plays music modules on behalf of a Mixer.
type MusicPlayer interface {
	Play(cmd PlayMusic)
	Stop()
}

// Mixer is a Sink that plays sound effects through Ebitengine/audio.
// Each of the Channels channels owns at most one player; starting a sound
// on a busy channel replaces the old one. Ebitengine mixes the players.
type Mixer struct {
	ctx     *audio.Context
	players [Channels]*audio.Player
	streams [Channels]*sampleStream
	volumes [Channels]int
	music   MusicPlayer
	current *PlayMusic
	muted   bool
	log     *slog.Logger

	mu sync.Mutex
}

// MixerOption configures a Mixer.
type MixerOption func(*Mixer)

// WithLogger sets the logger used for playback failures.
func WithLogger(log *slog.Logger) MixerOption {
	return func(m *Mixer) {
		m.log = log
	}
}

// WithMusicPlayer forwards music commands to p.
func WithMusicPlayer(p MusicPlayer) MixerOption {
	return func(m *Mixer) {
		m.music = p
	}
}

// WithMuted starts the mixer muted.
func WithMuted(muted bool) MixerOption {
	return func(m *Mixer) {
		m.muted = muted
	}
}

// NewMixer creates a Mixer on ctx. A nil ctx uses the process-wide
// Ebitengine context, creating it at SampleRate when none exists yet.
func NewMixer(ctx *audio.Context, opts ...MixerOption) *Mixer {
	if ctx == nil {
		ctx = audio.CurrentContext()
	}
	if ctx == nil {
		ctx = audio.NewContext(SampleRate)
	}
	m := &Mixer{ctx: ctx, log: slog.Default()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// PlaySound starts cmd's sample. Malformed samples are logged and dropped.
func (m *Mixer) PlaySound(cmd PlaySound) {
	if cmd.Channel < 0 || cmd.Channel >= Channels {
		m.log.Warn("Sound channel out of range", "channel", cmd.Channel)
		return
	}
	sample, err := ParseSound(cmd.Data)
	if err != nil {
		m.log.Warn("Failed to decode sound", "id", cmd.ID, "error", err)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopLocked(cmd.Channel)
	stream := newSampleStream(sample, cmd.Frequency)
	player, err := m.ctx.NewPlayer(stream)
	if err != nil {
		m.log.Warn("Failed to create sound player", "id", cmd.ID, "error", err)
		return
	}
	m.volumes[cmd.Channel] = cmd.Volume
	player.SetVolume(m.volume(cmd.Volume))
	player.Play()
	m.players[cmd.Channel] = player
	m.streams[cmd.Channel] = stream
}

// StopSound stops one channel.
func (m *Mixer) StopSound(channel int) {
	if channel < 0 || channel >= Channels {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked(channel)
}

// PlayMusic forwards cmd to the music player, if one is configured.
func (m *Mixer) PlayMusic(cmd PlayMusic) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case cmd.ID != 0:
		m.current = &cmd
	case m.current != nil:
		m.current.Tempo = cmd.Tempo
	}
	if m.music == nil {
		m.log.Debug("No music player configured", "id", cmd.ID, "tempo", cmd.Tempo, "position", cmd.Position)
		return
	}
	m.music.Play(cmd)
}

// StopAll stops every channel and the music.
func (m *Mixer) StopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for ch := range m.players {
		m.stopLocked(ch)
	}
	m.current = nil
	if m.music != nil {
		m.music.Stop()
	}
}

// SetMuted mutes or unmutes every channel.
func (m *Mixer) SetMuted(muted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.muted = muted
	for ch, p := range m.players {
		if p != nil {
			p.SetVolume(m.volume(m.volumes[ch]))
		}
	}
}

// Playing reports whether a channel has an active player.
func (m *Mixer) Playing(channel int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return channel >= 0 && channel < Channels && m.players[channel] != nil
}

// stopLocked must be called with m.mu held.
func (m *Mixer) stopLocked(channel int) {
	if s := m.streams[channel]; s != nil {
		s.stop()
		m.streams[channel] = nil
	}
	if p := m.players[channel]; p != nil {
		if err := p.Close(); err != nil {
			m.log.Debug("Failed to close sound player", "channel", channel, "error", err)
		}
		m.players[channel] = nil
	}
}

func (m *Mixer) volume(v int) float64 {
	if m.muted {
		return 0
	}
	return float64(min(v, MaxVolume)) / MaxVolume
}
