package audio

import "sync"

// Recorder is a Sink that stores every command it receives.
// It tracks which channels are sounding so tests can inspect state.
type Recorder struct {
	mu       sync.Mutex
	commands []Command
	active   [Channels]bool
	music    *PlayMusic
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) PlaySound(cmd PlaySound) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, cmd)
	if cmd.Channel >= 0 && cmd.Channel < Channels {
		r.active[cmd.Channel] = true
	}
}

func (r *Recorder) StopSound(channel int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, StopSound{Channel: channel})
	if channel >= 0 && channel < Channels {
		r.active[channel] = false
	}
}

func (r *Recorder) PlayMusic(cmd PlayMusic) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, cmd)
	if cmd.ID != 0 {
		r.music = &cmd
	} else if r.music != nil {
		r.music.Tempo = cmd.Tempo
	}
}

func (r *Recorder) StopAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, StopAll{})
	r.active = [Channels]bool{}
	r.music = nil
}

// Commands returns a copy of the recorded commands.
func (r *Recorder) Commands() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Command(nil), r.commands...)
}

// Active reports whether a channel is sounding.
func (r *Recorder) Active(channel int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return channel >= 0 && channel < Channels && r.active[channel]
}

// Music returns the current music module, if any.
func (r *Recorder) Music() (PlayMusic, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.music == nil {
		return PlayMusic{}, false
	}
	return *r.music, true
}

// Reset drops the recorded commands and state.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = nil
	r.active = [Channels]bool{}
	r.music = nil
}
