// Package audio provides the audio sink driven by the virtual machine.
// The VM issues fire-and-forget commands; a Sink must never block the
// interpreter. Recorder keeps commands for tests and headless runs, Mixer
// plays sound samples through Ebitengine/audio.
package audio

import "fmt"

// SampleRate is the output sample rate shared by every player.
const SampleRate = 44100

// Channels is the number of sound effect channels.
const Channels = 4

// MaxVolume is the loudest channel volume accepted by PlaySound.
const MaxVolume = 0x3F

// Command is one entry of the sink's command stream.
type Command interface {
	fmt.Stringer
	command()
}

// PlaySound starts a sample on a channel, replacing whatever played there.
type PlaySound struct {
	// ID is the resource id of the sample.
	ID uint16
	// Data is the raw sound resource; see ParseSound.
	Data []byte
	// Frequency is the playback rate in Hz.
	Frequency int
	// Volume ranges 1..MaxVolume.
	Volume int
	// Channel ranges 0..Channels-1.
	Channel int
}

// StopSound silences one channel.
type StopSound struct {
	Channel int
}

// PlayMusic starts a music module at an order position. Tempo 0 keeps the
// module's own tempo. An ID of 0 changes only the tempo of the current module.
type PlayMusic struct {
	ID       uint16
	Tempo    uint16
	Position uint8
	// Data is the raw music module; nil for a tempo change.
	Data []byte
}

// StopAll silences every channel and the music.
type StopAll struct{}

func (PlaySound) command() {}
func (StopSound) command() {}
func (PlayMusic) command() {}
func (StopAll) command()   {}

func (c PlaySound) String() string {
	return fmt.Sprintf("PlaySound{id=0x%02X freq=%d vol=%d ch=%d}", c.ID, c.Frequency, c.Volume, c.Channel)
}

func (c StopSound) String() string { return fmt.Sprintf("StopSound{ch=%d}", c.Channel) }

func (c PlayMusic) String() string {
	return fmt.Sprintf("PlayMusic{id=0x%02X tempo=%d pos=%d}", c.ID, c.Tempo, c.Position)
}

func (StopAll) String() string { return "StopAll" }

// Sink receives audio commands from the VM.
// Implementations must return promptly; playback happens elsewhere.
type Sink interface {
	PlaySound(cmd PlaySound)
	StopSound(channel int)
	PlayMusic(cmd PlayMusic)
	StopAll()
}

// Nop is a Sink that ignores every command.
type Nop struct{}

func (Nop) PlaySound(PlaySound) {}
func (Nop) StopSound(int)       {}
func (Nop) PlayMusic(PlayMusic) {}
func (Nop) StopAll()            {}
