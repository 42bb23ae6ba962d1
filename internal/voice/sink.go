package voice

import (
	"bytes"
	"context"
	"encoding/binary"
	"sync"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
	"layeh.com/gopus"
)

const (
	sampleRate = 48000
	channels   = 2
	// opus frame size at 48kHz, 20ms per packet
	frameSize = 960
)

// Sink accumulates decoded per-speaker PCM between transcription
// cycles. One consumer goroutine per session reads the voice
// connection's packet channel; the periodic cycle drains buffers.
type Sink struct {
	logger *zap.SugaredLogger

	mu       sync.Mutex
	users    map[uint32]uint64 // SSRC → user snowflake
	decoders map[uint32]*gopus.Decoder
	buffers  map[uint32]*bytes.Buffer
}

func NewSink(logger *zap.SugaredLogger) *Sink {
	return &Sink{
		logger:   logger,
		users:    make(map[uint32]uint64),
		decoders: make(map[uint32]*gopus.Decoder),
		buffers:  make(map[uint32]*bytes.Buffer),
	}
}

// MapSSRC binds a packet source to a user, from speaking updates.
func (s *Sink) MapSSRC(ssrc uint32, userID uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[ssrc] = userID
}

// Consume decodes incoming opus packets until the channel closes or the
// context is cancelled. Runs as the session's dedicated capture task.
func (s *Sink) Consume(ctx context.Context, packets <-chan *discordgo.Packet) {
	for {
		select {
		case <-ctx.Done():
			return
		case p, ok := <-packets:
			if !ok {
				return
			}
			s.write(p)
		}
	}
}

func (s *Sink) write(p *discordgo.Packet) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dec, ok := s.decoders[p.SSRC]
	if !ok {
		var err error
		if dec, err = gopus.NewDecoder(sampleRate, channels); err != nil {
			s.logger.Errorf("Couldn't create opus decoder for SSRC %d: %s.", p.SSRC, err)
			return
		}
		s.decoders[p.SSRC] = dec
	}

	pcm, err := dec.Decode(p.Opus, frameSize, false)
	if err != nil {
		// one bad packet, drop it
		return
	}
	s.appendPCM(p.SSRC, pcm)
}

func (s *Sink) appendPCM(ssrc uint32, pcm []int16) {
	buf, ok := s.buffers[ssrc]
	if !ok {
		buf = &bytes.Buffer{}
		s.buffers[ssrc] = buf
	}
	binary.Write(buf, binary.LittleEndian, pcm)
}

// SpeakerAudio is one speaker's PCM accumulated since the last drain.
type SpeakerAudio struct {
	UserID uint64 // zero when the SSRC was never mapped
	PCM    []byte
}

// Drain returns audio for every speaker that produced packets since the
// last cycle and resets their buffers.
func (s *Sink) Drain() []SpeakerAudio {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []SpeakerAudio
	for ssrc, buf := range s.buffers {
		if buf.Len() == 0 {
			continue
		}
		pcm := make([]byte, buf.Len())
		copy(pcm, buf.Bytes())
		buf.Reset()
		out = append(out, SpeakerAudio{UserID: s.users[ssrc], PCM: pcm})
	}
	return out
}
