//go:build jack

// Package jackgraph is the alternate audiograph.Client backend, used when
// built with -tags jack. Unlike portaudiograph, JACK gives each client real
// named output ports and a real MIDI input port fed by the audio graph
// itself, grounded on the JACK client pattern in the retrieval pack
// (xthexder/go-jack: ClientOpen/PortRegister/SetProcessCallback/Activate).
package jackgraph

import (
	"fmt"

	"github.com/xthexder/go-jack"

	"github.com/aldertree/strataplay/pkg/audiograph"
)

// Factory opens one JACK client per RegisterClient call.
type Factory struct{}

// NewFactory builds a JACK-backed audiograph.Factory.
func NewFactory() *Factory { return &Factory{} }

func (f *Factory) RegisterClient(clientName string) (audiograph.Client, error) {
	jc, err := jack.ClientOpen(clientName, jack.NoStartServer)
	if err != nil {
		return nil, fmt.Errorf("jackgraph: open client %q: %w", clientName, err)
	}
	return &client{name: clientName, jc: jc}, nil
}

type outputStream struct {
	name string
	port *jack.Port
}

func (s *outputStream) Name() string { return s.name }

type midiInputStream struct {
	name string
	port *jack.Port
}

func (s *midiInputStream) Name() string { return s.name }

type client struct {
	name string
	jc   *jack.Client

	outA, outB *outputStream
	midiIn     *midiInputStream

	processCB    audiograph.ProcessCallback
	sampleRateCB audiograph.SampleRateCallback

	scratchA, scratchB []float32
	scratchMidi        []audiograph.MidiEvent
}

func (c *client) RegisterOutputStream(name string) (audiograph.OutputStream, error) {
	port, err := c.jc.PortRegister(name, jack.DEFAULT_AUDIO_TYPE, jack.PortIsOutput, 0)
	if err != nil {
		return nil, fmt.Errorf("jackgraph: register output port %q: %w", name, err)
	}
	s := &outputStream{name: name, port: port}
	if c.outA == nil {
		c.outA = s
	} else {
		c.outB = s
	}
	return s, nil
}

func (c *client) RegisterMidiInputStream(name string) (audiograph.MidiInputStream, error) {
	port, err := c.jc.PortRegister(name, jack.DEFAULT_MIDI_TYPE, jack.PortIsInput, 0)
	if err != nil {
		return nil, fmt.Errorf("jackgraph: register midi port %q: %w", name, err)
	}
	c.midiIn = &midiInputStream{name: name, port: port}
	return c.midiIn, nil
}

func (c *client) SetProcessCallback(fn audiograph.ProcessCallback) { c.processCB = fn }
func (c *client) SetSampleRateCallback(fn audiograph.SampleRateCallback) {
	c.sampleRateCB = fn
	c.jc.SetSampleRateCallback(func(rate uint32) int {
		fn(int(rate))
		return 0
	})
}

func (c *client) SampleRate() int { return int(c.jc.GetSampleRate()) }

func (c *client) Activate() error {
	if c.outA == nil || c.outB == nil || c.midiIn == nil {
		return fmt.Errorf("jackgraph: client %q missing required streams", c.name)
	}
	c.scratchA = make([]float32, c.jc.GetBufferSize())
	c.scratchB = make([]float32, c.jc.GetBufferSize())
	c.scratchMidi = make([]audiograph.MidiEvent, 0, 64)

	c.jc.SetProcessCallback(c.process)
	if err := c.jc.Activate(); err != nil {
		return fmt.Errorf("jackgraph: activate client %q: %w", c.name, err)
	}
	return nil
}

func (c *client) Close() error {
	if c.jc == nil {
		return nil
	}
	c.jc.Deactivate()
	err := c.jc.Close()
	c.jc = nil
	return err
}

// process runs on JACK's realtime thread: no allocation beyond the
// preallocated scratch slices above, matching spec.md §4.4/§5.
func (c *client) process(nframes uint32) int {
	bufA := jack.GetAudioSamples(c.outA.port.GetBuffer(nframes), nframes)
	bufB := jack.GetAudioSamples(c.outB.port.GetBuffer(nframes), nframes)

	n := int(nframes)
	if n > len(c.scratchA) {
		n = len(c.scratchA)
	}

	c.scratchMidi = c.scratchMidi[:0]
	midiBuf := c.midiIn.port.GetBuffer(nframes)
	count := jack.MidiGetEventCount(midiBuf)
	for i := uint32(0); i < count; i++ {
		ev, err := jack.MidiEventGet(midiBuf, i)
		if err != nil {
			continue
		}
		c.scratchMidi = append(c.scratchMidi, audiograph.MidiEvent{
			Timestamp: ev.Time,
			Data:      ev.Buffer,
		})
	}

	if c.processCB != nil {
		c.processCB(n, c.scratchA[:n], c.scratchB[:n], c.scratchMidi)
	}

	for i := 0; i < n; i++ {
		bufA[i] = c.scratchA[i]
		bufB[i] = c.scratchB[i]
	}
	for i := n; i < int(nframes); i++ {
		bufA[i] = 0
		bufB[i] = 0
	}

	return 0
}
