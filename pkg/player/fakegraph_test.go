package player

import "github.com/aldertree/strataplay/pkg/audiograph"

// fakeFactory/fakeClient stand in for a real audio-graph backend
// (portaudiograph/jackgraph) in tests: Activate never starts a real
// hardware callback thread, it just records the process callback so the
// test can invoke it directly to simulate process periods.
type fakeFactory struct {
	sampleRate int
	clients    []*fakeClient
}

func (f *fakeFactory) RegisterClient(name string) (audiograph.Client, error) {
	c := &fakeClient{name: name, sampleRate: f.sampleRate}
	f.clients = append(f.clients, c)
	return c, nil
}

type fakeOutputStream struct{ name string }

func (s *fakeOutputStream) Name() string { return s.name }

type fakeMidiStream struct{ name string }

func (s *fakeMidiStream) Name() string { return s.name }

type fakeClient struct {
	name       string
	sampleRate int

	processCB    audiograph.ProcessCallback
	sampleRateCB audiograph.SampleRateCallback

	activated bool
}

func (c *fakeClient) RegisterOutputStream(name string) (audiograph.OutputStream, error) {
	return &fakeOutputStream{name}, nil
}

func (c *fakeClient) RegisterMidiInputStream(name string) (audiograph.MidiInputStream, error) {
	return &fakeMidiStream{name}, nil
}

func (c *fakeClient) SetProcessCallback(fn audiograph.ProcessCallback)       { c.processCB = fn }
func (c *fakeClient) SetSampleRateCallback(fn audiograph.SampleRateCallback) { c.sampleRateCB = fn }

func (c *fakeClient) Activate() error {
	c.activated = true
	return nil
}

func (c *fakeClient) Close() error {
	c.activated = false
	return nil
}

func (c *fakeClient) SampleRate() int { return c.sampleRate }
