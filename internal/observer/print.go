package observer

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"navplug.szuro.net/internal/logger"
	"navplug.szuro.net/pkg/signalk"
)

const (
	STDOUT = "stdout"
	STDERR = "stderr"
)

// Print writes one JSON line per accepted delta or event.
type Print struct {
	baseObserver
	mu  sync.Mutex
	out io.Writer
}

func NewPrint(name, out string) (p *Print) {
	p = &Print{
		baseObserver: baseObserver{
			name:         name,
			observerType: "print",
		},
	}
	if out == STDERR {
		p.out = os.Stderr
	} else {
		p.out = os.Stdout
	}

	return
}

// NewPrintTo writes to an arbitrary writer.
func NewPrintTo(name string, out io.Writer) *Print {
	return &Print{
		baseObserver: baseObserver{name: name, observerType: "print"},
		out:          out,
	}
}

func (p *Print) SaveDelta(pluginID string, d signalk.Delta) bool {
	if !p.acceptDelta(d) {
		return false
	}
	msg, err := deltaMessage(pluginID, d)
	if err != nil {
		logger.Error("Failed to encode delta", slog.String("target", p.name), slog.Any("error", err))
		p.failed(DELTA)
		return false
	}
	return p.write(DELTA, msg)
}

func (p *Print) SaveEvent(e signalk.Event) bool {
	if !p.acceptEvent(e) {
		return false
	}
	msg, err := eventMessage(e)
	if err != nil {
		logger.Error("Failed to encode event", slog.String("target", p.name), slog.Any("error", err))
		p.failed(EVENT)
		return false
	}
	return p.write(EVENT, msg)
}

func (p *Print) write(export string, msg []byte) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := fmt.Fprintln(p.out, string(msg)); err != nil {
		p.failed(export)
		return false
	}
	p.shipped(export)
	return true
}
