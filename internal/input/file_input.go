package input

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/nxadm/tail"
	"navplug.szuro.net/internal/config"
	"navplug.szuro.net/internal/logger"
)

// FileInput follows NMEA 0183 logs and publishes every line as an
// nmea0183 event.
type FileInput struct {
	baseInput
	conf        config.InputConf
	activeTails []*tail.Tail
	wg          sync.WaitGroup
}

func NewFileInput(conf config.InputConf, publisher Publisher) *FileInput {
	return &FileInput{
		baseInput: baseInput{publisher: publisher},
		conf:      conf,
	}
}

func (fi *FileInput) tailConfig() tail.Config {
	tc := tail.Config{
		Follow: true,
		ReOpen: true,
		Poll:   fi.conf.Poll,
		Logger: logger.Default(),
	}
	if !fi.conf.FromStart {
		tc.Location = &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd}
	}
	return tc
}

func (fi *FileInput) Start(ctx context.Context) error {
	for _, file := range fi.conf.Files {
		t, err := tail.TailFile(file, fi.tailConfig())
		if err != nil {
			fi.Stop()
			return fmt.Errorf("cannot follow %s: %w", file, err)
		}
		logger.Info("Following NMEA 0183 log", slog.String("file", file))
		fi.activeTails = append(fi.activeTails, t)
		fi.wg.Add(1)
		go fi.follow(ctx, t)
	}
	return nil
}

func (fi *FileInput) follow(ctx context.Context, t *tail.Tail) {
	defer fi.wg.Done()
	for line := range t.Lines {
		if line.Err != nil {
			logger.Error("Error reading NMEA 0183 log", slog.String("file", t.Filename), slog.Any("error", line.Err))
			continue
		}
		text := strings.TrimSpace(line.Text)
		if text == "" {
			continue
		}
		sentencesRead.WithLabelValues(t.Filename).Inc()
		if err := fi.publishSentence(ctx, text, line.Time.UnixMilli()); err != nil {
			logger.Debug("Stopped publishing", slog.String("file", t.Filename), slog.Any("error", err))
			return
		}
	}
}

// Stop ends every follower and waits for them to finish.
func (fi *FileInput) Stop() error {
	for _, t := range fi.activeTails {
		if err := t.Stop(); err != nil {
			logger.Error("cannot stop following file", slog.String("file", t.Filename), slog.Any("error", err))
		}
		t.Cleanup()
	}
	done := make(chan struct{})
	go func() {
		fi.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		logger.Warn("File followers did not stop in time")
	}
	fi.activeTails = nil
	return nil
}
