package logging

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
)

const asyncQueueSize = 1024

// AsyncFile provides non-blocking file writing capabilities.
// Writes never wait on disk; when the queue is full the line is dropped and counted.
type AsyncFile struct {
	file    *os.File
	queue   chan []byte
	wg      sync.WaitGroup
	mu      sync.Mutex
	stopped bool
	dropped atomic.Uint64
}

// NewAsyncFile creates the file at path, truncating any previous content.
func NewAsyncFile(path string) (*AsyncFile, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file %s: %w", path, err)
	}

	af := &AsyncFile{
		file:  file,
		queue: make(chan []byte, asyncQueueSize),
	}

	af.wg.Add(1)
	go af.processQueue()

	return af, nil
}

// Write queues data to be written asynchronously.
func (af *AsyncFile) Write(data []byte) error {
	af.mu.Lock()
	defer af.mu.Unlock()

	if af.stopped {
		return fmt.Errorf("async file is closed")
	}

	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)

	select {
	case af.queue <- dataCopy:
	default:
		af.dropped.Add(1)
	}
	return nil
}

// Dropped returns the number of writes discarded because the queue was full.
func (af *AsyncFile) Dropped() uint64 {
	return af.dropped.Load()
}

func (af *AsyncFile) processQueue() {
	defer af.wg.Done()

	for data := range af.queue {
		if _, err := af.file.Write(data); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing to file: %v\n", err)
		}
	}
}

// Close drains pending writes and closes the file. The trailer, if any, is
// written after every queued write.
func (af *AsyncFile) Close(trailer []byte) error {
	af.mu.Lock()
	if af.stopped {
		af.mu.Unlock()
		return nil
	}
	af.stopped = true
	close(af.queue)
	af.mu.Unlock()

	af.wg.Wait()
	if len(trailer) > 0 {
		if _, err := af.file.Write(trailer); err != nil {
			_ = af.file.Close()
			return fmt.Errorf("failed to write trailer: %w", err)
		}
	}
	return af.file.Close()
}
