//go:build unix

package fifo

import (
	"fmt"
	"os"

	"github.com/gofrs/flock"
	"golang.org/x/sys/unix"
)

var (
	ErrRegionBusy = fmt.Errorf("fifo err: shared region is held by another producer")
)

// SharedFile is a file-backed shared region for a ring's bytes.
//
// The single-producer discipline is enforced with an advisory lock: a
// second producer trying to attach gets ErrRegionBusy. Another process
// may map the file read-only and run snapshot recovery over Bytes();
// the backward trim handles a region captured at an arbitrary instant.
type SharedFile struct {
	file *os.File
	lock *flock.Flock
	mem  []byte
}

// CreateSharedFile creates or opens path, sizes it for a ring of the
// requested capacity and maps it into memory.
func CreateSharedFile(path string, capacity int) (*SharedFile, error) {
	lock := flock.New(path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrRegionBusy
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}

	total := SharedSize(capacity)
	if err = file.Truncate(int64(total)); err != nil {
		_ = file.Close()
		_ = lock.Unlock()
		return nil, err
	}

	mem, err := unix.Mmap(int(file.Fd()), 0, total, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = file.Close()
		_ = lock.Unlock()
		return nil, err
	}

	return &SharedFile{file: file, lock: lock, mem: mem}, nil
}

// Bytes returns the ring backing bytes, past the shared header.
func (s *SharedFile) Bytes() []byte {
	return s.mem[SharedHeaderSize:]
}

// Ring attaches a ring to the shared bytes.
func (s *SharedFile) Ring() *Ring {
	return Attach(s.Bytes())
}

func (s *SharedFile) Close() error {
	err := unix.Munmap(s.mem)
	s.mem = nil
	if cerr := s.file.Close(); err == nil {
		err = cerr
	}
	if uerr := s.lock.Unlock(); err == nil {
		err = uerr
	}
	return err
}
