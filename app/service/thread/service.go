package thread

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/samber/do"
)

var threadsDir = filepath.Join("data", "threads")

// Service is the checkpoint store: one JSON document per conversation
// thread, rewritten atomically after every turn. Turns on the same thread
// are serialized by a per-thread lock, distinct threads do not contend.
type Service struct {
	dir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(_ *do.Injector) (*Service, error) {
	if err := os.MkdirAll(threadsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create threads dir: %w", err)
	}

	return &Service{
		dir:   threadsDir,
		locks: make(map[string]*sync.Mutex),
	}, nil
}

// NewAt is the constructor used by tests, stores threads under dir.
func NewAt(dir string) (*Service, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create threads dir: %w", err)
	}

	return &Service{
		dir:   dir,
		locks: make(map[string]*sync.Mutex),
	}, nil
}

// WithConversation runs fn against the thread's state under its lock and
// persists the result. The update is all-or-nothing: when fn fails, nothing
// is written and other readers never observe a partial turn.
func (s *Service) WithConversation(threadID string, fn func(c *Conversation) error) error {
	lock := s.threadLock(threadID)
	lock.Lock()
	defer lock.Unlock()

	conv, err := s.load(threadID)
	if err != nil {
		return err
	}

	if err = fn(conv); err != nil {
		return err
	}

	conv.UpdatedAt = time.Now()
	return s.save(conv)
}

// Peek returns a copy of the thread's state without locking it for a turn.
func (s *Service) Peek(threadID string) (*Conversation, error) {
	lock := s.threadLock(threadID)
	lock.Lock()
	defer lock.Unlock()

	return s.load(threadID)
}

func (s *Service) threadLock(threadID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[threadID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[threadID] = lock
	}
	return lock
}

func (s *Service) load(threadID string) (*Conversation, error) {
	data, err := os.ReadFile(s.path(threadID))
	if os.IsNotExist(err) {
		return &Conversation{ThreadID: threadID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read thread file: %w", err)
	}

	var conv Conversation
	if err = json.Unmarshal(data, &conv); err != nil {
		return nil, fmt.Errorf("failed to parse thread file: %w", err)
	}
	conv.ThreadID = threadID

	return &conv, nil
}

func (s *Service) save(conv *Conversation) error {
	data, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation: %w", err)
	}

	// write-then-rename keeps the checkpoint intact on a mid-write crash
	tmp := s.path(conv.ThreadID) + ".tmp"
	if err = os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write thread file: %w", err)
	}
	if err = os.Rename(tmp, s.path(conv.ThreadID)); err != nil {
		return fmt.Errorf("failed to replace thread file: %w", err)
	}

	return nil
}

func (s *Service) path(threadID string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, threadID)
	return filepath.Join(s.dir, safe+".json")
}
