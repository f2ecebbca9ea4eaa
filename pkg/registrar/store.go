package registrar

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/fairshared/fairshared/pkg/errors"
)

// Store reads the invitation list and records completed registrations.
// Both files hold one whitespace-separated pair per line: the invitation
// file maps an id to the invitee's name, the processed file maps an id to
// the unix username it registered.
type Store struct {
	usersFile     string
	processedFile string

	mu sync.Mutex
}

// NewStore creates a Store over the two files.
func NewStore(usersFile, processedFile string) *Store {
	return &Store{usersFile: usersFile, processedFile: processedFile}
}

// Invited returns the invitation map. A missing file is an empty list.
func (s *Store) Invited() (map[string]string, error) {
	return readPairs(s.usersFile)
}

// Processed returns the completed registrations. A missing file means
// nobody registered yet.
func (s *Store) Processed() (map[string]string, error) {
	return readPairs(s.processedFile)
}

// RecordProcessed appends one completed registration.
func (s *Store) RecordProcessed(id, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.processedFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, "opening processed users file", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "%s %s\n", id, username); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, "recording registration", err)
	}
	return nil
}

func readPairs(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "opening pairs file", err)
	}
	defer f.Close()

	pairs := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, errors.WrapWithContext(errors.ErrCodeInternal,
				"malformed pairs line", nil, map[string]any{"path": path, "line": line})
		}
		pairs[fields[0]] = fields[1]
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "reading pairs file", err)
	}
	return pairs, nil
}
