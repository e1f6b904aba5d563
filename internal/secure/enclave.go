package secure

import (
	"errors"
	"sync"

	"github.com/awnumar/memguard"
)

// ErrDestroyed is returned when a destroyed Sealed value is opened.
var ErrDestroyed = errors.New("sealed value has been destroyed")

// Sealed holds a secret encrypted in a memguard enclave between the moment
// it is read from the user and the moment it is sent to splunkd.
type Sealed struct {
	enclave   *memguard.Enclave
	empty     bool
	destroyed bool
	mu        sync.RWMutex
}

// Seal moves data into an enclave. memguard wipes data in the process.
func Seal(data []byte) *Sealed {
	if len(data) == 0 {
		return &Sealed{empty: true}
	}
	return &Sealed{enclave: memguard.NewEnclave(data)}
}

// SealString seals a copy of s.
func SealString(s string) *Sealed {
	return Seal([]byte(s))
}

// Reveal decrypts the secret and passes a copy of it to fn. The locked
// buffer holding the plaintext is wiped when fn returns.
func (s *Sealed) Reveal(fn func(plaintext string) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.destroyed {
		return ErrDestroyed
	}
	if s.empty {
		return fn("")
	}

	locked, err := s.enclave.Open()
	if err != nil {
		return err
	}
	defer locked.Destroy()

	return fn(string(locked.Bytes()))
}

// Destroy drops the enclave. It is safe to call more than once.
//
// Call memguard.Purge in main to wipe all enclave keys at exit.
func (s *Sealed) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.enclave = nil
	s.destroyed = true
}

// String implements fmt.Stringer so a Sealed value never prints its content.
func (s *Sealed) String() string {
	return "[REDACTED]"
}
