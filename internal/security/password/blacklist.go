package password

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Blacklist es un set de passwords prohibidos (case-insensitive).
type Blacklist struct {
	mu   sync.RWMutex
	data map[string]struct{}
}

// NewBlacklist arma una blacklist en memoria.
func NewBlacklist(words ...string) *Blacklist {
	bl := &Blacklist{data: make(map[string]struct{}, len(words))}
	for _, w := range words {
		bl.Add(w)
	}
	return bl
}

// LoadBlacklist lee un archivo de una palabra por línea; '#' comenta.
// Un path vacío devuelve una blacklist vacía.
func LoadBlacklist(path string) (*Blacklist, error) {
	bl := NewBlacklist()
	if strings.TrimSpace(path) == "" {
		return bl, nil
	}
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s != "" && !strings.HasPrefix(s, "#") {
			bl.Add(s)
		}
	}
	return bl, sc.Err()
}

func (b *Blacklist) Add(pwd string) {
	p := strings.ToLower(strings.TrimSpace(pwd))
	if p == "" {
		return
	}
	b.mu.Lock()
	b.data[p] = struct{}{}
	b.mu.Unlock()
}

func (b *Blacklist) Contains(pwd string) bool {
	if b == nil {
		return false
	}
	p := strings.ToLower(strings.TrimSpace(pwd))
	b.mu.RLock()
	_, ok := b.data[p]
	b.mu.RUnlock()
	return ok
}
