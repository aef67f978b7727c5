package analyzer

import "sync"

var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_4) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
}

// UserAgents hands out browser user agent strings in rotation
type UserAgents struct {
	mu     sync.Mutex
	agents []string
	next   int
}

// NewUserAgents creates a rotation over agents, or over a built-in list
// of current desktop browsers when none are given.
func NewUserAgents(agents ...string) *UserAgents {
	if len(agents) == 0 {
		agents = defaultUserAgents
	}
	return &UserAgents{agents: agents}
}

// Next returns the next user agent
func (u *UserAgents) Next() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	ua := u.agents[u.next]
	u.next = (u.next + 1) % len(u.agents)
	return ua
}
