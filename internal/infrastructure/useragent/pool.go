// Package useragent rotates browser user-agent strings for outbound scraping requests.
package useragent

import (
	"math/rand/v2"
)

// defaultAgents are recent desktop browser user agents
var defaultAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_4_1) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4.1 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36 Edg/124.0.2478.67",
}

// Pool hands out user agents at random. It is safe for concurrent use.
type Pool struct {
	agents []string
}

// NewPool creates a pool from the given agents, falling back to built-in browser agents
func NewPool(agents []string) *Pool {
	var cleaned []string
	for _, a := range agents {
		if a != "" {
			cleaned = append(cleaned, a)
		}
	}
	if len(cleaned) == 0 {
		cleaned = defaultAgents
	}
	return &Pool{agents: cleaned}
}

// Next returns a randomly chosen user agent
func (p *Pool) Next() string {
	return p.agents[rand.IntN(len(p.agents))]
}

// Size returns the number of agents in the pool
func (p *Pool) Size() int {
	return len(p.agents)
}
