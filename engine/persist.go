package engine

import "log"

// persistDiscoveries drains discovered, calling AddToFrontier for each
// link; the return value is ignored (duplicates are silently dropped), per
// spec.md §4.8. Exits once discovered is closed and drained.
func (e *Engine) persistDiscoveries(discovered <-chan string) {
	for link := range discovered {
		if _, err := e.store.AddToFrontier(link); err != nil {
			log.Printf("engine: add to frontier failed for %q: %v", link, err)
		}
	}
}
