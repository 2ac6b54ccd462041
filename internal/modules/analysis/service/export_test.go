package service

// Fire runs one analysis tick for the session as if its ticker had fired.
// It reports false when the session is not scheduled or a call is in flight.
func (s *Scheduler) Fire(sessionID string) bool {
	s.mu.Lock()
	j, ok := s.jobs[sessionID]
	s.mu.Unlock()
	if !ok {
		return false
	}
	return s.dispatch(j)
}
