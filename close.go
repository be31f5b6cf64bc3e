package sharedcomp

// Close releases the store's storage and logs a warning per type that still
// holds live values. Using the store afterwards panics with ErrClosed.
func (s *Store) Close() error {
	if s == nil || s.closed {
		return nil
	}
	for _, c := range s.columns {
		if c == nil {
			continue
		}
		if live := c.table().LiveCount(); live > 0 {
			s.logger.WithType(c.anyType().Name()).LogLeak(live)
		}
	}
	s.columns = nil
	s.index.Clear()
	s.closed = true
	return nil
}
