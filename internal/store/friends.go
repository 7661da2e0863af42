package store

// AddRequest inserts a friend request into the named bucket unless a
// request with the same id is already there, and marks the bucket
// loaded.
func (s *Store) AddRequest(category Category, r FriendRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.requests[category]
	if !ok {
		return
	}
	for _, existing := range b.Requests {
		if existing.ID == r.ID {
			return
		}
	}
	b.Requests = append(b.Requests, r)
	b.Loaded = true
}

// MoveRequest relocates a request to a new bucket. The full updated
// request object is required, not a bare id: when a status change moves
// a request between buckets the stored copy must reflect the new
// status, which the id alone cannot supply. The request is removed from
// every bucket before insertion, so an id lives in at most one bucket
// at a time.
func (s *Store) MoveRequest(r FriendRequest, newCategory Category) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, ok := s.requests[newCategory]
	if !ok {
		return
	}
	s.removeRequestLocked(r.ID)
	target.Requests = append(target.Requests, r)
}

// DeleteRequest removes the request with the given id from every
// bucket.
func (s *Store) DeleteRequest(requestID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeRequestLocked(requestID)
}

func (s *Store) removeRequestLocked(requestID int) {
	for _, b := range s.requests {
		for i := range b.Requests {
			if b.Requests[i].ID == requestID {
				b.Requests = append(b.Requests[:i], b.Requests[i+1:]...)
				break
			}
		}
	}
}

// SetRequestsCount sets the absolute server-side count for a category.
func (s *Store) SetRequestsCount(category Category, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b, ok := s.requests[category]; ok {
		count := n
		b.Count = &count
	}
}

// AlterRequestsCount applies a relative adjustment to a category count.
// Deltas arriving before the baseline count has been fetched are
// dropped: adjusting an unknown baseline would fabricate a meaningless
// (possibly negative) number, and the pending baseline fetch will
// include the change anyway. Counts never go below zero.
func (s *Store) AlterRequestsCount(category Category, delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.requests[category]
	if !ok || b.Count == nil {
		return
	}
	n := *b.Count + delta
	if n < 0 {
		n = 0
	}
	b.Count = &n
}

// SwitchRequestsLoaded marks a bucket's list as fetched. One-way for
// the session, like SwitchMessagesLoaded.
func (s *Store) SwitchRequestsLoaded(category Category) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b, ok := s.requests[category]; ok {
		b.Loaded = true
	}
}

// Requests returns a copy of the bucket for a category.
func (s *Store) Requests(category Category) RequestBucket {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.requests[category]
	if !ok {
		return RequestBucket{}
	}
	out := RequestBucket{
		Requests: append([]FriendRequest(nil), b.Requests...),
		Loaded:   b.Loaded,
	}
	if b.Count != nil {
		n := *b.Count
		out.Count = &n
	}
	return out
}

// FindRequest looks up a request by id across all buckets and reports
// the bucket it lives in.
func (s *Store) FindRequest(requestID int) (FriendRequest, Category, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, cat := range Categories {
		for _, r := range s.requests[cat].Requests {
			if r.ID == requestID {
				return r, cat, true
			}
		}
	}
	return FriendRequest{}, "", false
}
