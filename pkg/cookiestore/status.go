package cookiestore

import (
	"time"
)

// Status summarises the stored cookie file.
type Status struct {
	Path      string
	Exists    bool
	Size      int64
	SavedAt   time.Time
	Count     int
	Expired   bool
	ExpiresAt *time.Time // earliest expiry among cookies that have one
}

// Status inspects the cookie file without modifying it.
func (s *Store) Status() Status {
	st := Status{Path: s.path}

	info, err := s.fs.Stat(s.path)
	if err != nil {
		st.Expired = true
		return st
	}
	st.Exists = true
	st.Size = info.Size()

	set := s.Load()
	st.SavedAt = set.Timestamp
	st.Count = len(set.Cookies)
	st.Expired = s.IsExpired(set.Cookies)

	for _, c := range set.Cookies {
		exp, ok := c.ExpiresAt()
		if !ok {
			continue
		}
		if st.ExpiresAt == nil || exp.Before(*st.ExpiresAt) {
			e := exp
			st.ExpiresAt = &e
		}
	}
	return st
}
