package service

import "github.com/iliyamo/nightclub-reservation/internal/model"

// Session identifies who is making a request.  Anonymous callers get a
// guest session.  Roles are compared by equality; no role implies another.
type Session struct {
	UserID uint64
	Role   model.Role
}

// GuestSession is the session of an anonymous caller.
func GuestSession() Session { return Session{Role: model.RoleGuest} }

// Is reports whether the session has exactly the given role.
func (s Session) Is(role model.Role) bool { return s.Role == role }

// IsAny reports whether the session has one of the given roles.
func (s Session) IsAny(roles ...model.Role) bool {
	for _, r := range roles {
		if s.Role == r {
			return true
		}
	}
	return false
}

// Authenticated reports whether a user is behind the session.
func (s Session) Authenticated() bool { return s.UserID != 0 }
