package feed

import "github.com/poiesic/pawgraph/core"

// Session supplies the identity of the viewer, if any.
type Session interface {
	CurrentUser() (*core.SessionUser, bool)
}

// Anonymous is a Session with no signed-in user.
var Anonymous Session = fixedSession{}

// AsUser returns a Session that always reports user.
func AsUser(user core.SessionUser) Session {
	return fixedSession{user: &user}
}

type fixedSession struct {
	user *core.SessionUser
}

func (s fixedSession) CurrentUser() (*core.SessionUser, bool) {
	if s.user == nil || s.user.Id == 0 {
		return nil, false
	}
	return s.user, true
}

// viewerID returns the signed-in user's ID or 0.
func viewerID(session Session) core.ID {
	if session == nil {
		return 0
	}
	user, ok := session.CurrentUser()
	if !ok || user == nil {
		return 0
	}
	return user.Id
}
