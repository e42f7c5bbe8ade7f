package session

/*
 * 'Session' carries the resolved identity of the caller into every core
 * operation. There is no process-wide "current user": controllers build a
 * Session from the auth middleware and pass it down explicitly.
 */
type Session struct {
	UserID string
	Online bool
}

func New(userID string, online bool) Session {
	return Session{UserID: userID, Online: online}
}

func (s Session) Authenticated() bool {
	return s.UserID != ""
}
