package common

// SessionCookieName is the name of the httpOnly cookie carrying the session token.
const SessionCookieName = "session"

// AppName is used in outgoing notifications.
const AppName = "FudBi"
