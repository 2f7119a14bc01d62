package server

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

const (
	sessionName        = "garden_session"
	sessionKeyUserID   = "user_id"
	sessionKeyFault    = "fault_mode"
	sessionMaxAgeHours = 24
)

// CookieResolver maps an incoming HTTP request to a visitor identity using
// a signed session cookie. It implements domain.IdentityResolver.
type CookieResolver struct {
	store *sessions.CookieStore
}

func NewCookieResolver(secret string, secure bool) *CookieResolver {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   3600 * sessionMaxAgeHours,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &CookieResolver{store: store}
}

// Resolve extracts the visitor identity and fault-mode flag from the
// request cookie. ok is false when no valid identity is present.
func (r *CookieResolver) Resolve(req *http.Request) (uuid.UUID, bool, bool) {
	session, err := r.store.Get(req, sessionName)
	if err != nil {
		return uuid.Nil, false, false
	}

	raw, ok := session.Values[sessionKeyUserID]
	if !ok {
		return uuid.Nil, false, false
	}

	idStr, ok := raw.(string)
	if !ok {
		return uuid.Nil, false, false
	}

	identity, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, false, false
	}

	faultMode, _ := session.Values[sessionKeyFault].(bool)
	return identity, faultMode, true
}

// SetIdentity writes a fresh identity into the response cookie.
func (r *CookieResolver) SetIdentity(req *http.Request, w http.ResponseWriter, identity uuid.UUID, faultMode bool) error {
	session, err := r.store.Get(req, sessionName)
	if err != nil {
		session, err = r.store.New(req, sessionName)
		if err != nil {
			return err
		}
	}
	session.Values[sessionKeyUserID] = identity.String()
	session.Values[sessionKeyFault] = faultMode
	return session.Save(req, w)
}

// SetFaultMode updates only the fault-mode flag, keeping the identity.
func (r *CookieResolver) SetFaultMode(req *http.Request, w http.ResponseWriter, faultMode bool) error {
	session, err := r.store.Get(req, sessionName)
	if err != nil {
		return err
	}
	session.Values[sessionKeyFault] = faultMode
	return session.Save(req, w)
}

// Clear expires the session cookie.
func (r *CookieResolver) Clear(req *http.Request, w http.ResponseWriter) error {
	session, err := r.store.Get(req, sessionName)
	if err != nil {
		session, err = r.store.New(req, sessionName)
		if err != nil {
			return err
		}
	}
	session.Options.MaxAge = -1
	return session.Save(req, w)
}
