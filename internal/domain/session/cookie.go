// Package session describes the storefront session cookie. The token value is
// opaque to this service; it is only ever cleared here.
package session

import "time"

// CookiePath is the path the session cookie was issued on.
const CookiePath = "/"

// Cookie mirrors the attributes of the session cookie as issued at login.
type Cookie struct {
	Name     string
	Value    string
	Path     string
	Expires  time.Time
	HTTPOnly bool
	Secure   bool
}

// Policy holds the attributes shared by every session cookie the storefront issues.
type Policy struct {
	Name   string
	Secure bool
}

// Cleared returns the cookie that instructs a browser to delete the session:
// empty value, the issuing path and flags, and an expiry at the Unix epoch.
func (p Policy) Cleared() Cookie {
	return Cookie{
		Name:     p.Name,
		Value:    "",
		Path:     CookiePath,
		Expires:  time.Unix(0, 0).UTC(),
		HTTPOnly: true,
		Secure:   p.Secure,
	}
}
