package auth

import (
	"encoding/json"
	"strings"

	jwt "github.com/golang-jwt/jwt/v5"
)

// RolePrefix marks role authorities.
const RolePrefix = "ROLE_"

// Claims is the verified payload of an identity provider token.
// Optional claims are pointers or nil slices; absence is never an error.
type Claims struct {
	Email    string     `json:"email,omitempty"`
	Role     *Text      `json:"role,omitempty"`
	UserRole *Text      `json:"user_role,omitempty"`
	Roles    RoleList   `json:"roles,omitempty"`
	Scope    StringList `json:"scope,omitempty"`
	Scp      StringList `json:"scp,omitempty"`
	jwt.RegisteredClaims
}

// Text is a claim read as a string. Non-string JSON values keep their literal text.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = Text(s)
		return nil
	}
	*t = Text(string(data))
	return nil
}

// StringList accepts a JSON array of strings or a space-delimited string.
// Any other shape decodes to an empty list.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	var values []string
	if err := json.Unmarshal(data, &values); err == nil {
		*l = values
		return nil
	}
	var joined string
	if err := json.Unmarshal(data, &joined); err == nil {
		*l = strings.Fields(joined)
		return nil
	}
	*l = nil
	return nil
}

// RoleList accepts only a JSON array of strings. Any other shape, including a
// plain string, decodes to an empty list.
type RoleList []string

func (l *RoleList) UnmarshalJSON(data []byte) error {
	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		*l = nil
		return nil
	}
	*l = values
	return nil
}

// ScopeValues returns the OAuth2 scopes carried by "scope", falling back to "scp".
func (c *Claims) ScopeValues() []string {
	if len(c.Scope) > 0 {
		return c.Scope
	}
	return c.Scp
}

// ScopeAuthorities maps OAuth2 scopes one-to-one onto role authorities.
func ScopeAuthorities(c *Claims) []string {
	scopes := c.ScopeValues()
	out := make([]string, 0, len(scopes))
	for _, scope := range scopes {
		if scope == "" {
			continue
		}
		out = append(out, RolePrefix+scope)
	}
	return out
}

// Authorities is the set of permission strings granted to a caller.
type Authorities []string

// Has reports whether the set contains name.
func (a Authorities) Has(name string) bool {
	for _, candidate := range a {
		if candidate == name {
			return true
		}
	}
	return false
}

// HasAny reports whether the set contains at least one of names.
func (a Authorities) HasAny(names ...string) bool {
	for _, name := range names {
		if a.Has(name) {
			return true
		}
	}
	return false
}

// MapAuthorities derives granted authorities from token claims: the role and
// user_role claims, each element of a roles list, then the precomputed scope
// authorities. Role values are upper-cased; scope authorities are kept as given.
func MapAuthorities(c *Claims, scopeAuthorities []string) Authorities {
	result := Authorities{}
	add := func(authority string) {
		if !result.Has(authority) {
			result = append(result, authority)
		}
	}

	if c != nil {
		if c.Role != nil {
			add(RolePrefix + strings.ToUpper(string(*c.Role)))
		}
		if c.UserRole != nil {
			add(RolePrefix + strings.ToUpper(string(*c.UserRole)))
		}
		for _, role := range c.Roles {
			add(RolePrefix + strings.ToUpper(role))
		}
	}
	for _, authority := range scopeAuthorities {
		add(authority)
	}
	return result
}
