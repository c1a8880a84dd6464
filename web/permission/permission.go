// Package permission decides whether an actor may perform an operation.
//
// A Policy is an ordered list of rules. Each rule allows, denies or
// abstains; the first rule that does not abstain decides, and a request
// nobody allowed is denied.
package permission

import (
	"net/http"

	"github.com/yamdb/api-yamdb/database/model"
	"github.com/yamdb/api-yamdb/web/entity"
)

type Decision int

const (
	Abstain Decision = iota
	Allow
	Deny
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Deny:
		return "deny"
	default:
		return "abstain"
	}
}

// Authored is implemented by objects that have an author.
type Authored interface {
	AuthorID() int
}

// Request describes one operation. Actor is nil for anonymous callers and
// Object is nil for collection-level checks.
type Request struct {
	Actor  *model.User
	Method string
	Object Authored
}

// Safe reports whether the method only reads.
func (r Request) Safe() bool {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

type Rule func(Request) Decision

func SafeMethod(r Request) Decision {
	if r.Safe() {
		return Allow
	}
	return Abstain
}

func Authenticated(r Request) Decision {
	if r.Actor != nil {
		return Allow
	}
	return Abstain
}

func DenyAnonymous(r Request) Decision {
	if r.Actor == nil {
		return Deny
	}
	return Abstain
}

func Author(r Request) Decision {
	if r.Actor != nil && r.Object != nil && r.Object.AuthorID() == r.Actor.Id {
		return Allow
	}
	return Abstain
}

func Moderator(r Request) Decision {
	if r.Actor.IsModerator() {
		return Allow
	}
	return Abstain
}

func Admin(r Request) Decision {
	if r.Actor.IsAdmin() {
		return Allow
	}
	return Abstain
}

// Evaluate runs rules in order and returns the first decision that is not
// Abstain, or Deny when every rule abstains.
func Evaluate(r Request, rules ...Rule) Decision {
	for _, rule := range rules {
		if d := rule(r); d != Abstain {
			return d
		}
	}
	return Deny
}

type Policy []Rule

var (
	CollectionAuthenticatedOrReadOnly    = Policy{SafeMethod, Authenticated}
	ObjectAuthorModeratorAdminOrReadOnly = Policy{SafeMethod, Author, Moderator, Admin}
	AdminOrReadOnly                      = Policy{SafeMethod, Admin}
	AdminOnly                            = Policy{DenyAnonymous, Admin}
	AuthenticatedOnly                    = Policy{Authenticated}
)

func (p Policy) Evaluate(r Request) Decision {
	return Evaluate(r, p...)
}

// Check returns nil when the policy allows r, entity.ErrNotAuthenticated
// when an anonymous actor is denied and entity.ErrPermissionDenied otherwise.
func (p Policy) Check(r Request) error {
	if p.Evaluate(r) == Allow {
		return nil
	}
	if r.Actor == nil {
		return entity.ErrNotAuthenticated
	}
	return entity.ErrPermissionDenied
}
