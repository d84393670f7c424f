package pantry

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Kind names the partitioning strategy a Scope was built under.
type Kind string

const (
	KindGlobal   Kind = "global"
	KindSession  Kind = "session"
	KindIdentity Kind = "identity"
)

// Scope selects the collection every engine call operates on. It is built by
// the hosting layer once per request and passed explicitly.
type Scope struct {
	Kind Kind
	Key  string
}

func GlobalScope() Scope {
	return Scope{Kind: KindGlobal}
}

func SessionScope(token string) Scope {
	return Scope{Kind: KindSession, Key: token}
}

func IdentityScope(userID uuid.UUID) Scope {
	return Scope{Kind: KindIdentity, Key: userID.String()}
}

// ParseScope builds a scope from its collection string, the inverse of Collection.
func ParseScope(collection string) (Scope, error) {
	if collection == string(KindGlobal) {
		return GlobalScope(), nil
	}
	prefix, key, ok := strings.Cut(collection, ":")
	if !ok {
		return Scope{}, fmt.Errorf("invalid scope %q", collection)
	}
	var s Scope
	switch prefix {
	case "session":
		s = SessionScope(key)
	case "user":
		s = Scope{Kind: KindIdentity, Key: key}
	default:
		return Scope{}, fmt.Errorf("invalid scope prefix %q", prefix)
	}
	return s, s.Validate()
}

// Validate checks that Key matches what Kind requires.
func (s Scope) Validate() error {
	switch s.Kind {
	case KindGlobal:
		if s.Key != "" {
			return fmt.Errorf("global scope takes no key")
		}
	case KindSession:
		if strings.TrimSpace(s.Key) == "" {
			return fmt.Errorf("session scope requires a token")
		}
	case KindIdentity:
		id, err := uuid.Parse(s.Key)
		if err != nil || id == uuid.Nil {
			return fmt.Errorf("identity scope requires a user id")
		}
	default:
		return fmt.Errorf("unknown scope kind %q", s.Kind)
	}
	return nil
}

// Collection returns the storage partition for the scope.
func (s Scope) Collection() string {
	switch s.Kind {
	case KindSession:
		return "session:" + s.Key
	case KindIdentity:
		return "user:" + s.Key
	default:
		return string(KindGlobal)
	}
}
