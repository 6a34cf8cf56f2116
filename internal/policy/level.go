// Package policy implements the access-level hierarchy shared by every
// protected endpoint.  Levels form a simple total order: a higher level
// always satisfies a gate placed at a lower one.  There are no independent
// permission bits anywhere in the application; this package is the single
// source of truth for "who may pass".
package policy

// Level is the access tier of an identity.  The four values mirror the
// `users.level` column.  Anything read from the outside world must go
// through Normalize before being compared.
type Level int

const (
	LevelPublic     Level = 1 // unauthenticated browsing tier
	LevelTechnician Level = 2
	LevelStaff      Level = 3
	LevelAdmin      Level = 4
)

// Satisfies reports whether l is allowed through a gate requiring the given
// level.  The hierarchy is monotone: LevelAdmin passes every gate.
func (l Level) Satisfies(required Level) bool { return l >= required }

// Valid reports whether l is one of the four defined tiers.
func (l Level) Valid() bool { return l >= LevelPublic && l <= LevelAdmin }

// Normalize maps an arbitrary integer onto a defined level.  Values outside
// {1,2,3,4} collapse to LevelPublic so that a garbage level token can never
// open a privileged gate.
func Normalize(v int) Level {
	l := Level(v)
	if !l.Valid() {
		return LevelPublic
	}
	return l
}

// Label returns the human-readable name shown in responses and audit lines.
func (l Level) Label() string {
	switch l {
	case LevelAdmin:
		return "Amministratore"
	case LevelStaff:
		return "Staff"
	case LevelTechnician:
		return "Tecnico"
	default:
		return "Pubblico"
	}
}

func (l Level) String() string { return l.Label() }

// DenialMessage returns the message shown when a gate at the given required
// level rejects a request.  Levels without a dedicated entry fall back to a
// generic message, mirroring the per-level message table the gate consults.
func DenialMessage(required Level) string {
	switch required {
	case LevelAdmin:
		return "Accesso riservato agli amministratori."
	case LevelStaff:
		return "Accesso riservato al personale dello staff."
	case LevelTechnician:
		return "Accesso riservato ai tecnici registrati."
	default:
		return "Non hai i permessi necessari per accedere a questa risorsa."
	}
}
