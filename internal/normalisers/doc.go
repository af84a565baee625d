// Package normalisers canonicalises a candidate's identifying fields into
// comparison keys. Persisted ledger keys are produced here, so every
// function is pure and idempotent: Name(Name(x)) == Name(x).
package normalisers
